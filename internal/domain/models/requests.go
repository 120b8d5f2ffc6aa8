package models

// Requests for the diagnosis HTTP endpoints. Defined in domain for consistency and reuse.

type DiagnosisRequest struct {
	Brand      string `param:"brand" json:"brand" validate:"required"`
	PeriodDays int    `query:"period_days" json:"period_days" default:"30" validate:"gte=7,lte=365"`
	AsOf       string `query:"as_of" json:"as_of"`
	Refresh    bool   `query:"refresh" json:"refresh"`
}

type DecisionRequest struct {
	Brand      string `param:"brand" json:"brand" validate:"required"`
	PeriodDays int    `query:"period_days" json:"period_days" default:"30" validate:"gte=7,lte=365"`
	AsOf       string `query:"as_of" json:"as_of"`
	Refresh    bool   `query:"refresh" json:"refresh"`
}

type PortfolioDecisionsRequest struct {
	Brands      []string `json:"brands" validate:"required,min=1,max=50,dive,required"`
	PeriodDays  int      `json:"period_days" default:"30" validate:"gte=7,lte=365"`
	Concurrency int      `json:"concurrency" default:"4" validate:"gte=1,lte=16"`
}
