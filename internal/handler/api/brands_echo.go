package api

import (
	"context"
	"net/http"
	"time"

	models "BrandPulse/internal/domain/models"
	"BrandPulse/internal/service/metrics"
	"BrandPulse/internal/service/ratelimit"
	"BrandPulse/internal/usecase"
	"BrandPulse/pkg/config"
	xhttp "BrandPulse/pkg/http"
	xlogger "BrandPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// HealthChecker reports whether the analytical store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// BrandsEchoHandler exposes the diagnosis and decision engine over HTTP.
type BrandsEchoHandler struct {
	logger    *xlogger.Logger
	diagnose  *usecase.DiagnoseUseCase
	decide    *usecase.DecideUseCase
	portfolio *usecase.PortfolioUseCase
	health    HealthChecker
	rl        *ratelimit.Limiter
	rlCfg     config.RateLimit
}

func NewBrandsEchoHandler(
	logger *xlogger.Logger,
	diagnose *usecase.DiagnoseUseCase,
	decide *usecase.DecideUseCase,
	portfolio *usecase.PortfolioUseCase,
	health HealthChecker,
	rlCfg config.RateLimit,
) *BrandsEchoHandler {
	metrics.Register()
	return &BrandsEchoHandler{
		logger:    logger,
		diagnose:  diagnose,
		decide:    decide,
		portfolio: portfolio,
		health:    health,
		rl:        ratelimit.New(),
		rlCfg:     rlCfg,
	}
}

func (h *BrandsEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/brands/:brand/diagnosis", h.Diagnosis)
	g.GET("/brands/:brand/decision", h.Decision)
	g.POST("/portfolio/decisions", h.PortfolioDecisions)
	e.GET("/healthz", h.Healthz)
}

func (h *BrandsEchoHandler) Diagnosis(c echo.Context) error {
	start := time.Now()
	endpoint := "diagnosis"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.DiagnosisRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint) {
		return c.NoContent(http.StatusTooManyRequests)
	}

	diag, err := h.diagnose.Diagnose(c.Request().Context(), usecase.DiagnoseParams{
		Brand:      req.Brand,
		PeriodDays: req.PeriodDays,
		AsOf:       xhttp.ParseTimeDefault(req.AsOf, time.Time{}),
		Refresh:    req.Refresh,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("diagnosis usecase error", xlogger.String("brand", req.Brand), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, diag)
}

func (h *BrandsEchoHandler) Decision(c echo.Context) error {
	start := time.Now()
	endpoint := "decision"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.DecisionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint) {
		return c.NoContent(http.StatusTooManyRequests)
	}

	d, err := h.decide.Decide(c.Request().Context(), usecase.DiagnoseParams{
		Brand:      req.Brand,
		PeriodDays: req.PeriodDays,
		AsOf:       xhttp.ParseTimeDefault(req.AsOf, time.Time{}),
		Refresh:    req.Refresh,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("decision usecase error", xlogger.String("brand", req.Brand), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.SuccessResponse(c, d)
}

func (h *BrandsEchoHandler) PortfolioDecisions(c echo.Context) error {
	start := time.Now()
	endpoint := "portfolio_decisions"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	req := &models.PortfolioDecisionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.allow(c, endpoint) {
		return c.NoContent(http.StatusTooManyRequests)
	}

	res, err := h.portfolio.Decide(c.Request().Context(), usecase.PortfolioParams{
		Brands:      req.Brands,
		PeriodDays:  req.PeriodDays,
		Concurrency: req.Concurrency,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("portfolio usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *BrandsEchoHandler) Healthz(c echo.Context) error {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.health.Health(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "degraded", "error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *BrandsEchoHandler) allow(c echo.Context, endpoint string) bool {
	burst := float64(h.rlCfg.Burst)
	rps := float64(h.rlCfg.RPS)
	if burst <= 0 {
		burst = 40
	}
	if rps <= 0 {
		rps = 20
	}
	if h.rl.Allow(c.RealIP()+":"+endpoint, burst, rps) {
		return true
	}
	h.logger.Warn("rate limited",
		xlogger.String("endpoint", endpoint),
		xlogger.String("remote", c.RealIP()))
	return false
}
