package decision

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"BrandPulse/internal/domain/models"
	"BrandPulse/internal/domain/repository"
)

// buildSummary renders the 1-2 sentence executive summary: direction and
// magnitude first, then the top drivers pointing the same way, then a trend
// narrative when one exists.
func buildSummary(diag *models.Diagnosis, state string) string {
	yoy := diag.Decomposition.RevenueDeltaPct
	if yoy == nil {
		return fmt.Sprintf("%s has no prior-year revenue baseline for this period.", diag.Brand)
	}

	direction := "increased"
	wantDir := models.DirectionPositive
	if *yoy < 0 {
		direction = "decreased"
		wantDir = models.DirectionNegative
	}
	first := fmt.Sprintf("%s revenue %s %.0f%% year-on-year", diag.Brand, direction, math.Abs(*yoy))

	if phrases := topDriverPhrases(diag.Decomposition.Drivers, wantDir, 2); len(phrases) > 0 {
		first += ", driven mainly by " + strings.Join(phrases, " and ")
	}
	first += "."

	if second := trendNarrative(diag); second != "" {
		return first + " " + second
	}
	return first
}

func topDriverPhrases(drivers []models.DriverContribution, wantDir string, limit int) []string {
	matching := make([]models.DriverContribution, 0, len(drivers))
	for _, d := range drivers {
		if d.Direction == wantDir && d.Dollars != 0 {
			matching = append(matching, d)
		}
	}
	sort.SliceStable(matching, func(i, j int) bool {
		return math.Abs(matching[i].Dollars) > math.Abs(matching[j].Dollars)
	})
	if len(matching) > limit {
		matching = matching[:limit]
	}
	phrases := make([]string, 0, len(matching))
	for _, d := range matching {
		phrases = append(phrases, driverPhrase(d))
	}
	return phrases
}

func driverPhrase(d models.DriverContribution) string {
	if d.Driver == models.DriverProductMix && d.Mix != nil {
		return fmt.Sprintf("product mix (%d new, %d lost products)", d.Mix.NewProducts, d.Mix.LostProducts)
	}
	switch d.Driver {
	case models.DriverVolume:
		return "unit volume"
	case models.DriverPrice:
		return "pricing"
	case models.DriverProductMix:
		return "product mix"
	case models.DriverAds:
		return "advertising"
	case models.DriverDemand:
		return "search demand"
	case models.DriverConversion:
		return "conversion"
	case models.DriverFulfillment:
		return "fulfillment"
	case models.DriverMargin:
		return "margin"
	default:
		return d.Driver
	}
}

func trendNarrative(diag *models.Diagnosis) string {
	if t, ok := diag.WeeklyTrends[string(repository.MetricAdsROAS)]; ok {
		switch t.Label {
		case models.TrendAcceleratingDecline:
			return "Ad ROAS is in an accelerating multi-week decline."
		case models.TrendDeclining:
			return "Ad ROAS has been in a multi-week decline."
		}
	}
	if t, ok := diag.WeeklyTrends[string(repository.MetricRevenue)]; ok {
		switch t.Label {
		case models.TrendAcceleratingDecline:
			return "The weekly revenue decline is accelerating."
		case models.TrendRecovering:
			return "Weekly revenue is recovering from its earlier dip."
		}
	}
	if t, ok := diag.WeeklyTrends[string(repository.MetricSearchClicks)]; ok {
		if t.Label == models.TrendDeclining || t.Label == models.TrendAcceleratingDecline {
			return "Branded search interest is trending down."
		}
	}
	if v := diag.Ads.ROASChangePct; v != nil && math.Abs(*v) > 30 {
		word := "improved"
		if *v < 0 {
			word = "deteriorated"
		}
		return fmt.Sprintf("Ad efficiency %s %.0f%% YoY.", word, math.Abs(*v))
	}
	return ""
}
