package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"airfare-insights/models"
)

const (
	maxRecommendations = 5
	highDemandScore    = 70
	lowDemandScore     = 40
)

// FallbackGenerator derives insights from the report alone, without any
// external service.
type FallbackGenerator struct {
	now func() time.Time
}

func NewFallbackGenerator() *FallbackGenerator {
	return &FallbackGenerator{now: time.Now}
}

func (g *FallbackGenerator) Generate(_ context.Context, report *models.AnalysisReport, kind string) (*Insight, error) {
	if report == nil {
		return nil, errNoReport()
	}
	kind = ParseKind(kind)

	insight := &Insight{
		Kind:        kind,
		Source:      SourceFallback,
		GeneratedAt: g.now(),
	}
	switch kind {
	case KindTrends:
		insight.Lines = trendLines(report)
	case KindPricing:
		insight.Lines = pricingLines(report)
	case KindDemand:
		insight.Lines = demandLines(report)
	default:
		insight.Lines = generalLines(report)
	}
	insight.Recommendations = recommendations(report)
	return insight, nil
}

func trendLines(report *models.AnalysisReport) []string {
	lines := []string{}
	for _, id := range report.RouteOrder {
		ra := report.Route(id)
		switch ra.Trend.Direction {
		case models.TrendRising:
			lines = append(lines, fmt.Sprintf("%s: Prices are trending upward (avg: $%.0f)", id, ra.Stats.MeanPrice))
		case models.TrendFalling:
			lines = append(lines, fmt.Sprintf("%s: Prices are trending downward (avg: $%.0f)", id, ra.Stats.MeanPrice))
		default:
			lines = append(lines, fmt.Sprintf("%s: Prices are relatively stable (avg: $%.0f)", id, ra.Stats.MeanPrice))
		}
		for _, a := range ra.Trend.Anomalies {
			lines = append(lines, fmt.Sprintf("%s: unusual fare of $%.0f on %s (%.1f sigma)",
				id, a.Price, a.DepartureDate.Format("2006-01-02"), a.DeviationSigma))
		}
	}
	return lines
}

func pricingLines(report *models.AnalysisReport) []string {
	if len(report.Routes) == 0 {
		return []string{}
	}
	minMean, maxMean := 0.0, 0.0
	for i, id := range report.RouteOrder {
		m := report.Route(id).Stats.MeanPrice
		if i == 0 || m < minMean {
			minMean = m
		}
		if i == 0 || m > maxMean {
			maxMean = m
		}
	}
	lines := []string{
		fmt.Sprintf("Average ticket price across all routes: $%.0f", report.OverallMeanPrice),
		fmt.Sprintf("Price range: $%.0f - $%.0f", minMean, maxMean),
	}
	if minMean > 0 {
		lines = append(lines, fmt.Sprintf("Price volatility: %.1fx difference between cheapest and most expensive routes", maxMean/minMean))
	}
	if len(report.CheapestRoutes) > 0 {
		lines = append(lines, fmt.Sprintf("Cheapest routes: %s", strings.Join(report.CheapestRoutes, ", ")))
	}
	return lines
}

func demandLines(report *models.AnalysisReport) []string {
	var high, low []string
	for _, id := range report.Ranking {
		score := report.Route(id).Demand.NormalizedScore
		switch {
		case score > highDemandScore:
			high = append(high, id)
		case score < lowDemandScore:
			low = append(low, id)
		}
	}
	lines := []string{}
	if len(high) > 0 {
		lines = append(lines, fmt.Sprintf("High demand routes: %s", strings.Join(high, ", ")))
	}
	if len(low) > 0 {
		lines = append(lines, fmt.Sprintf("Low demand routes: %s", strings.Join(low, ", ")))
	}
	return lines
}

func generalLines(report *models.AnalysisReport) []string {
	lines := []string{
		fmt.Sprintf("Analyzed %d routes", len(report.Routes)),
		fmt.Sprintf("Overall average price: $%.0f", report.OverallMeanPrice),
	}
	if len(report.TopDemandRoutes) > 0 {
		lines = append(lines, fmt.Sprintf("High demand routes: %s", strings.Join(report.TopDemandRoutes, ", ")))
	}
	for _, id := range report.Ranking {
		if airlines := report.Route(id).Stats.PopularAirlines; len(airlines) > 0 {
			lines = append(lines, fmt.Sprintf("Popular airlines on %s: %s", id, models.FormatAirlines(airlines)))
		}
	}
	if report.RejectedCount > 0 {
		lines = append(lines, fmt.Sprintf("%d of %d records were rejected as malformed", report.RejectedCount, report.TotalRecords))
	}
	return lines
}

func recommendations(report *models.AnalysisReport) []string {
	recs := []string{}
	for _, id := range report.Ranking {
		b := report.Route(id).Booking
		if b.Fallback {
			continue
		}
		recs = append(recs, fmt.Sprintf("Book %s %d days ahead for best prices (avg: $%.0f)", id, b.RecommendedLeadTimeDays, b.ExpectedPrice))
	}
	if len(report.TopDemandRoutes) > 0 {
		recs = append(recs, fmt.Sprintf("Consider alternative routes to avoid high demand: %s", strings.Join(report.TopDemandRoutes, ", ")))
	}
	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}
