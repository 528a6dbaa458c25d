package analysis

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"airfare-insights/models"
)

// RouteResult carries the per-route detector and optimizer outputs, indexed
// like the groups passed to Assemble.
type RouteResult struct {
	Trend   models.TrendSummary
	Series  []models.PricePoint
	Booking models.BookingRecommendation
}

// Assemble joins the per-route outputs by route id and computes the global
// aggregates. Every group yields exactly one route entry.
func Assemble(groups []*RouteGroup, scores map[string]models.DemandScore, ranking []string, results []RouteResult, opts Options) *models.AnalysisReport {
	opts = opts.WithDefaults()
	report := &models.AnalysisReport{
		Routes:              make(map[string]*models.RouteAnalysis, len(groups)),
		RouteOrder:          make([]string, 0, len(groups)),
		Ranking:             append([]string{}, ranking...),
		TopDemandRoutes:     []string{},
		LowDemandRoutes:     []string{},
		CheapestRoutes:      []string{},
		MostExpensiveRoutes: []string{},
	}
	if len(groups) == 0 {
		return report
	}

	means := make([]float64, len(groups))
	for i, g := range groups {
		report.RouteOrder = append(report.RouteOrder, g.RouteID)
		report.Routes[g.RouteID] = &models.RouteAnalysis{
			Stats:       g.Stats,
			Demand:      scores[g.RouteID],
			Trend:       results[i].Trend,
			Booking:     results[i].Booking,
			PriceSeries: results[i].Series,
		}
		means[i] = g.Stats.MeanPrice

		if i == 0 || g.Stats.MinPrice < report.OverallPriceRange.Min {
			report.OverallPriceRange.Min = g.Stats.MinPrice
		}
		if i == 0 || g.Stats.MaxPrice > report.OverallPriceRange.Max {
			report.OverallPriceRange.Max = g.Stats.MaxPrice
		}
	}
	// mean of route means so high-volume routes do not dominate
	report.OverallMeanPrice = stat.Mean(means, nil)

	top := min(opts.TopN, len(report.Ranking))
	report.TopDemandRoutes = append(report.TopDemandRoutes, report.Ranking[:top]...)
	low := min(opts.ExtremesN, len(report.Ranking))
	report.LowDemandRoutes = append(report.LowDemandRoutes, report.Ranking[len(report.Ranking)-low:]...)

	n := min(opts.ExtremesN, len(groups))
	report.CheapestRoutes = append(report.CheapestRoutes, byMeanPrice(report, true)[:n]...)
	report.MostExpensiveRoutes = append(report.MostExpensiveRoutes, byMeanPrice(report, false)[:n]...)
	return report
}

// byMeanPrice orders routes by mean price, ties by route id ascending.
func byMeanPrice(report *models.AnalysisReport, ascending bool) []string {
	ids := append([]string(nil), report.RouteOrder...)
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := report.Routes[ids[i]].Stats.MeanPrice, report.Routes[ids[j]].Stats.MeanPrice
		if a != b {
			return (a < b) == ascending
		}
		return ids[i] < ids[j]
	})
	return ids
}
