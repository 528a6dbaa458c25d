package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"airfare-insights/models"
)

// DetectTrend classifies the departure-ordered price series of a route and
// flags its outliers. It also returns the ordered series for presentation.
//
// The regression slope is standardised as the fitted change across the whole
// series divided by the route std-dev, so a single spike in a flat series does
// not read as a trend. Routes shorter than MinTrendPoints are always stable
// with zero volatility and no anomalies.
func DetectTrend(g *RouteGroup, opts Options) (models.TrendSummary, []models.PricePoint) {
	opts = opts.WithDefaults()

	ordered := append([]models.FareRecord(nil), g.Records...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].DepartureDate.Before(ordered[j].DepartureDate)
	})
	series := make([]models.PricePoint, len(ordered))
	for i, r := range ordered {
		series[i] = models.PricePoint{DepartureDate: r.DepartureDate, Price: r.Price}
	}

	summary := models.TrendSummary{Direction: models.TrendStable, Anomalies: []models.Anomaly{}}
	n := len(ordered)
	if n < opts.MinTrendPoints {
		return summary, series
	}

	mean, stddev := g.Stats.MeanPrice, g.Stats.PriceStdDev
	if mean != 0 {
		summary.Volatility = stddev / mean
	}

	xs := make([]float64, n)
	ys := make([]float64, n)
	for i, p := range series {
		xs[i] = float64(i)
		ys[i] = p.Price
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	if math.IsNaN(beta) || math.IsInf(beta, 0) {
		beta = 0
	}
	summary.Slope = beta

	if stddev == 0 {
		return summary, series
	}

	standardized := beta * float64(n-1) / stddev
	switch {
	case standardized > opts.TrendEpsilon:
		summary.Direction = models.TrendRising
	case standardized < -opts.TrendEpsilon:
		summary.Direction = models.TrendFalling
	}

	for _, p := range series {
		sigma := (p.Price - mean) / stddev
		if math.Abs(sigma) >= opts.SigmaThreshold {
			summary.Anomalies = append(summary.Anomalies, models.Anomaly{
				DepartureDate:  p.DepartureDate,
				Price:          p.Price,
				DeviationSigma: sigma,
			})
		}
	}
	return summary, series
}
