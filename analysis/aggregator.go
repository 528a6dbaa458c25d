package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"airfare-insights/models"
)

// maxPopularAirlines bounds RouteStats.PopularAirlines.
const maxPopularAirlines = 3

// RouteGroup is the set of records of one route together with its statistics.
type RouteGroup struct {
	RouteID string
	Records []models.FareRecord
	Stats   models.RouteStats
}

// Prices returns the route prices in record order.
func (g *RouteGroup) Prices() []float64 {
	prices := make([]float64, len(g.Records))
	for i, r := range g.Records {
		prices[i] = r.Price
	}
	return prices
}

// Aggregate groups records by route in first-seen order and computes
// descriptive statistics for each group.
func Aggregate(records []models.FareRecord) []*RouteGroup {
	index := make(map[string]int)
	var groups []*RouteGroup
	for _, r := range records {
		i, ok := index[r.RouteID]
		if !ok {
			i = len(groups)
			index[r.RouteID] = i
			groups = append(groups, &RouteGroup{RouteID: r.RouteID})
		}
		groups[i].Records = append(groups[i].Records, r)
	}
	for _, g := range groups {
		g.Stats = computeStats(g.RouteID, g.Records)
	}
	return groups
}

func computeStats(routeID string, records []models.FareRecord) models.RouteStats {
	n := len(records)
	prices := make([]float64, n)
	minObs, maxObs := records[0].ObservedAt, records[0].ObservedAt
	leadCounts := make(map[int]int)
	airlineCounts := make(map[string]int)
	for i, r := range records {
		prices[i] = r.Price
		if r.ObservedAt.Before(minObs) {
			minObs = r.ObservedAt
		}
		if r.ObservedAt.After(maxObs) {
			maxObs = r.ObservedAt
		}
		leadCounts[r.LeadTimeDays()]++
		if r.Airline != "" {
			airlineCounts[r.Airline]++
		}
	}

	s := models.RouteStats{
		RouteID:         routeID,
		Count:           n,
		MinPrice:        floats.Min(prices),
		MaxPrice:        floats.Max(prices),
		MedianPrice:     median(prices),
		DateSpanDays:    int(maxObs.Sub(minObs).Hours() / 24),
		PopularAirlines: popularAirlines(airlineCounts),
	}

	if s.MinPrice == s.MaxPrice {
		// flat series: exact mean, zero spread
		s.MeanPrice = s.MinPrice
	} else {
		mean, variance := stat.MeanVariance(prices, nil)
		s.MeanPrice = mean
		// MeanVariance is the unbiased estimator; rescale to the population variance
		s.PriceStdDev = math.Sqrt(math.Max(0, variance*float64(n-1)/float64(n)))
	}

	for _, r := range records {
		if s.CheapestDeparture.IsZero() && r.Price == s.MinPrice {
			s.CheapestDeparture = r.DepartureDate
		}
		if s.PriciestDeparture.IsZero() && r.Price == s.MaxPrice {
			s.PriciestDeparture = r.DepartureDate
		}
	}

	s.LeadTimeDistribution = make([]models.LeadTimeCount, 0, len(leadCounts))
	for days, count := range leadCounts {
		s.LeadTimeDistribution = append(s.LeadTimeDistribution, models.LeadTimeCount{Days: days, Count: count})
	}
	sort.Slice(s.LeadTimeDistribution, func(i, j int) bool {
		return s.LeadTimeDistribution[i].Days < s.LeadTimeDistribution[j].Days
	})
	return s
}

// popularAirlines returns the most frequent airlines, most fares first and
// ties by name, at most maxPopularAirlines of them.
func popularAirlines(counts map[string]int) []models.AirlineCount {
	out := make([]models.AirlineCount, 0, len(counts))
	for name, c := range counts {
		out = append(out, models.AirlineCount{Airline: name, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Airline < out[j].Airline
	})
	return out[:min(maxPopularAirlines, len(out))]
}

// median uses the sorted-midpoint rule; values is not modified.
func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
