package analysis

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"airfare-insights/models"
)

// ScoreRoutes computes the demand score of every route and returns the scores
// keyed by route id together with the ranking (best first). Ranks are set on
// the returned scores.
//
// The raw score is a weighted sum of three 0..1 signals: volume (count
// relative to the busiest route), price (cheapest route mean over the route
// mean by default) and auxiliary (mean
// demand signal relative to the strongest route). When no route carries an
// auxiliary signal its weight is redistributed to volume and price.
// Weights and polarity come from opts.
func ScoreRoutes(groups []*RouteGroup, opts Options) (map[string]models.DemandScore, []string) {
	opts = opts.WithDefaults()
	scores := make(map[string]models.DemandScore, len(groups))
	if len(groups) == 0 {
		return scores, nil
	}

	n := len(groups)
	counts := make([]float64, n)
	means := make([]float64, n)
	aux := make([]float64, n)
	hasAux := make([]bool, n)
	anyAux := false
	for i, g := range groups {
		counts[i] = float64(g.Stats.Count)
		means[i] = g.Stats.MeanPrice
		var signals []float64
		for _, r := range g.Records {
			if r.DemandSignal != nil {
				signals = append(signals, *r.DemandSignal)
			}
		}
		if len(signals) > 0 {
			aux[i] = stat.Mean(signals, nil)
			hasAux[i] = true
			anyAux = true
		}
	}

	w := opts.ScoreWeights
	if !anyAux {
		total := w.Volume + w.Price
		if total > 0 {
			w = ScoreWeights{Volume: w.Volume / total, Price: w.Price / total}
		} else {
			w = ScoreWeights{Volume: 0.5, Price: 0.5}
		}
	}

	maxCount := floats.Max(counts)
	priceSignals := priceSignal(means, opts.PricePolarity)
	maxAux := 0.0
	if anyAux {
		maxAux = floats.Max(aux)
	}

	raw := make([]float64, n)
	for i, g := range groups {
		ds := models.DemandScore{
			VolumeSignal: counts[i] / maxCount,
			PriceSignal:  priceSignals[i],
		}
		if hasAux[i] && maxAux > 0 {
			ds.AuxiliarySignal = aux[i] / maxAux
		}
		ds.RawScore = w.Volume*ds.VolumeSignal + w.Price*ds.PriceSignal + w.Auxiliary*ds.AuxiliarySignal
		raw[i] = ds.RawScore
		scores[g.RouteID] = ds
	}

	maxRaw := floats.Max(raw)
	for _, g := range groups {
		ds := scores[g.RouteID]
		if maxRaw > 0 {
			ds.NormalizedScore = clamp(ds.RawScore/maxRaw*100, 0, 100)
		}
		scores[g.RouteID] = ds
	}

	ranking := rank(groups, scores)
	for i, id := range ranking {
		ds := scores[id]
		ds.Rank = i + 1
		scores[id] = ds
	}
	return scores, ranking
}

// priceSignal maps route mean prices to 0..1; the best-placed route gets 1.
func priceSignal(means []float64, polarity string) []float64 {
	out := make([]float64, len(means))
	if polarity == PolarityHigherIsHigher {
		maxMean := floats.Max(means)
		if maxMean <= 0 {
			return out
		}
		for i, m := range means {
			out[i] = m / maxMean
		}
		return out
	}
	minMean := floats.Min(means)
	for i, m := range means {
		if m > 0 {
			out[i] = minMean / m
		}
	}
	return out
}

// rank orders routes by normalized score desc, then count desc, then route id asc.
func rank(groups []*RouteGroup, scores map[string]models.DemandScore) []string {
	counts := make(map[string]int, len(groups))
	ids := make([]string, len(groups))
	for i, g := range groups {
		ids[i] = g.RouteID
		counts[g.RouteID] = g.Stats.Count
	}
	sort.SliceStable(ids, func(i, j int) bool {
		a, b := ids[i], ids[j]
		if sa, sb := scores[a].NormalizedScore, scores[b].NormalizedScore; sa != sb {
			return sa > sb
		}
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		return a < b
	})
	return ids
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
