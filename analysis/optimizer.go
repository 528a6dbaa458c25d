package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"airfare-insights/models"
)

type leadBucket struct {
	start, end int
	prices     []float64
}

func buildBuckets(boundaries []int) []leadBucket {
	buckets := make([]leadBucket, 0, len(boundaries)-1)
	for i := 1; i < len(boundaries); i++ {
		start := boundaries[i-1]
		if i > 1 {
			start++
		}
		buckets = append(buckets, leadBucket{start: start, end: boundaries[i]})
	}
	return buckets
}

// RecommendBooking picks the lead-time bucket with the lowest mean price among
// buckets holding at least MinBucketSamples records. Confidence is the share
// of the route's records that fell into that bucket.
//
// When no bucket qualifies the recommendation falls back to the median lead
// time at the route mean price with zero confidence.
func RecommendBooking(g *RouteGroup, opts Options) models.BookingRecommendation {
	opts = opts.WithDefaults()
	buckets := buildBuckets(opts.LeadTimeBuckets)
	leads := make([]float64, 0, len(g.Records))

	for _, r := range g.Records {
		lead := r.LeadTimeDays()
		leads = append(leads, float64(lead))
		for i := range buckets {
			if lead >= buckets[i].start && lead <= buckets[i].end {
				buckets[i].prices = append(buckets[i].prices, r.Price)
				break
			}
		}
	}

	best := -1
	bestMean := 0.0
	for i, b := range buckets {
		if len(b.prices) < opts.MinBucketSamples {
			continue
		}
		// strict comparison keeps the shorter lead time on ties
		if m := stat.Mean(b.prices, nil); best < 0 || m < bestMean {
			best, bestMean = i, m
		}
	}

	total := len(g.Records)
	if best < 0 || total == 0 {
		rec := models.BookingRecommendation{
			ExpectedPrice: g.Stats.MeanPrice,
			Fallback:      true,
		}
		if len(leads) > 0 {
			rec.RecommendedLeadTimeDays = max(0, int(math.Round(median(leads))))
		}
		return rec
	}

	b := buckets[best]
	return models.BookingRecommendation{
		RecommendedLeadTimeDays: (b.start + b.end) / 2,
		ExpectedPrice:           bestMean,
		Confidence:              float64(len(b.prices)) / float64(total),
		BucketStartDays:         b.start,
		BucketEndDays:           b.end,
		SampleCount:             len(b.prices),
	}
}
