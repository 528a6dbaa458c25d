package analysis

import (
	"testing"

	"airfare-insights/models"
)

func TestRecommendBookingLowestBucket(t *testing.T) {
	var records []models.FareRecord
	for _, lead := range []int{3, 5, 7} {
		records = append(records, fare("SYD-MEL", 300, lead, lead))
	}
	for _, lead := range []int{8, 9, 10, 12, 14} {
		records = append(records, fare("SYD-MEL", 250, lead, lead))
	}
	for _, lead := range []int{20, 25} {
		records = append(records, fare("SYD-MEL", 400, lead, lead))
	}

	opts := DefaultOptions()
	opts.MinBucketSamples = 2
	rec := RecommendBooking(Aggregate(records)[0], opts)

	if rec.BucketStartDays != 8 || rec.BucketEndDays != 14 {
		t.Errorf("Expected bucket 8-14, got %d-%d", rec.BucketStartDays, rec.BucketEndDays)
	}
	if rec.Confidence != 0.5 {
		t.Errorf("Expected confidence 0.5, got %.2f", rec.Confidence)
	}
	if rec.ExpectedPrice != 250 {
		t.Errorf("Expected price 250, got %.2f", rec.ExpectedPrice)
	}
	if rec.RecommendedLeadTimeDays != 11 {
		t.Errorf("Expected lead time 11, got %d", rec.RecommendedLeadTimeDays)
	}
	if rec.Fallback {
		t.Error("Expected a bucket recommendation, got fallback")
	}
}

func TestRecommendBookingFallback(t *testing.T) {
	records := []models.FareRecord{
		fare("PER-SYD", 300, 1, 0),
		fare("PER-SYD", 200, 10, 1),
		fare("PER-SYD", 400, 20, 2),
	}
	rec := RecommendBooking(Aggregate(records)[0], DefaultOptions())

	if !rec.Fallback {
		t.Fatal("Expected fallback recommendation")
	}
	if rec.Confidence != 0 {
		t.Errorf("Expected zero confidence, got %.2f", rec.Confidence)
	}
	if rec.RecommendedLeadTimeDays != 10 {
		t.Errorf("Expected median lead time 10, got %d", rec.RecommendedLeadTimeDays)
	}
	if rec.ExpectedPrice != 300 {
		t.Errorf("Expected route mean 300, got %.2f", rec.ExpectedPrice)
	}
}

func TestRecommendBookingTiePrefersShorterLead(t *testing.T) {
	records := []models.FareRecord{
		fare("MEL-ADL", 150, 40, 0),
		fare("MEL-ADL", 150, 45, 1),
		fare("MEL-ADL", 150, 2, 2),
		fare("MEL-ADL", 150, 4, 3),
	}
	rec := RecommendBooking(Aggregate(records)[0], DefaultOptions())
	if rec.BucketStartDays != 0 || rec.BucketEndDays != 7 {
		t.Errorf("Expected bucket 0-7 on tie, got %d-%d", rec.BucketStartDays, rec.BucketEndDays)
	}
}

func TestRecommendBookingOutsideBuckets(t *testing.T) {
	records := []models.FareRecord{
		fare("LON-NYC", 500, 120, 0),
		fare("LON-NYC", 520, 150, 1),
		fare("LON-NYC", 300, 3, 2),
		fare("LON-NYC", 310, 6, 3),
	}
	rec := RecommendBooking(Aggregate(records)[0], DefaultOptions())
	if rec.Confidence != 0.5 {
		t.Errorf("Expected out-of-range leads to count toward the total, confidence 0.5, got %.2f", rec.Confidence)
	}
}

func TestRecommendBookingNeverNegative(t *testing.T) {
	records := []models.FareRecord{
		fare("MEL-SYD", 150, -3, 0),
		fare("MEL-SYD", 160, -2, 1),
	}
	rec := RecommendBooking(Aggregate(records)[0], DefaultOptions())
	if !rec.Fallback {
		t.Fatal("Expected fallback recommendation")
	}
	if rec.RecommendedLeadTimeDays != 0 {
		t.Errorf("Expected lead time clamped to 0, got %d", rec.RecommendedLeadTimeDays)
	}
}
