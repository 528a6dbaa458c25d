package analysis

import (
	"testing"

	"airfare-insights/models"
)

func TestScoreVolumeBeatsPrice(t *testing.T) {
	var records []models.FareRecord
	for i := 0; i < 50; i++ {
		records = append(records, fare("A", 100, 10, i))
	}
	for i := 0; i < 5; i++ {
		records = append(records, fare("B", 500, 10, i))
	}

	scores, ranking := ScoreRoutes(Aggregate(records), DefaultOptions())
	if scores["A"].VolumeSignal <= scores["B"].VolumeSignal {
		t.Errorf("Expected A volume signal > B, got %.2f vs %.2f", scores["A"].VolumeSignal, scores["B"].VolumeSignal)
	}
	if ranking[0] != "A" || ranking[1] != "B" {
		t.Errorf("Expected ranking [A B], got %v", ranking)
	}
	if scores["A"].NormalizedScore != 100 {
		t.Errorf("Expected top route normalized to 100, got %.2f", scores["A"].NormalizedScore)
	}
	if scores["A"].Rank != 1 || scores["B"].Rank != 2 {
		t.Errorf("Expected ranks 1 and 2, got %d and %d", scores["A"].Rank, scores["B"].Rank)
	}
	// without any auxiliary signal, weights become 4/7 volume and 3/7 price
	if want := 4.0/7*0.1 + 3.0/7*0.2; !almostEqual(scores["B"].RawScore, want, 1e-9) {
		t.Errorf("Expected B raw score %.4f, got %.4f", want, scores["B"].RawScore)
	}
}

func TestScoreAuxiliarySignal(t *testing.T) {
	high, low := 80.0, 40.0
	a := fare("SYD-MEL", 200, 10, 0)
	a.DemandSignal = &high
	b := fare("MEL-SYD", 200, 10, 0)
	b.DemandSignal = &low

	scores, ranking := ScoreRoutes(Aggregate([]models.FareRecord{b, a}), DefaultOptions())
	if ranking[0] != "SYD-MEL" {
		t.Errorf("Expected SYD-MEL first, got %v", ranking)
	}
	if !almostEqual(scores["MEL-SYD"].NormalizedScore, 85, 1e-9) {
		t.Errorf("Expected MEL-SYD normalized 85, got %.4f", scores["MEL-SYD"].NormalizedScore)
	}
	if scores["MEL-SYD"].AuxiliarySignal != 0.5 {
		t.Errorf("Expected auxiliary signal 0.5, got %.2f", scores["MEL-SYD"].AuxiliarySignal)
	}
}

func TestScoreTieBreaks(t *testing.T) {
	records := []models.FareRecord{
		fare("ZZZ-AAA", 100, 10, 0),
		fare("AAA-ZZZ", 100, 10, 0),
		fare("MMM-NNN", 100, 10, 0),
	}
	scores, ranking := ScoreRoutes(Aggregate(records), DefaultOptions())
	want := []string{"AAA-ZZZ", "MMM-NNN", "ZZZ-AAA"}
	for i := range want {
		if ranking[i] != want[i] {
			t.Fatalf("Expected ranking %v, got %v", want, ranking)
		}
	}
	for id, s := range scores {
		if s.NormalizedScore != 100 {
			t.Errorf("%s: expected 100 for identical routes, got %.2f", id, s.NormalizedScore)
		}
	}
}

func TestScorePolarity(t *testing.T) {
	records := []models.FareRecord{
		fare("CHEAP", 100, 10, 0),
		fare("DEAR", 400, 10, 0),
	}
	opts := DefaultOptions()

	scores, _ := ScoreRoutes(Aggregate(records), opts)
	if scores["CHEAP"].PriceSignal != 1 || scores["DEAR"].PriceSignal != 0.25 {
		t.Errorf("lower_is_higher: got %.2f / %.2f", scores["CHEAP"].PriceSignal, scores["DEAR"].PriceSignal)
	}

	opts.PricePolarity = PolarityHigherIsHigher
	scores, ranking := ScoreRoutes(Aggregate(records), opts)
	if scores["DEAR"].PriceSignal != 1 || scores["CHEAP"].PriceSignal != 0.25 {
		t.Errorf("higher_is_higher: got %.2f / %.2f", scores["CHEAP"].PriceSignal, scores["DEAR"].PriceSignal)
	}
	if ranking[0] != "DEAR" {
		t.Errorf("Expected DEAR first under higher_is_higher, got %v", ranking)
	}
}

func TestScoreEmpty(t *testing.T) {
	scores, ranking := ScoreRoutes(nil, DefaultOptions())
	if len(scores) != 0 || len(ranking) != 0 {
		t.Errorf("Expected no scores, got %v %v", scores, ranking)
	}
}
