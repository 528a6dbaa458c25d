package fares

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"airfare-insights/models"
	"airfare-insights/utils"
)

const (
	mockMaxDays      = 30
	mockDefaultPrice = 100
	mockFloorPrice   = 50
)

var mockBasePrices = map[string]float64{
	"SYD-MEL": 120,
	"SYD-BNE": 95,
	"MEL-BNE": 85,
	"SYD-PER": 180,
	"MEL-PER": 160,
	"BNE-PER": 170,
	"SYD-ADL": 110,
	"MEL-ADL": 90,
	"BNE-ADL": 100,
	"SYD-CBR": 70,
	"MEL-CBR": 80,
	"BNE-CBR": 85,
}

var (
	mockAirlines = []string{"Qantas", "Virgin Australia", "Jetstar", "Rex"}
	mockStops    = []string{"Direct", "1 stop", "2 stops"}
)

// MockSource generates plausible fares: a per-route base price with a weekend
// premium, seasonal variation and random noise.
type MockSource struct {
	logger *utils.Logger
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewMockSource creates a generator. A zero seed uses the current time.
func NewMockSource(seed int64, logger *utils.Logger) *MockSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &MockSource{
		logger: logger,
		now:    time.Now,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

// WithClock fixes the observation time, for reproducible output.
func (m *MockSource) WithClock(now func() time.Time) *MockSource {
	m.now = now
	return m
}

func (m *MockSource) Name() string { return SourceMock }

func (m *MockSource) Fetch(ctx context.Context, req FetchRequest) ([]models.RawFare, error) {
	req = req.withDefaults()
	days := min(req.DaysAhead, mockMaxDays)
	observed := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	var fares []models.RawFare
	for _, route := range req.Routes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base, ok := mockBasePrices[route]
		if !ok {
			base = mockDefaultPrice
		}
		for i := 0; i < days; i++ {
			date := observed.AddDate(0, 0, i)
			price := float64(int(base * weekendMultiplier(date) * seasonalMultiplier(date) * (0.8 + m.rng.Float64()*0.5)))
			fares = append(fares, models.RawFare{
				models.KeyRouteID:       route,
				models.KeyPrice:         max(mockFloorPrice, price),
				models.KeyDepartureDate: date.Format("2006-01-02"),
				models.KeyObservedAt:    observed,
				models.KeyAirline:       mockAirlines[m.rng.Intn(len(mockAirlines))],
				models.KeyStops:         mockStops[m.rng.Intn(len(mockStops))],
				"departure_time":        fmt.Sprintf("%02d:%02d", 6+m.rng.Intn(17), m.rng.Intn(60)),
			})
		}
	}
	m.logger.Info("Generated %d mock fares for %d routes", len(fares), len(req.Routes))
	return fares, nil
}

func weekendMultiplier(d time.Time) float64 {
	if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
		return 1.2
	}
	return 1.0
}

func seasonalMultiplier(d time.Time) float64 {
	switch d.Month() {
	case time.December, time.January, time.February:
		return 1.3
	case time.June, time.July, time.August:
		return 0.9
	default:
		return 1.0
	}
}
