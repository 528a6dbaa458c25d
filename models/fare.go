package models

import "time"

// RawFare is one untyped fare observation as handed over by an acquisition
// source (mock generator, CSV file, scraper). Keys follow the canonical names
// below; the normalizer also accepts a few aliases.
type RawFare map[string]any

// Canonical RawFare keys.
const (
	KeyRouteID       = "route_id"
	KeyPrice         = "price"
	KeyDepartureDate = "departure_date"
	KeyObservedAt    = "observed_at"
	KeyDemandSignal  = "demand_signal"
	KeyAirline       = "airline"
	KeyStops         = "stops"
)

// FareRecord is a validated, currency-normalized price point for one route.
type FareRecord struct {
	RouteID       string    `json:"route_id"`
	ObservedAt    time.Time `json:"observed_at"`
	DepartureDate time.Time `json:"departure_date"`
	Price         float64   `json:"price"`
	DemandSignal  *float64  `json:"demand_signal,omitempty"`
	Airline       string    `json:"airline,omitempty"`
}

// LeadTimeDays is the number of calendar days between the observation date
// and the departure date, both taken in UTC.
func (r FareRecord) LeadTimeDays() int {
	obs := truncateDay(r.ObservedAt)
	dep := truncateDay(r.DepartureDate)
	return int(dep.Sub(obs).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
