package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FareRow is the flat CSV layout of a raw fare, used for CSV input files and
// the raw fare archive. Values stay as text; the normalizer coerces them.
type FareRow struct {
	RouteID       string `csv:"route_id"`
	Price         string `csv:"price"`
	DepartureDate string `csv:"departure_date"`
	ObservedAt    string `csv:"observed_at,omitempty"`
	DemandSignal  string `csv:"demand_signal,omitempty"`
	Airline       string `csv:"airline,omitempty"`
	Stops         string `csv:"stops,omitempty"`
}

// RawFare converts the row, leaving out empty optional columns.
func (r FareRow) RawFare() RawFare {
	raw := RawFare{
		KeyRouteID:       r.RouteID,
		KeyPrice:         r.Price,
		KeyDepartureDate: r.DepartureDate,
	}
	optional := map[string]string{
		KeyObservedAt:   r.ObservedAt,
		KeyDemandSignal: r.DemandSignal,
		KeyAirline:      r.Airline,
		KeyStops:        r.Stops,
	}
	for k, v := range optional {
		if strings.TrimSpace(v) != "" {
			raw[k] = v
		}
	}
	return raw
}

// FareRowFromRaw flattens a raw fare for archiving, as is.
func FareRowFromRaw(raw RawFare) FareRow {
	return FareRow{
		RouteID:       cellText(raw[KeyRouteID]),
		Price:         cellText(raw[KeyPrice]),
		DepartureDate: cellText(raw[KeyDepartureDate]),
		ObservedAt:    cellText(raw[KeyObservedAt]),
		DemandSignal:  cellText(raw[KeyDemandSignal]),
		Airline:       cellText(raw[KeyAirline]),
		Stops:         cellText(raw[KeyStops]),
	}
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprint(x)
	}
}
