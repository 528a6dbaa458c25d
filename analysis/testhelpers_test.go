package analysis

import (
	"time"

	"airfare-insights/models"
)

var baseDay = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func fare(route string, price float64, leadDays, departureOffset int) models.FareRecord {
	dep := baseDay.AddDate(0, 0, departureOffset)
	return models.FareRecord{
		RouteID:       route,
		Price:         price,
		DepartureDate: dep,
		ObservedAt:    dep.AddDate(0, 0, -leadDays),
	}
}

func rawFare(route string, price any, departure string) models.RawFare {
	return models.RawFare{
		models.KeyRouteID:       route,
		models.KeyPrice:         price,
		models.KeyDepartureDate: departure,
		models.KeyObservedAt:    "2024-02-01",
	}
}

func seriesRecords(route string, prices []float64) []models.FareRecord {
	records := make([]models.FareRecord, len(prices))
	for i, p := range prices {
		records[i] = fare(route, p, 20, i)
	}
	return records
}

func almostEqual(a, b, tol float64) bool {
	d := a - b
	if d < 0 {
		d = -d
	}
	return d <= tol
}
