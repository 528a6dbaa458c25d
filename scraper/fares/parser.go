package fares

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"airfare-insights/models"
	"airfare-insights/utils"
)

// Fare rows are either marked up with data attributes or are plain table rows
// in date, airline, stops, price column order.
const fareRowSelector = `[data-testid="fare-row"], table.fares tbody tr`

// fareColumns maps a field to its column in plain table rows.
var fareColumns = map[string]int{"date": 0, "airline": 1, "stops": 2, "price": 3}

// rowField looks for a [data-field] or .fare-<name> cell, then a data-<name>
// attribute on the row, then the positional column.
func rowField(row *goquery.Selection, name string) string {
	sel := fmt.Sprintf(`[data-field="%s"], .fare-%s`, name, name)
	if v := strings.TrimSpace(row.Find(sel).First().Text()); v != "" {
		return v
	}
	if v, ok := row.Attr("data-" + name); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	cells := row.Find("td")
	if col := fareColumns[name]; col < cells.Length() {
		return strings.TrimSpace(cells.Eq(col).Text())
	}
	return ""
}

// ParseFareTable extracts the fares of one route from a search results page.
// Rows without a price or date are skipped; duplicate rows are reported once.
func ParseFareTable(html, route string, observedAt time.Time, seen *utils.KeyTracker) ([]models.RawFare, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse fare page: %w", err)
	}
	if seen == nil {
		seen = utils.NewKeyTracker()
	}

	var fares []models.RawFare
	doc.Find(fareRowSelector).Each(func(_ int, row *goquery.Selection) {
		date := rowField(row, "date")
		airline := rowField(row, "airline")
		stops := rowField(row, "stops")
		price := rowField(row, "price")
		if date == "" || price == "" {
			return
		}
		if !seen.Add(strings.Join([]string{route, date, airline, stops, price}, "|")) {
			return
		}

		fare := models.RawFare{
			models.KeyRouteID:       route,
			models.KeyPrice:         price,
			models.KeyDepartureDate: date,
			models.KeyObservedAt:    observedAt,
		}
		if airline != "" {
			fare[models.KeyAirline] = airline
		}
		if stops != "" {
			fare[models.KeyStops] = stops
		}
		if demand, ok := row.Attr("data-demand"); ok && demand != "" {
			fare[models.KeyDemandSignal] = demand
		}
		fares = append(fares, fare)
	})
	return fares, nil
}
