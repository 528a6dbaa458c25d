package fares

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"airfare-insights/config"
	"airfare-insights/models"
	"airfare-insights/utils"
)

func TestMockSourceDeterministic(t *testing.T) {
	clock := func() time.Time { return time.Date(2024, 1, 6, 9, 0, 0, 0, time.UTC) }
	req := FetchRequest{Routes: []string{"SYD-MEL", "XXX-YYY"}, DaysAhead: 45}

	a, err := NewMockSource(42, utils.NewNopLogger()).WithClock(clock).Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	b, _ := NewMockSource(42, utils.NewNopLogger()).WithClock(clock).Fetch(context.Background(), req)

	if len(a) != 2*mockMaxDays {
		t.Fatalf("Expected %d fares (days capped), got %d", 2*mockMaxDays, len(a))
	}
	for i := range a {
		if a[i][models.KeyPrice] != b[i][models.KeyPrice] {
			t.Fatalf("Fare %d differs between equal seeds", i)
		}
		price := a[i][models.KeyPrice].(float64)
		if price < mockFloorPrice {
			t.Errorf("Fare %d below floor: %.2f", i, price)
		}
	}
	// 2024-01-06 is a Saturday in summer: 120 * 1.2 * 1.3 * [0.8, 1.3)
	first := a[0][models.KeyPrice].(float64)
	if first < 149 || first > 244 {
		t.Errorf("Expected first SYD-MEL fare within weekend summer range, got %.2f", first)
	}
}

func TestMockSourceCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockSource(1, utils.NewNopLogger()).Fetch(ctx, FetchRequest{}); err == nil {
		t.Error("Expected error for cancelled context")
	}
}

func TestCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fares.csv")
	content := "route_id,price,departure_date,observed_at,demand_signal,airline\n" +
		"SYD-MEL,$189.00,2024-03-01,2024-02-01,55,Qantas\n" +
		"SYD-BNE,120,2024-03-02,,,\n" +
		"MEL-PER,300,2024-03-02,,,Rex\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src := NewCSVSource(path, utils.NewNopLogger())
	fares, err := src.Fetch(context.Background(), FetchRequest{Routes: []string{"syd-mel", "SYD-BNE"}})
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(fares) != 2 {
		t.Fatalf("Expected 2 fares after route filter, got %d", len(fares))
	}
	if fares[0][models.KeyPrice] != "$189.00" || fares[0][models.KeyDemandSignal] != "55" {
		t.Errorf("Unexpected first fare: %v", fares[0])
	}
	if _, ok := fares[1][models.KeyObservedAt]; ok {
		t.Errorf("Expected empty observed_at to be left out, got %v", fares[1])
	}
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := NewCSVSource(filepath.Join(t.TempDir(), "missing.csv"), utils.NewNopLogger())
	if _, err := src.Fetch(context.Background(), FetchRequest{}); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestParseFareTable(t *testing.T) {
	html := `<html><body>
	<div data-testid="fare-row" data-demand="72">
		<span data-field="date">2024-03-05</span>
		<span data-field="airline">Jetstar</span>
		<span data-field="price">$99</span>
	</div>
	<table class="fares"><tbody>
		<tr><td>2024-03-06</td><td>Qantas</td><td>Direct</td><td>$1,149.50</td></tr>
		<tr><td>2024-03-06</td><td>Qantas</td><td>Direct</td><td>$1,149.50</td></tr>
		<tr><td>2024-03-07</td><td>Rex</td><td>1 stop</td><td></td></tr>
	</tbody></table>
	</body></html>`
	observed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	fares, err := ParseFareTable(html, "SYD-MEL", observed, nil)
	if err != nil {
		t.Fatalf("ParseFareTable failed: %v", err)
	}
	if len(fares) != 2 {
		t.Fatalf("Expected 2 fares (duplicate and priceless rows skipped), got %d: %v", len(fares), fares)
	}
	if fares[0][models.KeyPrice] != "$99" || fares[0][models.KeyDemandSignal] != "72" {
		t.Errorf("Unexpected data-attribute fare: %v", fares[0])
	}
	if fares[1][models.KeyPrice] != "$1,149.50" || fares[1][models.KeyStops] != "Direct" {
		t.Errorf("Unexpected table fare: %v", fares[1])
	}
}

func TestNewSource(t *testing.T) {
	cfg := &config.Config{FareInputCSV: "in.csv"}
	logger := utils.NewNopLogger()

	for _, name := range []string{"mock", "mock_data", "csv"} {
		if _, err := NewSource(name, cfg, logger); err != nil {
			t.Errorf("NewSource(%q) failed: %v", name, err)
		}
	}
	if _, err := NewSource("chrome", cfg, logger); err == nil {
		t.Error("Expected chrome without search URL to fail")
	}
	if _, err := NewSource("aviationstack", cfg, logger); err == nil || !strings.Contains(err.Error(), "unsupported") {
		t.Errorf("Expected unsupported source error, got %v", err)
	}
}

func TestRoutesCatalogue(t *testing.T) {
	routes := Routes()
	if len(routes) != 12 || routes[0].Code != "SYD-MEL" {
		t.Errorf("Unexpected catalogue: %v", routes)
	}
	routes[0].Code = "changed"
	if Routes()[0].Code != "SYD-MEL" {
		t.Error("Routes must return a copy")
	}
}
