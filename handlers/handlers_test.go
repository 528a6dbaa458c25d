package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"airfare-insights/analysis"
	"airfare-insights/config"
	"airfare-insights/models"
	"airfare-insights/narrative"
	"airfare-insights/scraper/fares"
	"airfare-insights/services"
	"airfare-insights/utils"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	logger := utils.NewNopLogger()
	cfg := &config.Config{FareSource: fares.SourceMock, Routes: []string{"SYD-MEL", "SYD-BNE", "MEL-BNE"}, DaysAhead: 10}
	p := services.NewPipeline(cfg, analysis.NewAnalyzer(analysis.DefaultOptions(), logger), logger).
		WithSourceFactory(func(string) (fares.Source, error) {
			return fares.NewMockSource(7, logger), nil
		})
	return NewAPI(services.NewRefresher(p, logger), narrative.NewFallbackGenerator(), logger)
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	mux := newTestAPI(t).Routes()
	rec := do(t, mux, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp["status"] != "ok" {
		t.Errorf("unexpected status %v", resp["status"])
	}
	if _, ok := resp["last_run_id"]; ok {
		t.Error("expected no last run before the first fetch")
	}
}

func TestRoutesCatalogue(t *testing.T) {
	rec := do(t, newTestAPI(t).Routes(), http.MethodGet, "/api/routes", "")
	var routes []fares.Route
	if err := json.Unmarshal(rec.Body.Bytes(), &routes); err != nil {
		t.Fatal(err)
	}
	if len(routes) != 12 || routes[0].Code != "SYD-MEL" {
		t.Errorf("unexpected catalogue: %+v", routes)
	}
}

func TestAnalyze(t *testing.T) {
	body := `{"records": [
		{"route_id": "SYD-MEL", "price": 120, "departure_date": "2024-03-01", "observed_at": "2024-02-01"},
		{"route_id": "SYD-MEL", "price": "130", "departure_date": "2024-03-02", "observed_at": "2024-02-01"},
		{"route_id": "SYD-BNE", "price": 90, "departure_date": "2024-03-01", "observed_at": "2024-02-01"},
		{"route_id": "SYD-BNE", "price": -5, "departure_date": "2024-03-01"}
	]}`
	rec := do(t, newTestAPI(t).Routes(), http.MethodPost, "/api/analyze", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Success bool                  `json:"success"`
		Data    models.AnalysisReport `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Error("expected success")
	}
	if resp.Data.TotalRecords != 4 || resp.Data.RejectedCount != 1 {
		t.Errorf("expected 4 records with 1 rejected, got %d/%d", resp.Data.TotalRecords, resp.Data.RejectedCount)
	}
	if len(resp.Data.Ranking) != 2 || resp.Data.Ranking[0] != "SYD-MEL" {
		t.Errorf("unexpected ranking %v", resp.Data.Ranking)
	}
}

func TestAnalyzeWithOptions(t *testing.T) {
	body := `{"records": [
		{"route_id": "AAA-BBB", "price": 100, "departure_date": "2024-03-01", "observed_at": "2024-02-01"},
		{"route_id": "CCC-DDD", "price": 300, "departure_date": "2024-03-01", "observed_at": "2024-02-01"}
	], "options": {"price_polarity": "higher_is_higher"}}`
	rec := do(t, newTestAPI(t).Routes(), http.MethodPost, "/api/analyze", body)
	var resp struct {
		Data models.AnalysisReport `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data.Ranking) != 2 || resp.Data.Ranking[0] != "CCC-DDD" {
		t.Errorf("expected the pricier route first, got %v", resp.Data.Ranking)
	}
}

func TestAnalyzeEmptyDataset(t *testing.T) {
	body := `{"records": [{"route_id": "", "price": 100, "departure_date": "2024-03-01"}]}`
	rec := do(t, newTestAPI(t).Routes(), http.MethodPost, "/api/analyze", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "empty dataset") {
		t.Errorf("unexpected body %s", rec.Body.String())
	}
}

func TestAnalyzeBadRequests(t *testing.T) {
	mux := newTestAPI(t).Routes()
	if rec := do(t, mux, http.MethodGet, "/api/analyze", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodPost, "/api/analyze", "{not json"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestFetchThenReport(t *testing.T) {
	mux := newTestAPI(t).Routes()

	if rec := do(t, mux, http.MethodGet, "/api/report", ""); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before fetch, got %d", rec.Code)
	}

	rec := do(t, mux, http.MethodPost, "/api/fetch-data", `{"routes": ["SYD-MEL", "SYD-BNE"], "days_ahead": 5}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var fetched struct {
		RunID string                `json:"run_id"`
		Data  models.AnalysisReport `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &fetched); err != nil {
		t.Fatal(err)
	}
	if fetched.RunID == "" || len(fetched.Data.Routes) != 2 {
		t.Fatalf("unexpected fetch response: run %q, %d routes", fetched.RunID, len(fetched.Data.Routes))
	}

	rec = do(t, mux, http.MethodGet, "/api/report", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var report struct {
		Run services.Run `json:"run"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Run.ID != fetched.RunID {
		t.Errorf("report run %q does not match fetched run %q", report.Run.ID, fetched.RunID)
	}
}

func TestFetchEmptyBodyUsesDefaults(t *testing.T) {
	rec := do(t, newTestAPI(t).Routes(), http.MethodPost, "/api/fetch-data", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Successfully fetched data for 3 routes") {
		t.Errorf("unexpected message: %s", rec.Body.String())
	}
}

func TestInsightsAndCharts(t *testing.T) {
	mux := newTestAPI(t).Routes()

	if rec := do(t, mux, http.MethodPost, "/api/insights", `{"type":"pricing"}`); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before fetch, got %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodPost, "/api/fetch-data", ""); rec.Code != http.StatusOK {
		t.Fatalf("fetch failed: %d", rec.Code)
	}

	rec := do(t, mux, http.MethodPost, "/api/insights", `{"type":"pricing"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ins struct {
		Insights narrative.Insight `json:"insights"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ins); err != nil {
		t.Fatal(err)
	}
	if ins.Insights.Kind != narrative.KindPricing || ins.Insights.Source != narrative.SourceFallback {
		t.Errorf("unexpected insight %+v", ins.Insights)
	}

	rec = do(t, mux, http.MethodGet, "/api/charts?type=all", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var charts struct {
		Charts map[string]json.RawMessage `json:"charts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &charts); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{ChartPriceTrends, ChartDemandHeatmap, ChartRouteComparison} {
		if _, ok := charts.Charts[k]; !ok {
			t.Errorf("missing chart %s", k)
		}
	}

	var trends []SeriesChart
	if err := json.Unmarshal(charts.Charts[ChartPriceTrends], &trends); err != nil {
		t.Fatal(err)
	}
	if len(trends) != 3 {
		t.Errorf("expected 3 price series, got %d", len(trends))
	}
	for _, s := range trends {
		if len(s.Dates) != len(s.Prices) || len(s.Prices) == 0 {
			t.Errorf("malformed series for %s", s.Route)
		}
	}

	rec = do(t, mux, http.MethodGet, "/api/charts?type=demand", "")
	if !strings.Contains(rec.Body.String(), ChartDemandHeatmap) {
		t.Errorf("demand alias not honoured: %s", rec.Body.String())
	}
	if rec := do(t, mux, http.MethodGet, "/api/charts?type=pie", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown chart, got %d", rec.Code)
	}
}

func TestSampleData(t *testing.T) {
	api := newTestAPI(t)
	api.now = func() time.Time { return time.Date(2024, 5, 10, 15, 30, 0, 0, time.UTC) }
	mux := api.Routes()

	first := do(t, mux, http.MethodGet, "/api/sample-data", "")
	if first.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", first.Code, first.Body.String())
	}
	second := do(t, mux, http.MethodGet, "/api/sample-data", "")
	if first.Body.String() != second.Body.String() {
		t.Error("expected identical sample data within a day")
	}

	var resp struct {
		Source  string                `json:"source"`
		Records []models.RawFare      `json:"records"`
		Data    models.AnalysisReport `json:"data"`
	}
	if err := json.Unmarshal(first.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Source != fares.SourceMock || len(resp.Records) != 30 {
		t.Errorf("expected 30 mock records, got %d from %s", len(resp.Records), resp.Source)
	}
	if len(resp.Data.Routes) != 3 || resp.Data.RejectedCount != 0 {
		t.Errorf("unexpected sample report: %d routes, %d rejected", len(resp.Data.Routes), resp.Data.RejectedCount)
	}
	if resp.Records[0][models.KeyDepartureDate] != "2024-05-10" {
		t.Errorf("expected departures from the fixed day, got %v", resp.Records[0][models.KeyDepartureDate])
	}
	if api.refresher.Latest() != nil {
		t.Error("sample data must not publish a run")
	}

	if rec := do(t, mux, http.MethodPost, "/api/sample-data", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestChartsFromPostedReport(t *testing.T) {
	mux := newTestAPI(t).Routes()

	sample := do(t, mux, http.MethodGet, "/api/sample-data", "")
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(sample.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	rec := do(t, mux, http.MethodPost, "/api/charts", `{"type":"route_comparison","data":`+string(resp.Data)+`}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var charts struct {
		Charts map[string]BarChart `json:"charts"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &charts); err != nil {
		t.Fatal(err)
	}
	c, ok := charts.Charts[ChartRouteComparison]
	if !ok || len(c.Routes) != 3 || len(c.AvgPrices) != 3 {
		t.Errorf("unexpected comparison chart: %+v", charts.Charts)
	}

	if rec := do(t, mux, http.MethodPost, "/api/charts", `{"type":"all"}`); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 without a report or a run, got %d", rec.Code)
	}
	if rec := do(t, mux, http.MethodDelete, "/api/charts", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestAPI(t).Routes(), http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "airfare_routes_analyzed") {
		t.Error("expected airfare metrics to be exposed")
	}
}
