package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"airfare-insights/models"
	"airfare-insights/narrative"
)

// Chart types accepted by /api/charts.
const (
	ChartPriceTrends     = "price_trends"
	ChartDemandHeatmap   = "demand_heatmap"
	ChartRouteComparison = "route_comparison"
	ChartAll             = "all"
)

// InsightRequest is the body of POST /api/insights.
type InsightRequest struct {
	Type string `json:"type"`
}

// InsightsHandler generates a narrative for the latest report.
// Expects POST to /api/insights with JSON body: {"type": "trends|pricing|demand|general"}
func (a *API) InsightsHandler(w http.ResponseWriter, r *http.Request) {
	if !a.allow(w, r, http.MethodPost) {
		return
	}
	var req InsightRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	run := a.refresher.Latest()
	if run == nil {
		a.respondWithError(w, http.StatusNotFound, "No report available yet, POST /api/fetch-data first")
		return
	}

	insight, err := a.generator.Generate(r.Context(), run.Report, narrative.ParseKind(req.Type))
	if err != nil {
		a.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate insights: %v", err))
		return
	}
	a.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"run_id":   run.ID,
		"insights": insight,
	})
}

// SeriesChart is one line per route of departure date against price.
type SeriesChart struct {
	Route  string    `json:"route"`
	Dates  []string  `json:"dates"`
	Prices []float64 `json:"prices"`
}

// BarChart pairs route ids with one or two value axes.
type BarChart struct {
	Routes       []string  `json:"routes"`
	DemandScores []float64 `json:"demand_scores"`
	AvgPrices    []float64 `json:"avg_prices,omitempty"`
}

// ChartRequest is the body of POST /api/charts. A missing report selects the
// latest run.
type ChartRequest struct {
	Type string                 `json:"type"`
	Data *models.AnalysisReport `json:"data,omitempty"`
}

// ChartsHandler returns chart-ready series of a report.
// Expects GET /api/charts?type=price_trends|demand_heatmap|route_comparison|all
// or POST with JSON body: {"type": "all", "data": <report>}
func (a *API) ChartsHandler(w http.ResponseWriter, r *http.Request) {
	var req ChartRequest
	switch r.Method {
	case http.MethodGet:
		req.Type = r.URL.Query().Get("type")
	case http.MethodPost:
		if err := decodeBody(w, r, &req); err != nil {
			a.respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	default:
		w.Header().Set("Allow", "GET, POST")
		a.respondWithError(w, http.StatusMethodNotAllowed, "Only GET and POST methods are allowed")
		return
	}

	chartType := strings.ToLower(strings.TrimSpace(req.Type))
	if chartType == "" {
		chartType = ChartPriceTrends
	}
	if chartType == "demand" {
		chartType = ChartDemandHeatmap
	}

	report := req.Data
	if report == nil {
		run := a.refresher.Latest()
		if run == nil {
			a.respondWithError(w, http.StatusNotFound, "No report available yet, POST /api/fetch-data first")
			return
		}
		report = run.Report
	}

	charts := make(map[string]interface{})
	switch chartType {
	case ChartPriceTrends:
		charts[ChartPriceTrends] = priceTrends(report)
	case ChartDemandHeatmap:
		charts[ChartDemandHeatmap] = demandHeatmap(report)
	case ChartRouteComparison:
		charts[ChartRouteComparison] = routeComparison(report)
	case ChartAll:
		charts[ChartPriceTrends] = priceTrends(report)
		charts[ChartDemandHeatmap] = demandHeatmap(report)
		charts[ChartRouteComparison] = routeComparison(report)
	default:
		a.respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown chart type %q", chartType))
		return
	}

	a.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"charts":  charts,
	})
}

func priceTrends(report *models.AnalysisReport) []SeriesChart {
	out := make([]SeriesChart, 0, len(report.RouteOrder))
	for _, id := range report.RouteOrder {
		ra := report.Route(id)
		if ra == nil {
			continue
		}
		series := ra.PriceSeries
		c := SeriesChart{
			Route:  id,
			Dates:  make([]string, len(series)),
			Prices: make([]float64, len(series)),
		}
		for i, p := range series {
			c.Dates[i] = p.DepartureDate.Format("2006-01-02")
			c.Prices[i] = p.Price
		}
		out = append(out, c)
	}
	return out
}

// demandHeatmap is ordered by rank.
func demandHeatmap(report *models.AnalysisReport) BarChart {
	c := BarChart{Routes: report.Ranking, DemandScores: make([]float64, len(report.Ranking))}
	for i, id := range report.Ranking {
		if ra := report.Route(id); ra != nil {
			c.DemandScores[i] = ra.Demand.NormalizedScore
		}
	}
	return c
}

func routeComparison(report *models.AnalysisReport) BarChart {
	n := len(report.RouteOrder)
	c := BarChart{
		Routes:       report.RouteOrder,
		DemandScores: make([]float64, n),
		AvgPrices:    make([]float64, n),
	}
	for i, id := range report.RouteOrder {
		if ra := report.Route(id); ra != nil {
			c.DemandScores[i] = ra.Demand.NormalizedScore
			c.AvgPrices[i] = ra.Stats.MeanPrice
		}
	}
	return c
}
