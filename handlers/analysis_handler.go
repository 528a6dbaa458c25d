package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"airfare-insights/analysis"
	"airfare-insights/models"
	"airfare-insights/scraper/fares"
	"airfare-insights/services"
)

// AnalyzeRequest is the body of POST /api/analyze.
type AnalyzeRequest struct {
	Records []models.RawFare  `json:"records"`
	Options *analysis.Options `json:"options,omitempty"`
}

// AnalyzeHandler analyzes the posted records without touching the latest run.
// Expects POST to /api/analyze
// with JSON body: {"records": [{"route_id": "SYD-MEL", "price": 120, "departure_date": "2024-03-01"}], "options": {...}}
func (a *API) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	if !a.allow(w, r, http.MethodPost) {
		return
	}
	var req AnalyzeRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	analyzer := a.refresher.Pipeline().Analyzer()
	if req.Options != nil {
		analyzer = analysis.NewAnalyzer(*req.Options, a.logger).WithConcurrency(analyzer.Concurrency())
	}

	report, err := analyzer.Analyze(req.Records)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyDataset) {
			a.respondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		a.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	a.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    report,
	})
}

// FetchDataHandler runs the pipeline and publishes the result as the latest run.
// Expects POST to /api/fetch-data
// with JSON body: {"source": "mock", "routes": ["SYD-MEL"], "days_ahead": 30}; every field is optional.
func (a *API) FetchDataHandler(w http.ResponseWriter, r *http.Request) {
	if !a.allow(w, r, http.MethodPost) {
		return
	}
	var req services.RunRequest
	if err := decodeBody(w, r, &req); err != nil {
		a.respondWithError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	run, err := a.refresher.RefreshWith(r.Context(), req)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyDataset) {
			a.respondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		a.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to fetch data: %v", err))
		return
	}

	a.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":         true,
		"run_id":          run.ID,
		"source":          run.Source,
		"fetched_records": run.FetchedRaw,
		"data":            run.Report,
		"message":         fmt.Sprintf("Successfully fetched data for %d routes", len(run.Routes)),
	})
}

// ReportHandler returns the latest run.
func (a *API) ReportHandler(w http.ResponseWriter, r *http.Request) {
	if !a.allow(w, r, http.MethodGet) {
		return
	}
	run := a.refresher.Latest()
	if run == nil {
		a.respondWithError(w, http.StatusNotFound, "No report available yet, POST /api/fetch-data first")
		return
	}
	a.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"run":     run,
	})
}

// RoutesHandler lists the route catalogue.
func (a *API) RoutesHandler(w http.ResponseWriter, r *http.Request) {
	if !a.allow(w, r, http.MethodGet) {
		return
	}
	a.respondWithJSON(w, http.StatusOK, fares.Routes())
}

const (
	sampleSeed = 42
	sampleDays = 10
)

var sampleRoutes = []string{"SYD-MEL", "SYD-BNE", "MEL-BNE"}

// SampleDataHandler returns seeded mock fares and their analysis without
// touching the latest run. Output is stable for a given UTC day.
// Expects GET /api/sample-data
func (a *API) SampleDataHandler(w http.ResponseWriter, r *http.Request) {
	if !a.allow(w, r, http.MethodGet) {
		return
	}
	day := a.now().UTC().Truncate(24 * time.Hour)
	source := fares.NewMockSource(sampleSeed, a.logger).WithClock(func() time.Time { return day })

	raw, err := source.Fetch(r.Context(), fares.FetchRequest{Routes: sampleRoutes, DaysAhead: sampleDays})
	if err != nil {
		a.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to generate sample data: %v", err))
		return
	}
	report, err := a.refresher.Pipeline().Analyzer().Analyze(raw)
	if err != nil {
		a.respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Analysis failed: %v", err))
		return
	}

	a.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"source":  source.Name(),
		"records": raw,
		"data":    report,
	})
}
