// Package handlers exposes the fare analysis over a small JSON HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"airfare-insights/narrative"
	"airfare-insights/services"
	"airfare-insights/utils"
)

// maxBodyBytes caps request bodies, including POST /api/analyze record sets.
const maxBodyBytes = 10 << 20

// API serves the HTTP endpoints on top of a refresher and a narrative generator.
type API struct {
	refresher *services.Refresher
	generator narrative.Generator
	logger    *utils.Logger
	now       func() time.Time
}

func NewAPI(refresher *services.Refresher, generator narrative.Generator, logger *utils.Logger) *API {
	return &API{refresher: refresher, generator: generator, logger: logger, now: time.Now}
}

// Routes registers every endpoint on a new mux.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", a.HealthHandler)
	mux.HandleFunc("/api/routes", a.RoutesHandler)
	mux.HandleFunc("/api/analyze", a.AnalyzeHandler)
	mux.HandleFunc("/api/fetch-data", a.FetchDataHandler)
	mux.HandleFunc("/api/report", a.ReportHandler)
	mux.HandleFunc("/api/insights", a.InsightsHandler)
	mux.HandleFunc("/api/charts", a.ChartsHandler)
	mux.HandleFunc("/api/sample-data", a.SampleDataHandler)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func (a *API) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		a.logger.Error("Marshalling JSON response: %v", err)
		http.Error(w, `{"success":false,"error":"Failed to marshal JSON response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (a *API) respondWithError(w http.ResponseWriter, code int, message string) {
	a.logger.Warn("API error %d: %s", code, message)
	a.respondWithJSON(w, code, map[string]interface{}{"success": false, "error": message})
}

func (a *API) allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		a.respondWithError(w, http.StatusMethodNotAllowed, "Only "+method+" method is allowed")
		return false
	}
	return true
}

// decodeBody decodes an optional JSON body into v; an empty body is accepted.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// HealthHandler reports liveness and the id of the latest run.
func (a *API) HealthHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	}
	if run := a.refresher.Latest(); run != nil {
		resp["last_run_id"] = run.ID
		resp["last_run_at"] = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	a.respondWithJSON(w, http.StatusOK, resp)
}
