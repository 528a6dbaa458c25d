package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"airfare-insights/models"
)

var (
	metricRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airfare",
			Name:      "pipeline_runs_total",
			Help:      "Pipeline runs by fare source and outcome",
		},
		[]string{"source", "status"},
	)

	metricRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "airfare",
			Name:      "fare_records_total",
			Help:      "Fare records seen by the normalizer, accepted or rejected",
		},
		[]string{"outcome"},
	)

	metricRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "airfare",
			Name:      "pipeline_run_duration_seconds",
			Help:      "Duration of a full fetch, analyze and persist run",
			Buckets:   prometheus.DefBuckets,
		},
	)

	metricRoutes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "airfare",
			Name:      "routes_analyzed",
			Help:      "Routes in the latest report",
		},
	)

	metricAnomalies = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "airfare",
			Name:      "price_anomalies",
			Help:      "Price anomalies flagged in the latest report",
		},
	)

	metricDemandScore = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "airfare",
			Name:      "route_demand_score",
			Help:      "Normalized demand score [0,100] per route in the latest report",
		},
		[]string{"route"},
	)
)

// RecordRun records the outcome of one pipeline run
func RecordRun(source, status string, d time.Duration) {
	metricRuns.WithLabelValues(source, status).Inc()
	metricRunDuration.Observe(d.Seconds())
}

// RecordReport exports the headline numbers of a report
func RecordReport(report *models.AnalysisReport) {
	accepted := report.TotalRecords - report.RejectedCount
	metricRecords.WithLabelValues("accepted").Add(float64(accepted))
	metricRecords.WithLabelValues("rejected").Add(float64(report.RejectedCount))
	metricRoutes.Set(float64(len(report.Routes)))

	anomalies := 0
	metricDemandScore.Reset()
	for id, ra := range report.Routes {
		anomalies += len(ra.Trend.Anomalies)
		metricDemandScore.WithLabelValues(id).Set(ra.Demand.NormalizedScore)
	}
	metricAnomalies.Set(float64(anomalies))
}
