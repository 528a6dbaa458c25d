package analysis

import (
	"runtime"
	"sync"
	"time"

	"airfare-insights/models"
	"airfare-insights/utils"
)

// Analyzer runs the full normalize, aggregate, score, detect, recommend and
// assemble chain. It holds no per-run state and is safe for concurrent use.
type Analyzer struct {
	opts        Options
	logger      *utils.Logger
	normalizer  *RecordNormalizer
	concurrency int
}

// NewAnalyzer creates an analyzer with opts completed by WithDefaults.
func NewAnalyzer(opts Options, logger *utils.Logger) *Analyzer {
	opts = opts.WithDefaults()
	return &Analyzer{
		opts:        opts,
		logger:      logger,
		normalizer:  NewRecordNormalizer(opts, logger),
		concurrency: runtime.NumCPU(),
	}
}

// WithClock returns a copy of a whose normalizer stamps missing observation
// times from now.
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	c := *a
	c.normalizer = a.normalizer.WithClock(now)
	return &c
}

// WithConcurrency returns a copy of a that analyzes at most n routes at once.
// n <= 0 keeps one worker per CPU.
func (a *Analyzer) WithConcurrency(n int) *Analyzer {
	c := *a
	if n > 0 {
		c.concurrency = n
	}
	return &c
}

// Concurrency is the number of routes analyzed in parallel.
func (a *Analyzer) Concurrency() int {
	return a.concurrency
}

// Options returns the effective options.
func (a *Analyzer) Options() Options {
	return a.opts
}

// Analyze produces a report from raw. The only error is *EmptyDatasetError.
func (a *Analyzer) Analyze(raw []models.RawFare) (*models.AnalysisReport, error) {
	report, _, err := a.AnalyzeRecords(raw)
	return report, err
}

// AnalyzeRecords is Analyze that also returns the validated records, for
// callers that persist them.
func (a *Analyzer) AnalyzeRecords(raw []models.RawFare) (*models.AnalysisReport, []models.FareRecord, error) {
	start := time.Now()

	normalized, err := a.normalizer.Normalize(raw)
	if err != nil {
		return nil, nil, err
	}

	groups := Aggregate(normalized.Records)
	scores, ranking := ScoreRoutes(groups, a.opts)
	results := a.analyzeRoutes(groups)

	report := Assemble(groups, scores, ranking, results, a.opts)
	report.TotalRecords = len(raw)
	report.RejectedCount = normalized.RejectedCount()
	report.Warnings = normalized.Warnings

	a.logger.Info("Analyzed %d routes from %d records in %v", len(groups), len(normalized.Records), time.Since(start))
	return report, normalized.Records, nil
}

// analyzeRoutes runs the detector and optimizer for each route in parallel.
// Each goroutine writes only its own slot.
func (a *Analyzer) analyzeRoutes(groups []*RouteGroup) []RouteResult {
	results := make([]RouteResult, len(groups))
	semaphore := make(chan struct{}, max(1, a.concurrency))
	var wg sync.WaitGroup

	for i, g := range groups {
		wg.Add(1)
		go func(i int, g *RouteGroup) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			trend, series := DetectTrend(g, a.opts)
			results[i] = RouteResult{
				Trend:   trend,
				Series:  series,
				Booking: RecommendBooking(g, a.opts),
			}
			if len(trend.Anomalies) > 0 {
				a.logger.Debug("Route %s: %d price anomalies", g.RouteID, len(trend.Anomalies))
			}
		}(i, g)
	}
	wg.Wait()
	return results
}
