package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"airfare-insights/analysis"
	"airfare-insights/config"
	"airfare-insights/models"
	"airfare-insights/scraper/fares"
	"airfare-insights/storage"
	"airfare-insights/utils"
)

// RunRequest selects what one pipeline run fetches. Empty fields fall back
// to the configuration.
type RunRequest struct {
	Source    string   `json:"source"`
	Routes    []string `json:"routes"`
	DaysAhead int      `json:"days_ahead"`
}

// Run is the outcome of one fetch, analyze and persist cycle.
type Run struct {
	ID          string                 `json:"run_id"`
	Source      string                 `json:"source"`
	Routes      []string               `json:"routes"`
	FetchedRaw  int                    `json:"fetched_records"`
	StartedAt   time.Time              `json:"started_at"`
	CompletedAt time.Time              `json:"completed_at"`
	Report      *models.AnalysisReport `json:"report"`
}

// SourceFactory builds a fare source by name.
type SourceFactory func(name string) (fares.Source, error)

// Pipeline fetches fares, archives them, analyzes them and stores the results.
// Storage steps are optional and non-fatal.
type Pipeline struct {
	cfg       *config.Config
	analyzer  *analysis.Analyzer
	logger    *utils.Logger
	newSource SourceFactory
	raw       storage.RawStorage
	store     storage.ReportStorage
	exporter  storage.ReportExporter
}

// NewPipeline creates a pipeline using the sources of cfg
func NewPipeline(cfg *config.Config, analyzer *analysis.Analyzer, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		analyzer: analyzer,
		logger:   logger,
		newSource: func(name string) (fares.Source, error) {
			return fares.NewSource(name, cfg, logger)
		},
	}
}

func (p *Pipeline) WithSourceFactory(f SourceFactory) *Pipeline {
	p.newSource = f
	return p
}

func (p *Pipeline) WithRawStorage(s storage.RawStorage) *Pipeline {
	p.raw = s
	return p
}

func (p *Pipeline) WithReportStorage(s storage.ReportStorage) *Pipeline {
	p.store = s
	return p
}

func (p *Pipeline) WithExporter(e storage.ReportExporter) *Pipeline {
	p.exporter = e
	return p
}

// Analyzer returns the analyzer used for runs.
func (p *Pipeline) Analyzer() *analysis.Analyzer {
	return p.analyzer
}

// Run executes one cycle. Fetch and analysis errors are returned; an empty
// dataset surfaces as analysis.ErrEmptyDataset.
func (p *Pipeline) Run(ctx context.Context, req RunRequest) (*Run, error) {
	req = p.withDefaults(req)
	run := &Run{
		ID:        uuid.NewString(),
		Source:    req.Source,
		Routes:    req.Routes,
		StartedAt: time.Now(),
	}
	p.logger.Info("Run %s: fetching %d routes from %s source (%d days ahead)", run.ID, len(req.Routes), req.Source, req.DaysAhead)

	status := "failed"
	defer func() { RecordRun(req.Source, status, time.Since(run.StartedAt)) }()

	src, err := p.newSource(req.Source)
	if err != nil {
		return nil, fmt.Errorf("fare source: %w", err)
	}
	raw, err := src.Fetch(ctx, fares.FetchRequest{Routes: req.Routes, DaysAhead: req.DaysAhead})
	if err != nil {
		return nil, fmt.Errorf("fetch from %s failed: %w", src.Name(), err)
	}
	run.FetchedRaw = len(raw)

	if p.raw != nil {
		if err := p.raw.SaveRaw(raw); err != nil {
			// Non-fatal: continue to analysis
			p.logger.Error("Failed to archive raw fares: %v", err)
		}
	}

	report, records, err := p.analyzer.AnalyzeRecords(raw)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyDataset) {
			status = "empty"
		}
		return nil, fmt.Errorf("analysis failed: %w", err)
	}
	run.Report = report

	p.persist(run, records)
	run.CompletedAt = time.Now()
	status = "ok"
	RecordReport(report)

	p.logger.Info("Run %s complete: %d routes, %d/%d records accepted in %v",
		run.ID, len(report.Routes), report.TotalRecords-report.RejectedCount, report.TotalRecords,
		run.CompletedAt.Sub(run.StartedAt))
	return run, nil
}

func (p *Pipeline) persist(run *Run, records []models.FareRecord) {
	if p.store != nil {
		if err := p.store.SaveFares(run.ID, records); err != nil {
			p.logger.Error("Failed to store fares of run %s: %v", run.ID, err)
		}
		info := storage.RunInfo{ID: run.ID, Source: run.Source, CreatedAt: run.StartedAt}
		if err := p.store.SaveReport(info, run.Report); err != nil {
			p.logger.Error("Failed to store report of run %s: %v", run.ID, err)
		}
	}
	if p.exporter != nil {
		if err := p.exporter.Export(run.Report); err != nil {
			p.logger.Error("Failed to export report of run %s: %v", run.ID, err)
		}
	}
}

func (p *Pipeline) withDefaults(req RunRequest) RunRequest {
	if req.Source == "" {
		req.Source = p.cfg.FareSource
	}
	if len(req.Routes) == 0 {
		req.Routes = append([]string(nil), p.cfg.Routes...)
	}
	if len(req.Routes) == 0 {
		req.Routes = append([]string(nil), config.DefaultRoutes...)
	}
	if req.DaysAhead <= 0 {
		req.DaysAhead = p.cfg.DaysAhead
	}
	return req
}
