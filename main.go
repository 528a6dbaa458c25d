package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"airfare-insights/analysis"
	"airfare-insights/config"
	"airfare-insights/handlers"
	"airfare-insights/narrative"
	"airfare-insights/scraper/fares"
	"airfare-insights/services"
	"airfare-insights/storage"
	"airfare-insights/utils"
)

func main() {
	// ================== Bootstrap ====================
	cfg := config.Load()
	logger := utils.NewLogger(utils.ParseLevel(cfg.LogLevel))

	logger.Info("Airfare Demand Insights")
	logger.Info("Source: %s | Routes: %v | Days ahead: %d", cfg.FareSource, cfg.Routes, cfg.DaysAhead)
	logger.Info("Concurrency: %d | Rate delay: %dms | Retries: %d",
		cfg.MaxConcurrency, cfg.RateLimitDelay, cfg.MaxRetries)

	opts, err := config.LoadAnalysisOptions(cfg.AnalysisConfigPath)
	if err != nil {
		logger.Error("Invalid analysis config: %v", err)
		os.Exit(1)
	}

	// =================== SQL Setup ========================================
	for _, p := range []string{cfg.CSVFilePath, cfg.ExcelFilePath} {
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			logger.Warn("Cannot create output directory for %s: %v", p, err)
		}
	}

	db, err := storage.NewSQLWriter(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("Cannot connect to %s: %v", cfg.DatabaseDriver, err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.CreateTables(); err != nil {
		logger.Error("Failed to create DB tables: %v", err)
		os.Exit(1)
	}

	// =============== Pipeline ===================================
	analyzer := analysis.NewAnalyzer(opts, logger).WithConcurrency(cfg.MaxConcurrency)
	pipeline := services.NewPipeline(cfg, analyzer, logger).
		WithRawStorage(storage.NewCSVWriter(cfg.CSVFilePath, logger)).
		WithReportStorage(db).
		WithExporter(storage.NewExcelWriter(cfg.ExcelFilePath, logger))
	refresher := services.NewRefresher(pipeline, logger)

	if cfg.ServeAddr == "" {
		runOnce(refresher, cfg, logger)
		return
	}

	// =============== HTTP Server ===================================
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := refresher.Refresh(ctx); err != nil {
		logger.Warn("Initial refresh failed: %v", err)
	}
	if err := refresher.Start(cfg.RefreshSchedule); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	if cfg.WatchInput && cfg.FareSource == fares.SourceCSV {
		if err := refresher.Watch(ctx, cfg.FareInputCSV); err != nil {
			logger.Warn("Cannot watch %s: %v", cfg.FareInputCSV, err)
		}
	}
	defer refresher.Stop()

	var generator narrative.Generator = narrative.NewFallbackGenerator()
	if cfg.OpenAIKey != "" {
		generator = narrative.NewChatGenerator(narrative.ChatConfig{
			APIKey:     cfg.OpenAIKey,
			URL:        cfg.OpenAIURL,
			Model:      cfg.OpenAIModel,
			MaxRetries: cfg.MaxRetries,
		}, generator, logger)
	}

	api := handlers.NewAPI(refresher, generator, logger)
	server := &http.Server{
		Addr:              cfg.ServeAddr,
		Handler:           api.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info("Listening on %s (refresh %s)", cfg.ServeAddr, cfg.RefreshSchedule)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("HTTP server failed: %v", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func runOnce(refresher *services.Refresher, cfg *config.Config, logger *utils.Logger) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := refresher.Refresh(ctx)
	if err != nil {
		if errors.Is(err, analysis.ErrEmptyDataset) {
			logger.Warn("No usable fares fetched, check the source configuration")
			return
		}
		logger.Error("Run failed: %v", err)
		os.Exit(1)
	}

	services.PrintReport(os.Stdout, run.Report)

	fmt.Println(" Done! Raw data →", cfg.CSVFilePath)
	fmt.Println(" Excel report →", cfg.ExcelFilePath)
	fmt.Printf(" Run %s stored via %s\n", run.ID, cfg.DatabaseDriver)
}
