package config

import (
	"os"
	"path/filepath"
	"testing"

	"airfare-insights/analysis"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FARE_SOURCE", "")
	t.Setenv("ROUTES", "")
	t.Setenv("DAYS_AHEAD", "")

	cfg := Load()
	if cfg.FareSource != "mock" {
		t.Errorf("Expected mock source, got %q", cfg.FareSource)
	}
	if len(cfg.Routes) != len(DefaultRoutes) {
		t.Errorf("Expected default routes, got %v", cfg.Routes)
	}
	if cfg.DaysAhead != 30 {
		t.Errorf("Expected 30 days ahead, got %d", cfg.DaysAhead)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ROUTES", " syd-per, ,mel-adl ")
	t.Setenv("MAX_RETRIES", "7")
	t.Setenv("WATCH_INPUT", "true")
	t.Setenv("RATE_LIMIT_DELAY_MS", "not-a-number")

	cfg := Load()
	if len(cfg.Routes) != 2 || cfg.Routes[0] != "SYD-PER" || cfg.Routes[1] != "MEL-ADL" {
		t.Errorf("Expected [SYD-PER MEL-ADL], got %v", cfg.Routes)
	}
	if cfg.MaxRetries != 7 {
		t.Errorf("Expected 7 retries, got %d", cfg.MaxRetries)
	}
	if !cfg.WatchInput {
		t.Error("Expected WatchInput to be true")
	}
	if cfg.RateLimitDelay != 2000 {
		t.Errorf("Expected invalid delay to fall back to 2000, got %d", cfg.RateLimitDelay)
	}
}

func TestLoadAnalysisOptionsMissingFile(t *testing.T) {
	opts, err := LoadAnalysisOptions(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for missing file, got %v", err)
	}
	if opts.SigmaThreshold != analysis.DefaultSigmaThreshold || opts.TopN != analysis.DefaultTopN {
		t.Errorf("Expected defaults, got %+v", opts)
	}
}

func TestLoadAnalysisOptionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	content := `
sigma_threshold: 2.5
lead_time_buckets: [0, 14, 45]
top_n: 3
price_polarity: higher_is_higher
score_weights:
  volume: 2
  price: 1
  auxiliary: 1
unknown_option: ignored
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	opts, err := LoadAnalysisOptions(path)
	if err != nil {
		t.Fatalf("LoadAnalysisOptions failed: %v", err)
	}
	if opts.SigmaThreshold != 2.5 {
		t.Errorf("Expected sigma 2.5, got %.2f", opts.SigmaThreshold)
	}
	if len(opts.LeadTimeBuckets) != 3 || opts.LeadTimeBuckets[1] != 14 {
		t.Errorf("Expected buckets [0 14 45], got %v", opts.LeadTimeBuckets)
	}
	if opts.TopN != 3 {
		t.Errorf("Expected top_n 3, got %d", opts.TopN)
	}
	if opts.PricePolarity != analysis.PolarityHigherIsHigher {
		t.Errorf("Expected higher_is_higher, got %s", opts.PricePolarity)
	}
	if opts.ScoreWeights.Volume != 0.5 || opts.ScoreWeights.Price != 0.25 {
		t.Errorf("Expected weights normalised to 0.5/0.25/0.25, got %+v", opts.ScoreWeights)
	}
	if opts.MinTrendPoints != analysis.DefaultMinTrendPoints {
		t.Errorf("Expected default min_trend_points, got %d", opts.MinTrendPoints)
	}
}

func TestLoadAnalysisOptionsInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "analysis.yaml")
	if err := os.WriteFile(path, []byte("sigma_threshold: [oops"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadAnalysisOptions(path); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}
