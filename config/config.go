package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"airfare-insights/analysis"
)

// Config holds all application-level configuration
type Config struct {
	// Database
	DatabaseDriver string // postgres, mysql or sqlite
	DatabaseURL    string

	// Acquisition
	FareSource     string // mock, csv or chrome
	FareInputCSV   string
	FareSearchURL  string // fmt template with origin, destination, date
	Routes         []string
	DaysAhead      int
	RateLimitDelay int // milliseconds between requests
	MaxRetries     int

	// Output
	CSVFilePath   string
	ExcelFilePath string

	// Analysis
	AnalysisConfigPath string
	MaxConcurrency     int // routes analyzed in parallel

	// Server
	ServeAddr       string
	RefreshSchedule string
	WatchInput      bool

	// Narrative
	OpenAIKey   string
	OpenAIURL   string
	OpenAIModel string

	LogLevel string
}

// DefaultRoutes are fetched when no ROUTES are configured.
var DefaultRoutes = []string{"SYD-MEL", "SYD-BNE", "MEL-BNE"}

// Load reads configuration from environment variables or falls back to defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabaseDriver:     getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:        getEnv("DATABASE_URL", "file:output/airfare.db?_pragma=busy_timeout(5000)"),
		FareSource:         getEnv("FARE_SOURCE", "mock"),
		FareInputCSV:       getEnv("FARE_INPUT_CSV", "input/fares.csv"),
		FareSearchURL:      getEnv("FARE_SEARCH_URL", ""),
		Routes:             getEnvList("ROUTES", DefaultRoutes),
		DaysAhead:          getEnvInt("DAYS_AHEAD", 30),
		MaxConcurrency:     getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitDelay:     getEnvInt("RATE_LIMIT_DELAY_MS", 2000),
		MaxRetries:         getEnvInt("MAX_RETRIES", 3),
		CSVFilePath:        getEnv("CSV_FILE_PATH", "output/raw_fares.csv"),
		ExcelFilePath:      getEnv("EXCEL_FILE_PATH", "output/fare_report.xlsx"),
		AnalysisConfigPath: getEnv("ANALYSIS_CONFIG", "analysis.yaml"),
		ServeAddr:          getEnv("SERVE_ADDR", ""),
		RefreshSchedule:    getEnv("REFRESH_SCHEDULE", "@every 1h"),
		WatchInput:         getEnvBool("WATCH_INPUT", false),
		OpenAIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIURL:          getEnv("OPENAI_API_URL", "https://api.openai.com/v1"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
	}
}

// LoadAnalysisOptions reads analysis options from a YAML file. A missing file
// yields the defaults; unknown keys are ignored.
func LoadAnalysisOptions(path string) (analysis.Options, error) {
	if path == "" {
		return analysis.DefaultOptions(), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return analysis.DefaultOptions(), nil
	}
	if err != nil {
		return analysis.Options{}, fmt.Errorf("failed to read analysis config: %w", err)
	}

	var opts analysis.Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return analysis.Options{}, fmt.Errorf("failed to unmarshal analysis config: %w", err)
	}
	return opts.WithDefaults(), nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvList splits a comma separated value, e.g. ROUTES=SYD-MEL,SYD-BNE.
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return append([]string(nil), defaultVal...)
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return append([]string(nil), defaultVal...)
	}
	return out
}
