package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"airfare-insights/models"
	"airfare-insights/utils"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// routeIDType fits composite route keys, not only IATA pairs.
const routeIDType = "VARCHAR(64)"

// dialect captures the SQL differences between the supported databases.
type dialect struct {
	driver     string
	idColumn   string
	floatType  string
	timeType   string
	insertVerb string // INSERT INTO or its ignore-duplicates variant
	onConflict string
	positional bool // $1, $2 placeholders instead of ?
}

var dialects = map[string]dialect{
	"postgres": {
		driver:     "postgres",
		idColumn:   "SERIAL PRIMARY KEY",
		floatType:  "DOUBLE PRECISION",
		timeType:   "TIMESTAMP",
		insertVerb: "INSERT INTO",
		onConflict: " ON CONFLICT DO NOTHING",
		positional: true,
	},
	"mysql": {
		driver:     "mysql",
		idColumn:   "INT AUTO_INCREMENT PRIMARY KEY",
		floatType:  "DOUBLE",
		timeType:   "DATETIME",
		insertVerb: "INSERT IGNORE INTO",
	},
	"sqlite": {
		driver:     "sqlite",
		idColumn:   "INTEGER PRIMARY KEY AUTOINCREMENT",
		floatType:  "REAL",
		timeType:   "TIMESTAMP",
		insertVerb: "INSERT OR IGNORE INTO",
	},
}

// insert builds an ignore-duplicates INSERT for table with one placeholder per column.
func (d dialect) insert(table string, columns ...string) string {
	marks := make([]string, len(columns))
	for i := range columns {
		if d.positional {
			marks[i] = "$" + strconv.Itoa(i+1)
		} else {
			marks[i] = "?"
		}
	}
	return fmt.Sprintf("%s %s (%s) VALUES (%s)%s",
		d.insertVerb, table, strings.Join(columns, ", "), strings.Join(marks, ", "), d.onConflict)
}

func (d dialect) placeholder(i int) string {
	if d.positional {
		return "$" + strconv.Itoa(i)
	}
	return "?"
}

// RunInfo identifies one pipeline run.
type RunInfo struct {
	ID        string
	Source    string
	CreatedAt time.Time
}

// RouteSummary is one persisted per-route row of a report.
type RouteSummary struct {
	RouteID             string
	Rank                int
	RecordCount         int
	MeanPrice           float64
	MedianPrice         float64
	MinPrice            float64
	MaxPrice            float64
	PriceStdDev         float64
	DemandScore         float64
	TrendDirection      string
	Volatility          float64
	AnomalyCount        int
	RecommendedLeadDays int
	ExpectedPrice       float64
	Confidence          float64
}

// SQLWriter stores fares and analysis results in PostgreSQL, MySQL or SQLite
type SQLWriter struct {
	db      *sql.DB
	dialect dialect
	logger  *utils.Logger
}

// NewSQLWriter opens the database for driver (postgres, mysql, sqlite) and pings it
func NewSQLWriter(driver, dsn string, logger *utils.Logger) (*SQLWriter, error) {
	d, ok := dialects[strings.ToLower(driver)]
	if !ok {
		return nil, fmt.Errorf("unsupported database driver: %q", driver)
	}

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open DB: %w", err)
	}

	if d.driver == "sqlite" {
		// one writer; also keeps :memory: databases on a single connection
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}
	db.SetConnMaxLifetime(time.Minute * 5)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping DB: %w", err)
	}

	logger.Info("Connected to %s successfully", d.driver)
	return &SQLWriter{db: db, dialect: d, logger: logger}, nil
}

// CreateTables creates the run, fare and summary tables if they don't exist, with indexes
func (w *SQLWriter) CreateTables() error {
	d := w.dialect
	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS fare_runs (
			id             %s,
			run_id         VARCHAR(64) NOT NULL UNIQUE,
			source         VARCHAR(32) NOT NULL,
			total_records  INTEGER     NOT NULL,
			rejected_count INTEGER     NOT NULL,
			route_count    INTEGER     NOT NULL,
			overall_mean   %s,
			overall_min    %s,
			overall_max    %s,
			created_at     %s NOT NULL
		)`, d.idColumn, d.floatType, d.floatType, d.floatType, d.timeType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS fares (
			id             %s,
			run_id         VARCHAR(64) NOT NULL,
			route_id       %s NOT NULL,
			departure_date %s NOT NULL,
			observed_at    %s NOT NULL,
			price          %s NOT NULL,
			demand_signal  %s NULL,
			UNIQUE (run_id, route_id, departure_date, observed_at, price)
		)`, d.idColumn, routeIDType, d.timeType, d.timeType, d.floatType, d.floatType),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS route_summaries (
			id                    %s,
			run_id                VARCHAR(64) NOT NULL,
			route_id              %[3]s NOT NULL,
			demand_rank           INTEGER     NOT NULL,
			record_count          INTEGER     NOT NULL,
			mean_price            %[2]s,
			median_price          %[2]s,
			min_price             %[2]s,
			max_price             %[2]s,
			price_stddev          %[2]s,
			demand_score          %[2]s,
			trend_direction       VARCHAR(16) NOT NULL,
			volatility            %[2]s,
			anomaly_count         INTEGER     NOT NULL,
			recommended_lead_days INTEGER     NOT NULL,
			expected_price        %[2]s,
			confidence            %[2]s,
			UNIQUE (run_id, route_id)
		)`, d.idColumn, d.floatType, routeIDType),
		`CREATE INDEX idx_fares_route ON fares (route_id)`,
		`CREATE INDEX idx_route_summaries_run ON route_summaries (run_id)`,
	}

	for _, stmt := range statements {
		if _, err := w.db.Exec(stmt); err != nil {
			if strings.HasPrefix(stmt, "CREATE INDEX") && isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	w.logger.Info("Tables 'fare_runs', 'fares' and 'route_summaries' are ready")
	return nil
}

// isDuplicateIndex reports whether err says the index already exists. MySQL
// has no CREATE INDEX IF NOT EXISTS, so every dialect runs the plain form.
func isDuplicateIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate key name")
}

// SaveFares inserts validated fares of a run in a single transaction, skipping
// duplicates. Each row runs under a savepoint so a failed insert is skipped
// without aborting the transaction on PostgreSQL.
func (w *SQLWriter) SaveFares(runID string, records []models.FareRecord) (err error) {
	if len(records) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(w.dialect.insert("fares",
		"run_id", "route_id", "departure_date", "observed_at", "price", "demand_signal"))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, r := range records {
		var signal sql.NullFloat64
		if r.DemandSignal != nil {
			signal = sql.NullFloat64{Float64: *r.DemandSignal, Valid: true}
		}
		if _, err = tx.Exec("SAVEPOINT " + fareSavepoint); err != nil {
			return fmt.Errorf("failed to set savepoint: %w", err)
		}
		if _, execErr := stmt.Exec(runID, r.RouteID, r.DepartureDate.UTC(), r.ObservedAt.UTC(), r.Price, signal); execErr != nil {
			w.logger.Warn("Skipping insert for %s fare on %s: %v", r.RouteID, r.DepartureDate.Format("2006-01-02"), execErr)
			if _, err = tx.Exec("ROLLBACK TO SAVEPOINT " + fareSavepoint); err != nil {
				return fmt.Errorf("failed to roll back fare insert: %w", err)
			}
			continue
		}
		if _, err = tx.Exec("RELEASE SAVEPOINT " + fareSavepoint); err != nil {
			return fmt.Errorf("failed to release savepoint: %w", err)
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.logger.Info("Inserted %d/%d fares for run %s", inserted, len(records), runID)
	return nil
}

const fareSavepoint = "fare_row"

// SaveReport stores the run header and one summary row per route
func (w *SQLWriter) SaveReport(run RunInfo, report *models.AnalysisReport) (err error) {
	if report == nil {
		return fmt.Errorf("no report to save for run %s", run.ID)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := w.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.Exec(w.dialect.insert("fare_runs",
		"run_id", "source", "total_records", "rejected_count", "route_count",
		"overall_mean", "overall_min", "overall_max", "created_at"),
		run.ID, run.Source, report.TotalRecords, report.RejectedCount, len(report.Routes),
		report.OverallMeanPrice, report.OverallPriceRange.Min, report.OverallPriceRange.Max, run.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.Prepare(w.dialect.insert("route_summaries",
		"run_id", "route_id", "demand_rank", "record_count", "mean_price", "median_price",
		"min_price", "max_price", "price_stddev", "demand_score", "trend_direction",
		"volatility", "anomaly_count", "recommended_lead_days", "expected_price", "confidence"))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, id := range report.Ranking {
		ra := report.Route(id)
		if ra == nil {
			continue
		}
		_, err = stmt.Exec(run.ID, id, ra.Demand.Rank, ra.Stats.Count, ra.Stats.MeanPrice, ra.Stats.MedianPrice,
			ra.Stats.MinPrice, ra.Stats.MaxPrice, ra.Stats.PriceStdDev, ra.Demand.NormalizedScore, ra.Trend.Direction,
			ra.Trend.Volatility, len(ra.Trend.Anomalies), ra.Booking.RecommendedLeadTimeDays, ra.Booking.ExpectedPrice,
			ra.Booking.Confidence)
		if err != nil {
			return fmt.Errorf("failed to insert summary for %s: %w", id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	w.logger.Info("Saved report for run %s (%d routes)", run.ID, len(report.Ranking))
	return nil
}

// RouteSummaries loads the summaries of a run ordered by demand rank
func (w *SQLWriter) RouteSummaries(runID string) ([]RouteSummary, error) {
	query := `SELECT route_id, demand_rank, record_count, mean_price, median_price, min_price, max_price,
		price_stddev, demand_score, trend_direction, volatility, anomaly_count, recommended_lead_days,
		expected_price, confidence
		FROM route_summaries WHERE run_id = ` + w.dialect.placeholder(1) + ` ORDER BY demand_rank`

	rows, err := w.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var out []RouteSummary
	for rows.Next() {
		var s RouteSummary
		if err := rows.Scan(&s.RouteID, &s.Rank, &s.RecordCount, &s.MeanPrice, &s.MedianPrice, &s.MinPrice,
			&s.MaxPrice, &s.PriceStdDev, &s.DemandScore, &s.TrendDirection, &s.Volatility, &s.AnomalyCount,
			&s.RecommendedLeadDays, &s.ExpectedPrice, &s.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// CountFares returns how many fares are stored for a run
func (w *SQLWriter) CountFares(runID string) (int, error) {
	var n int
	err := w.db.QueryRow(`SELECT COUNT(*) FROM fares WHERE run_id = `+w.dialect.placeholder(1), runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count fares: %w", err)
	}
	return n, nil
}

// Close closes the database connection
func (w *SQLWriter) Close() error {
	if w.db != nil {
		return w.db.Close()
	}
	return nil
}
