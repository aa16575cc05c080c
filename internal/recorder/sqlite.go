package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the API read history while a refresh writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS dataset_refreshes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			version     TEXT,
			source      TEXT,
			rows        INTEGER,
			dropped     INTEGER,
			duration_ms INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_refresh_ts ON dataset_refreshes(timestamp)`,

		`CREATE TABLE IF NOT EXISTS analyses (
			id                 TEXT PRIMARY KEY,
			timestamp          INTEGER NOT NULL,
			dataset_version    TEXT,
			area_field         TEXT,
			area               TEXT,
			units              INTEGER,
			interest_rate_pct  REAL,
			total_average_rent REAL,
			net_monthly_income REAL,
			headline_purchase  REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_ts ON analyses(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRefresh(evt *RefreshEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO dataset_refreshes
		(timestamp, version, source, rows, dropped, duration_ms, error)
		VALUES (?,?,?,?,?,?,?)`,
		time.Now().Unix(), evt.Version, evt.Source, evt.Rows, evt.Dropped,
		evt.Duration.Milliseconds(), evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordAnalysis(evt *AnalysisEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO analyses
		(id, timestamp, dataset_version, area_field, area, units,
		 interest_rate_pct, total_average_rent, net_monthly_income, headline_purchase)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		evt.ID, time.Now().Unix(), evt.DatasetVersion, evt.AreaField, evt.Area, evt.Units,
		evt.InterestRatePct, evt.TotalAverageRent, evt.NetMonthlyIncome, evt.HeadlinePurchaseValue,
	)
	return err
}

// RecentAnalyses returns up to limit analyses, newest first.
func (r *SQLiteRecorder) RecentAnalyses(limit int) ([]AnalysisRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.Query(`SELECT id, timestamp, dataset_version, area_field, area, units,
		interest_rate_pct, total_average_rent, net_monthly_income, headline_purchase
		FROM analyses ORDER BY timestamp DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	var out []AnalysisRow
	for rows.Next() {
		var (
			row AnalysisRow
			ts  int64
		)
		if err := rows.Scan(&row.ID, &ts, &row.DatasetVersion, &row.AreaField, &row.Area, &row.Units,
			&row.InterestRatePct, &row.TotalAverageRent, &row.NetMonthlyIncome, &row.HeadlinePurchaseValue); err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		row.RecordedAt = time.Unix(ts, 0)
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
