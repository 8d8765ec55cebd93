package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"EventIndicators/internal/model"
	"EventIndicators/internal/updater"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *zap.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *zap.Logger) (*SQLiteRecorder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so a viewer can read history while a watch run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info("sqlite recorder opened", zap.String("path", dbPath))
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			run_id         TEXT PRIMARY KEY,
			source         TEXT,
			fetcher        TEXT,
			started_at     INTEGER NOT NULL,
			finished_at    INTEGER,
			total          INTEGER,
			processed      INTEGER,
			skipped        INTEGER,
			failed         INTEGER,
			fields_written INTEGER,
			saved          INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS record_outcomes (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id     TEXT NOT NULL REFERENCES runs(run_id),
			row_num    INTEGER,
			ticker     TEXT,
			event_date TEXT,
			status     TEXT,
			missing    TEXT,
			filled     TEXT,
			written    INTEGER,
			message    TEXT,
			warnings   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_run ON record_outcomes(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_outcomes_ticker ON record_outcomes(ticker, event_date)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run header and every per-record outcome in one transaction.
func (r *SQLiteRecorder) RecordRun(sum *updater.Summary) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO runs
		(run_id, source, fetcher, started_at, finished_at, total, processed, skipped, failed, fields_written, saved)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		sum.RunID, sum.Source, sum.Fetcher, sum.StartedAt.Unix(), sum.FinishedAt.Unix(),
		sum.Total, sum.Processed, sum.Skipped, sum.Failed, sum.FieldsWritten, boolInt(sum.Saved),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO record_outcomes
		(run_id, row_num, ticker, event_date, status, missing, filled, written, message, warnings)
		VALUES (?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare outcome: %w", err)
	}
	defer stmt.Close()

	for _, o := range sum.Outcomes {
		date := ""
		if !o.EventDate.IsZero() {
			date = o.EventDate.Format("2006-01-02")
		}
		if _, err := stmt.Exec(sum.RunID, o.Row, o.Ticker, date, string(o.Status),
			joinGroups(o.Missing), joinGroups(o.Filled), o.Written, o.Message,
			strings.Join(o.Warnings, "; "),
		); err != nil {
			return fmt.Errorf("insert outcome row %d: %w", o.Row, err)
		}
	}
	return tx.Commit()
}

// LastRun returns the most recently started run.
func (r *SQLiteRecorder) LastRun() (RunRecord, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		rec               RunRecord
		started, finished int64
		saved             int
	)
	err := r.db.QueryRow(`SELECT run_id, source, fetcher, started_at, finished_at,
		total, processed, skipped, failed, fields_written, saved
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT 1`).Scan(
		&rec.RunID, &rec.Source, &rec.Fetcher, &started, &finished,
		&rec.Total, &rec.Processed, &rec.Skipped, &rec.Failed, &rec.FieldsWritten, &saved,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, false, nil
	}
	if err != nil {
		return RunRecord{}, false, fmt.Errorf("query last run: %w", err)
	}
	rec.StartedAt = time.Unix(started, 0)
	rec.FinishedAt = time.Unix(finished, 0)
	rec.Saved = saved != 0
	return rec, true, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func joinGroups(gs []model.FieldGroup) string {
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = string(g)
	}
	return strings.Join(parts, ",")
}
