package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists status history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so the HTTP history endpoint can read while the monitor writes.
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
		`CREATE TABLE IF NOT EXISTS status_history (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			status       TEXT NOT NULL,
			status_text  TEXT,
			is_trade_day INTEGER,
			holiday_name TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_status_ts ON status_history(timestamp)`,

		`CREATE TABLE IF NOT EXISTS schedule_history (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp    INTEGER NOT NULL,
			is_trade_day INTEGER,
			holiday_name TEXT,
			period_count INTEGER,
			periods      TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_schedule_ts ON schedule_history(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordStatus(evt *StatusEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO status_history
		(timestamp, status, status_text, is_trade_day, holiday_name)
		VALUES (?,?,?,?,?)`,
		evt.Time.Unix(), evt.Status, evt.StatusText, evt.IsTradeDay, evt.HolidayName,
	)
	return err
}

func (r *SQLiteRecorder) RecordSchedule(evt *ScheduleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO schedule_history
		(timestamp, is_trade_day, holiday_name, period_count, periods)
		VALUES (?,?,?,?,?)`,
		evt.Time.Unix(), evt.IsTradeDay, evt.HolidayName, evt.PeriodCount, evt.Periods,
	)
	return err
}

// RecentStatus returns up to limit status changes, newest first.
func (r *SQLiteRecorder) RecentStatus(limit int) ([]StatusEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Query(`SELECT timestamp, status, status_text, is_trade_day, holiday_name
		FROM status_history ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query status history: %w", err)
	}
	defer rows.Close()

	var out []StatusEvent
	for rows.Next() {
		var (
			ts  int64
			evt StatusEvent
		)
		if err := rows.Scan(&ts, &evt.Status, &evt.StatusText, &evt.IsTradeDay, &evt.HolidayName); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		evt.Time = time.Unix(ts, 0)
		out = append(out, evt)
	}
	return out, rows.Err()
}

// Prune deletes history recorded before the cutoff.
func (r *SQLiteRecorder) Prune(before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for _, table := range []string{"status_history", "schedule_history"} {
		res, err := r.db.Exec(`DELETE FROM `+table+` WHERE timestamp < ?`, before.Unix())
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}
