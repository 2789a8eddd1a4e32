package infra

import (
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Ensure sqlcipher driver is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/Paarth01/Focus-Mode/internal/domain"
)

const timeLayout = time.RFC3339

// SQLiteStore implements domain.SessionStore on a SQLite database.
// With a key the file becomes a SQLCipher database; without one it stays
// plain SQLite so external analysis tools can read it directly.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteStore opens (or creates) the session log database.
// key may be nil for an unencrypted log.
func NewSQLiteStore(dbPath string, key []byte) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dsn := dbPath
	if len(key) > 0 {
		dsn = fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096",
			dbPath, hex.EncodeToString(key))
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open session log: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to session log: %w", err)
	}

	// Single writer, occasional readers. WAL keeps report queries from
	// blocking the append path.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	store := &SQLiteStore{db: db, dbPath: dbPath}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return store, nil
}

// createTables creates the schema if it doesn't exist.
func (s *SQLiteStore) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS focus_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL DEFAULT '',
		app_name TEXT NOT NULL,
		mode TEXT NOT NULL,
		timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_focus_log_timestamp ON focus_log(timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append durably writes one record. Timestamps are stored as RFC 3339 UTC
// so lexicographic order matches chronological order.
func (s *SQLiteStore) Append(rec domain.LogRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO focus_log (run_id, app_name, mode, timestamp) VALUES (?, ?, ?, ?)`,
		rec.RunID, rec.AppName, string(rec.Mode), rec.Timestamp.UTC().Format(timeLayout),
	)
	if err != nil {
		return domain.E(domain.ErrorClassPersistence, "store.append", err)
	}
	return nil
}

// Recent returns the newest n records, newest first.
func (s *SQLiteStore) Recent(n int) ([]domain.LogRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, run_id, app_name, mode, timestamp FROM focus_log ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Day returns all records of one local calendar day, oldest first.
func (s *SQLiteStore) Day(date time.Time) ([]domain.LogRecord, error) {
	start, end := dayWindow(date)
	rows, err := s.db.Query(
		`SELECT id, run_id, app_name, mode, timestamp FROM focus_log
		 WHERE timestamp >= ? AND timestamp < ? ORDER BY id ASC`,
		start.UTC().Format(timeLayout), end.UTC().Format(timeLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query day records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// AggregateFor computes productive totals for one local calendar day.
// A day still in progress is bounded by now so an open productive span
// counts up to the moment of the query.
func (s *SQLiteStore) AggregateFor(date time.Time, now time.Time) (domain.DayStats, error) {
	recs, err := s.Day(date)
	if err != nil {
		return domain.DayStats{}, err
	}

	start, end := dayWindow(date)
	if now.Before(end) {
		end = now
	}

	stats := summarize(recs, end)
	stats.Date = start.Format("2006-01-02")
	return stats, nil
}

// Close releases the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// summarize sums productive spans. A span opens at the first productive
// record and closes at the next record of a different mode. A span still
// open at the window end contributes its elapsed time but does not count
// as a completed session.
func summarize(recs []domain.LogRecord, windowEnd time.Time) domain.DayStats {
	var stats domain.DayStats
	stats.Records = len(recs)

	var openStart time.Time
	open := false
	for _, rec := range recs {
		if rec.Mode == domain.ModeProductive {
			if !open {
				open = true
				openStart = rec.Timestamp
			}
			continue
		}
		if open {
			stats.Productive += rec.Timestamp.Sub(openStart)
			stats.Sessions++
			open = false
		}
	}
	if open && windowEnd.After(openStart) {
		stats.Productive += windowEnd.Sub(openStart)
	}
	return stats
}

// dayWindow returns the [midnight, next midnight) bounds of date in its
// own location.
func dayWindow(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 0, 1)
}

func scanRecords(rows *sql.Rows) ([]domain.LogRecord, error) {
	var recs []domain.LogRecord
	for rows.Next() {
		var rec domain.LogRecord
		var mode, ts string
		if err := rows.Scan(&rec.ID, &rec.RunID, &rec.AppName, &mode, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		parsed, err := time.Parse(timeLayout, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp %q: %w", ts, err)
		}
		rec.Mode = domain.Mode(mode)
		rec.Timestamp = parsed
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Ensure SQLiteStore implements domain.SessionStore.
var _ domain.SessionStore = (*SQLiteStore)(nil)
