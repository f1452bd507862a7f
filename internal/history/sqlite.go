package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/actuator/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS executions (
	seq             INTEGER PRIMARY KEY AUTOINCREMENT,
	id              TEXT NOT NULL UNIQUE,
	insight_id      TEXT NOT NULL DEFAULT '',
	insight_summary TEXT NOT NULL DEFAULT '',
	status          TEXT NOT NULL,
	ts_unix_nano    INTEGER NOT NULL,
	payload         TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_executions_completed
	ON executions(status, insight_summary, ts_unix_nano);
`

// SQLiteStore keeps the history in a SQLite database. Rows are only ever
// inserted.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

// OpenSQLite opens (creating if needed) the database at dbPath.
func OpenSQLite(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// busy_timeout goes first so the remaining pragmas wait on locks held
	// by concurrent runs.
	pragmas := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, pragma := range pragmas {
		if err := execWithRetry(db, pragma, 5, 10*time.Millisecond); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", pragma, err)
		}
	}

	if err := execWithRetry(db, sqliteSchema, 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// execWithRetry retries stmt with exponential backoff while the database
// is locked.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, rec models.ExecutionRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return ErrClosed
	}

	prepare(&rec)
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal execution record: %w", err)
	}

	query := `INSERT INTO executions (id, insight_id, insight_summary, status, ts_unix_nano, payload)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, query,
		rec.ID,
		rec.InsightID,
		rec.InsightSummary,
		rec.Status,
		rec.Timestamp.UnixNano(),
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("insert execution record: %w", err)
	}
	return nil
}

// Records implements Store.
func (s *SQLiteStore) Records(ctx context.Context) ([]models.ExecutionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM executions ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("query executions: %w", err)
	}
	defer rows.Close()

	var records []models.ExecutionRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan execution row: %w", err)
		}
		var rec models.ExecutionRecord
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("unmarshal execution record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate execution rows: %w", err)
	}
	return records, nil
}

// RecentlyCompleted implements Store.
func (s *SQLiteStore) RecentlyCompleted(since time.Time) (map[string]time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}

	query := `SELECT insight_summary, MAX(ts_unix_nano)
		FROM executions
		WHERE status = ? AND insight_summary != '' AND ts_unix_nano >= ?
		GROUP BY insight_summary`
	rows, err := s.db.Query(query, models.RecordCompleted, since.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("query completed executions: %w", err)
	}
	defer rows.Close()

	out := make(map[string]time.Time)
	for rows.Next() {
		var summary string
		var ts int64
		if err := rows.Scan(&summary, &ts); err != nil {
			return nil, fmt.Errorf("scan completed row: %w", err)
		}
		out[summary] = time.Unix(0, ts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed rows: %w", err)
	}
	return out, nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
