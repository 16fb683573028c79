package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	thread_id  TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
`

// SQLiteCheckpointer persists checkpoints in a single SQLite database file,
// using the pure-Go, cgo-free ncruces/go-sqlite3 driver. Connection setup
// and schema initialization follow the teacher's sqlite storage backend
// (internal/storage/sqlite/sqlite.go): WAL mode for concurrent readers,
// idempotent CREATE TABLE IF NOT EXISTS on open.
type SQLiteCheckpointer struct {
	db *sql.DB
}

// NewSQLiteCheckpointer opens (creating if necessary) a SQLite database at
// path and ensures its schema exists.
func NewSQLiteCheckpointer(path string) (*SQLiteCheckpointer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create checkpoint database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("open checkpoint database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping checkpoint database: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		return nil, fmt.Errorf("initialize checkpoint schema: %w", err)
	}
	return &SQLiteCheckpointer{db: db}, nil
}

// Close releases the underlying database connection.
func (s *SQLiteCheckpointer) Close() error {
	return s.db.Close()
}

func (s *SQLiteCheckpointer) Save(ctx context.Context, cp Checkpoint) error {
	existing, ok, err := s.Load(ctx, cp.ThreadID)
	if err != nil {
		return err
	}
	now := time.Now()
	if ok {
		cp.CreatedAt = existing.CreatedAt
	} else if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now

	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("encode checkpoint for %s: %w", cp.ThreadID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (thread_id, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, cp.ThreadID, string(raw), cp.CreatedAt, cp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save checkpoint for %s: %w", cp.ThreadID, err)
	}
	return nil
}

func (s *SQLiteCheckpointer) Load(ctx context.Context, threadID string) (Checkpoint, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM checkpoints WHERE thread_id = ?`, threadID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load checkpoint for %s: %w", threadID, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal([]byte(payload), &cp); err != nil {
		return Checkpoint{}, false, nil
	}
	return cp, true, nil
}

func (s *SQLiteCheckpointer) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT thread_id FROM checkpoints`)
	if err != nil {
		return nil, fmt.Errorf("list checkpoints: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var threadID string
		if err := rows.Scan(&threadID); err != nil {
			return nil, fmt.Errorf("scan checkpoint row: %w", err)
		}
		out = append(out, threadID)
	}
	sort.Strings(out)
	return out, rows.Err()
}

func (s *SQLiteCheckpointer) Delete(ctx context.Context, threadID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checkpoints WHERE thread_id = ?`, threadID); err != nil {
		return fmt.Errorf("delete checkpoint for %s: %w", threadID, err)
	}
	return nil
}

func (s *SQLiteCheckpointer) Exists(ctx context.Context, threadID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM checkpoints WHERE thread_id = ?`, threadID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check checkpoint existence for %s: %w", threadID, err)
	}
	return count > 0, nil
}

var _ Checkpointer = (*SQLiteCheckpointer)(nil)
