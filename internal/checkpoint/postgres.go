package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	thread_id  TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// PostgresConfig holds connection configuration, mirroring the teacher's
// postgres storage backend (internal/storage/postgres/postgres.go).
type PostgresConfig struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// DefaultPostgresConfig returns sensible connection-pool defaults.
func DefaultPostgresConfig() *PostgresConfig {
	return &PostgresConfig{
		Host:            "localhost",
		Port:            5432,
		Database:        "deepagent",
		User:            "deepagent",
		SSLMode:         "prefer",
		MaxConns:        25,
		MinConns:        5,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// PostgresCheckpointer persists checkpoints in a PostgreSQL table via a
// pgx connection pool.
type PostgresCheckpointer struct {
	pool *pgxpool.Pool
}

// NewPostgresCheckpointer connects to PostgreSQL per cfg (DefaultPostgresConfig
// if nil) and ensures the checkpoints table exists.
func NewPostgresCheckpointer(ctx context.Context, cfg *PostgresConfig) (*PostgresCheckpointer, error) {
	if cfg == nil {
		cfg = DefaultPostgresConfig()
	}
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse postgres connection config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("initialize checkpoint schema: %w", err)
	}
	return &PostgresCheckpointer{pool: pool}, nil
}

// Close releases the connection pool.
func (p *PostgresCheckpointer) Close() {
	p.pool.Close()
}

func (p *PostgresCheckpointer) Save(ctx context.Context, cp Checkpoint) error {
	existing, ok, err := p.Load(ctx, cp.ThreadID)
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

	_, err = p.pool.Exec(ctx, `
		INSERT INTO checkpoints (thread_id, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (thread_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, cp.ThreadID, raw, cp.CreatedAt, cp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save checkpoint for %s: %w", cp.ThreadID, err)
	}
	return nil
}

func (p *PostgresCheckpointer) Load(ctx context.Context, threadID string) (Checkpoint, bool, error) {
	var raw []byte
	err := p.pool.QueryRow(ctx, `SELECT payload FROM checkpoints WHERE thread_id = $1`, threadID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("load checkpoint for %s: %w", threadID, err)
	}
	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return Checkpoint{}, false, nil
	}
	return cp, true, nil
}

func (p *PostgresCheckpointer) List(ctx context.Context) ([]string, error) {
	rows, err := p.pool.Query(ctx, `SELECT thread_id FROM checkpoints`)
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}

func (p *PostgresCheckpointer) Delete(ctx context.Context, threadID string) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM checkpoints WHERE thread_id = $1`, threadID); err != nil {
		return fmt.Errorf("delete checkpoint for %s: %w", threadID, err)
	}
	return nil
}

func (p *PostgresCheckpointer) Exists(ctx context.Context, threadID string) (bool, error) {
	var count int
	err := p.pool.QueryRow(ctx, `SELECT COUNT(1) FROM checkpoints WHERE thread_id = $1`, threadID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check checkpoint existence for %s: %w", threadID, err)
	}
	return count > 0, nil
}

var _ Checkpointer = (*PostgresCheckpointer)(nil)
