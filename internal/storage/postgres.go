package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/illarion/dehook/internal/settings"
	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS settings (
    key TEXT PRIMARY KEY,
    value JSONB NOT NULL,
    modified BIGINT NOT NULL
);
`

// Postgres stores the aggregate as one row of a key/value table
type Postgres struct {
	DB *sql.DB
}

// OpenPostgres connects to dsn and verifies the connection
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPostgres(db), nil
}

// NewPostgres wraps an existing connection pool
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{DB: db}
}

// Initialize creates the table and inserts the defaults unless a row exists
func (p *Postgres) Initialize(ctx context.Context) (bool, error) {
	if _, err := p.DB.ExecContext(ctx, schema); err != nil {
		return false, fmt.Errorf("create schema: %w", err)
	}

	data, err := encode(settings.Default())
	if err != nil {
		return false, err
	}
	res, err := p.DB.ExecContext(ctx, `
		INSERT INTO settings (key, value, modified) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO NOTHING
	`, settings.StorageKey, data, time.Now().UnixMilli())
	if err != nil {
		return false, fmt.Errorf("seed settings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("seed settings: %w", err)
	}
	return n > 0, nil
}

// Read returns the stored aggregate or the defaults
func (p *Postgres) Read(ctx context.Context) (*settings.AppSettings, error) {
	var data []byte
	err := p.DB.QueryRowContext(ctx, `
		SELECT value FROM settings WHERE key = $1
	`, settings.StorageKey).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return settings.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return decode(data)
}

// Write upserts the aggregate
func (p *Postgres) Write(ctx context.Context, s *settings.AppSettings) error {
	data, err := encode(s)
	if err != nil {
		return err
	}
	_, err = p.DB.ExecContext(ctx, `
		INSERT INTO settings (key, value, modified) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, modified = EXCLUDED.modified
	`, settings.StorageKey, data, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Close closes the connection pool
func (p *Postgres) Close() error {
	return p.DB.Close()
}
