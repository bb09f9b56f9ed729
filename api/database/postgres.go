package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	id TEXT PRIMARY KEY,
	owner_token TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	progress TEXT NOT NULL DEFAULT '',
	original_filename TEXT NOT NULL,
	input_file_id TEXT NOT NULL,
	input_link TEXT NOT NULL,
	source_language TEXT NOT NULL DEFAULT 'auto',
	output_language TEXT NOT NULL DEFAULT 'same',
	model_size TEXT NOT NULL DEFAULT 'base',
	output_format TEXT NOT NULL DEFAULT 'srt',
	subtitle_file_id TEXT NOT NULL DEFAULT '',
	subtitle_link TEXT NOT NULL DEFAULT '',
	subtitle_filename TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	completed_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_tasks_owner_created ON tasks (owner_token, created_at DESC);
`

type DB struct {
	Pool *pgxpool.Pool
}

func Connect(ctx context.Context, url string) (*DB, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Migrate creates the tasks table if it is missing.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
