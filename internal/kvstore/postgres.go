package kvstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sendrec/disha/internal/database"
)

// Postgres stores entries in the kv_entries table.
type Postgres struct {
	db database.DBTX
}

func NewPostgres(db database.DBTX) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := p.db.QueryRow(ctx,
		`SELECT value FROM kv_entries WHERE key = $1`,
		key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get kv entry: %w", err)
	}
	return value, nil
}

func (p *Postgres) Set(ctx context.Context, key, value string) error {
	if _, err := p.db.Exec(ctx,
		`INSERT INTO kv_entries (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	); err != nil {
		return fmt.Errorf("set kv entry: %w", err)
	}
	return nil
}

func (p *Postgres) Remove(ctx context.Context, key string) error {
	if _, err := p.db.Exec(ctx,
		`DELETE FROM kv_entries WHERE key = $1`,
		key,
	); err != nil {
		return fmt.Errorf("remove kv entry: %w", err)
	}
	return nil
}
