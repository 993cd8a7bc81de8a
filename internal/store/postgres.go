package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"internlee-engine/internal/domain"
)

type Postgres struct {
	closeOnce sync.Once
	pool      *pgxpool.Pool
	table     string
}

// OpenPostgres connects to dsn and creates table when missing. A non-empty
// password overrides the one in dsn.
func OpenPostgres(ctx context.Context, dsn, password, table string) (*Postgres, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DB DSN: %w", err)
	}
	if password != "" {
		poolConfig.ConnConfig.Password = password
	}
	poolConfig.MaxConns = 4
	poolConfig.ConnConfig.ConnectTimeout = 10 * time.Second

	pool, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(connCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p := &Postgres{pool: pool, table: table}
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return p, nil
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id BIGSERIAL PRIMARY KEY,
  company TEXT NOT NULL,
  title TEXT NOT NULL,
  redirect_link TEXT NOT NULL,
  qualifications JSONB NOT NULL DEFAULT '[]'::jsonb,
  location TEXT NOT NULL,
  duration TEXT NOT NULL,
  based_job TEXT NOT NULL,
  experience TEXT NOT NULL,
  stipend TEXT NOT NULL DEFAULT 'check source site',
  scraped_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, p.table))
	return err
}

func pgPlaceholder(n int, col string) string {
	if col == "qualifications" {
		return fmt.Sprintf("$%d::jsonb", n)
	}
	return fmt.Sprintf("$%d", n)
}

func (p *Postgres) DeleteAll(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, fmt.Sprintf(`DELETE FROM %s`, p.table)); err != nil {
		return fmt.Errorf("delete all listings: %w", err)
	}
	return nil
}

func (p *Postgres) InsertBatch(ctx context.Context, batch []domain.Listing) error {
	if len(batch) == 0 {
		return nil
	}
	args, err := insertArgs(batch)
	if err != nil {
		return err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, insertQuery(p.table, len(batch), pgPlaceholder), args...); err != nil {
		return fmt.Errorf("insert %d listings: %w", len(batch), err)
	}
	return tx.Commit(ctx)
}

func (p *Postgres) List(ctx context.Context, limit int) ([]domain.Listing, error) {
	cols := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = c
		if c == "qualifications" {
			cols[i] = "qualifications::text"
		}
	}
	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id LIMIT $1`, strings.Join(cols, ", "), p.table)

	rows, err := p.pool.Query(ctx, query, listLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Listing{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Close closes the pool once.
func (p *Postgres) Close() error {
	p.closeOnce.Do(func() {
		if p.pool != nil {
			p.pool.Close()
		}
	})
	return nil
}
