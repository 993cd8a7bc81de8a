package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"internlee-engine/internal/domain"
)

const schemaVersion = 1

type SQLite struct {
	db    *DB
	table string
}

// NewSQLite migrates db and returns a store over table. It takes ownership of db.
func NewSQLite(ctx context.Context, db *DB, table string) (*SQLite, error) {
	if err := checkTable(table); err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db.Pool, table); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLite{db: db, table: table}, nil
}

// Migrate creates table when missing and records the schema version.
func Migrate(ctx context.Context, db *sql.DB, table string) error {
	if err := checkTable(table); err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  company TEXT NOT NULL,
  title TEXT NOT NULL,
  redirect_link TEXT NOT NULL,
  qualifications TEXT NOT NULL DEFAULT '[]',
  location TEXT NOT NULL,
  duration TEXT NOT NULL,
  based_job TEXT NOT NULL,
  experience TEXT NOT NULL,
  stipend TEXT NOT NULL DEFAULT 'check source site',
  scraped_at TEXT NOT NULL DEFAULT (datetime('now'))
);
`, table)); err != nil {
		return err
	}

	if v < schemaVersion {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLite) DeleteAll(ctx context.Context) error {
	if _, err := s.db.Pool.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s;`, s.table)); err != nil {
		return fmt.Errorf("delete all listings: %w", err)
	}
	return nil
}

func (s *SQLite) InsertBatch(ctx context.Context, batch []domain.Listing) error {
	if len(batch) == 0 {
		return nil
	}
	args, err := insertArgs(batch)
	if err != nil {
		return err
	}
	query := insertQuery(s.table, len(batch), func(int, string) string { return "?" })

	tx, err := s.db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %d listings: %w", len(batch), err)
	}
	return tx.Commit()
}

func (s *SQLite) List(ctx context.Context, limit int) ([]domain.Listing, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM %s
ORDER BY id
LIMIT ?;
`, strings.Join(columns, ", "), s.table)

	rows, err := s.db.Pool.QueryContext(ctx, query, listLimit(limit))
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
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
