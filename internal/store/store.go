// Package store holds the published snapshot of listings in sqlite or postgres.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"internlee-engine/internal/config"
	"internlee-engine/internal/domain"
)

var ErrInvalidTable = errors.New("invalid table name")

// DefaultListLimit is used when List is called with a non-positive limit.
const DefaultListLimit = 500

var tableRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// columns in insert and select order.
var columns = []string{
	"company",
	"title",
	"redirect_link",
	"qualifications",
	"location",
	"duration",
	"based_job",
	"experience",
	"stipend",
}

// Listings is the snapshot table.
type Listings interface {
	DeleteAll(ctx context.Context) error
	// InsertBatch writes batch in one statement inside a transaction.
	InsertBatch(ctx context.Context, batch []domain.Listing) error
	// List returns up to limit listings in insertion order.
	List(ctx context.Context, limit int) ([]domain.Listing, error)
	Close() error
}

// Connect opens the store named by cfg.Store and makes sure its table exists.
func Connect(ctx context.Context, cfg config.Config) (Listings, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.DSN
		if path != MemoryPath && !filepath.IsAbs(path) {
			path = filepath.Join(cfg.App.DataDir, path)
		}
		db, err := Open(ctx, path)
		if err != nil {
			return nil, err
		}
		s, err := NewSQLite(ctx, db, cfg.Store.Table)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		return OpenPostgres(ctx, cfg.Store.DSN, cfg.Store.Password, cfg.Store.Table)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func checkTable(table string) error {
	if !tableRe.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return nil
}

// insertQuery builds a multi-row INSERT for rows listings. placeholder
// renders the n-th (1-based) bind parameter for column col.
func insertQuery(table string, rows int, placeholder func(n int, col string) string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", table, strings.Join(columns, ", "))

	n := 0
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c, col := range columns {
			if c > 0 {
				b.WriteString(", ")
			}
			n++
			b.WriteString(placeholder(n, col))
		}
		b.WriteByte(')')
	}
	return b.String()
}

func insertArgs(batch []domain.Listing) ([]any, error) {
	args := make([]any, 0, len(batch)*len(columns))
	for _, l := range batch {
		quals := l.Qualifications
		if quals == nil {
			quals = []string{}
		}
		qj, err := json.Marshal(quals)
		if err != nil {
			return nil, fmt.Errorf("encode qualifications: %w", err)
		}
		args = append(args,
			l.Company,
			l.Title,
			l.RedirectLink,
			string(qj),
			l.Location,
			l.Duration,
			l.BasedJob,
			l.Experience,
			l.Stipend,
		)
	}
	return args, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (domain.Listing, error) {
	var (
		l     domain.Listing
		quals string
	)
	if err := row.Scan(
		&l.Company,
		&l.Title,
		&l.RedirectLink,
		&quals,
		&l.Location,
		&l.Duration,
		&l.BasedJob,
		&l.Experience,
		&l.Stipend,
	); err != nil {
		return domain.Listing{}, err
	}
	l.Qualifications = []string{}
	if err := json.Unmarshal([]byte(quals), &l.Qualifications); err != nil {
		return domain.Listing{}, fmt.Errorf("decode qualifications: %w", err)
	}
	return l, nil
}

func listLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
