package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/extra/bundebug"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a lookup by id matches no row.
var ErrNotFound = errors.New("not found")

// ErrAmbiguousID is returned when an id names rows in more than one table.
var ErrAmbiguousID = errors.New("id matches rows in several tables")

// ErrDuplicate is returned by inserts that hit a uniqueness constraint.
var ErrDuplicate = errors.New("duplicate record")

// Options configures the corpus database.
type Options struct {
	Path  string `mapstructure:"path"`
	Debug bool   `mapstructure:"debug"`
}

// Store is the corpus database. Queries are plain SQL on the modernc driver;
// the bun handle runs schema migrations and, in debug mode, logs queries.
type Store struct {
	db  *sql.DB
	bdb *bun.DB
	log *zap.Logger
}

func New(ctx context.Context, opts Options, log *zap.Logger) (*Store, error) {
	if opts.Path == "" {
		return nil, errors.New("database path is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sql.Open("sqlite", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps transactions and PRAGMAs on one handle.
	db.SetMaxOpenConns(1)

	bdb := bun.NewDB(db, sqlitedialect.New())
	if opts.Debug {
		bdb.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	s := &Store{db: db, bdb: bdb, log: log}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// TableCounts returns the row count of every corpus table.
func (s *Store) TableCounts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int, len(corpusTables))
	for _, table := range corpusTables {
		var n int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts[table] = n
	}
	return counts, nil
}

// normalizeKey trims whitespace and applies NFC for cache key comparison.
func normalizeKey(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
