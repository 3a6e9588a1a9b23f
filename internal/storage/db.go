// Package storage persists sessions, overrides, raw swim samples and plans
// in PostgreSQL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a pgxpool.Pool and provides repository methods.
type DB struct {
	Pool *pgxpool.Pool
	log  *slog.Logger
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string, log *slog.Logger) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool, log: log}, nil
}

// Close closes the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// batchInsert builds one multi-row INSERT per chunk of rows. prefix is the
// statement up to VALUES; suffix follows the value list. Chunks keep the
// parameter count below PostgreSQL's 65535 limit.
func (db *DB) batchInsert(ctx context.Context, prefix, suffix string, width, n int, row func(i int) []any) (int64, error) {
	if n == 0 {
		return 0, nil
	}
	batchSize := 60000 / width

	var total int64
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)

		args := make([]any, 0, (end-start)*width)
		for i := start; i < end; i++ {
			args = append(args, row(i)...)
		}

		query := prefix + " VALUES " + valuesList(width, end-start) + " " + suffix
		tag, err := db.Pool.Exec(ctx, query, args...)
		if err != nil {
			return total, err
		}
		total += tag.RowsAffected()
	}
	return total, nil
}

// valuesList returns n parenthesized groups of width numbered placeholders:
// ($1,$2),($3,$4) for width 2 and n 2.
func valuesList(width, n int) string {
	groups := make([]string, n)
	placeholders := make([]string, width)
	for i := range groups {
		for j := range placeholders {
			placeholders[j] = fmt.Sprintf("$%d", i*width+j+1)
		}
		groups[i] = "(" + strings.Join(placeholders, ",") + ")"
	}
	return strings.Join(groups, ",")
}
