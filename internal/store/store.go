package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	appLog "jobgate-appointment-api/internal/log"
	"jobgate-appointment-api/internal/model"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrSlotFull        = errors.New("slot is fully booked")
	ErrSlotUnavailable = errors.New("slot is not available")
	ErrAlreadyBooked   = errors.New("already booked this slot")
	ErrInvalid         = errors.New("invalid value")
)

type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Connect opens a pool and pings it, giving up after ten seconds.
func Connect(ctx context.Context, url string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return pool, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate applies every *.sql file in dir that is not yet recorded in
// schema_migrations, in name order, each in its own transaction.
func (s *Store) Migrate(ctx context.Context, dir string) error {
	if _, err := s.pool.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("migrations table: %w", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		var done bool
		if err := s.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE name = $1)`, name,
		).Scan(&done); err != nil {
			return err
		}
		if done {
			continue
		}

		sql, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, name)
			return err
		})
		if err != nil {
			return fmt.Errorf("migration %s: %w", name, err)
		}
		appLog.Info("migration applied", "name", name)
	}
	return nil
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// wrap maps driver errors onto the package sentinels.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "23P01":
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, ErrConflict)
		case "23514", "22P02":
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, ErrInvalid)
		case "23503":
			return fmt.Errorf("%s: %s: %w", op, pgErr.ConstraintName, ErrNotFound)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

const microsPerMinute = int64(time.Minute / time.Microsecond)

func pgClock(c model.Clock) pgtype.Time {
	return pgtype.Time{Microseconds: int64(c) * microsPerMinute, Valid: true}
}

func fromPgClock(t pgtype.Time) model.Clock {
	return model.Clock(t.Microseconds / microsPerMinute)
}

// argList builds positional WHERE clauses.
type argList struct {
	where []string
	args  []any
}

func (a *argList) add(clause string, v any) {
	a.args = append(a.args, v)
	a.where = append(a.where, strings.ReplaceAll(clause, "?", fmt.Sprintf("$%d", len(a.args))))
}

func (a *argList) sql() string {
	if len(a.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(a.where, " AND ")
}
