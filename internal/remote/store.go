// Package remote is the PostgreSQL side of synchronization: two tables keyed
// by stable identifier, written with idempotent upserts and read by
// modification time. Translation between wire rows and local records happens
// only in this package.
package remote

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/sandeepkv93/daylog/internal/config"
)

const (
	TasksTable     = "todos"
	SummariesTable = "summaries"

	defaultBatchSize = 500
)

var (
	// ErrUnconfigured means no remote endpoint was provided.
	ErrUnconfigured = errors.New("remote: not configured")
	// ErrUnavailable means the client could not be constructed.
	ErrUnavailable = errors.New("remote: unavailable")
)

// Querier is the subset of pgxpool.Pool used by the store. pgxmock pools
// satisfy it in tests.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresStore struct {
	db        Querier
	pool      *pgxpool.Pool
	timeout   time.Duration
	batchSize int
	log       *logrus.Entry
}

type Option func(*PostgresStore)

func WithTimeout(d time.Duration) Option {
	return func(s *PostgresStore) { s.timeout = d }
}

func WithBatchSize(n int) Option {
	return func(s *PostgresStore) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

func WithLogger(log *logrus.Entry) Option {
	return func(s *PostgresStore) {
		if log != nil {
			s.log = log
		}
	}
}

func NewPostgresStore(db Querier, opts ...Option) *PostgresStore {
	s := &PostgresStore{
		db:        db,
		batchSize: defaultBatchSize,
		log:       logrus.NewEntry(logrus.StandardLogger()).WithField("component", "remote"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds a pooled client from cfg. The pool dials lazily, so an offline
// start still yields a usable store whose calls fail until the network
// returns.
func Open(ctx context.Context, cfg config.RemoteConfig, opts ...Option) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, ErrUnconfigured
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("%w: parse dsn: %w", ErrUnavailable, err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = 0
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("%w: create pool: %w", ErrUnavailable, err)
	}

	opts = append([]Option{WithTimeout(cfg.Timeout), WithBatchSize(cfg.BatchSize)}, opts...)
	s := NewPostgresStore(pool, opts...)
	s.pool = pool
	return s, nil
}

func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

func (s *PostgresStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

func chunks[T any](items []T, size int) [][]T {
	out := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		items, out = items[size:], append(out, items[:size])
	}
	if len(items) > 0 {
		out = append(out, items)
	}
	return out
}
