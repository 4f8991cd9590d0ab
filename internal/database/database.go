// Package database owns the process-wide PostgreSQL pool behind an explicit
// Manager so that repositories receive it by construction rather than by
// ambient lookup.
package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/singleflight"
)

var (
	// ErrConnection is returned when the store cannot be reached or the
	// manager has been shut down.
	ErrConnection = errors.New("database connection failed")

	// ErrNotInitialized is returned by Handle before Connect has completed.
	ErrNotInitialized = errors.New("database not initialized")

	// ErrClosed is returned after Close. It matches ErrConnection.
	ErrClosed = fmt.Errorf("%w: manager closed", ErrConnection)
)

// Querier is the subset of pgxpool.Pool the repositories need.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Manager holds a single pgx pool for the lifetime of the process.
type Manager struct {
	dsn        string
	attempts   int
	retryDelay time.Duration
	logger     *slog.Logger

	group singleflight.Group

	mu     sync.RWMutex
	pool   *pgxpool.Pool
	closed bool
}

// Option configures a Manager.
type Option func(*Manager)

// WithRetry sets how many times Connect tries to reach the database and how
// long it waits between attempts.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(m *Manager) {
		if attempts > 0 {
			m.attempts = attempts
		}
		m.retryDelay = delay
	}
}

// WithLogger sets the logger used for connection progress.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager returns an unconnected Manager for the given DSN.
func NewManager(dsn string, opts ...Option) *Manager {
	m := &Manager{
		dsn:        dsn,
		attempts:   5,
		retryDelay: 2 * time.Second,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect opens the pool and bootstraps the schema. Concurrent callers share
// a single attempt; calls after a successful connect return immediately.
// The shared attempt runs under the first caller's ctx, so cancelling it fails
// every caller waiting on that attempt.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.RLock()
	connected, closed := m.pool != nil, m.closed
	m.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if connected {
		return nil
	}

	_, err, _ := m.group.Do("connect", func() (any, error) {
		m.mu.RLock()
		done := m.pool != nil
		m.mu.RUnlock()
		if done {
			return nil, nil
		}

		pool, err := m.open(ctx)
		if err != nil {
			return nil, err
		}
		if err := EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("%w: %w", ErrConnection, err)
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			pool.Close()
			return nil, ErrClosed
		}
		m.pool = pool
		return nil, nil
	})
	return err
}

// open creates and validates a pgxpool connection pool.
// It retries to accommodate containers starting up.
func (m *Manager) open(ctx context.Context) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(m.dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse db config: %w", ErrConnection, err)
	}

	poolCfg.MaxConns = 20
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	for attempt := 1; attempt <= m.attempts; attempt++ {
		var pool *pgxpool.Pool
		pool, err = pgxpool.NewWithConfig(ctx, poolCfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		if attempt == m.attempts {
			break
		}
		m.logger.Warn("db connect attempt failed",
			"attempt", attempt, "max_attempts", m.attempts, "retry_in", m.retryDelay, "error", err)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %w", ErrConnection, ctx.Err())
		case <-time.After(m.retryDelay):
		}
	}
	return nil, fmt.Errorf("%w: %w", ErrConnection, err)
}

// Handle returns the active pool.
func (m *Manager) Handle() (Querier, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.pool == nil {
		return nil, ErrNotInitialized
	}
	return m.pool, nil
}

// Ping checks that the database still answers.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.RLock()
	pool, closed := m.pool, m.closed
	m.mu.RUnlock()
	switch {
	case closed:
		return ErrClosed
	case pool == nil:
		return ErrNotInitialized
	}
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnection, err)
	}
	return nil
}

// Close releases the pool. It is safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	if m.pool != nil {
		m.pool.Close()
		m.pool = nil
	}
}
