// Package ratelimit is a fixed-window request counter keyed by client identity
// and kept in SQLite, so every process sharing the database shares the limit.
package ratelimit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Decision is the outcome of one Allow call.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter allows Limit hits per Window for each key.
type Limiter struct {
	db     *sql.DB
	limit  int
	window time.Duration
}

// New creates a limiter on db. The rate_limits table must already exist.
func New(db *sql.DB, limit int, window time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Hour
	}
	return &Limiter{db: db, limit: limit, window: window}
}

// Allow records a hit for key at now and reports whether it is within limits.
// Denied hits are not counted.
func (l *Limiter) Allow(ctx context.Context, key string, now time.Time) (Decision, error) {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return Decision{}, fmt.Errorf("begin rate limit tx: %w", err)
	}
	defer tx.Rollback()

	var startMs int64
	var hits int
	err = tx.QueryRowContext(ctx,
		`SELECT window_start, hits FROM rate_limits WHERE key = ?`, key).Scan(&startMs, &hits)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		hits = 0
	case err != nil:
		return Decision{}, fmt.Errorf("read rate limit: %w", err)
	}

	start := time.UnixMilli(startMs)
	if hits == 0 || !now.Before(start.Add(l.window)) {
		start = now
		hits = 0
	}
	if hits >= l.limit {
		return Decision{Allowed: false, RetryAfter: start.Add(l.window).Sub(now)}, nil
	}
	hits++
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO rate_limits (key, window_start, hits) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET window_start = excluded.window_start, hits = excluded.hits`,
		key, start.UnixMilli(), hits); err != nil {
		return Decision{}, fmt.Errorf("write rate limit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Decision{}, fmt.Errorf("commit rate limit: %w", err)
	}
	return Decision{Allowed: true, Remaining: l.limit - hits}, nil
}

// Prune deletes windows that ended before now.
func (l *Limiter) Prune(ctx context.Context, now time.Time) (int64, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM rate_limits WHERE window_start < ?`, now.Add(-l.window).UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune rate limits: %w", err)
	}
	return res.RowsAffected()
}
