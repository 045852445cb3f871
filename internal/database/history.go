// Package database persists emitted signals to Postgres for later
// inspection. The analyzer works fully without it; history is an
// optional sink, and insert failures are logged by the caller, never
// fatal.
package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"bybit-analyzer-bot/internal/evaluator"
)

const signalHistorySchema = `
CREATE TABLE IF NOT EXISTS signal_history (
	id          BIGSERIAL PRIMARY KEY,
	symbol      TEXT NOT NULL,
	direction   TEXT NOT NULL,
	probability INT NOT NULL,
	score       DOUBLE PRECISION NOT NULL,
	reasons     TEXT[] NOT NULL DEFAULT '{}',
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_signal_history_symbol ON signal_history (symbol, created_at);
`

// History is a pgx-backed store of emitted signals.
type History struct {
	pool *pgxpool.Pool
}

// NewHistory connects to Postgres, verifies the connection, and ensures
// the schema exists.
func NewHistory(ctx context.Context, dsn string) (*History, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	if _, err := pool.Exec(ctx, signalHistorySchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error creating signal_history schema: %w", err)
	}
	return &History{pool: pool}, nil
}

// RecordSignal inserts one emitted signal.
func (h *History) RecordSignal(ctx context.Context, res evaluator.SignalResult) error {
	_, err := h.pool.Exec(ctx,
		`INSERT INTO signal_history (symbol, direction, probability, score, reasons)
		 VALUES ($1, $2, $3, $4, $5)`,
		res.Symbol, string(res.Direction), res.Probability, res.Score, res.Reasons,
	)
	if err != nil {
		return fmt.Errorf("error inserting signal history: %w", err)
	}
	return nil
}

// Close releases the pool.
func (h *History) Close() {
	h.pool.Close()
}
