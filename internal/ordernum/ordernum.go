// Package ordernum produces human-readable, date-scoped order numbers of the
// form ORD-YYYYMMDD-NNNN.
package ordernum

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const prefix = "ORD"

// Counter hands out per-day sequence values. Next must be atomic: concurrent
// callers for the same day never observe the same value.
type Counter interface {
	Next(ctx context.Context, tx pgx.Tx, day time.Time) (int, error)
}

// Generator builds order numbers from a Counter.
type Generator struct {
	counter  Counter
	location *time.Location
	now      func() time.Time
	logger   zerolog.Logger
}

// Option customises a Generator.
type Option func(*Generator)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// NewGenerator creates a generator whose calendar day is evaluated in loc.
func NewGenerator(counter Counter, loc *time.Location, logger zerolog.Logger, opts ...Option) *Generator {
	if loc == nil {
		loc = time.UTC
	}
	g := &Generator{
		counter:  counter,
		location: loc,
		now:      time.Now,
		logger:   logger.With().Str("component", "order-number").Logger(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate reserves the next number for today within tx. The reservation is
// undone if tx rolls back.
func (g *Generator) Generate(ctx context.Context, tx pgx.Tx) (string, error) {
	now := g.now().In(g.location)
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	seq, err := g.counter.Next(ctx, tx, day)
	if err != nil {
		g.logger.Error().Err(err).Time("day", day).Msg("failed to reserve order sequence")
		return "", fmt.Errorf("failed to reserve order sequence: %w", err)
	}

	number := Format(day, seq)
	g.logger.Debug().Str("order_number", number).Msg("order number reserved")

	return number, nil
}

// Format renders a day and sequence value as an order number.
func Format(day time.Time, seq int) string {
	return fmt.Sprintf("%s-%s-%04d", prefix, day.Format("20060102"), seq)
}
