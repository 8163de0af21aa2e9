package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// sequenceRepository implements SequenceRepository with one counter row per day.
type sequenceRepository struct {
	logger zerolog.Logger
}

// NewSequenceRepository creates a new PostgreSQL-backed order number sequence.
func NewSequenceRepository(logger zerolog.Logger) SequenceRepository {
	return &sequenceRepository{
		logger: logger.With().Str("repository", "sequence").Logger(),
	}
}

// Next increments the counter for day and returns the new value. The upsert
// holds the day's row lock until tx ends, so concurrent callers are serialised
// and a rollback releases the value.
func (r *sequenceRepository) Next(ctx context.Context, tx pgx.Tx, day time.Time) (int, error) {
	query := `
		INSERT INTO order_number_sequences (day, last_value)
		VALUES ($1, 1)
		ON CONFLICT (day) DO UPDATE
		SET last_value = order_number_sequences.last_value + 1
		RETURNING last_value
	`

	var value int
	if err := tx.QueryRow(ctx, query, day).Scan(&value); err != nil {
		r.logger.Error().Err(err).Time("day", day).Msg("failed to advance order number sequence")
		return 0, fmt.Errorf("failed to advance order number sequence: %w", err)
	}

	return value, nil
}
