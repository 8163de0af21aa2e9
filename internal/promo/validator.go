package promo

import (
	"context"
	"fmt"
	"unicode/utf8"

	"keebstore/internal/config"
	"keebstore/internal/model"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Rules are the acceptance rules for a promo code.
type Rules struct {
	// Files are the code lists to load, in order.
	Files []string

	// MinMatches is how many lists a code must appear in.
	MinMatches int

	// MinLength and MaxLength bound the code length in characters.
	MinLength int
	MaxLength int
}

// DefaultRules returns the reference rules: 8 to 10 characters, present in
// at least 2 of 3 lists.
func DefaultRules() Rules {
	return Rules{
		Files:      []string{"promocodes1.gz", "promocodes2.gz", "promocodes3.gz"},
		MinMatches: 2,
		MinLength:  8,
		MaxLength:  10,
	}
}

// validator implements Validator over code sets loaded at start-up.
// The sets are read-only once loaded.
type validator struct {
	sets   []CodeSet
	rules  Rules
	logger zerolog.Logger
}

// NewValidator loads every file in rules concurrently and returns a
// validator over them. Any load failure fails the whole call.
func NewValidator(ctx context.Context, rules Rules, loader Loader, logger zerolog.Logger) (Validator, error) {
	logger = logger.With().Str("component", "promo-validator").Logger()

	logger.Info().
		Int("file_count", len(rules.Files)).
		Int("min_matches", rules.MinMatches).
		Msg("initialising promo validator")

	sets := make([]CodeSet, len(rules.Files))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range rules.Files {
		g.Go(func() error {
			set, err := loader.Load(gctx, path)
			if err != nil {
				return fmt.Errorf("failed to load promo file %s: %w", path, err)
			}
			sets[i] = set
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Msg("failed to initialise promo validator")
		return nil, err
	}

	total := 0
	for _, s := range sets {
		total += s.Size()
	}

	logger.Info().Int("total_codes", total).Msg("promo validator initialised")

	return &validator{
		sets:   sets,
		rules:  rules,
		logger: logger,
	}, nil
}

// New builds the validator described by cfg. A disabled promo feature yields
// a validator that rejects every code.
func New(ctx context.Context, cfg config.PromoConfig, s3cfg config.S3Config, logger zerolog.Logger) (Validator, error) {
	if !cfg.Enabled {
		logger.Info().Msg("promo codes disabled")
		return Disabled(), nil
	}

	var remote Loader
	if s3cfg.Enabled {
		l, err := NewS3Loader(ctx, s3cfg.Bucket, s3cfg.Region, logger)
		if err != nil {
			// local files still serve
			logger.Warn().Err(err).Msg("S3 promo loader unavailable")
		} else {
			remote = l
		}
	}

	loader := NewFallbackLoader(remote, NewFileLoader(logger), s3cfg.Prefix, logger)

	return NewValidator(ctx, Rules{
		Files:      cfg.Files,
		MinMatches: cfg.MinMatches,
		MinLength:  cfg.MinLength,
		MaxLength:  cfg.MaxLength,
	}, loader, logger)
}

// Validate checks the length first, then looks the code up in every set.
func (v *validator) Validate(ctx context.Context, code string) error {
	n := utf8.RuneCountInString(code)
	if n < v.rules.MinLength || n > v.rules.MaxLength {
		v.logger.Debug().
			Str("promo_code", code).
			Int("length", n).
			Msg("promo code length invalid")
		return model.ErrInvalidPromoCode
	}

	matches, err := v.countMatches(ctx, code)
	if err != nil {
		v.logger.Warn().Err(err).Str("promo_code", code).Msg("promo lookup interrupted")
		return fmt.Errorf("failed to validate promo code: %w", err)
	}
	if matches < v.rules.MinMatches {
		v.logger.Debug().
			Str("promo_code", code).
			Int("matches", matches).
			Msg("promo code not found in enough files")
		return model.ErrInvalidPromoCode
	}

	return nil
}

// countMatches looks code up in every set concurrently. It stops as soon as
// MinMatches is reached or can no longer be reached. A done ctx yields its
// error rather than a partial count.
func (v *validator) countMatches(ctx context.Context, code string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// buffered so abandoned workers never block
	results := make(chan bool, len(v.sets))
	done := make(chan struct{})
	defer close(done)

	for _, set := range v.sets {
		go func(s CodeSet) {
			select {
			case <-done:
				return
			default:
			}
			results <- s.Contains(code)
		}(set)
	}

	matches, checked := 0, 0
	for checked < len(v.sets) {
		select {
		case found := <-results:
			checked++
			if found {
				matches++
			}
			if matches >= v.rules.MinMatches {
				return matches, nil
			}
			if matches+len(v.sets)-checked < v.rules.MinMatches {
				return matches, nil
			}
		case <-ctx.Done():
			return matches, ctx.Err()
		}
	}

	return matches, nil
}

func (v *validator) Close() error {
	v.sets = nil
	v.logger.Info().Msg("promo validator closed")
	return nil
}

// disabled rejects every code.
type disabled struct{}

// Disabled returns a validator that rejects every code.
func Disabled() Validator { return disabled{} }

func (disabled) Validate(context.Context, string) error { return model.ErrInvalidPromoCode }
func (disabled) Close() error                           { return nil }
