package promo

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// cancelCheckInterval is how many lines are read between context checks.
const cancelCheckInterval = 100_000

// fileLoader implements Loader for code lists on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based code list loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "promo-file-loader").Logger(),
	}
}

// Load reads a gzipped code list from disk.
func (l *fileLoader) Load(ctx context.Context, path string) (CodeSet, error) {
	l.logger.Info().Str("file", path).Msg("loading promo file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open promo file")
		return nil, fmt.Errorf("failed to open promo file %s: %w", path, err)
	}
	defer file.Close()

	set, err := readCodes(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read promo file")
		return nil, fmt.Errorf("failed to read promo file %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("codes_loaded", set.Size()).
		Msg("promo file loaded")

	return set, nil
}

// readCodes decompresses r and collects one code per non-blank line.
func readCodes(ctx context.Context, r io.Reader) (CodeSet, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gz.Close()

	set := newCodeSet(1024)

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lines := 0
	for scanner.Scan() {
		if lines%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		lines++

		if code := strings.TrimSpace(scanner.Text()); code != "" {
			set.Add(code)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return set, nil
}

// WriteFile writes codes as a gzipped code list, one per line.
func WriteFile(path string, codes []string) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create promo file %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close promo file %s: %w", path, cerr)
		}
	}()

	gz := gzip.NewWriter(file)
	for _, code := range codes {
		if _, err = io.WriteString(gz, code+"\n"); err != nil {
			return fmt.Errorf("failed to write promo file %s: %w", path, err)
		}
	}

	if err = gz.Close(); err != nil {
		return fmt.Errorf("failed to flush promo file %s: %w", path, err)
	}

	return nil
}
