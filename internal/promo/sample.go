package promo

import (
	"fmt"
	"os"
	"path/filepath"
)

// SampleFileNames are the default code list names.
var SampleFileNames = []string{"promocodes1.gz", "promocodes2.gz", "promocodes3.gz"}

// SampleCodes are small demo lists. Under the default rules KEEBLOVER,
// THOCK2026, SWITCHUP10 and LUBEDUP88 are valid; the rest appear only once.
var SampleCodes = [][]string{
	{"KEEBLOVER", "THOCK2026", "SWITCHUP10", "SOLOCODE1"},
	{"KEEBLOVER", "THOCK2026", "LUBEDUP88", "ONLYTWO22"},
	{"THOCK2026", "SWITCHUP10", "LUBEDUP88", "ONLYTHREE3"},
}

// WriteSamples writes the sample lists into dir and returns their paths.
func WriteSamples(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	paths := make([]string, len(SampleFileNames))
	for i, name := range SampleFileNames {
		paths[i] = filepath.Join(dir, name)
		if err := WriteFile(paths[i], SampleCodes[i]); err != nil {
			return nil, err
		}
	}

	return paths, nil
}
