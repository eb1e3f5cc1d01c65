package audio

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/qamous/levantanki/internal/vocab"
)

// Generator renders one audio clip per vocabulary entry into OutputDir,
// named by the entry's index. Entries whose clip already exists are skipped,
// so a partially failed run can simply be repeated.
type Generator struct {
	provider  Provider
	outputDir string
}

// Summary reports the outcome of a generation run.
type Summary struct {
	Generated int
	Skipped   int
	Failed    int
	Total     int
}

// NewGenerator creates a generator writing clips to outputDir.
func NewGenerator(provider Provider, outputDir string) *Generator {
	return &Generator{provider: provider, outputDir: outputDir}
}

// Run attempts every entry in vocabulary order. Per-entry synthesis failures
// are counted and logged but never abort the batch; the only fatal error is
// being unable to create the output directory.
func (g *Generator) Run(ctx context.Context, entries []vocab.Entry) (*Summary, error) {
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(entries)}

	for _, entry := range entries {
		outputFile := filepath.Join(g.outputDir, vocab.AssetFileName(entry.Index))

		if _, err := os.Stat(outputFile); err == nil {
			log.Debug().Int("index", entry.Index).Str("arabic", entry.Arabic).
				Msg("audio exists, skipping")
			summary.Skipped++
			continue
		}

		if err := g.provider.GenerateAudio(ctx, entry.Arabic, outputFile); err != nil {
			log.Error().Err(err).Int("index", entry.Index).Str("arabic", entry.Arabic).
				Msg("audio generation failed")
			summary.Failed++
			continue
		}

		log.Info().Int("index", entry.Index).Str("arabic", entry.Arabic).
			Str("file", filepath.Base(outputFile)).Msg("generated audio")
		summary.Generated++
	}

	log.Info().
		Int("generated", summary.Generated).
		Int("skipped", summary.Skipped).
		Int("failed", summary.Failed).
		Int("total", summary.Total).
		Msg("audio generation complete")

	return summary, nil
}
