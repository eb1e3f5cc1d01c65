package anki

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/qamous/levantanki/internal/notify"
	"github.com/qamous/levantanki/internal/vocab"
)

// Connector is the slice of the AnkiConnect API the importer consumes.
// *Client implements it; tests substitute fakes.
type Connector interface {
	DeckNames(ctx context.Context) ([]string, error)
	CreateDeck(ctx context.Context, name string) error
	ModelNames(ctx context.Context) ([]string, error)
	CreateModel(ctx context.Context, name string, fields []string, css string, templates []CardTemplate) error
	StoreMediaFile(ctx context.Context, filename string, data []byte) error
	AddNote(ctx context.Context, note Note) error
}

// ImporterConfig is the fixed configuration of one import run.
type ImporterConfig struct {
	Deck      string
	BatchSize int
	AudioDir  string
	Tags      []string

	// Rand drives batch selection; nil uses the global source.
	Rand *rand.Rand
}

// Report summarizes an import run.
type Report struct {
	WordsAdded   int
	CardsAdded   int
	Duplicates   int
	MissingAudio int
	Remaining    int
	Complete     bool
}

// Importer moves a random batch of remaining words into Anki and shrinks the
// progress store accordingly.
type Importer struct {
	client   Connector
	store    *vocab.Store
	notifier notify.Notifier
	cfg      ImporterConfig
}

// NewImporter creates an importer over the given store.
func NewImporter(client Connector, store *vocab.Store, notifier notify.Notifier, cfg ImporterConfig) *Importer {
	return &Importer{client: client, store: store, notifier: notifier, cfg: cfg}
}

// Run executes one import cycle: validate, select, import, commit, report.
// A duplicate rejection consumes the entry like a success; any other remote
// failure aborts the batch, committing only the entries processed before it.
func (imp *Importer) Run(ctx context.Context) (*Report, error) {
	if err := imp.store.Validate(); err != nil {
		return nil, err
	}

	if imp.store.Len() == 0 {
		log.Info().Msg("no words remaining, vocabulary complete")
		imp.notifier.Notify("Arabic Learning Complete!",
			"All vocabulary words have been added!", notify.UrgencyNormal)

		return &Report{Complete: true}, nil
	}

	selected := imp.store.Select(imp.cfg.BatchSize, imp.cfg.Rand)
	log.Info().Int("selected", len(selected)).Int("remaining", imp.store.Len()).
		Msg("randomly selected words")

	report := &Report{}
	consumed := make([]vocab.Entry, 0, len(selected))

	var runErr error
	for _, entry := range selected {
		audioField, err := imp.storeAudio(ctx, entry, report)
		if err != nil {
			runErr = err
			break
		}

		err = imp.client.AddNote(ctx, Note{
			Deck:  imp.cfg.Deck,
			Model: ModelName,
			Fields: map[string]string{
				"English":       entry.English,
				"Arabic":        entry.Arabic,
				"Pronunciation": entry.Pronunciation,
				"Audio":         audioField,
			},
			Tags: imp.cfg.Tags,
		})

		switch {
		case err == nil:
			consumed = append(consumed, entry)
			report.WordsAdded++
			report.CardsAdded += len(Templates)
			log.Info().Str("english", entry.English).Str("arabic", entry.Arabic).
				Msg("added note")

		case IsDuplicate(err):
			// Already in the collection, e.g. after an interrupted run that
			// died between AddNote and the store commit. Consume it.
			consumed = append(consumed, entry)
			report.Duplicates++
			log.Info().Str("english", entry.English).Str("arabic", entry.Arabic).
				Msg("skipped duplicate note")

		default:
			runErr = fmt.Errorf("failed to add note for %q: %w", entry.English, err)
		}

		if runErr != nil {
			break
		}
	}

	// Commit whatever was consumed before a failure, so those entries are
	// not re-imported next run.
	if len(consumed) > 0 {
		imp.store.Remove(consumed)
		if err := imp.store.Save(); err != nil {
			if runErr == nil {
				runErr = err
			} else {
				log.Error().Err(err).Msg("failed to persist progress store")
			}
		}
	}

	report.Remaining = imp.store.Len()
	report.Complete = report.Remaining == 0

	if runErr != nil {
		return report, runErr
	}

	imp.report(report)

	return report, nil
}

// storeAudio uploads the entry's audio clip into Anki's media collection and
// returns the playback element for the Audio field. A missing clip is a
// warning, the card is still created without audio; a failed upload is a
// remote failure and aborts the batch like any other.
func (imp *Importer) storeAudio(ctx context.Context, entry vocab.Entry, report *Report) (string, error) {
	filename := vocab.AssetFileName(entry.Index)
	path := filepath.Join(imp.cfg.AudioDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn().Str("file", filename).Str("arabic", entry.Arabic).
			Msg("audio file not found, card will have no audio")
		report.MissingAudio++

		return "", nil
	}

	if err := imp.client.StoreMediaFile(ctx, filename, data); err != nil {
		return "", fmt.Errorf("failed to store audio for %q: %w", entry.English, err)
	}

	// Manual playback only, no auto-play.
	return fmt.Sprintf(`<audio src="%s" controls preload="metadata"></audio>`, filename), nil
}

func (imp *Importer) report(r *Report) {
	log.Info().
		Int("words", r.WordsAdded).
		Int("cards", r.CardsAdded).
		Int("duplicates", r.Duplicates).
		Int("remaining", r.Remaining).
		Msg("import run finished")

	if r.Complete {
		imp.notifier.Notify("Arabic Learning Complete!",
			"All vocabulary words have been added!", notify.UrgencyNormal)
		return
	}

	imp.notifier.Notify("Arabic Words Added!",
		fmt.Sprintf("Added %d new words (%d cards)\n%d words remaining",
			r.WordsAdded+r.Duplicates, r.CardsAdded, r.Remaining),
		notify.UrgencyNormal)
}
