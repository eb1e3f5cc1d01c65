package anki

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/rs/zerolog/log"
)

// ModelName identifies the bidirectional Arabic note type. Bump the suffix
// when the field layout changes, Anki note types are append-only in practice.
const ModelName = "Arabic-Bidirectional-v2"

// ModelFields is the note type field layout, in order.
var ModelFields = []string{"English", "Arabic", "Pronunciation", "Audio"}

// Templates renders one note into two cards: an English prompt and an Arabic
// listening prompt.
var Templates = []CardTemplate{
	{
		Name:  "English → Arabic",
		Front: `<div class="english">{{English}}</div>`,
		Back:  `{{FrontSide}}<hr id="answer"><div class="arabic">{{Arabic}}</div><div class="pronunciation">{{Pronunciation}}</div><div class="audio">{{Audio}}</div>`,
	},
	{
		Name:  "Arabic → English",
		Front: `<div class="arabic">{{Arabic}}</div><div class="audio">{{Audio}}</div>`,
		Back:  `{{FrontSide}}<hr id="answer"><div class="english">{{English}}</div><div class="pronunciation">{{Pronunciation}}</div>`,
	},
}

// LoadStylesheet reads the card CSS. The stylesheet is deliberately kept
// outside the binary so it can be tweaked without a rebuild; a missing file
// is a configuration error.
func LoadStylesheet(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("stylesheet not found: %s: %w", path, err)
	}

	return string(data), nil
}

// EnsureDeck creates the deck if it does not exist. Idempotent.
func EnsureDeck(ctx context.Context, c Connector, name string) error {
	decks, err := c.DeckNames(ctx)
	if err != nil {
		return err
	}

	if slices.Contains(decks, name) {
		return nil
	}

	if err := c.CreateDeck(ctx, name); err != nil {
		return err
	}
	log.Info().Str("deck", name).Msg("created deck")

	return nil
}

// EnsureModel creates the bidirectional note type if it does not exist.
// Idempotent.
func EnsureModel(ctx context.Context, c Connector, css string) error {
	models, err := c.ModelNames(ctx)
	if err != nil {
		return err
	}

	if slices.Contains(models, ModelName) {
		return nil
	}

	if err := c.CreateModel(ctx, ModelName, ModelFields, css, Templates); err != nil {
		return err
	}
	log.Info().Str("model", ModelName).Msg("created note type")

	return nil
}
