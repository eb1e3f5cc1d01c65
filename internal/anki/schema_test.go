package anki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDeckCreatesOnlyWhenAbsent(t *testing.T) {
	client := newFakeConnector()

	require.NoError(t, EnsureDeck(context.Background(), client, "Arabic"))
	require.NoError(t, EnsureDeck(context.Background(), client, "Arabic"))

	assert.Equal(t, []string{"Arabic"}, client.createdDecks, "second run must be a no-op")
}

func TestEnsureDeckExistingDeckUntouched(t *testing.T) {
	client := newFakeConnector()
	client.decks = []string{"Default", "Arabic"}

	require.NoError(t, EnsureDeck(context.Background(), client, "Arabic"))
	assert.Empty(t, client.createdDecks)
}

func TestEnsureModelCreatesOnlyWhenAbsent(t *testing.T) {
	client := newFakeConnector()

	require.NoError(t, EnsureModel(context.Background(), client, ".card {}"))
	require.NoError(t, EnsureModel(context.Background(), client, ".card {}"))

	assert.Equal(t, []string{ModelName}, client.createdModels)
}

func TestModelShape(t *testing.T) {
	assert.Equal(t, []string{"English", "Arabic", "Pronunciation", "Audio"}, ModelFields)
	require.Len(t, Templates, 2)

	forward, reverse := Templates[0], Templates[1]
	assert.Contains(t, forward.Front, "{{English}}")
	assert.NotContains(t, forward.Front, "{{Arabic}}", "forward prompt shows English only")
	assert.Contains(t, forward.Back, "{{Pronunciation}}")
	assert.Contains(t, forward.Back, "{{Audio}}")

	assert.Contains(t, reverse.Front, "{{Arabic}}")
	assert.Contains(t, reverse.Front, "{{Audio}}", "reverse prompt plays the clip")
	assert.Contains(t, reverse.Back, "{{English}}")
}

func TestLoadStylesheetMissingFile(t *testing.T) {
	_, err := LoadStylesheet("/nonexistent/style.css")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stylesheet not found")
}
