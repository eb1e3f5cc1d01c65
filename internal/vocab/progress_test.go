package vocab

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadStoreSeedsFromVocabulary(t *testing.T) {
	dir := t.TempDir()
	vocabPath := writeVocabFile(t, dir)
	progressPath := filepath.Join(dir, "remaining_words.json")

	store, err := LoadStore(progressPath, vocabPath)
	require.NoError(t, err)

	vocabulary, err := LoadVocabulary(vocabPath)
	require.NoError(t, err)
	assert.Equal(t, vocabulary, store.Remaining(), "seeded store must match the vocabulary, same order")

	require.FileExists(t, progressPath)
}

func TestLoadStoreDoesNotReseedExistingFile(t *testing.T) {
	dir := t.TempDir()
	vocabPath := writeVocabFile(t, dir)
	progressPath := filepath.Join(dir, "remaining_words.json")

	partial := `[{"index": 2, "english": "thank you", "arabic": "شكرا", "pronunciation": "shukran"}]`
	require.NoError(t, os.WriteFile(progressPath, []byte(partial), 0644))

	store, err := LoadStore(progressPath, vocabPath)
	require.NoError(t, err)
	require.Equal(t, 1, store.Len())
	assert.Equal(t, 2, store.Remaining()[0].Index)
}

func TestValidateRejectsMissingIndex(t *testing.T) {
	dir := t.TempDir()
	vocabPath := writeVocabFile(t, dir)
	progressPath := filepath.Join(dir, "remaining_words.json")

	stale := `[{"english": "hello", "arabic": "مرحبا", "pronunciation": "marhaba"}]`
	require.NoError(t, os.WriteFile(progressPath, []byte(stale), 0644))

	store, err := LoadStore(progressPath, vocabPath)
	require.NoError(t, err)

	err = store.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delete")

	// The broken file must be left untouched for inspection.
	data, err := os.ReadFile(progressPath)
	require.NoError(t, err)
	assert.JSONEq(t, stale, string(data))
}

func TestSelectBatchSize(t *testing.T) {
	dir := t.TempDir()
	store, err := LoadStore(filepath.Join(dir, "p.json"), writeVocabFile(t, dir))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name string
		n    int
		want int
	}{
		{"fewer than remaining", 2, 2},
		{"exactly remaining", 3, 3},
		{"more than remaining", 10, 3},
		{"zero", 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			selected := store.Select(tt.n, rng)
			require.Len(t, selected, tt.want)

			// Without replacement: all selected entries are distinct.
			seen := map[int]bool{}
			for _, e := range selected {
				assert.False(t, seen[e.Index], "entry selected twice")
				seen[e.Index] = true
			}
		})
	}
}

func TestRemoveAndSave(t *testing.T) {
	dir := t.TempDir()
	progressPath := filepath.Join(dir, "p.json")
	store, err := LoadStore(progressPath, writeVocabFile(t, dir))
	require.NoError(t, err)

	store.Remove([]Entry{{Index: 1}, {Index: 3}})
	require.Equal(t, 1, store.Len())
	require.NoError(t, store.Save())

	reloaded, err := LoadStore(progressPath, "unused")
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Len())
	assert.Equal(t, "thank you", reloaded.Remaining()[0].English)
}

func TestSaveKeepsArabicReadable(t *testing.T) {
	dir := t.TempDir()
	progressPath := filepath.Join(dir, "p.json")
	store, err := LoadStore(progressPath, writeVocabFile(t, dir))
	require.NoError(t, err)
	require.NoError(t, store.Save())

	data, err := os.ReadFile(progressPath)
	require.NoError(t, err)

	content := string(data)
	assert.Contains(t, content, "مرحبا", "Arabic script must not be escaped")
	assert.NotContains(t, content, `\u`, "no unicode escapes")
	assert.True(t, strings.Contains(content, "\n  "), "file must be indented")
}

func TestSaveEmptyStore(t *testing.T) {
	dir := t.TempDir()
	progressPath := filepath.Join(dir, "p.json")
	store, err := LoadStore(progressPath, writeVocabFile(t, dir))
	require.NoError(t, err)

	store.Remove(store.Remaining())
	require.Equal(t, 0, store.Len())
	require.NoError(t, store.Save())

	reloaded, err := LoadStore(progressPath, "unused")
	require.NoError(t, err)
	assert.Equal(t, 0, reloaded.Len())
}
