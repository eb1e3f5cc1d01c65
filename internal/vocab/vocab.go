// Package vocab holds the static Levantine vocabulary list and the mutable
// "remaining words" progress store that tracks which entries still have to be
// imported into Anki.
package vocab

import (
	"encoding/json"
	"fmt"
	"os"
)

// Entry is a single vocabulary word. Index is the 1-based position in the
// static vocabulary file and is the stable key linking the entry to its
// pre-generated audio clip.
type Entry struct {
	Index         int    `json:"index"`
	English       string `json:"english"`
	Arabic        string `json:"arabic"`
	Pronunciation string `json:"pronunciation"`
}

// AssetFileName returns the audio file name for a vocabulary index,
// e.g. index 7 -> "007.mp3".
func AssetFileName(index int) string {
	return fmt.Sprintf("%03d.mp3", index)
}

// LoadVocabulary reads the static vocabulary list. The list is ordered and
// never modified by any job.
func LoadVocabulary(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary file %s: %w", path, err)
	}

	return entries, nil
}
