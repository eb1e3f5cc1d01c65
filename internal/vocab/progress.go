package vocab

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"

	"github.com/rs/zerolog/log"
)

// Store is the mutable set of words not yet imported. It is seeded from the
// static vocabulary on first use and shrinks on every successful import run
// until it is empty.
type Store struct {
	path    string
	entries []Entry
}

// LoadStore loads the progress store from progressPath, seeding it from the
// vocabulary file first if it does not exist yet.
func LoadStore(progressPath, vocabPath string) (*Store, error) {
	if _, err := os.Stat(progressPath); os.IsNotExist(err) {
		if err := seedStore(progressPath, vocabPath); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(progressPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse progress file %s: %w", progressPath, err)
	}

	return &Store{path: progressPath, entries: entries}, nil
}

// seedStore copies the vocabulary into a fresh progress file.
func seedStore(progressPath, vocabPath string) error {
	entries, err := LoadVocabulary(vocabPath)
	if err != nil {
		return err
	}

	s := &Store{path: progressPath, entries: entries}
	if err := s.Save(); err != nil {
		return err
	}

	log.Info().Int("words", len(entries)).Str("file", progressPath).
		Msg("initialized progress store from vocabulary")

	return nil
}

// Validate checks that every remaining entry carries an index. A missing
// index means the file predates the audio naming scheme and must be rebuilt.
func (s *Store) Validate() error {
	for _, e := range s.entries {
		if e.Index <= 0 {
			return fmt.Errorf(
				"progress store entry %q is missing its index field; delete %s and rerun to regenerate it",
				e.English, s.path)
		}
	}

	return nil
}

// Remaining returns the entries still to be imported.
func (s *Store) Remaining() []Entry {
	return s.entries
}

// Len returns the number of remaining entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// Select draws a uniformly random subset of size min(n, remaining) without
// replacement. A nil rng falls back to the global source.
func (s *Store) Select(n int, rng *rand.Rand) []Entry {
	if n > len(s.entries) {
		n = len(s.entries)
	}

	perm := make([]int, len(s.entries))
	if rng != nil {
		copy(perm, rng.Perm(len(s.entries)))
	} else {
		copy(perm, rand.Perm(len(s.entries)))
	}

	selected := make([]Entry, 0, n)
	for _, i := range perm[:n] {
		selected = append(selected, s.entries[i])
	}

	return selected
}

// Remove drops the given entries from the in-memory store. Entries are
// matched by index, which is unique within the vocabulary.
func (s *Store) Remove(consumed []Entry) {
	drop := make(map[int]bool, len(consumed))
	for _, e := range consumed {
		drop[e.Index] = true
	}

	kept := s.entries[:0]
	for _, e := range s.entries {
		if !drop[e.Index] {
			kept = append(kept, e)
		}
	}
	s.entries = kept
}

// Save rewrites the progress file wholesale. The file is kept human-readable:
// indented, with Arabic script left unescaped.
func (s *Store) Save() error {
	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create progress file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s.entries); err != nil {
		return fmt.Errorf("failed to write progress file: %w", err)
	}

	return nil
}
