package anki

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qamous/levantanki/internal/vocab"
)

func exportTestPackage(t *testing.T, entries []vocab.Entry, audioIndexes ...int) string {
	t.Helper()

	dir := t.TempDir()
	audioDir := filepath.Join(dir, "audio")
	require.NoError(t, os.MkdirAll(audioDir, 0755))
	for _, i := range audioIndexes {
		path := filepath.Join(audioDir, vocab.AssetFileName(i))
		require.NoError(t, os.WriteFile(path, []byte("mp3-bytes"), 0644))
	}

	exporter := NewAPKGExporter("Arabic", ".card { color: black; }", audioDir)
	for _, e := range entries {
		exporter.Add(e)
	}

	outputPath := filepath.Join(dir, "out.apkg")
	require.NoError(t, exporter.Export(outputPath))

	return outputPath
}

func readZipEntries(t *testing.T, path string) map[string][]byte {
	t.Helper()

	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer r.Close()

	contents := map[string][]byte{}
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		contents[f.Name] = data
	}

	return contents
}

func TestAPKGExport(t *testing.T) {
	entries := []vocab.Entry{
		{Index: 1, English: "hello", Arabic: "مرحبا", Pronunciation: "marhaba"},
		{Index: 2, English: "water", Arabic: "مي", Pronunciation: "mayy"},
	}

	outputPath := exportTestPackage(t, entries, 1, 2)
	contents := readZipEntries(t, outputPath)

	require.Contains(t, contents, "collection.anki2")
	require.Contains(t, contents, "media")
	require.Contains(t, contents, "0")
	require.Contains(t, contents, "1")

	var mapping map[string]string
	require.NoError(t, json.Unmarshal(contents["media"], &mapping))
	assert.ElementsMatch(t, []string{"001.mp3", "002.mp3"},
		[]string{mapping["0"], mapping["1"]})
}

func TestAPKGExportDatabase(t *testing.T) {
	entries := []vocab.Entry{
		{Index: 1, English: "hello", Arabic: "مرحبا", Pronunciation: "marhaba"},
		{Index: 2, English: "water", Arabic: "مي", Pronunciation: "mayy"},
	}

	outputPath := exportTestPackage(t, entries, 1, 2)
	contents := readZipEntries(t, outputPath)

	dbPath := filepath.Join(t.TempDir(), "collection.anki2")
	require.NoError(t, os.WriteFile(dbPath, contents["collection.anki2"], 0644))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var notes, cards int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM notes").Scan(&notes))
	require.NoError(t, db.QueryRow("SELECT count(*) FROM cards").Scan(&cards))
	assert.Equal(t, 2, notes)
	assert.Equal(t, 4, cards, "two cards per note")

	var flds string
	require.NoError(t, db.QueryRow("SELECT flds FROM notes ORDER BY id LIMIT 1").Scan(&flds))
	assert.Contains(t, flds, "hello")
	assert.Contains(t, flds, "مرحبا")
	assert.Contains(t, flds, "[sound:001.mp3]")

	var models string
	require.NoError(t, db.QueryRow("SELECT models FROM col").Scan(&models))
	assert.Contains(t, models, ModelName)
	assert.Contains(t, models, "Pronunciation")
}

func TestAPKGExportMissingAudio(t *testing.T) {
	entries := []vocab.Entry{
		{Index: 1, English: "hello", Arabic: "مرحبا", Pronunciation: "marhaba"},
	}

	// No audio files rendered at all.
	outputPath := exportTestPackage(t, entries)
	contents := readZipEntries(t, outputPath)

	var mapping map[string]string
	require.NoError(t, json.Unmarshal(contents["media"], &mapping))
	assert.Empty(t, mapping)

	dbPath := filepath.Join(t.TempDir(), "collection.anki2")
	require.NoError(t, os.WriteFile(dbPath, contents["collection.anki2"], 0644))

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var flds string
	require.NoError(t, db.QueryRow("SELECT flds FROM notes").Scan(&flds))
	assert.NotContains(t, flds, "[sound:", "note without a clip has an empty audio field")
}
