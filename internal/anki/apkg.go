package anki

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	// Registers the sqlite3 driver used for the collection database.
	_ "github.com/mattn/go-sqlite3"

	"github.com/qamous/levantanki/internal/vocab"
)

// APKGExporter writes the remaining vocabulary as an Anki package file, the
// offline alternative to pushing notes through AnkiConnect. The package
// carries the same note model as the live import, so decks from either path
// merge cleanly.
type APKGExporter struct {
	deckName string
	css      string
	audioDir string

	deckID  int64
	modelID int64

	entries []vocab.Entry
	media   map[string]int
}

// NewAPKGExporter creates an exporter for the given deck and stylesheet.
func NewAPKGExporter(deckName, css, audioDir string) *APKGExporter {
	// Timestamp-derived IDs keep repeated exports from colliding in Anki.
	now := time.Now().UnixMilli()

	return &APKGExporter{
		deckName: deckName,
		css:      css,
		audioDir: audioDir,
		deckID:   now,
		modelID:  now + 1,
		media:    map[string]int{},
	}
}

// Add queues a vocabulary entry for export.
func (g *APKGExporter) Add(entry vocab.Entry) {
	g.entries = append(g.entries, entry)
}

// Export writes the .apkg file: a schema-11 SQLite collection plus numbered
// media, zipped together.
func (g *APKGExporter) Export(outputPath string) error {
	tempDir, err := os.MkdirTemp("", "levantanki_export_*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	if err := g.copyMedia(tempDir); err != nil {
		return fmt.Errorf("failed to copy media files: %w", err)
	}

	dbPath := filepath.Join(tempDir, "collection.anki2")
	if err := g.createDatabase(dbPath); err != nil {
		return fmt.Errorf("failed to create collection database: %w", err)
	}

	if err := g.writeZip(tempDir, outputPath); err != nil {
		return fmt.Errorf("failed to create package: %w", err)
	}

	log.Info().Int("notes", len(g.entries)).Str("file", outputPath).
		Msg("exported Anki package")

	return nil
}

// copyMedia copies each entry's audio clip into the package under its media
// number and records the number -> filename mapping.
func (g *APKGExporter) copyMedia(tempDir string) error {
	counter := 0
	for _, entry := range g.entries {
		filename := vocab.AssetFileName(entry.Index)
		src := filepath.Join(g.audioDir, filename)
		if _, err := os.Stat(src); err != nil {
			log.Warn().Str("file", filename).Msg("audio file missing, exporting note without audio")
			continue
		}

		if err := copyFile(src, filepath.Join(tempDir, fmt.Sprintf("%d", counter))); err != nil {
			return err
		}
		g.media[filename] = counter
		counter++
	}

	mapping := make(map[string]string, len(g.media))
	for filename, num := range g.media {
		mapping[fmt.Sprintf("%d", num)] = filename
	}

	data, err := json.Marshal(mapping)
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(tempDir, "media"), data, 0644)
}

func (g *APKGExporter) createDatabase(dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := g.createTables(db); err != nil {
		return err
	}
	if err := g.insertCollection(db); err != nil {
		return err
	}

	return g.insertNotesAndCards(db)
}

func (g *APKGExporter) createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE col (
			id integer PRIMARY KEY, crt integer NOT NULL, mod integer NOT NULL,
			scm integer NOT NULL, ver integer NOT NULL, dty integer NOT NULL,
			usn integer NOT NULL, ls integer NOT NULL, conf text NOT NULL,
			models text NOT NULL, decks text NOT NULL, dconf text NOT NULL,
			tags text NOT NULL
		)`,
		`CREATE TABLE notes (
			id integer PRIMARY KEY, guid text NOT NULL, mid integer NOT NULL,
			mod integer NOT NULL, usn integer NOT NULL, tags text NOT NULL,
			flds text NOT NULL, sfld text NOT NULL, csum integer NOT NULL,
			flags integer NOT NULL, data text NOT NULL
		)`,
		`CREATE TABLE cards (
			id integer PRIMARY KEY, nid integer NOT NULL, did integer NOT NULL,
			ord integer NOT NULL, mod integer NOT NULL, usn integer NOT NULL,
			type integer NOT NULL, queue integer NOT NULL, due integer NOT NULL,
			ivl integer NOT NULL, factor integer NOT NULL, reps integer NOT NULL,
			lapses integer NOT NULL, left integer NOT NULL, odue integer NOT NULL,
			odid integer NOT NULL, flags integer NOT NULL, data text NOT NULL
		)`,
		`CREATE TABLE revlog (
			id integer PRIMARY KEY, cid integer NOT NULL, usn integer NOT NULL,
			ease integer NOT NULL, ivl integer NOT NULL, lastIvl integer NOT NULL,
			factor integer NOT NULL, time integer NOT NULL, type integer NOT NULL
		)`,
		`CREATE TABLE graves (usn integer NOT NULL, oid integer NOT NULL, type integer NOT NULL)`,
		`CREATE INDEX ix_notes_csum ON notes (csum)`,
		`CREATE INDEX ix_notes_usn ON notes (usn)`,
		`CREATE INDEX ix_cards_usn ON cards (usn)`,
		`CREATE INDEX ix_cards_nid ON cards (nid)`,
		`CREATE INDEX ix_cards_sched ON cards (did, queue, due)`,
		`CREATE INDEX ix_revlog_usn ON revlog (usn)`,
		`CREATE INDEX ix_revlog_cid ON revlog (cid)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

func (g *APKGExporter) insertCollection(db *sql.DB) error {
	now := time.Now().Unix()

	deck := func(id int64, name string) map[string]any {
		return map[string]any{
			"id": id, "name": name, "mod": now, "desc": "",
			"collapsed": false, "dyn": 0, "conf": 1, "usn": 0,
			"newToday": []int{0, 0}, "revToday": []int{0, 0},
			"lrnToday": []int{0, 0}, "timeToday": []int{0, 0},
			"browserCollapsed": false, "extendNew": 10, "extendRev": 50,
		}
	}
	decks := map[string]any{
		"1": deck(1, "Default"),
		fmt.Sprintf("%d", g.deckID): deck(g.deckID, g.deckName),
	}
	decksJSON, _ := json.Marshal(decks)

	models := map[string]any{
		fmt.Sprintf("%d", g.modelID): g.noteTypeConfig(),
	}
	modelsJSON, _ := json.Marshal(models)

	conf := map[string]any{
		"nextPos": 1, "estTimes": true, "activeDecks": []int64{1},
		"sortType": "noteFld", "sortBackwards": false, "addToCur": true,
		"curDeck": 1, "newSpread": 0, "dueCounts": true, "collapseTime": 1200,
		"timeLim": 0, "schedVer": 1, "curModel": fmt.Sprintf("%d", g.modelID),
		"dayLearnFirst": false,
	}
	confJSON, _ := json.Marshal(conf)

	dconf := map[string]any{
		"1": map[string]any{
			"id": 1, "name": "Default", "dyn": 0,
			"new": map[string]any{
				"delays": []int{1, 10}, "ints": []int{1, 4, 7},
				"initialFactor": 2500, "perDay": 20, "order": 1,
				"bury": true, "separate": true,
			},
			"lapse": map[string]any{
				"delays": []int{10}, "mult": 0, "minInt": 1,
				"leechFails": 8, "leechAction": 0,
			},
			"rev": map[string]any{
				"perDay": 100, "ease4": 1.3, "fuzz": 0.05, "maxIvl": 36500,
				"ivlFct": 1, "bury": true, "minSpace": 1,
			},
			"timer": 0, "maxTaken": 60, "usn": 0, "mod": now,
			"autoplay": true, "replayq": true,
		},
	}
	dconfJSON, _ := json.Marshal(dconf)

	_, err := db.Exec(`INSERT INTO col VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		1, now, now*1000, now*1000, 11, 0, 0, 0,
		string(confJSON), string(modelsJSON), string(decksJSON), string(dconfJSON), "{}")

	return err
}

// noteTypeConfig mirrors the AnkiConnect model from schema.go so packages
// and live imports share one note type shape.
func (g *APKGExporter) noteTypeConfig() map[string]any {
	field := func(ord int, name string, rtl bool) map[string]any {
		return map[string]any{
			"name": name, "ord": ord, "sticky": false, "rtl": rtl,
			"font": "Arial", "size": 20, "media": []string{},
		}
	}

	tmpls := make([]map[string]any, 0, len(Templates))
	for i, t := range Templates {
		tmpls = append(tmpls, map[string]any{
			"name": t.Name, "ord": i, "qfmt": t.Front, "afmt": t.Back,
			"did": nil, "bqfmt": "", "bafmt": "",
		})
	}

	return map[string]any{
		"id": g.modelID, "name": ModelName, "type": 0,
		"mod": time.Now().Unix(), "usn": -1, "sortf": 0, "did": g.deckID,
		"req": [][]any{{0, "all", []int{0}}, {1, "all", []int{1}}},
		"vers": []int{}, "tags": []string{},
		"latexPre":  "\\documentclass[12pt]{article}\n\\begin{document}",
		"latexPost": "\\end{document}",
		"flds": []map[string]any{
			field(0, "English", false),
			field(1, "Arabic", true),
			field(2, "Pronunciation", false),
			field(3, "Audio", false),
		},
		"tmpls": tmpls,
		"css":   g.css,
	}
}

func (g *APKGExporter) insertNotesAndCards(db *sql.DB) error {
	now := time.Now()

	for i, entry := range g.entries {
		// Leave ID space for the two cards of each note.
		noteID := now.UnixMilli() + int64(i*3)

		audioField := ""
		filename := vocab.AssetFileName(entry.Index)
		if _, ok := g.media[filename]; ok {
			audioField = fmt.Sprintf("[sound:%s]", filename)
		}

		fields := strings.Join([]string{
			entry.English, entry.Arabic, entry.Pronunciation, audioField,
		}, "\x1f")

		guid := fmt.Sprintf("lv_%03d_%s", entry.Index, entry.Arabic)

		_, err := db.Exec(`INSERT INTO notes VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			noteID, guid, g.modelID, now.Unix(), -1, " arabic levantine ",
			fields, entry.English, 0, 0, "")
		if err != nil {
			return fmt.Errorf("failed to insert note: %w", err)
		}

		for ord := 0; ord < len(Templates); ord++ {
			_, err = db.Exec(`INSERT INTO cards VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				noteID+int64(ord)+1, noteID, g.deckID, ord, now.Unix(), -1,
				0, 0, noteID+int64(ord), 0, 0, 0, 0, 0, 0, 0, 0, "")
			if err != nil {
				return fmt.Errorf("failed to insert card: %w", err)
			}
		}
	}

	return nil
}

func (g *APKGExporter) writeZip(tempDir, outputPath string) error {
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	files, err := os.ReadDir(tempDir)
	if err != nil {
		return err
	}

	for _, f := range files {
		if f.IsDir() {
			continue
		}

		src, err := os.Open(filepath.Join(tempDir, f.Name()))
		if err != nil {
			return err
		}

		w, err := zw.Create(f.Name())
		if err != nil {
			src.Close()
			return err
		}

		if _, err := io.Copy(w, src); err != nil {
			src.Close()
			return err
		}
		src.Close()
	}

	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)

	return err
}
