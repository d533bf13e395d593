package anki

import (
	"archive/zip"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// fieldSeparator joins note fields in the notes.flds column.
const fieldSeparator = "\x1f"

// noteFieldNames are the fields of the hanzicards note type, in the
// order Card values are written.
var noteFieldNames = []string{"Hanzi", "Pinyin", "Meaning", "Example", "ExampleMeaning"}

// APKGGenerator creates Anki package files (.apkg)
type APKGGenerator struct {
	deckName string
	deckID   int64
	modelID  int64
	cards    []Card
	now      func() time.Time
}

// NewAPKGGenerator creates a new APKG generator
func NewAPKGGenerator(deckName string) *APKGGenerator {
	ts := time.Now().UnixMilli()
	return &APKGGenerator{
		deckName: deckName,
		deckID:   ts,
		modelID:  ts + 1,
		cards:    make([]Card, 0),
		now:      time.Now,
	}
}

// AddCard adds a card to the generator
func (g *APKGGenerator) AddCard(card Card) {
	g.cards = append(g.cards, card)
}

// GenerateAPKG writes the package to outputPath. The collection database
// is built in a temp directory and zipped together with an empty media
// map, since no card carries media.
func (g *APKGGenerator) GenerateAPKG(outputPath string) error {
	tempDir, err := os.MkdirTemp("", "hanzicards_apkg_*")
	if err != nil {
		return fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "collection.anki2")
	if err := g.createDatabase(dbPath); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	if err := writeZip(outputPath, map[string]string{
		"collection.anki2": dbPath,
	}, map[string][]byte{
		"media": []byte("{}"),
	}); err != nil {
		return fmt.Errorf("failed to create zip package: %w", err)
	}
	return nil
}

// createDatabase builds the Anki collection at dbPath in one transaction.
func (g *APKGGenerator) createDatabase(dbPath string) error {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range collectionSchema {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create tables: %w", err)
		}
	}
	if err := g.insertCollection(tx); err != nil {
		return fmt.Errorf("failed to insert collection: %w", err)
	}
	if err := g.insertNotes(tx); err != nil {
		return fmt.Errorf("failed to insert notes and cards: %w", err)
	}
	return tx.Commit()
}

var collectionSchema = []string{
	`CREATE TABLE col (
		id integer PRIMARY KEY, crt integer NOT NULL, mod integer NOT NULL,
		scm integer NOT NULL, ver integer NOT NULL, dty integer NOT NULL,
		usn integer NOT NULL, ls integer NOT NULL, conf text NOT NULL,
		models text NOT NULL, decks text NOT NULL, dconf text NOT NULL,
		tags text NOT NULL)`,
	`CREATE TABLE notes (
		id integer PRIMARY KEY, guid text NOT NULL, mid integer NOT NULL,
		mod integer NOT NULL, usn integer NOT NULL, tags text NOT NULL,
		flds text NOT NULL, sfld text NOT NULL, csum integer NOT NULL,
		flags integer NOT NULL, data text NOT NULL)`,
	`CREATE TABLE cards (
		id integer PRIMARY KEY, nid integer NOT NULL, did integer NOT NULL,
		ord integer NOT NULL, mod integer NOT NULL, usn integer NOT NULL,
		type integer NOT NULL, queue integer NOT NULL, due integer NOT NULL,
		ivl integer NOT NULL, factor integer NOT NULL, reps integer NOT NULL,
		lapses integer NOT NULL, left integer NOT NULL, odue integer NOT NULL,
		odid integer NOT NULL, flags integer NOT NULL, data text NOT NULL)`,
	`CREATE TABLE revlog (
		id integer PRIMARY KEY, cid integer NOT NULL, usn integer NOT NULL,
		ease integer NOT NULL, ivl integer NOT NULL, lastIvl integer NOT NULL,
		factor integer NOT NULL, time integer NOT NULL, type integer NOT NULL)`,
	`CREATE TABLE graves (usn integer NOT NULL, oid integer NOT NULL, type integer NOT NULL)`,
	`CREATE INDEX ix_notes_usn ON notes (usn)`,
	`CREATE INDEX ix_notes_csum ON notes (csum)`,
	`CREATE INDEX ix_cards_usn ON cards (usn)`,
	`CREATE INDEX ix_cards_nid ON cards (nid)`,
	`CREATE INDEX ix_cards_sched ON cards (did, queue, due)`,
	`CREATE INDEX ix_revlog_usn ON revlog (usn)`,
	`CREATE INDEX ix_revlog_cid ON revlog (cid)`,
}

type deckConfig struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Desc             string `json:"desc"`
	Mod              int64  `json:"mod"`
	Usn              int    `json:"usn"`
	Dyn              int    `json:"dyn"`
	Conf             int    `json:"conf"`
	Collapsed        bool   `json:"collapsed"`
	BrowserCollapsed bool   `json:"browserCollapsed"`
	NewToday         [2]int `json:"newToday"`
	RevToday         [2]int `json:"revToday"`
	LrnToday         [2]int `json:"lrnToday"`
	TimeToday        [2]int `json:"timeToday"`
	ExtendNew        int    `json:"extendNew"`
	ExtendRev        int    `json:"extendRev"`
}

type noteField struct {
	Name   string   `json:"name"`
	Ord    int      `json:"ord"`
	Sticky bool     `json:"sticky"`
	RTL    bool     `json:"rtl"`
	Font   string   `json:"font"`
	Size   int      `json:"size"`
	Media  []string `json:"media"`
}

type cardTemplate struct {
	Name  string `json:"name"`
	Ord   int    `json:"ord"`
	Qfmt  string `json:"qfmt"`
	Afmt  string `json:"afmt"`
	Did   *int64 `json:"did"`
	Bqfmt string `json:"bqfmt"`
	Bafmt string `json:"bafmt"`
}

type noteType struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Type      int            `json:"type"`
	Mod       int64          `json:"mod"`
	Usn       int            `json:"usn"`
	Sortf     int            `json:"sortf"`
	Did       int64          `json:"did"`
	Req       []any          `json:"req"`
	Vers      []int          `json:"vers"`
	Tags      []string       `json:"tags"`
	Flds      []noteField    `json:"flds"`
	Tmpls     []cardTemplate `json:"tmpls"`
	CSS       string         `json:"css"`
	LatexPre  string         `json:"latexPre"`
	LatexPost string         `json:"latexPost"`
}

func (g *APKGGenerator) noteType(mod int64) noteType {
	fields := make([]noteField, 0, len(noteFieldNames))
	for i, name := range noteFieldNames {
		fields = append(fields, noteField{Name: name, Ord: i, Font: "Arial", Size: 20, Media: []string{}})
	}

	return noteType{
		ID:    g.modelID,
		Name:  "Chinese from HanziCards (Basic + Reverse)",
		Mod:   mod,
		Usn:   -1,
		Did:   g.deckID,
		Req:   []any{[]any{0, "all", []int{0}}, []any{1, "all", []int{2}}},
		Vers:  []int{},
		Tags:  []string{},
		Flds:  fields,
		Tmpls: []cardTemplate{
			{Name: "Hanzi to Meaning", Ord: 0, Qfmt: hanziFront, Afmt: hanziBack},
			{Name: "Meaning to Hanzi", Ord: 1, Qfmt: meaningFront, Afmt: meaningBack},
		},
		CSS:       cardCSS,
		LatexPre:  "\\documentclass[12pt]{article}\n\\special{papersize=3in,5in}\n\\usepackage[utf8]{inputenc}\n\\usepackage{amssymb,amsmath}\n\\pagestyle{empty}\n\\setlength{\\parindent}{0in}\n\\begin{document}",
		LatexPost: "\\end{document}",
	}
}

func (g *APKGGenerator) insertCollection(tx *sql.Tx) error {
	now := g.now().Unix()

	deck := func(id int64, name, desc string) deckConfig {
		return deckConfig{ID: id, Name: name, Desc: desc, Mod: now, Conf: 1, ExtendNew: 10, ExtendRev: 50}
	}
	decks := map[string]deckConfig{
		"1":                              deck(1, "Default", ""),
		strconv.FormatInt(g.deckID, 10): deck(g.deckID, g.deckName, "Chinese vocabulary cards created by HanziCards"),
	}
	models := map[string]noteType{
		strconv.FormatInt(g.modelID, 10): g.noteType(now),
	}
	conf := map[string]any{
		"nextPos":       1,
		"estTimes":      true,
		"activeDecks":   []int64{1},
		"sortType":      "noteFld",
		"sortBackwards": false,
		"addToCur":      true,
		"curDeck":       1,
		"newSpread":     0,
		"dueCounts":     true,
		"collapseTime":  1200,
		"timeLim":       0,
		"schedVer":      1,
		"curModel":      strconv.FormatInt(g.modelID, 10),
		"dayLearnFirst": false,
	}
	dconf := map[string]any{
		"1": map[string]any{
			"id": 1, "name": "Default", "dyn": 0, "usn": 0, "mod": now,
			"timer": 0, "maxTaken": 60, "autoplay": true, "replayq": true,
			"new": map[string]any{
				"delays": []int{1, 10}, "ints": []int{1, 4, 7}, "initialFactor": 2500,
				"perDay": 20, "order": 1, "bury": true, "separate": true,
			},
			"lapse": map[string]any{
				"delays": []int{10}, "mult": 0, "minInt": 1, "leechFails": 8, "leechAction": 0,
			},
			"rev": map[string]any{
				"perDay": 100, "ease4": 1.3, "fuzz": 0.05, "maxIvl": 36500,
				"ivlFct": 1, "bury": true, "minSpace": 1,
			},
		},
	}

	blobs := make([]string, 0, 4)
	for _, v := range []any{conf, models, decks, dconf} {
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		blobs = append(blobs, string(data))
	}

	// crt is in seconds, mod and scm in milliseconds; schema version 11
	_, err := tx.Exec(`INSERT INTO col VALUES (1, ?, ?, ?, 11, 0, 0, 0, ?, ?, ?, ?, '{}')`,
		now, now*1000, now*1000, blobs[0], blobs[1], blobs[2], blobs[3])
	return err
}

// insertNotes writes one note and two new cards (forward and reverse)
// per Card. Ids leave room for both cards after each note id.
func (g *APKGGenerator) insertNotes(tx *sql.Tx) error {
	noteStmt, err := tx.Prepare(`INSERT INTO notes VALUES (?, ?, ?, ?, -1, '', ?, ?, 0, 0, '')`)
	if err != nil {
		return err
	}
	defer noteStmt.Close()

	cardStmt, err := tx.Prepare(`INSERT INTO cards VALUES (?, ?, ?, ?, ?, -1, 0, 0, ?, 0, 0, 0, 0, 0, 0, 0, 0, '')`)
	if err != nil {
		return err
	}
	defer cardStmt.Close()

	now := g.now()
	base, mod := now.UnixMilli(), now.Unix()
	for i, card := range g.cards {
		noteID := base + int64(i*3)
		flds := strings.Join([]string{card.Hanzi, card.Pinyin, card.Meaning, card.Example, card.ExampleMeaning}, fieldSeparator)
		guid := fmt.Sprintf("hc_%d_%s", mod, card.Hanzi)

		if _, err := noteStmt.Exec(noteID, guid, g.modelID, mod, flds, card.Hanzi); err != nil {
			return fmt.Errorf("failed to insert note %s: %w", card.Hanzi, err)
		}
		for ord := 0; ord < 2; ord++ {
			cardID := noteID + int64(ord) + 1
			// due is the new-card position and must be unique
			if _, err := cardStmt.Exec(cardID, noteID, g.deckID, ord, mod, noteID+int64(ord)); err != nil {
				return fmt.Errorf("failed to insert card %s/%d: %w", card.Hanzi, ord, err)
			}
		}
	}
	return nil
}

// writeZip creates the archive at outputPath from files on disk and
// in-memory entries.
func writeZip(outputPath string, files map[string]string, entries map[string][]byte) (err error) {
	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	zw := zip.NewWriter(out)
	for name, path := range files {
		if err := copyIntoZip(zw, name, path); err != nil {
			return err
		}
	}
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
	}
	return zw.Close()
}

func copyIntoZip(zw *zip.Writer, name, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}

const hanziFront = `<div class="front">
<div class="hanzi">{{Hanzi}}</div>
</div>`

const hanziBack = `{{FrontSide}}

<hr id="answer">

<div class="back">
<div class="pinyin">{{Pinyin}}</div>
<div class="meaning">{{Meaning}}</div>
{{#Example}}
<div class="example">{{Example}}</div>
<div class="example-meaning">{{ExampleMeaning}}</div>
{{/Example}}
</div>`

const meaningFront = `<div class="front">
<div class="meaning">{{Meaning}}</div>
</div>`

const meaningBack = `{{FrontSide}}

<hr id="answer">

<div class="back">
<div class="hanzi">{{Hanzi}}</div>
<div class="pinyin">{{Pinyin}}</div>
{{#Example}}
<div class="example">{{Example}}</div>
{{/Example}}
</div>`

const cardCSS = `.card {
  font-family: Arial, sans-serif;
  font-size: 20px;
  text-align: center;
  color: #333;
  background-color: white;
}
.front, .back { padding: 20px; }
.hanzi {
  font-family: "Noto Sans SC", "PingFang SC", "Microsoft YaHei", sans-serif;
  font-size: 48px;
  color: #c0392b;
  margin: 20px 0;
}
.pinyin { font-size: 24px; color: #2c3e50; margin: 10px 0; }
.meaning { font-size: 24px; font-weight: bold; color: #2c3e50; margin: 10px 0; }
.example { font-size: 22px; margin-top: 20px; }
.example-meaning { font-size: 16px; color: #7f8c8d; font-style: italic; }
hr#answer { margin: 30px 0; border: 0; border-top: 1px solid #ecf0f1; }`
