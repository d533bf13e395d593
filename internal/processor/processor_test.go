package processor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/snonux/hanzicards/internal/cli"
	"codeberg.org/snonux/hanzicards/internal/enrich"
	"codeberg.org/snonux/hanzicards/internal/library"
	"codeberg.org/snonux/hanzicards/internal/store"
	"codeberg.org/snonux/hanzicards/internal/testutil"
	"codeberg.org/snonux/hanzicards/internal/wordsync"
)

type fixture struct {
	p      *Processor
	flags  *cli.Flags
	mock   *testutil.MockEnricher
	dir    string
	out    *bytes.Buffer
	errOut *bytes.Buffer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	viper.Set("store.backend", "file")
	viper.Set("store.path", filepath.Join(dir, "state"))

	flags := cli.NewFlags()
	p, err := NewProcessor(flags)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	f := &fixture{
		p:      p,
		flags:  flags,
		mock:   &testutil.MockEnricher{},
		dir:    dir,
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
	}
	p.out = f.out
	p.errOut = f.errOut
	p.in = strings.NewReader("")
	p.newEnricher = func(context.Context) (enrich.Enricher, error) { return f.mock, nil }
	p.intn = func(int) int { return 0 }
	return f
}

// reopen loads the persisted collection into a fresh library.
func (f *fixture) reopen(t *testing.T) *library.Library {
	t.Helper()
	config, err := StoreConfig()
	require.NoError(t, err)
	s, err := store.Open(config)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return library.Open(s, "", nil)
}

func TestSync_WordList(t *testing.T) {
	f := newFixture(t)
	list := testutil.CreateWordList(t, f.dir, "words.txt", "你好", "世界", "# comment", "学习 = study")
	viper.Set("source.words", list)

	require.NoError(t, f.p.Sync(context.Background()))
	assert.Equal(t, 3, f.p.library.Len())
	assert.Contains(t, f.out.String(), "Found 3 new words")
	assert.Contains(t, f.out.String(), "Sync Summary")
	assert.Equal(t, 1, f.mock.ChunkCallCount())

	f.out.Reset()
	require.NoError(t, f.p.Sync(context.Background()))
	assert.Contains(t, f.out.String(), wordsync.StatusUpToDate)
	assert.Equal(t, 1, f.mock.ChunkCallCount(), "an unchanged list must not call the service")

	assert.Equal(t, 3, f.reopen(t).Len())
}

func TestSync_NoSource(t *testing.T) {
	f := newFixture(t)
	err := f.p.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to sync")
}

func TestSync_MissingWordList(t *testing.T) {
	f := newFixture(t)
	viper.Set("source.words", filepath.Join(f.dir, "missing.txt"))

	require.NoError(t, f.p.Sync(context.Background()))
	assert.Contains(t, f.out.String(), "No word list")
	assert.Zero(t, f.p.library.Len())
}

func TestSync_ChunkFailureReported(t *testing.T) {
	f := newFixture(t)
	f.mock.ChunkErrors = map[int]error{0: enrich.ErrNetwork}
	gen := &testutil.TestDataGenerator{}
	viper.Set("source.words", testutil.CreateWordList(t, f.dir, "words.txt", gen.Terms(25)...))

	require.NoError(t, f.p.Sync(context.Background()))
	assert.Equal(t, 5, f.p.library.Len())
	assert.Contains(t, f.out.String(), "Failed: 20")
	assert.Contains(t, f.errOut.String(), "Warning: chunk 1 failed")
}

func TestSync_Snapshot(t *testing.T) {
	f := newFixture(t)
	gen := &testutil.TestDataGenerator{}
	data, err := store.Encode(gen.Words(4))
	require.NoError(t, err)
	snapshot := filepath.Join(f.dir, "snapshot.json")
	testutil.CreateTestFile(t, snapshot, data)
	viper.Set("source.snapshot", snapshot)

	require.NoError(t, f.p.Sync(context.Background()))
	assert.Equal(t, 4, f.p.library.Len())
	assert.Empty(t, f.mock.Calls)
}

func TestSync_WatchNeedsLocalList(t *testing.T) {
	f := newFixture(t)
	f.flags.Watch = true
	viper.Set("source.snapshot", filepath.Join(f.dir, "none.json"))

	err := f.p.Sync(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch")
}

func TestAdd(t *testing.T) {
	f := newFixture(t)
	f.flags.Pinyin = "nǐ hǎo"
	f.flags.Meaning = "hello"

	require.NoError(t, f.p.Add(context.Background(), " 你好 "))
	assert.Contains(t, f.out.String(), "Added 你好 (nǐ hǎo): hello")
	assert.Empty(t, f.mock.Calls)

	err := f.p.Add(context.Background(), "你好")
	assert.ErrorIs(t, err, library.ErrDuplicate)

	f.flags.Meaning = ""
	err = f.p.Add(context.Background(), "世界")
	assert.ErrorIs(t, err, library.ErrInvalidWord)
}

func TestAdd_Fill(t *testing.T) {
	f := newFixture(t)
	f.flags.Fill = true
	f.flags.Meaning = "my own meaning"

	require.NoError(t, f.p.Add(context.Background(), "学习"))
	word, ok := f.p.library.Find("学习")
	require.True(t, ok)
	assert.Equal(t, "my own meaning", word.Meaning)
	assert.Equal(t, testutil.MockDetails("学习").Pinyin, word.Pinyin)
	assert.Equal(t, []string{"Enrich: 学习"}, f.mock.Calls)
}

func TestAdd_FillFailure(t *testing.T) {
	f := newFixture(t)
	f.flags.Fill = true
	f.mock.TermErrors = map[string]error{"学习": enrich.ErrNetwork}

	err := f.p.Add(context.Background(), "学习")
	assert.ErrorIs(t, err, enrich.ErrNetwork)
	assert.Contains(t, f.errOut.String(), "Retry")
	assert.Zero(t, f.p.library.Len())

	f.errOut.Reset()
	f.flags.Meaning = "to study"
	require.NoError(t, f.p.Add(context.Background(), "学习"))
	assert.Contains(t, f.errOut.String(), "Warning")
	assert.Equal(t, 1, f.p.library.Len())
}

func TestAdd_FillSkipsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.flags.Meaning = "hello"
	require.NoError(t, f.p.Add(context.Background(), "你好"))

	f.flags.Fill = true
	err := f.p.Add(context.Background(), "你好")
	assert.ErrorIs(t, err, library.ErrDuplicate)
	assert.Empty(t, f.mock.Calls)
}

func TestImport_Stdin(t *testing.T) {
	f := newFixture(t)
	f.flags.Meaning = "hello"
	require.NoError(t, f.p.Add(context.Background(), "你好"))

	f.p.in = strings.NewReader("你好\n世界\n学习\n朋友\n")
	f.flags.Exclude = "2"

	require.NoError(t, f.p.Import(context.Background(), "-"))
	out := f.out.String()
	assert.Contains(t, out, "Skipping 1 words")
	assert.Contains(t, out, "1.  世界")
	assert.Contains(t, out, "Added 2 words. Collection: 3 words.")

	_, excluded := f.p.library.Find("学习")
	assert.False(t, excluded)
	_, kept := f.p.library.Find("朋友")
	assert.True(t, kept)
}

func TestImport_DryRun(t *testing.T) {
	f := newFixture(t)
	f.flags.DryRun = true
	path := testutil.CreateWordList(t, f.dir, "import.txt", "老师", "学生")

	require.NoError(t, f.p.Import(context.Background(), path))
	assert.Contains(t, f.out.String(), "Dry run: 2 words not saved.")
	assert.Zero(t, f.p.library.Len())
	assert.Zero(t, f.reopen(t).Len())
}

func TestImport_InvalidExclude(t *testing.T) {
	f := newFixture(t)
	f.flags.Exclude = "3"
	f.p.in = strings.NewReader("老师\n学生\n")

	err := f.p.Import(context.Background(), "-")
	require.Error(t, err)
	assert.Zero(t, f.p.library.Len())
}

func TestImport_NothingNew(t *testing.T) {
	f := newFixture(t)
	f.p.in = strings.NewReader("# only a comment\n")

	require.NoError(t, f.p.Import(context.Background(), "-"))
	assert.Contains(t, f.out.String(), "Nothing new")
	assert.Empty(t, f.mock.Calls)
}

func TestParseExclude(t *testing.T) {
	tests := []struct {
		name    string
		ranges  string
		rows    int
		want    []int
		wantErr bool
	}{
		{name: "empty", ranges: "", rows: 3, want: nil},
		{name: "single", ranges: "2", rows: 3, want: []int{2}},
		{name: "list and range", ranges: "1, 3,5-7", rows: 8, want: []int{1, 3, 5, 6, 7}},
		{name: "trailing comma", ranges: "1,", rows: 1, want: []int{1}},
		{name: "zero", ranges: "0", rows: 3, wantErr: true},
		{name: "past end", ranges: "2-4", rows: 3, wantErr: true},
		{name: "reversed", ranges: "3-1", rows: 3, wantErr: true},
		{name: "not a number", ranges: "a", rows: 3, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExclude(tt.ranges, tt.rows)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, len(tt.want))
			for _, row := range tt.want {
				assert.True(t, got[row], "row %d", row)
			}
		})
	}
}

func TestListAndRemove(t *testing.T) {
	f := newFixture(t)
	f.flags.Meaning = "hello"
	require.NoError(t, f.p.Add(context.Background(), "你好"))

	f.out.Reset()
	f.flags.Format = "json"
	require.NoError(t, f.p.List())
	assert.Contains(t, f.out.String(), `"character": "你好"`)

	f.out.Reset()
	require.NoError(t, f.p.Remove("你好"))
	assert.Contains(t, f.out.String(), "Removed 你好")
	assert.ErrorIs(t, f.p.Remove("你好"), library.ErrNotFound)
	assert.Zero(t, f.reopen(t).Len())
}

func TestReview(t *testing.T) {
	f := newFixture(t)
	f.flags.Pinyin = "nǐ hǎo"
	f.flags.Meaning = "hello"
	require.NoError(t, f.p.Add(context.Background(), "你好"))

	f.out.Reset()
	f.p.in = strings.NewReader("f\nq\n")
	require.NoError(t, f.p.Review())
	assert.Contains(t, f.out.String(), "[1/1]")
	assert.Contains(t, f.out.String(), "nǐ hǎo")
}

func TestExport(t *testing.T) {
	f := newFixture(t)
	f.flags.Meaning = "hello"
	require.NoError(t, f.p.Add(context.Background(), "你好"))

	f.flags.CSV = true
	f.flags.Output = filepath.Join(f.dir, "deck.csv")
	require.NoError(t, f.p.Export())
	testutil.AssertFileContains(t, f.flags.Output, "你好")
	assert.Contains(t, f.out.String(), "Cards: 1 (0 with example sentences)")

	f.flags.CSV = false
	f.flags.Output = filepath.Join(f.dir, "deck.apkg")
	require.NoError(t, f.p.Export())
	testutil.AssertFileExists(t, f.flags.Output)
}

func TestExport_DefaultName(t *testing.T) {
	f := newFixture(t)
	t.Chdir(f.dir)
	f.flags.Meaning = "hello"
	require.NoError(t, f.p.Add(context.Background(), "你好"))

	f.flags.CSV = true
	f.flags.DeckName = "HSK 1"
	require.NoError(t, f.p.Export())
	testutil.AssertFileExists(t, filepath.Join(f.dir, "HSK_1.csv"))
}

func TestExport_Empty(t *testing.T) {
	f := newFixture(t)
	assert.Error(t, f.p.Export())
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	viper.Set("enrich.provider", "openai")

	require.NoError(t, f.p.Status())

	var report statusReport
	require.NoError(t, json.Unmarshal(f.out.Bytes(), &report))
	assert.Equal(t, "openai", report.Provider)
	assert.Equal(t, "file", report.Store.Backend)
	assert.Equal(t, store.DefaultKey+".json", filepath.Base(report.Store.Snapshot))
	assert.Contains(t, report.Components, "library")
}

func TestArchive(t *testing.T) {
	f := newFixture(t)
	f.flags.Meaning = "hello"
	require.NoError(t, f.p.Add(context.Background(), "你好"))

	config, err := StoreConfig()
	require.NoError(t, err)
	snapshot := SnapshotPath(config, "")
	testutil.AssertFileExists(t, snapshot)

	var out bytes.Buffer
	require.NoError(t, Archive(&out))
	assert.Contains(t, out.String(), "Collection archived to:")
	testutil.AssertFileNotExists(t, snapshot)
	assert.Zero(t, f.reopen(t).Len())
}

func TestStoreConfig(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		path    string
		want    string
		wantErr bool
	}{
		{name: "file default", backend: "", want: cli.DefaultStateDir()},
		{name: "sqlite default", backend: "sqlite", want: filepath.Join(cli.DefaultStateDir(), "hanzicards.db")},
		{name: "explicit path", backend: "file", path: "/tmp/words", want: "/tmp/words"},
		{name: "unknown", backend: "redis", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			viper.Set("store.backend", tt.backend)
			viper.Set("store.path", tt.path)

			config, err := StoreConfig()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, config.Path)
		})
	}
}

func TestNewProcessor_SQLite(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	viper.Set("store.backend", "sqlite")
	viper.Set("store.path", filepath.Join(t.TempDir(), "words.db"))

	p, err := NewProcessor(cli.NewFlags())
	require.NoError(t, err)
	defer p.Close()

	p.out = &bytes.Buffer{}
	p.flags.Meaning = "hello"
	require.NoError(t, p.Add(context.Background(), "你好"))
	assert.Equal(t, 1, p.library.Len())
}

func TestEnrichConfig(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	viper.Set("enrich.provider", "openai")
	viper.Set("enrich.breaker_failures", -3)

	config := EnrichConfig(nil)
	assert.Equal(t, "openai", config.Provider)
	assert.Equal(t, "sk-test", config.OpenAIKey)
	assert.Zero(t, config.BreakerFailures)
}

func TestGetEnricher_Error(t *testing.T) {
	f := newFixture(t)
	f.p.newEnricher = func(context.Context) (enrich.Enricher, error) {
		return nil, errors.New("no key")
	}
	f.p.in = strings.NewReader("老师\n")

	err := f.p.Import(context.Background(), "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create enrichment provider")
	_, statErr := os.Stat(filepath.Join(f.dir, "state", store.DefaultKey+".json"))
	assert.True(t, os.IsNotExist(statErr))
}
