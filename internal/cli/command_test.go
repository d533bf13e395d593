package cli

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// recordingRunner records which subcommand ran with which arguments.
type recordingRunner struct {
	calls  []string
	closed bool
	err    error
}

func (r *recordingRunner) record(call string) error {
	r.calls = append(r.calls, call)
	return r.err
}

func (r *recordingRunner) Sync(context.Context) error { return r.record("sync") }
func (r *recordingRunner) Add(_ context.Context, c string) error { return r.record("add " + c) }
func (r *recordingRunner) Import(_ context.Context, in string) error { return r.record("import " + in) }
func (r *recordingRunner) List() error { return r.record("list") }
func (r *recordingRunner) Review() error { return r.record("review") }
func (r *recordingRunner) Remove(ref string) error { return r.record("rm " + ref) }
func (r *recordingRunner) Export() error { return r.record("export") }
func (r *recordingRunner) Status() error { return r.record("status") }
func (r *recordingRunner) Close() error {
	r.closed = true
	return nil
}

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func newTestRoot(t *testing.T) (*cobra.Command, *Flags, *recordingRunner) {
	t.Helper()
	resetViper(t)

	flags := NewFlags()
	root := CreateRootCommand(flags)
	runner := &recordingRunner{}
	AddCommands(root, flags, func() (Runner, error) { return runner, nil })
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root, flags, runner
}

func TestCreateRootCommand(t *testing.T) {
	resetViper(t)
	flags := NewFlags()
	cmd := CreateRootCommand(flags)

	if cmd.Use != "hanzicards" {
		t.Errorf("Expected Use to be 'hanzicards', got %s", cmd.Use)
	}
	if !strings.Contains(cmd.Short, "Chinese vocabulary") {
		t.Errorf("Expected Short description to mention Chinese vocabulary, got %q", cmd.Short)
	}

	persistent := []string{"config", "provider", "model", "store", "store-path", "verbose"}
	for _, name := range persistent {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("Expected persistent flag %s to exist", name)
		}
	}
	for _, name := range []string{"archive", "list-models"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("Expected flag %s to exist", name)
		}
	}
}

func TestSubcommands(t *testing.T) {
	tests := []struct {
		args []string
		want string
		check func(t *testing.T, f *Flags)
	}{
		{args: []string{"sync", "--words", "lists/**/*.txt", "--watch"}, want: "sync", check: func(t *testing.T, f *Flags) {
			if f.Words != "lists/**/*.txt" || !f.Watch {
				t.Errorf("sync flags not parsed: %+v", f)
			}
			if viper.GetString("source.words") != "lists/**/*.txt" {
				t.Errorf("source.words not bound: %q", viper.GetString("source.words"))
			}
		}},
		{args: []string{"add", "你好", "--meaning", "hello", "--fill"}, want: "add 你好", check: func(t *testing.T, f *Flags) {
			if f.Meaning != "hello" || !f.Fill {
				t.Errorf("add flags not parsed: %+v", f)
			}
		}},
		{args: []string{"import", "words.txt", "--exclude", "1,3", "--dry-run"}, want: "import words.txt", check: func(t *testing.T, f *Flags) {
			if f.Exclude != "1,3" || !f.DryRun {
				t.Errorf("import flags not parsed: %+v", f)
			}
		}},
		{args: []string{"import"}, want: "import -"},
		{args: []string{"list", "-f", "yaml"}, want: "list", check: func(t *testing.T, f *Flags) {
			if f.Format != "yaml" {
				t.Errorf("Format = %q, want yaml", f.Format)
			}
		}},
		{args: []string{"review", "--shuffle"}, want: "review"},
		{args: []string{"rm", "世界"}, want: "rm 世界"},
		{args: []string{"remove", "abc"}, want: "rm abc"},
		{args: []string{"export", "--csv", "-o", "out.csv"}, want: "export", check: func(t *testing.T, f *Flags) {
			if !f.CSV || f.Output != "out.csv" || f.DeckName != "Chinese Vocabulary" {
				t.Errorf("export flags not parsed: %+v", f)
			}
		}},
		{args: []string{"status", "--provider", "openai"}, want: "status", check: func(t *testing.T, f *Flags) {
			if viper.GetString("enrich.provider") != "openai" {
				t.Errorf("enrich.provider = %q, want openai", viper.GetString("enrich.provider"))
			}
		}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			root, flags, runner := newTestRoot(t)
			root.SetArgs(tt.args)

			if err := root.Execute(); err != nil {
				t.Fatalf("Execute() error = %v", err)
			}
			if len(runner.calls) != 1 || runner.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", runner.calls, tt.want)
			}
			if !runner.closed {
				t.Error("runner was not closed")
			}
			if tt.check != nil {
				tt.check(t, flags)
			}
		})
	}
}

func TestSubcommandErrors(t *testing.T) {
	root, _, runner := newTestRoot(t)
	runner.err = errors.New("boom")
	root.SetArgs([]string{"list"})
	if err := root.Execute(); err == nil || err.Error() != "boom" {
		t.Errorf("Execute() error = %v, want boom", err)
	}

	root, _, _ = newTestRoot(t)
	root.SetArgs([]string{"add"})
	if err := root.Execute(); err == nil {
		t.Error("add without a character must fail")
	}

	resetViper(t)
	flags := NewFlags()
	root = CreateRootCommand(flags)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	AddCommands(root, flags, func() (Runner, error) { return nil, errors.New("no store") })
	root.SetArgs([]string{"status"})
	if err := root.Execute(); err == nil || err.Error() != "no store" {
		t.Errorf("Execute() error = %v, want no store", err)
	}
}

func TestInitConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		check   func(t *testing.T)
	}{
		{
			name: "with config file",
			content: `enrich:
  provider: openai
  openai_key: test-key
  breaker_failures: 2
store:
  backend: sqlite`,
			check: func(t *testing.T) {
				if viper.GetString("enrich.provider") != "openai" {
					t.Errorf("enrich.provider = %q", viper.GetString("enrich.provider"))
				}
				if viper.GetInt("enrich.breaker_failures") != 2 {
					t.Errorf("enrich.breaker_failures = %d", viper.GetInt("enrich.breaker_failures"))
				}
				if viper.GetString("store.backend") != "sqlite" {
					t.Errorf("store.backend = %q", viper.GetString("store.backend"))
				}
			},
		},
		{
			name: "defaults",
			check: func(t *testing.T) {
				if viper.GetString("enrich.provider") != "gemini" {
					t.Errorf("enrich.provider = %q, want gemini", viper.GetString("enrich.provider"))
				}
				if viper.GetInt("enrich.breaker_failures") != 5 {
					t.Errorf("enrich.breaker_failures = %d, want 5", viper.GetInt("enrich.breaker_failures"))
				}
				if viper.GetString("store.key") != "chinese-words" {
					t.Errorf("store.key = %q", viper.GetString("store.key"))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)

			cfgFile := ""
			if tt.content != "" {
				cfgFile = filepath.Join(t.TempDir(), "test-config.yaml")
				if err := os.WriteFile(cfgFile, []byte(tt.content), 0644); err != nil {
					t.Fatalf("Failed to create test config: %v", err)
				}
			} else {
				t.Setenv("HOME", t.TempDir())
				t.Chdir(t.TempDir())
			}

			InitConfig(cfgFile)
			tt.check(t)

			t.Setenv("HANZICARDS_STORE_PATH", "/tmp/words")
			if viper.GetString("store.path") != "/tmp/words" {
				t.Error("Environment variable not properly loaded")
			}
		})
	}
}

func TestGetKeys(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		config   map[string]string
		get      func() string
		expected string
	}{
		{name: "openai from environment", env: map[string]string{"OPENAI_API_KEY": "env"}, config: map[string]string{"enrich.openai_key": "cfg"}, get: GetOpenAIKey, expected: "env"},
		{name: "openai from config", config: map[string]string{"enrich.openai_key": "cfg"}, get: GetOpenAIKey, expected: "cfg"},
		{name: "openai empty", get: GetOpenAIKey, expected: ""},
		{name: "gemini key first", env: map[string]string{"GEMINI_API_KEY": "g", "GOOGLE_API_KEY": "o"}, get: GetGeminiKey, expected: "g"},
		{name: "google key fallback", env: map[string]string{"GOOGLE_API_KEY": "o"}, config: map[string]string{"enrich.gemini_key": "cfg"}, get: GetGeminiKey, expected: "o"},
		{name: "gemini from config", config: map[string]string{"enrich.gemini_key": "cfg"}, get: GetGeminiKey, expected: "cfg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			for _, env := range []string{"OPENAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
				t.Setenv(env, tt.env[env])
			}
			for k, v := range tt.config {
				viper.Set(k, v)
			}

			if got := tt.get(); got != tt.expected {
				t.Errorf("got %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSetupLogging(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	logger := SetupLogging(false, &buf)
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output at default level: %s", buf.String())
	}

	buf.Reset()
	SetupLogging(true, &buf)
	slog.Debug("debug line")
	if !strings.Contains(buf.String(), "debug line") {
		t.Errorf("verbose logging did not enable debug: %s", buf.String())
	}
}
