package cli

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/snonux/hanzicards/internal"
)

// Runner executes the subcommands. The processor implements it.
type Runner interface {
	Sync(ctx context.Context) error
	Add(ctx context.Context, character string) error
	Import(ctx context.Context, input string) error
	List() error
	Review() error
	Remove(ref string) error
	Export() error
	Status() error
	Close() error
}

// RunnerFactory creates a Runner once configuration has been loaded.
type RunnerFactory func() (Runner, error)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hanzicards",
		Short: "Chinese vocabulary flashcards with AI enrichment",
		Long: `hanzicards keeps a Chinese vocabulary collection and fills in pinyin,
meanings and example sentences through an AI text-generation service.

Only words missing from the local collection are sent for enrichment,
in chunks of 20.

Examples:
  hanzicards sync --words https://example.com/words.txt
  hanzicards sync --words 'lists/**/*.txt' --watch
  hanzicards add 你好 --fill
  hanzicards import new-words.txt --dry-run
  hanzicards review --shuffle`,
		Args:          cobra.NoArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	setupFlags(rootCmd, flags)
	return rootCmd
}

// DefaultStateDir returns the directory for persisted state
func DefaultStateDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "hanzicards")
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.hanzicards.yaml)")
	pf.StringVar(&flags.Provider, "provider", flags.Provider, "Enrichment provider: gemini or openai")
	pf.StringVar(&flags.Model, "model", "", "Model name (default depends on provider)")
	pf.StringVar(&flags.StoreBackend, "store", flags.StoreBackend, "Store backend: file or sqlite")
	pf.StringVar(&flags.StorePath, "store-path", "", "Store directory (file) or database file (sqlite)")
	pf.BoolVarP(&flags.Verbose, "verbose", "v", false, "Enable debug logging")

	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Move the stored collection to an archive and start empty")
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI models for the current API key")

	bindFlagsToViper(pf)
}

func bindFlagsToViper(pf *pflag.FlagSet) {
	viper.BindPFlag("enrich.provider", pf.Lookup("provider"))
	viper.BindPFlag("enrich.model", pf.Lookup("model"))
	viper.BindPFlag("store.backend", pf.Lookup("store"))
	viper.BindPFlag("store.path", pf.Lookup("store-path"))
}

// AddCommands attaches the subcommands. newRunner is called after
// configuration has been loaded; the runner is closed when the command
// returns.
func AddCommands(root *cobra.Command, flags *Flags, newRunner RunnerFactory) {
	with := func(fn func(cmd *cobra.Command, r Runner, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			r, err := newRunner()
			if err != nil {
				return err
			}
			defer r.Close()
			return fn(cmd, r, args)
		}
	}

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Enrich new words from the word list and cache them",
		Args:  cobra.NoArgs,
		RunE: with(func(cmd *cobra.Command, r Runner, _ []string) error {
			return r.Sync(cmd.Context())
		}),
	}
	syncCmd.Flags().StringVar(&flags.Words, "words", "", "Word list: URL, file or glob (e.g. 'lists/**/*.txt')")
	syncCmd.Flags().StringVar(&flags.Snapshot, "snapshot", "", "JSON snapshot of complete words: URL or file")
	syncCmd.Flags().BoolVar(&flags.Watch, "watch", false, "Keep running and re-sync when the local word list changes")
	viper.BindPFlag("source.words", syncCmd.Flags().Lookup("words"))
	viper.BindPFlag("source.snapshot", syncCmd.Flags().Lookup("snapshot"))

	addCmd := &cobra.Command{
		Use:   "add CHARACTER",
		Short: "Add a single word",
		Args:  cobra.ExactArgs(1),
		RunE: with(func(cmd *cobra.Command, r Runner, args []string) error {
			return r.Add(cmd.Context(), args[0])
		}),
	}
	addCmd.Flags().StringVar(&flags.Pinyin, "pinyin", "", "Pinyin")
	addCmd.Flags().StringVar(&flags.Meaning, "meaning", "", "English meaning (required unless --fill)")
	addCmd.Flags().StringVar(&flags.Example, "example", "", "Example sentence")
	addCmd.Flags().StringVar(&flags.ExampleMeaning, "example-meaning", "", "Translation of the example sentence")
	addCmd.Flags().BoolVar(&flags.Fill, "fill", false, "Ask the enrichment service for fields not given")

	importCmd := &cobra.Command{
		Use:   "import [FILE|-]",
		Short: "Enrich a list of words, preview and add them",
		Args:  cobra.MaximumNArgs(1),
		RunE: with(func(cmd *cobra.Command, r Runner, args []string) error {
			input := "-"
			if len(args) == 1 {
				input = args[0]
			}
			return r.Import(cmd.Context(), input)
		}),
	}
	importCmd.Flags().BoolVar(&flags.DryRun, "dry-run", false, "Show the preview without saving")
	importCmd.Flags().StringVar(&flags.Exclude, "exclude", "", "Preview rows to leave out, e.g. 1,3,5-7")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the collection",
		Args:  cobra.NoArgs,
		RunE: with(func(_ *cobra.Command, r Runner, _ []string) error {
			return r.List()
		}),
	}
	listCmd.Flags().StringVarP(&flags.Format, "format", "f", flags.Format, "Output format: text, json or yaml")

	reviewCmd := &cobra.Command{
		Use:   "review",
		Short: "Study the collection as flip cards",
		Args:  cobra.NoArgs,
		RunE: with(func(_ *cobra.Command, r Runner, _ []string) error {
			return r.Review()
		}),
	}
	reviewCmd.Flags().BoolVar(&flags.Shuffle, "shuffle", false, "Shuffle the deck before starting")

	rmCmd := &cobra.Command{
		Use:     "rm ID|CHARACTER",
		Aliases: []string{"remove"},
		Short:   "Remove a word",
		Args:    cobra.ExactArgs(1),
		RunE: with(func(_ *cobra.Command, r Runner, args []string) error {
			return r.Remove(args[0])
		}),
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export the collection for Anki",
		Args:  cobra.NoArgs,
		RunE: with(func(_ *cobra.Command, r Runner, _ []string) error {
			return r.Export()
		}),
	}
	exportCmd.Flags().BoolVar(&flags.CSV, "csv", false, "Write CSV instead of an .apkg package")
	exportCmd.Flags().StringVar(&flags.DeckName, "deck-name", flags.DeckName, "Deck name for APKG export")
	exportCmd.Flags().StringVarP(&flags.Output, "output", "o", "", "Output file (default derived from the deck name)")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show collection state as JSON",
		Args:  cobra.NoArgs,
		RunE: with(func(_ *cobra.Command, r Runner, _ []string) error {
			return r.Status()
		}),
	}

	root.AddCommand(syncCmd, addCmd, importCmd, listCmd, reviewCmd, rmCmd, exportCmd, statusCmd)
}
