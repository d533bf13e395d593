package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"codeberg.org/snonux/hanzicards/internal/archive"
	"codeberg.org/snonux/hanzicards/internal/cli"
	"codeberg.org/snonux/hanzicards/internal/enrich"
	"codeberg.org/snonux/hanzicards/internal/library"
	"codeberg.org/snonux/hanzicards/internal/source"
	"codeberg.org/snonux/hanzicards/internal/store"
	"codeberg.org/snonux/hanzicards/internal/watch"
)

// Processor runs the commands against one store.
type Processor struct {
	flags  *cli.Flags
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger

	store    store.Store
	library  *library.Library
	fetcher  *source.Fetcher
	enricher enrich.Enricher
	watcher  *watch.Watcher

	// newEnricher overrides provider construction
	newEnricher func(ctx context.Context) (enrich.Enricher, error)
	// intn drives deck shuffles; nil means random
	intn func(n int) int
}

var _ cli.Runner = (*Processor)(nil)

// NewProcessor opens the configured store and loads the library
func NewProcessor(flags *cli.Flags) (*Processor, error) {
	config, err := StoreConfig()
	if err != nil {
		return nil, err
	}

	st, err := store.Open(config)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	logger := slog.Default()
	return &Processor{
		flags:   flags,
		in:      os.Stdin,
		out:     os.Stdout,
		errOut:  os.Stderr,
		logger:  logger,
		store:   st,
		library: library.Open(st, viper.GetString("store.key"), logger),
		fetcher: &source.Fetcher{},
	}, nil
}

// StoreConfig resolves the store backend and location from configuration
func StoreConfig() (store.Config, error) {
	config := store.Config{
		Backend: viper.GetString("store.backend"),
		Path:    viper.GetString("store.path"),
	}
	switch config.Backend {
	case "", "file":
		config.Backend = "file"
		if config.Path == "" {
			config.Path = cli.DefaultStateDir()
		}
	case "sqlite":
		if config.Path == "" {
			config.Path = filepath.Join(cli.DefaultStateDir(), "hanzicards.db")
		}
	default:
		return store.Config{}, fmt.Errorf("unknown store backend: %s", config.Backend)
	}
	return config, nil
}

// SnapshotPath returns the file holding the persisted collection
func SnapshotPath(config store.Config, key string) string {
	if config.Backend == "sqlite" {
		return config.Path
	}
	if key == "" {
		key = store.DefaultKey
	}
	return filepath.Join(config.Path, key+".json")
}

// Archive moves the persisted collection aside so the next run starts
// empty. It prints the archive location to out.
func Archive(out io.Writer) error {
	config, err := StoreConfig()
	if err != nil {
		return err
	}

	archived, err := archive.ArchiveSnapshot(SnapshotPath(config, viper.GetString("store.key")))
	if err != nil {
		return fmt.Errorf("failed to archive collection: %w", err)
	}
	fmt.Fprintf(out, "Collection archived to: %s\n", archived)
	return nil
}

// Close closes the store
func (p *Processor) Close() error {
	return p.store.Close()
}

// getEnricher creates the configured provider on first use, so commands
// that never call the service work without an API key.
func (p *Processor) getEnricher(ctx context.Context) (enrich.Enricher, error) {
	if p.enricher != nil {
		return p.enricher, nil
	}

	var (
		enricher enrich.Enricher
		err      error
	)
	if p.newEnricher != nil {
		enricher, err = p.newEnricher(ctx)
	} else {
		enricher, err = enrich.NewProvider(ctx, EnrichConfig(p.logger))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create enrichment provider: %w", err)
	}

	p.enricher = enricher
	return enricher, nil
}

// EnrichConfig builds the provider configuration from viper
func EnrichConfig(logger *slog.Logger) *enrich.Config {
	failures := viper.GetInt("enrich.breaker_failures")
	if failures < 0 {
		failures = 0
	}
	return &enrich.Config{
		Provider:        viper.GetString("enrich.provider"),
		Model:           viper.GetString("enrich.model"),
		GeminiKey:       cli.GetGeminiKey(),
		OpenAIKey:       cli.GetOpenAIKey(),
		BaseURL:         viper.GetString("enrich.base_url"),
		Timeout:         viper.GetDuration("enrich.timeout"),
		BreakerFailures: uint32(failures),
		Logger:          logger,
	}
}

// warn prints a user-facing warning line
func (p *Processor) warn(format string, args ...any) {
	fmt.Fprintf(p.errOut, "Warning: "+format+"\n", args...)
}

func isNotFound(err error) bool {
	return errors.Is(err, source.ErrNotFound)
}
