package processor

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/introspection"
	"github.com/spf13/viper"

	"codeberg.org/snonux/hanzicards/internal"
	"codeberg.org/snonux/hanzicards/internal/anki"
	"codeberg.org/snonux/hanzicards/internal/enrich"
)

// Export writes the collection as an Anki package or CSV file
func (p *Processor) Export() error {
	words := p.library.Words()
	if len(words) == 0 {
		return errors.New("nothing to export: the collection is empty")
	}

	output := p.flags.Output
	if output == "" {
		name := internal.SanitizeFilename(p.flags.DeckName)
		if name == "" {
			name = "hanzicards"
		}
		ext := ".apkg"
		if p.flags.CSV {
			ext = ".csv"
		}
		output = name + ext
	}

	gen := anki.NewGenerator(&anki.GeneratorOptions{
		OutputPath:     output,
		DeckName:       p.flags.DeckName,
		IncludeHeaders: true,
	})
	gen.AddWords(words)

	if p.flags.CSV {
		if err := gen.GenerateCSV(); err != nil {
			return err
		}
		fmt.Fprintf(p.out, "Anki CSV created: %s\n", output)
	} else {
		if err := gen.GenerateAPKG(); err != nil {
			return fmt.Errorf("failed to generate Anki package: %w", err)
		}
		fmt.Fprintf(p.out, "Anki package created: %s\n", output)
	}

	total, withExamples := gen.Stats()
	fmt.Fprintf(p.out, "Cards: %d (%d with example sentences)\n", total, withExamples)
	return nil
}

// statusReport is printed by the status command
type statusReport struct {
	Version    string         `json:"version"`
	Provider   string         `json:"provider"`
	Breaker    string         `json:"breaker,omitempty"`
	Store      storeStatus    `json:"store"`
	Components map[string]any `json:"components"`
}

type storeStatus struct {
	Backend  string `json:"backend"`
	Path     string `json:"path"`
	Snapshot string `json:"snapshot"`
}

// Status prints the state of the library and any running components as
// JSON.
func (p *Processor) Status() error {
	config, err := StoreConfig()
	if err != nil {
		return err
	}

	report := statusReport{
		Version:  internal.Version,
		Provider: viper.GetString("enrich.provider"),
		Store: storeStatus{
			Backend:  config.Backend,
			Path:     config.Path,
			Snapshot: SnapshotPath(config, viper.GetString("store.key")),
		},
		Components: make(map[string]any),
	}
	if b, ok := p.enricher.(*enrich.Breaker); ok {
		report.Breaker = b.State()
	}

	components := []introspection.Component{p.library}
	if p.watcher != nil {
		components = append(components, p.watcher)
	}
	for _, c := range components {
		if intro, ok := c.(introspection.Introspectable); ok {
			report.Components[c.ComponentType()] = intro.State()
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode status: %w", err)
	}
	fmt.Fprintln(p.out, string(data))
	return nil
}
