package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"codeberg.org/snonux/hanzicards/internal/batch"
	"codeberg.org/snonux/hanzicards/internal/source"
	"codeberg.org/snonux/hanzicards/internal/watch"
	"codeberg.org/snonux/hanzicards/internal/wordsync"
)

// Sync brings the collection up to date with the configured sources.
func (p *Processor) Sync(ctx context.Context) error {
	words := viper.GetString("source.words")
	snapshot := viper.GetString("source.snapshot")
	if words == "" && snapshot == "" {
		return errors.New("nothing to sync: pass --words or --snapshot, or set source.words in the config file")
	}

	if snapshot != "" {
		if err := p.syncSnapshot(ctx, snapshot); err != nil {
			return err
		}
	}
	if words != "" {
		if _, err := p.syncWords(ctx, words); err != nil {
			return err
		}
	}

	if !p.flags.Watch {
		return nil
	}
	if words == "" || source.IsURL(words) {
		return errors.New("--watch needs a local word list or glob in --words")
	}
	return p.watch(ctx, words)
}

func (p *Processor) syncSnapshot(ctx context.Context, src string) error {
	incoming, err := p.fetcher.FetchSnapshot(ctx, src)
	if isNotFound(err) {
		fmt.Fprintf(p.out, "No snapshot at %s yet.\n", src)
		return nil
	}
	if err != nil {
		return err
	}

	engine := wordsync.NewEngine(p.library, nil, p.printStatus, p.logger)
	_, err = engine.ImportSnapshot(incoming)
	return err
}

func (p *Processor) syncWords(ctx context.Context, src string) (wordsync.Report, error) {
	terms, err := p.fetcher.FetchTerms(ctx, src)
	if isNotFound(err) {
		p.logger.Debug("word list not found", slog.String("source", src))
		fmt.Fprintf(p.out, "No word list at %s yet.\n", src)
		return wordsync.Report{}, nil
	}
	if err != nil {
		return wordsync.Report{}, err
	}

	var orchestrator *batch.Orchestrator
	if len(wordsync.Delta(terms, p.library.Characters())) > 0 {
		enricher, err := p.getEnricher(ctx)
		if err != nil {
			return wordsync.Report{}, err
		}
		orchestrator = batch.NewOrchestrator(enricher, p.logger)
	}

	report, err := wordsync.NewEngine(p.library, orchestrator, p.printStatus, p.logger).Sync(ctx, terms)
	if err != nil {
		return report, err
	}
	p.printSyncSummary(report)
	return report, nil
}

func (p *Processor) printSyncSummary(report wordsync.Report) {
	if report.Discovered == 0 {
		return
	}

	fmt.Fprintf(p.out, "\n=== Sync Summary (%s) ===\n", report.RunID)
	fmt.Fprintf(p.out, "New words: %d\n", report.Discovered)
	fmt.Fprintf(p.out, "Added: %d\n", report.Added)
	if len(report.Failures) > 0 {
		failed := 0
		for _, f := range report.Failures {
			failed += len(f.Terms)
			p.warn("chunk %d failed (%d words): %v", f.Index+1, len(f.Terms), f.Err)
		}
		fmt.Fprintf(p.out, "Failed: %d (run sync again to retry)\n", failed)
	}
	fmt.Fprintf(p.out, "Collection: %d words\n", p.library.Len())
}

func (p *Processor) watch(ctx context.Context, src string) error {
	p.watcher = watch.New([]string{src}, func(ctx context.Context) error {
		_, err := p.syncWords(ctx, src)
		return err
	}, 0, p.logger)

	if err := p.watcher.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Watching %s for changes (Ctrl-C to stop)...\n", src)
	<-p.watcher.Done()
	return nil
}

func (p *Processor) printStatus(msg string) {
	fmt.Fprintln(p.out, msg)
}
