// Package wordsync brings the library up to date with a source word
// list, enriching only the words it has not seen before.
package wordsync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"codeberg.org/snonux/hanzicards/internal/batch"
	"codeberg.org/snonux/hanzicards/internal/library"
	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// Status lines reported while syncing.
const (
	StatusUpToDate  = "Word list matches cache. No API call needed."
	statusFound     = "Found %d new words. Fetching meanings..."
	statusAnalyzing = "Analyzing new words: %d/%d..."
	statusCached    = "Enriched & cached %d new words."
	statusSnapshot  = "Imported %d words from snapshot."
)

// StatusFunc receives human readable progress lines.
type StatusFunc func(msg string)

// Report summarizes one sync run.
type Report struct {
	RunID      string
	Discovered int // terms in the source missing from the library
	Added      int
	Failures   []batch.ChunkError
	Words      []vocab.Word
}

// Engine diffs a source list against the library.
type Engine struct {
	library      *library.Library
	orchestrator *batch.Orchestrator
	status       StatusFunc
	logger       *slog.Logger
	now          func() time.Time
}

// NewEngine creates an engine. status and logger may be nil.
func NewEngine(lib *library.Library, orchestrator *batch.Orchestrator, status StatusFunc, logger *slog.Logger) *Engine {
	if status == nil {
		status = func(string) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		library:      lib,
		orchestrator: orchestrator,
		status:       status,
		logger:       logger,
		now:          time.Now,
	}
}

// Delta returns the cleaned source terms whose character is not in
// existing, in source order.
func Delta(source []string, existing map[string]struct{}) []string {
	var delta []string
	for _, term := range vocab.CleanTerms(source) {
		if _, ok := existing[term]; !ok {
			delta = append(delta, term)
		}
	}
	return delta
}

// Sync enriches the source terms missing from the library and merges
// the results. Chunk failures are reported, not returned; the only
// error is a failed save.
func (e *Engine) Sync(ctx context.Context, source []string) (Report, error) {
	report := Report{RunID: ulid.Make().String()}
	logger := e.logger.With(slog.String("run", report.RunID))

	newTerms := Delta(source, e.library.Characters())
	report.Discovered = len(newTerms)
	if len(newTerms) == 0 {
		logger.Debug("sync: nothing new", slog.Int("source", len(source)))
		e.status(StatusUpToDate)
		return report, nil
	}

	e.status(fmt.Sprintf(statusFound, len(newTerms)))
	logger.Info("sync: enriching new words", slog.Int("new", len(newTerms)))

	result := e.orchestrator.EnrichBatch(ctx, newTerms, func(done, total int) {
		e.status(fmt.Sprintf(statusAnalyzing, done, total))
	})
	report.Failures = result.Failures

	created := e.now()
	incoming := make([]vocab.Word, 0, len(result.Words))
	for _, row := range result.Words {
		incoming = append(incoming, vocab.NewWordAt(row.Character, row.WordDetails, created))
	}

	added, err := e.library.Merge(incoming)
	report.Words = added
	report.Added = len(added)
	if err != nil {
		return report, fmt.Errorf("failed to save synced words: %w", err)
	}

	logger.Info("sync: done",
		slog.Int("added", report.Added),
		slog.Int("failed_chunks", len(report.Failures)))
	e.status(fmt.Sprintf(statusCached, report.Added))
	return report, nil
}

// ImportSnapshot merges complete words without calling the enrichment
// service. Entries without a character are skipped.
func (e *Engine) ImportSnapshot(words []vocab.Word) (Report, error) {
	report := Report{RunID: ulid.Make().String()}

	existing := e.library.Characters()
	incoming := make([]vocab.Word, 0, len(words))
	for _, w := range words {
		if w.Character == "" {
			continue
		}
		if w.ID == "" {
			w = vocab.NewWordAt(w.Character, w.Details(), e.now())
		}
		if _, ok := existing[w.Character]; !ok {
			existing[w.Character] = struct{}{}
			report.Discovered++
		}
		incoming = append(incoming, w)
	}

	added, err := e.library.Merge(incoming)
	report.Words = added
	report.Added = len(added)
	if err != nil {
		return report, fmt.Errorf("failed to save snapshot words: %w", err)
	}

	e.logger.Info("snapshot imported", slog.String("run", report.RunID), slog.Int("added", report.Added))
	e.status(fmt.Sprintf(statusSnapshot, report.Added))
	return report, nil
}
