// Package batch enriches term lists in fixed-size chunks.
package batch

import (
	"context"
	"log/slog"

	"codeberg.org/snonux/hanzicards/internal/enrich"
	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// ChunkSize is the number of terms sent in one enrichment request.
const ChunkSize = 20

// ProgressFunc receives the cumulative number of attempted terms after
// every chunk.
type ProgressFunc func(done, total int)

// ChunkError records a chunk that contributed no results.
type ChunkError struct {
	Index int
	Terms []string
	Err   error
}

func (e ChunkError) Error() string {
	return e.Err.Error()
}

func (e ChunkError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a batch run. Words holds the successful
// chunk results in chunk order.
type Result struct {
	Words    []vocab.DetailedWord
	Failures []ChunkError
	Total    int
}

// Failed returns the number of terms in failed chunks
func (r Result) Failed() int {
	n := 0
	for _, f := range r.Failures {
		n += len(f.Terms)
	}
	return n
}

// Orchestrator runs chunked enrichment against one provider.
type Orchestrator struct {
	enricher enrich.Enricher
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator for enricher
func NewOrchestrator(enricher enrich.Enricher, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{enricher: enricher, logger: logger}
}

type chunkOutcome struct {
	words []vocab.DetailedWord
	err   error
}

// Chunks splits terms into consecutive slices of at most size entries.
func Chunks(terms []string, size int) [][]string {
	if size <= 0 {
		size = ChunkSize
	}
	var chunks [][]string
	for start := 0; start < len(terms); start += size {
		end := min(start+size, len(terms))
		chunks = append(chunks, terms[start:end])
	}
	return chunks
}

// EnrichBatch enriches terms chunk by chunk. A failing chunk is logged
// and recorded in Result.Failures; it never aborts the run. onProgress
// may be nil.
func (o *Orchestrator) EnrichBatch(ctx context.Context, terms []string, onProgress ProgressFunc) Result {
	cleaned := vocab.CleanTerms(terms)
	result := Result{Total: len(cleaned)}
	if len(cleaned) == 0 {
		return result
	}

	done := 0
	for i, chunk := range Chunks(cleaned, ChunkSize) {
		outcome := o.runChunk(ctx, chunk)
		if outcome.err != nil {
			o.logger.Error("batch chunk failed",
				slog.Int("chunk", i),
				slog.Int("terms", len(chunk)),
				slog.String("provider", o.enricher.Name()),
				slog.Any("error", outcome.err))
			result.Failures = append(result.Failures, ChunkError{Index: i, Terms: chunk, Err: outcome.err})
		} else {
			result.Words = append(result.Words, outcome.words...)
		}

		done = min(done+len(chunk), result.Total)
		if onProgress != nil {
			onProgress(done, result.Total)
		}
	}

	o.logger.Debug("batch finished",
		slog.Int("total", result.Total),
		slog.Int("words", len(result.Words)),
		slog.Int("failed_chunks", len(result.Failures)))
	return result
}

func (o *Orchestrator) runChunk(ctx context.Context, chunk []string) chunkOutcome {
	rows, err := o.enricher.EnrichChunk(ctx, chunk)
	if err != nil {
		return chunkOutcome{err: err}
	}

	words := make([]vocab.DetailedWord, 0, len(rows))
	for _, row := range rows {
		if row.Character == "" {
			continue
		}
		words = append(words, row)
	}
	return chunkOutcome{words: words}
}
