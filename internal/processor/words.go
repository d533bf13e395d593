package processor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"codeberg.org/snonux/hanzicards/internal/batch"
	"codeberg.org/snonux/hanzicards/internal/export"
	"codeberg.org/snonux/hanzicards/internal/library"
	"codeberg.org/snonux/hanzicards/internal/review"
	"codeberg.org/snonux/hanzicards/internal/vocab"
	"codeberg.org/snonux/hanzicards/internal/wordsync"
)

// Add stores a single manually entered word. With --fill, fields not
// given on the command line are fetched from the enrichment service.
func (p *Processor) Add(ctx context.Context, character string) error {
	character = strings.TrimSpace(character)
	details := vocab.WordDetails{
		Pinyin:          p.flags.Pinyin,
		Meaning:         p.flags.Meaning,
		ExampleSentence: p.flags.Example,
		ExampleMeaning:  p.flags.ExampleMeaning,
	}

	if p.flags.Fill && character != "" {
		if _, exists := p.library.Find(character); exists {
			return fmt.Errorf("%w: %s", library.ErrDuplicate, character)
		}
		if err := p.fill(ctx, character, &details); err != nil {
			p.warn("could not fetch details for %s: %v", character, err)
			fmt.Fprintln(p.errOut, "Retry, or fill in the fields with --pinyin and --meaning.")
			if details.Meaning == "" {
				return err
			}
		}
	}

	word, err := p.library.Add(vocab.Word{
		Character:       character,
		Pinyin:          details.Pinyin,
		Meaning:         details.Meaning,
		ExampleSentence: details.ExampleSentence,
		ExampleMeaning:  details.ExampleMeaning,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(p.out, "Added %s", word.Character)
	if word.Pinyin != "" {
		fmt.Fprintf(p.out, " (%s)", word.Pinyin)
	}
	fmt.Fprintf(p.out, ": %s\n", word.Meaning)
	return nil
}

// fill completes the empty fields of details
func (p *Processor) fill(ctx context.Context, character string, details *vocab.WordDetails) error {
	enricher, err := p.getEnricher(ctx)
	if err != nil {
		return err
	}
	fetched, err := enricher.Enrich(ctx, character)
	if err != nil {
		return err
	}

	fillEmpty(&details.Pinyin, fetched.Pinyin)
	fillEmpty(&details.Meaning, fetched.Meaning)
	fillEmpty(&details.ExampleSentence, fetched.ExampleSentence)
	fillEmpty(&details.ExampleMeaning, fetched.ExampleMeaning)
	return nil
}

func fillEmpty(field *string, value string) {
	if strings.TrimSpace(*field) == "" {
		*field = value
	}
}

// Import enriches a list of words, shows a numbered preview and adds
// the rows not excluded. input is a file path or "-" for stdin.
func (p *Processor) Import(ctx context.Context, input string) error {
	var (
		terms []string
		err   error
	)
	if input == "-" {
		terms, err = batch.ReadTerms(p.in)
	} else {
		terms, err = batch.ReadTermsFile(input)
	}
	if err != nil {
		return err
	}

	newTerms := wordsync.Delta(terms, p.library.Characters())
	if skipped := len(terms) - len(newTerms); skipped > 0 {
		fmt.Fprintf(p.out, "Skipping %d words already in the collection.\n", skipped)
	}
	if len(newTerms) == 0 {
		fmt.Fprintln(p.out, "Nothing new to import.")
		return nil
	}

	enricher, err := p.getEnricher(ctx)
	if err != nil {
		return err
	}
	result := batch.NewOrchestrator(enricher, p.logger).EnrichBatch(ctx, newTerms, func(done, total int) {
		fmt.Fprintf(p.out, "Analyzing %d/%d...\n", done, total)
	})
	for _, f := range result.Failures {
		p.warn("could not enrich %s: %v", strings.Join(f.Terms, ", "), f.Err)
	}
	if len(result.Words) == 0 {
		return errors.New("no words could be enriched")
	}

	p.printPreview(result.Words)

	excluded, err := ParseExclude(p.flags.Exclude, len(result.Words))
	if err != nil {
		return err
	}
	var keep []vocab.Word
	for i, row := range result.Words {
		if excluded[i+1] {
			continue
		}
		keep = append(keep, vocab.NewWord(row.Character, row.WordDetails))
	}

	if p.flags.DryRun {
		fmt.Fprintf(p.out, "Dry run: %d words not saved.\n", len(keep))
		return nil
	}

	added, err := p.library.Merge(keep)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Added %d words. Collection: %d words.\n", len(added), p.library.Len())
	return nil
}

func (p *Processor) printPreview(rows []vocab.DetailedWord) {
	tw := tabwriter.NewWriter(p.out, 0, 4, 2, ' ', 0)
	for i, row := range rows {
		fmt.Fprintf(tw, "%3d.\t%s\t%s\t%s\n", i+1, row.Character, row.Pinyin, row.Meaning)
	}
	tw.Flush()
}

// ParseExclude parses 1-based preview row numbers such as "1,3,5-7".
func ParseExclude(ranges string, rows int) (map[int]bool, error) {
	excluded := make(map[int]bool)
	if strings.TrimSpace(ranges) == "" {
		return excluded, nil
	}

	for _, part := range strings.Split(ranges, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		from, to := part, part
		if a, b, ok := strings.Cut(part, "-"); ok {
			from, to = strings.TrimSpace(a), strings.TrimSpace(b)
		}
		start, err := strconv.Atoi(from)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude entry %q", part)
		}
		end, err := strconv.Atoi(to)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude entry %q", part)
		}
		if start < 1 || end > rows || start > end {
			return nil, fmt.Errorf("exclude entry %q out of range 1-%d", part, rows)
		}
		for i := start; i <= end; i++ {
			excluded[i] = true
		}
	}
	return excluded, nil
}

// List prints the collection in the configured format
func (p *Processor) List() error {
	return export.Write(p.out, p.library.Words(), p.flags.Format)
}

// Remove deletes a word by id or character
func (p *Processor) Remove(ref string) error {
	word, err := p.library.Remove(ref)
	if err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Removed %s (%s)\n", word.Character, word.Meaning)
	return nil
}

// Review runs a flip-card session over a copy of the collection
func (p *Processor) Review() error {
	deck := review.NewDeck(p.library.Words())
	if p.flags.Shuffle {
		deck.Shuffle(p.intn)
	}
	return review.NewSession(deck, p.in, p.out, p.intn).Run()
}
