package vocab

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Word is a single vocabulary entry. Words are never mutated after
// creation; the Character is the natural deduplication key.
type Word struct {
	ID              string `json:"id" yaml:"id"`
	Character       string `json:"character" yaml:"character"`
	Pinyin          string `json:"pinyin" yaml:"pinyin"`
	Meaning         string `json:"meaning" yaml:"meaning"`
	ExampleSentence string `json:"exampleSentence" yaml:"example_sentence"`
	ExampleMeaning  string `json:"exampleMeaning" yaml:"example_meaning"`
	CreatedAt       int64  `json:"createdAt" yaml:"created_at"` // epoch milliseconds
}

// WordDetails is the shape returned by the enrichment service.
type WordDetails struct {
	Pinyin          string `json:"pinyin"`
	Meaning         string `json:"meaning"`
	ExampleSentence string `json:"exampleSentence"`
	ExampleMeaning  string `json:"exampleMeaning"`
}

// DetailedWord is a WordDetails tagged with the term it belongs to, as
// returned for every row of a batch request.
type DetailedWord struct {
	Character string `json:"character"`
	WordDetails
}

// NewWord creates a Word with a fresh ID and the current time.
func NewWord(character string, details WordDetails) Word {
	return NewWordAt(character, details, time.Now())
}

// NewWordAt creates a Word with a fresh ID stamped with the given time.
func NewWordAt(character string, details WordDetails, at time.Time) Word {
	return Word{
		ID:              uuid.NewString(),
		Character:       strings.TrimSpace(character),
		Pinyin:          details.Pinyin,
		Meaning:         details.Meaning,
		ExampleSentence: details.ExampleSentence,
		ExampleMeaning:  details.ExampleMeaning,
		CreatedAt:       at.UnixMilli(),
	}
}

// Details returns the enrichment fields of the word.
func (w Word) Details() WordDetails {
	return WordDetails{
		Pinyin:          w.Pinyin,
		Meaning:         w.Meaning,
		ExampleSentence: w.ExampleSentence,
		ExampleMeaning:  w.ExampleMeaning,
	}
}

// Created returns CreatedAt as a time.Time.
func (w Word) Created() time.Time {
	return time.UnixMilli(w.CreatedAt)
}

// Characters returns the set of characters present in words.
func Characters(words []Word) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w.Character] = struct{}{}
	}
	return set
}

// CleanTerms trims every term and drops blanks and repeats, keeping the
// first occurrence and the original order.
func CleanTerms(terms []string) []string {
	var cleaned []string
	seen := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		cleaned = append(cleaned, t)
	}
	return cleaned
}

// SplitLines splits newline-delimited text into cleaned terms. Both
// Unix and Windows line endings are accepted.
func SplitLines(text string) []string {
	return CleanTerms(strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n"))
}
