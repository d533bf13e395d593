// Package anki exports the collection as Anki import files.
package anki

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// Card represents a single Anki flashcard
type Card struct {
	Hanzi          string // The Chinese word
	Pinyin         string
	Meaning        string
	Example        string // Optional example sentence
	ExampleMeaning string // Optional example translation
}

// CardFromWord converts a word into a card
func CardFromWord(w vocab.Word) Card {
	return Card{
		Hanzi:          w.Character,
		Pinyin:         w.Pinyin,
		Meaning:        w.Meaning,
		Example:        w.ExampleSentence,
		ExampleMeaning: w.ExampleMeaning,
	}
}

// GeneratorOptions configures the Anki export
type GeneratorOptions struct {
	OutputPath     string // Output file path
	DeckName       string // Deck name for .apkg files
	IncludeHeaders bool   // Include CSV headers
}

// DefaultGeneratorOptions returns sensible defaults
func DefaultGeneratorOptions() *GeneratorOptions {
	return &GeneratorOptions{
		OutputPath:     "hanzicards.apkg",
		DeckName:       "HanziCards",
		IncludeHeaders: true,
	}
}

// Generator creates Anki-compatible import files
type Generator struct {
	options *GeneratorOptions
	cards   []Card
}

// NewGenerator creates a new Anki generator
func NewGenerator(options *GeneratorOptions) *Generator {
	if options == nil {
		options = DefaultGeneratorOptions()
	}
	return &Generator{
		options: options,
		cards:   make([]Card, 0),
	}
}

// AddCard adds a card to the collection
func (g *Generator) AddCard(card Card) {
	g.cards = append(g.cards, card)
}

// AddWords adds one card per word, oldest first so Anki's new-card
// order follows the order words were learned.
func (g *Generator) AddWords(words []vocab.Word) {
	for i := len(words) - 1; i >= 0; i-- {
		g.AddCard(CardFromWord(words[i]))
	}
}

// GetCards returns a slice of all cards for modification
func (g *Generator) GetCards() []Card {
	return g.cards
}

// GenerateCSV creates a CSV file for Anki import at OutputPath
func (g *Generator) GenerateCSV() error {
	file, err := os.Create(g.options.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	return g.WriteCSV(file)
}

// WriteCSV writes the cards as CSV to w
func (g *Generator) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)

	if g.options.IncludeHeaders {
		headers := []string{"Hanzi", "Pinyin", "Meaning", "Example", "ExampleMeaning"}
		if err := writer.Write(headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for _, card := range g.cards {
		record := []string{
			card.Hanzi,
			card.Pinyin,
			card.Meaning,
			card.Example,
			card.ExampleMeaning,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write card: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// GenerateAPKG creates an .apkg file for Anki import at OutputPath
func (g *Generator) GenerateAPKG() error {
	apkgGen := NewAPKGGenerator(g.options.DeckName)
	for _, card := range g.cards {
		apkgGen.AddCard(card)
	}
	return apkgGen.GenerateAPKG(g.options.OutputPath)
}

// Stats returns statistics about the card collection
func (g *Generator) Stats() (totalCards, withExamples int) {
	totalCards = len(g.cards)
	for _, card := range g.cards {
		if card.Example != "" {
			withExamples++
		}
	}
	return
}
