// Package review implements flip-card study over a copy of the
// collection.
package review

import (
	"math/rand/v2"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// Deck is an ordered set of cards with a cursor and a flip state.
type Deck struct {
	cards   []vocab.Word
	index   int
	flipped bool
}

// NewDeck copies words into a deck positioned on the first card
func NewDeck(words []vocab.Word) *Deck {
	return &Deck{cards: append([]vocab.Word(nil), words...)}
}

// Len returns the number of cards
func (d *Deck) Len() int {
	return len(d.cards)
}

// Index returns the 0-based position of the current card
func (d *Deck) Index() int {
	return d.index
}

// Flipped reports whether the back of the current card is showing
func (d *Deck) Flipped() bool {
	return d.flipped
}

// Current returns the current card; ok is false for an empty deck.
func (d *Deck) Current() (vocab.Word, bool) {
	if len(d.cards) == 0 {
		return vocab.Word{}, false
	}
	return d.cards[d.index], true
}

// Flip toggles between front and back.
func (d *Deck) Flip() {
	if len(d.cards) > 0 {
		d.flipped = !d.flipped
	}
}

// Next moves to the following card, wrapping to the first.
func (d *Deck) Next() {
	d.move(1)
}

// Prev moves to the previous card, wrapping to the last.
func (d *Deck) Prev() {
	d.move(-1)
}

func (d *Deck) move(step int) {
	n := len(d.cards)
	if n == 0 {
		return
	}
	d.index = ((d.index+step)%n + n) % n
	d.flipped = false
}

// Shuffle reorders the cards with a Fisher-Yates shuffle driven by
// intn and returns to the first card. A nil intn uses math/rand/v2.
func (d *Deck) Shuffle(intn func(n int) int) {
	if intn == nil {
		intn = rand.IntN
	}
	for i := len(d.cards) - 1; i > 0; i-- {
		j := intn(i + 1)
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	}
	d.index = 0
	d.flipped = false
}
