package review

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

const help = "[enter/f] flip  [n] next  [p] prev  [s] shuffle  [q] quit"

// Session drives a deck from line-based terminal input.
type Session struct {
	deck *Deck
	in   *bufio.Scanner
	out  io.Writer
	intn func(n int) int
}

// NewSession creates a session over deck. intn seeds shuffles; nil uses
// math/rand/v2.
func NewSession(deck *Deck, in io.Reader, out io.Writer, intn func(n int) int) *Session {
	return &Session{deck: deck, in: bufio.NewScanner(in), out: out, intn: intn}
}

// Run shows cards until the input ends or the user quits.
func (s *Session) Run() error {
	if s.deck.Len() == 0 {
		fmt.Fprintln(s.out, "No words yet. Run 'hanzicards sync' or 'hanzicards add' first.")
		return nil
	}

	fmt.Fprintln(s.out, help)
	s.render()

	for s.in.Scan() {
		switch strings.ToLower(strings.TrimSpace(s.in.Text())) {
		case "", "f", "flip":
			s.deck.Flip()
		case "n", "next":
			s.deck.Next()
		case "p", "prev":
			s.deck.Prev()
		case "s", "shuffle":
			s.deck.Shuffle(s.intn)
			fmt.Fprintln(s.out, "Shuffled.")
		case "q", "quit", "exit":
			return nil
		default:
			fmt.Fprintln(s.out, help)
			continue
		}
		s.render()
	}
	return s.in.Err()
}

func (s *Session) render() {
	word, _ := s.deck.Current()
	fmt.Fprintf(s.out, "\n[%d/%d]\n", s.deck.Index()+1, s.deck.Len())
	fmt.Fprint(s.out, FormatCard(word, s.deck.Flipped()))
}

// FormatCard renders the front (character) or back (details) of a card.
func FormatCard(w vocab.Word, back bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %s\n", w.Character)
	if !back {
		return b.String()
	}
	fmt.Fprintf(&b, "  %s\n  %s\n", w.Pinyin, w.Meaning)
	if w.ExampleSentence != "" {
		fmt.Fprintf(&b, "\n  %s\n", w.ExampleSentence)
		if w.ExampleMeaning != "" {
			fmt.Fprintf(&b, "  %s\n", w.ExampleMeaning)
		}
	}
	return b.String()
}
