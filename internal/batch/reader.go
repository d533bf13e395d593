package batch

import (
	"fmt"
	"io"
	"os"
	"strings"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// ReadTermsFile reads a newline-delimited term list from a file.
// Supports formats:
// - Chinese term only: "你好"
// - With a note: "你好 = greeting" (the note is ignored)
// - Comments: lines starting with "#"
func ReadTermsFile(filename string) ([]string, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read term file: %w", err)
	}
	defer f.Close()

	return ReadTerms(f)
}

// ReadTerms reads a term list from r. Blank lines and duplicates are
// dropped; the first occurrence keeps its position.
func ReadTerms(r io.Reader) ([]string, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read terms: %w", err)
	}

	var terms []string
	for _, line := range strings.Split(string(content), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if term, _, found := strings.Cut(line, "="); found {
			line = term
		}
		terms = append(terms, line)
	}
	return vocab.CleanTerms(terms), nil
}
