// Package export renders the collection for the list command.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// Formats accepted by Write.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists the supported formats
var Formats = []string{FormatText, FormatJSON, FormatYAML}

// Write renders words to w in format.
func Write(w io.Writer, words []vocab.Word, format string) error {
	if words == nil {
		words = []vocab.Word{}
	}

	switch strings.ToLower(format) {
	case FormatText, "":
		return writeText(w, words)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(words)
	case FormatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(words); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

func writeText(w io.Writer, words []vocab.Word) error {
	if len(words) == 0 {
		_, err := fmt.Fprintln(w, "No words yet.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHARACTER\tPINYIN\tMEANING\tADDED")
	for _, word := range words {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			word.Character, word.Pinyin, word.Meaning, word.Created().Format(time.DateOnly))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\n%d words\n", len(words))
	return err
}
