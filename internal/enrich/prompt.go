package enrich

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

const (
	fieldCharacter       = "character"
	fieldPinyin          = "pinyin"
	fieldMeaning         = "meaning"
	fieldExampleSentence = "exampleSentence"
	fieldExampleMeaning  = "exampleMeaning"
)

// detailFields lists the required WordDetails keys in schema order.
var detailFields = []string{fieldPinyin, fieldMeaning, fieldExampleSentence, fieldExampleMeaning}

var fieldDescriptions = map[string]string{
	fieldCharacter:       "The Chinese word from the list",
	fieldPinyin:          "The Pinyin with tone marks",
	fieldMeaning:         "The English translation",
	fieldExampleSentence: "A simple example sentence in Chinese",
	fieldExampleMeaning:  "English translation of the example sentence",
}

func singlePrompt(term string) string {
	return fmt.Sprintf("Provide the pinyin, english meaning, a simple chinese example sentence, and the english meaning of that sentence for the word: %q.", term)
}

func chunkPrompt(terms []string) string {
	return fmt.Sprintf(`For the following list of Chinese words, provide the pinyin, meaning, example sentence, and example meaning for each.
Return exactly one item per word, in the same order, and copy the word unchanged into the character field.

Words:
%s
`, strings.Join(terms, "\n"))
}

// detailsPayload uses pointers so missing keys can be told apart from
// empty values.
type detailsPayload struct {
	Character       *string `json:"character"`
	Pinyin          *string `json:"pinyin"`
	Meaning         *string `json:"meaning"`
	ExampleSentence *string `json:"exampleSentence"`
	ExampleMeaning  *string `json:"exampleMeaning"`
}

func (p detailsPayload) details() (vocab.WordDetails, error) {
	var missing []string
	get := func(name string, v *string) string {
		if v == nil {
			missing = append(missing, name)
			return ""
		}
		return strings.TrimSpace(*v)
	}
	d := vocab.WordDetails{
		Pinyin:          get(fieldPinyin, p.Pinyin),
		Meaning:         get(fieldMeaning, p.Meaning),
		ExampleSentence: get(fieldExampleSentence, p.ExampleSentence),
		ExampleMeaning:  get(fieldExampleMeaning, p.ExampleMeaning),
	}
	if len(missing) > 0 {
		return vocab.WordDetails{}, fmt.Errorf("%w: missing fields %s", ErrParse, strings.Join(missing, ", "))
	}
	return d, nil
}

// parseDetails decodes a single WordDetails object.
func parseDetails(text string) (vocab.WordDetails, error) {
	raw, err := payloadBytes(text)
	if err != nil {
		return vocab.WordDetails{}, err
	}

	var p detailsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return vocab.WordDetails{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return p.details()
}

// parseChunk decodes a batch answer. Both a bare array and an object
// wrapping the array under "words" are accepted; rows without a
// character or with missing fields are skipped.
func parseChunk(text string) ([]vocab.DetailedWord, error) {
	raw, err := payloadBytes(text)
	if err != nil {
		return nil, err
	}

	var rows []detailsPayload
	if bytes.HasPrefix(raw, []byte("{")) {
		var wrapped struct {
			Words []detailsPayload `json:"words"`
		}
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}
		rows = wrapped.Words
	} else if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}

	words := make([]vocab.DetailedWord, 0, len(rows))
	for _, row := range rows {
		if row.Character == nil || strings.TrimSpace(*row.Character) == "" {
			continue
		}
		details, err := row.details()
		if err != nil {
			continue
		}
		words = append(words, vocab.DetailedWord{
			Character:   strings.TrimSpace(*row.Character),
			WordDetails: details,
		})
	}
	return words, nil
}

// payloadBytes strips whitespace and an optional markdown code fence.
func payloadBytes(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty response", ErrEnrichment)
	}
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
		text = strings.TrimSpace(text)
	}
	return []byte(text), nil
}
