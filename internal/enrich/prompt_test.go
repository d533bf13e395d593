package enrich

import (
	"errors"
	"strings"
	"testing"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

func TestParseDetails(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    vocab.WordDetails
		wantErr error
	}{
		{
			name:  "valid object",
			input: `{"pinyin":"nǐ hǎo","meaning":"hello","exampleSentence":"你好，老师！","exampleMeaning":"Hello, teacher!"}`,
			want:  vocab.WordDetails{Pinyin: "nǐ hǎo", Meaning: "hello", ExampleSentence: "你好，老师！", ExampleMeaning: "Hello, teacher!"},
		},
		{
			name:  "code fence stripped",
			input: "```json\n{\"pinyin\":\"shì jiè\",\"meaning\":\"world\",\"exampleSentence\":\"\",\"exampleMeaning\":\"\"}\n```",
			want:  vocab.WordDetails{Pinyin: "shì jiè", Meaning: "world"},
		},
		{
			name:    "empty payload",
			input:   "   ",
			wantErr: ErrEnrichment,
		},
		{
			name:    "not json",
			input:   "the word means hello",
			wantErr: ErrParse,
		},
		{
			name:    "missing field",
			input:   `{"pinyin":"nǐ hǎo","meaning":"hello"}`,
			wantErr: ErrParse,
		},
		{
			name:    "wrong type",
			input:   `{"pinyin":1,"meaning":"hello","exampleSentence":"","exampleMeaning":""}`,
			wantErr: ErrParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDetails(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("parseDetails() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseDetails() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("parseDetails() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseChunk(t *testing.T) {
	row := func(c string) string {
		return `{"character":"` + c + `","pinyin":"p","meaning":"m","exampleSentence":"s","exampleMeaning":"e"}`
	}

	t.Run("bare array", func(t *testing.T) {
		words, err := parseChunk("[" + row("你好") + "," + row("世界") + "]")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(words) != 2 || words[0].Character != "你好" || words[1].Character != "世界" {
			t.Errorf("unexpected rows: %+v", words)
		}
		if words[0].Meaning != "m" {
			t.Errorf("Meaning = %q, want m", words[0].Meaning)
		}
	})

	t.Run("wrapped object", func(t *testing.T) {
		words, err := parseChunk(`{"words":[` + row("学习") + `]}`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(words) != 1 || words[0].Character != "学习" {
			t.Errorf("unexpected rows: %+v", words)
		}
	})

	t.Run("incomplete rows skipped", func(t *testing.T) {
		words, err := parseChunk(`[{"character":"","pinyin":"p","meaning":"m","exampleSentence":"s","exampleMeaning":"e"},{"character":"好","pinyin":"hǎo"},` + row("朋友") + `]`)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(words) != 1 || words[0].Character != "朋友" {
			t.Errorf("unexpected rows: %+v", words)
		}
	})

	t.Run("malformed", func(t *testing.T) {
		if _, err := parseChunk(`[{"character":`); !errors.Is(err, ErrParse) {
			t.Errorf("error = %v, want ErrParse", err)
		}
	})
}

func TestChunkPrompt(t *testing.T) {
	prompt := chunkPrompt([]string{"你好", "世界"})
	if !strings.Contains(prompt, "你好\n世界") {
		t.Errorf("prompt does not list the words one per line:\n%s", prompt)
	}
}
