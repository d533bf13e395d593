// Package enrich derives pinyin, an English meaning and an example
// sentence for Chinese terms using a generative text service. Gemini
// (google.golang.org/genai) and OpenAI chat completions are supported,
// both asked for strictly typed JSON output.
package enrich
