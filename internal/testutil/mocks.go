package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"codeberg.org/snonux/hanzicards/internal/vocab"
)

// MockEnricher is a scripted enrichment provider. Chunk responses are
// consumed in call order; unscripted calls get generated details.
type MockEnricher struct {
	mu sync.Mutex

	// ChunkErrors fails the n-th EnrichChunk call (0-based).
	ChunkErrors map[int]error
	// TermErrors fails Enrich for a term.
	TermErrors map[string]error
	// Details overrides the generated details for a term.
	Details map[string]vocab.WordDetails
	// Drop removes terms from chunk answers, as a model sometimes does.
	Drop map[string]bool

	Calls      []string
	ChunkCalls [][]string
}

// Name returns the provider name
func (m *MockEnricher) Name() string {
	return "mock"
}

// Enrich mocks a single-term lookup
func (m *MockEnricher) Enrich(ctx context.Context, term string) (vocab.WordDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls = append(m.Calls, fmt.Sprintf("Enrich: %s", term))

	if err := ctx.Err(); err != nil {
		return vocab.WordDetails{}, err
	}
	if err, ok := m.TermErrors[term]; ok {
		return vocab.WordDetails{}, err
	}
	return m.detailsFor(term), nil
}

// EnrichChunk mocks a batch lookup
func (m *MockEnricher) EnrichChunk(ctx context.Context, terms []string) ([]vocab.DetailedWord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	call := len(m.ChunkCalls)
	m.ChunkCalls = append(m.ChunkCalls, append([]string(nil), terms...))
	m.Calls = append(m.Calls, fmt.Sprintf("EnrichChunk: %s", strings.Join(terms, ",")))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := m.ChunkErrors[call]; ok {
		return nil, err
	}

	words := make([]vocab.DetailedWord, 0, len(terms))
	for _, term := range terms {
		if m.Drop[term] {
			continue
		}
		words = append(words, vocab.DetailedWord{Character: term, WordDetails: m.detailsFor(term)})
	}
	return words, nil
}

// ChunkCallCount returns the number of EnrichChunk calls so far
func (m *MockEnricher) ChunkCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ChunkCalls)
}

func (m *MockEnricher) detailsFor(term string) vocab.WordDetails {
	if d, ok := m.Details[term]; ok {
		return d
	}
	return MockDetails(term)
}

// MockDetails returns deterministic details for a term
func MockDetails(term string) vocab.WordDetails {
	return vocab.WordDetails{
		Pinyin:          "pinyin of " + term,
		Meaning:         "meaning of " + term,
		ExampleSentence: "我喜欢" + term + "。",
		ExampleMeaning:  "I like " + term + ".",
	}
}

// MemoryStore is an in-memory string-keyed store
type MemoryStore struct {
	mu     sync.Mutex
	Values map[string]string
	Errors map[string]error
	Writes int
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Values: make(map[string]string)}
}

// Get returns the value stored under key
func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.Errors["get:"+key]; ok {
		return "", false, err
	}
	v, ok := m.Values[key]
	return v, ok, nil
}

// Set stores value under key
func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err, ok := m.Errors["set:"+key]; ok {
		return err
	}
	m.Values[key] = value
	m.Writes++
	return nil
}

// Delete removes key
func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Values, key)
	return nil
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}

// TestDataGenerator generates test data
type TestDataGenerator struct{}

// Terms returns n distinct Chinese-looking terms
func (g *TestDataGenerator) Terms(n int) []string {
	base := []string{"你好", "世界", "学习", "朋友", "老师", "学生", "中国", "谢谢", "再见", "喜欢"}
	terms := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if i < len(base) {
			terms = append(terms, base[i])
		} else {
			terms = append(terms, fmt.Sprintf("%s%d", base[i%len(base)], i))
		}
	}
	return terms
}

// Words returns n words created from Terms with mock details
func (g *TestDataGenerator) Words(n int) []vocab.Word {
	words := make([]vocab.Word, 0, n)
	for _, term := range g.Terms(n) {
		words = append(words, vocab.NewWord(term, MockDetails(term)))
	}
	return words
}
