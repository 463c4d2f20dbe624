package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	mu       sync.Mutex
	dims     int
	embedErr error
	inputs   []string
}

var _ driven.EmbeddingService = (*mockEmbeddingService)(nil)

func (m *mockEmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inputs = append(m.inputs, text)
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	vec := make([]float32, m.dimensions())
	vec[len(text)%len(vec)] = 1
	return vec, nil
}

func (m *mockEmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		v, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (m *mockEmbeddingService) dimensions() int {
	if m.dims == 0 {
		return 4
	}
	return m.dims
}

func (m *mockEmbeddingService) Dimensions() int              { return m.dimensions() }
func (m *mockEmbeddingService) ModelName() string            { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                 { return nil }

// storeCall records one Query invocation.
type storeCall struct {
	topK   int
	filter domain.RetrievalFilter
}

// mockExemplarStore implements driven.ExemplarStore for testing.
// Results are served per filter: strict filters (with tech code) get strict,
// filters without tech code get relaxed.
type mockExemplarStore struct {
	mu        sync.Mutex
	missing   bool
	existsErr error
	strict    []domain.ExemplarPassage
	relaxed   []domain.ExemplarPassage
	queryErr  error
	calls     []storeCall
}

var _ driven.ExemplarStore = (*mockExemplarStore)(nil)

func (m *mockExemplarStore) Exists(_ context.Context) (bool, error) {
	return !m.missing, m.existsErr
}

func (m *mockExemplarStore) Query(
	_ context.Context, _ []float32, topK int, filter domain.RetrievalFilter,
) ([]domain.ExemplarPassage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, storeCall{topK: topK, filter: filter})
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	src := m.strict
	if len(m.calls) > 1 {
		src = m.relaxed
	}
	if topK < len(src) {
		src = src[:topK]
	}
	return append([]domain.ExemplarPassage(nil), src...), nil
}

func (m *mockExemplarStore) queries() []storeCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]storeCall(nil), m.calls...)
}

// mockRetriever implements Retriever for testing.
type mockRetriever struct {
	mu        sync.Mutex
	passages  []domain.ExemplarPassage
	err       error
	queries   []string
	sections  []domain.SectionKey
	techCodes []string
	ns        []int
}

func (m *mockRetriever) Retrieve(
	_ context.Context, query string, section domain.SectionKey, techCode, _ string, n int,
) ([]domain.ExemplarPassage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queries = append(m.queries, query)
	m.sections = append(m.sections, section)
	m.techCodes = append(m.techCodes, techCode)
	m.ns = append(m.ns, n)
	if m.err != nil {
		return nil, m.err
	}
	return m.passages, nil
}

// fakePrompts implements driven.PromptStore, returning "PROMPT:<name>".
type fakePrompts struct {
	missing map[string]bool
}

var _ driven.PromptStore = (*fakePrompts)(nil)

func (f *fakePrompts) Load(name string) (string, error) {
	if f.missing[name] {
		return "", errors.New("prompt not found")
	}
	return "PROMPT:" + name, nil
}

func (f *fakePrompts) Reload() {}

// llmCall records one Complete invocation.
type llmCall struct {
	system string
	user   string
}

// scriptedLLM implements driven.TextGenerator, routing on the system prompt
// served by fakePrompts. Reviews are served in order; the last one repeats.
type scriptedLLM struct {
	mu sync.Mutex

	draft     func(user string) string
	reviews   []string
	refine    func(n int, user string) string
	draftErr  error
	reviewErr error
	refineErr error

	// failSection makes every call whose user message names the label fail.
	failSection string

	drafts  []llmCall
	review  []llmCall
	refines []llmCall
}

var _ driven.TextGenerator = (*scriptedLLM)(nil)

func (s *scriptedLLM) Complete(_ context.Context, system, user string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	call := llmCall{system: system, user: user}

	if s.failSection != "" && strings.Contains(user, "SECTION: "+s.failSection+"\n") {
		return "", errors.New("upstream unavailable")
	}

	switch {
	case strings.HasPrefix(system, "PROMPT:"+driven.PromptReviewer):
		s.review = append(s.review, call)
		if s.reviewErr != nil {
			return "", s.reviewErr
		}
		if len(s.reviews) == 0 {
			return domain.AcceptanceSentinel, nil
		}
		i := min(len(s.review)-1, len(s.reviews)-1)
		return s.reviews[i], nil
	case strings.HasPrefix(system, "PROMPT:"+driven.PromptRefiner):
		s.refines = append(s.refines, call)
		if s.refineErr != nil {
			return "", s.refineErr
		}
		if s.refine != nil {
			return s.refine(len(s.refines), user), nil
		}
		return "refined text", nil
	default:
		s.drafts = append(s.drafts, call)
		if s.draftErr != nil {
			return "", s.draftErr
		}
		if s.draft != nil {
			return s.draft(user), nil
		}
		return "  draft text  ", nil
	}
}

func (s *scriptedLLM) ModelName() string            { return "scripted" }
func (s *scriptedLLM) Ping(_ context.Context) error { return nil }
func (s *scriptedLLM) Close() error                 { return nil }

func (s *scriptedLLM) counts() (drafts, reviews, refines int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.drafts), len(s.review), len(s.refines)
}

func passage(text, title string) domain.ExemplarPassage {
	return domain.ExemplarPassage{
		Text:     text,
		Metadata: domain.ExemplarMetadata{Status: domain.StatusApproved, ProjectTitle: title},
	}
}

// mockConfigStore implements driven.ConfigStore over a map.
type mockConfigStore struct {
	mu     sync.Mutex
	values map[string]any
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	v, _ := m.Get(key)
	s, _ := v.(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	v, _ := m.Get(key)
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func (m *mockConfigStore) GetBool(key string) bool {
	v, _ := m.Get(key)
	b, _ := v.(bool)
	return b
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	v, _ := m.Get(key)
	s, _ := v.([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Save() error  { return nil }
func (m *mockConfigStore) Load() error  { return nil }
func (m *mockConfigStore) Path() string { return "config.toml" }

var _ driven.ConfigStore = (*mockConfigStore)(nil)
