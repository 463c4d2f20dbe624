package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/custodia-labs/sred-drafter/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
)

// Ensure ExemplarStore implements the interface.
var _ driven.ExemplarCollection = (*ExemplarStore)(nil)

// ExemplarStore is an in-memory exemplar collection. It starts out
// non-existent, like a fresh database, until Reset is called.
type ExemplarStore struct {
	mu        sync.RWMutex
	name      string
	exists    bool
	exemplars []domain.Exemplar
}

// NewExemplarStore creates an empty, non-existent collection.
func NewExemplarStore(name string) *ExemplarStore {
	if name == "" {
		name = domain.DefaultCollection
	}
	return &ExemplarStore{name: name}
}

// Name returns the collection name.
func (s *ExemplarStore) Name() string {
	return s.name
}

// Exists reports whether Reset has created the collection.
func (s *ExemplarStore) Exists(_ context.Context) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.exists, nil
}

// Reset drops all exemplars and marks the collection as created.
func (s *ExemplarStore) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = true
	s.exemplars = nil
	return nil
}

// Add appends exemplars. Duplicate IDs are rejected.
func (s *ExemplarStore) Add(_ context.Context, exemplars []domain.Exemplar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.exists {
		return domain.ErrCollectionNotFound
	}
	ids := make(map[string]struct{}, len(s.exemplars)+len(exemplars))
	for _, e := range s.exemplars {
		ids[e.ID] = struct{}{}
	}
	for _, e := range exemplars {
		if _, dup := ids[e.ID]; dup {
			return fmt.Errorf("%w: duplicate exemplar id %q", domain.ErrInvalidInput, e.ID)
		}
		ids[e.ID] = struct{}{}
	}
	s.exemplars = append(s.exemplars, exemplars...)
	return nil
}

// Count returns the number of stored exemplars.
func (s *ExemplarStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return 0, domain.ErrCollectionNotFound
	}
	return len(s.exemplars), nil
}

// Query returns up to topK passages satisfying filter, most similar first.
func (s *ExemplarStore) Query(
	_ context.Context, embedding []float32, topK int, filter domain.RetrievalFilter,
) ([]domain.ExemplarPassage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.exists {
		return nil, domain.ErrCollectionNotFound
	}
	if topK <= 0 {
		return []domain.ExemplarPassage{}, nil
	}

	var candidates []similarity.Candidate
	for i, e := range s.exemplars {
		if !filter.Matches(e.Passage.Metadata) {
			continue
		}
		if len(e.Embedding) != len(embedding) {
			return nil, fmt.Errorf("%w: query has %d dimensions, exemplar %s has %d",
				domain.ErrDimensionMismatch, len(embedding), e.ID, len(e.Embedding))
		}
		candidates = append(candidates, similarity.Candidate{Index: i, Vector: e.Embedding})
	}

	ranked := similarity.TopK(embedding, candidates, topK)
	passages := make([]domain.ExemplarPassage, 0, len(ranked))
	for _, r := range ranked {
		passages = append(passages, s.exemplars[r.Index].Passage)
	}
	return passages, nil
}
