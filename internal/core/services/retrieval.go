package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
	"github.com/custodia-labs/sred-drafter/internal/logger"
	"github.com/custodia-labs/sred-drafter/internal/metrics"
)

// Retriever returns exemplar passages for a section.
type Retriever interface {
	Retrieve(
		ctx context.Context, query string, section domain.SectionKey, techCode, industry string, n int,
	) ([]domain.ExemplarPassage, error)
}

// Ensure RetrievalAgent implements Retriever.
var _ Retriever = (*RetrievalAgent)(nil)

// RetrievalAgent turns a query and project facts into a ranked, deduplicated
// list of exemplar passages. When the strict filter starves the result set it
// re-queries with fields dropped in relaxation plan order.
type RetrievalAgent struct {
	store      driven.ExemplarStore
	embedder   driven.EmbeddingService
	relaxation []domain.FilterField
	metrics    *metrics.Recorder
}

// NewRetrievalAgent creates a retrieval agent over an existing collection.
// It fails with domain.ErrCollectionNotFound when the collection has not been
// ingested; that error is not worth retrying.
func NewRetrievalAgent(
	ctx context.Context,
	store driven.ExemplarStore,
	embedder driven.EmbeddingService,
) (*RetrievalAgent, error) {
	if embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	exists, err := store.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check exemplar collection: %w", err)
	}
	if !exists {
		return nil, domain.ErrCollectionNotFound
	}
	return &RetrievalAgent{
		store:      store,
		embedder:   embedder,
		relaxation: append([]domain.FilterField(nil), domain.DefaultRelaxation...),
	}, nil
}

// SetRelaxation replaces the ordered list of droppable filter fields.
// Status and section can never be dropped.
func (a *RetrievalAgent) SetRelaxation(plan []domain.FilterField) error {
	if err := domain.ValidateRelaxation(plan); err != nil {
		return err
	}
	a.relaxation = append([]domain.FilterField(nil), plan...)
	return nil
}

// SetMetrics sets the metrics recorder.
func (a *RetrievalAgent) SetMetrics(m *metrics.Recorder) {
	a.metrics = m
}

// Retrieve returns at most n passages with distinct text, strict matches first.
// The agent does not retry; store and embedding failures are returned as is.
func (a *RetrievalAgent) Retrieve(
	ctx context.Context,
	query string,
	section domain.SectionKey,
	techCode, industry string,
	n int,
) ([]domain.ExemplarPassage, error) {
	logger.Section("Exemplar Retrieval")
	if n <= 0 {
		logger.Debug("n_results=%d, nothing to retrieve", n)
		return []domain.ExemplarPassage{}, nil
	}

	vec, err := a.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	filter := domain.NewStrictFilter(section, techCode, industry)
	logger.Debug("Strict filter: %s", filter)

	results, err := a.store.Query(ctx, vec, n, filter)
	if err != nil {
		return nil, fmt.Errorf("query exemplars: %w", err)
	}
	logger.Debug("Strict query returned %d of %d", len(results), n)

	for _, field := range a.relaxation {
		if len(results) >= n {
			break
		}
		if !filter.Has(field) {
			continue
		}
		filter, err = filter.Without(field)
		if err != nil {
			return nil, err
		}
		logger.Info("Relaxing %s: %s", field, filter)
		a.metrics.Relaxed(string(field))

		relaxed, err := a.store.Query(ctx, vec, n, filter)
		if err != nil {
			return nil, fmt.Errorf("query exemplars without %s: %w", field, err)
		}
		logger.Debug("Relaxed query returned %d", len(relaxed))
		results = append(results, relaxed...)
	}

	passages := dedupeByText(results, n)
	logger.Debug("Returning %d exemplar(s) for %s", len(passages), section)
	a.metrics.Retrieved(string(section), len(passages))
	return passages, nil
}

// dedupeByText keeps the first passage for each distinct text, up to limit.
func dedupeByText(passages []domain.ExemplarPassage, limit int) []domain.ExemplarPassage {
	seen := make(map[string]struct{}, len(passages))
	out := make([]domain.ExemplarPassage, 0, min(limit, len(passages)))
	for _, p := range passages {
		if len(out) == limit {
			break
		}
		if _, dup := seen[p.Text]; dup {
			continue
		}
		seen[p.Text] = struct{}{}
		out = append(out, p)
	}
	return out
}
