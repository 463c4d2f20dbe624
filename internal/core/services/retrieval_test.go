package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/metrics"
)

func newTestRetrieval(t *testing.T, store *mockExemplarStore) *RetrievalAgent {
	t.Helper()
	agent, err := NewRetrievalAgent(context.Background(), store, &mockEmbeddingService{})
	require.NoError(t, err)
	return agent
}

func TestNewRetrievalAgent_CollectionMissing(t *testing.T) {
	_, err := NewRetrievalAgent(context.Background(), &mockExemplarStore{missing: true}, &mockEmbeddingService{})
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)
}

func TestNewRetrievalAgent_ExistsError(t *testing.T) {
	cause := errors.New("disk gone")
	_, err := NewRetrievalAgent(context.Background(), &mockExemplarStore{existsErr: cause}, &mockEmbeddingService{})
	assert.ErrorIs(t, err, cause)
}

func TestNewRetrievalAgent_NoEmbedder(t *testing.T) {
	_, err := NewRetrievalAgent(context.Background(), &mockExemplarStore{}, nil)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)
}

func TestRetrieve_StrictSufficient_NoRelaxation(t *testing.T) {
	store := &mockExemplarStore{
		strict: []domain.ExemplarPassage{passage("a", ""), passage("b", ""), passage("c", "")},
	}
	agent := newTestRetrieval(t, store)

	got, err := agent.Retrieve(context.Background(), "q", domain.SectionUncertainty, "01.01.01", "pharmacy", 3)

	require.NoError(t, err)
	assert.Len(t, got, 3)
	calls := store.queries()
	require.Len(t, calls, 1)
	assert.Equal(t, 3, calls[0].topK)
	assert.Equal(t, domain.RetrievalFilter{
		Status:   domain.StatusApproved,
		Section:  domain.SectionUncertainty,
		Industry: "pharmacy",
		TechCode: "01.01.01",
	}, calls[0].filter)
}

func TestRetrieve_RelaxesTechCodeOnly(t *testing.T) {
	store := &mockExemplarStore{
		strict:  []domain.ExemplarPassage{passage("strict", "S")},
		relaxed: []domain.ExemplarPassage{passage("strict", "R"), passage("relaxed-1", ""), passage("relaxed-2", "")},
	}
	agent := newTestRetrieval(t, store)

	got, err := agent.Retrieve(context.Background(), "q", domain.SectionUncertainty, "01.01", "pharmacy", 3)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "strict", got[0].Text)
	assert.Equal(t, "S", got[0].Metadata.ProjectTitle, "strict result keeps its metadata")
	assert.Equal(t, "relaxed-1", got[1].Text)
	assert.Equal(t, "relaxed-2", got[2].Text)

	calls := store.queries()
	require.Len(t, calls, 2)
	assert.Equal(t, "", calls[1].filter.TechCode)
	assert.Equal(t, "pharmacy", calls[1].filter.Industry, "industry is never relaxed")
	assert.Equal(t, domain.StatusApproved, calls[1].filter.Status)
	assert.Equal(t, domain.SectionUncertainty, calls[1].filter.Section)
}

func TestRetrieve_NoTechCode_NoRelaxation(t *testing.T) {
	store := &mockExemplarStore{
		strict:  []domain.ExemplarPassage{passage("only", "")},
		relaxed: []domain.ExemplarPassage{passage("never", "")},
	}
	agent := newTestRetrieval(t, store)

	got, err := agent.Retrieve(context.Background(), "q", domain.SectionUncertainty, "", "pharmacy", 3)

	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Len(t, store.queries(), 1)
}

func TestRetrieve_ZeroResults(t *testing.T) {
	store := &mockExemplarStore{strict: []domain.ExemplarPassage{passage("a", "")}}
	embedder := &mockEmbeddingService{}
	agent, err := NewRetrievalAgent(context.Background(), store, embedder)
	require.NoError(t, err)

	got, err := agent.Retrieve(context.Background(), "q", domain.SectionUncertainty, "01", "x", 0)

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, store.queries())
	assert.Empty(t, embedder.inputs)
}

func TestRetrieve_BoundAndDistinct(t *testing.T) {
	dup := []domain.ExemplarPassage{
		passage("a", ""), passage("a", ""), passage("b", ""), passage("b", ""), passage("c", ""),
	}
	for n := 0; n <= 6; n++ {
		store := &mockExemplarStore{strict: dup, relaxed: dup}
		agent := newTestRetrieval(t, store)

		got, err := agent.Retrieve(context.Background(), "q", domain.SectionUncertainty, "01", "", n)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(got), n)
		seen := map[string]bool{}
		for _, p := range got {
			assert.False(t, seen[p.Text], "duplicate text %q for n=%d", p.Text, n)
			seen[p.Text] = true
		}
	}
}

func TestRetrieve_PharmacyScenario(t *testing.T) {
	store := &mockExemplarStore{
		strict:  []domain.ExemplarPassage{passage("extraction", "")},
		relaxed: []domain.ExemplarPassage{passage("extraction", ""), passage("tablet", ""), passage("assay", ""), passage("x", "")},
	}
	agent := newTestRetrieval(t, store)

	query := RetrievalQuery(domain.ProjectContext{
		Industry:           "pharmacy",
		TechCode:           "01.01",
		ProjectDescription: "Developed a new extraction process",
	})
	got, err := agent.Retrieve(context.Background(), query, domain.SectionUncertainty, "01.01", "pharmacy", 3)

	require.NoError(t, err)
	assert.Len(t, store.queries(), 2)
	assert.Equal(t, []string{"extraction", "tablet", "assay"}, texts(got))
}

func TestRetrieve_Errors(t *testing.T) {
	t.Run("embedding failure", func(t *testing.T) {
		cause := errors.New("embed down")
		agent, err := NewRetrievalAgent(context.Background(), &mockExemplarStore{}, &mockEmbeddingService{embedErr: cause})
		require.NoError(t, err)

		_, err = agent.Retrieve(context.Background(), "q", domain.SectionUncertainty, "", "", 3)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("query failure", func(t *testing.T) {
		cause := errors.New("store down")
		store := &mockExemplarStore{queryErr: cause}
		agent := newTestRetrieval(t, store)

		_, err := agent.Retrieve(context.Background(), "q", domain.SectionUncertainty, "01", "", 3)
		assert.ErrorIs(t, err, cause)
		assert.Len(t, store.queries(), 1, "no retry")
	})
}

func TestRetrieve_RelaxationPlan(t *testing.T) {
	store := &mockExemplarStore{
		strict:  nil,
		relaxed: []domain.ExemplarPassage{passage("a", "")},
	}
	agent := newTestRetrieval(t, store)
	agent.SetMetrics(metrics.New())

	require.NoError(t, agent.SetRelaxation([]domain.FilterField{domain.FilterTechCode, domain.FilterIndustry}))
	assert.ErrorIs(t, agent.SetRelaxation([]domain.FilterField{domain.FilterSection}), domain.ErrInvalidInput)

	_, err := agent.Retrieve(context.Background(), "q", domain.SectionUncertainty, "01", "pharmacy", 3)
	require.NoError(t, err)

	calls := store.queries()
	require.Len(t, calls, 3)
	assert.Equal(t, "pharmacy", calls[1].filter.Industry)
	assert.Equal(t, "", calls[2].filter.Industry)
	assert.Equal(t, "", calls[2].filter.TechCode, "relaxation is cumulative")
}

func texts(passages []domain.ExemplarPassage) []string {
	out := make([]string, len(passages))
	for i, p := range passages {
		out[i] = p.Text
	}
	return out
}
