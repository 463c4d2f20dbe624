package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() {
		assert.NoError(t, store.Close())
	})
	return store
}

func testExemplar(id, text string, section domain.SectionKey, techCode, industry string, vec ...float32) domain.Exemplar {
	return domain.Exemplar{
		ID: id,
		Passage: domain.ExemplarPassage{
			Text: text,
			Metadata: domain.ExemplarMetadata{
				Status:       domain.StatusApproved,
				Section:      string(section),
				Industry:     industry,
				TechCode:     techCode,
				ProjectTitle: "Project " + id,
				SourcePath:   "reports/" + id + ".md",
				ReportID:     "001",
			},
		},
		Embedding: vec,
	}
}

func TestNewStore(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, "exemplars.db"), store.Path())
}

func TestNewStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	coll := store.Collection("")
	require.NoError(t, coll.Reset(ctx))
	require.NoError(t, coll.Add(ctx, []domain.Exemplar{
		testExemplar("a", "text", domain.SectionUncertainty, "", "", 1, 0),
	}))
	require.NoError(t, store.Close())

	store, err = NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	n, err := store.Collection("").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestCollection_Exists(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	coll := store.Collection("sred_reports")

	assert.Equal(t, "sred_reports", coll.Name())

	exists, err := coll.Exists(ctx)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = coll.Query(ctx, []float32{1}, 3, domain.NewStrictFilter(domain.SectionUncertainty, "", ""))
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

	_, err = coll.Count(ctx)
	assert.ErrorIs(t, err, domain.ErrCollectionNotFound)

	require.NoError(t, coll.Reset(ctx))
	exists, err = coll.Exists(ctx)
	require.NoError(t, err)
	assert.True(t, exists)

	names, err := store.Collections(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sred_reports"}, names)
}

func TestCollection_QueryFilters(t *testing.T) {
	ctx := context.Background()
	coll := setupTestStore(t).Collection("")
	require.NoError(t, coll.Reset(ctx))
	require.NoError(t, coll.Add(ctx, []domain.Exemplar{
		testExemplar("a", "pharmacy strict", domain.SectionUncertainty, "01.01.01", "pharmacy", 1, 0),
		testExemplar("b", "pharmacy other code", domain.SectionUncertainty, "02.02.02", "pharmacy", 1, 0),
		testExemplar("c", "mining", domain.SectionUncertainty, "01.01.01", "mining", 1, 0),
		testExemplar("d", "advancement", domain.SectionTechnologicalAdvancement, "01.01.01", "pharmacy", 1, 0),
	}))

	tests := []struct {
		name   string
		filter domain.RetrievalFilter
		want   []string
	}{
		{"strict", domain.NewStrictFilter(domain.SectionUncertainty, "01.01.01", "pharmacy"),
			[]string{"pharmacy strict"}},
		{"no tech code", domain.NewStrictFilter(domain.SectionUncertainty, "", "pharmacy"),
			[]string{"pharmacy strict", "pharmacy other code"}},
		{"section only", domain.NewStrictFilter(domain.SectionUncertainty, "", ""),
			[]string{"pharmacy strict", "pharmacy other code", "mining"}},
		{"other section", domain.NewStrictFilter(domain.SectionTechnologicalAdvancement, "", ""),
			[]string{"advancement"}},
		{"no match", domain.NewStrictFilter(domain.SectionSystematicInvestigation, "", ""),
			[]string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := coll.Query(ctx, []float32{1, 0}, 10, tt.filter)
			require.NoError(t, err)
			texts := make([]string, 0, len(got))
			for _, p := range got {
				texts = append(texts, p.Text)
			}
			assert.Equal(t, tt.want, texts)
		})
	}
}

func TestCollection_QueryStatusFilter(t *testing.T) {
	ctx := context.Background()
	coll := setupTestStore(t).Collection("")
	require.NoError(t, coll.Reset(ctx))

	draft := testExemplar("a", "draft", domain.SectionUncertainty, "", "", 1)
	draft.Passage.Metadata.Status = "draft"
	require.NoError(t, coll.Add(ctx, []domain.Exemplar{
		draft,
		testExemplar("b", "approved", domain.SectionUncertainty, "", "", 1),
	}))

	got, err := coll.Query(ctx, []float32{1}, 5, domain.NewStrictFilter(domain.SectionUncertainty, "", ""))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "approved", got[0].Text)
}

func TestCollection_QueryRanksAndLimits(t *testing.T) {
	ctx := context.Background()
	coll := setupTestStore(t).Collection("")
	require.NoError(t, coll.Reset(ctx))
	require.NoError(t, coll.Add(ctx, []domain.Exemplar{
		testExemplar("a", "orthogonal", domain.SectionUncertainty, "", "", 0, 1),
		testExemplar("b", "close", domain.SectionUncertainty, "", "", 1, 0.1),
		testExemplar("c", "exact", domain.SectionUncertainty, "", "", 1, 0),
		testExemplar("d", "exact twin", domain.SectionUncertainty, "", "", 2, 0),
	}))

	got, err := coll.Query(ctx, []float32{1, 0}, 3, domain.NewStrictFilter(domain.SectionUncertainty, "", ""))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "exact", got[0].Text)
	assert.Equal(t, "exact twin", got[1].Text, "ties keep insertion order")
	assert.Equal(t, "close", got[2].Text)

	// Metadata round-trips.
	assert.Equal(t, domain.ExemplarMetadata{
		Status:       domain.StatusApproved,
		Section:      string(domain.SectionUncertainty),
		ProjectTitle: "Project c",
		SourcePath:   "reports/c.md",
		ReportID:     "001",
	}, got[0].Metadata)

	got, err = coll.Query(ctx, []float32{1, 0}, 0, domain.NewStrictFilter(domain.SectionUncertainty, "", ""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollection_Dimensions(t *testing.T) {
	ctx := context.Background()
	coll := setupTestStore(t).Collection("")
	require.NoError(t, coll.Reset(ctx))
	require.NoError(t, coll.Add(ctx, []domain.Exemplar{
		testExemplar("a", "x", domain.SectionUncertainty, "", "", 1, 0, 0),
	}))

	err := coll.Add(ctx, []domain.Exemplar{testExemplar("b", "y", domain.SectionUncertainty, "", "", 1)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = coll.Query(ctx, []float32{1, 0}, 1, domain.NewStrictFilter(domain.SectionUncertainty, "", ""))
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestCollection_ResetReplaces(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	coll := store.Collection("")
	other := store.Collection("other")

	require.NoError(t, coll.Reset(ctx))
	require.NoError(t, other.Reset(ctx))
	require.NoError(t, coll.Add(ctx, []domain.Exemplar{
		testExemplar("a", "x", domain.SectionUncertainty, "", "", 1),
		testExemplar("b", "y", domain.SectionUncertainty, "", "", 1),
	}))
	require.NoError(t, other.Add(ctx, []domain.Exemplar{
		testExemplar("a", "x", domain.SectionUncertainty, "", "", 1, 1),
	}))

	require.NoError(t, coll.Reset(ctx))
	n, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = other.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "collections are independent")

	// A reset collection accepts a new vector size.
	require.NoError(t, coll.Add(ctx, []domain.Exemplar{
		testExemplar("a", "x", domain.SectionUncertainty, "", "", 1, 2, 3),
	}))
}

func TestCollection_DuplicateID(t *testing.T) {
	ctx := context.Background()
	coll := setupTestStore(t).Collection("")
	require.NoError(t, coll.Reset(ctx))

	err := coll.Add(ctx, []domain.Exemplar{
		testExemplar("a", "x", domain.SectionUncertainty, "", "", 1),
		testExemplar("a", "y", domain.SectionUncertainty, "", "", 1),
	})
	assert.Error(t, err)

	n, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n, "failed batch is rolled back")
}

func TestCollection_ConcurrentQueries(t *testing.T) {
	ctx := context.Background()
	coll := setupTestStore(t).Collection("")
	require.NoError(t, coll.Reset(ctx))
	batch := make([]domain.Exemplar, 0, 20)
	for i := 0; i < 20; i++ {
		batch = append(batch, testExemplar(fmt.Sprint(i), fmt.Sprint("text ", i), domain.SectionUncertainty, "", "", float32(i), 1))
	}
	require.NoError(t, coll.Add(ctx, batch))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := coll.Query(ctx, []float32{1, 0}, 3, domain.NewStrictFilter(domain.SectionUncertainty, "", ""))
			assert.NoError(t, err)
			assert.Len(t, got, 3)
		}()
	}
	wg.Wait()
}

func TestFloat32BytesRoundTrip(t *testing.T) {
	in := []float32{0, 1.5, -2.25, 3.125}
	assert.Equal(t, in, bytesToFloat32Slice(float32SliceToBytes(in)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}

func TestFilterClause(t *testing.T) {
	where, args := filterClause("c", domain.NewStrictFilter(domain.SectionUncertainty, "01", "pharmacy"))
	assert.Equal(t, "collection = ? AND industry = ? AND section = ? AND status = ? AND tech_code = ?", where)
	assert.Equal(t, []any{"c", "pharmacy", "uncertainty", "approved", "01"}, args)
}
