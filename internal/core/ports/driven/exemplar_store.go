package driven

import (
	"context"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

// ExemplarStore is the read-only similarity index over approved sections.
// It is shared by concurrent section pipelines and must be safe for
// concurrent queries.
type ExemplarStore interface {
	// Exists reports whether the backing collection has been created.
	Exists(ctx context.Context) (bool, error)

	// Query returns up to topK passages matching every field of the filter,
	// closest first.
	Query(
		ctx context.Context, embedding []float32, topK int, filter domain.RetrievalFilter,
	) ([]domain.ExemplarPassage, error)
}

// ExemplarWriter rebuilds the collection. Only ingestion uses it.
type ExemplarWriter interface {
	// Reset drops the collection if present and creates it empty.
	Reset(ctx context.Context) error

	// Add inserts exemplars into the collection.
	Add(ctx context.Context, exemplars []domain.Exemplar) error

	// Count returns the number of exemplars in the collection.
	Count(ctx context.Context) (int, error)
}

// ExemplarCollection combines the read and write sides of one named collection.
type ExemplarCollection interface {
	ExemplarStore
	ExemplarWriter

	// Name returns the collection name.
	Name() string
}
