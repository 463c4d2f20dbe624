package driving

import (
	"context"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

// IngestService rebuilds the exemplar collection from approved reports.
type IngestService interface {
	// Ingest reads a directory of reports or a JSONL file of section records
	// and replaces the collection contents.
	Ingest(ctx context.Context, path string) (*domain.IngestSummary, error)
}
