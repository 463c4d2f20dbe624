package driving

import (
	"context"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

// ReportService drafts complete reports. It is the single operation the
// request layers (CLI, HTTP, MCP, TUI) call.
type ReportService interface {
	// GenerateReport drafts, reviews, and optionally refines every fixed
	// section. The report is all-or-nothing: any section failure fails the call.
	GenerateReport(ctx context.Context, project domain.ProjectContext) (*domain.Report, error)
}

// SectionCatalogProvider exposes the static section table to request layers.
type SectionCatalogProvider interface {
	// Catalog returns the section catalog in use.
	Catalog() *domain.SectionCatalog
}
