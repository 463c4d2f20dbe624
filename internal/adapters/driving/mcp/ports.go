package mcp

import (
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driving"
)

// Ports aggregates all port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Report drafts complete reports.
	Report driving.ReportService

	// Catalog exposes the section table. Optional; the default catalog is used otherwise.
	Catalog driving.SectionCatalogProvider

	// Prompts serves the system instructions. Optional.
	Prompts driven.PromptStore
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Report == nil {
		return ErrMissingReportService
	}
	return nil
}
