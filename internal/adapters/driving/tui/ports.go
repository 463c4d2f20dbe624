// Package tui provides an interactive terminal user interface for drafting
// SR&ED reports. It is a driving adapter over the report service.
package tui

import (
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driving"
)

// Ports aggregates the driving ports the TUI calls.
type Ports struct {
	// Report drafts complete reports.
	Report driving.ReportService

	// Catalog supplies section labels and word targets for rendering.
	// Optional; the default catalog is used when nil.
	Catalog driving.SectionCatalogProvider
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(report driving.ReportService, catalog driving.SectionCatalogProvider) *Ports {
	return &Ports{
		Report:  report,
		Catalog: catalog,
	}
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Report == nil {
		return ErrMissingReportService
	}
	return nil
}
