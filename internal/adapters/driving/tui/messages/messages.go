// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

// ReportRequested is sent when the form is submitted with valid project facts.
type ReportRequested struct {
	Project domain.ProjectContext
}

// ReportCompleted carries the generated report, or the failure, back to the model.
type ReportCompleted struct {
	Report *domain.Report
	Err    error
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewForm is the project facts form.
	ViewForm ViewType = iota
	// ViewGenerating shows progress while the pipeline runs.
	ViewGenerating
	// ViewReport is the scrollable report view.
	ViewReport
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewForm:
		return "form"
	case ViewGenerating:
		return "generating"
	case ViewReport:
		return "report"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
