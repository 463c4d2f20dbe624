package domain

import (
	"fmt"
	"strings"
)

// minDescriptionLength is the shortest project description the request layers accept.
const minDescriptionLength = 10

// ProjectContext holds the caller-supplied facts for one report request.
// It is read-only once constructed.
type ProjectContext struct {
	// Industry is the project's industry or domain (required).
	Industry string `json:"industry"`

	// TechCode is the technology classification code, e.g. "01.01".
	TechCode string `json:"tech_code,omitempty"`

	// ProjectDescription is a brief summary of the work.
	ProjectDescription string `json:"project_description,omitempty"`

	// CompanySummary describes the claimant's business.
	CompanySummary string `json:"company_summary,omitempty"`
}

// Trimmed returns a copy with surrounding whitespace removed from every fact.
func (p ProjectContext) Trimmed() ProjectContext {
	return ProjectContext{
		Industry:           strings.TrimSpace(p.Industry),
		TechCode:           strings.TrimSpace(p.TechCode),
		ProjectDescription: strings.TrimSpace(p.ProjectDescription),
		CompanySummary:     strings.TrimSpace(p.CompanySummary),
	}
}

// Validate checks the facts the request layers require.
func (p ProjectContext) Validate() error {
	if strings.TrimSpace(p.Industry) == "" {
		return fmt.Errorf("%w: industry is required", ErrInvalidInput)
	}
	return nil
}

// ValidateDescription applies the minimum description length used by the HTTP API.
func (p ProjectContext) ValidateDescription() error {
	if len(strings.TrimSpace(p.ProjectDescription)) < minDescriptionLength {
		return fmt.Errorf("%w: project description must be at least %d characters",
			ErrInvalidInput, minDescriptionLength)
	}
	return nil
}
