package driven

import "github.com/custodia-labs/sred-drafter/internal/core/domain"

// ReportParser extracts approved section records from a source report.
type ReportParser interface {
	// Parse reads one report. sourcePath is recorded on each record as given.
	Parse(content []byte, sourcePath, reportID string) ([]domain.SectionRecord, error)

	// Extensions returns the file extensions the parser accepts, e.g. ".md".
	Extensions() []string
}
