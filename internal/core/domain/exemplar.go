package domain

// StatusApproved marks an exemplar taken from an accepted report.
const StatusApproved = "approved"

// Metadata keys carried by every exemplar.
const (
	MetaStatus       = "status"
	MetaSection      = "section"
	MetaIndustry     = "industry"
	MetaTechCode     = "tech_code"
	MetaProjectTitle = "project_title"
	MetaSourcePath   = "source_path"
	MetaReportID     = "report_id"
)

// ExemplarMetadata describes where an exemplar passage came from.
type ExemplarMetadata struct {
	Status       string `json:"status"`
	Section      string `json:"section"`
	Industry     string `json:"industry"`
	TechCode     string `json:"tech_code"`
	ProjectTitle string `json:"project_title"`
	SourcePath   string `json:"source_path"`
	ReportID     string `json:"report_id"`
}

// Map returns the metadata keyed by the well-known metadata names.
func (m ExemplarMetadata) Map() map[string]string {
	return map[string]string{
		MetaStatus:       m.Status,
		MetaSection:      m.Section,
		MetaIndustry:     m.Industry,
		MetaTechCode:     m.TechCode,
		MetaProjectTitle: m.ProjectTitle,
		MetaSourcePath:   m.SourcePath,
		MetaReportID:     m.ReportID,
	}
}

// ExemplarPassage is a previously approved section returned by a similarity query.
type ExemplarPassage struct {
	// Text is the body content.
	Text string `json:"text"`

	// Metadata holds the passage attributes.
	Metadata ExemplarMetadata `json:"metadata"`
}

// Exemplar is a passage as stored in the exemplar collection.
type Exemplar struct {
	// ID is unique within the collection.
	ID string

	// Passage is the text and metadata returned by queries.
	Passage ExemplarPassage

	// Embedding is the vector representation of Passage.Text.
	Embedding []float32
}

// SectionRecord is one approved section extracted from a source report,
// before it is embedded.
type SectionRecord struct {
	ReportID     string     `json:"report_id"`
	ProjectTitle string     `json:"project_title"`
	Status       string     `json:"status"`
	Industry     string     `json:"industry"`
	TechCode     string     `json:"tech_code"`
	Section      SectionKey `json:"section"`
	Text         string     `json:"text"`
	SourcePath   string     `json:"source_path"`
}

// Metadata returns the exemplar metadata for this record.
func (r SectionRecord) Metadata() ExemplarMetadata {
	return ExemplarMetadata{
		Status:       r.Status,
		Section:      string(r.Section),
		Industry:     r.Industry,
		TechCode:     r.TechCode,
		ProjectTitle: r.ProjectTitle,
		SourcePath:   r.SourcePath,
		ReportID:     r.ReportID,
	}
}

// IngestSummary reports the outcome of loading exemplars into the collection.
type IngestSummary struct {
	// Collection is the name of the collection that was rebuilt.
	Collection string

	// Reports is the number of source reports read.
	Reports int

	// Records is the number of section records extracted.
	Records int

	// BySection counts records per section.
	BySection map[SectionKey]int

	// Skipped lists source files that produced no records.
	Skipped []string
}
