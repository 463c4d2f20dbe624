package domain

import "fmt"

// FilterField names one attribute a retrieval filter can constrain.
type FilterField string

// Filterable exemplar attributes.
const (
	FilterStatus   FilterField = MetaStatus
	FilterSection  FilterField = MetaSection
	FilterIndustry FilterField = MetaIndustry
	FilterTechCode FilterField = MetaTechCode
)

// DefaultRelaxation is the ordered list of fields retrieval may drop when the
// strict filter starves the result set. Industry is intentionally absent.
var DefaultRelaxation = []FilterField{FilterTechCode}

// RetrievalFilter is a conjunctive equality predicate over exemplar metadata.
// Status and Section are always set; TechCode and Industry only when non-empty.
type RetrievalFilter struct {
	Status   string
	Section  SectionKey
	Industry string
	TechCode string
}

// NewStrictFilter builds the full-constraint filter for a section.
func NewStrictFilter(section SectionKey, techCode, industry string) RetrievalFilter {
	return RetrievalFilter{
		Status:   StatusApproved,
		Section:  section,
		Industry: industry,
		TechCode: techCode,
	}
}

// Has reports whether the filter constrains the given field.
func (f RetrievalFilter) Has(field FilterField) bool {
	return f.value(field) != ""
}

// Without returns a copy of the filter with the field dropped.
// Status and section cannot be dropped.
func (f RetrievalFilter) Without(field FilterField) (RetrievalFilter, error) {
	switch field {
	case FilterIndustry:
		f.Industry = ""
	case FilterTechCode:
		f.TechCode = ""
	default:
		return f, fmt.Errorf("%w: filter field %q cannot be relaxed", ErrInvalidInput, field)
	}
	return f, nil
}

// Fields returns the constrained fields and their required values.
func (f RetrievalFilter) Fields() map[FilterField]string {
	fields := make(map[FilterField]string, 4)
	for _, field := range []FilterField{FilterStatus, FilterSection, FilterIndustry, FilterTechCode} {
		if v := f.value(field); v != "" {
			fields[field] = v
		}
	}
	return fields
}

// Matches reports whether the metadata satisfies every constrained field.
func (f RetrievalFilter) Matches(meta ExemplarMetadata) bool {
	values := meta.Map()
	for field, want := range f.Fields() {
		if values[string(field)] != want {
			return false
		}
	}
	return true
}

// String renders the filter for logs.
func (f RetrievalFilter) String() string {
	return fmt.Sprintf("status=%q section=%q industry=%q tech_code=%q",
		f.Status, f.Section, f.Industry, f.TechCode)
}

func (f RetrievalFilter) value(field FilterField) string {
	switch field {
	case FilterStatus:
		return f.Status
	case FilterSection:
		return string(f.Section)
	case FilterIndustry:
		return f.Industry
	case FilterTechCode:
		return f.TechCode
	default:
		return ""
	}
}

// ValidateRelaxation checks that a relaxation plan only names droppable fields.
func ValidateRelaxation(plan []FilterField) error {
	for _, field := range plan {
		if field != FilterIndustry && field != FilterTechCode {
			return fmt.Errorf("%w: filter field %q cannot be relaxed", ErrInvalidInput, field)
		}
	}
	return nil
}
