package domain

// SectionKey identifies one of the fixed structural parts of a report.
type SectionKey string

// Report sections, in processing order.
const (
	// SectionUncertainty is the technological uncertainty narrative.
	SectionUncertainty SectionKey = "uncertainty"

	// SectionSystematicInvestigation is the systematic investigation narrative.
	SectionSystematicInvestigation SectionKey = "systematic_investigation"

	// SectionTechnologicalAdvancement is the technological advancement narrative.
	SectionTechnologicalAdvancement SectionKey = "technological_advancement"
)

// defaultSectionLabel is used when a key has no catalog entry and no text of its own.
const defaultSectionLabel = "Report Section"

// DefaultWordTarget is the target window for sections without a catalog entry.
var DefaultWordTarget = WordTarget{Min: 300, Max: 350}

// ReportSections returns the fixed set of report sections in processing order.
func ReportSections() []SectionKey {
	return []SectionKey{
		SectionUncertainty,
		SectionSystematicInvestigation,
		SectionTechnologicalAdvancement,
	}
}

// IsValid returns true if the key is one of the fixed report sections.
func (k SectionKey) IsValid() bool {
	switch k {
	case SectionUncertainty, SectionSystematicInvestigation, SectionTechnologicalAdvancement:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k SectionKey) String() string {
	return string(k)
}

// WordTarget is the advisory word count window passed to the generator.
type WordTarget struct {
	Min int
	Max int
}

// SectionSpec is the static description of one report section.
type SectionSpec struct {
	// Key identifies the section.
	Key SectionKey

	// Label is the human-readable section title.
	Label string

	// Words is the advisory length window.
	Words WordTarget

	// Known is false when the spec was synthesised for a key outside the catalog.
	Known bool
}

// SectionCatalog is the immutable section table shared by the agents.
// Build it once with DefaultSectionCatalog and pass it by reference.
type SectionCatalog struct {
	order []SectionKey
	specs map[SectionKey]SectionSpec
}

// DefaultSectionCatalog returns the standard three-section catalog.
func DefaultSectionCatalog() *SectionCatalog {
	return NewSectionCatalog(
		SectionSpec{
			Key:   SectionUncertainty,
			Label: "Technological Uncertainty",
			Words: WordTarget{Min: 300, Max: 350},
		},
		SectionSpec{
			Key:   SectionSystematicInvestigation,
			Label: "Systematic Investigation",
			Words: WordTarget{Min: 650, Max: 700},
		},
		SectionSpec{
			Key:   SectionTechnologicalAdvancement,
			Label: "Technological Advancement",
			Words: WordTarget{Min: 300, Max: 350},
		},
	)
}

// NewSectionCatalog builds a catalog from the given specs, preserving their order.
// Later specs with a duplicate key replace earlier ones.
func NewSectionCatalog(specs ...SectionSpec) *SectionCatalog {
	c := &SectionCatalog{
		specs: make(map[SectionKey]SectionSpec, len(specs)),
	}
	for _, spec := range specs {
		if _, dup := c.specs[spec.Key]; !dup {
			c.order = append(c.order, spec.Key)
		}
		spec.Known = true
		c.specs[spec.Key] = spec
	}
	return c
}

// Lookup resolves a section key. Unknown keys never fail: they get the
// default word target and a label derived from the key itself.
func (c *SectionCatalog) Lookup(key SectionKey) SectionSpec {
	if c != nil {
		if spec, ok := c.specs[key]; ok {
			return spec
		}
	}

	label := string(key)
	if label == "" {
		label = defaultSectionLabel
	}
	return SectionSpec{
		Key:   key,
		Label: label,
		Words: DefaultWordTarget,
	}
}

// Keys returns the catalog keys in declaration order.
func (c *SectionCatalog) Keys() []SectionKey {
	if c == nil {
		return nil
	}
	keys := make([]SectionKey, len(c.order))
	copy(keys, c.order)
	return keys
}

// Specs returns the catalog entries in declaration order.
func (c *SectionCatalog) Specs() []SectionSpec {
	if c == nil {
		return nil
	}
	specs := make([]SectionSpec, 0, len(c.order))
	for _, key := range c.order {
		specs = append(specs, c.specs[key])
	}
	return specs
}
