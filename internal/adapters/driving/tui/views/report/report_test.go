package report

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

func testReport() *domain.Report {
	return &domain.Report{
		ID: "rep-1",
		Sections: map[domain.SectionKey]string{
			domain.SectionUncertainty:              "It was unclear whether the solver would converge.",
			domain.SectionSystematicInvestigation:  strings.Repeat("trial ", 660),
			domain.SectionTechnologicalAdvancement: "A new bound on convergence.",
		},
	}
}

func TestNewView_Empty(t *testing.T) {
	v := NewView(nil, nil)

	require.NotNil(t, v)
	assert.Nil(t, v.Report())
	assert.Contains(t, v.View(), "No report generated yet")
}

func TestView_SetReportCountsWords(t *testing.T) {
	v := NewView(nil, nil)

	v.SetReport(testReport())

	assert.Equal(t, 8+660+5, v.WordCount())
	assert.True(t, v.AtTop())
}

func TestView_ViewShowsHeadingsInCatalogOrder(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(120, 200)
	v.SetReport(testReport())

	out := v.View()

	assert.Contains(t, out, "Report rep-1")
	u := strings.Index(out, "Technological Uncertainty")
	s := strings.Index(out, "Systematic Investigation")
	require.GreaterOrEqual(t, u, 0)
	require.GreaterOrEqual(t, s, 0)
	assert.Less(t, u, s)
	assert.Contains(t, out, "8 words (target 300-350)")
}

func TestView_ScrollDown(t *testing.T) {
	v := NewView(nil, nil)
	v.SetDimensions(40, 10)
	v.SetReport(testReport())

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})

	assert.False(t, v.AtTop())
}

func TestView_ContentListsAllSections(t *testing.T) {
	v := NewView(nil, nil)
	v.SetReport(testReport())

	content := v.Content()

	assert.Contains(t, content, "Technological Advancement\nA new bound on convergence.")
}

func TestView_CustomCatalog(t *testing.T) {
	catalog := domain.NewSectionCatalog(domain.SectionSpec{
		Key:   domain.SectionUncertainty,
		Label: "Uncertainty Only",
		Words: domain.WordTarget{Min: 1, Max: 20},
	})
	v := NewView(nil, catalog)
	v.SetDimensions(100, 50)
	v.SetReport(testReport())

	out := v.View()

	assert.Contains(t, out, "Uncertainty Only")
	assert.NotContains(t, out, "Systematic Investigation")
	assert.Equal(t, 8, v.WordCount())
}
