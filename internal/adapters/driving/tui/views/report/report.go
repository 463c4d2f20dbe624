// Package report provides the scrollable report view for the TUI.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

// chromeHeight is the rows taken by the header and status bar.
const chromeHeight = 4

// View shows a generated report in a viewport.
type View struct {
	styles  *styles.Styles
	catalog *domain.SectionCatalog

	viewport viewport.Model
	report   *domain.Report
	words    int

	width  int
	height int
}

// NewView creates an empty report view. A nil catalog uses the default one.
func NewView(s *styles.Styles, catalog *domain.SectionCatalog) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if catalog == nil {
		catalog = domain.DefaultSectionCatalog()
	}
	return &View{
		styles:   s,
		catalog:  catalog,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   20 + chromeHeight,
	}
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// SetReport replaces the displayed report and scrolls to the top.
func (v *View) SetReport(r *domain.Report) {
	v.report = r
	v.render()
	v.viewport.GotoTop()
}

// Update forwards scrolling keys to the viewport.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

// View renders the header and the viewport.
func (v *View) View() string {
	if v.report == nil {
		return v.styles.Muted.Render("No report generated yet.")
	}
	header := v.styles.Title.Render(fmt.Sprintf("Report %s", v.report.ID))
	footer := v.styles.Muted.Render(fmt.Sprintf("%3.f%%", v.viewport.ScrollPercent()*100))
	return lipgloss.JoinVertical(lipgloss.Left, header, v.viewport.View(), footer)
}

// render lays out every catalog section with its word count against target.
func (v *View) render() {
	v.words = 0
	if v.report == nil {
		v.viewport.SetContent("")
		return
	}

	body := lipgloss.NewStyle().Width(v.viewport.Width)
	var b strings.Builder
	for _, spec := range v.catalog.Specs() {
		text := v.report.Sections[spec.Key]
		n := len(strings.Fields(text))
		v.words += n

		b.WriteString(v.styles.SectionHeading.Render(spec.Label))
		b.WriteString("\n")
		b.WriteString(v.countStyle(n, spec.Words).Render(
			fmt.Sprintf("%d words (target %d-%d)", n, spec.Words.Min, spec.Words.Max)))
		b.WriteString("\n\n")
		b.WriteString(body.Render(text))
		b.WriteString("\n\n")
	}
	v.viewport.SetContent(strings.TrimRight(b.String(), "\n"))
}

// countStyle flags sections outside their advisory window.
func (v *View) countStyle(n int, target domain.WordTarget) lipgloss.Style {
	if n < target.Min || n > target.Max {
		return v.styles.Warning
	}
	return v.styles.Muted
}

// SetDimensions resizes the viewport and re-wraps the report.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.viewport.Width = width
	v.viewport.Height = max(height-chromeHeight, 1)
	v.render()
}

// Report returns the displayed report.
func (v *View) Report() *domain.Report {
	return v.report
}

// WordCount returns the total words across displayed sections.
func (v *View) WordCount() int {
	return v.words
}

// AtTop reports whether the viewport is scrolled to the top.
func (v *View) AtTop() bool {
	return v.viewport.AtTop()
}

// Content returns the rendered report body, unclipped.
func (v *View) Content() string {
	var b strings.Builder
	for _, spec := range v.catalog.Specs() {
		if v.report == nil {
			break
		}
		b.WriteString(spec.Label)
		b.WriteString("\n")
		b.WriteString(v.report.Sections[spec.Key])
		b.WriteString("\n\n")
	}
	return b.String()
}
