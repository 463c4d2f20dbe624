// Package form provides the project facts form view for the TUI.
package form

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sred-drafter/internal/core/domain"
)

// Field indexes, in tab order.
const (
	FieldIndustry = iota
	FieldTechCode
	FieldDescription
	FieldCompanySummary
	fieldCount
)

// View collects the four project facts and submits them.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	fields []*input.Field
	focus  int
	err    error

	width  int
	height int
}

// NewView creates the form with the industry field focused.
func NewView(s *styles.Styles, km *keymap.KeyMap) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	fields := make([]*input.Field, fieldCount)
	fields[FieldIndustry] = input.NewField(s, "Industry", "e.g. Advanced Manufacturing", true)
	fields[FieldTechCode] = input.NewField(s, "Technology code", "e.g. 01.01", false)
	fields[FieldDescription] = input.NewField(s, "Project description", "What was attempted and why it was uncertain", false)
	fields[FieldCompanySummary] = input.NewField(s, "Company summary", "What the claimant does", false)
	fields[FieldIndustry].Focus()

	return &View{
		styles: s,
		keymap: km,
		fields: fields,
	}
}

// Init starts the cursor blinking.
func (v *View) Init() tea.Cmd {
	return v.fields[v.focus].Init()
}

// Update handles focus movement, submission and typing.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		k := msg.String()
		switch {
		case keymap.Matches(k, v.keymap.Submit):
			return v, v.submit()
		case keymap.Matches(k, v.keymap.Next):
			return v, v.setFocus(v.focus + 1)
		case keymap.Matches(k, v.keymap.Prev):
			return v, v.setFocus(v.focus - 1)
		}
	}

	var cmd tea.Cmd
	v.fields[v.focus], cmd = v.fields[v.focus].Update(msg)
	return v, cmd
}

// submit validates the facts and asks the app to start generation.
func (v *View) submit() tea.Cmd {
	project := v.Project()
	if err := project.Validate(); err != nil {
		v.err = err
		_ = v.setFocus(FieldIndustry)
		return nil
	}
	v.err = nil
	return func() tea.Msg {
		return messages.ReportRequested{Project: project}
	}
}

// setFocus moves focus, wrapping at both ends.
func (v *View) setFocus(i int) tea.Cmd {
	i = (i + fieldCount) % fieldCount
	v.fields[v.focus].Blur()
	v.focus = i
	return v.fields[v.focus].Focus()
}

// Project returns the trimmed facts currently entered.
func (v *View) Project() domain.ProjectContext {
	return domain.ProjectContext{
		Industry:           v.fields[FieldIndustry].Value(),
		TechCode:           v.fields[FieldTechCode].Value(),
		ProjectDescription: v.fields[FieldDescription].Value(),
		CompanySummary:     v.fields[FieldCompanySummary].Value(),
	}.Trimmed()
}

// View renders the form.
func (v *View) View() string {
	var b strings.Builder
	b.WriteString(v.styles.Title.Render("SR&ED Report Drafter"))
	b.WriteString("\n")

	rows := make([]string, 0, len(v.fields))
	for _, f := range v.fields {
		rows = append(rows, f.View())
	}
	b.WriteString(lipgloss.JoinVertical(lipgloss.Left, rows...))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(v.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(v.styles.Help.Render("* required   tab/shift+tab move   enter generate"))
	return b.String()
}

// SetDimensions sets the form width for all fields.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	for _, f := range v.fields {
		f.SetWidth(width - 4)
	}
}

// SetError shows an error beneath the form, e.g. a failed generation.
func (v *View) SetError(err error) {
	v.err = err
}

// Err returns the error currently shown.
func (v *View) Err() error {
	return v.err
}

// Focus returns the index of the focused field.
func (v *View) Focus() int {
	return v.focus
}

// Field returns the field at index i.
func (v *View) Field(i int) *input.Field {
	return v.fields[i]
}

// Reset clears every field and refocuses the industry field.
func (v *View) Reset() tea.Cmd {
	for _, f := range v.fields {
		f.Reset()
	}
	v.err = nil
	return v.setFocus(FieldIndustry)
}
