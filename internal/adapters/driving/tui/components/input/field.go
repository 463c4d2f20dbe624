// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/styles"
)

const (
	defaultCharLimit = 2000
	minInputWidth    = 20
)

// Field wraps a bubbles textinput with a label and a required marker.
type Field struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	required  bool
	width     int
}

// NewField creates an unfocused labelled input.
func NewField(s *styles.Styles, label, placeholder string, required bool) *Field {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = defaultCharLimit
	ti.Width = 60
	ti.Prompt = ""

	return &Field{
		textinput: ti,
		styles:    s,
		label:     label,
		required:  required,
		width:     60,
	}
}

// Init initialises the field.
func (f *Field) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages. Unfocused fields ignore key presses.
func (f *Field) Update(msg tea.Msg) (*Field, tea.Cmd) {
	var cmd tea.Cmd
	f.textinput, cmd = f.textinput.Update(msg)
	return f, cmd
}

// View renders the label above the framed input.
func (f *Field) View() string {
	label := f.label
	if f.required {
		label += " *"
	}

	labelStyle, frame := f.styles.Label, f.styles.InputField
	if f.Focused() {
		labelStyle, frame = f.styles.FocusedLabel, f.styles.FocusedInput
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render(label),
		frame.Render(f.textinput.View()),
	)
}

// Label returns the field label.
func (f *Field) Label() string {
	return f.label
}

// Required reports whether the field must be non-empty.
func (f *Field) Required() bool {
	return f.required
}

// Value returns the current input value.
func (f *Field) Value() string {
	return f.textinput.Value()
}

// SetValue sets the input value.
func (f *Field) SetValue(value string) {
	f.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (f *Field) Focus() tea.Cmd {
	return f.textinput.Focus()
}

// Blur removes focus from the input.
func (f *Field) Blur() {
	f.textinput.Blur()
}

// Focused returns whether the input is focused.
func (f *Field) Focused() bool {
	return f.textinput.Focused()
}

// SetWidth sets the width of the input, leaving room for the frame.
func (f *Field) SetWidth(width int) {
	f.width = width
	inputWidth := width - 6
	if inputWidth < minInputWidth {
		inputWidth = minInputWidth
	}
	f.textinput.Width = inputWidth
}

// Width returns the current width.
func (f *Field) Width() int {
	return f.width
}

// Reset clears the input.
func (f *Field) Reset() {
	f.textinput.Reset()
}
