package input

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/tui/styles"
)

func TestNewField(t *testing.T) {
	f := NewField(styles.DefaultStyles(), "Industry", "e.g. Manufacturing", true)

	require.NotNil(t, f)
	assert.Equal(t, "Industry", f.Label())
	assert.True(t, f.Required())
	assert.Equal(t, "", f.Value())
	assert.False(t, f.Focused())
}

func TestNewField_NilStyles(t *testing.T) {
	f := NewField(nil, "Tech code", "", false)

	require.NotNil(t, f)
	assert.NotNil(t, f.styles)
}

func TestField_Init(t *testing.T) {
	f := NewField(nil, "Industry", "", true)

	assert.NotNil(t, f.Init())
}

func TestField_UpdateTypesWhenFocused(t *testing.T) {
	f := NewField(nil, "Industry", "", true)
	f.Focus()

	updated, _ := f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("AI")})

	assert.Equal(t, f, updated)
	assert.Equal(t, "AI", f.Value())
}

func TestField_UpdateIgnoredWhenBlurred(t *testing.T) {
	f := NewField(nil, "Industry", "", true)

	f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})

	assert.Equal(t, "", f.Value())
}

func TestField_ViewShowsLabelAndRequiredMarker(t *testing.T) {
	required := NewField(nil, "Industry", "", true)
	optional := NewField(nil, "Tech code", "", false)

	assert.Contains(t, required.View(), "Industry *")
	assert.Contains(t, optional.View(), "Tech code")
	assert.NotContains(t, optional.View(), "Tech code *")
}

func TestField_FocusBlur(t *testing.T) {
	f := NewField(nil, "Industry", "", true)

	f.Focus()
	assert.True(t, f.Focused())

	f.Blur()
	assert.False(t, f.Focused())
}

func TestField_SetWidth(t *testing.T) {
	f := NewField(nil, "Industry", "", true)

	f.SetWidth(100)
	assert.Equal(t, 100, f.Width())
	assert.Equal(t, 94, f.textinput.Width)

	f.SetWidth(10)
	assert.Equal(t, minInputWidth, f.textinput.Width)
}

func TestField_Reset(t *testing.T) {
	f := NewField(nil, "Industry", "", true)
	f.SetValue("Software")

	f.Reset()

	assert.Equal(t, "", f.Value())
}
