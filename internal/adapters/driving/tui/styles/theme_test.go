package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTheme(t *testing.T) {
	theme := DefaultTheme()

	require.NotNil(t, theme)
	assert.NotEmpty(t, string(theme.Primary))
	assert.NotEmpty(t, string(theme.Secondary))
	assert.NotEmpty(t, string(theme.Error))
	assert.NotEqual(t, theme.Primary, theme.Secondary)
}

func TestNewStyles_NilThemeUsesDefault(t *testing.T) {
	s := NewStyles(nil)

	require.NotNil(t, s)
	assert.Equal(t, DefaultTheme(), s.Theme())
}

func TestNewStyles_FocusDiffersFromIdle(t *testing.T) {
	s := DefaultStyles()

	assert.True(t, s.FocusedLabel.GetBold())
	assert.False(t, s.Label.GetBold())
	assert.Equal(t, s.Theme().Primary, s.FocusedInput.GetBorderTopForeground())
	assert.Equal(t, s.Theme().Border, s.InputField.GetBorderTopForeground())
}

func TestStyles_RenderKeepsText(t *testing.T) {
	s := DefaultStyles()

	assert.Contains(t, s.SectionHeading.Render("Technological Uncertainty"), "Technological Uncertainty")
	assert.Contains(t, s.Error.Render("boom"), "boom")
}
