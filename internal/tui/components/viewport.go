package components

import (
	"github.com/Digital-Shane/quickfill/internal/tui/theme"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// NewViewport returns a borderless viewport padded like the theme's panels.
func NewViewport(width, height int, th theme.Theme) *viewport.Model {
	vp := viewport.New(width, height)
	vp.Style = th.PanelStyle().
		BorderStyle(lipgloss.Border{}).
		BorderForeground(lipgloss.Color(""))
	return &vp
}

// SizedPanel returns the theme's panel style fitted to an outer width and
// height, with the border drawn in border when it is set.
func SizedPanel(th theme.Theme, width, height int, border lipgloss.Color) lipgloss.Style {
	style := th.PanelStyle()
	if border != "" {
		style = style.BorderForeground(border)
	}
	if width > 0 {
		style = style.Width(max(width-style.GetHorizontalFrameSize(), 0))
	}
	if height > 0 {
		style = style.Height(max(height-style.GetVerticalFrameSize(), 0))
	}
	return style.Padding(0, 1)
}
