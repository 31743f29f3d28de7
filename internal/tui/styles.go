package tui

import (
	"fmt"
	"image/color"

	"github.com/charmbracelet/lipgloss"

	"github.com/skobkin/trafficview/internal/render"
)

const (
	lampWidth  = 8
	lampHeight = 3
	barWidth   = 32
)

var (
	subtleColor  = lipgloss.Color("#626262")
	errorColor   = lipgloss.Color("#FF5F5F")
	housingColor = lipgloss.Color("#282828")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1)

	housingStyle = lipgloss.NewStyle().
			Background(housingColor).
			Padding(1, 2)

	labelStyle = lipgloss.NewStyle().
			Width(8)

	subtleStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor)
)

// terminalColor flattens an NRGBA lamp colour onto the black housing, since
// terminals have no alpha channel.
func terminalColor(c color.NRGBA) lipgloss.Color {
	scale := func(v uint8) uint8 {
		return uint8(uint16(v) * uint16(c.A) / 255)
	}

	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", scale(c.R), scale(c.G), scale(c.B)))
}

func lampStyle(slot render.Slot) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(terminalColor(slot.Color())).
		Width(lampWidth).
		Height(lampHeight)
}

func hueHex(signal render.Signal) string {
	c := signal.Hue()

	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
