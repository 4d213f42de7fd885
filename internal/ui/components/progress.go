package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/ui/theme"
)

// ProgressBar displays a horizontal bar. Percent is a fraction in 0..1.
type ProgressBar struct {
	Label   string
	Percent float64
	Caption string // shown after the bar; empty for none
	Width   int
}

func NewProgressBar(label string, percent float64, caption string, width int) ProgressBar {
	return ProgressBar{Label: label, Percent: percent, Caption: caption, Width: width}
}

func (p ProgressBar) View() string {
	var out string
	if p.Label != "" {
		out = lipgloss.NewStyle().Foreground(theme.Text).Render(p.Label) + "  "
	}

	captionWidth := 0
	if p.Caption != "" {
		captionWidth = lipgloss.Width(p.Caption) + 2
	}
	barWidth := max(p.Width-lipgloss.Width(out)-captionWidth, 4)

	filled := min(max(int(float64(barWidth)*p.Percent), 0), barWidth)
	out += theme.ProgressFilled.Render(strings.Repeat(" ", filled)) +
		theme.ProgressEmpty.Render(strings.Repeat(" ", barWidth-filled))

	if p.Caption != "" {
		out += lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf("  %s", p.Caption))
	}
	return out
}
