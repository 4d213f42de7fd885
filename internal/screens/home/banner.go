package home

import (
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/ui/theme"
)

const bannerFull = `█▀█ █   ▄▀█ █▀▀ █ █▀▀ █▄█
█▀▀ █▄▄ █▀█ █▄▄ █ █▀   █ `

const bannerCompact = "P · L · A · C · I · F · Y"

// contentWidth is the shared width of the home sections.
func contentWidth(frameWidth int) int {
	return min(max(frameWidth-6, 20), 60)
}

func renderBanner(cw int, compact bool) string {
	art := bannerFull
	if compact {
		art = bannerCompact
	}
	return lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		Width(cw).
		Align(lipgloss.Center).
		Render(art)
}
