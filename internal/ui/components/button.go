package components

import (
	"github.com/placify/placify/internal/ui/theme"
)

// Button renders a form action. It has no behavior of its own; the
// owning form decides what Enter does when the button is focused.
type Button struct {
	Label   string
	Focused bool
}

func (b Button) View() string {
	if b.Focused {
		return theme.ButtonActive.Render("▸ " + b.Label)
	}
	return theme.ButtonInactive.Render(b.Label)
}
