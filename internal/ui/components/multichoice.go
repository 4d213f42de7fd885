package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/session"
	"github.com/placify/placify/internal/ui/theme"
)

// QuestionCard renders one test question with its four options. The
// chosen option is highlighted; Focused draws the card border in the
// primary color.
type QuestionCard struct {
	Question session.QuestionView
	Focused  bool
	Width    int
}

func (c QuestionCard) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(theme.Text).Bold(true).
		Render(c.Question.Label() + " " + c.Question.Text))
	b.WriteString("\n")

	for _, opt := range c.Question.Options {
		marker := "( )"
		style := theme.Unselected
		if opt.Selected {
			marker = "(•)"
			style = theme.Chosen
		}
		b.WriteString("\n")
		b.WriteString(style.Render(fmt.Sprintf("  %s %s) %s", marker, opt.Letter, opt.Text)))
	}

	card := theme.Card
	if c.Focused {
		card = theme.ActiveCard
	}
	if c.Width > 4 {
		card = card.Width(c.Width)
	}
	return card.Render(b.String())
}
