package result

import (
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/pages"
	"github.com/placify/placify/internal/report"
	"github.com/placify/placify/internal/router"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/ui/components"
	"github.com/placify/placify/internal/ui/layout"
	"github.com/placify/placify/internal/ui/theme"
)

const (
	actionAnother = iota
	actionDashboard
)

var actionLabels = []string{"Take Another Test", "View Dashboard"}

// ResultScreen shows the score of a submitted test.
type ResultScreen struct {
	env     *screen.Env
	section api.Section
	view    report.ResultView
	score   api.ScoreResult
	focus   int
}

var _ screen.Screen = (*ResultScreen)(nil)
var _ screen.KeyHintProvider = (*ResultScreen)(nil)

func New(env *screen.Env, section api.Section, score api.ScoreResult) *ResultScreen {
	return &ResultScreen{env: env, section: section, score: score, view: report.TestResult(score)}
}

func (s *ResultScreen) Init() tea.Cmd { return nil }

func (s *ResultScreen) Title() string { return "Result" }

func (s *ResultScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "←→", Description: "Choose"},
		{Key: "Enter", Description: "Select"},
		{Key: "D", Description: "Dashboard"},
	}
}

// Score returns the displayed result.
func (s *ResultScreen) Score() api.ScoreResult { return s.score }

func (s *ResultScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}
	switch key.String() {
	case "left", "h", "shift+tab":
		s.focus = actionAnother
	case "right", "l", "tab":
		s.focus = actionDashboard
	case "d":
		return s, s.act(actionDashboard)
	case "enter":
		return s, s.act(s.focus)
	}
	return s, nil
}

func (s *ResultScreen) act(action int) tea.Cmd {
	if action == actionDashboard {
		return router.Replace(s.env.Open(pages.Dashboard))
	}
	// The result replaced the test screen, so popping returns to the
	// section list.
	return router.Pop()
}

func (s *ResultScreen) View(width, height int) string {
	circle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(scoreColor(s.score.Score)).
		Foreground(scoreColor(s.score.Score)).
		Bold(true).
		Padding(1, 4).
		Render(s.view.Score)

	buttons := make([]string, len(actionLabels))
	for i, label := range actionLabels {
		buttons[i] = components.Button{Label: label, Focused: i == s.focus}.View()
	}

	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(theme.Title.Render(s.view.Title))
	b.WriteString("\n")
	b.WriteString(theme.Subtitle.Render(s.section.Name))
	b.WriteString("\n\n")
	b.WriteString(circle)
	b.WriteString("\n\n")
	b.WriteString(theme.Body.Render(s.view.Summary))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, buttons[0], "   ", buttons[1]))

	content := lipgloss.NewStyle().Align(lipgloss.Center).Render(b.String())
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, content)
}

// scoreColor grades a percentage score.
func scoreColor(score float64) color.Color {
	switch {
	case score >= 70:
		return theme.Success
	case score >= 40:
		return theme.Accent
	}
	return theme.Error
}
