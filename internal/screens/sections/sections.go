package sections

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/report"
	"github.com/placify/placify/internal/router"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/screens/test"
	"github.com/placify/placify/internal/ui/components"
	"github.com/placify/placify/internal/ui/layout"
	"github.com/placify/placify/internal/ui/theme"
)

type sectionsLoadedMsg struct {
	to     screen.Screen
	result api.Result[[]api.Section]
}

func (m sectionsLoadedMsg) Recipient() screen.Screen { return m.to }

// SectionsScreen lists the test sections and starts a test.
type SectionsScreen struct {
	env      *screen.Env
	sections []api.Section
	cards    []report.SectionCard
	selected int
	loaded   bool
	errMsg   string
}

var _ screen.Screen = (*SectionsScreen)(nil)
var _ screen.KeyHintProvider = (*SectionsScreen)(nil)

func New(env *screen.Env) *SectionsScreen {
	return &SectionsScreen{env: env}
}

func (s *SectionsScreen) Init() tea.Cmd {
	return s.load()
}

func (s *SectionsScreen) load() tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		return sectionsLoadedMsg{to: s, result: env.Gateway.TestSections(api.WithPurpose(ctx, "load-sections"))}
	}
}

func (s *SectionsScreen) Title() string {
	return "Tests"
}

func (s *SectionsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Start Test"},
		{Key: "R", Description: "Refresh"},
		{Key: "Esc", Description: "Back"},
	}
}

// Selected returns the highlighted section, if any.
func (s *SectionsScreen) Selected() (api.Section, bool) {
	if s.selected < 0 || s.selected >= len(s.sections) {
		return api.Section{}, false
	}
	return s.sections[s.selected], true
}

func (s *SectionsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case sectionsLoadedMsg:
		s.loaded = true
		if !msg.result.OK {
			s.errMsg = msg.result.MessageOr("Failed to load test sections")
			return s, components.Notify(components.NoticeError, s.errMsg)
		}
		s.errMsg = ""
		s.sections = msg.result.Value
		s.cards = report.SectionCards(s.sections)
		s.selected = min(s.selected, max(len(s.sections)-1, 0))
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.sections)-1 {
				s.selected++
			}
		case "r":
			s.loaded = false
			return s, s.load()
		case "enter":
			if sec, ok := s.Selected(); ok {
				return s, router.Push(test.New(s.env, sec))
			}
		}
	}
	return s, nil
}

func (s *SectionsScreen) View(width, height int) string {
	if !s.loaded {
		return layout.Centered("\n\nLoading test sections...", width, theme.Hint)
	}
	if s.errMsg != "" {
		return layout.Centered(fmt.Sprintf("\n\nError: %s\n\nPress R to retry.", s.errMsg), width, theme.ErrorText)
	}
	if len(s.cards) == 0 {
		return layout.Centered("\n\nNo test sections available.", width, theme.Hint)
	}

	cw := min(width-4, 70)
	var b strings.Builder
	b.WriteString("\n")
	for i, c := range s.cards {
		body := theme.Title.Render(c.Name) + "\n" +
			theme.Body.Render(c.Description) + "\n" +
			theme.Subtitle.Render(c.Questions+"   "+c.TimeLimit)
		card := theme.Card
		if i == s.selected {
			card = theme.ActiveCard
		}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, card.Width(cw).Render(body)))
		b.WriteString("\n")
	}
	return b.String()
}
