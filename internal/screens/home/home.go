package home

import (
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/pages"
	"github.com/placify/placify/internal/router"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/ui/components"
	"github.com/placify/placify/internal/ui/theme"
)

// Menu labels.
const (
	ItemTests     = "Take a Test"
	ItemDashboard = "Dashboard"
	ItemResume    = "Resume Builder"
	ItemAdmin     = "Admin Panel"
	ItemLogout    = "Logout"
	ItemExit      = "Exit"
)

type logoutDoneMsg struct {
	to     screen.Screen
	result api.Result[struct{}]
}

func (m logoutDoneMsg) Recipient() screen.Screen { return m.to }

// HomeScreen is the student landing screen.
type HomeScreen struct {
	env  *screen.Env
	menu components.Menu
}

var _ screen.Screen = (*HomeScreen)(nil)

func New(env *screen.Env) *HomeScreen {
	h := &HomeScreen{env: env}
	open := func(p pages.Page) func() tea.Cmd {
		return func() tea.Cmd { return router.Push(env.Open(p)) }
	}
	h.menu = components.NewMenu([]components.MenuItem{
		{Label: ItemTests, Action: open(pages.Tests)},
		{Label: ItemDashboard, Action: open(pages.Dashboard)},
		{Label: ItemResume, Action: open(pages.Resume)},
		{Label: ItemAdmin, Action: open(pages.Admin), Disabled: !env.IsAdmin()},
		{Label: ItemLogout, Action: h.logout},
		{Label: ItemExit, Action: func() tea.Cmd { return tea.Quit }},
	})
	return h
}

func (h *HomeScreen) Init() tea.Cmd {
	return nil
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) logout() tea.Cmd {
	env := h.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		return logoutDoneMsg{to: h, result: env.Gateway.Logout(api.WithPurpose(ctx, "logout"))}
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if done, ok := msg.(logoutDoneMsg); ok {
		// The local session ends even when the server call fails.
		signOut := func() tea.Msg { return screen.SignedOutMsg{} }
		if !done.result.OK {
			return h, tea.Batch(components.Notify(components.NoticeError, done.result.MessageOr("Logout failed")), signOut)
		}
		return h, signOut
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) View(width, height int) string {
	cw := contentWidth(width)
	compact := height < 20

	greeting := "Welcome!"
	if u := h.env.User; u != nil {
		greeting = "Welcome, " + u.FullName + "!"
	}

	var sections []string
	sections = append(sections, renderBanner(cw, compact))
	sections = append(sections, lipgloss.NewStyle().Width(cw).Align(lipgloss.Center).Foreground(theme.Text).Render(greeting))
	if !compact {
		sections = append(sections, theme.Subtitle.Width(cw).Align(lipgloss.Center).
			Render("Practice aptitude and technical tests, track your\nreadiness and polish your resume."))
	}
	sections = append(sections, theme.Card.Width(cw).Render(h.menu.View()))

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(sections, "\n\n"))
}
