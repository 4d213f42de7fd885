package app

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/coach"
	"github.com/placify/placify/internal/pages"
	"github.com/placify/placify/internal/router"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/screens/admin"
	"github.com/placify/placify/internal/screens/dashboard"
	"github.com/placify/placify/internal/screens/home"
	"github.com/placify/placify/internal/screens/login"
	"github.com/placify/placify/internal/screens/resume"
	"github.com/placify/placify/internal/screens/sections"
	"github.com/placify/placify/internal/session"
	"github.com/placify/placify/internal/ui/components"
	"github.com/placify/placify/internal/ui/layout"
)

// Options configures the application.
type Options struct {
	Gateway *api.Gateway

	// Jar is forgotten on logout so a stale session is not resumed on the
	// next launch. Nil is allowed.
	Jar *api.PersistentJar

	Flow *session.Flow

	// Coach is nil when no LLM provider is configured.
	Coach        *coach.Service
	CoachTimeout time.Duration

	// Timeout bounds each API request started by a screen.
	Timeout time.Duration

	// Start is the page shown once the saved session is confirmed.
	// Defaults to pages.Student.
	Start pages.Page
}

// sessionCheckedMsg carries the answer of the startup user_info probe.
type sessionCheckedMsg struct {
	user api.Result[api.UserInfo]
}

// AppModel is the root Bubble Tea model.
type AppModel struct {
	env    *screen.Env
	jar    *api.PersistentJar
	router *router.Router
	notice components.Notice
	start  pages.Page
	width  int
	height int
}

// New creates the application. It starts on the login screen until the
// saved session, if any, is confirmed.
func New(opts Options) AppModel {
	env := &screen.Env{
		Gateway:      opts.Gateway,
		Flow:         opts.Flow,
		Coach:        opts.Coach,
		CoachTimeout: opts.CoachTimeout,
		Timeout:      opts.Timeout,
	}
	env.Open = func(p pages.Page) screen.Screen { return screenFor(env, p) }

	start := opts.Start
	if start == "" || start == pages.Login {
		start = pages.Student
	}
	return AppModel{
		env:    env,
		jar:    opts.Jar,
		router: router.New(login.New(env)),
		notice: components.NewNotice(),
		start:  start,
	}
}

// screenFor builds the screen of page p.
func screenFor(env *screen.Env, p pages.Page) screen.Screen {
	switch p {
	case pages.Tests:
		return sections.New(env)
	case pages.Dashboard:
		return dashboard.New(env)
	case pages.Resume:
		return resume.New(env)
	case pages.Admin:
		return admin.New(env)
	case pages.Student:
		return home.New(env)
	}
	return login.New(env)
}

// Env returns the environment shared by all screens.
func (m AppModel) Env() *screen.Env { return m.env }

// Active returns the screen on top of the stack.
func (m AppModel) Active() screen.Screen { return m.router.Active() }

// Notice returns the notice bar state.
func (m AppModel) Notice() components.Notice { return m.notice }

func (m AppModel) Init() tea.Cmd {
	gw, timeout := m.env.Gateway, m.env.Timeout
	checkSession := func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return sessionCheckedMsg{user: gw.UserInfo(api.WithPurpose(ctx, "check-session"))}
	}
	return tea.Batch(m.router.Active().Init(), checkSession)
}

// land shows page p for the signed-in user. The home screen sits below
// every other page so Esc returns to it. Admin-only pages fall back to
// the home screen.
func (m AppModel) land(p pages.Page) tea.Cmd {
	var cmds []tea.Cmd
	if p.AdminOnly() && !m.env.IsAdmin() {
		cmds = append(cmds, components.Notify(components.NoticeError, "Admin access required"))
		p = pages.Student
	}
	if p == pages.Login || p == "" {
		p = pages.Student
	}
	cmds = append(cmds, m.router.Reset(home.New(m.env)))
	if p != pages.Student {
		cmds = append(cmds, m.router.Push(screenFor(m.env, p)))
	}
	return tea.Batch(cmds...)
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case sessionCheckedMsg:
		// A login that finished first wins over the startup probe.
		if !msg.user.OK || m.env.User != nil {
			return m, nil
		}
		user := msg.user.Value
		m.env.User = &user
		return m, m.land(m.start)

	case screen.SignedInMsg:
		user := msg.User
		m.env.User = &user
		return m, m.land(msg.Page)

	case screen.SignedOutMsg:
		m.env.User = nil
		m.env.Flow.Manager().Clear()
		if m.jar != nil {
			if err := m.jar.Forget(context.Background()); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to forget session: %v\n", err)
			}
		}
		return m, m.router.Reset(login.New(m.env))

	case components.NoticeMsg:
		var cmd tea.Cmd
		m.notice, cmd = m.notice.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		m.notice, _ = m.notice.Update(msg)
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			if h, ok := m.router.Active().(screen.BackHandler); ok {
				return m, h.Back()
			}
			if m.router.Depth() > 1 {
				return m, router.Pop()
			}
			return m, nil
		}

	default:
		var cmd tea.Cmd
		if m.notice, cmd = m.notice.Update(msg); cmd != nil {
			return m, cmd
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.render())
	return v
}

// render draws the full frame for the current window size.
func (m AppModel) render() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	user := ""
	if m.env.User != nil {
		user = m.env.User.String() + "  "
	}
	header := layout.RenderHeader(active.Title(), user, m.width)

	hints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Quit"}}
	if p, ok := active.(screen.KeyHintProvider); ok {
		hints = append(p.KeyHints(), hints...)
	} else if m.router.Depth() > 1 {
		hints = append([]layout.KeyHint{{Key: "Esc", Description: "Back"}}, hints...)
	}
	footer := layout.RenderFooter(hints, m.width)
	notice := m.notice.View(m.width)

	content := m.router.View(m.width, layout.ContentHeight(header, notice, footer, m.height))
	return layout.RenderFrame(header, notice, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
