package app

import (
	"context"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/api/apitest"
	"github.com/placify/placify/internal/pages"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/screen/screentest"
	"github.com/placify/placify/internal/screens/admin"
	"github.com/placify/placify/internal/screens/dashboard"
	"github.com/placify/placify/internal/screens/home"
	"github.com/placify/placify/internal/screens/login"
	"github.com/placify/placify/internal/screens/sections"
	"github.com/placify/placify/internal/session"
	"github.com/placify/placify/internal/ui/components"
)

type fixture struct {
	gw  *api.Gateway
	jar *api.PersistentJar
	srv *apitest.Server
}

func newFixture(t *testing.T) fixture {
	gw, jar, srv := screentest.NewGateway(t)
	return fixture{gw: gw, jar: jar, srv: srv}
}

func (f fixture) app(start pages.Page) AppModel {
	return New(Options{
		Gateway: f.gw,
		Jar:     f.jar,
		Flow:    session.NewFlow(session.NewManager(time.Now), f.gw),
		Timeout: 5 * time.Second,
		Start:   start,
	})
}

func (f fixture) signIn(t *testing.T, username, password string) {
	t.Helper()
	res := f.gw.Login(context.Background(), api.Credentials{Username: username, Password: password})
	require.True(t, res.OK, res.Message)
}

// drive delivers msg and then the messages its commands produce, down to
// depth levels. Notice timers are not followed.
func drive(m AppModel, msg tea.Msg, depth int) AppModel {
	next, cmd := m.Update(msg)
	m = next.(AppModel)
	if depth == 0 {
		return m
	}
	if _, ok := msg.(components.NoticeMsg); ok {
		return m
	}
	for _, out := range screentest.Run(cmd) {
		m = drive(m, out, depth-1)
	}
	return m
}

func start(m AppModel) AppModel {
	for _, msg := range screentest.Run(m.Init()) {
		m = drive(m, msg, 3)
	}
	return m
}

func TestApp_StartsOnLoginWithoutSession(t *testing.T) {
	f := newFixture(t)
	m := start(f.app(pages.Dashboard))

	assert.IsType(t, &login.LoginScreen{}, m.Active())
	assert.Nil(t, m.Env().User)
}

func TestApp_ResumesSavedSession(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, apitest.StudentUsername, apitest.StudentPassword)

	m := start(f.app(pages.Dashboard))
	require.NotNil(t, m.Env().User)
	assert.Equal(t, apitest.StudentUsername, m.Env().User.Username)
	assert.IsType(t, &dashboard.DashboardScreen{}, m.Active())
	assert.Equal(t, 2, m.router.Depth())

	m = drive(m, screentest.SpecialKey(tea.KeyEscape), 1)
	assert.IsType(t, &home.HomeScreen{}, m.Active())
}

func TestApp_AdminPageRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, apitest.StudentUsername, apitest.StudentPassword)

	m := start(f.app(pages.Admin))
	assert.IsType(t, &home.HomeScreen{}, m.Active())
	assert.Equal(t, "Admin access required", m.Notice().Text())
	assert.Equal(t, components.NoticeError, m.Notice().Kind())
}

func TestApp_SignedInLandsOnRedirect(t *testing.T) {
	f := newFixture(t)
	m := start(f.app(""))
	f.signIn(t, apitest.AdminUsername, apitest.AdminPassword)

	user := f.gw.UserInfo(context.Background())
	require.True(t, user.OK)
	m = drive(m, screen.SignedInMsg{User: user.Value, Page: pages.Admin}, 2)
	assert.IsType(t, &admin.AdminScreen{}, m.Active())

	m = drive(m, screen.SignedInMsg{User: user.Value, Page: pages.Tests}, 2)
	assert.IsType(t, &sections.SectionsScreen{}, m.Active())
}

func TestApp_SignOutForgetsSession(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, apitest.StudentUsername, apitest.StudentPassword)
	m := start(f.app(pages.Student))
	require.True(t, f.jar.HasSession())

	m.Env().Flow.Manager().Start(1, "Aptitude")
	m = drive(m, screen.SignedOutMsg{}, 1)

	assert.IsType(t, &login.LoginScreen{}, m.Active())
	assert.Nil(t, m.Env().User)
	assert.Nil(t, m.Env().Flow.Manager().Active())
	assert.False(t, f.jar.HasSession())
}

func TestApp_NoticeAndQuit(t *testing.T) {
	f := newFixture(t)
	m := start(f.app(""))

	m = drive(m, components.NoticeMsg{Kind: components.NoticeSuccess, Text: "Saved"}, 1)
	assert.Equal(t, "Saved", m.Notice().Text())

	m = drive(m, tea.WindowSizeMsg{Width: 100, Height: 40}, 0)
	view := m.View()
	assert.True(t, view.AltScreen)

	next, cmd := m.Update(screentest.Ctrl('c'))
	m = next.(AppModel)
	require.NotNil(t, cmd)
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit)
	assert.False(t, m.Notice().Visible(), "a key press dismisses the notice")
}

func TestApp_ViewShowsUser(t *testing.T) {
	f := newFixture(t)
	f.signIn(t, apitest.StudentUsername, apitest.StudentPassword)
	m := start(f.app(pages.Student))
	m = drive(m, tea.WindowSizeMsg{Width: 120, Height: 40}, 0)

	frame := m.render()
	assert.True(t, strings.Contains(frame, "Asha Rao"), "header shows the signed-in user")
	assert.True(t, strings.Contains(frame, "Ctrl+C"), "footer shows key hints")
}
