// Package screentest wires screens to a fake Placify service for tests.
package screentest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/api/apitest"
	"github.com/placify/placify/internal/pages"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/session"
	"github.com/placify/placify/internal/store"
)

// Opened is the stand-in screen returned by Env.Open.
type Opened struct {
	Page pages.Page
}

func (o *Opened) Init() tea.Cmd                           { return nil }
func (o *Opened) Update(tea.Msg) (screen.Screen, tea.Cmd) { return o, nil }
func (o *Opened) View(int, int) string                    { return string(o.Page) }
func (o *Opened) Title() string                           { return string(o.Page) }

// NewGateway returns a gateway talking to a fresh fake server, with
// cookies and calls kept in an in-memory store.
func NewGateway(t testing.TB) (*api.Gateway, *api.PersistentJar, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	st, err := store.Open(fmt.Sprintf("file:screen_%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := api.DefaultConfig()
	cfg.Server = srv.URL
	gw, jar, err := api.New(context.Background(), cfg, st.CookieRepo(), st.CallRepo())
	if err != nil {
		t.Fatal(err)
	}
	return gw, jar, srv
}

// NewEnv returns an Env backed by a fresh fake server and in-memory
// store. Env.Open yields *Opened placeholders.
func NewEnv(t testing.TB) (*screen.Env, *apitest.Server) {
	t.Helper()
	gw, _, srv := NewGateway(t)
	env := &screen.Env{
		Gateway: gw,
		Flow:    session.NewFlow(session.NewManager(time.Now), gw),
		Timeout: 5 * time.Second,
		Open:    func(p pages.Page) screen.Screen { return &Opened{Page: p} },
	}
	return env, srv
}

// SignIn logs env in as the given account and records the user.
func SignIn(t testing.TB, env *screen.Env, username, password string) {
	t.Helper()
	ctx := context.Background()
	if res := env.Gateway.Login(ctx, api.Credentials{Username: username, Password: password}); !res.OK {
		t.Fatalf("login %s: %s", username, res.Message)
	}
	info := env.Gateway.UserInfo(ctx)
	if !info.OK {
		t.Fatalf("user info: %s", info.Message)
	}
	env.User = &info.Value
}

// KeyPress builds a printable key press.
func KeyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

// SpecialKey builds a non-printable key press such as tea.KeyEnter.
func SpecialKey(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

// Ctrl builds a ctrl+<r> key press.
func Ctrl(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Mod: tea.ModCtrl}
}

// Type sends each rune of text to s.
func Type(s screen.Screen, text string) screen.Screen {
	for _, r := range text {
		s, _ = s.Update(KeyPress(r))
	}
	return s
}

// Run executes cmd and returns its message, expanding batches. Commands
// that do not finish within a short deadline, such as cursor blinks and
// timers, are skipped.
func Run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(3 * time.Second):
		return nil
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, Run(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

// Find returns the first message of type T in msgs.
func Find[T any](msgs []tea.Msg) (T, bool) {
	for _, m := range msgs {
		if v, ok := m.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
