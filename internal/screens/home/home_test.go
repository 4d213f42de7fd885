package home

import (
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/placify/placify/internal/api/apitest"
	"github.com/placify/placify/internal/pages"
	"github.com/placify/placify/internal/router"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/screen/screentest"
	"github.com/placify/placify/internal/ui/components"
)

func TestHome_AdminItemOnlyForAdmins(t *testing.T) {
	env, _ := screentest.NewEnv(t)
	screentest.SignIn(t, env, apitest.StudentUsername, apitest.StudentPassword)
	h := New(env)
	for _, item := range h.menu.Items {
		if item.Label == ItemAdmin && !item.Disabled {
			t.Error("admin item enabled for a student")
		}
	}

	screentest.SignIn(t, env, apitest.AdminUsername, apitest.AdminPassword)
	h = New(env)
	for _, item := range h.menu.Items {
		if item.Label == ItemAdmin && item.Disabled {
			t.Error("admin item disabled for an admin")
		}
	}
}

func TestHome_OpensDashboard(t *testing.T) {
	env, _ := screentest.NewEnv(t)
	h := New(env)

	var scr screen.Screen = h
	scr, _ = scr.Update(screentest.SpecialKey(tea.KeyDown))
	_, cmd := scr.Update(screentest.SpecialKey(tea.KeyEnter))

	push, ok := screentest.Find[router.PushScreenMsg](screentest.Run(cmd))
	if !ok {
		t.Fatal("expected a push")
	}
	if opened := push.Screen.(*screentest.Opened); opened.Page != pages.Dashboard {
		t.Errorf("opened %q", opened.Page)
	}
}

func TestHome_LogoutSignsOut(t *testing.T) {
	env, srv := screentest.NewEnv(t)
	screentest.SignIn(t, env, apitest.StudentUsername, apitest.StudentPassword)
	h := New(env)

	done, ok := screentest.Find[logoutDoneMsg](screentest.Run(h.logout()))
	if !ok || !done.result.OK {
		t.Fatalf("logout = %+v", done)
	}
	_, cmd := h.Update(done)
	if _, ok := screentest.Find[screen.SignedOutMsg](screentest.Run(cmd)); !ok {
		t.Error("expected SignedOutMsg")
	}
	if srv.Hits("/api/logout") != 1 {
		t.Errorf("logout hits = %d", srv.Hits("/api/logout"))
	}
}

func TestHome_LogoutFailureStillSignsOut(t *testing.T) {
	env, _ := screentest.NewEnv(t)
	h := New(env)
	_, cmd := h.Update(logoutDoneMsg{to: h})

	msgs := screentest.Run(cmd)
	if _, ok := screentest.Find[screen.SignedOutMsg](msgs); !ok {
		t.Error("expected SignedOutMsg")
	}
	if n, ok := screentest.Find[components.NoticeMsg](msgs); !ok || n.Text != "Logout failed" {
		t.Errorf("notice = %+v", n)
	}
}

func TestHome_View(t *testing.T) {
	env, _ := screentest.NewEnv(t)
	screentest.SignIn(t, env, apitest.StudentUsername, apitest.StudentPassword)
	if New(env).View(100, 30) == "" {
		t.Error("expected non-empty view")
	}
}
