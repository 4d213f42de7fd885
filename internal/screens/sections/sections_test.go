package sections

import (
	"net/http"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/placify/placify/internal/api/apitest"
	"github.com/placify/placify/internal/router"
	"github.com/placify/placify/internal/screen/screentest"
	"github.com/placify/placify/internal/screens/test"
	"github.com/placify/placify/internal/ui/components"
)

func loaded(t *testing.T, s *SectionsScreen) {
	t.Helper()
	msg, ok := screentest.Find[sectionsLoadedMsg](screentest.Run(s.Init()))
	if !ok {
		t.Fatal("expected sectionsLoadedMsg")
	}
	s.Update(msg)
}

func TestSections_LoadAndStart(t *testing.T) {
	env, _ := screentest.NewEnv(t)
	screentest.SignIn(t, env, apitest.StudentUsername, apitest.StudentPassword)
	s := New(env)
	loaded(t, s)

	view := s.View(100, 30)
	for _, want := range []string{"Aptitude", "Questions: 2", "Time Limit: 30 minutes", "Coding"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	s.Update(screentest.SpecialKey(tea.KeyDown))
	sec, _ := s.Selected()
	if sec.Name != "Coding" {
		t.Fatalf("selected %q", sec.Name)
	}
	_, cmd := s.Update(screentest.SpecialKey(tea.KeyEnter))
	push, ok := screentest.Find[router.PushScreenMsg](screentest.Run(cmd))
	if !ok {
		t.Fatal("expected push")
	}
	if _, ok := push.Screen.(*test.TestScreen); !ok {
		t.Errorf("pushed %T", push.Screen)
	}
}

func TestSections_LoadFailure(t *testing.T) {
	env, srv := screentest.NewEnv(t)
	srv.Override("/api/test_sections", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	s := New(env)

	msg, _ := screentest.Find[sectionsLoadedMsg](screentest.Run(s.Init()))
	_, cmd := s.Update(msg)

	notice, ok := screentest.Find[components.NoticeMsg](screentest.Run(cmd))
	if !ok || notice.Text != "Network error" {
		t.Errorf("notice = %+v", notice)
	}
	if !strings.Contains(s.View(100, 30), "Press R to retry") {
		t.Error("expected retry hint")
	}
	if _, cmd := s.Update(screentest.SpecialKey(tea.KeyEnter)); cmd != nil {
		t.Error("enter with no sections should do nothing")
	}
}
