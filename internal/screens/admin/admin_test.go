package admin

import (
	"context"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/api/apitest"
	"github.com/placify/placify/internal/screen/screentest"
	"github.com/placify/placify/internal/ui/components"
)

func deliver(t *testing.T, s *AdminScreen, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var out []tea.Msg
	for _, msg := range screentest.Run(cmd) {
		_, next := s.Update(msg)
		out = append(out, msg)
		out = append(out, screentest.Run(next)...)
	}
	return out
}

func TestAdmin_Overview(t *testing.T) {
	env, _ := screentest.NewEnv(t)

	screentest.SignIn(t, env, apitest.StudentUsername, apitest.StudentPassword)
	res := env.Gateway.SubmitTest(context.Background(), api.SubmitRequest{
		SectionID: 1,
		Answers:   map[int]api.Choice{1: api.ChoiceA, 2: api.ChoiceB},
	})
	if !res.OK {
		t.Fatalf("submit: %s", res.Message)
	}
	screentest.SignIn(t, env, apitest.AdminUsername, apitest.AdminPassword)

	s := New(env)
	deliver(t, s, s.Init())

	students := s.Students()
	if len(students) != 1 {
		t.Fatalf("students = %+v", students)
	}
	if got := students[0]; got.Name != "Asha Rao" || got.Department != "CSE" || got.AvgScore != "100.00%" || got.TestsTaken != "1" {
		t.Errorf("student row = %+v", got)
	}
	depts := s.Departments()
	if len(depts) != 1 || depts[0].Department != "CSE" || depts[0].Students != "1" {
		t.Errorf("departments = %+v", depts)
	}

	view := s.View(140, 200)
	for _, want := range []string{"Students", "Asha Rao", "Department Statistics", "Total Attempts: 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	for _, width := range []int{80, 140} {
		for i, line := range strings.Split(s.View(width, 200), "\n") {
			if w := lipgloss.Width(line); w > width {
				t.Errorf("width %d: line %d is %d cells wide", width, i, w)
			}
		}
	}
}

func TestAdmin_Forbidden(t *testing.T) {
	env, _ := screentest.NewEnv(t)
	screentest.SignIn(t, env, apitest.StudentUsername, apitest.StudentPassword)

	s := New(env)
	msgs := deliver(t, s, s.Init())
	if _, ok := screentest.Find[components.NoticeMsg](msgs); !ok {
		t.Error("expected an error notice")
	}
	if view := s.View(140, 200); !strings.Contains(view, "Error:") {
		t.Errorf("view = %q", view)
	}
	if len(s.Students()) != 0 {
		t.Error("students listed for a non-admin")
	}
}

func TestClip(t *testing.T) {
	if got := clip("Department", 4); got != "Depa" {
		t.Errorf("clip = %q", got)
	}
}
