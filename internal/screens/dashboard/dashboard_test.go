package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/api/apitest"
	"github.com/placify/placify/internal/coach"
	"github.com/placify/placify/internal/llm"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/screen/screentest"
	"github.com/placify/placify/internal/ui/components"
)

func signedIn(t *testing.T) (*screen.Env, *apitest.Server) {
	t.Helper()
	env, srv := screentest.NewEnv(t)
	screentest.SignIn(t, env, apitest.StudentUsername, apitest.StudentPassword)
	return env, srv
}

// deliver runs cmd and feeds its messages back into s.
func deliver(t *testing.T, s *DashboardScreen, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var out []tea.Msg
	for _, msg := range screentest.Run(cmd) {
		_, next := s.Update(msg)
		out = append(out, msg)
		out = append(out, screentest.Run(next)...)
	}
	return out
}

func takeTest(t *testing.T, env *screen.Env) {
	t.Helper()
	res := env.Gateway.SubmitTest(context.Background(), api.SubmitRequest{
		SectionID: 1,
		Answers:   map[int]api.Choice{1: api.ChoiceA, 2: api.ChoiceC},
		TimeTaken: 90,
	})
	if !res.OK {
		t.Fatalf("submit: %s", res.Message)
	}
}

func assertContains(t *testing.T, view string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestDashboard_Empty(t *testing.T) {
	env, _ := signedIn(t)
	s := New(env)
	deliver(t, s, s.Init())
	if !s.Loaded() {
		t.Fatal("dashboard not loaded")
	}
	assertContains(t, s.View(120, 200),
		"No test attempts yet. Start taking tests!",
		"No performance data yet.",
		"Take some tests to get AI recommendations!")
}

func TestDashboard_WithAttempts(t *testing.T) {
	env, _ := signedIn(t)
	takeTest(t, env)

	s := New(env)
	deliver(t, s, s.Init())
	assertContains(t, s.View(120, 200),
		"Score History", "Aptitude", "50.00%",
		"Section Performance", "50.0%", "Attempts: 1",
		"Placement Readiness")
}

// lineWith returns the first line of view containing want.
func lineWith(view, want string) (string, bool) {
	for _, line := range strings.Split(view, "\n") {
		if strings.Contains(line, want) {
			return line, true
		}
	}
	return "", false
}

func TestDashboard_BarsFitInsideCards(t *testing.T) {
	env, _ := signedIn(t)
	takeTest(t, env)

	s := New(env)
	deliver(t, s, s.Init())
	for _, width := range []int{80, 120} {
		view := s.View(width, 200)
		for i, line := range strings.Split(view, "\n") {
			if w := lipgloss.Width(line); w > width {
				t.Errorf("width %d: line %d is %d cells wide", width, i, w)
			}
		}

		line, ok := lineWith(view, "Attempts: 1")
		if !ok || !strings.Contains(line, "50.0%") {
			t.Errorf("width %d: average and attempts split across lines: %q", width, line)
		}
		line, ok = lineWith(view, "Placement Readiness")
		if !ok || !strings.Contains(line, "60.0%") {
			t.Errorf("width %d: readiness percentage not beside its bar: %q", width, line)
		}
	}
}

func TestDashboard_LoadFailure(t *testing.T) {
	env, srv := signedIn(t)
	srv.Override("/api/user_scores", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	s := New(env)
	msgs := deliver(t, s, s.Init())

	notice, ok := screentest.Find[components.NoticeMsg](msgs)
	if !ok || notice.Text != api.NetworkError {
		t.Errorf("notice = %+v", notice)
	}
	view := s.View(120, 200)
	assertContains(t, view, "Error: Network error", "No performance data yet.")
}

func TestDashboard_PracticePlan(t *testing.T) {
	env, _ := signedIn(t)
	takeTest(t, env)
	mock := llm.NewMockProvider()
	mock.AddResponse(llm.MockResponse{Content: json.RawMessage(`{
		"summary": "Shore up percentages first.",
		"steps": [
			{"section": "Aptitude", "focus": "Percentages drills", "minutes": 30},
			{"section": "Coding", "focus": "Loops", "minutes": 0}
		]
	}`)})
	env.Coach = coach.NewService(mock, coach.DefaultConfig())

	s := New(env)
	deliver(t, s, s.Init())
	_, cmd := s.Update(screentest.KeyPress('p'))
	if !strings.Contains(s.View(120, 200), "Generating practice plan...") {
		t.Error("expected progress while planning")
	}
	deliver(t, s, cmd)

	plan := s.Plan()
	if plan == nil || len(plan.Steps) != 1 {
		t.Fatalf("plan = %+v", plan)
	}
	assertContains(t, s.View(120, 200), "Practice Plan", "Shore up percentages first.", "Aptitude (30 min):", "Total: 30 minutes a day")

	calls := mock.Calls()
	if len(calls) != 1 || !strings.Contains(calls[0].Messages[0].Content, "Aptitude: 50.0% average over 1 attempts") {
		t.Errorf("coach request = %+v", calls)
	}
}

func TestDashboard_PlanWithoutCoach(t *testing.T) {
	env, _ := signedIn(t)
	s := New(env)
	deliver(t, s, s.Init())
	_, cmd := s.Update(screentest.KeyPress('p'))
	notice, ok := screentest.Find[components.NoticeMsg](screentest.Run(cmd))
	if !ok || notice.Kind != components.NoticeInfo {
		t.Errorf("notice = %+v", notice)
	}
}

func TestDashboard_PlanNoData(t *testing.T) {
	env, _ := signedIn(t)
	env.Coach = coach.NewService(llm.NewMockProvider(), coach.DefaultConfig())
	s := New(env)
	deliver(t, s, s.Init())
	_, cmd := s.Update(screentest.KeyPress('p'))
	msgs := deliver(t, s, cmd)
	notice, _ := screentest.Find[components.NoticeMsg](msgs)
	if notice.Text != "Take some tests before asking for a practice plan" {
		t.Errorf("notice = %+v", notice)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Aptitude", 4); got != "Apt…" {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("Go", 4); got != "Go" {
		t.Errorf("truncate = %q", got)
	}
}
