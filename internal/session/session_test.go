package session

import (
	"errors"
	"testing"
	"time"

	"github.com/placify/placify/internal/api"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestManager() (*Manager, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	return NewManager(clock.Now), clock
}

func twoQuestions() []api.Question {
	return []api.Question{
		{ID: 1, Text: "2 + 2 = ?", OptionA: "4", OptionB: "3", OptionC: "5", OptionD: "22"},
		{ID: 2, Text: "10% of 50 = ?", OptionA: "10", OptionB: "5", OptionC: "15", OptionD: "50"},
	}
}

func readySession(t *testing.T, m *Manager) *Session {
	t.Helper()
	s := m.Start(1, "Aptitude")
	if err := m.LoadQuestions(s.ID, twoQuestions()); err != nil {
		t.Fatalf("LoadQuestions: %v", err)
	}
	return m.Active()
}

func TestStart_ResetsAnswers(t *testing.T) {
	m, clock := newTestManager()
	first := readySession(t, m)
	if err := m.Select(1, api.ChoiceA); err != nil {
		t.Fatalf("Select: %v", err)
	}

	clock.Advance(5 * time.Minute)
	second := m.Start(2, "Coding")

	if second.ID == first.ID {
		t.Error("new session reused the previous id")
	}
	if len(second.Answers) != 0 {
		t.Errorf("answers = %v, want empty", second.Answers)
	}
	if !second.StartTime.Equal(clock.now) {
		t.Errorf("StartTime = %v, want %v", second.StartTime, clock.now)
	}
	if second.Phase != PhaseLoading {
		t.Errorf("Phase = %v, want loading", second.Phase)
	}
	if second.Questions != nil {
		t.Error("questions should be nil until loaded")
	}
}

func TestSelect_LastWriteWins(t *testing.T) {
	m, _ := newTestManager()
	readySession(t, m)

	for _, c := range []api.Choice{api.ChoiceA, api.ChoiceC, api.ChoiceC} {
		if err := m.Select(1, c); err != nil {
			t.Fatalf("Select(%s): %v", c, err)
		}
	}

	s := m.Active()
	if got := s.Answers[1]; got != api.ChoiceC {
		t.Errorf("Answers[1] = %q, want C", got)
	}
	if s.Answered() != 1 {
		t.Errorf("Answered = %d, want 1", s.Answered())
	}
}

func TestSelect_Rejections(t *testing.T) {
	m, _ := newTestManager()

	if err := m.Select(1, api.ChoiceA); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("no session: err = %v", err)
	}

	s := m.Start(1, "Aptitude")
	if err := m.Select(1, api.ChoiceA); !errors.Is(err, ErrNotReady) {
		t.Errorf("loading: err = %v", err)
	}

	if err := m.LoadQuestions(s.ID, twoQuestions()); err != nil {
		t.Fatal(err)
	}
	if err := m.Select(99, api.ChoiceA); !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("unknown id: err = %v", err)
	}
	if err := m.Select(1, api.Choice("E")); !errors.Is(err, ErrInvalidChoice) {
		t.Errorf("bad letter: err = %v", err)
	}
	if n := m.Active().Answered(); n != 0 {
		t.Errorf("rejected selects changed answers: %d", n)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	m, _ := newTestManager()
	readySession(t, m)

	snap := m.Active()
	snap.Answers[1] = api.ChoiceD

	if _, ok := m.Active().Answers[1]; ok {
		t.Error("mutating a snapshot leaked into the manager")
	}
}

func TestLoadQuestions_StaleDropped(t *testing.T) {
	m, _ := newTestManager()
	old := m.Start(1, "Aptitude")
	current := m.Start(2, "Coding")

	if err := m.LoadQuestions(old.ID, twoQuestions()); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("err = %v, want ErrStaleSession", err)
	}
	s := m.Active()
	if s.ID != current.ID || s.Phase != PhaseLoading {
		t.Errorf("stale load touched the active session: %+v", s)
	}
}

func TestFailLoadAndRetry(t *testing.T) {
	m, _ := newTestManager()
	s := m.Start(1, "Aptitude")

	if err := m.FailLoad(s.ID, "Network error"); err != nil {
		t.Fatal(err)
	}
	got := m.Active()
	if got.Phase != PhaseLoadFailed || got.LoadError != "Network error" {
		t.Fatalf("got phase %v error %q", got.Phase, got.LoadError)
	}

	if err := m.Retry(s.ID); err != nil {
		t.Fatal(err)
	}
	if got := m.Active(); got.Phase != PhaseLoading || got.LoadError != "" {
		t.Errorf("after retry: phase %v error %q", got.Phase, got.LoadError)
	}
	if err := m.Retry(s.ID); !errors.Is(err, ErrNotReady) {
		t.Errorf("retry while loading: err = %v", err)
	}
}

func TestClear(t *testing.T) {
	m, _ := newTestManager()
	readySession(t, m)
	m.Clear()
	if m.Active() != nil {
		t.Error("Active after Clear should be nil")
	}
	if m.Elapsed() != 0 {
		t.Error("Elapsed without a session should be 0")
	}
}

func TestRenderQuestions(t *testing.T) {
	m, _ := newTestManager()
	readySession(t, m)
	if err := m.Select(2, api.ChoiceB); err != nil {
		t.Fatal(err)
	}

	views := RenderQuestions(m.Active())
	if len(views) != 2 {
		t.Fatalf("len = %d, want 2", len(views))
	}
	if views[0].Label() != "Q1." || views[1].Label() != "Q2." {
		t.Errorf("labels = %q, %q", views[0].Label(), views[1].Label())
	}
	if views[0].Selected() != "" {
		t.Errorf("Q1 selected = %q, want none", views[0].Selected())
	}

	selected := 0
	for _, o := range views[1].Options {
		if o.Selected {
			selected++
			if o.Letter != api.ChoiceB || o.Text != "5" {
				t.Errorf("selected option = %+v", o)
			}
		}
	}
	if selected != 1 {
		t.Errorf("Q2 has %d selected options, want 1", selected)
	}
}

func TestRender_States(t *testing.T) {
	m, _ := newTestManager()
	s := m.Start(1, "Aptitude")

	v := Render(m.Active())
	if v.Heading != "Aptitude Test" || !v.Loading || len(v.Questions) != 0 {
		t.Errorf("loading view = %+v", v)
	}

	if err := m.LoadQuestions(s.ID, twoQuestions()); err != nil {
		t.Fatal(err)
	}
	if err := m.Select(1, api.ChoiceA); err != nil {
		t.Fatal(err)
	}
	v = Render(m.Active())
	if v.Loading || v.Answered != 1 || v.Total != 2 {
		t.Errorf("ready view = %+v", v)
	}

	if got := Render(nil); got.Heading != "" {
		t.Errorf("nil session view = %+v", got)
	}
}

func TestPhaseString(t *testing.T) {
	if PhaseLoadFailed.String() != "load-failed" {
		t.Errorf("got %q", PhaseLoadFailed.String())
	}
	if Phase(42).String() != "unknown" {
		t.Errorf("got %q", Phase(42).String())
	}
}
