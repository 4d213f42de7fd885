package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/api/apitest"
	"github.com/placify/placify/internal/report"
	"github.com/placify/placify/internal/store"
)

type fakeBackend struct {
	questions  api.Result[[]api.Question]
	submit     api.Result[api.ScoreResult]
	submitted  []api.SubmitRequest
	loadCalls  int
	beforeLoad func()
}

func (b *fakeBackend) Questions(ctx context.Context, sectionID int) api.Result[[]api.Question] {
	b.loadCalls++
	if b.beforeLoad != nil {
		b.beforeLoad()
	}
	return b.questions
}

func (b *fakeBackend) SubmitTest(ctx context.Context, req api.SubmitRequest) api.Result[api.ScoreResult] {
	b.submitted = append(b.submitted, req)
	return b.submit
}

func okQuestions() api.Result[[]api.Question] {
	return api.Result[[]api.Question]{OK: true, Value: twoQuestions()}
}

func TestFlowStart_LoadsQuestions(t *testing.T) {
	m, _ := newTestManager()
	f := NewFlow(m, &fakeBackend{questions: okQuestions()})

	s, err := f.Start(context.Background(), 1, "Aptitude")
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Phase != PhaseReady || len(s.Questions) != 2 {
		t.Errorf("session = phase %v, %d questions", s.Phase, len(s.Questions))
	}
}

func TestFlowStart_LoadFailure(t *testing.T) {
	m, _ := newTestManager()
	b := &fakeBackend{questions: api.Result[[]api.Question]{Message: api.NetworkError}}
	f := NewFlow(m, b)

	s, err := f.Start(context.Background(), 1, "Aptitude")
	var le *LoadError
	if !errors.As(err, &le) || le.Message != api.NetworkError {
		t.Fatalf("err = %v, want *LoadError", err)
	}
	if s.Phase != PhaseLoadFailed {
		t.Errorf("phase = %v, want load-failed", s.Phase)
	}

	b.questions = okQuestions()
	s, err = f.Reload(context.Background())
	if err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if s.Phase != PhaseReady || b.loadCalls != 2 {
		t.Errorf("after reload: phase %v, %d fetches", s.Phase, b.loadCalls)
	}
}

func TestFlowStart_ReplacedWhileLoading(t *testing.T) {
	m, _ := newTestManager()
	b := &fakeBackend{questions: okQuestions()}
	b.beforeLoad = func() {
		b.beforeLoad = nil
		m.Start(2, "Coding")
	}
	f := NewFlow(m, b)

	if _, err := f.Start(context.Background(), 1, "Aptitude"); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("err = %v, want ErrStaleSession", err)
	}
	if s := m.Active(); s.SectionName != "Coding" || s.Phase != PhaseLoading {
		t.Errorf("newer session disturbed: %+v", s)
	}
}

func TestFlowLoad_SkipsClearedSession(t *testing.T) {
	m, _ := newTestManager()
	b := &fakeBackend{questions: okQuestions()}
	f := NewFlow(m, b)

	s := m.Start(1, "Aptitude")
	m.Clear()
	if _, err := f.Load(context.Background(), s); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("err = %v, want ErrNoActiveSession", err)
	}
	if m.Active() != nil {
		t.Error("cleared session was recreated")
	}
	if b.loadCalls != 0 {
		t.Errorf("fetched questions %d times for a cleared session", b.loadCalls)
	}

	old := m.Start(1, "Aptitude")
	m.Start(2, "Coding")
	if _, err := f.Load(context.Background(), old); !errors.Is(err, ErrStaleSession) {
		t.Fatalf("err = %v, want ErrStaleSession", err)
	}
	if b.loadCalls != 0 {
		t.Errorf("fetched questions %d times for a replaced session", b.loadCalls)
	}
}

func TestSubmit_TimeTakenFloorsSeconds(t *testing.T) {
	m, clock := newTestManager()
	b := &fakeBackend{questions: okQuestions(), submit: api.Result[api.ScoreResult]{OK: true, Value: api.ScoreResult{Score: 50, Correct: 1, Total: 2}}}
	f := NewFlow(m, b)

	if _, err := f.Start(context.Background(), 1, "Aptitude"); err != nil {
		t.Fatal(err)
	}
	if err := m.Select(1, api.ChoiceA); err != nil {
		t.Fatal(err)
	}
	clock.Advance(62500 * time.Millisecond)

	if _, err := f.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(b.submitted) != 1 {
		t.Fatalf("submitted %d times", len(b.submitted))
	}
	req := b.submitted[0]
	if req.TimeTaken != 62 {
		t.Errorf("time_taken = %d, want 62", req.TimeTaken)
	}
	if req.SectionID != 1 {
		t.Errorf("section_id = %d, want 1", req.SectionID)
	}
	if len(req.Answers) != 1 || req.Answers[1] != api.ChoiceA {
		t.Errorf("answers = %v, want only 1:A", req.Answers)
	}

	s := m.Active()
	if s.Phase != PhaseCompleted || s.Result == nil || s.Result.Score != 50 {
		t.Errorf("after submit: phase %v result %+v", s.Phase, s.Result)
	}
}

func TestSubmit_NoRequestWithoutReadySession(t *testing.T) {
	m, _ := newTestManager()
	b := &fakeBackend{}
	f := NewFlow(m, b)

	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrNoActiveSession) {
		t.Errorf("no session: err = %v", err)
	}

	m.Start(1, "Aptitude")
	if _, err := f.Submit(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Errorf("loading: err = %v", err)
	}
	if len(b.submitted) != 0 {
		t.Errorf("sent %d requests, want 0", len(b.submitted))
	}
}

func TestSubmit_FailureKeepsAnswers(t *testing.T) {
	m, _ := newTestManager()
	b := &fakeBackend{questions: okQuestions(), submit: api.Result[api.ScoreResult]{Message: "Not logged in"}}
	f := NewFlow(m, b)

	if _, err := f.Start(context.Background(), 1, "Aptitude"); err != nil {
		t.Fatal(err)
	}
	_ = m.Select(1, api.ChoiceB)
	_ = m.Select(2, api.ChoiceD)
	before := m.Active()

	_, err := f.Submit(context.Background())
	var se *SubmitError
	if !errors.As(err, &se) || se.Message != "Not logged in" {
		t.Fatalf("err = %v, want *SubmitError", err)
	}
	if !errors.Is(err, ErrSubmitFailed) {
		t.Error("SubmitError should wrap ErrSubmitFailed")
	}

	after := m.Active()
	if after.Phase != PhaseReady {
		t.Errorf("phase = %v, want ready", after.Phase)
	}
	if len(after.Answers) != len(before.Answers) || after.Answers[1] != api.ChoiceB || after.Answers[2] != api.ChoiceD {
		t.Errorf("answers changed: %v -> %v", before.Answers, after.Answers)
	}
	if !after.StartTime.Equal(before.StartTime) {
		t.Error("start time changed on failed submit")
	}

	// Retry with an empty server message falls back to the default.
	b.submit = api.Result[api.ScoreResult]{}
	_, err = f.Submit(context.Background())
	if !errors.As(err, &se) || se.Message != "Failed to submit test" {
		t.Errorf("err = %v", err)
	}
}

func TestSubmit_UnansweredQuestionsAbsent(t *testing.T) {
	m, _ := newTestManager()
	b := &fakeBackend{questions: okQuestions(), submit: api.Result[api.ScoreResult]{OK: true}}
	f := NewFlow(m, b)

	if _, err := f.Start(context.Background(), 1, "Aptitude"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if n := len(b.submitted[0].Answers); n != 0 {
		t.Errorf("sent %d answers, want 0", n)
	}
}

func TestEndToEnd_AgainstFakeServer(t *testing.T) {
	srv := apitest.New(t)
	name := strings.ReplaceAll(t.Name(), "/", "_")
	st, err := store.Open(fmt.Sprintf("file:session_%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	cfg := api.DefaultConfig()
	cfg.Server = srv.URL
	gw, _, err := api.New(context.Background(), cfg, st.CookieRepo(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if res := gw.Login(context.Background(), api.Credentials{Username: apitest.StudentUsername, Password: apitest.StudentPassword}); !res.OK {
		t.Fatalf("login: %s", res.Message)
	}

	m, _ := newTestManager()
	f := NewFlow(m, gw)
	if _, err := f.Start(context.Background(), 1, "Aptitude"); err != nil {
		t.Fatal(err)
	}
	if err := m.Select(1, api.ChoiceA); err != nil {
		t.Fatal(err)
	}
	if err := m.Select(2, api.ChoiceC); err != nil {
		t.Fatal(err)
	}

	result, err := f.Submit(context.Background())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	view := report.TestResult(result)
	if view.Score != "50%" {
		t.Errorf("score = %q, want 50%%", view.Score)
	}
	if view.OutOf != "1 out of 2" {
		t.Errorf("out of = %q", view.OutOf)
	}
	if view.Summary != "You answered 1 out of 2 questions correctly!" {
		t.Errorf("summary = %q", view.Summary)
	}

	subs := srv.Submissions()
	if len(subs) != 1 || subs[0].Answers["1"] != "A" || subs[0].Answers["2"] != "C" {
		t.Errorf("server received %+v", subs)
	}
}
