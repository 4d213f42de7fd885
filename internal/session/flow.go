package session

import (
	"context"

	"github.com/placify/placify/internal/api"
)

// Backend is the part of the API gateway a test session needs.
type Backend interface {
	Questions(ctx context.Context, sectionID int) api.Result[[]api.Question]
	SubmitTest(ctx context.Context, req api.SubmitRequest) api.Result[api.ScoreResult]
}

// LoadError reports a failed question fetch.
type LoadError struct {
	Message string
}

func (e *LoadError) Error() string {
	return "load questions: " + e.Message
}

// Flow drives a session through loading and submission against the
// server.
type Flow struct {
	manager *Manager
	backend Backend
}

// NewFlow returns a Flow over manager and backend.
func NewFlow(manager *Manager, backend Backend) *Flow {
	return &Flow{manager: manager, backend: backend}
}

// Manager returns the session manager driven by this flow.
func (f *Flow) Manager() *Manager {
	return f.manager
}

// Start begins a new session for the section and fetches its questions.
// A session replaced while the fetch was in flight yields
// ErrStaleSession and leaves the newer session alone.
func (f *Flow) Start(ctx context.Context, sectionID int, sectionName string) (*Session, error) {
	s := f.manager.Start(sectionID, sectionName)
	return f.Load(ctx, s)
}

// Load fetches the questions of s, a session returned by
// Manager.Start. Nothing is fetched once s has been cleared or
// replaced.
func (f *Flow) Load(ctx context.Context, s *Session) (*Session, error) {
	active := f.manager.Active()
	switch {
	case active == nil:
		return nil, ErrNoActiveSession
	case active.ID != s.ID:
		return nil, ErrStaleSession
	}
	return f.load(ctx, s)
}

// Reload retries the question fetch of a session whose load failed.
func (f *Flow) Reload(ctx context.Context) (*Session, error) {
	s := f.manager.Active()
	if s == nil {
		return nil, ErrNoActiveSession
	}
	if err := f.manager.Retry(s.ID); err != nil {
		return nil, err
	}
	return f.load(ctx, s)
}

func (f *Flow) load(ctx context.Context, s *Session) (*Session, error) {
	res := f.backend.Questions(api.WithPurpose(ctx, "load-questions"), s.SectionID)
	if !res.OK {
		msg := res.MessageOr("Failed to load questions")
		if err := f.manager.FailLoad(s.ID, msg); err != nil {
			return nil, err
		}
		return f.manager.Active(), &LoadError{Message: msg}
	}
	if err := f.manager.LoadQuestions(s.ID, res.Value); err != nil {
		return nil, err
	}
	return f.manager.Active(), nil
}

// Submit sends the active session's answers for scoring. No request is
// made unless a session is active with its questions loaded. On failure
// the returned error is a *SubmitError and the session keeps its answers.
func (f *Flow) Submit(ctx context.Context) (api.ScoreResult, error) {
	id, req, err := f.manager.beginSubmit()
	if err != nil {
		return api.ScoreResult{}, err
	}

	res := f.backend.SubmitTest(api.WithPurpose(ctx, "submit-test"), req)
	if !res.OK {
		if err := f.manager.finishSubmit(id, nil); err != nil {
			return api.ScoreResult{}, err
		}
		return api.ScoreResult{}, &SubmitError{Message: res.MessageOr("Failed to submit test")}
	}

	// The server has recorded the attempt even if the session was
	// replaced meanwhile, so the score is returned alongside the error.
	result := res.Value
	err = f.manager.finishSubmit(id, &result)
	return result, err
}
