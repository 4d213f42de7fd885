package session

import (
	"errors"
	"time"

	"github.com/placify/placify/internal/api"
)

// Phase represents where a test session is in its lifecycle.
type Phase int

const (
	PhaseLoading    Phase = iota // Questions are being fetched
	PhaseReady                   // Questions loaded, accepting answers
	PhaseLoadFailed              // Question fetch failed; retry or leave
	PhaseSubmitting              // Answers sent, awaiting the score
	PhaseCompleted               // Server returned a score
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseLoadFailed:
		return "load-failed"
	case PhaseSubmitting:
		return "submitting"
	case PhaseCompleted:
		return "completed"
	}
	return "unknown"
}

var (
	// ErrNoActiveSession is returned when an operation needs a session
	// and none has been started.
	ErrNoActiveSession = errors.New("no active test session")

	// ErrNotReady is returned when the session's questions are not
	// loaded or it no longer accepts answers.
	ErrNotReady = errors.New("test session is not ready")

	// ErrUnknownQuestion is returned when answering a question id that
	// is not part of the loaded set.
	ErrUnknownQuestion = errors.New("question is not part of this test")

	// ErrInvalidChoice is returned for answer letters outside A-D.
	ErrInvalidChoice = errors.New("answer must be one of A, B, C, D")

	// ErrStaleSession is returned when a result arrives for a session
	// that has since been replaced.
	ErrStaleSession = errors.New("test session was replaced")

	// ErrSubmitFailed is wrapped by every *SubmitError.
	ErrSubmitFailed = errors.New("failed to submit test")
)

// SubmitError reports a rejected or undelivered submission. The session
// keeps its answers so the user can retry.
type SubmitError struct {
	Message string
}

func (e *SubmitError) Error() string {
	if e.Message == "" {
		return ErrSubmitFailed.Error()
	}
	return ErrSubmitFailed.Error() + ": " + e.Message
}

func (e *SubmitError) Unwrap() error { return ErrSubmitFailed }

// Session is one in-progress attempt at a test section. Sessions are
// owned by a Manager; values handed out are snapshots.
type Session struct {
	// ID correlates asynchronous results with the session that asked
	// for them. It is never sent to the server.
	ID string

	SectionID   int
	SectionName string

	// Questions is nil until the fetch completes.
	Questions []api.Question

	// Answers maps question id to the chosen letter. Unanswered
	// questions are absent.
	Answers map[int]api.Choice

	StartTime time.Time
	Phase     Phase

	// LoadError is the failure message when Phase is PhaseLoadFailed.
	LoadError string

	// Result is set once Phase is PhaseCompleted.
	Result *api.ScoreResult
}

// Answered returns the number of questions with an answer.
func (s *Session) Answered() int {
	return len(s.Answers)
}

// HasQuestion reports whether id belongs to the loaded question set.
func (s *Session) HasQuestion(id int) bool {
	for _, q := range s.Questions {
		if q.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) clone() *Session {
	cp := *s
	cp.Answers = make(map[int]api.Choice, len(s.Answers))
	for k, v := range s.Answers {
		cp.Answers[k] = v
	}
	if s.Questions != nil {
		cp.Questions = append([]api.Question(nil), s.Questions...)
	}
	if s.Result != nil {
		r := *s.Result
		cp.Result = &r
	}
	return &cp
}
