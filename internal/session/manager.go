package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/placify/placify/internal/api"
)

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time

// Manager owns the single active test session. All mutations go through
// it; readers get snapshots.
type Manager struct {
	mu     sync.Mutex
	active *Session
	clock  Clock
	newID  func() string
}

// NewManager returns a Manager using clock, or time.Now when nil.
func NewManager(clock Clock) *Manager {
	if clock == nil {
		clock = time.Now
	}
	return &Manager{clock: clock, newID: uuid.NewString}
}

// Start replaces any existing session with a fresh one for the section.
// Unsubmitted answers of the previous session are discarded.
func (m *Manager) Start(sectionID int, sectionName string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.active = &Session{
		ID:          m.newID(),
		SectionID:   sectionID,
		SectionName: sectionName,
		Answers:     map[int]api.Choice{},
		StartTime:   m.clock(),
		Phase:       PhaseLoading,
	}
	return m.active.clone()
}

// LoadQuestions stores the fetched questions into the session identified
// by sessionID. Results for a replaced session are dropped with
// ErrStaleSession.
func (m *Manager) LoadQuestions(sessionID string, qs []api.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.current(sessionID)
	if err != nil {
		return err
	}
	if qs == nil {
		qs = []api.Question{}
	}
	s.Questions = qs
	s.Phase = PhaseReady
	s.LoadError = ""
	return nil
}

// FailLoad records a failed question fetch so the session can be retried
// or abandoned.
func (m *Manager) FailLoad(sessionID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.current(sessionID)
	if err != nil {
		return err
	}
	s.Phase = PhaseLoadFailed
	s.LoadError = message
	return nil
}

// Retry moves a failed session back to loading. Answers and the start
// time are kept.
func (m *Manager) Retry(sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.current(sessionID)
	if err != nil {
		return err
	}
	if s.Phase != PhaseLoadFailed {
		return ErrNotReady
	}
	s.Phase = PhaseLoading
	s.LoadError = ""
	return nil
}

// Select records choice as the answer to questionID, replacing any
// earlier answer. The session is unchanged when an error is returned.
func (m *Manager) Select(questionID int, choice api.Choice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return ErrNoActiveSession
	}
	s := m.active
	if s.Phase != PhaseReady {
		return ErrNotReady
	}
	if !choice.Valid() {
		return ErrInvalidChoice
	}
	if !s.HasQuestion(questionID) {
		return ErrUnknownQuestion
	}
	s.Answers[questionID] = choice
	return nil
}

// Active returns a snapshot of the current session, or nil.
func (m *Manager) Active() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return nil
	}
	return m.active.clone()
}

// Clear discards the current session.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = nil
}

// Elapsed returns the time since the active session started.
func (m *Manager) Elapsed() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		return 0
	}
	return m.clock().Sub(m.active.StartTime)
}

// beginSubmit freezes the session for submission and returns the
// request to send.
func (m *Manager) beginSubmit() (string, api.SubmitRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active == nil {
		return "", api.SubmitRequest{}, ErrNoActiveSession
	}
	s := m.active
	if s.Phase != PhaseReady {
		return "", api.SubmitRequest{}, ErrNotReady
	}

	answers := make(map[int]api.Choice, len(s.Answers))
	for k, v := range s.Answers {
		answers[k] = v
	}
	elapsed := m.clock().Sub(s.StartTime)
	if elapsed < 0 {
		elapsed = 0
	}

	s.Phase = PhaseSubmitting
	return s.ID, api.SubmitRequest{
		SectionID: s.SectionID,
		Answers:   answers,
		TimeTaken: int(elapsed / time.Second),
	}, nil
}

// finishSubmit applies the outcome of a submission. On failure the
// session returns to PhaseReady with its answers untouched.
func (m *Manager) finishSubmit(sessionID string, result *api.ScoreResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, err := m.current(sessionID)
	if err != nil {
		return err
	}
	if result == nil {
		s.Phase = PhaseReady
		return nil
	}
	s.Phase = PhaseCompleted
	s.Result = result
	return nil
}

// current must be called with m.mu held.
func (m *Manager) current(sessionID string) (*Session, error) {
	if m.active == nil {
		return nil, ErrNoActiveSession
	}
	if m.active.ID != sessionID {
		return nil, ErrStaleSession
	}
	return m.active, nil
}
