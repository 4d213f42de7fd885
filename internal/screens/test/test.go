package test

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/router"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/screens/result"
	"github.com/placify/placify/internal/session"
	"github.com/placify/placify/internal/ui/components"
	"github.com/placify/placify/internal/ui/layout"
	"github.com/placify/placify/internal/ui/theme"
)

// cardHeight is the rendered height of one question card plus spacing.
const cardHeight = 9

var choiceKeys = map[string]api.Choice{
	"a": api.ChoiceA, "b": api.ChoiceB, "c": api.ChoiceC, "d": api.ChoiceD,
	"1": api.ChoiceA, "2": api.ChoiceB, "3": api.ChoiceC, "4": api.ChoiceD,
}

type questionsLoadedMsg struct {
	to      screen.Screen
	session *session.Session
	err     error
}

func (m questionsLoadedMsg) Recipient() screen.Screen { return m.to }

type submittedMsg struct {
	to     screen.Screen
	result api.ScoreResult
	err    error
}

func (m submittedMsg) Recipient() screen.Screen { return m.to }

// tickMsg refreshes the elapsed clock.
type tickMsg struct {
	to  screen.Screen
	seq int
}

func (m tickMsg) Recipient() screen.Screen { return m.to }

// TestScreen runs one test session: it loads the questions, records
// answers and submits them.
type TestScreen struct {
	env        *screen.Env
	section    api.Section
	cursor     int
	loading    bool
	submitting bool

	tickEvery time.Duration
	tickSeq   int
}

var _ screen.Screen = (*TestScreen)(nil)
var _ screen.KeyHintProvider = (*TestScreen)(nil)
var _ screen.BackHandler = (*TestScreen)(nil)

func New(env *screen.Env, section api.Section) *TestScreen {
	return &TestScreen{env: env, section: section, tickEvery: time.Second}
}

// Init starts a new session, discarding any unsubmitted one, and
// fetches its questions.
func (s *TestScreen) Init() tea.Cmd {
	s.loading = true
	sess := s.env.Flow.Manager().Start(s.section.ID, s.section.Name)
	return s.fetch(sess)
}

func (s *TestScreen) fetch(sess *session.Session) tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		loaded, err := env.Flow.Load(ctx, sess)
		return questionsLoadedMsg{to: s, session: loaded, err: err}
	}
}

// startClock begins a new tick chain. Ticks of earlier chains are
// ignored.
func (s *TestScreen) startClock() tea.Cmd {
	s.tickSeq++
	return s.tick()
}

func (s *TestScreen) tick() tea.Cmd {
	seq := s.tickSeq
	return tea.Tick(s.tickEvery, func(time.Time) tea.Msg { return tickMsg{to: s, seq: seq} })
}

// clockRunning reports whether the elapsed clock should keep ticking.
func (s *TestScreen) clockRunning() bool {
	a := s.env.Flow.Manager().Active()
	return a != nil && (a.Phase == session.PhaseReady || a.Phase == session.PhaseSubmitting)
}

func (s *TestScreen) reload() tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		sess, err := env.Flow.Reload(ctx)
		return questionsLoadedMsg{to: s, session: sess, err: err}
	}
}

func (s *TestScreen) submit() tea.Cmd {
	env := s.env
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		res, err := env.Flow.Submit(ctx)
		return submittedMsg{to: s, result: res, err: err}
	}
}

func (s *TestScreen) Title() string {
	return s.section.Name + " Test"
}

func (s *TestScreen) KeyHints() []layout.KeyHint {
	if s.phase() == session.PhaseLoadFailed {
		return []layout.KeyHint{
			{Key: "R", Description: "Retry"},
			{Key: "Esc", Description: "Back to sections"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Question"},
		{Key: "A-D", Description: "Answer"},
		{Key: "Ctrl+S", Description: "Submit"},
		{Key: "Esc", Description: "Cancel"},
	}
}

// Back abandons the session and returns to the section list.
func (s *TestScreen) Back() tea.Cmd {
	s.env.Flow.Manager().Clear()
	return router.Pop()
}

func (s *TestScreen) phase() session.Phase {
	if s.loading {
		return session.PhaseLoading
	}
	if a := s.env.Flow.Manager().Active(); a != nil {
		return a.Phase
	}
	return session.PhaseLoading
}

func (s *TestScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case questionsLoadedMsg:
		s.loading = false
		var loadErr *session.LoadError
		if errors.As(msg.err, &loadErr) {
			return s, components.Notify(components.NoticeError, loadErr.Message)
		}
		s.cursor = 0
		if msg.err != nil || !s.clockRunning() {
			return s, nil
		}
		return s, s.startClock()

	case tickMsg:
		if msg.seq != s.tickSeq || !s.clockRunning() {
			return s, nil
		}
		return s, s.tick()

	case submittedMsg:
		s.submitting = false
		if msg.err == nil || errors.Is(msg.err, session.ErrStaleSession) {
			return s, router.Replace(result.New(s.env, s.section, msg.result))
		}
		var subErr *session.SubmitError
		if errors.As(msg.err, &subErr) {
			return s, components.Notify(components.NoticeError, subErr.Message)
		}
		return s, components.Notify(components.NoticeError, msg.err.Error())

	case tea.KeyMsg:
		return s.handleKey(msg)
	}
	return s, nil
}

func (s *TestScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	if s.loading || s.submitting {
		return s, nil
	}
	key := msg.String()
	active := s.env.Flow.Manager().Active()
	if active == nil {
		return s, nil
	}

	if active.Phase == session.PhaseLoadFailed {
		if key == "r" {
			s.loading = true
			return s, s.reload()
		}
		return s, nil
	}

	switch key {
	case "up", "k":
		if s.cursor > 0 {
			s.cursor--
		}
	case "down", "j":
		if s.cursor < len(active.Questions)-1 {
			s.cursor++
		}
	case "ctrl+s":
		if active.Phase != session.PhaseReady {
			return s, nil
		}
		s.submitting = true
		return s, s.submit()
	default:
		choice, ok := choiceKeys[key]
		if !ok || s.cursor >= len(active.Questions) {
			return s, nil
		}
		if err := s.env.Flow.Manager().Select(active.Questions[s.cursor].ID, choice); err != nil {
			return s, components.Notify(components.NoticeError, err.Error())
		}
		if s.cursor < len(active.Questions)-1 {
			s.cursor++
		}
	}
	return s, nil
}

// Cursor returns the index of the focused question.
func (s *TestScreen) Cursor() int { return s.cursor }

func (s *TestScreen) View(width, height int) string {
	if s.loading {
		return layout.Centered("\n\nLoading questions...", width, theme.Hint)
	}
	view := session.Render(s.env.Flow.Manager().Active())
	if view.Failed {
		return layout.Centered(fmt.Sprintf("\n\n%s\n\nPress R to retry or Esc to go back.", view.Error), width, theme.ErrorText)
	}
	if view.Total == 0 {
		return layout.Centered("\n\nThis section has no questions yet.", width, theme.Hint)
	}

	cw := min(width-4, 80)
	var b strings.Builder
	status := fmt.Sprintf("Answered %d/%d   Elapsed %s   Time limit %d minutes",
		view.Answered, view.Total, clock(s.env.Flow.Manager().Elapsed()), s.section.TimeLimit)
	if s.submitting {
		status += "   Submitting..."
	}
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Title.Render(view.Heading)))
	b.WriteString("\n")
	b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Subtitle.Render(status)))
	b.WriteString("\n\n")

	first, last := window(s.cursor, len(view.Questions), max((height-4)/cardHeight, 1))
	for i := first; i < last; i++ {
		card := components.QuestionCard{Question: view.Questions[i], Focused: i == s.cursor, Width: cw}
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, card.View()))
		b.WriteString("\n")
	}
	return b.String()
}

// window returns the [first, last) range of n items to show so that
// cursor stays visible with at most size items.
func window(cursor, n, size int) (int, int) {
	if n <= size {
		return 0, n
	}
	first := min(max(cursor-size/2, 0), n-size)
	return first, first + size
}

func clock(d time.Duration) string {
	secs := int(max(d, 0) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
