package session

import (
	"fmt"

	"github.com/placify/placify/internal/api"
)

// OptionView is one selectable answer of a rendered question.
type OptionView struct {
	Letter   api.Choice
	Text     string
	Selected bool
}

// QuestionView is a question as displayed, numbered from 1.
type QuestionView struct {
	Number  int
	ID      int
	Text    string
	Options []OptionView
}

// Label returns the display prefix, e.g. "Q1.".
func (q QuestionView) Label() string {
	return fmt.Sprintf("Q%d.", q.Number)
}

// Selected returns the chosen letter, or "" when unanswered.
func (q QuestionView) Selected() api.Choice {
	for _, o := range q.Options {
		if o.Selected {
			return o.Letter
		}
	}
	return ""
}

// TestView is the full display state of a test session.
type TestView struct {
	Heading   string
	Loading   bool
	Failed    bool
	Error     string
	Questions []QuestionView
	Answered  int
	Total     int
}

// RenderQuestions projects the session's questions in server order.
// Selection is derived from the answer map, so each question shows at
// most one selected option.
func RenderQuestions(s *Session) []QuestionView {
	if s == nil {
		return nil
	}
	views := make([]QuestionView, 0, len(s.Questions))
	for i, q := range s.Questions {
		chosen, answered := s.Answers[q.ID]
		opts := make([]OptionView, 0, len(api.Choices))
		for _, c := range api.Choices {
			opts = append(opts, OptionView{
				Letter:   c,
				Text:     q.Option(c),
				Selected: answered && chosen == c,
			})
		}
		views = append(views, QuestionView{
			Number:  i + 1,
			ID:      q.ID,
			Text:    q.Text,
			Options: opts,
		})
	}
	return views
}

// Render builds the TestView of a session.
func Render(s *Session) TestView {
	if s == nil {
		return TestView{}
	}
	v := TestView{
		Heading: s.SectionName + " Test",
		Loading: s.Phase == PhaseLoading,
		Failed:  s.Phase == PhaseLoadFailed,
		Error:   s.LoadError,
	}
	if v.Loading || v.Failed {
		return v
	}
	v.Questions = RenderQuestions(s)
	v.Total = len(s.Questions)
	for _, q := range s.Questions {
		if _, ok := s.Answers[q.ID]; ok {
			v.Answered++
		}
	}
	return v
}
