package dashboard

import (
	"errors"
	"fmt"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/coach"
	"github.com/placify/placify/internal/report"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/ui/components"
	"github.com/placify/placify/internal/ui/layout"
	"github.com/placify/placify/internal/ui/theme"
)

type scoresLoadedMsg struct {
	to     screen.Screen
	result api.Result[[]api.ScoreRow]
}

func (m scoresLoadedMsg) Recipient() screen.Screen { return m.to }

type performanceLoadedMsg struct {
	to     screen.Screen
	result api.Result[[]api.SectionPerformance]
}

func (m performanceLoadedMsg) Recipient() screen.Screen { return m.to }

type recommendationsLoadedMsg struct {
	to     screen.Screen
	result api.Result[api.Recommendation]
}

func (m recommendationsLoadedMsg) Recipient() screen.Screen { return m.to }

type planReadyMsg struct {
	to   screen.Screen
	plan *coach.Plan
	err  error
}

func (m planReadyMsg) Recipient() screen.Screen { return m.to }

// panel is one independently loaded part of the dashboard.
type panel struct {
	loaded bool
	err    string
}

func (p panel) status(what string) (string, bool) {
	switch {
	case !p.loaded:
		return theme.Hint.Render("Loading " + what + "..."), true
	case p.err != "":
		return theme.ErrorText.Render("Error: " + p.err), true
	}
	return "", false
}

// DashboardScreen shows the user's score history, per-section averages
// and readiness recommendations. A practice plan is generated on request
// when a coach is configured.
type DashboardScreen struct {
	env *screen.Env

	scores, performance, recommendations panel

	history     report.HistoryView
	perfRows    []api.SectionPerformance
	perf        report.PerformanceView
	recommend   api.Recommendation
	recommended report.RecommendationView

	planning bool
	plan     *coach.Plan
	planErr  string

	vp viewport.Model
}

var _ screen.Screen = (*DashboardScreen)(nil)
var _ screen.KeyHintProvider = (*DashboardScreen)(nil)

func New(env *screen.Env) *DashboardScreen {
	return &DashboardScreen{env: env, vp: viewport.New()}
}

func (s *DashboardScreen) Init() tea.Cmd {
	return s.refresh()
}

func (s *DashboardScreen) refresh() tea.Cmd {
	s.scores, s.performance, s.recommendations = panel{}, panel{}, panel{}
	env := s.env
	return tea.Batch(
		func() tea.Msg {
			ctx, cancel := env.Context()
			defer cancel()
			return scoresLoadedMsg{to: s, result: env.Gateway.UserScores(api.WithPurpose(ctx, "load-scores"))}
		},
		func() tea.Msg {
			ctx, cancel := env.Context()
			defer cancel()
			return performanceLoadedMsg{to: s, result: env.Gateway.SectionPerformance(api.WithPurpose(ctx, "load-performance"))}
		},
		func() tea.Msg {
			ctx, cancel := env.Context()
			defer cancel()
			return recommendationsLoadedMsg{to: s, result: env.Gateway.AIRecommendations(api.WithPurpose(ctx, "load-recommendations"))}
		},
	)
}

func (s *DashboardScreen) requestPlan() tea.Cmd {
	env := s.env
	in := coach.Input{Performance: s.perfRows}
	if s.recommendations.loaded && s.recommendations.err == "" {
		rec := s.recommend
		in.Recommendation = &rec
	}
	return func() tea.Msg {
		ctx, cancel := env.CoachContext()
		defer cancel()
		plan, err := env.Coach.Plan(ctx, in)
		return planReadyMsg{to: s, plan: plan, err: err}
	}
}

func (s *DashboardScreen) Title() string {
	return "Dashboard"
}

func (s *DashboardScreen) KeyHints() []layout.KeyHint {
	hints := []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "R", Description: "Refresh"},
	}
	if s.env.Coach != nil {
		hints = append(hints, layout.KeyHint{Key: "P", Description: "Practice Plan"})
	}
	return append(hints, layout.KeyHint{Key: "Esc", Description: "Back"})
}

// Loaded reports whether all three panels have an answer.
func (s *DashboardScreen) Loaded() bool {
	return s.scores.loaded && s.performance.loaded && s.recommendations.loaded
}

// Plan returns the last generated practice plan.
func (s *DashboardScreen) Plan() *coach.Plan {
	return s.plan
}

func (s *DashboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case scoresLoadedMsg:
		s.scores = loadedPanel(msg.result.OK, msg.result.MessageOr("Failed to load scores"))
		if msg.result.OK {
			s.history = report.ScoreHistory(msg.result.Value, s.env.Clock())
		}
		return s, s.failed(s.scores)

	case performanceLoadedMsg:
		s.performance = loadedPanel(msg.result.OK, msg.result.MessageOr("Failed to load performance"))
		if msg.result.OK {
			s.perfRows = msg.result.Value
			s.perf = report.SectionPerformance(s.perfRows)
		}
		return s, s.failed(s.performance)

	case recommendationsLoadedMsg:
		s.recommendations = loadedPanel(msg.result.OK, msg.result.MessageOr("Failed to load recommendations"))
		if msg.result.OK {
			s.recommend = msg.result.Value
			s.recommended = report.Recommendations(s.recommend)
		}
		return s, s.failed(s.recommendations)

	case planReadyMsg:
		s.planning = false
		if msg.err != nil {
			s.planErr = planError(msg.err)
			return s, components.Notify(components.NoticeError, s.planErr)
		}
		s.plan, s.planErr = msg.plan, ""
		return s, components.Notify(components.NoticeSuccess, "Practice plan ready")

	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return s, s.refresh()
		case "p":
			if s.env.Coach == nil {
				return s, components.Notify(components.NoticeInfo, "Practice coach is not configured")
			}
			if s.planning || !s.Loaded() {
				return s, nil
			}
			s.planning = true
			return s, s.requestPlan()
		}
	}

	var cmd tea.Cmd
	s.vp, cmd = s.vp.Update(msg)
	return s, cmd
}

func loadedPanel(ok bool, msg string) panel {
	if ok {
		return panel{loaded: true}
	}
	return panel{loaded: true, err: msg}
}

func (s *DashboardScreen) failed(p panel) tea.Cmd {
	if p.err == "" {
		return nil
	}
	return components.Notify(components.NoticeError, p.err)
}

func planError(err error) string {
	if errors.Is(err, coach.ErrNoData) {
		return "Take some tests before asking for a practice plan"
	}
	return "Could not generate a practice plan"
}

func (s *DashboardScreen) View(width, height int) string {
	cw := min(width-4, 90)
	inner := theme.CardContentWidth(cw)
	sections := []string{
		s.renderHistory(inner),
		s.renderPerformance(inner),
		s.renderRecommendations(inner),
	}
	if p := s.renderPlan(inner); p != "" {
		sections = append(sections, p)
	}

	var b strings.Builder
	for _, sec := range sections {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Card.Width(cw).Render(sec)))
		b.WriteString("\n")
	}

	s.vp.SetWidth(width)
	s.vp.SetHeight(max(height, 1))
	s.vp.SetContent(b.String())
	return s.vp.View()
}

func (s *DashboardScreen) renderHistory(width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Score History"))
	b.WriteString("\n\n")
	if msg, ok := s.scores.status("scores"); ok {
		return b.String() + msg
	}
	if s.history.Empty {
		return b.String() + theme.Hint.Render(s.history.Message)
	}

	nameWidth := max(width-48, 12)
	row := func(section, score, correct, total, date string) string {
		return fmt.Sprintf("%-*s %8s %8s %6s  %-16s", nameWidth, truncate(section, nameWidth), score, correct, total, date)
	}
	b.WriteString(theme.Label.Render(row("Section", "Score", "Correct", "Total", "Date")))
	for _, r := range s.history.Rows {
		b.WriteString("\n")
		b.WriteString(theme.Body.Render(row(r.Section, r.Score, r.Correct, r.Total, r.Date)))
	}
	return b.String()
}

func (s *DashboardScreen) renderPerformance(width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Section Performance"))
	b.WriteString("\n\n")
	if msg, ok := s.performance.status("performance"); ok {
		return b.String() + msg
	}
	if s.perf.Empty {
		return b.String() + theme.Hint.Render(s.perf.Message)
	}
	for i, c := range s.perf.Cards {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(theme.Label.Render(c.Section))
		b.WriteString("\n")
		b.WriteString(components.NewProgressBar("", c.Fraction, c.Average+"  "+c.Attempts, width).View())
	}
	return b.String()
}

func (s *DashboardScreen) renderRecommendations(width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("AI Recommendations"))
	b.WriteString("\n\n")
	if msg, ok := s.recommendations.status("recommendations"); ok {
		return b.String() + msg
	}
	v := s.recommended
	if v.Empty {
		return b.String() + theme.Hint.Render(v.Message)
	}

	b.WriteString(components.NewProgressBar("Placement Readiness", v.Fraction, v.Readiness, width).View())
	if len(v.WeakSections) > 0 {
		b.WriteString("\n\n")
		b.WriteString(theme.Label.Render("Weak Sections"))
		for _, w := range v.WeakSections {
			b.WriteString("\n  • " + theme.Body.Render(w))
		}
	}
	if len(v.ImprovementAreas) > 0 {
		b.WriteString("\n\n")
		b.WriteString(theme.Label.Render("Improvement Areas"))
		for _, a := range v.ImprovementAreas {
			b.WriteString("\n  • " + theme.Body.Render(a))
		}
	}
	if v.PracticeFocus != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Label.Render("Practice Focus"))
		b.WriteString("\n")
		b.WriteString(theme.Body.Width(width).Render(v.PracticeFocus))
	}
	return b.String()
}

func (s *DashboardScreen) renderPlan(width int) string {
	if !s.planning && s.plan == nil && s.planErr == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString(theme.Title.Render("Practice Plan"))
	b.WriteString("\n\n")
	switch {
	case s.planning:
		b.WriteString(theme.Hint.Render("Generating practice plan..."))
	case s.planErr != "":
		b.WriteString(theme.ErrorText.Render(s.planErr))
	default:
		b.WriteString(theme.Body.Width(width).Render(s.plan.Summary))
		for _, st := range s.plan.Steps {
			b.WriteString(fmt.Sprintf("\n  • %s %s",
				theme.Label.Render(fmt.Sprintf("%s (%d min):", st.Section, st.Minutes)),
				theme.Body.Render(st.Focus)))
		}
		b.WriteString("\n\n")
		b.WriteString(theme.Subtitle.Render(fmt.Sprintf("Total: %d minutes a day", s.plan.TotalMinutes())))
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
