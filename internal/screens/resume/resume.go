package resume

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/report"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/ui/components"
	"github.com/placify/placify/internal/ui/layout"
	"github.com/placify/placify/internal/ui/theme"
)

// Form field order.
const (
	fieldFullName = iota
	fieldEmail
	fieldPhone
	fieldEducation
	fieldSkills
	fieldExperience
	fieldProjects
	fieldCertifications
)

// sideBySide is the minimum width at which the analysis is shown next to
// the form instead of below it.
const sideBySide = 110

type resumeLoadedMsg struct {
	to     screen.Screen
	result api.Result[api.StoredResume]
}

func (m resumeLoadedMsg) Recipient() screen.Screen { return m.to }

type resumeSavedMsg struct {
	to     screen.Screen
	result api.Result[api.ResumeScores]
}

func (m resumeSavedMsg) Recipient() screen.Screen { return m.to }

// ResumeScreen edits the user's resume and shows the server's analysis.
type ResumeScreen struct {
	env      *screen.Env
	form     components.Form
	analysis *report.ResumeView
	loading  bool
	saving   bool
}

var _ screen.Screen = (*ResumeScreen)(nil)
var _ screen.KeyHintProvider = (*ResumeScreen)(nil)

func New(env *screen.Env) *ResumeScreen {
	return &ResumeScreen{
		env: env,
		form: components.NewForm("Save Resume",
			components.NewField("Full Name", "", 128),
			components.NewField("Email", "you@college.edu", 128),
			components.NewField("Phone", "", 32),
			components.NewField("Education", "B.Tech CSE, 2026, 8.4 CGPA", 512),
			components.NewField("Skills", "Go, SQL, Docker", 512),
			components.NewField("Experience", "", 1024),
			components.NewField("Projects", "", 1024),
			components.NewField("Certifications", "", 512),
		),
	}
}

func (s *ResumeScreen) Init() tea.Cmd {
	s.loading = true
	env := s.env
	return tea.Batch(s.form.Init(), func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		return resumeLoadedMsg{to: s, result: env.Gateway.GetResume(api.WithPurpose(ctx, "load-resume"))}
	})
}

func (s *ResumeScreen) save() tea.Cmd {
	s.saving = true
	env, r := s.env, s.Resume()
	return func() tea.Msg {
		ctx, cancel := env.Context()
		defer cancel()
		return resumeSavedMsg{to: s, result: env.Gateway.SaveResume(api.WithPurpose(ctx, "save-resume"), r)}
	}
}

func (s *ResumeScreen) Title() string {
	return "Resume Builder"
}

func (s *ResumeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next Field"},
		{Key: "Ctrl+S", Description: "Save"},
		{Key: "Esc", Description: "Back"},
	}
}

// Resume returns the form contents.
func (s *ResumeScreen) Resume() api.Resume {
	return api.Resume{
		FullName:       s.form.Value(fieldFullName),
		Email:          s.form.Value(fieldEmail),
		Phone:          s.form.Value(fieldPhone),
		Education:      s.form.Value(fieldEducation),
		Skills:         s.form.Value(fieldSkills),
		Experience:     s.form.Value(fieldExperience),
		Projects:       s.form.Value(fieldProjects),
		Certifications: s.form.Value(fieldCertifications),
	}
}

// Analysis returns the displayed resume analysis, if any.
func (s *ResumeScreen) Analysis() *report.ResumeView {
	return s.analysis
}

func (s *ResumeScreen) fill(r api.Resume) {
	for i, v := range []string{r.FullName, r.Email, r.Phone, r.Education, r.Skills, r.Experience, r.Projects, r.Certifications} {
		s.form.Set(i, v)
	}
}

func (s *ResumeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case resumeLoadedMsg:
		s.loading = false
		// A user without a saved resume gets an empty form.
		if !msg.result.OK || msg.result.Value.FullName == "" {
			return s, nil
		}
		s.fill(msg.result.Value.Resume)
		if scores := msg.result.Value.Scores(); scores != nil {
			v := report.ResumeScore(*scores)
			s.analysis = &v
		}
		return s, nil

	case resumeSavedMsg:
		s.saving = false
		if !msg.result.OK {
			return s, components.Notify(components.NoticeError, "Failed to save resume")
		}
		v := report.ResumeScore(msg.result.Value)
		s.analysis = &v
		return s, components.Notify(components.NoticeSuccess, "Resume saved successfully!")

	case tea.KeyMsg:
		if s.loading || s.saving {
			return s, nil
		}
		key := msg.String()
		if key == "ctrl+s" || (key == "enter" && s.form.OnSubmit()) {
			return s, s.save()
		}
	}

	var cmd tea.Cmd
	s.form, cmd = s.form.Update(msg)
	return s, cmd
}

func (s *ResumeScreen) View(width, height int) string {
	if s.loading {
		return layout.Centered("\n\nLoading resume...", width, theme.Hint)
	}

	formWidth := min(width-4, 64)
	form := theme.Card.Width(formWidth).Render(s.form.View())
	if s.saving {
		form += "\n" + theme.Hint.Render("Saving...")
	}
	if s.analysis == nil {
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, form)
	}

	if width >= sideBySide {
		panelWidth := min(width-formWidth-6, 50)
		panel := theme.Card.Width(panelWidth).Render(s.renderAnalysis(theme.CardContentWidth(panelWidth)))
		return lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.JoinHorizontal(lipgloss.Top, form, "  ", panel))
	}
	panel := theme.Card.Width(formWidth).Render(s.renderAnalysis(theme.CardContentWidth(formWidth)))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, lipgloss.JoinVertical(lipgloss.Left, form, panel))
}

func (s *ResumeScreen) renderAnalysis(width int) string {
	v := s.analysis
	var b strings.Builder
	b.WriteString(theme.Title.Render("Resume Score Analysis"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		theme.Label.Render("ATS Score"), theme.Body.Render(v.ATS),
		theme.Label.Render("Keyword Score"), theme.Body.Render(v.Keyword),
		theme.Label.Render("Format Score"), theme.Body.Render(v.Format)))
	b.WriteString("\n\n")
	b.WriteString(theme.Label.Render("Overall Score: " + v.Overall))
	b.WriteString("\n")
	b.WriteString(components.NewProgressBar("", v.Fraction, v.Overall, width).View())
	if v.Feedback != "" {
		b.WriteString("\n\n")
		b.WriteString(theme.Body.Width(width).Render("Feedback: " + v.Feedback))
	}
	for _, sug := range v.Suggestions {
		b.WriteString("\n  • " + theme.Body.Render(sug))
	}
	return b.String()
}
