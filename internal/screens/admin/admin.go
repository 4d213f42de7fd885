package admin

import (
	"fmt"
	"strings"

	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/report"
	"github.com/placify/placify/internal/screen"
	"github.com/placify/placify/internal/ui/components"
	"github.com/placify/placify/internal/ui/layout"
	"github.com/placify/placify/internal/ui/theme"
)

type studentsLoadedMsg struct {
	to     screen.Screen
	result api.Result[[]api.Student]
}

func (m studentsLoadedMsg) Recipient() screen.Screen { return m.to }

type departmentsLoadedMsg struct {
	to     screen.Screen
	result api.Result[[]api.DepartmentStat]
}

func (m departmentsLoadedMsg) Recipient() screen.Screen { return m.to }

// AdminScreen shows every student and per-department aggregates.
type AdminScreen struct {
	env *screen.Env

	students    []report.StudentRow
	departments []report.DepartmentCard

	studentsLoaded, departmentsLoaded bool
	studentsErr, departmentsErr       string

	vp viewport.Model
}

var _ screen.Screen = (*AdminScreen)(nil)
var _ screen.KeyHintProvider = (*AdminScreen)(nil)

func New(env *screen.Env) *AdminScreen {
	return &AdminScreen{env: env, vp: viewport.New()}
}

func (s *AdminScreen) Init() tea.Cmd {
	return s.refresh()
}

func (s *AdminScreen) refresh() tea.Cmd {
	s.studentsLoaded, s.departmentsLoaded = false, false
	env := s.env
	return tea.Batch(
		func() tea.Msg {
			ctx, cancel := env.Context()
			defer cancel()
			return studentsLoadedMsg{to: s, result: env.Gateway.AdminStudents(api.WithPurpose(ctx, "load-students"))}
		},
		func() tea.Msg {
			ctx, cancel := env.Context()
			defer cancel()
			return departmentsLoadedMsg{to: s, result: env.Gateway.DepartmentStats(api.WithPurpose(ctx, "load-departments"))}
		},
	)
}

func (s *AdminScreen) Title() string {
	return "Admin Panel"
}

func (s *AdminScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Scroll"},
		{Key: "R", Description: "Refresh"},
		{Key: "Esc", Description: "Back"},
	}
}

// Students returns the formatted student rows.
func (s *AdminScreen) Students() []report.StudentRow { return s.students }

// Departments returns the formatted department cards.
func (s *AdminScreen) Departments() []report.DepartmentCard { return s.departments }

func (s *AdminScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case studentsLoadedMsg:
		s.studentsLoaded = true
		if !msg.result.OK {
			s.studentsErr = msg.result.MessageOr("Failed to load students")
			return s, components.Notify(components.NoticeError, s.studentsErr)
		}
		s.studentsErr = ""
		s.students = report.Students(msg.result.Value)
		return s, nil

	case departmentsLoadedMsg:
		s.departmentsLoaded = true
		if !msg.result.OK {
			s.departmentsErr = msg.result.MessageOr("Failed to load department stats")
			return s, components.Notify(components.NoticeError, s.departmentsErr)
		}
		s.departmentsErr = ""
		s.departments = report.DepartmentStats(msg.result.Value)
		return s, nil

	case tea.KeyMsg:
		if msg.String() == "r" {
			return s, s.refresh()
		}
	}

	var cmd tea.Cmd
	s.vp, cmd = s.vp.Update(msg)
	return s, cmd
}

func (s *AdminScreen) View(width, height int) string {
	cw := min(width-4, 110)
	inner := theme.CardContentWidth(cw)
	var b strings.Builder
	for _, sec := range []string{s.renderStudents(inner), s.renderDepartments(inner)} {
		b.WriteString(lipgloss.PlaceHorizontal(width, lipgloss.Center, theme.Card.Width(cw).Render(sec)))
		b.WriteString("\n")
	}
	s.vp.SetWidth(width)
	s.vp.SetHeight(max(height, 1))
	s.vp.SetContent(b.String())
	return s.vp.View()
}

func (s *AdminScreen) renderStudents(width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Students"))
	b.WriteString("\n\n")
	switch {
	case !s.studentsLoaded:
		return b.String() + theme.Hint.Render("Loading students...")
	case s.studentsErr != "":
		return b.String() + theme.ErrorText.Render("Error: "+s.studentsErr)
	case len(s.students) == 0:
		return b.String() + theme.Hint.Render("No students registered yet.")
	}

	// Name, username and department share what the fixed columns leave.
	flex := max((width-30)/3, 8)
	row := func(name, user, dept, year, avg, tests string) string {
		return fmt.Sprintf("%-*s %-*s %-*s %5s %10s %6s",
			flex, clip(name, flex), flex, clip(user, flex), flex, clip(dept, flex), year, avg, tests)
	}
	b.WriteString(theme.Label.Render(row("Name", "Username", "Department", "Year", "Avg Score", "Tests")))
	for _, r := range s.students {
		b.WriteString("\n")
		b.WriteString(theme.Body.Render(row(r.Name, r.Username, r.Department, r.Year, r.AvgScore, r.TestsTaken)))
	}
	return b.String()
}

func (s *AdminScreen) renderDepartments(width int) string {
	var b strings.Builder
	b.WriteString(theme.Title.Render("Department Statistics"))
	b.WriteString("\n\n")
	switch {
	case !s.departmentsLoaded:
		return b.String() + theme.Hint.Render("Loading department stats...")
	case s.departmentsErr != "":
		return b.String() + theme.ErrorText.Render("Error: "+s.departmentsErr)
	case len(s.departments) == 0:
		return b.String() + theme.Hint.Render("No department data yet.")
	}
	for i, d := range s.departments {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(theme.Label.Render(d.Department))
		b.WriteString("\n")
		b.WriteString(theme.Body.Render(fmt.Sprintf("Students: %s   Avg Score: %s   Total Attempts: %s", d.Students, d.AvgScore, d.Attempts)))
		b.WriteString("\n")
		b.WriteString(components.NewProgressBar("", d.Fraction, d.Bar, width).View())
	}
	return b.String()
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
