package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/pages"
	"github.com/placify/placify/internal/report"
)

// loader fetches one page data set and prints it.
type loader func(ctx context.Context, gw *api.Gateway, w io.Writer) error

var loaders = map[pages.Loader]loader{
	pages.LoadSections:           loadSections,
	pages.LoadUserScores:         loadScores,
	pages.LoadSectionPerformance: loadPerformance,
	pages.LoadRecommendations:    loadRecommendations,
	pages.LoadResume:             loadResume,
	pages.LoadStudents:           loadStudents,
	pages.LoadDepartmentStats:    loadDepartments,
}

func rule(w io.Writer, width int) {
	fmt.Fprintln(w, strings.Repeat("─", width))
}

func loadSections(ctx context.Context, gw *api.Gateway, w io.Writer) error {
	res := gw.TestSections(api.WithPurpose(ctx, "load-sections"))
	if err := resultErr(res, "Failed to load test sections"); err != nil {
		return err
	}
	cards := report.SectionCards(res.Value)
	if len(cards) == 0 {
		fmt.Fprintln(w, "No test sections available.")
		return nil
	}
	fmt.Fprintf(w, "%-4s  %-20s  %-14s  %-24s  %s\n", "ID", "Section", "Questions", "Time Limit", "Description")
	rule(w, 90)
	for _, c := range cards {
		fmt.Fprintf(w, "%-4d  %-20s  %-14s  %-24s  %s\n", c.ID, truncate(c.Name, 20), c.Questions, c.TimeLimit, c.Description)
	}
	return nil
}

func loadScores(ctx context.Context, gw *api.Gateway, w io.Writer) error {
	res := gw.UserScores(api.WithPurpose(ctx, "load-scores"))
	if err := resultErr(res, "Failed to load scores"); err != nil {
		return err
	}
	v := report.ScoreHistory(res.Value, time.Now())
	if v.Empty {
		fmt.Fprintln(w, v.Message)
		return nil
	}
	fmt.Fprintf(w, "%-20s  %8s  %8s  %6s  %s\n", "Section", "Score", "Correct", "Total", "Date")
	rule(w, 64)
	for _, r := range v.Rows {
		fmt.Fprintf(w, "%-20s  %8s  %8s  %6s  %s\n", truncate(r.Section, 20), r.Score, r.Correct, r.Total, r.Date)
	}
	return nil
}

func loadPerformance(ctx context.Context, gw *api.Gateway, w io.Writer) error {
	res := gw.SectionPerformance(api.WithPurpose(ctx, "load-performance"))
	if err := resultErr(res, "Failed to load performance"); err != nil {
		return err
	}
	v := report.SectionPerformance(res.Value)
	if v.Empty {
		fmt.Fprintln(w, v.Message)
		return nil
	}
	for _, c := range v.Cards {
		fmt.Fprintf(w, "%-20s  %s  %7s  %s\n", truncate(c.Section, 20), bar(c.Fraction, 20), c.Average, c.Attempts)
	}
	return nil
}

func loadRecommendations(ctx context.Context, gw *api.Gateway, w io.Writer) error {
	res := gw.AIRecommendations(api.WithPurpose(ctx, "load-recommendations"))
	if err := resultErr(res, "Failed to load recommendations"); err != nil {
		return err
	}
	v := report.Recommendations(res.Value)
	if v.Empty {
		fmt.Fprintln(w, v.Message)
		return nil
	}
	fmt.Fprintf(w, "Placement Readiness  %s  %s\n", bar(v.Fraction, 20), v.Readiness)
	if len(v.WeakSections) > 0 {
		fmt.Fprintf(w, "Weak Sections:       %s\n", strings.Join(v.WeakSections, ", "))
	}
	if len(v.ImprovementAreas) > 0 {
		fmt.Fprintf(w, "Improvement Areas:   %s\n", strings.Join(v.ImprovementAreas, ", "))
	}
	if v.PracticeFocus != "" {
		fmt.Fprintf(w, "Practice Focus:      %s\n", v.PracticeFocus)
	}
	return nil
}

func loadResume(ctx context.Context, gw *api.Gateway, w io.Writer) error {
	res := gw.GetResume(api.WithPurpose(ctx, "load-resume"))
	if err := resultErr(res, "Failed to load resume"); err != nil {
		return err
	}
	printResume(w, res.Value.Resume)
	if scores := res.Value.Scores(); scores != nil {
		fmt.Fprintln(w)
		printResumeScore(w, report.ResumeScore(*scores))
	}
	return nil
}

func printResume(w io.Writer, r api.Resume) {
	fields := []struct{ label, value string }{
		{"Full Name", r.FullName},
		{"Email", r.Email},
		{"Phone", r.Phone},
		{"Education", r.Education},
		{"Skills", r.Skills},
		{"Experience", r.Experience},
		{"Projects", r.Projects},
		{"Certifications", r.Certifications},
	}
	for _, f := range fields {
		fmt.Fprintf(w, "%-15s %s\n", f.label+":", f.value)
	}
}

func printResumeScore(w io.Writer, v report.ResumeView) {
	fmt.Fprintln(w, "Resume Score Analysis")
	rule(w, 48)
	fmt.Fprintf(w, "ATS Score: %s   Keyword Score: %s   Format Score: %s\n", v.ATS, v.Keyword, v.Format)
	fmt.Fprintf(w, "Overall Score: %s  %s\n", v.Overall, bar(v.Fraction, 20))
	if v.Feedback != "" {
		fmt.Fprintf(w, "Feedback: %s\n", v.Feedback)
	}
	for _, s := range v.Suggestions {
		fmt.Fprintf(w, "  - %s\n", s)
	}
}

func loadStudents(ctx context.Context, gw *api.Gateway, w io.Writer) error {
	res := gw.AdminStudents(api.WithPurpose(ctx, "load-students"))
	if err := resultErr(res, "Failed to load students"); err != nil {
		return err
	}
	rows := report.Students(res.Value)
	if len(rows) == 0 {
		fmt.Fprintln(w, "No students registered yet.")
		return nil
	}
	fmt.Fprintf(w, "%-20s  %-14s  %-12s  %4s  %10s  %5s\n", "Name", "Username", "Department", "Year", "Avg Score", "Tests")
	rule(w, 76)
	for _, r := range rows {
		fmt.Fprintf(w, "%-20s  %-14s  %-12s  %4s  %10s  %5s\n",
			truncate(r.Name, 20), truncate(r.Username, 14), truncate(r.Department, 12), r.Year, r.AvgScore, r.TestsTaken)
	}
	return nil
}

func loadDepartments(ctx context.Context, gw *api.Gateway, w io.Writer) error {
	res := gw.DepartmentStats(api.WithPurpose(ctx, "load-departments"))
	if err := resultErr(res, "Failed to load department stats"); err != nil {
		return err
	}
	cards := report.DepartmentStats(res.Value)
	if len(cards) == 0 {
		fmt.Fprintln(w, "No department data yet.")
		return nil
	}
	fmt.Fprintf(w, "%-12s  %8s  %10s  %8s  %s\n", "Department", "Students", "Avg Score", "Attempts", "")
	rule(w, 72)
	for _, c := range cards {
		fmt.Fprintf(w, "%-12s  %8s  %10s  %8s  %s %s\n",
			truncate(c.Department, 12), c.Students, c.AvgScore, c.Attempts, bar(c.Fraction, 16), c.Bar)
	}
	return nil
}

// bar draws a text progress bar of fraction (0..1) in width cells.
func bar(fraction float64, width int) string {
	filled := min(max(int(fraction*float64(width)), 0), width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
