// Package report turns server payloads into display-ready view models.
// Nothing here performs I/O.
package report

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/placify/placify/internal/api"
)

// Empty-state messages.
const (
	NoAttempts        = "No test attempts yet. Start taking tests!"
	NoPerformance     = "No performance data yet."
	NoRecommendations = "Take some tests to get AI recommendations!"
	NotAvailable      = "N/A"
)

// ResultView is the display of a freshly scored test.
type ResultView struct {
	Title   string
	Score   string
	OutOf   string
	Summary string
}

// TestResult shows the server's score as sent, without forcing decimals.
func TestResult(r api.ScoreResult) ResultView {
	outOf := fmt.Sprintf("%d out of %d", r.Correct, r.Total)
	return ResultView{
		Title:   "Test Completed!",
		Score:   strconv.FormatFloat(r.Score, 'f', -1, 64) + "%",
		OutOf:   outOf,
		Summary: "You answered " + outOf + " questions correctly!",
	}
}

// HistoryRow is one formatted score-history entry.
type HistoryRow struct {
	Section string
	Score   string
	Correct string
	Total   string
	Date    string
}

// HistoryView is the score-history table.
type HistoryView struct {
	Empty   bool
	Message string
	Rows    []HistoryRow
}

// ScoreHistory formats attempts in the order the server returned them.
func ScoreHistory(rows []api.ScoreRow, now time.Time) HistoryView {
	if len(rows) == 0 {
		return HistoryView{Empty: true, Message: NoAttempts}
	}
	out := make([]HistoryRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, HistoryRow{
			Section: r.SectionName,
			Score:   fmt.Sprintf("%.2f%%", r.Score),
			Correct: strconv.Itoa(r.CorrectAnswers),
			Total:   strconv.Itoa(r.TotalQuestions),
			Date:    when(now, r.CompletedAt),
		})
	}
	return HistoryView{Rows: out}
}

// PerformanceCard is one section's average.
type PerformanceCard struct {
	Section  string
	Average  string
	Fraction float64
	Attempts string
}

// PerformanceView lists per-section averages.
type PerformanceView struct {
	Empty   bool
	Message string
	Cards   []PerformanceCard
}

// SectionPerformance formats per-section averages with a bar fraction.
func SectionPerformance(rows []api.SectionPerformance) PerformanceView {
	if len(rows) == 0 {
		return PerformanceView{Empty: true, Message: NoPerformance}
	}
	cards := make([]PerformanceCard, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, PerformanceCard{
			Section:  r.SectionName,
			Average:  fmt.Sprintf("%.1f%%", r.AvgScore),
			Fraction: fraction(r.AvgScore),
			Attempts: fmt.Sprintf("Attempts: %d", r.Attempts),
		})
	}
	return PerformanceView{Cards: cards}
}

// RecommendationView is the readiness panel.
type RecommendationView struct {
	Empty            bool
	Message          string
	Readiness        string
	Fraction         float64
	WeakSections     []string
	ImprovementAreas []string
	PracticeFocus    string
}

// Recommendations formats the readiness payload. A missing or zero
// readiness score means the user has no attempts yet.
func Recommendations(rec api.Recommendation) RecommendationView {
	if rec.ReadinessScore == nil || *rec.ReadinessScore == 0 {
		return RecommendationView{Empty: true, Message: NoRecommendations}
	}
	return RecommendationView{
		Readiness:        fmt.Sprintf("%.1f%%", *rec.ReadinessScore),
		Fraction:         fraction(*rec.ReadinessScore),
		WeakSections:     ParseList(rec.WeakSections),
		ImprovementAreas: ParseList(rec.ImprovementAreas),
		PracticeFocus:    rec.PracticeFocus,
	}
}

// ParseList decodes a JSON-encoded string array. Empty or malformed
// input yields an empty list.
func ParseList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

// ResumeView is the resume analysis panel.
type ResumeView struct {
	ATS         string
	Keyword     string
	Format      string
	Overall     string
	Fraction    float64
	Feedback    string
	Suggestions []string
}

// ResumeScore formats a resume analysis.
func ResumeScore(s api.ResumeScores) ResumeView {
	return ResumeView{
		ATS:         fmt.Sprintf("%.0f", s.ATSScore),
		Keyword:     fmt.Sprintf("%.0f", s.KeywordScore),
		Format:      fmt.Sprintf("%.0f", s.FormatScore),
		Overall:     fmt.Sprintf("%.1f%%", s.OverallScore),
		Fraction:    fraction(s.OverallScore),
		Feedback:    s.Feedback,
		Suggestions: s.Suggestions,
	}
}

// StudentRow is one formatted admin student entry.
type StudentRow struct {
	Name       string
	Username   string
	Department string
	Year       string
	AvgScore   string
	TestsTaken string
}

// Students formats the admin student listing. Missing or zero values
// show as N/A; a missing attempt count shows as 0.
func Students(rows []api.Student) []StudentRow {
	out := make([]StudentRow, 0, len(rows))
	for _, s := range rows {
		row := StudentRow{
			Name:       s.FullName,
			Username:   s.Username,
			Department: NotAvailable,
			Year:       NotAvailable,
			AvgScore:   NotAvailable,
			TestsTaken: "0",
		}
		if s.Department != nil && *s.Department != "" {
			row.Department = *s.Department
		}
		if s.Year != nil && *s.Year != 0 {
			row.Year = strconv.Itoa(*s.Year)
		}
		if s.AvgScore != nil && *s.AvgScore != 0 {
			row.AvgScore = fmt.Sprintf("%.2f%%", *s.AvgScore)
		}
		if s.SectionsAttempted != nil {
			row.TestsTaken = strconv.Itoa(*s.SectionsAttempted)
		}
		out = append(out, row)
	}
	return out
}

// DepartmentCard is one formatted department aggregate.
type DepartmentCard struct {
	Department string
	Students   string
	AvgScore   string
	Attempts   string
	Bar        string
	Fraction   float64
}

// DepartmentStats formats department aggregates.
func DepartmentStats(rows []api.DepartmentStat) []DepartmentCard {
	out := make([]DepartmentCard, 0, len(rows))
	for _, d := range rows {
		card := DepartmentCard{
			Department: d.Department,
			Students:   strconv.Itoa(d.StudentCount),
			AvgScore:   NotAvailable,
			Attempts:   "0",
			Bar:        "0%",
		}
		if d.AvgScore != nil && *d.AvgScore != 0 {
			card.AvgScore = fmt.Sprintf("%.2f%%", *d.AvgScore)
			card.Bar = fmt.Sprintf("%.1f%%", *d.AvgScore)
			card.Fraction = fraction(*d.AvgScore)
		}
		if d.TotalAttempts != nil {
			card.Attempts = strconv.Itoa(*d.TotalAttempts)
		}
		out = append(out, card)
	}
	return out
}

// SectionCard is one test section offered to the user.
type SectionCard struct {
	ID          int
	Name        string
	Description string
	Questions   string
	TimeLimit   string
}

// SectionCards formats the section list.
func SectionCards(sections []api.Section) []SectionCard {
	out := make([]SectionCard, 0, len(sections))
	for _, s := range sections {
		out = append(out, SectionCard{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			Questions:   fmt.Sprintf("Questions: %d", s.TotalQuestions),
			TimeLimit:   fmt.Sprintf("Time Limit: %d minutes", s.TimeLimit),
		})
	}
	return out
}

// fraction converts a percentage to a 0..1 bar fill.
func fraction(pct float64) float64 {
	switch {
	case pct <= 0:
		return 0
	case pct >= 100:
		return 1
	}
	return pct / 100
}
