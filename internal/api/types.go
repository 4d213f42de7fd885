package api

import "fmt"

// Choice is a multiple-choice answer letter, A through D.
type Choice string

const (
	ChoiceA Choice = "A"
	ChoiceB Choice = "B"
	ChoiceC Choice = "C"
	ChoiceD Choice = "D"
)

// Choices lists the answer letters in display order.
var Choices = []Choice{ChoiceA, ChoiceB, ChoiceC, ChoiceD}

// Valid reports whether c is one of A-D.
func (c Choice) Valid() bool {
	switch c {
	case ChoiceA, ChoiceB, ChoiceC, ChoiceD:
		return true
	}
	return false
}

// Section is a named category of test questions.
type Section struct {
	ID             int    `json:"id"`
	Name           string `json:"section_name"`
	Description    string `json:"description"`
	TotalQuestions int    `json:"total_questions"`
	TimeLimit      int    `json:"time_limit"` // minutes
}

// Question is one multiple-choice item of a section.
type Question struct {
	ID      int    `json:"id"`
	Text    string `json:"question_text"`
	OptionA string `json:"option_a"`
	OptionB string `json:"option_b"`
	OptionC string `json:"option_c"`
	OptionD string `json:"option_d"`
}

// Option returns the text of the choice labeled c.
func (q Question) Option(c Choice) string {
	switch c {
	case ChoiceA:
		return q.OptionA
	case ChoiceB:
		return q.OptionB
	case ChoiceC:
		return q.OptionC
	case ChoiceD:
		return q.OptionD
	}
	return ""
}

// SubmitRequest is the body of POST /api/submit_test. Unanswered
// questions are absent from Answers.
type SubmitRequest struct {
	SectionID int            `json:"section_id"`
	Answers   map[int]Choice `json:"answers"`
	TimeTaken int            `json:"time_taken"`
}

// ScoreResult is the server's scoring of a submitted test.
type ScoreResult struct {
	Score     float64 `json:"score"`
	Correct   int     `json:"correct"`
	Total     int     `json:"total"`
	AttemptID int     `json:"attempt_id"`
}

// ScoreRow is one entry of the user's score history.
type ScoreRow struct {
	ID             int     `json:"id"`
	SectionID      int     `json:"section_id"`
	SectionName    string  `json:"section_name"`
	Score          float64 `json:"score"`
	CorrectAnswers int     `json:"correct_answers"`
	TotalQuestions int     `json:"total_questions"`
	TimeTaken      int     `json:"time_taken"`
	CompletedAt    string  `json:"completed_at"`
}

// SectionPerformance is the user's average score for one section.
type SectionPerformance struct {
	SectionName string  `json:"section_name"`
	AvgScore    float64 `json:"avg_score"`
	Attempts    int     `json:"attempts"`
}

// Recommendation is the server-computed readiness payload. WeakSections
// and ImprovementAreas arrive as JSON-encoded string arrays.
type Recommendation struct {
	ReadinessScore   *float64 `json:"readiness_score"`
	WeakSections     string   `json:"weak_sections"`
	ImprovementAreas string   `json:"improvement_areas"`
	PracticeFocus    string   `json:"practice_focus"`
	GeneratedAt      string   `json:"generated_at"`
}

// Resume holds the editable resume fields.
type Resume struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Education      string `json:"education"`
	Skills         string `json:"skills"`
	Experience     string `json:"experience"`
	Projects       string `json:"projects"`
	Certifications string `json:"certifications"`
}

// ResumeScores is the server's analysis of a saved resume.
type ResumeScores struct {
	ATSScore     float64  `json:"ats_score"`
	KeywordScore float64  `json:"keyword_score"`
	FormatScore  float64  `json:"format_score"`
	OverallScore float64  `json:"overall_score"`
	Feedback     string   `json:"feedback"`
	Suggestions  []string `json:"suggestions,omitempty"`
}

// StoredResume is a resume as returned by GET /api/get_resume, including
// the scores of its last save.
type StoredResume struct {
	Resume
	ATSScore     *float64 `json:"ats_score"`
	KeywordScore *float64 `json:"keyword_score"`
	FormatScore  *float64 `json:"format_score"`
	OverallScore *float64 `json:"overall_score"`
	Feedback     string   `json:"feedback"`
}

// Scores returns the stored analysis, or nil if the resume was never scored.
func (r StoredResume) Scores() *ResumeScores {
	if r.OverallScore == nil || *r.OverallScore == 0 {
		return nil
	}
	return &ResumeScores{
		ATSScore:     deref(r.ATSScore),
		KeywordScore: deref(r.KeywordScore),
		FormatScore:  deref(r.FormatScore),
		OverallScore: *r.OverallScore,
		Feedback:     r.Feedback,
	}
}

// Student is one row of the admin student listing.
type Student struct {
	ID                int      `json:"id"`
	Username          string   `json:"username"`
	FullName          string   `json:"full_name"`
	Email             string   `json:"email"`
	Department        *string  `json:"department"`
	Year              *int     `json:"year"`
	AvgScore          *float64 `json:"avg_score"`
	SectionsAttempted *int     `json:"sections_attempted"`
}

// DepartmentStat aggregates performance for one department.
type DepartmentStat struct {
	Department    string   `json:"department"`
	StudentCount  int      `json:"student_count"`
	AvgScore      *float64 `json:"avg_score"`
	TotalAttempts *int     `json:"total_attempts"`
}

// Credentials is the body of POST /api/login.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the success payload of POST /api/login.
type LoginResult struct {
	Role     string `json:"role"`
	Redirect string `json:"redirect"`
}

// Registration is the body of POST /api/register.
type Registration struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
	Year       int    `json:"year"`
}

// UserInfo describes the logged-in user.
type UserInfo struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the user has the admin role.
func (u UserInfo) IsAdmin() bool {
	return u.Role == "admin"
}

func (u UserInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", u.FullName, u.Username, u.Role)
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
