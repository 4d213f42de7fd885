// Package apitest provides an in-memory fake of the Placify service for
// tests.
package apitest

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

const cookieName = "session"

// Seeded accounts.
const (
	StudentUsername = "asha"
	StudentPassword = "secret"
	AdminUsername   = "admin"
	AdminPassword   = "admin123"
)

// QuestionSeed is a question with its answer key.
type QuestionSeed struct {
	ID      int
	Section int
	Text    string
	Options [4]string
	Correct string
}

// Submission records one POST /api/submit_test body as received.
type Submission struct {
	SectionID int               `json:"section_id"`
	Answers   map[string]string `json:"answers"`
	TimeTaken int               `json:"time_taken"`
}

type user struct {
	ID         int
	Username   string
	Password   string
	Email      string
	FullName   string
	Role       string
	Department *string
	Year       *int
}

type section struct {
	ID          int    `json:"id"`
	Name        string `json:"section_name"`
	Description string `json:"description"`
	Total       int    `json:"total_questions"`
	TimeLimit   int    `json:"time_limit"`
}

type attempt struct {
	ID          int     `json:"id"`
	UserID      int     `json:"user_id"`
	SectionID   int     `json:"section_id"`
	SectionName string  `json:"section_name"`
	Score       float64 `json:"score"`
	Correct     int     `json:"correct_answers"`
	Total       int     `json:"total_questions"`
	TimeTaken   int     `json:"time_taken"`
	CompletedAt string  `json:"completed_at"`
}

// Server is a fake Placify service listening on a local port.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	users       []*user
	sessions    map[string]int
	sections    []section
	questions   []QuestionSeed
	attempts    []attempt
	resumes     map[int]map[string]any
	recs        map[int]map[string]any
	submissions []Submission
	hits        map[string]int
	overrides   map[string]http.HandlerFunc
	nextToken   int
}

// New starts a seeded fake server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := newSeeded()
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func newSeeded() *Server {
	cse := "CSE"
	year := 3
	return &Server{
		users: []*user{
			{ID: 1, Username: StudentUsername, Password: StudentPassword, Email: "asha@example.com",
				FullName: "Asha Rao", Role: "student", Department: &cse, Year: &year},
			{ID: 2, Username: AdminUsername, Password: AdminPassword, Email: "admin@example.com",
				FullName: "Placement Cell", Role: "admin"},
		},
		sessions: map[string]int{},
		sections: []section{
			{ID: 1, Name: "Aptitude", Description: "Quantitative aptitude", Total: 2, TimeLimit: 30},
			{ID: 2, Name: "Coding", Description: "Programming fundamentals", Total: 1, TimeLimit: 45},
		},
		questions: []QuestionSeed{
			{ID: 1, Section: 1, Text: "2 + 2 = ?", Options: [4]string{"4", "3", "5", "22"}, Correct: "A"},
			{ID: 2, Section: 1, Text: "10% of 50 = ?", Options: [4]string{"10", "5", "15", "50"}, Correct: "B"},
			{ID: 3, Section: 2, Text: "Which is not a loop?", Options: [4]string{"for", "while", "if", "do-while"}, Correct: "C"},
		},
		resumes:   map[int]map[string]any{},
		recs:      map[int]map[string]any{},
		hits:      map[string]int{},
		overrides: map[string]http.HandlerFunc{},
	}
}

// Submissions returns the submit bodies received so far.
func (s *Server) Submissions() []Submission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Submission(nil), s.submissions...)
}

// Hits returns how many requests reached path.
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// Override replaces the handler of path until the server closes.
func (s *Server) Override(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[path] = h
}

// SetQuestions replaces the question bank of a section.
func (s *Server) SetQuestions(sectionID int, qs []QuestionSeed) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.questions[:0]
	for _, q := range s.questions {
		if q.Section != sectionID {
			kept = append(kept, q)
		}
	}
	for _, q := range qs {
		q.Section = sectionID
		kept = append(kept, q)
	}
	s.questions = kept
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.track)

	r.Route("/api", func(r chi.Router) {
		r.Post("/login", s.login)
		r.Post("/register", s.register)
		r.Post("/logout", s.logout)
		r.Get("/test_sections", s.testSections)
		r.Get("/questions/{sectionID}", s.questionsFor)

		r.Group(func(r chi.Router) {
			r.Use(s.requireUser)
			r.Get("/user_info", s.userInfo)
			r.Post("/submit_test", s.submitTest)
			r.Get("/user_scores", s.userScores)
			r.Get("/section_performance", s.sectionPerformance)
			r.Get("/ai_recommendations", s.aiRecommendations)
			r.Get("/get_resume", s.getResume)
			r.Post("/save_resume", s.saveResume)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/admin/students", s.adminStudents)
			r.Get("/admin/department_stats", s.departmentStats)
		})
	})
	return r
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		override := s.overrides[r.URL.Path]
		s.mu.Unlock()

		if override != nil {
			override(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondFail(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]any{"success": false, "message": msg})
}

// currentUser returns the user of the request's session cookie, or nil.
func (s *Server) currentUser(r *http.Request) *user {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[c.Value]
	if !ok {
		return nil
	}
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.currentUser(r) == nil {
			respondFail(w, http.StatusUnauthorized, "Not logged in")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u := s.currentUser(r)
		if u == nil || u.Role != "admin" {
			respondFail(w, http.StatusForbidden, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "bad json")
		return
	}

	s.mu.Lock()
	var found *user
	for _, u := range s.users {
		if u.Username == req.Username && u.Password == req.Password {
			found = u
			break
		}
	}
	var token string
	if found != nil {
		s.nextToken++
		token = fmt.Sprintf("tok-%d", s.nextToken)
		s.sessions[token] = found.ID
	}
	s.mu.Unlock()

	if found == nil {
		respondFail(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: token, Path: "/", HttpOnly: true})
	redirect := "/admin"
	if found.Role == "student" {
		redirect = "/student"
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "role": found.Role, "redirect": redirect})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username   string `json:"username"`
		Email      string `json:"email"`
		Password   string `json:"password"`
		FullName   string `json:"full_name"`
		Department string `json:"department"`
		Year       int    `json:"year"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondFail(w, http.StatusBadRequest, "bad json")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == req.Username || u.Email == req.Email {
			respondFail(w, http.StatusBadRequest, "Username or email already exists")
			return
		}
	}
	u := &user{
		ID:       len(s.users) + 1,
		Username: req.Username,
		Password: req.Password,
		Email:    req.Email,
		FullName: req.FullName,
		Role:     "student",
	}
	if req.Department != "" {
		dep := req.Department
		u.Department = &dep
	}
	if req.Year > 0 {
		year := req.Year
		u.Year = &year
	}
	s.users = append(s.users, u)
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Registration successful"})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(cookieName); err == nil {
		s.mu.Lock()
		delete(s.sessions, c.Value)
		s.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) userInfo(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":   u.ID,
		"username":  u.Username,
		"full_name": u.FullName,
		"role":      u.Role,
	})
}

func (s *Server) testSections(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	respondJSON(w, http.StatusOK, s.sections)
}

func (s *Server) questionsFor(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "sectionID"))
	if err != nil {
		http.NotFound(w, r)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, q := range s.questions {
		if q.Section != id {
			continue
		}
		out = append(out, map[string]any{
			"id":            q.ID,
			"question_text": q.Text,
			"option_a":      q.Options[0],
			"option_b":      q.Options[1],
			"option_c":      q.Options[2],
			"option_d":      q.Options[3],
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) submitTest(w http.ResponseWriter, r *http.Request) {
	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respondFail(w, http.StatusBadRequest, "bad json")
		return
	}
	u := s.currentUser(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.submissions = append(s.submissions, sub)

	var total, correct int
	for _, q := range s.questions {
		if q.Section != sub.SectionID {
			continue
		}
		total++
		if strings.EqualFold(sub.Answers[strconv.Itoa(q.ID)], q.Correct) {
			correct++
		}
	}
	var score float64
	if total > 0 {
		score = float64(correct) / float64(total) * 100
	}
	score = math.Round(score*100) / 100

	a := attempt{
		ID:          len(s.attempts) + 1,
		UserID:      u.ID,
		SectionID:   sub.SectionID,
		SectionName: s.sectionName(sub.SectionID),
		Score:       score,
		Correct:     correct,
		Total:       total,
		TimeTaken:   sub.TimeTaken,
		CompletedAt: time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
	s.attempts = append(s.attempts, a)
	s.recomputeRecommendations(u.ID)

	respondJSON(w, http.StatusOK, map[string]any{
		"success":    true,
		"score":      score,
		"correct":    correct,
		"total":      total,
		"attempt_id": a.ID,
	})
}

func (s *Server) sectionName(id int) string {
	for _, sec := range s.sections {
		if sec.ID == id {
			return sec.Name
		}
	}
	return ""
}

func (s *Server) userScores(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []attempt{}
	for i := len(s.attempts) - 1; i >= 0; i-- {
		if s.attempts[i].UserID == u.ID {
			out = append(out, s.attempts[i])
		}
	}
	respondJSON(w, http.StatusOK, out)
}

type perf struct {
	SectionName string  `json:"section_name"`
	AvgScore    float64 `json:"avg_score"`
	Attempts    int     `json:"attempts"`
}

// performanceOf must be called with s.mu held.
func (s *Server) performanceOf(userID int) []perf {
	var order []string
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, a := range s.attempts {
		if a.UserID != userID {
			continue
		}
		if counts[a.SectionName] == 0 {
			order = append(order, a.SectionName)
		}
		sums[a.SectionName] += a.Score
		counts[a.SectionName]++
	}
	out := []perf{}
	for _, name := range order {
		out = append(out, perf{SectionName: name, AvgScore: sums[name] / float64(counts[name]), Attempts: counts[name]})
	}
	return out
}

func (s *Server) sectionPerformance(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	respondJSON(w, http.StatusOK, s.performanceOf(u.ID))
}

var improvementFor = map[string]string{
	"Aptitude":          "Practice more quantitative problems and speed calculations",
	"Logical Reasoning": "Work on pattern recognition and logical puzzles",
	"Coding":            "Focus on data structures and algorithms",
	"HR & Soft Skills":  "Improve communication and behavioral interview skills",
	"Domain Knowledge":  "Study core technical concepts and fundamentals",
}

// recomputeRecommendations must be called with s.mu held.
func (s *Server) recomputeRecommendations(userID int) {
	perfs := s.performanceOf(userID)
	weak := []string{}
	areas := []string{}
	var avg float64
	for _, p := range perfs {
		avg += p.AvgScore
		if p.AvgScore < 60 {
			weak = append(weak, p.SectionName)
			if area, ok := improvementFor[p.SectionName]; ok {
				areas = append(areas, area)
			}
		}
	}
	if len(perfs) > 0 {
		avg /= float64(len(perfs))
	}

	focus := "Excellent performance! Maintain consistency and polish advanced topics."
	switch {
	case avg < 50:
		focus = "Focus on fundamentals across all sections. Take more practice tests."
	case avg < 70:
		focus = "Good progress! Concentrate on weak areas and time management."
	}

	weakJSON, _ := json.Marshal(weak)
	areasJSON, _ := json.Marshal(areas)
	s.recs[userID] = map[string]any{
		"readiness_score":   math.Min(avg+10, 100),
		"weak_sections":     string(weakJSON),
		"improvement_areas": string(areasJSON),
		"practice_focus":    focus,
		"generated_at":      time.Now().UTC().Format("2006-01-02 15:04:05"),
	}
}

func (s *Server) aiRecommendations(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[u.ID]
	if !ok {
		respondJSON(w, http.StatusOK, map[string]any{})
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func (s *Server) getResume(w http.ResponseWriter, r *http.Request) {
	u := s.currentUser(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	res, ok := s.resumes[u.ID]
	if !ok {
		respondFail(w, http.StatusNotFound, "No resume found")
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (s *Server) saveResume(w http.ResponseWriter, r *http.Request) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respondFail(w, http.StatusBadRequest, "bad json")
		return
	}
	u := s.currentUser(r)
	scores := scoreResume(data)

	s.mu.Lock()
	defer s.mu.Unlock()
	stored := map[string]any{"user_id": u.ID}
	for k, v := range data {
		stored[k] = v
	}
	for k, v := range scores {
		stored[k] = v
	}
	s.resumes[u.ID] = stored
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "scores": scores})
}

var resumeKeywords = []string{
	"python", "java", "javascript", "react", "sql", "database",
	"api", "git", "team", "project", "leadership", "communication",
	"problem solving", "agile", "development",
}

// scoreResume applies the service's rule-based resume scoring.
func scoreResume(data map[string]any) map[string]any {
	field := func(k string) string {
		v, _ := data[k].(string)
		return v
	}

	var ats float64
	for k, pts := range map[string]float64{"full_name": 15, "email": 10, "phone": 10, "education": 20, "skills": 20} {
		if field(k) != "" {
			ats += pts
		}
	}
	if field("experience") != "" || field("projects") != "" {
		ats += 25
	}

	text := strings.ToLower(field("skills") + " " + field("experience") + " " + field("projects"))
	var keyword float64
	for _, k := range resumeKeywords {
		if strings.Contains(text, k) {
			keyword += 100 / float64(len(resumeKeywords))
		}
	}

	length := 0
	for _, k := range []string{"education", "skills", "experience", "projects", "certifications"} {
		length += len(field(k))
	}
	var format float64
	if length > 100 {
		format += 40
	}
	if length > 300 {
		format += 30
	}
	if length > 500 {
		format += 30
	}

	overall := (ats + keyword + format) / 3

	var feedback []string
	if ats < 70 {
		feedback = append(feedback, "Add more details to key sections like education and experience.")
	}
	if keyword < 50 {
		feedback = append(feedback, "Include more relevant technical skills and keywords.")
	}
	if format < 60 {
		feedback = append(feedback, "Expand your resume with more detailed descriptions.")
	}
	switch {
	case overall >= 80:
		feedback = append(feedback, "Excellent resume! Well structured and comprehensive.")
	case overall >= 60:
		feedback = append(feedback, "Good resume, but there's room for improvement.")
	default:
		feedback = append(feedback, "Your resume needs significant enhancement.")
	}

	round := func(f float64) float64 { return math.Round(f*100) / 100 }
	return map[string]any{
		"ats_score":     round(ats),
		"keyword_score": round(keyword),
		"format_score":  round(format),
		"overall_score": round(overall),
		"feedback":      strings.Join(feedback, " "),
	}
}

func (s *Server) adminStudents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []map[string]any{}
	for _, u := range s.users {
		if u.Role != "student" {
			continue
		}
		var avg any
		var sum float64
		var n int
		attempted := map[int]bool{}
		for _, a := range s.attempts {
			if a.UserID == u.ID {
				sum += a.Score
				n++
				attempted[a.SectionID] = true
			}
		}
		if n > 0 {
			avg = sum / float64(n)
		}
		out = append(out, map[string]any{
			"id":                 u.ID,
			"username":           u.Username,
			"full_name":          u.FullName,
			"email":              u.Email,
			"department":         u.Department,
			"year":               u.Year,
			"avg_score":          avg,
			"sections_attempted": len(attempted),
		})
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) departmentStats(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type agg struct {
		students int
		sum      float64
		attempts int
	}
	var order []string
	byDept := map[string]*agg{}
	for _, u := range s.users {
		if u.Role != "student" || u.Department == nil {
			continue
		}
		d := *u.Department
		if byDept[d] == nil {
			byDept[d] = &agg{}
			order = append(order, d)
		}
		byDept[d].students++
		for _, a := range s.attempts {
			if a.UserID == u.ID {
				byDept[d].sum += a.Score
				byDept[d].attempts++
			}
		}
	}

	out := []map[string]any{}
	for _, d := range order {
		a := byDept[d]
		var avg any
		if a.attempts > 0 {
			avg = a.sum / float64(a.attempts)
		}
		out = append(out, map[string]any{
			"department":     d,
			"student_count":  a.students,
			"avg_score":      avg,
			"total_attempts": a.attempts,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
