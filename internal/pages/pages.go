// Package pages maps service paths to the views that show them and the
// data each view loads.
package pages

import "strings"

// Page identifies a top-level view.
type Page string

const (
	Login     Page = "login"
	Student   Page = "student"
	Tests     Page = "tests"
	Dashboard Page = "dashboard"
	Resume    Page = "resume"
	Admin     Page = "admin"
)

// Loader names one data fetch a page performs on entry.
type Loader string

const (
	LoadSections           Loader = "test-sections"
	LoadUserScores         Loader = "user-scores"
	LoadSectionPerformance Loader = "section-performance"
	LoadRecommendations    Loader = "ai-recommendations"
	LoadResume             Loader = "resume"
	LoadStudents           Loader = "admin-students"
	LoadDepartmentStats    Loader = "department-stats"
)

var byPath = map[string]Page{
	"/login":     Login,
	"/student":   Student,
	"/tests":     Tests,
	"/dashboard": Dashboard,
	"/resume":    Resume,
	"/admin":     Admin,
}

var loaders = map[Page][]Loader{
	Tests:     {LoadSections},
	Dashboard: {LoadUserScores, LoadSectionPerformance, LoadRecommendations},
	Resume:    {LoadResume},
	Admin:     {LoadStudents, LoadDepartmentStats},
}

// Resolve returns the page served at path. Trailing slashes are ignored.
func Resolve(path string) (Page, bool) {
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	p, ok := byPath[path]
	return p, ok
}

// Loaders returns the fetches performed when p is shown, in order.
func Loaders(p Page) []Loader {
	return append([]Loader(nil), loaders[p]...)
}

// Path returns the service path of p.
func (p Page) Path() string {
	return "/" + string(p)
}

// AdminOnly reports whether p requires the admin role.
func (p Page) AdminOnly() bool {
	return p == Admin
}

// Paths lists every known path, for help text.
func Paths() []string {
	return []string{"/login", "/student", "/tests", "/dashboard", "/resume", "/admin"}
}
