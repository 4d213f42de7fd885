// Package coach turns a student's readiness data into a practice plan
// using a language model.
package coach

import "github.com/placify/placify/internal/api"

// Input is what the coach knows about the student.
type Input struct {
	Recommendation *api.Recommendation
	Performance    []api.SectionPerformance
}

// Step is one item of a Plan.
type Step struct {
	Section string `json:"section"`
	Focus   string `json:"focus"`
	Minutes int    `json:"minutes"`
}

// Plan is the generated practice plan.
type Plan struct {
	Summary string `json:"summary"`
	Steps   []Step `json:"steps"`
}

// TotalMinutes sums the daily minutes of all steps.
func (p *Plan) TotalMinutes() int {
	total := 0
	for _, s := range p.Steps {
		total += s.Minutes
	}
	return total
}

// Config tunes generation.
type Config struct {
	MaxTokens   int
	Temperature float64
}

func DefaultConfig() Config {
	return Config{MaxTokens: 1024, Temperature: 0.4}
}
