package coach

import (
	"fmt"
	"strings"

	"github.com/placify/placify/internal/report"
)

const systemPrompt = `You are a placement preparation coach for engineering students. You write short, concrete practice plans based on test results.`

func buildUserMessage(in Input) string {
	var b strings.Builder

	b.WriteString("Section performance:\n")
	if len(in.Performance) == 0 {
		b.WriteString("No tests taken yet\n")
	}
	for _, p := range in.Performance {
		fmt.Fprintf(&b, "- %s: %.1f%% average over %d attempts\n", p.SectionName, p.AvgScore, p.Attempts)
	}

	if r := in.Recommendation; r != nil && r.ReadinessScore != nil {
		fmt.Fprintf(&b, "\nReadiness score: %.1f%%\n", *r.ReadinessScore)
		writeList(&b, "Weak sections", report.ParseList(r.WeakSections))
		writeList(&b, "Improvement areas", report.ParseList(r.ImprovementAreas))
		if r.PracticeFocus != "" {
			fmt.Fprintf(&b, "Practice focus: %s\n", r.PracticeFocus)
		}
	}

	b.WriteString(`
Instructions:
1. Summarize the student's readiness in two or three sentences.
2. Give three to five steps. Put weak sections first.
3. Each step names one section, a specific focus and daily minutes between 10 and 60.
4. Use plain text. No markdown.`)
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(items, ", "))
}
