package coach

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/placify/placify/internal/llm"
)

// ErrNoData is returned when there is nothing to base a plan on.
var ErrNoData = errors.New("no test results to plan from")

// Service generates practice plans.
type Service struct {
	provider llm.Provider
	cfg      Config
}

func NewService(provider llm.Provider, cfg Config) *Service {
	return &Service{provider: provider, cfg: cfg}
}

// Plan asks the model for a practice plan. Steps with a non-positive
// duration are dropped.
func (s *Service) Plan(ctx context.Context, in Input) (*Plan, error) {
	if len(in.Performance) == 0 && (in.Recommendation == nil || in.Recommendation.ReadinessScore == nil) {
		return nil, ErrNoData
	}

	ctx = llm.WithPurpose(ctx, "practice-plan")
	resp, err := s.provider.Generate(ctx, llm.Request{
		System:      systemPrompt,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildUserMessage(in)}},
		Schema:      PlanSchema,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("practice plan: %w", err)
	}

	var plan Plan
	if err := json.Unmarshal(resp.Content, &plan); err != nil {
		return nil, fmt.Errorf("parse practice plan: %w", err)
	}
	steps := plan.Steps[:0]
	for _, st := range plan.Steps {
		if st.Minutes > 0 {
			steps = append(steps, st)
		}
	}
	plan.Steps = steps
	return &plan, nil
}
