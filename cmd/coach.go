package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/placify/placify/internal/coach"
)

var coachCmd = &cobra.Command{
	Use:   "coach",
	Short: "Generate a practice plan from your results",
	Long:  "Generate a practice plan from your section performance and readiness. Requires an LLM provider (PLACIFY_LLM_PROVIDER or a standard *_API_KEY variable).",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd, "practice-plan", func(ctx context.Context, d *deps) error {
			svc, cfg, err := newCoach(cmd, d.store.CallRepo())
			if err != nil {
				return fmt.Errorf("LLM provider not configured: %w", err)
			}
			if svc == nil {
				return errors.New("no LLM provider configured; set PLACIFY_LLM_PROVIDER or an *_API_KEY variable")
			}

			perf := d.gateway.SectionPerformance(ctx)
			if err := resultErr(perf, "Failed to load performance"); err != nil {
				return err
			}
			in := coach.Input{Performance: perf.Value}
			if rec := d.gateway.AIRecommendations(ctx); rec.OK {
				in.Recommendation = &rec.Value
			}

			if cfg.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
				defer cancel()
			}
			plan, err := svc.Plan(ctx, in)
			if errors.Is(err, coach.ErrNoData) {
				return errors.New("take some tests before asking for a practice plan")
			}
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, plan.Summary)
			fmt.Fprintln(w)
			for _, st := range plan.Steps {
				fmt.Fprintf(w, "  %-16s %3d min  %s\n", truncate(st.Section, 16), st.Minutes, st.Focus)
			}
			fmt.Fprintf(w, "\nTotal: %d minutes a day\n", plan.TotalMinutes())
			return nil
		})
	},
}
