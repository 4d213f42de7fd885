package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/placify/placify/internal/app"
	"github.com/placify/placify/internal/coach"
	"github.com/placify/placify/internal/llm"
	"github.com/placify/placify/internal/pages"
	"github.com/placify/placify/internal/session"
	"github.com/placify/placify/internal/store"
)

// defaultRequestTimeout bounds screen requests when PLACIFY_TIMEOUT is
// unset.
const defaultRequestTimeout = 15 * time.Second

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	raw, _ := cmd.Flags().GetString("page")
	start, ok := pages.Resolve(raw)
	if !ok {
		return fmt.Errorf("unknown page %q (known: %v)", raw, pages.Paths())
	}

	d, err := openDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	timeout := d.cfg.Timeout
	if timeout == 0 {
		timeout = defaultRequestTimeout
	}
	opts := app.Options{
		Gateway: d.gateway,
		Jar:     d.jar,
		Flow:    session.NewFlow(session.NewManager(time.Now), d.gateway),
		Timeout: timeout,
		Start:   start,
	}

	if svc, cfg, err := newCoach(cmd, d.store.CallRepo()); err != nil {
		fmt.Fprintln(os.Stderr, "LLM provider not configured:", err)
		fmt.Fprintln(os.Stderr, "Practice plans will be unavailable.")
	} else if svc != nil {
		opts.Coach = svc
		opts.CoachTimeout = cfg.Timeout
	}

	return app.Run(opts)
}

// newCoach builds the practice coach from the environment. It returns a
// nil service and no error when no provider is configured.
func newCoach(cmd *cobra.Command, calls store.CallRepo) (*coach.Service, llm.Config, error) {
	cfg, ok := llm.LoadConfig()
	if !ok {
		return nil, cfg, nil
	}
	provider, err := llm.NewProvider(cmd.Context(), cfg, calls)
	if err != nil {
		return nil, cfg, err
	}
	return coach.NewService(provider, coach.DefaultConfig()), cfg, nil
}
