package cmd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/placify/placify/internal/store"
)

var callsCmd = &cobra.Command{
	Use:   "calls",
	Short: "Inspect the journal of API and LLM calls",
}

// withStore runs fn with the opened store.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, s *store.Store) error) error {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(ctx, s)
}

var callsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent calls",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := store.QueryOpts{}
		opts.Limit, _ = cmd.Flags().GetInt("limit")
		opts.Kind, _ = cmd.Flags().GetString("kind")
		opts.Endpoint, _ = cmd.Flags().GetString("endpoint")
		opts.FailOnly, _ = cmd.Flags().GetBool("failed")
		if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
			opts.From = time.Now().Add(-since)
		}

		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			calls, err := s.CallRepo().QueryCalls(ctx, opts)
			if err != nil {
				return fmt.Errorf("query calls: %w", err)
			}
			w := cmd.OutOrStdout()
			if len(calls) == 0 {
				fmt.Fprintln(w, "No calls recorded.")
				return nil
			}

			fmt.Fprintf(w, "%-5s  %-16s  %-4s  %-6s  %-32s  %-20s  %5s  %7s  %s\n",
				"ID", "When", "Kind", "Method", "Endpoint", "Purpose", "Code", "Ms", "OK")
			rule(w, 112)
			for _, c := range calls {
				ok := "✓"
				if !c.Success {
					ok = "✗"
				}
				code := "-"
				if c.StatusCode != 0 {
					code = strconv.Itoa(c.StatusCode)
				}
				fmt.Fprintf(w, "%-5d  %-16s  %-4s  %-6s  %-32s  %-20s  %5s  %7d  %s\n",
					c.ID,
					humanize.Time(c.Timestamp),
					c.Kind,
					c.Method,
					truncate(c.Endpoint, 32),
					truncate(c.Purpose, 20),
					code,
					c.LatencyMs,
					ok,
				)
			}
			return nil
		})
	},
}

var callsViewCmd = &cobra.Command{
	Use:   "view <id>",
	Short: "View the full request and response of a call",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid ID %q: %w", args[0], err)
		}

		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			c, err := s.CallRepo().GetCall(ctx, id)
			if err != nil {
				return fmt.Errorf("get call: %w", err)
			}
			if c == nil {
				return fmt.Errorf("call %d not found", id)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "ID:        %d\n", c.ID)
			fmt.Fprintf(w, "Request:   %s\n", c.RequestID)
			fmt.Fprintf(w, "Time:      %s (%s)\n", c.Timestamp.Local().Format("2006-01-02 15:04:05"), humanize.Time(c.Timestamp))
			fmt.Fprintf(w, "Kind:      %s\n", c.Kind)
			fmt.Fprintf(w, "Call:      %s %s\n", c.Method, c.Endpoint)
			fmt.Fprintf(w, "Purpose:   %s\n", c.Purpose)
			if c.StatusCode != 0 {
				fmt.Fprintf(w, "Status:    %d\n", c.StatusCode)
			}
			fmt.Fprintf(w, "Latency:   %dms\n", c.LatencyMs)
			fmt.Fprintf(w, "Success:   %v\n", c.Success)
			if c.ErrorMessage != "" {
				fmt.Fprintf(w, "Error:     %s\n", c.ErrorMessage)
			}

			for _, part := range []struct{ title, body string }{
				{"REQUEST", c.RequestBody},
				{"RESPONSE", c.ResponseBody},
			} {
				fmt.Fprintln(w)
				rule(w, 60)
				fmt.Fprintf(w, "%s (%s)\n", part.title, humanize.Bytes(uint64(len(part.body))))
				rule(w, 60)
				if part.body == "" {
					fmt.Fprintln(w, "(not captured)")
				} else {
					fmt.Fprintln(w, part.body)
				}
			}
			return nil
		})
	},
}

var callsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show call counts, failures and latency per endpoint",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			usage, err := s.CallRepo().UsageByEndpoint(ctx)
			if err != nil {
				return fmt.Errorf("query usage: %w", err)
			}
			w := cmd.OutOrStdout()
			if len(usage) == 0 {
				fmt.Fprintln(w, "No calls recorded.")
				return nil
			}

			fmt.Fprintf(w, "%-4s  %-36s  %8s  %8s  %8s\n", "Kind", "Endpoint", "Calls", "Failed", "Avg Ms")
			rule(w, 72)
			var calls, failures int
			for _, u := range usage {
				fmt.Fprintf(w, "%-4s  %-36s  %8s  %8s  %8d\n",
					u.Kind, truncate(u.Endpoint, 36), humanize.Comma(int64(u.Calls)), humanize.Comma(int64(u.Failures)), u.AvgLatencyMs)
				calls += u.Calls
				failures += u.Failures
			}
			rule(w, 72)
			fmt.Fprintf(w, "%-4s  %-36s  %8s  %8s\n", "", "TOTAL", humanize.Comma(int64(calls)), humanize.Comma(int64(failures)))
			return nil
		})
	},
}

var callsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the most recent calls",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		keep, _ := cmd.Flags().GetInt("keep")
		if keep < 0 {
			return fmt.Errorf("--keep must not be negative")
		}
		return withStore(cmd, func(ctx context.Context, s *store.Store) error {
			n, err := s.CallRepo().Prune(ctx, keep)
			if err != nil {
				return fmt.Errorf("prune calls: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s %s.\n", humanize.Comma(n), plural(n, "call", "calls"))
			return nil
		})
	},
}

func plural(n int64, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func init() {
	callsListCmd.Flags().IntP("limit", "n", 20, "Number of calls to show")
	callsListCmd.Flags().StringP("kind", "k", "", "Filter by kind (api or llm)")
	callsListCmd.Flags().StringP("endpoint", "e", "", "Filter by exact endpoint, e.g. /api/submit_test")
	callsListCmd.Flags().Bool("failed", false, "Show failed calls only")
	callsListCmd.Flags().Duration("since", 0, "Only calls newer than this, e.g. 24h")

	callsPruneCmd.Flags().Int("keep", 500, "Number of most recent calls to keep")

	callsCmd.AddCommand(callsListCmd)
	callsCmd.AddCommand(callsViewCmd)
	callsCmd.AddCommand(callsStatsCmd)
	callsCmd.AddCommand(callsPruneCmd)
}
