package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/placify/placify/internal/pages"
)

var openCmd = &cobra.Command{
	Use:   "open <path>",
	Short: "Print the data a page shows, e.g. placify open /dashboard",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		page, ok := pages.Resolve(args[0])
		if !ok {
			return fmt.Errorf("unknown page %q (known: %v)", args[0], pages.Paths())
		}
		ls := pages.Loaders(page)
		if len(ls) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s loads no data.\n", page.Path())
			return nil
		}
		return withDeps(cmd, "open-"+string(page), func(ctx context.Context, d *deps) error {
			for i, l := range ls {
				if i > 0 {
					fmt.Fprintln(cmd.OutOrStdout())
				}
				fmt.Fprintf(cmd.OutOrStdout(), "== %s ==\n", l)
				if err := loaders[l](ctx, d.gateway, cmd.OutOrStdout()); err != nil {
					return fmt.Errorf("%s: %w", l, err)
				}
			}
			return nil
		})
	},
}
