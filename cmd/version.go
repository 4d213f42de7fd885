package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/placify/placify/internal/api"
)

// version is set via -ldflags at build time.
var version = "(devel)"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the current version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "placify", version)
		fmt.Fprintln(cmd.OutOrStdout(), "user agent:", api.UserAgent(version))
	},
}
