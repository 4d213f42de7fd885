package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "placify",
	Short: "Placement readiness tests in the terminal",
	Long:  "Placify is a terminal client for the Placify placement-readiness service: take aptitude tests, track scores and build a resume.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadEnvFile(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides PLACIFY_DB env var)")
	rootCmd.PersistentFlags().String("env-file", ".env", "File of PLACIFY_* settings; variables already set in the environment win")
	rootCmd.PersistentFlags().String("server", "", "Placify server URL (overrides PLACIFY_SERVER env var)")
	rootCmd.Flags().String("page", "/student", "Page to open after login, e.g. /dashboard")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(scoresCmd)
	rootCmd.AddCommand(performanceCmd)
	rootCmd.AddCommand(recommendationsCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(openCmd)
	rootCmd.AddCommand(coachCmd)
	rootCmd.AddCommand(callsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadEnvFile loads the --env-file into the process environment. A
// missing default file is ignored.
func loadEnvFile(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("env-file")
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("env-file") {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then PLACIFY_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// apiConfig reads the gateway configuration from the environment and
// applies the --server flag.
func apiConfig(cmd *cobra.Command) api.Config {
	cfg := api.ConfigFromEnv()
	if s, _ := cmd.Flags().GetString("server"); s != "" {
		cfg.Server = s
	}
	cfg.Version = version
	return cfg
}

// deps are the resources shared by every command that talks to the
// server.
type deps struct {
	store   *store.Store
	gateway *api.Gateway
	jar     *api.PersistentJar
	cfg     api.Config
}

func (d *deps) Close() error {
	return d.store.Close()
}

// openDeps opens the store and builds a gateway whose session cookies
// persist there.
func openDeps(cmd *cobra.Command) (*deps, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	cfg := apiConfig(cmd)
	gw, jar, err := api.New(cmd.Context(), cfg, st.CookieRepo(), st.CallRepo())
	if err != nil {
		st.Close()
		return nil, err
	}
	return &deps{store: st, gateway: gw, jar: jar, cfg: cfg}, nil
}

// withDeps runs fn with freshly opened deps and a purpose-tagged
// context.
func withDeps(cmd *cobra.Command, purpose string, fn func(ctx context.Context, d *deps) error) error {
	d, err := openDeps(cmd)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return fn(api.WithPurpose(ctx, purpose), d)
}

// resultErr converts a failed gateway result into an error.
func resultErr[T any](res api.Result[T], fallback string) error {
	if res.OK {
		return nil
	}
	return errors.New(res.MessageOr(fallback))
}
