package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/placify/placify/internal/api"
	"github.com/placify/placify/internal/pages"
	"github.com/placify/placify/internal/report"
)

// loaderCmd returns a command that runs one page loader.
func loaderCmd(use, short string, l pages.Loader) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd, string(l), func(ctx context.Context, d *deps) error {
				return loaders[l](ctx, d.gateway, cmd.OutOrStdout())
			})
		},
	}
}

var (
	sectionsCmd        = loaderCmd("sections", "List the test sections", pages.LoadSections)
	scoresCmd          = loaderCmd("scores", "Show your score history", pages.LoadUserScores)
	performanceCmd     = loaderCmd("performance", "Show your average score per section", pages.LoadSectionPerformance)
	recommendationsCmd = loaderCmd("recommendations", "Show your placement readiness", pages.LoadRecommendations)
)

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Show or save your resume",
}

var resumeShowCmd = loaderCmd("show", "Show the saved resume and its score", pages.LoadResume)

var resumeSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save the resume and print its score analysis",
	Long:  "Save the resume. Fields left unset keep their stored value.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd, "save-resume", func(ctx context.Context, d *deps) error {
			var r api.Resume
			if stored := d.gateway.GetResume(ctx); stored.OK {
				r = stored.Value.Resume
			}
			for flag, field := range resumeFields(&r) {
				if cmd.Flags().Changed(flag) {
					*field, _ = cmd.Flags().GetString(flag)
				}
			}

			res := d.gateway.SaveResume(ctx, r)
			if err := resultErr(res, "Failed to save resume"); err != nil {
				return fmt.Errorf("save resume: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Resume saved successfully!")
			fmt.Fprintln(cmd.OutOrStdout())
			printResumeScore(cmd.OutOrStdout(), report.ResumeScore(res.Value))
			return nil
		})
	},
}

// resumeFields maps each resume flag to the field it sets.
func resumeFields(r *api.Resume) map[string]*string {
	return map[string]*string{
		"full-name":      &r.FullName,
		"email":          &r.Email,
		"phone":          &r.Phone,
		"education":      &r.Education,
		"skills":         &r.Skills,
		"experience":     &r.Experience,
		"projects":       &r.Projects,
		"certifications": &r.Certifications,
	}
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Placement cell reports (admin only)",
}

var (
	adminStudentsCmd    = loaderCmd("students", "List students with their average scores", pages.LoadStudents)
	adminDepartmentsCmd = loaderCmd("departments", "Show per-department statistics", pages.LoadDepartmentStats)
)

func init() {
	for flag := range resumeFields(&api.Resume{}) {
		resumeSaveCmd.Flags().String(flag, "", "Resume "+flag)
	}
	resumeCmd.AddCommand(resumeShowCmd)
	resumeCmd.AddCommand(resumeSaveCmd)

	adminCmd.AddCommand(adminStudentsCmd)
	adminCmd.AddCommand(adminDepartmentsCmd)
}
