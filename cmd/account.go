package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/placify/placify/internal/api"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and keep the session for later commands",
	RunE: func(cmd *cobra.Command, args []string) error {
		username, _ := cmd.Flags().GetString("username")
		password, _ := cmd.Flags().GetString("password")
		if username == "" || password == "" {
			return errors.New("--username and --password are required")
		}
		return withDeps(cmd, "login", func(ctx context.Context, d *deps) error {
			res := d.gateway.Login(ctx, api.Credentials{Username: username, Password: password})
			if err := resultErr(res, "Login failed"); err != nil {
				return err
			}
			info := d.gateway.UserInfo(ctx)
			if err := resultErr(info, "Login failed"); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", info.Value)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the server session and forget its cookie",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd, "logout", func(ctx context.Context, d *deps) error {
			res := d.gateway.Logout(ctx)
			// The local session is dropped even if the server call failed.
			if err := d.jar.Forget(ctx); err != nil {
				return err
			}
			if err := resultErr(res, "Logout failed"); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a student account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var reg api.Registration
		reg.Username, _ = cmd.Flags().GetString("username")
		reg.Email, _ = cmd.Flags().GetString("email")
		reg.Password, _ = cmd.Flags().GetString("password")
		reg.FullName, _ = cmd.Flags().GetString("full-name")
		reg.Department, _ = cmd.Flags().GetString("department")
		reg.Year, _ = cmd.Flags().GetInt("year")
		if reg.Username == "" || reg.Email == "" || reg.Password == "" || reg.FullName == "" {
			return errors.New("--username, --email, --password and --full-name are required")
		}
		return withDeps(cmd, "register", func(ctx context.Context, d *deps) error {
			res := d.gateway.Register(ctx, reg)
			if err := resultErr(res, "Registration failed"); err != nil {
				return err
			}
			msg := res.Value
			if msg == "" {
				msg = "Registration successful! Please login."
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDeps(cmd, "whoami", func(ctx context.Context, d *deps) error {
			info := d.gateway.UserInfo(ctx)
			if err := resultErr(info, "Not logged in"); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), info.Value)
			return nil
		})
	},
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "Account username")
	loginCmd.Flags().StringP("password", "p", "", "Account password")

	registerCmd.Flags().StringP("username", "u", "", "Account username")
	registerCmd.Flags().StringP("password", "p", "", "Account password")
	registerCmd.Flags().String("email", "", "Email address")
	registerCmd.Flags().String("full-name", "", "Full name")
	registerCmd.Flags().String("department", "", "Department, e.g. CSE")
	registerCmd.Flags().Int("year", 0, "Year of study (1-4)")
}
