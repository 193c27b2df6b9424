package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"storehub/cmd/cli/authentication"
	"storehub/cmd/cli/command/client"
	"storehub/internal/microservices/http-api/dto"
)

// auth.go handles register, login, logout, profile and password commands.

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  `Authenticate with the storehub API server. Supports registration, login, logout and password changes.`,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Register a new account (role user)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.RegisterRequest
		req.Name, _ = cmd.Flags().GetString("name")
		req.Email, _ = cmd.Flags().GetString("email")
		req.Password, _ = cmd.Flags().GetString("password")
		req.Address, _ = cmd.Flags().GetString("address")

		resp, err := client.NewHTTPClient(apiURL).Register(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("registration failed: %w", err)
		}
		if err := saveSession(resp); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "Registered and logged in as %s (id %d)", resp.User.Email, resp.User.ID)
		return nil
	},
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in to your storehub account",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.LoginRequest
		req.Email, _ = cmd.Flags().GetString("email")
		req.Password, _ = cmd.Flags().GetString("password")

		resp, err := client.NewHTTPClient(apiURL).Login(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		if err := saveSession(resp); err != nil {
			return err
		}
		printSuccess(cmd.OutOrStdout(), "Logged in as %s (%s)", resp.User.Name, resp.User.Role)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and forget the stored session",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := newSession()
		if err != nil {
			return err
		}
		// the server call only revokes refresh tokens; the local session goes either way
		serverErr := s.Logout(cmd.Context())
		if err := authentication.DeleteTokens(); err != nil {
			return err
		}
		if serverErr != nil && !client.IsUnauthorized(serverErr) {
			return fmt.Errorf("local session cleared, server logout failed: %w", serverErr)
		}
		printSuccess(cmd.OutOrStdout(), "Logged out")
		return nil
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show your profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authed(cmd.Context(), func(s *session) error {
			me, err := s.Me(cmd.Context())
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s %s\n", heading(me.User.Name), faint(fmt.Sprintf("#%d", me.User.ID)))
			fmt.Fprintf(w, "Email:   %s\n", me.User.Email)
			fmt.Fprintf(w, "Address: %s\n", me.User.Address)
			fmt.Fprintf(w, "Role:    %s\n", me.User.Role)
			if me.Store != nil {
				fmt.Fprintf(w, "Store:   %s (%s)\n", me.Store.Name, stars(me.Store.AverageRating))
			}
			return nil
		})
	},
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	RunE: func(cmd *cobra.Command, args []string) error {
		var req dto.ChangePasswordRequest
		req.CurrentPassword, _ = cmd.Flags().GetString("current")
		req.NewPassword, _ = cmd.Flags().GetString("new")

		return authed(cmd.Context(), func(s *session) error {
			if err := s.ChangePassword(cmd.Context(), req); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Password updated")
			return nil
		})
	},
}

func init() {
	authCmd.AddCommand(registerCmd, loginCmd, logoutCmd, meCmd, passwordCmd)

	registerCmd.Flags().StringP("name", "n", "", "Full name (20-60 characters)")
	registerCmd.Flags().StringP("email", "e", "", "Email address")
	registerCmd.Flags().StringP("password", "p", "", "Password (8-16 characters with upper and lower case letters and a special character)")
	registerCmd.Flags().StringP("address", "a", "", "Address (up to 400 characters)")
	for _, f := range []string{"name", "email", "password", "address"} {
		_ = registerCmd.MarkFlagRequired(f)
	}

	loginCmd.Flags().StringP("email", "e", "", "Email address")
	loginCmd.Flags().StringP("password", "p", "", "Password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	passwordCmd.Flags().String("current", "", "Current password")
	passwordCmd.Flags().String("new", "", "New password")
	_ = passwordCmd.MarkFlagRequired("current")
	_ = passwordCmd.MarkFlagRequired("new")
}
