package command

// root.go defines the root command for the storehub CLI and its global flags.

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"storehub/cmd/cli/authentication"
	"storehub/cmd/cli/command/client"
	"storehub/internal/microservices/http-api/dto"
)

var apiURL string // Global flag for API server URL, including the /api prefix

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "storehub",
	Short: "storehub - store rating platform command line interface",
	Long: `storehub talks to the storehub REST API. With it you can:
- register, log in and manage your password
- browse stores and their ratings
- rate stores (normal users)
- follow your store's ratings (store owners)
- read the platform dashboard (administrators)`,
	SilenceUsage: true,
}

// Execute runs the root command. Called once by main.main().
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "✗", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", envOr("STOREHUB_API", "http://localhost:8080/api"), "API server URL")
	rootCmd.AddCommand(authCmd, storeCmd, ratingCmd, adminCmd)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// session is an HTTP client bound to the stored credentials.
type session struct {
	*client.HTTPClient
	creds *authentication.StoredCredentials
}

func newSession() (*session, error) {
	creds, err := authentication.GetTokens()
	if err != nil {
		return nil, err
	}
	c := client.NewHTTPClient(apiURL)
	c.SetToken(creds.AccessToken)
	return &session{HTTPClient: c, creds: creds}, nil
}

// authed runs fn, and when the server rejects the access token it rotates the
// stored refresh token and tries once more.
func authed(ctx context.Context, fn func(s *session) error) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	if s.creds.Expired(time.Now()) {
		if err := s.refresh(ctx); err != nil {
			return err
		}
	}

	err = fn(s)
	if !client.IsUnauthorized(err) || s.creds.RefreshToken == "" {
		return err
	}
	if err := s.refresh(ctx); err != nil {
		return err
	}
	return fn(s)
}

func (s *session) refresh(ctx context.Context) error {
	resp, err := s.Refresh(ctx, s.creds.RefreshToken)
	if err != nil {
		if client.IsUnauthorized(err) {
			_ = authentication.DeleteTokens()
			return errors.New("session expired, please run 'storehub auth login'")
		}
		return fmt.Errorf("refreshing session: %w", err)
	}
	if err := saveSession(resp); err != nil {
		return err
	}
	s.creds.AccessToken, s.creds.RefreshToken = resp.AccessToken, resp.RefreshToken
	s.SetToken(resp.AccessToken)
	return nil
}

func saveSession(resp *dto.AuthResponse) error {
	return authentication.StoreTokens(&authentication.StoredCredentials{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Email:        resp.User.Email,
		Role:         string(resp.User.Role),
		ExpiresAt:    time.Now().Add(time.Duration(resp.ExpiresIn) * time.Second).Unix(),
	})
}
