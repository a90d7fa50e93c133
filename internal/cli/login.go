package cli

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newLoginCmd(app *App) *cobra.Command {
	var email string
	var password string
	var withRefresh bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		Long: strings.TrimSpace(`
Log in to the backend and print a bearer token for ASSETDESK_TOKEN.

Without --password the password is read from the first line of stdin.
With --with-refresh a refresh token follows on a second line; pass it to
"assetdesk refresh" for a new pair once the bearer token expires.
`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return errors.New("missing --email")
			}
			if password == "" {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("missing --password")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			session, err := app.client().Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			app.log().Debug("logged in", "user", session.User.Email, "role", session.User.Role)
			fmt.Fprintln(cmd.OutOrStdout(), session.Token)
			if withRefresh {
				fmt.Fprintln(cmd.OutOrStdout(), session.RefreshToken)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password (default: read from stdin)")
	cmd.Flags().BoolVar(&withRefresh, "with-refresh", false, "Also print a refresh token")

	return cmd
}

func newRefreshCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "refresh [refresh-token]",
		Short: "Trade a refresh token for a new token pair",
		Long: strings.TrimSpace(`
Trade a refresh token for a new bearer token and refresh token, printed on
two lines. The old refresh token stops working.

Without an argument the refresh token is read from the first line of stdin.
`),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var refreshToken string
			if len(args) == 1 {
				refreshToken = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("missing refresh token")
				}
				refreshToken = strings.TrimSpace(line)
			}

			session, err := app.client().Refresh(cmd.Context(), refreshToken)
			if err != nil {
				return fmt.Errorf("refresh failed: %w", err)
			}
			app.log().Debug("token refreshed", "user", session.User.Email)
			fmt.Fprintln(cmd.OutOrStdout(), session.Token)
			fmt.Fprintln(cmd.OutOrStdout(), session.RefreshToken)
			return nil
		},
	}
	return cmd
}
