// Package cli implements the assetdesk command tree.
package cli

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/config"
)

// serverAnnotation marks long-running commands whose INFO logs go to stdout.
const serverAnnotation = "server"

type App struct {
	Config config.Config

	logger   *slog.Logger
	closeLog func()
}

func NewRootCmd() *cobra.Command {
	app := &App{Config: config.Load()}

	cmd := &cobra.Command{
		Use:          "assetdesk",
		Short:        "IT asset inventory: REST backend, browser UI and CLI",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Start the backend and the browser UI
  assetdesk serve
  assetdesk web

  # Script against a running backend
  export ASSETDESK_TOKEN=$(assetdesk login --email admin@example.com --password ...)
  assetdesk items list --search thinkpad --sort owner
  assetdesk items import laptops.xlsx
`),
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := app.Config.Validate(); err != nil {
			return err
		}
		level, err := app.Config.Level()
		if err != nil {
			return err
		}
		stdout := cmd.ErrOrStderr()
		if _, ok := cmd.Annotations[serverAnnotation]; ok {
			stdout = cmd.OutOrStdout()
		}
		logger, cleanup, err := newLogger(stdout, cmd.ErrOrStderr(), app.Config.LogPath, level)
		if err != nil {
			return err
		}
		app.logger = logger
		app.closeLog = cleanup
		slog.SetDefault(logger)
		return nil
	}

	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if app.closeLog != nil {
			app.closeLog()
		}
		return nil
	}

	cfg := &app.Config
	cmd.PersistentFlags().StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Backend base URL (env ASSETDESK_API_URL)")
	cmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Bearer token from `assetdesk login` (env ASSETDESK_TOKEN)")
	cmd.PersistentFlags().StringVar(&cfg.LogPath, "log", cfg.LogPath, "Also write logs to this file (env ASSETDESK_LOG)")
	cmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error (env ASSETDESK_LOG_LEVEL)")
	cmd.PersistentFlags().StringVar(&cfg.Locale, "locale", cfg.Locale, "Locale used for sorting (env ASSETDESK_LOCALE)")

	cmd.AddCommand(newServeCmd(app))
	cmd.AddCommand(newWebCmd(app))
	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newRefreshCmd(app))
	cmd.AddCommand(newItemsCmd(app))
	cmd.AddCommand(newUsersCmd(app))
	cmd.AddCommand(newSeedCmd(app))

	return cmd
}

// client returns an API client for the configured backend. Commands that
// need a session call authorizedClient instead.
func (app *App) client() *client.Client {
	return client.New(app.Config.APIURL, client.WithToken(app.Config.Token), client.WithLogger(app.log()))
}

func (app *App) authorizedClient() (*client.Client, error) {
	if app.Config.Token == "" {
		return nil, errors.New("no token; run `assetdesk login` and set ASSETDESK_TOKEN (or pass --token)")
	}
	return app.client(), nil
}

func (app *App) log() *slog.Logger {
	if app.logger == nil {
		return slog.Default()
	}
	return app.logger
}
