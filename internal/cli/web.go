package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/assetdesk/assetdesk/internal/api"
	"github.com/assetdesk/assetdesk/internal/web"
)

func newWebCmd(app *App) *cobra.Command {
	cfg := &app.Config

	cmd := &cobra.Command{
		Use:         "web",
		Short:       "Run the browser UI against the backend at --api-url",
		Annotations: map[string]string{serverAnnotation: ""},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := web.NewServer(web.Config{
				APIURL:       cfg.APIURL,
				ImportPolicy: cfg.ImportPolicy,
				Locale:       cfg.Locale,
				Logger:       app.log(),
			})
			if err != nil {
				return fmt.Errorf("setting up web UI: %w", err)
			}

			app.log().Info("web UI backend", "api_url", cfg.APIURL, "import_policy", cfg.ImportPolicy)
			return listenUntilSignal(newHTTPServer(cfg.WebAddr, api.LoggingMiddleware(srv.Handler())))
		},
	}

	cmd.Flags().StringVar(&cfg.WebAddr, "addr", cfg.WebAddr, "Listen address (env ASSETDESK_WEB_ADDR)")
	cmd.Flags().StringVar(&cfg.ImportPolicy, "import-policy", cfg.ImportPolicy, "List refresh after an import: refetch or append (env ASSETDESK_IMPORT_POLICY)")

	return cmd
}
