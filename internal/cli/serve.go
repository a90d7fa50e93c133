package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/assetdesk/assetdesk/internal/api"
	"github.com/assetdesk/assetdesk/internal/auth"
	"github.com/assetdesk/assetdesk/internal/db"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/store"
)

func newServeCmd(app *App) *cobra.Command {
	cfg := &app.Config

	cmd := &cobra.Command{
		Use:         "serve",
		Short:       "Run the REST backend",
		Annotations: map[string]string{serverAnnotation: ""},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			database, err := db.Open(cfg.DBDriver, cfg.DBDSN)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()

			if err := db.EnsureSchema(database); err != nil {
				return fmt.Errorf("ensuring schema: %w", err)
			}
			slog.Info("database ready", "driver", cfg.DBDriver)

			if err := ensureAdmin(ctx, database, cfg.AdminEmail, cmd.OutOrStdout()); err != nil {
				return err
			}

			jwtSecret, err := store.GetJWTSecret(ctx, database)
			if err != nil {
				return fmt.Errorf("loading JWT secret: %w", err)
			}

			server := newHTTPServer(cfg.Addr, api.LoggingMiddleware(api.NewRouter(database, jwtSecret)))
			if err := listenUntilSignal(server); err != nil {
				return err
			}
			slog.Info("server stopped, closing database")
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address (env ASSETDESK_ADDR)")
	cmd.Flags().StringVar(&cfg.DBDriver, "db-driver", cfg.DBDriver, "Database driver: sqlite or pgx (env ASSETDESK_DB_DRIVER)")
	cmd.Flags().StringVar(&cfg.DBDSN, "db-dsn", cfg.DBDSN, "SQLite path or Postgres URL (env ASSETDESK_DB_DSN)")
	cmd.Flags().StringVar(&cfg.AdminEmail, "admin-email", cfg.AdminEmail, "Email of the admin created on first start (env ASSETDESK_ADMIN_EMAIL)")

	return cmd
}

// ensureAdmin creates the first admin account when the database has no
// users and prints its generated password once.
func ensureAdmin(ctx context.Context, d *db.DB, email string, out io.Writer) error {
	count, err := store.CountUsers(ctx, d)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	if _, err := store.CreateUser(ctx, d, email, "Admin", "", string(hash), model.RoleAdmin); err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	fmt.Fprintln(out, "Admin account created:")
	fmt.Fprintf(out, "  Email:    %s\n", email)
	fmt.Fprintf(out, "  Password: %s\n", password)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Save this password. It cannot be recovered.")
	fmt.Fprintln(out, "The admin can change it after logging in.")
	fmt.Fprintln(out)
	return nil
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// listenUntilSignal serves until SIGINT/SIGTERM, then shuts down gracefully.
func listenUntilSignal(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	done := make(chan struct{})
	go func() {
		defer close(done)
		sig, ok := <-quit
		if !ok {
			return
		}
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		signal.Stop(quit)
		close(quit)
		<-done
		return fmt.Errorf("server error: %w", err)
	}
	<-done
	return nil
}
