package web

import (
	"fmt"
	"log/slog"
	"net/http"

	servertiming "github.com/mitchellh/go-server-timing"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/config"
	"github.com/assetdesk/assetdesk/internal/table"
	webembed "github.com/assetdesk/assetdesk/web"
)

// Config configures the browser UI server.
type Config struct {
	// APIURL is the backend base URL, e.g. http://localhost:8000/api.
	APIURL string
	// ImportPolicy is config.PolicyRefetch (default) or config.PolicyAppend.
	ImportPolicy string
	// Locale drives the table's sort collation.
	Locale string
	Logger *slog.Logger
	// HTTPClient is used for backend calls when set.
	HTTPClient *http.Client
}

// Server holds all dependencies for page handlers.
type Server struct {
	cfg       Config
	api       *client.Client
	templates *Templates
	sessions  *sessionStore
	sorter    table.Sorter
	logger    *slog.Logger
}

// NewServer parses the templates and prepares the backend client.
func NewServer(cfg Config) (*Server, error) {
	switch cfg.ImportPolicy {
	case "":
		cfg.ImportPolicy = config.PolicyRefetch
	case config.PolicyRefetch, config.PolicyAppend:
	default:
		return nil, fmt.Errorf("unknown import policy %q", cfg.ImportPolicy)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	opts := []client.Option{client.WithLogger(cfg.Logger)}
	if cfg.HTTPClient != nil {
		opts = append(opts, client.WithHTTPClient(cfg.HTTPClient))
	}

	return &Server{
		cfg:       cfg,
		api:       client.New(cfg.APIURL, opts...),
		templates: templates,
		sessions:  newSessionStore(),
		sorter:    table.NewSorter(cfg.Locale),
		logger:    cfg.Logger,
	}, nil
}

// Handler returns the page router with all routes registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	authed := s.requireSession

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))
	mux.HandleFunc("GET /avatars/{file}", s.Avatar)

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("POST /logout", s.Logout)

	// Session routes.
	mux.Handle("GET /{$}", authed(s.Dashboard))

	mux.Handle("GET /inventory", authed(s.InventoryPage))
	mux.Handle("POST /inventory/refresh", authed(s.InventoryRefresh))
	mux.Handle("POST /inventory/sort/{field}", authed(s.InventorySort))
	mux.Handle("POST /inventory/select/{id}", authed(s.SelectToggle))
	mux.Handle("POST /inventory/select-all", authed(s.SelectAll))
	mux.Handle("POST /inventory/delete-selected", authed(s.DeleteSelected))

	mux.Handle("GET /items/new", authed(s.ItemNewPage))
	mux.Handle("POST /items", authed(s.ItemCreateSubmit))
	mux.Handle("GET /items/{id}/edit", authed(s.ItemEditPage))
	mux.Handle("POST /items/{id}", authed(s.ItemUpdateSubmit))
	mux.Handle("POST /items/{id}/delete", authed(s.ItemDeleteSubmit))

	mux.Handle("POST /import", authed(s.ImportSubmit))

	mux.Handle("GET /users", authed(s.UsersPage))
	mux.Handle("POST /users", authed(s.UserCreateSubmit))

	mux.Handle("GET /settings", authed(s.SettingsPage))
	mux.Handle("POST /settings", authed(s.SettingsSubmit))

	return servertiming.Middleware(mux, nil)
}
