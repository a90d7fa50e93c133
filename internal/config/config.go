// Package config loads assetdesk settings from defaults and ASSETDESK_*
// environment variables. Command-line flags override both.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/text/language"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/db"
)

// Import refresh policies for the browser UI.
const (
	// PolicyRefetch reloads the whole list after an import.
	PolicyRefetch = "refetch"
	// PolicyAppend adds the created rows to the local list.
	PolicyAppend = "append"
)

// Config holds every setting of the assetdesk commands.
type Config struct {
	APIURL       string
	Token        string
	Addr         string
	WebAddr      string
	DBDriver     string
	DBDSN        string
	LogPath      string
	LogLevel     string
	ImportPolicy string
	Locale       string
	AdminEmail   string
}

// Load returns the defaults overridden by the environment.
func Load() Config {
	return Config{
		APIURL:       get("ASSETDESK_API_URL", client.DefaultBaseURL),
		Token:        get("ASSETDESK_TOKEN", ""),
		Addr:         get("ASSETDESK_ADDR", ":8000"),
		WebAddr:      get("ASSETDESK_WEB_ADDR", ":8080"),
		DBDriver:     get("ASSETDESK_DB_DRIVER", db.DriverSQLite),
		DBDSN:        get("ASSETDESK_DB_DSN", "assetdesk.sqlite3"),
		LogPath:      get("ASSETDESK_LOG", ""),
		LogLevel:     get("ASSETDESK_LOG_LEVEL", "info"),
		ImportPolicy: get("ASSETDESK_IMPORT_POLICY", PolicyRefetch),
		Locale:       get("ASSETDESK_LOCALE", "en"),
		AdminEmail:   get("ASSETDESK_ADMIN_EMAIL", "admin@example.com"),
	}
}

// Validate rejects settings no command can run with.
func (c Config) Validate() error {
	switch c.DBDriver {
	case db.DriverSQLite, db.DriverPostgres:
	default:
		return fmt.Errorf("unknown database driver %q (want %s or %s)", c.DBDriver, db.DriverSQLite, db.DriverPostgres)
	}
	switch c.ImportPolicy {
	case PolicyRefetch, PolicyAppend:
	default:
		return fmt.Errorf("unknown import policy %q (want %s or %s)", c.ImportPolicy, PolicyRefetch, PolicyAppend)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("api url %q must start with http:// or https://", c.APIURL)
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return l, nil
}

// get returns the value of the environment variable k or def if not set.
func get(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
