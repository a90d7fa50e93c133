package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/assetdesk/assetdesk/internal/importer"
	"github.com/assetdesk/assetdesk/internal/inventory"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/palette"
	webembed "github.com/assetdesk/assetdesk/web"
)

// Templates holds parsed HTML templates.
type Templates struct {
	templates map[string]*template.Template
}

// FuncMap returns the template function map.
func FuncMap() template.FuncMap {
	return template.FuncMap{
		"roleAtLeast": model.RoleAtLeast,
		"roleName": func(role string) string {
			switch role {
			case model.RoleAdmin:
				return "Administrator"
			case model.RoleManager:
				return "Manager"
			case model.RoleUser:
				return "User"
			default:
				return role
			}
		},
		"statusName": func(status string) string {
			switch status {
			case model.ItemStatusAvailable:
				return "Available"
			case model.ItemStatusAssigned:
				return "Assigned"
			case model.ItemStatusInRepair:
				return "In repair"
			case model.ItemStatusRetired:
				return "Retired"
			default:
				return status
			}
		},
		"humanTime": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return humanize.Time(t)
		},
		"humanBytes": func(n int64) string { return humanize.IBytes(uint64(n)) },
		"categoryColor": func(category string) string {
			return palette.CategoryColor(category).Hex
		},
		"avatarURL": avatarURL,
		"initials":  inventory.Initials,
		"sortIcon":  sortIcon,
		"missing": func(missing []string, field string) bool {
			return slices.Contains(missing, field)
		},
		"join": strings.Join,
	}
}

func avatarURL(initials string) string {
	if initials == "" {
		initials = "?"
	}
	return "/avatars/" + url.PathEscape(initials) + ".png"
}

// sortIcon shows the direction of field's column.
func sortIcon(field, sortField string, reversed bool) string {
	switch {
	case field != sortField:
		return "↕"
	case reversed:
		return "▼"
	default:
		return "▲"
	}
}

// LoadTemplates parses all page templates with the layout.
func LoadTemplates() (*Templates, error) {
	tfs := webembed.TemplatesFS()

	layoutBytes, err := fs.ReadFile(tfs, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("reading layout template: %w", err)
	}

	pages := []string{
		"login.html",
		"dashboard.html",
		"inventory.html",
		"users.html",
		"settings.html",
	}

	ts := &Templates{templates: make(map[string]*template.Template)}

	for _, page := range pages {
		pageBytes, err := fs.ReadFile(tfs, page)
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", page, err)
		}

		tmpl := template.New(page).Funcs(FuncMap())
		tmpl, err = tmpl.Parse(string(layoutBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing layout for %s: %w", page, err)
		}
		tmpl, err = tmpl.Parse(string(pageBytes))
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}

		ts.templates[page] = tmpl
	}

	return ts, nil
}

// Render renders a page with status 200.
func (ts *Templates) Render(w http.ResponseWriter, name string, data any) {
	ts.RenderStatus(w, http.StatusOK, name, data)
}

// RenderStatus renders a page into a buffer first so a template error still
// produces a clean 500.
func (ts *Templates) RenderStatus(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := ts.templates[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render template", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// PageData is the base data passed to all templates.
type PageData struct {
	Title        string
	Nav          string
	User         *model.User
	Flash        *inventory.Notice
	ImportErrors []model.ImportError
	Error        string
	MaxUpload    int64
	Accept       string
}

// page builds the base data of a session page and consumes its flash.
func page(sess *session, title, nav string) PageData {
	flash, importErrors := sess.takeFlash()
	user := sess.user
	return PageData{
		Title:        title,
		Nav:          nav,
		User:         &user,
		Flash:        flash,
		ImportErrors: importErrors,
		MaxUpload:    importer.MaxFileSize,
		Accept:       ".csv,.xlsx,.xls",
	}
}
