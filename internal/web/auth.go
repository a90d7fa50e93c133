package web

import (
	"net/http"
	"strings"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/inventory"
	"github.com/assetdesk/assetdesk/internal/model"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.templates.Render(w, "login.html", &PageData{Title: "Log in"})
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		s.templates.RenderStatus(w, http.StatusBadRequest, "login.html", &PageData{
			Title: "Log in",
			Error: "Enter your email and password.",
		})
		return
	}

	session, err := s.api.Login(r.Context(), email, password)
	if err != nil {
		msg := "Login failed. Is the backend running?"
		status := http.StatusBadGateway
		if client.IsUnauthorized(err) {
			msg = "Wrong email or password."
			status = http.StatusUnauthorized
		} else {
			s.logger.Error("login request failed", "error", err)
		}
		s.templates.RenderStatus(w, status, "login.html", &PageData{Title: "Log in", Error: msg})
		return
	}

	sess := s.newSession(session)
	setSessionCookie(w, sess.id)
	s.logger.Info("user logged in", "user", session.User.Email)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout handles POST /logout. The backend tokens are revoked on a best
// effort basis.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookie); err == nil {
		if sess := s.sessions.get(cookie.Value); sess != nil {
			if err := sess.api.Logout(r.Context(), sess.refresh); err != nil && !client.IsUnauthorized(err) {
				s.logger.Warn("failed to revoke backend token", "user", sess.user.Email, "error", err)
			}
			s.sessions.remove(sess.id)
			s.logger.Info("user logged out", "user", sess.user.Email)
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// SettingsPage handles GET /settings.
func (s *Server) SettingsPage(w http.ResponseWriter, r *http.Request, sess *session) {
	data := page(sess, "Settings", "settings")
	s.templates.Render(w, "settings.html", &data)
}

// SettingsSubmit handles POST /settings (change own password).
func (s *Server) SettingsSubmit(w http.ResponseWriter, r *http.Request, sess *session) {
	current := r.FormValue("current_password")
	next := r.FormValue("new_password")

	if current == "" || next == "" {
		sess.setFlash(inventory.ErrorNotice("Password not changed", "Enter the current and the new password."))
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	}
	if err := model.ValidatePassword(next); err != nil {
		sess.setFlash(inventory.ErrorNotice("Password not changed", err.Error()))
		http.Redirect(w, r, "/settings", http.StatusSeeOther)
		return
	}

	if err := sess.api.ChangePassword(r.Context(), current, next); err != nil {
		s.backendFailed(w, r, sess, "Password not changed", err, "/settings")
		return
	}

	sess.setFlash(inventory.SuccessNotice("Password changed", "Use the new password next time you log in."))
	http.Redirect(w, r, "/settings", http.StatusSeeOther)
}
