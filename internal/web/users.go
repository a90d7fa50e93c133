package web

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/inventory"
	"github.com/assetdesk/assetdesk/internal/model"
)

// UsersPage handles GET /users: the user directory.
func (s *Server) UsersPage(w http.ResponseWriter, r *http.Request, sess *session) {
	data := struct {
		PageData
		Users    []model.User
		CanAdmin bool
		Roles    []string
	}{
		PageData: page(sess, "Users", "users"),
		CanAdmin: model.RoleAtLeast(sess.user.Role, model.RoleAdmin),
		Roles:    []string{model.RoleUser, model.RoleManager, model.RoleAdmin},
	}

	users, err := sess.api.ListUsers(r.Context())
	if err != nil {
		if client.IsUnauthorized(err) {
			s.endSession(w, r, sess)
			return
		}
		s.logger.Error("failed to list users", "error", err)
		data.Error = client.Message(err)
	}
	data.Users = users

	s.templates.Render(w, "users.html", &data)
}

// UserCreateSubmit handles POST /users (admin only). A generated password
// is shown once in the notice.
func (s *Server) UserCreateSubmit(w http.ResponseWriter, r *http.Request, sess *session) {
	if !model.RoleAtLeast(sess.user.Role, model.RoleAdmin) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	req := model.CreateUserRequest{
		Email:     strings.TrimSpace(r.FormValue("email")),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Role:      r.FormValue("role"),
	}
	if req.Email == "" {
		sess.setFlash(inventory.ErrorNotice("User not created", "Enter an email address."))
		http.Redirect(w, r, "/users", http.StatusSeeOther)
		return
	}

	created, err := sess.api.CreateUser(r.Context(), req)
	if err != nil {
		s.backendFailed(w, r, sess, "User not created", err, "/users")
		return
	}

	msg := created.Email + " can now log in."
	if created.RawPassword != "" {
		msg = fmt.Sprintf("Password for %s: %s (shown only once)", created.Email, created.RawPassword)
	}
	s.logger.Info("user created", "user", sess.user.Email, "created", created.Email, "role", created.Role)
	sess.setFlash(inventory.SuccessNotice("User created", msg))
	http.Redirect(w, r, "/users", http.StatusSeeOther)
}
