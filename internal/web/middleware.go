package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/assetdesk/assetdesk/internal/client"
	"github.com/assetdesk/assetdesk/internal/inventory"
	"github.com/assetdesk/assetdesk/internal/model"
	"github.com/assetdesk/assetdesk/internal/table"
)

const sessionCookie = "assetdesk_session"

// sessionTTL stays below the backend token lifetime.
const sessionTTL = 24 * time.Hour

// session is the UI state of one logged-in browser.
type session struct {
	id      string
	user    model.User
	api     *client.Client
	refresh string
	view    *inventory.View
	expires time.Time

	mu           sync.Mutex
	table        *table.State
	flash        *inventory.Notice
	importErrors []model.ImportError
}

// setFlash stores a notice shown once on the next page.
func (s *session) setFlash(n inventory.Notice) {
	s.mu.Lock()
	s.flash = &n
	s.mu.Unlock()
}

// takeFlash returns and clears the pending notice and import errors.
func (s *session) takeFlash() (*inventory.Notice, []model.ImportError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, errs := s.flash, s.importErrors
	s.flash, s.importErrors = nil, nil
	return n, errs
}

type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

// add stores s and drops sessions that expired without being used again.
func (st *sessionStore) add(s *session) {
	now := time.Now()
	st.mu.Lock()
	defer st.mu.Unlock()
	for id, old := range st.sessions {
		if now.After(old.expires) {
			delete(st.sessions, id)
		}
	}
	st.sessions[s.id] = s
}

func (st *sessionStore) get(id string) *session {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.sessions[id]
	if s != nil && time.Now().After(s.expires) {
		delete(st.sessions, id)
		return nil
	}
	return s
}

func (st *sessionStore) remove(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// newSession starts a UI session for a logged-in backend user.
func (s *Server) newSession(login *client.Session) *session {
	api := s.api.Authorized(login.Token)
	sess := &session{
		id:      uuid.NewString(),
		user:    login.User,
		api:     api,
		refresh: login.RefreshToken,
		view:    inventory.NewView(inventory.NewLoader(api, inventory.WithLogger(s.logger))),
		expires: time.Now().Add(sessionTTL),
		table:   table.NewState(s.sorter),
	}
	s.sessions.add(sess)
	return sess
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, sess *session)

// requireSession resolves the session cookie and redirects to the login
// page when there is none.
func (s *Server) requireSession(next sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookie)
		if err != nil || cookie.Value == "" {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		sess := s.sessions.get(cookie.Value)
		if sess == nil {
			clearSessionCookie(w)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r, sess)
	})
}

// endSession drops the session and sends the browser to the login page.
func (s *Server) endSession(w http.ResponseWriter, r *http.Request, sess *session) {
	s.sessions.remove(sess.id)
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// backendFailed handles a failed backend call from a form submit: a 401
// ends the session, anything else becomes an error notice and a redirect.
func (s *Server) backendFailed(w http.ResponseWriter, r *http.Request, sess *session, title string, err error, redirect string) {
	if client.IsUnauthorized(err) {
		s.logger.Info("backend session expired", "user", sess.user.Email)
		s.endSession(w, r, sess)
		return
	}
	s.logger.Warn("backend call failed", "user", sess.user.Email, "action", title, "error", err)
	sess.setFlash(inventory.ErrorNotice(title, client.Message(err)))
	http.Redirect(w, r, redirect, http.StatusSeeOther)
}

func setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(sessionTTL.Seconds()),
	})
}

// clearSessionCookie clears the session cookie with consistent attributes.
func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
