// Package web is the HTTP surface of the portal: the chi router, the
// session middleware and access guard, and the form handlers that drive
// the registration/login/profile flows.
package web

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/ar1701/demo-tedx/internal/common"
	"github.com/ar1701/demo-tedx/internal/logging"
	"github.com/ar1701/demo-tedx/internal/server/config"
	"github.com/ar1701/demo-tedx/internal/server/services"
	"github.com/ar1701/demo-tedx/internal/server/session"
)

// Server holds the web layer's collaborators.
type Server struct {
	portal     *services.PortalService
	sessions   *session.Manager
	logger     logging.Logger
	templates  *template.Template
	secretKey  []byte
	sessionTTL time.Duration
	corsOrigin string
}

// NewServer wires the web layer.
func NewServer(portal *services.PortalService, sessions *session.Manager, l logging.Logger, cfg *config.Config) *Server {
	return &Server{
		portal:     portal,
		sessions:   sessions,
		logger:     l.With("module", "web"),
		templates:  parseTemplates(),
		secretKey:  []byte(cfg.SecretKey),
		sessionTTL: cfg.SessionTTL,
		corsOrigin: cfg.CORSOrigin,
	}
}

// --- public pages ---

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	sessionFrom(r).PushNotice(session.Notice{Kind: session.KindInfo, Message: "Welcome to TEDxCUSAT"})
	http.Redirect(w, r, "/main", http.StatusSeeOther)
}

func (s *Server) handleMain(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "main.html", pageData{})
}

func (s *Server) handleNewForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "new_user.html", pageData{})
}

func (s *Server) handleLoginForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "reg.html", pageData{})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	s.render(w, r, "not_found.html", pageData{
		Notice: &session.Notice{Kind: session.KindNotFound, Message: "Page not found!"},
	})
}

// --- registration flow ---

// handleRegister creates the identity, authenticates the session, and sets
// the provisional pointer before prompting for profile details. The
// identity row is durable before any of that happens.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	name := strings.TrimSpace(r.PostFormValue("name"))
	username := strings.TrimSpace(r.PostFormValue("username"))
	email := strings.TrimSpace(strings.ToLower(r.PostFormValue("email")))
	password := r.PostFormValue("password")

	identity, err := s.portal.Register(r.Context(), name, username, email, password)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateIdentity) {
			sess.PushNotice(session.Notice{Kind: session.KindDuplicateIdentity, Message: "Username or email-id is already registered!"})
		} else {
			s.logger.Error(r.Context(), "error registering identity", "error", err)
			sess.PushNotice(session.Notice{Kind: session.KindStorageError, Message: "Registration failed. Please try again."})
		}
		http.Redirect(w, r, "/new", http.StatusSeeOther)
		return
	}

	sess.SetProvisional(identity.ID)
	sess.PushNotice(session.Notice{Kind: session.KindSuccess, Message: "User registered successfully! Enter your details."})
	s.render(w, r, "new_info.html", pageData{Identity: identity})
}

// handleSubmitProfile links the one-time profile form to the provisional
// identity. A storage failure is reported as a failure; it never masquerades
// as a saved confirmation.
func (s *Server) handleSubmitProfile(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	ownerID, ok := sess.Provisional()
	if !ok {
		sess.PushNotice(session.Notice{Kind: session.KindNotFound, Message: "Please register first."})
		http.Redirect(w, r, "/new", http.StatusSeeOther)
		return
	}

	profile, err := profileFromForm(r)
	if err != nil {
		sess.PushNotice(session.Notice{Kind: session.KindStorageError, Message: "Could not save your details. Please check the form and try again."})
		s.render(w, r, "new_info.html", pageData{})
		return
	}

	if _, err := s.portal.SubmitProfile(r.Context(), ownerID, profile); err != nil {
		s.logger.Error(r.Context(), "error saving profile", "error", err)
		sess.PushNotice(session.Notice{Kind: session.KindStorageError, Message: "Could not save your details. Please try again."})
		s.render(w, r, "new_info.html", pageData{})
		return
	}

	sess.PushNotice(session.Notice{Kind: session.KindSuccess, Message: "Your details have been saved! Log in to see or edit them."})
	http.Redirect(w, r, "/reg", http.StatusSeeOther)
}

// --- login flow ---

// handleLogin authenticates and resolves the profile. An identity without a
// profile is an abandoned registration: it has already been deleted by the
// flow, so the user is sent back to register again.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	account, err := s.portal.Login(r.Context(), username, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrAuthFailed):
			sess.PushNotice(session.Notice{Kind: session.KindAuthFailed, Message: "Invalid username or password."})
			http.Redirect(w, r, "/reg", http.StatusSeeOther)
		case errors.Is(err, common.ErrorNotFound):
			sess.Clear()
			sess.PushNotice(session.Notice{Kind: session.KindNotFound, Message: "Please re-register yourself!"})
			http.Redirect(w, r, "/new", http.StatusSeeOther)
		default:
			s.logger.Error(r.Context(), "error logging in", "error", err)
			sess.PushNotice(session.Notice{Kind: session.KindStorageError, Message: "Login failed. Please try again."})
			http.Redirect(w, r, "/reg", http.StatusSeeOther)
		}
		return
	}

	sess.SetConfirmed(account.Identity.ID)

	if path, ok := sess.PopRedirectPath(); ok {
		http.Redirect(w, r, path, http.StatusSeeOther)
		return
	}

	s.render(w, r, "show.html", pageData{
		Identity:     account.Identity,
		Profile:      account.Profile,
		FormattedDOB: account.Profile.DOB.Format(dobDisplayLayout),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := s.rotateSession(w, r)
	sess.PushNotice(session.Notice{Kind: session.KindSuccess, Message: "You are logged out!"})
	http.Redirect(w, r, "/main", http.StatusSeeOther)
}

// --- guarded profile operations ---

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id, _ := sess.Confirmed()

	account, err := s.portal.View(r.Context(), id)
	if err != nil {
		s.renderViewError(w, r, err)
		return
	}

	s.render(w, r, "show.html", pageData{
		Identity:     account.Identity,
		Profile:      account.Profile,
		FormattedDOB: account.Profile.DOB.Format(dobDisplayLayout),
	})
}

func (s *Server) handleEditForm(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id, _ := sess.Confirmed()

	account, err := s.portal.View(r.Context(), id)
	if err != nil {
		s.renderViewError(w, r, err)
		return
	}

	s.render(w, r, "edit.html", pageData{Identity: account.Identity, Profile: account.Profile})
}

func (s *Server) handleEdit(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id, _ := sess.Confirmed()

	name := strings.TrimSpace(r.PostFormValue("name"))
	email := strings.TrimSpace(strings.ToLower(r.PostFormValue("email")))

	fields, err := profileFromForm(r)
	if err != nil {
		sess.PushNotice(session.Notice{Kind: session.KindStorageError, Message: "Could not update your details. Please check the form and try again."})
		http.Redirect(w, r, "/edit", http.StatusSeeOther)
		return
	}

	if err := s.portal.Edit(r.Context(), id, name, email, fields); err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateIdentity):
			sess.PushNotice(session.Notice{Kind: session.KindDuplicateIdentity, Message: "E-mail is already registered! Please use a different email-id."})
			http.Redirect(w, r, "/edit", http.StatusSeeOther)
		case errors.Is(err, common.ErrorNotFound):
			s.renderViewError(w, r, err)
		default:
			s.logger.Error(r.Context(), "error updating records", "error", err)
			sess.PushNotice(session.Notice{Kind: session.KindStorageError, Message: "Update failed. Please try again."})
			http.Redirect(w, r, "/edit", http.StatusSeeOther)
		}
		return
	}

	sess.PushNotice(session.Notice{Kind: session.KindSuccess, Message: "Your details have been updated successfully!"})
	http.Redirect(w, r, "/show", http.StatusSeeOther)
}

// handleDelete removes the profile and identity and retires the session,
// which would otherwise keep pointing at a dead record.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r)
	id, _ := sess.Confirmed()

	if err := s.portal.Delete(r.Context(), id); err != nil {
		s.logger.Error(r.Context(), "error deleting records", "error", err)
		sess.PushNotice(session.Notice{Kind: session.KindStorageError, Message: "Deletion failed. Please try again."})
		http.Redirect(w, r, "/show", http.StatusSeeOther)
		return
	}

	fresh := s.rotateSession(w, r)
	fresh.PushNotice(session.Notice{Kind: session.KindSuccess, Message: "Your data has been deleted successfully!"})
	http.Redirect(w, r, "/main", http.StatusSeeOther)
}

// renderViewError handles a gated page whose backing records are gone:
// the session cannot stay confirmed, and the user is sent to re-register.
func (s *Server) renderViewError(w http.ResponseWriter, r *http.Request, err error) {
	sess := sessionFrom(r)
	if errors.Is(err, common.ErrorNotFound) {
		sess.Clear()
		sess.PushNotice(session.Notice{Kind: session.KindNotFound, Message: "Please re-register yourself!"})
		http.Redirect(w, r, "/new", http.StatusSeeOther)
		return
	}
	s.logger.Error(r.Context(), "error loading records", "error", err)
	sess.PushNotice(session.Notice{Kind: session.KindStorageError, Message: "Something went wrong. Please try again."})
	http.Redirect(w, r, "/main", http.StatusSeeOther)
}
