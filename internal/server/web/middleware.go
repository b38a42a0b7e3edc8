package web

import (
	"context"
	"net/http"
	"time"

	"github.com/ar1701/demo-tedx/internal/server/auth"
	"github.com/ar1701/demo-tedx/internal/server/session"
)

type ctxKey string

const sessionKey ctxKey = "session"

// withSession resolves the browser session from the signed cookie, creating
// a fresh anonymous session (and cookie) when the cookie is absent, invalid,
// or expired. The session is stored on the request context.
func (s *Server) withSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.resolveSession(w, r)
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) resolveSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if token, ok := readCookie(r); ok {
		if id, err := auth.GetSessionIDFromToken(token, s.secretKey); err == nil {
			if sess, ok := s.sessions.Get(id); ok {
				return sess
			}
		}
	}

	sess := s.sessions.Create()
	if token, err := auth.GenerateToken(sess.ID, s.secretKey, s.sessionTTL); err == nil {
		writeCookie(w, token, s.sessionTTL)
	} else {
		s.logger.Error(r.Context(), "error signing session token", "error", err)
	}
	return sess
}

// rotateSession retires the current session and issues a fresh anonymous
// one, replacing the cookie. Nothing carries over; callers push their
// goodbye notice onto the returned session so it still renders after the
// redirect.
func (s *Server) rotateSession(w http.ResponseWriter, r *http.Request) *session.Session {
	if old := sessionFrom(r); old != nil {
		s.sessions.Destroy(old.ID)
	}

	sess := s.sessions.Create()
	if token, err := auth.GenerateToken(sess.ID, s.secretKey, s.sessionTTL); err == nil {
		writeCookie(w, token, s.sessionTTL)
	} else {
		s.logger.Error(r.Context(), "error signing session token", "error", err)
	}
	return sess
}

// sessionFrom returns the request's session. withSession guarantees one.
func sessionFrom(r *http.Request) *session.Session {
	sess, _ := r.Context().Value(sessionKey).(*session.Session)
	return sess
}

// methodOverride lets HTML forms issue PUT/DELETE by posting a _method
// field, the way the original portal forms do.
func methodOverride(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			m := r.URL.Query().Get("_method")
			if m == "" {
				m = r.PostFormValue("_method")
			}
			switch m {
			case http.MethodPut, http.MethodDelete:
				r.Method = m
			}
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger records one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info(r.Context(), "request",
			"method", r.Method, "path", r.URL.Path, "duration", time.Since(start).String())
	})
}
