package web

import (
	"net/http"

	"github.com/ar1701/demo-tedx/internal/server/session"
)

// requireConfirmed gates the profile operations behind the confirmed
// session state. Anything less — anonymous, or authenticated without a
// confirmed pointer — is bounced to the login page, with the requested
// path stashed for the post-login redirect.
func (s *Server) requireConfirmed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := sessionFrom(r)
		if _, ok := sess.Confirmed(); !ok || !sess.Authenticated() {
			sess.SetRedirectPath(r.URL.Path)
			sess.PushNotice(session.Notice{Kind: session.KindAuthFailed, Message: "You have to log in first!"})
			http.Redirect(w, r, "/reg", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}
