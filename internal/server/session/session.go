// Package session holds the per-browser login state of the portal: which
// identity is authenticated, which identity is mid-registration, and the
// pending one-shot notice. Sessions live in process memory and expire
// after the configured TTL.
package session

import (
	"sync"
	"time"
)

// Session tracks one browser's identity pointers.
//
// ProvisionalID points at an identity that just registered and may not yet
// have a linked profile. ConfirmedID is only set by a successful login that
// also resolved a profile; the access guard admits nothing less.
type Session struct {
	ID string

	mu            sync.Mutex
	authenticated bool
	provisionalID string
	confirmedID   string
	redirectPath  string
	notice        *Notice
	expires       time.Time
}

// SetProvisional records a freshly registered identity and marks the
// session authenticated.
func (s *Session) SetProvisional(identityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provisionalID = identityID
	s.authenticated = true
}

// Provisional returns the mid-registration identity id, if any.
func (s *Session) Provisional() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.provisionalID, s.provisionalID != ""
}

// SetConfirmed records the identity allowed through the access guard.
func (s *Session) SetConfirmed(identityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmedID = identityID
	s.authenticated = true
}

// Confirmed returns the guarded identity id, if any.
func (s *Session) Confirmed() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.confirmedID, s.confirmedID != ""
}

// Authenticated reports whether any login or registration succeeded on
// this session.
func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Clear drops every identity pointer and the stashed redirect path,
// returning the session to the anonymous state. A pending notice survives
// so a goodbye message can still render after the redirect.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authenticated = false
	s.provisionalID = ""
	s.confirmedID = ""
	s.redirectPath = ""
}

// PushNotice replaces the pending one-shot notice.
func (s *Session) PushNotice(n Notice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = &n
}

// PopNotice returns and clears the pending notice.
func (s *Session) PopNotice() (Notice, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notice == nil {
		return Notice{}, false
	}
	n := *s.notice
	s.notice = nil
	return n, true
}

// SetRedirectPath stashes the originally requested path so a later login
// can send the user back there.
func (s *Session) SetRedirectPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redirectPath = path
}

// PopRedirectPath returns and clears the stashed path.
func (s *Session) PopRedirectPath() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.redirectPath == "" {
		return "", false
	}
	p := s.redirectPath
	s.redirectPath = ""
	return p, true
}

func (s *Session) expired(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.After(s.expires)
}
