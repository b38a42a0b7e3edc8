package web

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ar1701/demo-tedx/internal/common"
	"github.com/ar1701/demo-tedx/internal/dbx"
	"github.com/ar1701/demo-tedx/internal/logging"
	"github.com/ar1701/demo-tedx/internal/server/config"
	"github.com/ar1701/demo-tedx/internal/server/models"
	"github.com/ar1701/demo-tedx/internal/server/repositories/identities"
	"github.com/ar1701/demo-tedx/internal/server/repositories/profiles"
	"github.com/ar1701/demo-tedx/internal/server/services"
	"github.com/ar1701/demo-tedx/internal/server/session"
)

// --- in-memory repositories ---

type memIdentities struct {
	mu   sync.Mutex
	next int
	rows map[string]*models.Identity
}

func newMemIdentities() *memIdentities {
	return &memIdentities{rows: make(map[string]*models.Identity)}
}

func (m *memIdentities) Create(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.UserName == identity.UserName || row.Email == identity.Email {
			return nil, common.ErrDuplicateIdentity
		}
	}
	m.next++
	identity.ID = fmt.Sprintf("id-%d", m.next)
	m.rows[identity.ID] = identity
	return identity, nil
}

func (m *memIdentities) GetByUsername(ctx context.Context, username string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.UserName == username {
			return row, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memIdentities) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if row, ok := m.rows[id]; ok {
		return row, nil
	}
	return nil, common.ErrorNotFound
}

func (m *memIdentities) Update(ctx context.Context, id string, name string, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	for otherID, other := range m.rows {
		if otherID != id && other.Email == email {
			return common.ErrDuplicateIdentity
		}
	}
	row.Name = name
	row.Email = email
	return nil
}

func (m *memIdentities) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

type memProfiles struct {
	mu   sync.Mutex
	next int
	rows map[string]*models.Profile
}

func newMemProfiles() *memProfiles {
	return &memProfiles{rows: make(map[string]*models.Profile)}
}

func (m *memProfiles) Create(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Owner == profile.Owner {
			return nil, common.ErrDuplicateIdentity
		}
	}
	m.next++
	profile.ID = fmt.Sprintf("p-%d", m.next)
	m.rows[profile.ID] = profile
	return profile, nil
}

func (m *memProfiles) GetByOwner(ctx context.Context, ownerID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, row := range m.rows {
		if row.Owner == ownerID {
			return row, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memProfiles) Update(ctx context.Context, id string, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	owner := row.Owner
	*row = *profile
	row.ID = id
	row.Owner = owner
	return nil
}

func (m *memProfiles) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, id)
	return nil
}

type memRepoManager struct {
	identities *memIdentities
	profiles   *memProfiles
}

func (m *memRepoManager) Identities(db dbx.DBTX) identities.Repository { return m.identities }
func (m *memRepoManager) Profiles(db dbx.DBTX) profiles.Repository     { return m.profiles }
func (m *memRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

// --- test server ---

type testEnv struct {
	srv        *httptest.Server
	client     *http.Client
	mock       sqlmock.Sqlmock
	identities *memIdentities
	profiles   *memProfiles
	sessions   *session.Manager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{
		SecretKey:  "test-secret",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
		CORSOrigin: "http://localhost",
	}

	m := &memRepoManager{identities: newMemIdentities(), profiles: newMemProfiles()}
	portal := services.NewPortalService(db, m, cfg)
	sessions := session.NewManager(cfg.SessionTTL)
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	server := NewServer(portal, sessions, logger, cfg)
	srv := httptest.NewServer(server.Router())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{
		srv:        srv,
		client:     &http.Client{Jar: jar},
		mock:       mock,
		identities: m.identities,
		profiles:   m.profiles,
		sessions:   sessions,
	}
}

func (e *testEnv) get(t *testing.T, path string) string {
	t.Helper()
	resp, err := e.client.Get(e.srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func (e *testEnv) post(t *testing.T, path string, form url.Values) string {
	t.Helper()
	resp, err := e.client.PostForm(e.srv.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func (e *testEnv) register(t *testing.T, name, username, email, password string) string {
	t.Helper()
	return e.post(t, "/new", url.Values{
		"name":     {name},
		"username": {username},
		"email":    {email},
		"password": {password},
	})
}

func (e *testEnv) submitProfile(t *testing.T, sid, dob string) string {
	t.Helper()
	return e.post(t, "/info", url.Values{
		"sid":     {sid},
		"dob":     {dob},
		"gender":  {"F"},
		"year":    {"2"},
		"branch":  {"CSE"},
		"college": {"CUSAT"},
		"address": {"Kochi"},
		"contact": {"9999999999"},
	})
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	return e.post(t, "/reg", url.Values{
		"username": {username},
		"password": {password},
	})
}

// --- tests ---

func TestScenario_RegisterProfileLogoutLogin(t *testing.T) {
	e := newTestEnv(t)

	body := e.register(t, "A", "a1", "a@x.com", "p")
	require.Contains(t, body, "Enter your details")

	body = e.submitProfile(t, "100", "2000-01-01")
	require.Contains(t, body, "Your details have been saved")

	body = e.get(t, "/logout")
	require.Contains(t, body, "You are logged out")

	body = e.login(t, "a1", "p")
	require.Contains(t, body, "100")
	require.Contains(t, body, "Jan 01 2000")
	require.Contains(t, body, "a@x.com")
}

func TestRegister_DuplicateIdentity(t *testing.T) {
	e := newTestEnv(t)

	e.register(t, "A", "a1", "a@x.com", "p")
	body := e.register(t, "B", "a1", "b@x.com", "p")

	require.Contains(t, body, "already registered")
	require.Len(t, e.identities.rows, 1)
	require.Empty(t, e.profiles.rows)
}

func TestSubmitProfile_WithoutRegistration(t *testing.T) {
	e := newTestEnv(t)

	body := e.submitProfile(t, "100", "2000-01-01")
	require.Contains(t, body, "Please register first")
	require.Empty(t, e.profiles.rows)
}

func TestSubmitProfile_MalformedFieldsSurfaceFailure(t *testing.T) {
	e := newTestEnv(t)

	e.register(t, "A", "a1", "a@x.com", "p")
	body := e.submitProfile(t, "not-a-number", "2000-01-01")

	require.Contains(t, body, "Could not save your details")
	require.NotContains(t, body, "have been saved")
	require.Empty(t, e.profiles.rows)
}

func TestLogin_BadCredentials(t *testing.T) {
	e := newTestEnv(t)

	e.register(t, "A", "a1", "a@x.com", "p")
	e.submitProfile(t, "100", "2000-01-01")
	e.get(t, "/logout")

	body := e.login(t, "a1", "wrong")
	require.Contains(t, body, "Invalid username or password")

	require.Len(t, e.identities.rows, 1)
	require.Len(t, e.profiles.rows, 1)
}

func TestLogin_ReconcilesAbandonedRegistration(t *testing.T) {
	e := newTestEnv(t)

	// Register but never submit the profile form.
	e.register(t, "A", "a1", "a@x.com", "p")
	e.get(t, "/logout")

	body := e.login(t, "a1", "p")
	require.Contains(t, body, "re-register")
	require.Empty(t, e.identities.rows, "orphaned identity must be deleted")

	// The account is gone entirely now.
	body = e.login(t, "a1", "p")
	require.Contains(t, body, "Invalid username or password")
}

func TestAccessGuard_RedirectsAndPreservesPath(t *testing.T) {
	e := newTestEnv(t)

	body := e.get(t, "/show")
	require.Contains(t, body, "You have to log in first")
	require.Contains(t, body, "Log in")

	e.register(t, "A", "a1", "a@x.com", "p")
	e.submitProfile(t, "100", "2000-01-01")

	// Provisional-only sessions stay outside the guard.
	body = e.get(t, "/edit")
	require.Contains(t, body, "You have to log in first")

	// Login lands on the page requested before the bounce.
	body = e.login(t, "a1", "p")
	require.Contains(t, body, "Edit your details")
}

func TestEdit_Success(t *testing.T) {
	e := newTestEnv(t)

	e.register(t, "A", "a1", "a@x.com", "p")
	e.submitProfile(t, "100", "2000-01-01")
	e.login(t, "a1", "p")

	e.mock.ExpectBegin()
	e.mock.ExpectCommit()

	body := e.post(t, "/edit?_method=PUT", url.Values{
		"name":    {"A2"},
		"email":   {"a2@x.com"},
		"sid":     {"200"},
		"dob":     {"2000-01-01"},
		"gender":  {"F"},
		"year":    {"3"},
		"branch":  {"ECE"},
		"college": {"CUSAT"},
		"address": {"Kochi"},
		"contact": {"8888888888"},
	})

	require.Contains(t, body, "updated successfully")
	require.Contains(t, body, "A2")
	require.Contains(t, body, "200")
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestEdit_EmailCollisionChangesNothing(t *testing.T) {
	e := newTestEnv(t)

	e.register(t, "B", "b1", "b@x.com", "p")
	e.submitProfile(t, "1", "1999-05-05")
	e.get(t, "/logout")

	e.register(t, "A", "a1", "a@x.com", "p")
	e.submitProfile(t, "100", "2000-01-01")
	e.login(t, "a1", "p")

	e.mock.ExpectBegin()
	e.mock.ExpectRollback()

	body := e.post(t, "/edit?_method=PUT", url.Values{
		"name":    {"A2"},
		"email":   {"b@x.com"}, // taken by b1
		"sid":     {"200"},
		"dob":     {"2000-01-01"},
		"gender":  {"F"},
		"year":    {"3"},
		"branch":  {"ECE"},
		"college": {"CUSAT"},
		"address": {"Kochi"},
		"contact": {"8888888888"},
	})

	require.Contains(t, body, "already registered")

	ident, err := e.identities.GetByUsername(context.Background(), "a1")
	require.NoError(t, err)
	require.Equal(t, "A", ident.Name, "identity fields must be untouched")
	require.Equal(t, "a@x.com", ident.Email)

	profile, err := e.profiles.GetByOwner(context.Background(), ident.ID)
	require.NoError(t, err)
	require.EqualValues(t, 100, profile.SID, "profile fields must be untouched")
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestDelete_RemovesRecordsAndClearsSession(t *testing.T) {
	e := newTestEnv(t)

	e.register(t, "A", "a1", "a@x.com", "p")
	e.submitProfile(t, "100", "2000-01-01")
	e.login(t, "a1", "p")

	e.mock.ExpectBegin()
	e.mock.ExpectCommit()

	body := e.post(t, "/delete?_method=DELETE", nil)
	require.Contains(t, body, "deleted successfully")
	require.Empty(t, e.identities.rows)
	require.Empty(t, e.profiles.rows)

	// The session no longer passes the guard.
	body = e.get(t, "/show")
	require.Contains(t, body, "You have to log in first")
	require.Equal(t, 1, e.sessions.Len(), "delete replaces the session instead of retaining it")
	require.NoError(t, e.mock.ExpectationsWereMet())
}

func TestLogout_RetiresOldSession(t *testing.T) {
	e := newTestEnv(t)

	e.register(t, "A", "a1", "a@x.com", "p")
	e.submitProfile(t, "100", "2000-01-01")
	e.login(t, "a1", "p")
	require.Equal(t, 1, e.sessions.Len())

	base, err := url.Parse(e.srv.URL)
	require.NoError(t, err)
	oldCookies := e.client.Jar.Cookies(base)
	require.NotEmpty(t, oldCookies)

	body := e.get(t, "/logout")
	require.Contains(t, body, "You are logged out")
	require.Equal(t, 1, e.sessions.Len(), "logout replaces the session instead of retaining it")

	// Replaying the pre-logout cookie resolves to a brand-new anonymous
	// session, not the retired one, and the guard bounces it.
	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/show", nil)
	require.NoError(t, err)
	for _, c := range oldCookies {
		req.AddCookie(c)
	}
	noRedirect := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}}
	resp, err := noRedirect.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/reg", resp.Header.Get("Location"))
	require.Equal(t, 2, e.sessions.Len(), "stale cookie must resolve to a fresh session")
}

func TestNotFoundPage(t *testing.T) {
	e := newTestEnv(t)

	resp, err := e.client.Get(e.srv.URL + "/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "Page not found")
}

func TestNoticeIsOneShot(t *testing.T) {
	e := newTestEnv(t)

	body := e.get(t, "/")
	require.Contains(t, body, "Welcome to TEDxCUSAT")

	// The welcome notice was consumed by the first render.
	body = e.get(t, "/main")
	require.False(t, strings.Contains(body, "notice-info"), "notice must not repeat")
}
