package rest

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/cryptox"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/auth"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	notesrepo "github.com/dmitrijs2005/notekeeper/internal/server/repositories/notes"
	refreshtokensrepo "github.com/dmitrijs2005/notekeeper/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/notekeeper/internal/server/repositories/users"
	"github.com/dmitrijs2005/notekeeper/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAccessSecret  = "access-secret-for-tests"
	testRefreshSecret = "refresh-secret-for-tests"
)

// accountsRepo answers the lookups the auth flow makes. Writes are not
// used by these tests.
type accountsRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func (a *accountsRepo) add(t *testing.T, name, password string, active bool, roles ...string) {
	t.Helper()
	digest, err := cryptox.HashPassword(password, bcrypt.MinCost)
	require.NoError(t, err)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[strings.ToLower(name)] = &models.User{ID: "id-" + name, UserName: name, PasswordDigest: digest, Roles: roles, Active: active}
}

func (a *accountsRepo) setRoles(name string, roles ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[strings.ToLower(name)].Roles = roles
}

func (a *accountsRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	u, ok := a.users[strings.ToLower(login)]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (a *accountsRepo) Create(context.Context, *models.User) (*models.User, error) {
	return nil, common.ErrorInternal
}
func (a *accountsRepo) GetByID(context.Context, string) (*models.User, error) {
	return nil, common.ErrorNotFound
}
func (a *accountsRepo) List(context.Context) ([]*models.User, error) { return nil, nil }
func (a *accountsRepo) Update(context.Context, *models.User) error  { return common.ErrorInternal }
func (a *accountsRepo) Delete(context.Context, string) (string, error) {
	return "", common.ErrorInternal
}

type accountsManager struct{ users *accountsRepo }

func (m accountsManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m accountsManager) Users(dbx.DBTX) usersrepo.Repository         { return m.users }
func (m accountsManager) Notes(dbx.DBTX) notesrepo.Repository         { return nil }
func (m accountsManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository {
	return nil
}

// memRevocations is a map-backed services.RevocationStore.
type memRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (m *memRevocations) Revoke(_ context.Context, fp string, expires time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revoked[fp] = expires
	return nil
}

func (m *memRevocations) IsRevoked(_ context.Context, fp string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[fp]
	return ok, nil
}

type fakeUserAdmin struct {
	users   []*models.User
	err     error
	created services.CreateUserInput
	updated services.UpdateUserInput
	deleted string
}

func (f *fakeUserAdmin) List(context.Context) ([]*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.users) == 0 {
		return nil, common.NewValidationError("No users found")
	}
	return f.users, nil
}

func (f *fakeUserAdmin) Create(_ context.Context, in services.CreateUserInput) (*models.User, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: "u-1", UserName: in.Username, Roles: in.Roles, Active: true}, nil
}

func (f *fakeUserAdmin) Update(_ context.Context, in services.UpdateUserInput) (*models.User, error) {
	f.updated = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: in.ID, UserName: in.Username, Roles: in.Roles, Active: in.Active}, nil
}

func (f *fakeUserAdmin) Delete(_ context.Context, id string) (*models.User, error) {
	f.deleted = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id, UserName: "carol"}, nil
}

type fakeNoteStore struct {
	notes   []*models.Note
	err     error
	created services.NoteInput
	updated services.NoteInput
}

func (f *fakeNoteStore) List(context.Context) ([]*models.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.notes) == 0 {
		return nil, common.NewValidationError("No notes found")
	}
	return f.notes, nil
}

func (f *fakeNoteStore) Create(_ context.Context, in services.NoteInput) (*models.Note, error) {
	f.created = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Note{ID: "n-1", UserID: in.UserID, Title: in.Title, Text: in.Text}, nil
}

func (f *fakeNoteStore) Update(_ context.Context, in services.NoteInput) (*models.Note, error) {
	f.updated = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Note{ID: in.ID, UserID: in.UserID, Title: in.Title, Text: in.Text, Completed: in.Completed}, nil
}

func (f *fakeNoteStore) Delete(_ context.Context, id string) (*models.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Note{ID: id, Title: "Groceries"}, nil
}

// fixture wires a real AuthService and Codec to fakes behind the router.
type fixture struct {
	codec       *auth.Codec
	accounts    *accountsRepo
	revocations *memRevocations
	users       *fakeUserAdmin
	notes       *fakeNoteStore
	health      error
	handler     http.Handler
}

func newFixture(t *testing.T, withRevocation bool) *fixture {
	t.Helper()

	secrets, err := auth.NewSecrets(testAccessSecret, testRefreshSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	f := &fixture{
		codec:    auth.NewCodec(secrets),
		accounts: &accountsRepo{users: map[string]*models.User{}},
		users:    &fakeUserAdmin{},
		notes:    &fakeNoteStore{},
	}

	var store services.RevocationStore
	if withRevocation {
		f.revocations = &memRevocations{revoked: map[string]time.Time{}}
		store = f.revocations
	}

	m := accountsManager{users: f.accounts}
	verifier, err := services.NewCredentialVerifier(nil, m, bcrypt.MinCost)
	require.NoError(t, err)
	authSvc := services.NewAuthService(nil, m, verifier, f.codec, store, logging.Nop{})

	srv := NewHTTPServer(Options{
		Address:        "127.0.0.1:0",
		AllowedOrigins: []string{"http://localhost:3000"},
		Codec:          f.codec,
		Auth:           authSvc,
		Users:          f.users,
		Notes:          f.notes,
		Health:         func(context.Context) error { return f.health },
		Metrics:        NewMetrics(prometheus.NewRegistry()),
		Logger:         logging.Nop{},
	})
	f.handler = srv.Routes()
	return f
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set(common.AuthorizationHeaderName, "Bearer "+token)
	return req
}

func withCookie(req *http.Request, value string) *http.Request {
	req.AddCookie(&http.Cookie{Name: common.RefreshCookieName, Value: value})
	return req
}

// login performs POST /auth and returns the access token and the refresh
// cookie value.
func (f *fixture) login(t *testing.T, username, password string) (string, string) {
	t.Helper()
	rec := f.do(jsonRequest(t, http.MethodPost, "/auth", map[string]string{"username": username, "password": password}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body accessTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	c := refreshCookie(rec)
	require.NotNil(t, c)
	return body.AccessToken, c.Value
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.RefreshCookieName {
			return c
		}
	}
	return nil
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body messageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Message
}

func httptestRaw(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func jsonUnmarshal(rec *httptest.ResponseRecorder, v any) error {
	return json.Unmarshal(rec.Body.Bytes(), v)
}
