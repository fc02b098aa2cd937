package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notekeeper/internal/common"
	"github.com/dmitrijs2005/notekeeper/internal/cryptox"
	"github.com/dmitrijs2005/notekeeper/internal/dbx"
	"github.com/dmitrijs2005/notekeeper/internal/server/models"
	notesrepo "github.com/dmitrijs2005/notekeeper/internal/server/repositories/notes"
	refreshtokensrepo "github.com/dmitrijs2005/notekeeper/internal/server/repositories/refreshtokens"
	usersrepo "github.com/dmitrijs2005/notekeeper/internal/server/repositories/users"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	d, err := cryptox.HashPassword(password, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return d
}

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// fakeUsersRepo is an in-memory users.Repository keyed by ID, with
// case-insensitive usernames.
type fakeUsersRepo struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	next  int
	err   error
	calls int
}

func newFakeUsersRepo(users ...*models.User) *fakeUsersRepo {
	r := &fakeUsersRepo{byID: map[string]*models.User{}}
	for _, u := range users {
		r.byID[u.ID] = u
	}
	return r
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.byID {
		if strings.EqualFold(existing.UserName, u.UserName) {
			return nil, common.ErrorAlreadyExist
		}
	}
	f.next++
	cp := *u
	cp.ID = "u-new-" + string(rune('0'+f.next))
	f.byID[cp.ID] = &cp
	u.ID = cp.ID
	return u, nil
}

func (f *fakeUsersRepo) GetUserByLogin(_ context.Context, login string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.UserName, login) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsersRepo) List(context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.User
	for _, u := range f.byID {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUsersRepo) Update(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return f.err
	}
	existing, ok := f.byID[u.ID]
	if !ok {
		return common.ErrorNotFound
	}
	for id, other := range f.byID {
		if id != u.ID && strings.EqualFold(other.UserName, u.UserName) {
			return common.ErrorAlreadyExist
		}
	}
	existing.UserName = u.UserName
	existing.Roles = u.Roles
	existing.Active = u.Active
	if u.PasswordDigest != "" {
		existing.PasswordDigest = u.PasswordDigest
	}
	return nil
}

func (f *fakeUsersRepo) Delete(_ context.Context, id string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	delete(f.byID, id)
	return u.UserName, nil
}

type fakeNotesRepo struct {
	byID    map[string]*models.Note
	err     error
	created []*models.Note
	updated []*models.Note
}

func newFakeNotesRepo(notes ...*models.Note) *fakeNotesRepo {
	r := &fakeNotesRepo{byID: map[string]*models.Note{}}
	for _, n := range notes {
		r.byID[n.ID] = n
	}
	return r
}

func (f *fakeNotesRepo) List(context.Context) ([]*models.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.Note
	for _, n := range f.byID {
		out = append(out, n)
	}
	return out, nil
}

func (f *fakeNotesRepo) GetByID(_ context.Context, id string) (*models.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	n, ok := f.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return n, nil
}

func (f *fakeNotesRepo) Create(_ context.Context, n *models.Note) (*models.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Title, n.Title) {
			return nil, common.ErrorAlreadyExist
		}
	}
	n.ID = "n-" + n.Title
	n.CreatedAt = time.Now()
	f.byID[n.ID] = n
	f.created = append(f.created, n)
	return n, nil
}

func (f *fakeNotesRepo) Update(_ context.Context, n *models.Note) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.byID[n.ID]; !ok {
		return common.ErrorNotFound
	}
	for id, existing := range f.byID {
		if id != n.ID && strings.EqualFold(existing.Title, n.Title) {
			return common.ErrorAlreadyExist
		}
	}
	f.byID[n.ID] = n
	f.updated = append(f.updated, n)
	return nil
}

func (f *fakeNotesRepo) Delete(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	n, ok := f.byID[id]
	if !ok {
		return "", common.ErrorNotFound
	}
	delete(f.byID, id)
	return n.Title, nil
}

func (f *fakeNotesRepo) ExistsForUser(_ context.Context, userID string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, n := range f.byID {
		if n.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

// fakeRevocations is an in-memory RevocationStore.
type fakeRevocations struct {
	mu        sync.Mutex
	revoked   map[string]time.Time
	revokeErr error
	checkErr  error
}

func newFakeRevocations() *fakeRevocations {
	return &fakeRevocations{revoked: map[string]time.Time{}}
}

func (f *fakeRevocations) Revoke(_ context.Context, fp string, expires time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.revokeErr != nil {
		return f.revokeErr
	}
	f.revoked[fp] = expires
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, fp string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.checkErr != nil {
		return false, f.checkErr
	}
	_, ok := f.revoked[fp]
	return ok, nil
}

type fakeRepoManager struct {
	u *fakeUsersRepo
	n *fakeNotesRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error     { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository           { return m.u }
func (m *fakeRepoManager) Notes(db dbx.DBTX) notesrepo.Repository           { return m.n }
func (m *fakeRepoManager) RefreshTokens(db dbx.DBTX) refreshtokensrepo.Repository { return nil }
