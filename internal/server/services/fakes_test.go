package services

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/dbx"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/mirror"
	"github.com/dmitrijs2005/sheetsync/internal/server/config"
	"github.com/dmitrijs2005/sheetsync/internal/server/models"
	"github.com/dmitrijs2005/sheetsync/internal/server/repositories/records"
	"github.com/dmitrijs2005/sheetsync/internal/server/repositories/users"
)

// memStore backs both fake repositories.
type memStore struct {
	mu      sync.Mutex
	users   map[string]*models.User
	records map[string][]*models.Record
	nextID  int

	usersErr  error
	appendErr error
}

func newMemStore() *memStore {
	return &memStore{users: map[string]*models.User{}, records: map[string][]*models.Record{}}
}

type fakeUsers struct{ s *memStore }

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.usersErr != nil {
		return nil, f.s.usersErr
	}
	u, ok := f.s.users[email]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f fakeUsers) UpsertOnSignIn(_ context.Context, p identity.Payload, now time.Time) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.usersErr != nil {
		return nil, f.s.usersErr
	}
	u, ok := f.s.users[p.Email]
	if !ok {
		return nil, common.ErrNotFound
	}
	if now.After(u.LastLogin) {
		u.LastLogin = now
	}
	u.Name = p.Name
	u.Picture = p.Picture
	cp := *u
	return &cp, nil
}

func (f fakeUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.usersErr != nil {
		return nil, f.s.usersErr
	}
	if _, ok := f.s.users[u.Email]; ok {
		return nil, fmt.Errorf("user %q: %w", u.Email, common.ErrConflict)
	}
	f.s.nextID++
	u.ID = fmt.Sprintf("u-%d", f.s.nextID)
	u.IsActive = true
	cp := *u
	f.s.users[u.Email] = &cp
	return u, nil
}

func (f fakeUsers) List(context.Context) ([]*models.User, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	out := []*models.User{}
	for _, u := range f.s.users {
		out = append(out, u)
	}
	return out, nil
}

type fakeRecords struct{ s *memStore }

func (f fakeRecords) Append(_ context.Context, rec *models.Record) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if f.s.appendErr != nil {
		return f.s.appendErr
	}
	f.s.nextID++
	if rec.Key == "" {
		rec.Key = fmt.Sprintf("k-%d", f.s.nextID)
	}
	f.s.records[rec.Collection] = append(f.s.records[rec.Collection], rec)
	return nil
}

func (f fakeRecords) Snapshot(_ context.Context, collection string) (mirror.Snapshot, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	snap := mirror.Snapshot{}
	for _, r := range f.s.records[collection] {
		snap[r.Key] = r.Data
	}
	return snap, nil
}

func (f fakeRecords) Count(_ context.Context, collection string) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	return len(f.s.records[collection]), nil
}

type fakeManager struct{ s *memStore }

func (m fakeManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m fakeManager) Users(dbx.DBTX) users.Repository              { return fakeUsers{m.s} }
func (m fakeManager) Records(dbx.DBTX) records.Repository          { return fakeRecords{m.s} }

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SessionSecret = "test-secret"
	cfg.GoogleClientID = "cid"
	return cfg
}
