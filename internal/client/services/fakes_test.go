package services

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sheetsync/internal/client/client"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/mirror"
	"github.com/dmitrijs2005/sheetsync/internal/rpc"
)

var ada = identity.Payload{Email: "ada@example.com", Name: "Ada", Sub: "g-1"}

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := client.InitDatabase(context.Background(), filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type watchEvent struct {
	snap mirror.Snapshot
	err  error
}

// fakeClient implements client.Client for the service tests.
type fakeClient struct {
	token  string
	closed bool

	signIn    rpc.SignInReply
	signInErr error

	registerReq   rpc.RegisterRequest
	registerReply rpc.RegisterReply
	registerErr   error

	synced  int
	syncErr error

	watched  string
	events   []watchEvent
	watchErr error
}

func (f *fakeClient) Close() error                 { f.closed = true; return nil }
func (f *fakeClient) SetSessionToken(token string) { f.token = token }

func (f *fakeClient) SignIn(context.Context, string) (rpc.SignInReply, error) {
	return f.signIn, f.signInErr
}

func (f *fakeClient) Register(_ context.Context, req rpc.RegisterRequest) (rpc.RegisterReply, error) {
	f.registerReq = req
	return f.registerReply, f.registerErr
}

func (f *fakeClient) Sync(context.Context) (int, error) { return f.synced, f.syncErr }

func (f *fakeClient) Watch(_ context.Context, collection string, fn func(mirror.Snapshot, error)) error {
	f.watched = collection
	for _, e := range f.events {
		fn(e.snap, e.err)
	}
	return f.watchErr
}

var _ client.Client = (*fakeClient)(nil)
