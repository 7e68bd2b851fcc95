package cli

import (
	"bufio"
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/dmitrijs2005/sheetsync/internal/client/config"
	"github.com/dmitrijs2005/sheetsync/internal/client/services"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/logging"
	"github.com/dmitrijs2005/sheetsync/internal/mirror"
	"github.com/dmitrijs2005/sheetsync/internal/routes"
	"github.com/dmitrijs2005/sheetsync/internal/rpc"
	"github.com/dmitrijs2005/sheetsync/internal/session"
)

var ada = identity.Payload{Email: "ada@example.com", Name: "Ada", Sub: "g-1"}

type fakeAuth struct {
	sc *session.Context

	loginCred  string
	loginReply rpc.SignInReply
	loginErr   error

	pending *services.Pending

	regName, regEmail string
	regReply          rpc.RegisterReply
	regErr            error

	logoutErr error
	closed    bool
}

func newFakeAuth(t *testing.T, a *App, signedIn bool) *fakeAuth {
	t.Helper()
	store := session.NewMemoryStore()
	f := &fakeAuth{sc: session.NewContext(store, nil, session.NavigatorFunc(a.navigate))}
	if signedIn {
		if err := f.sc.Save(context.Background(), ada); err != nil {
			t.Fatalf("save: %v", err)
		}
	} else if _, err := f.sc.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return f
}

func (f *fakeAuth) Session() *session.Context { return f.sc }

func (f *fakeAuth) Resume(ctx context.Context) (*identity.Payload, error) {
	return f.sc.Current(), nil
}

func (f *fakeAuth) Login(ctx context.Context, credential string) (rpc.SignInReply, error) {
	f.loginCred = credential
	if f.loginErr != nil {
		return rpc.SignInReply{}, f.loginErr
	}
	if f.loginReply.Outcome == rpc.OutcomeExisting {
		_ = f.sc.Save(ctx, f.loginReply.User)
	}
	return f.loginReply, nil
}

func (f *fakeAuth) Pending(context.Context) (*services.Pending, error) { return f.pending, nil }

func (f *fakeAuth) Register(ctx context.Context, name, email string) (rpc.RegisterReply, error) {
	f.regName, f.regEmail = name, email
	if f.regErr != nil {
		return rpc.RegisterReply{}, f.regErr
	}
	if f.regReply.User != nil {
		_ = f.sc.Save(ctx, *f.regReply.User)
	}
	return f.regReply, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	if f.logoutErr != nil {
		return f.logoutErr
	}
	return f.sc.Clear(ctx)
}

func (f *fakeAuth) Close(context.Context) error { f.closed = true; return nil }

type fakeDashboard struct {
	synced  int
	syncErr error

	watched string
	views   []mirror.View
	watchFn func(ctx context.Context)
}

func (f *fakeDashboard) Sync(context.Context) (int, error) { return f.synced, f.syncErr }

func (f *fakeDashboard) Watch(ctx context.Context, collection string, render func(mirror.View)) error {
	f.watched = collection
	for _, v := range f.views {
		render(v)
	}
	if f.watchFn != nil {
		f.watchFn(ctx)
	}
	return nil
}

func newTestApp(t *testing.T, signedIn bool, input string) (*App, *fakeAuth, *fakeDashboard, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	var out bytes.Buffer
	a := &App{
		config: cfg,
		logger: logging.Nop{},
		reader: bufio.NewReader(strings.NewReader(input)),
		out:    &out,
		view:   routes.Login,
	}
	fa := newFakeAuth(t, a, signedIn)
	fd := &fakeDashboard{}
	a.authService = fa
	a.dashboard = fd
	return a, fa, fd, &out
}

func TestIsLoggedIn(t *testing.T) {
	a, _, _, _ := newTestApp(t, false, "")
	if a.isLoggedIn() {
		t.Fatalf("expected isLoggedIn() == false without a session")
	}

	a, _, _, _ = newTestApp(t, true, "")
	if !a.isLoggedIn() {
		t.Fatalf("expected isLoggedIn() == true with a session")
	}
}

func TestRun_ClosesServices(t *testing.T) {
	a, fa, _, out := newTestApp(t, true, "exit\n")
	silencePrintln(t)

	a.Run(context.Background())

	if !fa.closed {
		t.Fatalf("auth service not closed")
	}
	if !strings.Contains(out.String(), "Signed in as Ada <ada@example.com>") {
		t.Fatalf("missing resume greeting: %q", out.String())
	}
	if a.currentView() != routes.Home {
		t.Fatalf("want view %q, got %q", routes.Home, a.currentView())
	}
}
