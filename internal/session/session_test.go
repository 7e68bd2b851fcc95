package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/routes"
)

type fakeProvider struct{ calls int }

func (f *fakeProvider) DisableAutoSelect(context.Context) error {
	f.calls++
	return nil
}

type recordingNav struct{ paths []string }

func (r *recordingNav) Navigate(_ context.Context, path string) error {
	r.paths = append(r.paths, path)
	return nil
}

var ada = identity.Payload{Email: "ada@example.com", Name: "Ada", Picture: "https://example.com/a.png", Sub: "1"}

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	p, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, s.Save(ctx, ada))
	p, err = s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, ada, *p)

	require.NoError(t, s.Clear(ctx))
	p, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestMemoryStore_MalformedIsClearedAndEmpty(t *testing.T) {
	for _, raw := range []string{"{not json", "null", `"ada"`, "[1]"} {
		t.Run(raw, func(t *testing.T) {
			s := NewMemoryStore()
			s.SetRaw([]byte(raw))

			p, err := s.Load(context.Background())
			require.NoError(t, err)
			assert.Nil(t, p)
			assert.Nil(t, s.Raw())
		})
	}
}

func TestUnmarshal(t *testing.T) {
	_, err := Unmarshal([]byte("nope"))
	assert.ErrorIs(t, err, common.ErrDecode)

	raw, err := Marshal(ada)
	require.NoError(t, err)
	p, err := Unmarshal(raw)
	require.NoError(t, err)
	assert.Equal(t, ada, *p)
}

func TestContext_Lifecycle(t *testing.T) {
	ctx := context.Background()
	idp := &fakeProvider{}
	nav := &recordingNav{}
	sc := NewContext(NewMemoryStore(), idp, nav)

	assert.Equal(t, Loading, sc.Status().State)

	var seen []State
	cancel := sc.OnChange(func(s Status) { seen = append(seen, s.State) })

	p, err := sc.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.Equal(t, SignedOut, sc.Status().State)

	require.NoError(t, sc.Save(ctx, ada))
	assert.Equal(t, SignedIn, sc.Status().State)
	assert.Equal(t, &ada, sc.Current())

	require.NoError(t, sc.Clear(ctx))
	assert.Equal(t, SignedOut, sc.Status().State)
	assert.Nil(t, sc.Current())

	cancel()
	require.NoError(t, sc.Clear(ctx))

	assert.Equal(t, []State{SignedOut, SignedIn, SignedOut}, seen)
	assert.Equal(t, 2, idp.calls)
	assert.Equal(t, []string{routes.Login, routes.Login}, nav.paths)
}

func TestContext_LoadRestoresSaved(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, ada))

	sc := NewContext(store, nil, nil)
	p, err := sc.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, ada, *p)
	assert.Equal(t, SignedIn, sc.Status().State)
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Clear(context.Context) error { return errors.New("disk full") }

func TestContext_ClearStillNavigatesOnStoreError(t *testing.T) {
	nav := &recordingNav{}
	sc := NewContext(&failingStore{}, nil, nav)

	err := sc.Clear(context.Background())
	assert.Error(t, err)
	assert.Equal(t, []string{routes.Login}, nav.paths)
	assert.Equal(t, SignedOut, sc.Status().State)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "loading", Loading.String())
	assert.Equal(t, "signed-in", SignedIn.String())
	assert.Equal(t, "signed-out", SignedOut.String())
}
