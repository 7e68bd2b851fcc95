package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/mirror"
)

func TestWatch_ProtectedCollectionNeedsSession(t *testing.T) {
	a, _, fd, out := newTestApp(t, false, "")

	require.NoError(t, a.Watch(context.Background(), nil))

	assert.Empty(t, fd.watched)
	assert.Contains(t, out.String(), "Sign in first")
}

func TestWatch_RegistrationsArePublic(t *testing.T) {
	a, _, fd, _ := newTestApp(t, false, "")

	require.NoError(t, a.Watch(context.Background(), []string{common.DefaultRegistrationCollection}))
	assert.Equal(t, common.DefaultRegistrationCollection, fd.watched)
}

func TestWatch_RenamedRegistrationCollectionIsPublic(t *testing.T) {
	a, _, fd, out := newTestApp(t, false, "")
	a.config.RegistrationCollection = "signups"

	require.NoError(t, a.Watch(context.Background(), []string{"signups"}))
	assert.Equal(t, "signups", fd.watched)
	assert.NotContains(t, out.String(), "Sign in first")

	fd.watched = ""
	require.NoError(t, a.Watch(context.Background(), []string{common.DefaultRegistrationCollection}))
	assert.Empty(t, fd.watched)
	assert.Contains(t, out.String(), "Sign in first")
}

func TestWatch_DefaultCollectionWhenSignedIn(t *testing.T) {
	a, _, fd, out := newTestApp(t, true, "")
	fd.views = []mirror.View{
		{State: mirror.Loading},
		{State: mirror.Ready, Items: []mirror.Record{{ID: "k1", Fields: map[string]any{"name": "Ada"}}}},
	}

	require.NoError(t, a.Watch(context.Background(), nil))

	assert.Equal(t, common.DefaultSyncCollection, fd.watched)
	assert.Contains(t, out.String(), "Loading table_name_1...")
	assert.Contains(t, out.String(), "table_name_1: 1 record(s)")
}

func TestWatch_SignOutEndsWatch(t *testing.T) {
	a, fa, fd, _ := newTestApp(t, true, "")

	var ended bool
	fd.watchFn = func(ctx context.Context) {
		require.NoError(t, fa.sc.Clear(context.Background()))
		<-ctx.Done()
		ended = true
	}

	require.NoError(t, a.Watch(context.Background(), nil))
	assert.True(t, ended)
}

func TestRenderView(t *testing.T) {
	var buf bytes.Buffer
	renderView(&buf, "people", mirror.View{State: mirror.Ready, Items: []mirror.Record{
		{ID: "b", Fields: map[string]any{"name": "Bob", "age": float64(30)}},
		{ID: "a", Fields: map[string]any{"name": "Ada"}},
	}})

	want := "\npeople: 2 record(s)\n" +
		"id  age  name\n" +
		"b   30   Bob\n" +
		"a        Ada\n"
	assert.Equal(t, want, buf.String())
}

func TestRenderView_StatesWithoutItems(t *testing.T) {
	var buf bytes.Buffer
	renderView(&buf, "people", mirror.View{State: mirror.Failed, Message: "Permission denied: nope"})
	assert.Equal(t, "Permission denied: nope\n", buf.String())

	buf.Reset()
	renderView(&buf, "people", mirror.View{State: mirror.Ready, Items: []mirror.Record{}})
	assert.Equal(t, "\npeople: 0 record(s)\n", buf.String())
}
