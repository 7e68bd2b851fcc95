package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/routes"
	"github.com/dmitrijs2005/sheetsync/internal/session"
)

func TestDecide(t *testing.T) {
	signedIn := session.Status{State: session.SignedIn, Payload: &identity.Payload{Email: "a@b.c"}}
	signedOut := session.Status{State: session.SignedOut}
	loading := session.Status{State: session.Loading}

	tests := []struct {
		name        string
		status      session.Status
		requireAuth bool
		want        Decision
	}{
		{"no session, protected", signedOut, true, Decision{Action: Redirect, Target: routes.Login}},
		{"session, public", signedIn, false, Decision{Action: Redirect, Target: routes.Home}},
		{"session, protected", signedIn, true, Decision{Action: Render}},
		{"no session, public", signedOut, false, Decision{Action: Render}},
		{"loading, protected", loading, true, Decision{Action: Wait}},
		{"loading, public", loading, false, Decision{Action: Wait}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.status, tt.requireAuth))
		})
	}
}

func TestWatch_ReevaluatesOnChange(t *testing.T) {
	ctx := context.Background()
	sc := session.NewContext(session.NewMemoryStore(), nil, nil)

	var got []Decision
	stop := Watch(ctx, sc, true, func(d Decision) { got = append(got, d) })

	_, err := sc.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, sc.Save(ctx, identity.Payload{Email: "a@b.c"}))
	require.NoError(t, sc.Clear(ctx))

	stop()
	stop()
	require.NoError(t, sc.Save(ctx, identity.Payload{Email: "late@b.c"}))

	assert.Equal(t, []Decision{
		{Action: Wait},
		{Action: Redirect, Target: routes.Login},
		{Action: Render},
		{Action: Redirect, Target: routes.Login},
	}, got)
}

func TestAction_String(t *testing.T) {
	assert.Equal(t, "wait", Wait.String())
	assert.Equal(t, "render", Render.String())
	assert.Equal(t, "redirect", Redirect.String())
}
