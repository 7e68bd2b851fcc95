// Package guard decides what a gated view does for a given session status.
package guard

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/sheetsync/internal/routes"
	"github.com/dmitrijs2005/sheetsync/internal/session"
)

// Action is what the view should do.
type Action int

const (
	// Wait renders nothing until the session status is known.
	Wait Action = iota
	Render
	Redirect
)

func (a Action) String() string {
	switch a {
	case Wait:
		return "wait"
	case Render:
		return "render"
	default:
		return "redirect"
	}
}

// Decision is the outcome of Decide. Target is set for Redirect only.
type Decision struct {
	Action Action
	Target string
}

// Decide applies the gate rule.
func Decide(status session.Status, requireAuth bool) Decision {
	switch {
	case status.State == session.Loading:
		return Decision{Action: Wait}
	case requireAuth && status.State != session.SignedIn:
		return Decision{Action: Redirect, Target: routes.Login}
	case !requireAuth && status.State == session.SignedIn:
		return Decision{Action: Redirect, Target: routes.Home}
	default:
		return Decision{Action: Render}
	}
}

// Watch calls fn with the current decision and again after every session
// change, until ctx is done or the returned stop function is called.
func Watch(ctx context.Context, sc *session.Context, requireAuth bool, fn func(Decision)) (stop func()) {
	cancel := sc.OnChange(func(s session.Status) {
		fn(Decide(s, requireAuth))
	})
	fn(Decide(sc.Status(), requireAuth))

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			close(done)
		})
	}
}
