package session

import (
	"context"
	"errors"
	"sync"

	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/routes"
)

// State is the lifecycle of the session as seen by guarded views.
type State int

const (
	Loading State = iota
	SignedIn
	SignedOut
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case SignedIn:
		return "signed-in"
	default:
		return "signed-out"
	}
}

// Status is a snapshot of the session.
type Status struct {
	State   State
	Payload *identity.Payload
}

// IdentityProvider is the sign-in SDK side of sign-out.
type IdentityProvider interface {
	DisableAutoSelect(ctx context.Context) error
}

// Navigator moves the user agent to another view.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, path string) error

func (f NavigatorFunc) Navigate(ctx context.Context, path string) error { return f(ctx, path) }

// NopProvider ignores DisableAutoSelect.
type NopProvider struct{}

func (NopProvider) DisableAutoSelect(context.Context) error { return nil }

// Context is the session object handed to every view. It starts in the
// Loading state until the first Load.
type Context struct {
	store Store
	idp   IdentityProvider
	nav   Navigator

	mu        sync.Mutex
	status    Status
	listeners map[int]func(Status)
	nextID    int
}

func NewContext(store Store, idp IdentityProvider, nav Navigator) *Context {
	if idp == nil {
		idp = NopProvider{}
	}
	return &Context{
		store:     store,
		idp:       idp,
		nav:       nav,
		status:    Status{State: Loading},
		listeners: make(map[int]func(Status)),
	}
}

// Status returns the current status.
func (c *Context) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Current returns the signed-in payload, or nil.
func (c *Context) Current() *identity.Payload {
	return c.Status().Payload
}

// OnChange registers fn for every status change and returns a function that
// removes it.
func (c *Context) OnChange(fn func(Status)) (cancel func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Load reads the persisted payload and leaves Loading.
func (c *Context) Load(ctx context.Context) (*identity.Payload, error) {
	p, err := c.store.Load(ctx)
	if err != nil {
		c.set(Status{State: SignedOut})
		return nil, err
	}
	if p == nil {
		c.set(Status{State: SignedOut})
		return nil, nil
	}
	c.set(Status{State: SignedIn, Payload: p})
	return p, nil
}

// Save persists p and marks the session signed in.
func (c *Context) Save(ctx context.Context, p identity.Payload) error {
	if err := c.store.Save(ctx, p); err != nil {
		return err
	}
	c.set(Status{State: SignedIn, Payload: &p})
	return nil
}

// Clear removes the persisted payload, disables account auto-selection and
// navigates to the sign-in view. Calling it without a session still
// navigates.
func (c *Context) Clear(ctx context.Context) error {
	errStore := c.store.Clear(ctx)
	errIdp := c.idp.DisableAutoSelect(ctx)
	c.set(Status{State: SignedOut})

	var errNav error
	if c.nav != nil {
		errNav = c.nav.Navigate(ctx, routes.Login)
	}
	return errors.Join(errStore, errIdp, errNav)
}

func (c *Context) set(s Status) {
	c.mu.Lock()
	c.status = s
	fns := make([]func(Status), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}
