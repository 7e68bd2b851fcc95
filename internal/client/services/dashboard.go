package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sheetsync/internal/client/client"
	"github.com/dmitrijs2005/sheetsync/internal/mirror"
	"github.com/dmitrijs2005/sheetsync/internal/session"
)

// ErrSessionExpired is returned when the server rejected the stored session,
// which has been cleared.
var ErrSessionExpired = errors.New("session expired")

// Expirer drops a session the server no longer accepts. AuthService is one.
type Expirer interface {
	Session() *session.Context
	Logout(ctx context.Context) error
}

// DashboardService drives the data views of the CLI.
type DashboardService interface {
	// Sync asks the server to append one spreadsheet copy and returns the
	// number of rows written.
	Sync(ctx context.Context) (int, error)
	// Watch mirrors collection, calling render with the loading view first
	// and again after every pushed change, until ctx is done.
	Watch(ctx context.Context, collection string, render func(mirror.View)) error
}

type dashboardService struct {
	client        client.Client
	registrations string
	auth          Expirer
}

// NewDashboardService mirrors collections served by c. registrations names
// the registration collection, which is shown in timestamp order. A call the
// server rejects as unauthenticated signs auth out; auth may be nil.
func NewDashboardService(c client.Client, registrations string, auth Expirer) DashboardService {
	return &dashboardService{client: c, registrations: registrations, auth: auth}
}

func (d *dashboardService) Sync(ctx context.Context) (int, error) {
	n, err := d.client.Sync(ctx)
	if err != nil {
		return 0, d.expire(ctx, err)
	}
	return n, nil
}

// expire clears a signed-in session after err rejected its token.
func (d *dashboardService) expire(ctx context.Context, err error) error {
	if !errors.Is(err, client.ErrUnauthorized) || d.auth == nil || d.auth.Session().Current() == nil {
		return err
	}
	if lerr := d.auth.Logout(context.WithoutCancel(ctx)); lerr != nil {
		return errors.Join(err, lerr)
	}
	return fmt.Errorf("%w: %w", ErrSessionExpired, err)
}

func (d *dashboardService) Watch(ctx context.Context, collection string, render func(mirror.View)) error {
	m := mirror.New(mirror.ComparatorFor(collection, d.registrations))
	render(m.View())

	err := d.client.Watch(ctx, collection, func(s mirror.Snapshot, err error) {
		if err != nil {
			render(m.Fail(err))
			return
		}
		render(m.Apply(s))
	})
	if err != nil {
		err = d.expire(ctx, err)
		render(m.Fail(err))
	}
	return err
}
