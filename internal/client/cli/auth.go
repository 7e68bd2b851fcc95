package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sheetsync/internal/client/services"
	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/guard"
	"github.com/dmitrijs2005/sheetsync/internal/routes"
	"github.com/dmitrijs2005/sheetsync/internal/rpc"
)

// getTextWithDefault and getSecret are indirections used to facilitate
// testing.
var (
	getTextWithDefault = GetTextWithDefault
	getSecret          = GetSecret
)

// gate applies the guard of view to the current session. It navigates and
// reports false when the view must not be shown.
func (a *App) gate(ctx context.Context, view string) bool {
	r, ok := routes.Lookup(view)
	if !ok {
		return true
	}
	d := guard.Decide(a.authService.Session().Status(), r.RequireAuth)
	if d.Action != guard.Redirect {
		return true
	}
	_ = a.navigate(ctx, d.Target)
	if d.Target == routes.Login {
		a.printf("Sign in first: login [id-token]\n")
	} else if p := a.authService.Session().Current(); p != nil {
		a.printf("Already signed in as %s\n", p.Email)
	}
	return false
}

const sessionExpiredMessage = "Your session has expired. Sign in again: login [id-token]"

func describe(err error) string {
	if errors.Is(err, services.ErrSessionExpired) {
		return sessionExpiredMessage
	}
	switch common.KindOf(err) {
	case common.KindDecode:
		return common.SignInFailedMessage
	case common.KindPermission:
		return "Sign-in was rejected: " + err.Error()
	case common.KindValidation:
		return "Name and email are required."
	case common.KindConflict:
		return "An account with this email already exists. Please sign in."
	case common.KindNetwork:
		return "Server unavailable, try again later."
	default:
		return "Something went wrong: " + err.Error()
	}
}

// describeSignIn words login failures. A refused credential never reads as a
// form error.
func describeSignIn(err error) string {
	if common.KindOf(err) == common.KindValidation {
		return "Sign-in is not available: " + err.Error()
	}
	return describe(err)
}

// Login exchanges a Google ID token, given as the first argument or pasted
// at a hidden prompt. A first-time user is sent to the registration view.
func (a *App) Login(ctx context.Context, args []string) error {
	if !a.gate(ctx, routes.Login) {
		return nil
	}
	_ = a.navigate(ctx, routes.Login)

	var credential string
	if len(args) > 0 {
		credential = args[0]
	} else {
		var err error
		if credential, err = getSecret(a.out, "Google ID token"); err != nil {
			return err
		}
	}

	reply, err := a.authService.Login(ctx, credential)
	if err != nil {
		a.logger.Warn(ctx, "login failed", "error", err)
		a.printf("%s\n", describeSignIn(err))
		return err
	}

	if reply.Outcome == rpc.OutcomeNewUser {
		_ = a.navigate(ctx, routes.Register)
		a.printf("Welcome %s! Finish your registration with 'register'.\n", reply.User.Name)
		return nil
	}

	_ = a.navigate(ctx, routes.Home)
	a.printf("Signed in as %s <%s>\n", reply.User.Name, reply.User.Email)
	return nil
}

// Register asks for name and email, prefilled from a pending sign-in.
func (a *App) Register(ctx context.Context) error {
	if !a.gate(ctx, routes.Register) {
		return nil
	}
	_ = a.navigate(ctx, routes.Register)

	var defName, defEmail string
	pending, err := a.authService.Pending(ctx)
	if err != nil {
		a.logger.Warn(ctx, "pending registration unreadable", "error", err)
	}
	if pending != nil {
		defName, defEmail = pending.User.Name, pending.User.Email
	}

	name, err := getTextWithDefault(a.reader, "Name", defName, a.out)
	if err != nil {
		return err
	}
	email, err := getTextWithDefault(a.reader, "Email", defEmail, a.out)
	if err != nil {
		return err
	}

	reply, err := a.authService.Register(ctx, name, email)
	if err != nil {
		a.printf("%s\n", describe(err))
		return err
	}

	a.printf("Data added successfully (record %s)\n", reply.Key)
	if reply.User != nil {
		_ = a.navigate(ctx, routes.Home)
		a.printf("Signed in as %s <%s>\n", reply.User.Name, reply.User.Email)
	}
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		a.logger.Warn(ctx, "logout failed", "error", err)
		a.printf("%s\n", describe(err))
		return err
	}
	a.printf("Signed out\n")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	p := a.authService.Session().Current()
	if p == nil {
		a.printf("Not signed in\n")
		return nil
	}
	a.printf("%s <%s>\n", p.Name, p.Email)
	if p.Picture != "" {
		a.printf("picture: %s\n", p.Picture)
	}
	return nil
}
