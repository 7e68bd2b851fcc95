package cli

import (
	"bufio"
	"context"
	"fmt"

	"github.com/dmitrijs2005/sheetsync/internal/routes"
)

func (a *App) getStatus() string {
	s := ""
	if a.authService != nil {
		if p := a.authService.Session().Current(); p != nil {
			s = p.Email + " "
		}
	}
	if v := a.currentView(); v != "" {
		s = s + v
	}
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

// Root resumes the stored session and runs the REPL until exit.
func (a *App) Root(ctx context.Context) {
	a.printf("Welcome to the sheetsync CLI (type 'help' for commands)\n")

	p, err := a.authService.Resume(ctx)
	switch {
	case err != nil:
		a.logger.Warn(ctx, "session resume failed", "error", err)
	case p != nil:
		_ = a.navigate(ctx, routes.Home)
		a.printf("Signed in as %s <%s>\n", p.Name, p.Email)
	default:
		_ = a.navigate(ctx, routes.Login)
	}

	runREPL(ctx, a, a.getStatus, bufio.NewScanner(a.reader))
}
