package cli

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/sheetsync/internal/client/services"
	"github.com/dmitrijs2005/sheetsync/internal/routes"
)

// Sync asks the server to append the spreadsheet rows once.
func (a *App) Sync(ctx context.Context) error {
	if !a.gate(ctx, routes.Home) {
		return nil
	}

	n, err := a.dashboard.Sync(ctx)
	if err != nil {
		a.logger.Warn(ctx, "sync failed", "error", err)
		if errors.Is(err, services.ErrSessionExpired) {
			a.printf("%s\n", sessionExpiredMessage)
			return err
		}
		a.printf("Error pushing data to Firebase: %s\n", describe(err))
		return err
	}
	a.printf("Pushed data to Firebase successfully (%d row(s))\n", n)
	return nil
}
