package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/dmitrijs2005/sheetsync/internal/client/client"
	"github.com/dmitrijs2005/sheetsync/internal/client/config"
	"github.com/dmitrijs2005/sheetsync/internal/client/services"
	"github.com/dmitrijs2005/sheetsync/internal/logging"
	"github.com/dmitrijs2005/sheetsync/internal/routes"
	"github.com/dmitrijs2005/sheetsync/internal/session"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	authService services.AuthService
	dashboard   services.DashboardService
	db          *sql.DB
	reader      *bufio.Reader
	out         io.Writer

	mu   sync.Mutex
	view string
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	db, err := client.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient, err := client.NewGRPCClient(c.ServerEndpointAddr, c.RequestTimeout)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a := &App{
		config: c,
		logger: logger,
		db:     db,
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
		view:   routes.Login,
	}
	a.authService = services.NewAuthService(apiClient, db, session.NavigatorFunc(a.navigate))
	a.dashboard = services.NewDashboardService(apiClient, c.RegistrationCollection, a.authService)
	return a, nil
}

// navigate switches the current view. The prompt shows it.
func (a *App) navigate(_ context.Context, path string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.view = path
	return nil
}

func (a *App) currentView() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.view
}

func (a *App) Run(ctx context.Context) {
	defer func() {
		_ = a.authService.Close(ctx)
		if a.db != nil {
			_ = a.db.Close()
		}
	}()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.authService != nil && a.authService.Session().Current() != nil
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
