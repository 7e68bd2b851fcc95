// Package server wires configuration, storage, the realtime hub and both
// transports together and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/logging"
	"github.com/dmitrijs2005/sheetsync/internal/server/config"
	"github.com/dmitrijs2005/sheetsync/internal/server/realtime"
	"github.com/dmitrijs2005/sheetsync/internal/server/repositories/records"
	"github.com/dmitrijs2005/sheetsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sheetsync/internal/server/services"
	"github.com/dmitrijs2005/sheetsync/internal/server/sources"
	"github.com/dmitrijs2005/sheetsync/internal/server/web"

	gs "github.com/dmitrijs2005/sheetsync/internal/server/grpc"
)

type App struct {
	config       *config.Config
	logger       logging.Logger
	db           *sql.DB
	hub          *realtime.Hub
	tokens       *services.Tokens
	signin       *services.SignInService
	registration *services.RegistrationService
	sync         *services.SyncService
	listen       func(ctx context.Context) (changeFeed, error)
}

// changeFeed is the LISTEN connection feeding the hub.
type changeFeed interface {
	realtime.Source
	Close(ctx context.Context) error
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)

	if c.GeneratedSecret {
		logger.Warn(ctx, "no session secret configured, generated a random one; sessions end on restart")
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	verifier := newVerifier(ctx, c, logger)

	src, err := newSource(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	tokens := services.NewTokens(c)
	directory := services.NewDirectoryService(db, rm)

	return &App{
		config:       c,
		logger:       logger,
		db:           db,
		hub:          realtime.NewHub(rm.Records(db), logger),
		tokens:       tokens,
		signin:       services.NewSignInService(directory, verifier, tokens, c.GoogleConfigured(), logger),
		registration: services.NewRegistrationService(db, rm, tokens, c.RegistrationCollection, logger),
		sync:         services.NewSyncService(db, rm, src, c.SyncCollection, logger),
		listen: func(ctx context.Context) (changeFeed, error) {
			return realtime.ListenPostgres(ctx, c.DatabaseDSN, records.ChangeChannel)
		},
	}, nil
}

// newVerifier checks signatures whenever a client ID is configured. Google's
// keys are fetched on the first sign-in.
func newVerifier(ctx context.Context, c *config.Config, logger logging.Logger) identity.Verifier {
	if !c.GoogleConfigured() {
		logger.Warn(ctx, "GOOGLE_CLIENT_ID is not set, sign-in is disabled")
		return identity.DecodeOnly{}
	}
	return identity.NewOIDCVerifier(ctx, c.GoogleClientID)
}

func newSource(ctx context.Context, c *config.Config) (sources.Source, error) {
	switch c.SyncSource {
	case config.SyncSourceS3:
		return sources.NewS3Sheet(ctx, sources.S3Config{
			Bucket:       c.S3Bucket,
			Key:          c.S3Key,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
		})
	case config.SyncSourcePlaceholder, "":
		return sources.Placeholder{}, nil
	default:
		return nil, fmt.Errorf("unknown sync source %q", c.SyncSource)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// startHub feeds the hub from LISTEN. A listener that cannot start or is
// lost fails the hub, so every subscriber sees the failure. It is not
// reconnected.
func (app *App) startHub(ctx context.Context) {
	src, err := app.listen(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		err = fmt.Errorf("%w: realtime listener: %v", common.ErrNetwork, err)
		app.logger.Error(ctx, "realtime listener unavailable", "error", err)
		app.hub.Fail(err)
		return
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = src.Close(closeCtx)
	}()

	if err := app.hub.Run(ctx, src); err != nil {
		app.logger.Error(ctx, "realtime hub stopped", "error", err)
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s, err := web.NewServer(web.Options{
		Addr:                   app.config.HTTPAddr,
		GoogleClientID:         app.config.GoogleClientID,
		SyncHookToken:          app.config.SyncHookToken,
		RegistrationCollection: app.config.RegistrationCollection,
		ReadmePath:             app.config.ReadmePath,
	}, app.logger, app.signin, app.registration, app.sync, app.hub, app.tokens)
	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.GRPCAddr, app.logger, app.signin, app.registration, app.sync, app.hub, app.config.RegistrationCollection)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until a signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHub(ctx)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "close db", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
