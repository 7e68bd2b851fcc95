// Package web is the browser surface: server-rendered pages, the sync hook
// and Server-Sent Events for live collections.
package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/logging"
	"github.com/dmitrijs2005/sheetsync/internal/routes"
	"github.com/dmitrijs2005/sheetsync/internal/server/realtime"
	"github.com/dmitrijs2005/sheetsync/internal/server/services"
)

// SignIn is the part of the sign-in flow the pages need.
type SignIn interface {
	SignIn(ctx context.Context, credential string) (*services.SignInResult, error)
	Pending(token string) (identity.Payload, error)
}

type Registrar interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
}

type Syncer interface {
	Trigger(ctx context.Context) ([]string, error)
	Collection() string
}

type Subscriber interface {
	Subscribe(ctx context.Context, collection string) (*realtime.Subscription, error)
}

// Options configures a Server.
type Options struct {
	Addr                   string
	GoogleClientID         string
	SyncHookToken          string
	RegistrationCollection string
	ReadmePath             string
	// SecureCookies marks cookies Secure. Off for plain-HTTP development.
	SecureCookies bool
}

type Server struct {
	opts      Options
	signin    SignIn
	registrar Registrar
	syncer    Syncer
	hub       Subscriber
	tokens    *services.Tokens
	pages     *pages
	logger    logging.Logger
	app       *fiber.App

	// streams is cancelled on shutdown and ends every open event stream.
	streams context.Context
	stop    context.CancelFunc
}

func NewServer(opts Options, l logging.Logger, si SignIn, r Registrar, sy Syncer, hub Subscriber, t *services.Tokens) (*Server, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	s := &Server{
		opts:      opts,
		signin:    si,
		registrar: r,
		syncer:    sy,
		hub:       hub,
		tokens:    t,
		pages:     p,
		logger:    l.With("module", "http_server"),
	}
	s.streams, s.stop = context.WithCancel(context.Background())
	s.app = s.routes()
	return s, nil
}

// App exposes the fiber application, mostly for tests.
func (s *Server) App() *fiber.App { return s.app }

func (s *Server) routes() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "sheetsync",
		ErrorHandler: s.handleError,
		ReadTimeout:  10 * time.Second,
	})

	app.Use(recoverer.New())
	app.Use(s.requestLogger)

	app.Get(routes.Login, s.withSession, s.guarded, s.loginPage)
	app.Post(routes.Login, s.withSession, s.loginSubmit)
	app.Get(routes.Register, s.withSession, s.guarded, s.registerPage)
	app.Post(routes.Register, s.withSession, s.registerSubmit)
	app.Get(routes.Home, s.withSession, s.guarded, s.homePage)
	app.Get(routes.ReadMe, s.withSession, s.guarded, s.readmePage)
	app.Post("/logout", s.withSession, s.logout)

	app.Get("/hooks/sync", s.withSession, s.syncHook)
	app.Get("/events/:collection", s.withSession, s.events)

	return app
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.opts.Addr)
		errCh <- s.app.Listen(s.opts.Addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")
	s.stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(shutdownCtx)
}

// StatusFor maps an error kind to an HTTP status.
func StatusFor(err error) int {
	switch common.KindOf(err) {
	case common.KindDecode, common.KindValidation:
		return http.StatusBadRequest
	case common.KindPermission:
		return http.StatusUnauthorized
	case common.KindNotFound:
		return http.StatusNotFound
	case common.KindConflict:
		return http.StatusConflict
	case common.KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleError(c fiber.Ctx, err error) error {
	code := StatusFor(err)
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= http.StatusInternalServerError {
		s.logger.Error(c.Context(), "request failed", "path", c.Path(), "error", err)
		return c.Status(code).SendString(http.StatusText(code))
	}
	return c.Status(code).SendString(err.Error())
}
