package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/dmitrijs2005/sheetsync/internal/guard"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/routes"
	"github.com/dmitrijs2005/sheetsync/internal/server/services"
	"github.com/dmitrijs2005/sheetsync/internal/session"
)

const (
	sessionCookie      = "session"
	pendingCookie      = "pending_registration"
	autoSelectCookie   = "g_disable_auto_select"
	csrfCookie         = "g_csrf_token"
	sessionLocal       = "session_context"
	navigateLocal      = "navigate_to"
	autoSelectLifetime = time.Minute
)

// cookieStore keeps the identity payload in a signed, HttpOnly cookie.
type cookieStore struct {
	c      fiber.Ctx
	tokens *services.Tokens
	secure bool
}

func (s *cookieStore) Load(_ context.Context) (*identity.Payload, error) {
	raw := s.c.Cookies(sessionCookie)
	if raw == "" {
		return nil, nil
	}
	p, err := s.tokens.ParseSession(raw)
	if err != nil {
		s.expire(sessionCookie)
		return nil, nil
	}
	return &p, nil
}

func (s *cookieStore) Save(_ context.Context, p identity.Payload) error {
	token, err := s.tokens.IssueSession(p)
	if err != nil {
		return err
	}
	s.set(sessionCookie, token, s.tokens.SessionTTL(), true)
	return nil
}

func (s *cookieStore) Clear(_ context.Context) error {
	s.expire(sessionCookie)
	s.expire(pendingCookie)
	return nil
}

func (s *cookieStore) set(name, value string, ttl time.Duration, httpOnly bool) {
	s.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl),
		HTTPOnly: httpOnly,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *cookieStore) expire(name string) {
	s.c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HTTPOnly: true,
		Secure:   s.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

// DisableAutoSelect leaves a short-lived cookie that the sign-in page turns
// into google.accounts.id.disableAutoSelect().
func (s *cookieStore) DisableAutoSelect(context.Context) error {
	s.set(autoSelectCookie, "1", autoSelectLifetime, false)
	return nil
}

// withSession builds the per-request session context and loads it.
func (s *Server) withSession(c fiber.Ctx) error {
	store := &cookieStore{c: c, tokens: s.tokens, secure: s.opts.SecureCookies}
	nav := session.NavigatorFunc(func(_ context.Context, path string) error {
		c.Locals(navigateLocal, path)
		return nil
	})
	sc := session.NewContext(store, store, nav)
	if _, err := sc.Load(c.Context()); err != nil {
		return err
	}
	c.Locals(sessionLocal, sc)
	return c.Next()
}

func sessionOf(c fiber.Ctx) *session.Context {
	sc, _ := c.Locals(sessionLocal).(*session.Context)
	return sc
}

// navigation returns the path a session operation asked to move to.
func navigation(c fiber.Ctx) (string, bool) {
	path, ok := c.Locals(navigateLocal).(string)
	return path, ok && path != ""
}

var errNoSession = errors.New("session middleware not installed")

// guarded applies the auth gate to page routes.
func (s *Server) guarded(c fiber.Ctx) error {
	sc := sessionOf(c)
	if sc == nil {
		return errNoSession
	}
	r, ok := routes.Lookup(c.Path())
	if !ok {
		return c.Next()
	}

	d := guard.Decide(sc.Status(), r.RequireAuth)
	switch d.Action {
	case guard.Redirect:
		return c.Redirect().To(d.Target)
	case guard.Wait:
		return c.SendStatus(fiber.StatusNoContent)
	default:
		return c.Next()
	}
}
