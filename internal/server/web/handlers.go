package web

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/routes"
	"github.com/dmitrijs2005/sheetsync/internal/server/services"
	"github.com/dmitrijs2005/sheetsync/internal/session"
)

const (
	syncOKMessage     = "Pushed data to Firebase successfully"
	syncFailedMessage = "Error pushing data to Firebase"
)

func (s *Server) loginPage(c fiber.Ctx) error {
	return s.renderLogin(c, http.StatusOK, "")
}

func (s *Server) renderLogin(c fiber.Ctx, status int, message string) error {
	data := loginData{
		ClientID:          s.opts.GoogleClientID,
		LoginURI:          c.BaseURL() + routes.Login,
		DisableAutoSelect: c.Cookies(autoSelectCookie) != "",
		Error:             message,
	}
	return s.render(c, status, "login", pageData{Title: "Sign in", Page: data})
}

// loginSubmit receives the Google Identity Services redirect post.
func (s *Server) loginSubmit(c fiber.Ctx) error {
	ctx := c.Context()

	if !validCSRF(c) {
		s.logger.Warn(ctx, "csrf check failed")
		return s.renderLogin(c, http.StatusBadRequest, services.SignInFailedMessage)
	}

	res, err := s.signin.SignIn(ctx, c.FormValue("credential"))
	if err != nil {
		msg := services.SignInFailedMessage
		if errors.Is(err, services.ErrNotConfigured) {
			msg = "Google Sign-In is not configured on this server."
		}
		return s.renderLogin(c, StatusFor(err), msg)
	}

	store := &cookieStore{c: c, tokens: s.tokens, secure: s.opts.SecureCookies}
	switch res.Outcome {
	case services.NewUser:
		store.set(pendingCookie, res.PendingToken, s.tokens.PendingTTL(), true)
		return c.Redirect().To(routes.Register)
	default:
		if err := sessionOf(c).Save(ctx, res.Payload); err != nil {
			return err
		}
		return c.Redirect().To(routes.Home)
	}
}

// validCSRF checks the g_csrf_token double-submit cookie.
func validCSRF(c fiber.Ctx) bool {
	cookie := c.Cookies(csrfCookie)
	form := c.FormValue(csrfCookie)
	if cookie == "" || form == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie), []byte(form)) == 1
}

func (s *Server) pending(c fiber.Ctx) *identity.Payload {
	raw := c.Cookies(pendingCookie)
	if raw == "" {
		return nil
	}
	p, err := s.signin.Pending(raw)
	if err != nil {
		return nil
	}
	return &p
}

func (s *Server) registerPage(c fiber.Ctx) error {
	data := registerData{Collection: s.opts.RegistrationCollection, Done: c.Query("done") != ""}
	if p := s.pending(c); p != nil {
		data.Name, data.Email, data.Pending = p.Name, p.Email, true
	}
	return s.render(c, http.StatusOK, "register", pageData{Title: "Register", Page: data})
}

func (s *Server) registerSubmit(c fiber.Ctx) error {
	ctx := c.Context()
	in := services.RegisterInput{
		Name:    c.FormValue("name"),
		Email:   c.FormValue("email"),
		Pending: s.pending(c),
	}

	res, err := s.registrar.Register(ctx, in)
	if err != nil {
		data := registerData{
			Collection: s.opts.RegistrationCollection,
			Name:       in.Name,
			Email:      in.Email,
			Pending:    in.Pending != nil,
			Error:      registerMessage(err),
		}
		return s.render(c, StatusFor(err), "register", pageData{Title: "Register", Page: data})
	}

	if res.Payload == nil {
		return c.Redirect().To(routes.Register + "?done=1")
	}

	store := &cookieStore{c: c, tokens: s.tokens, secure: s.opts.SecureCookies}
	store.expire(pendingCookie)
	if err := sessionOf(c).Save(ctx, *res.Payload); err != nil {
		return err
	}
	return c.Redirect().To(routes.Home)
}

func registerMessage(err error) string {
	switch common.KindOf(err) {
	case common.KindValidation:
		return "Name and email are required."
	case common.KindConflict:
		return "An account with this email already exists. Please sign in."
	default:
		return "Error adding data. Please try again."
	}
}

func (s *Server) homePage(c fiber.Ctx) error {
	data := homeData{Collection: s.syncer.Collection()}
	return s.render(c, http.StatusOK, "home", pageData{Title: "Dashboard", Page: data})
}

func (s *Server) readmePage(c fiber.Ctx) error {
	body, err := renderReadme(s.opts.ReadmePath)
	if err != nil {
		s.logger.Warn(c.Context(), "readme unavailable", "path", s.opts.ReadmePath, "error", err)
	}
	return s.render(c, http.StatusOK, "readme", pageData{Title: "Read me", Page: body})
}

func (s *Server) logout(c fiber.Ctx) error {
	err := sessionOf(c).Clear(c.Context())
	if err != nil {
		s.logger.Warn(c.Context(), "sign-out incomplete", "error", err)
	}
	target, ok := navigation(c)
	if !ok {
		target = routes.Login
	}
	return c.Redirect().To(target)
}

// syncHook appends the source rows and answers with a fixed message. With a
// hook token configured, callers need the token or a signed-in session.
func (s *Server) syncHook(c fiber.Ctx) error {
	ctx := c.Context()
	if s.opts.SyncHookToken != "" && sessionOf(c).Status().State != session.SignedIn {
		got := c.Get(common.SyncTokenHeaderName)
		if got == "" {
			got = c.Query("token")
		}
		if subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got)), []byte(s.opts.SyncHookToken)) != 1 {
			return c.Status(http.StatusUnauthorized).SendString(http.StatusText(http.StatusUnauthorized))
		}
	}

	keys, err := s.syncer.Trigger(ctx)
	if err != nil {
		s.logger.Error(ctx, "sync hook failed", "error", err)
		return c.Status(http.StatusInternalServerError).SendString(syncFailedMessage)
	}
	s.logger.Info(ctx, "sync hook", "appended", len(keys))
	return c.Status(http.StatusOK).SendString(syncOKMessage)
}
