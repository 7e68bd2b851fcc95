package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/logging"
	"github.com/dmitrijs2005/sheetsync/internal/server/models"
)

// SignInFailedMessage is shown for any failure before the directory lookup.
const SignInFailedMessage = common.SignInFailedMessage

// ErrNotConfigured is returned when no Google client ID is set.
var ErrNotConfigured = fmt.Errorf("%w: google sign-in is not configured", common.ErrValidation)

// Outcome tells the caller where to route after a sign-in.
type Outcome int

const (
	// Existing users get a session and go home.
	Existing Outcome = iota
	// NewUser goes to registration with a pending token and no session.
	NewUser
)

// SignInResult carries either a session (Existing) or a pending token (NewUser).
type SignInResult struct {
	Outcome      Outcome
	Payload      identity.Payload
	User         *models.User
	SessionToken string
	PendingToken string
}

// SignInService runs the credential -> identity -> directory flow.
type SignInService struct {
	directory  *DirectoryService
	verifier   identity.Verifier
	tokens     *Tokens
	configured bool
	log        logging.Logger
	now        func() time.Time
}

func NewSignInService(d *DirectoryService, v identity.Verifier, t *Tokens, configured bool, log logging.Logger) *SignInService {
	return &SignInService{
		directory:  d,
		verifier:   v,
		tokens:     t,
		configured: configured,
		log:        log.With("module", "signin"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SignIn verifies credential and looks the user up in one step. There are no
// retries; every failure is returned to the caller.
func (s *SignInService) SignIn(ctx context.Context, credential string) (*SignInResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}

	p, err := s.verifier.Verify(ctx, credential)
	if err != nil {
		s.log.Warn(ctx, "credential rejected", "error", err)
		return nil, err
	}
	if p.Email == "" {
		return nil, fmt.Errorf("%w: identity has no email", common.ErrDecode)
	}

	user, err := s.directory.UpsertOnSignIn(ctx, p, s.now())
	switch {
	case err == nil:
		token, err := s.tokens.IssueSession(p)
		if err != nil {
			return nil, fmt.Errorf("issue session: %w", err)
		}
		s.log.Info(ctx, "sign-in", "email", p.Email, "outcome", "existing")
		return &SignInResult{Outcome: Existing, Payload: p, User: user, SessionToken: token}, nil

	case errors.Is(err, common.ErrNotFound):
		token, err := s.tokens.IssuePending(p)
		if err != nil {
			return nil, fmt.Errorf("issue pending: %w", err)
		}
		s.log.Info(ctx, "sign-in", "email", p.Email, "outcome", "new")
		return &SignInResult{Outcome: NewUser, Payload: p, PendingToken: token}, nil

	default:
		s.log.Error(ctx, "directory lookup failed", "email", p.Email, "error", err)
		return nil, err
	}
}

// Session resolves a session token into its payload.
func (s *SignInService) Session(token string) (identity.Payload, error) {
	return s.tokens.ParseSession(token)
}

// Pending resolves a pending-registration token into its payload.
func (s *SignInService) Pending(token string) (identity.Payload, error) {
	return s.tokens.ParsePending(token)
}
