// Package services holds the server's use cases: the user directory, the
// sign-in flow, registration and the sync trigger. Transports (web, grpc)
// call into these and map errors with common.KindOf.
package services

import (
	"time"

	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/server/auth"
	"github.com/dmitrijs2005/sheetsync/internal/server/config"
)

// Tokens issues and checks session and pending-registration tokens.
type Tokens struct {
	secret     []byte
	sessionTTL time.Duration
	pendingTTL time.Duration
}

func NewTokens(cfg *config.Config) *Tokens {
	return &Tokens{
		secret:     []byte(cfg.SessionSecret),
		sessionTTL: cfg.SessionTTL,
		pendingTTL: cfg.PendingTTL,
	}
}

func (t *Tokens) SessionTTL() time.Duration { return t.sessionTTL }
func (t *Tokens) PendingTTL() time.Duration { return t.pendingTTL }

func (t *Tokens) IssueSession(p identity.Payload) (string, error) {
	return auth.GenerateToken(p, auth.PurposeSession, t.secret, t.sessionTTL)
}

func (t *Tokens) ParseSession(token string) (identity.Payload, error) {
	return auth.ParseToken(token, auth.PurposeSession, t.secret)
}

func (t *Tokens) IssuePending(p identity.Payload) (string, error) {
	return auth.GenerateToken(p, auth.PurposePending, t.secret, t.pendingTTL)
}

func (t *Tokens) ParsePending(token string) (identity.Payload, error) {
	return auth.ParseToken(token, auth.PurposePending, t.secret)
}
