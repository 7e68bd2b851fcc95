// Package services contains application services for the sheetsync terminal
// client. This file defines the authentication service: Google sign-in,
// registration of first-time users, logout and session resume.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sheetsync/internal/client/client"
	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/rpc"
	"github.com/dmitrijs2005/sheetsync/internal/session"
)

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Resume: restore the persisted session and its token.
//   - Login: exchange a Google ID token; a first-time user gets a pending
//     registration instead of a session.
//   - Pending: the pending registration, used to prefill Register.
//   - Register: submit the registration form.
//   - Logout: drop the session and navigate to the sign-in view.
type AuthService interface {
	Session() *session.Context
	Resume(ctx context.Context) (*identity.Payload, error)
	Login(ctx context.Context, credential string) (rpc.SignInReply, error)
	Pending(ctx context.Context) (*Pending, error)
	Register(ctx context.Context, name, email string) (rpc.RegisterReply, error)
	Logout(ctx context.Context) error
	Close(ctx context.Context) error
}

type authService struct {
	client client.Client
	store  *MetadataStore
	sc     *session.Context
}

// NewAuthService binds the API client to the session stored in db. nav
// receives the sign-in view on logout.
func NewAuthService(c client.Client, db *sql.DB, nav session.Navigator) AuthService {
	store := NewMetadataStore(db)
	return &authService{
		client: c,
		store:  store,
		sc:     session.NewContext(store, session.NopProvider{}, nav),
	}
}

func (a *authService) Session() *session.Context {
	return a.sc
}

// Resume loads the stored session. A payload without a token is dropped.
func (a *authService) Resume(ctx context.Context) (*identity.Payload, error) {
	p, err := a.sc.Load(ctx)
	if err != nil || p == nil {
		return nil, err
	}

	token, err := a.store.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		if err := a.sc.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}

	a.client.SetSessionToken(token)
	return p, nil
}

func (a *authService) Login(ctx context.Context, credential string) (rpc.SignInReply, error) {
	reply, err := a.client.SignIn(ctx, credential)
	if err != nil {
		return rpc.SignInReply{}, fmt.Errorf("sign in: %w", err)
	}

	switch reply.Outcome {
	case rpc.OutcomeNewUser:
		if err := a.store.SetPending(ctx, Pending{Token: reply.PendingToken, User: reply.User}); err != nil {
			return rpc.SignInReply{}, err
		}
	default:
		if err := a.establish(ctx, reply.User, reply.SessionToken); err != nil {
			return rpc.SignInReply{}, err
		}
	}
	return reply, nil
}

func (a *authService) Pending(ctx context.Context) (*Pending, error) {
	return a.store.Pending(ctx)
}

// Register submits the form. With a pending registration the server also
// creates the user and the reply carries a session, which is established.
func (a *authService) Register(ctx context.Context, name, email string) (rpc.RegisterReply, error) {
	req := rpc.RegisterRequest{Name: name, Email: email}

	pending, err := a.store.Pending(ctx)
	if err != nil && !errors.Is(err, common.ErrDecode) {
		return rpc.RegisterReply{}, err
	}
	if pending != nil {
		req.PendingToken = pending.Token
	}

	reply, err := a.client.Register(ctx, req)
	if err != nil {
		return rpc.RegisterReply{}, fmt.Errorf("register: %w", err)
	}

	if reply.User != nil && reply.SessionToken != "" {
		if err := a.establish(ctx, *reply.User, reply.SessionToken); err != nil {
			return rpc.RegisterReply{}, err
		}
	}
	return reply, nil
}

func (a *authService) establish(ctx context.Context, p identity.Payload, token string) error {
	if err := a.store.SetToken(ctx, token); err != nil {
		return err
	}
	if err := a.sc.Save(ctx, p); err != nil {
		return errors.Join(err, a.store.DeleteToken(ctx))
	}
	a.client.SetSessionToken(token)
	return a.store.ClearPending(ctx)
}

func (a *authService) Logout(ctx context.Context) error {
	a.client.SetSessionToken("")
	return a.sc.Clear(ctx)
}

func (a *authService) Close(ctx context.Context) error {
	return a.client.Close()
}
