package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/dbx"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/logging"
	"github.com/dmitrijs2005/sheetsync/internal/server/models"
	"github.com/dmitrijs2005/sheetsync/internal/server/repositories/repomanager"
)

// RegisterInput is the registration form. Pending is the identity carried
// over from a first-time sign-in, if any.
type RegisterInput struct {
	Name    string
	Email   string
	Pending *identity.Payload
}

// RegisterResult reports the appended demo record and, when a pending
// identity was present, the created user and its session.
type RegisterResult struct {
	Key          string
	User         *models.User
	Payload      *identity.Payload
	SessionToken string
}

type RegistrationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *Tokens
	collection  string
	log         logging.Logger
	now         func() time.Time
}

func NewRegistrationService(db *sql.DB, m repomanager.RepositoryManager, t *Tokens, collection string, log logging.Logger) *RegistrationService {
	return &RegistrationService{
		db:          db,
		repomanager: m,
		tokens:      t,
		collection:  collection,
		log:         log.With("module", "registration"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Register appends {name, email, timestamp} to the registration collection.
// With a pending identity it also creates the user in the same transaction,
// so a duplicate email leaves nothing behind and yields common.ErrConflict.
func (s *RegistrationService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", common.ErrValidation)
	}

	now := s.now()
	res := &RegisterResult{}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		rec := &models.Record{
			Collection: s.collection,
			Data: map[string]any{
				"name":      name,
				"email":     email,
				"timestamp": now.UnixMilli(),
			},
			CreatedAt: now,
		}
		if err := s.repomanager.Records(tx).Append(ctx, rec); err != nil {
			return err
		}
		res.Key = rec.Key

		if in.Pending == nil {
			return nil
		}
		user, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			Email:     in.Pending.Email,
			Name:      name,
			Picture:   in.Pending.Picture,
			GoogleID:  in.Pending.Sub,
			CreatedAt: now,
			LastLogin: now,
		})
		if err != nil {
			return err
		}
		res.User = user
		return nil
	})
	if err != nil {
		s.log.Warn(ctx, "registration failed", "email", email, "error", err)
		return nil, err
	}

	if res.User != nil {
		p := identity.Payload{Email: res.User.Email, Name: res.User.Name, Picture: res.User.Picture, Sub: res.User.GoogleID}
		token, err := s.tokens.IssueSession(p)
		if err != nil {
			return nil, fmt.Errorf("issue session: %w", err)
		}
		res.Payload = &p
		res.SessionToken = token
	}

	s.log.Info(ctx, "registered", "email", email, "key", res.Key, "user_created", res.User != nil)
	return res, nil
}
