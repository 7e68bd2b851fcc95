package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/sheetsync/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/dbx"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/session"
)

// Pending is a first sign-in waiting for its registration.
type Pending struct {
	Token string           `json:"token"`
	User  identity.Payload `json:"user"`
}

// MetadataStore is the terminal client's session.Store. The identity payload,
// the session token and any pending registration live in the metadata table.
type MetadataStore struct {
	db *sql.DB
}

func NewMetadataStore(db *sql.DB) *MetadataStore {
	return &MetadataStore{db: db}
}

func (s *MetadataStore) repo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// Load returns the stored payload. Malformed state is cleared and reported
// as no session.
func (s *MetadataStore) Load(ctx context.Context) (*identity.Payload, error) {
	raw, err := s.repo().Get(ctx, metadata.KeySession)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	p, err := session.Unmarshal(raw)
	if err != nil {
		if err := s.Clear(ctx); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return p, nil
}

func (s *MetadataStore) Save(ctx context.Context, p identity.Payload) error {
	raw, err := session.Marshal(p)
	if err != nil {
		return err
	}
	return s.repo().Set(ctx, metadata.KeySession, raw)
}

// Clear drops the payload, the session token and any pending registration.
func (s *MetadataStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Delete(ctx, metadata.KeySession, metadata.KeySessionToken, metadata.KeyPending)
	})
}

func (s *MetadataStore) Token(ctx context.Context) (string, error) {
	raw, err := s.repo().Get(ctx, metadata.KeySessionToken)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *MetadataStore) SetToken(ctx context.Context, token string) error {
	return s.repo().Set(ctx, metadata.KeySessionToken, []byte(token))
}

func (s *MetadataStore) DeleteToken(ctx context.Context) error {
	return s.repo().Delete(ctx, metadata.KeySessionToken)
}

// Pending returns the stored pending registration, or nil.
func (s *MetadataStore) Pending(ctx context.Context) (*Pending, error) {
	raw, err := s.repo().Get(ctx, metadata.KeyPending)
	if err != nil || raw == nil {
		return nil, err
	}
	var p Pending
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: pending registration: %v", common.ErrDecode, err)
	}
	return &p, nil
}

func (s *MetadataStore) SetPending(ctx context.Context, p Pending) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.repo().Set(ctx, metadata.KeyPending, raw)
}

func (s *MetadataStore) ClearPending(ctx context.Context) error {
	return s.repo().Delete(ctx, metadata.KeyPending)
}

var _ session.Store = (*MetadataStore)(nil)
