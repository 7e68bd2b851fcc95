package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/server/models"
	"github.com/dmitrijs2005/sheetsync/internal/server/repositories/repomanager"
)

// DirectoryService is the user directory.
type DirectoryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDirectoryService(db *sql.DB, m repomanager.RepositoryManager) *DirectoryService {
	return &DirectoryService{db: db, repomanager: m}
}

// FindByEmail returns common.ErrNotFound when nobody has that exact email.
func (s *DirectoryService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repomanager.Users(s.db).FindByEmail(ctx, email)
}

// UpsertOnSignIn refreshes an existing user. common.ErrNotFound means the
// caller should route to registration.
func (s *DirectoryService) UpsertOnSignIn(ctx context.Context, p identity.Payload, now time.Time) (*models.User, error) {
	return s.repomanager.Users(s.db).UpsertOnSignIn(ctx, p, now)
}

func (s *DirectoryService) List(ctx context.Context) ([]*models.User, error) {
	return s.repomanager.Users(s.db).List(ctx)
}
