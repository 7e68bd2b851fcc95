package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/server/models"
)

// Repository is the user directory.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpsertOnSignIn(ctx context.Context, p identity.Payload, now time.Time) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
}
