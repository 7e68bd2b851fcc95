package records

import (
	"context"

	"github.com/dmitrijs2005/sheetsync/internal/mirror"
	"github.com/dmitrijs2005/sheetsync/internal/server/models"
)

// Repository stores named append-only collections.
type Repository interface {
	Append(ctx context.Context, rec *models.Record) error
	Snapshot(ctx context.Context, collection string) (mirror.Snapshot, error)
	Count(ctx context.Context, collection string) (int, error)
}
