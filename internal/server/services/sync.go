package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sheetsync/internal/dbx"
	"github.com/dmitrijs2005/sheetsync/internal/logging"
	"github.com/dmitrijs2005/sheetsync/internal/server/models"
	"github.com/dmitrijs2005/sheetsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/sheetsync/internal/server/sources"
)

// SyncService appends the rows of a Source to the sync collection.
type SyncService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	source      sources.Source
	collection  string
	log         logging.Logger
	now         func() time.Time
}

func NewSyncService(db *sql.DB, m repomanager.RepositoryManager, src sources.Source, collection string, log logging.Logger) *SyncService {
	return &SyncService{
		db:          db,
		repomanager: m,
		source:      src,
		collection:  collection,
		log:         log.With("module", "sync"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *SyncService) Collection() string { return s.collection }

// Trigger appends every source row with a server-assigned key and a
// createdAt stamp. Either all rows are appended or none.
func (s *SyncService) Trigger(ctx context.Context) ([]string, error) {
	rows, err := s.source.Rows(ctx)
	if err != nil {
		s.log.Error(ctx, "sync source failed", "error", err)
		return nil, fmt.Errorf("sync source: %w", err)
	}

	keys := make([]string, 0, len(rows))
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Records(tx)
		for _, row := range rows {
			now := s.now()
			data := make(map[string]any, len(row)+1)
			for k, v := range row {
				data[k] = v
			}
			data["createdAt"] = now.Format(time.RFC3339Nano)

			rec := &models.Record{Collection: s.collection, Data: data, CreatedAt: now}
			if err := repo.Append(ctx, rec); err != nil {
				return err
			}
			keys = append(keys, rec.Key)
		}
		return nil
	})
	if err != nil {
		s.log.Error(ctx, "sync append failed", "collection", s.collection, "error", err)
		return nil, err
	}

	s.log.Info(ctx, "sync appended", "collection", s.collection, "rows", len(keys))
	return keys, nil
}
