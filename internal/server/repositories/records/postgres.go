// Package records keeps collections of JSON rows in one PostgreSQL table.
// Every insert fires a records_changed notification carrying the
// collection name.
package records

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/dbx"
	"github.com/dmitrijs2005/sheetsync/internal/mirror"
	"github.com/dmitrijs2005/sheetsync/internal/server/models"
)

// ChangeChannel is the LISTEN/NOTIFY channel fired on insert.
const ChangeChannel = "records_changed"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append stores rec. An empty Key is replaced by a time-ordered UUID and a
// zero CreatedAt by the current time.
func (r *PostgresRepository) Append(ctx context.Context, rec *models.Record) error {
	if rec.Collection == "" {
		return fmt.Errorf("%w: collection is required", common.ErrValidation)
	}
	if rec.Key == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generate key: %w", err)
		}
		rec.Key = id.String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	if rec.Data == nil {
		rec.Data = map[string]any{}
	}
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	query :=
		`INSERT INTO records (collection, key, data, created_at)
		 VALUES ($1, $2, $3, $4)
		 `
	if _, err := r.db.ExecContext(ctx, query, rec.Collection, rec.Key, data, rec.CreatedAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Snapshot returns the full contents of collection. An unknown collection is
// an empty snapshot.
func (r *PostgresRepository) Snapshot(ctx context.Context, collection string) (mirror.Snapshot, error) {
	query :=
		`SELECT key, data FROM records
		 WHERE collection = $1
		 ORDER BY created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, collection)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	snap := mirror.Snapshot{}
	for rows.Next() {
		var (
			key  string
			data []byte
		)
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		fields := map[string]any{}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", key, err)
		}
		snap[key] = fields
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return snap, nil
}

func (r *PostgresRepository) Count(ctx context.Context, collection string) (int, error) {
	query := `SELECT COUNT(*) FROM records WHERE collection = $1`

	var n int
	if err := r.db.QueryRowContext(ctx, query, collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
