package realtime

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PgSource listens on a PostgreSQL NOTIFY channel. The notification payload
// is the changed collection name.
type PgSource struct {
	conn *pgx.Conn
}

// ListenPostgres opens a dedicated connection and issues LISTEN channel.
func ListenPostgres(ctx context.Context, dsn, channel string) (*PgSource, error) {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	return &PgSource{conn: conn}, nil
}

func (p *PgSource) Next(ctx context.Context) (string, error) {
	n, err := p.conn.WaitForNotification(ctx)
	if err != nil {
		return "", err
	}
	return n.Payload, nil
}

func (p *PgSource) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}
