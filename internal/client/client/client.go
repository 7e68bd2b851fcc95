package client

import (
	"context"

	"github.com/dmitrijs2005/sheetsync/internal/mirror"
	"github.com/dmitrijs2005/sheetsync/internal/rpc"
)

type Client interface {
	Close() error
	SetSessionToken(token string)
	SignIn(ctx context.Context, credential string) (rpc.SignInReply, error)
	Register(ctx context.Context, req rpc.RegisterRequest) (rpc.RegisterReply, error)
	Sync(ctx context.Context) (int, error)
	Watch(ctx context.Context, collection string, fn func(mirror.Snapshot, error)) error
}
