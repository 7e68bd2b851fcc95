package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/rpc"
)

type ctxKey string

const payloadKey ctxKey = "payload"

// payloadFrom returns the signed-in identity attached by the interceptors.
func payloadFrom(ctx context.Context) (identity.Payload, bool) {
	p, ok := ctx.Value(payloadKey).(identity.Payload)
	return p, ok
}

func sessionToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(common.SessionTokenHeaderName)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// authenticate attaches the session identity to ctx when a token is present.
// A present but invalid token is rejected.
func (s *GRPCServer) authenticate(ctx context.Context) (context.Context, error) {
	token := sessionToken(ctx)
	if token == "" {
		return ctx, nil
	}
	p, err := s.signin.Session(token)
	if err != nil {
		return ctx, status.Error(codes.Unauthenticated, "invalid session")
	}
	return context.WithValue(ctx, payloadKey, p), nil
}

func (s *GRPCServer) sessionInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	if info.FullMethod == rpc.SyncMethod {
		if _, ok := payloadFrom(ctx); !ok {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}
	}

	return handler(ctx, req)
}

type sessionStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *sessionStream) Context() context.Context { return s.ctx }

func (s *GRPCServer) sessionStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authenticate(ss.Context())
	if err != nil {
		return err
	}
	return handler(srv, &sessionStream{ServerStream: ss, ctx: ctx})
}
