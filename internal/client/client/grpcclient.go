package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/mirror"
	"github.com/dmitrijs2005/sheetsync/internal/rpc"
)

type GRPCClient struct {
	endpointURL string
	timeout     time.Duration
	conn        *grpc.ClientConn
	client      rpc.DashboardClient

	mu           sync.RWMutex
	sessionToken string
}

func withSessionToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.SessionTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionToken
}

// SetSessionToken replaces the token sent with every following call. An
// empty token sends none.
func (s *GRPCClient) SetSessionToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionToken = token
}

func (s *GRPCClient) sessionTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return invoker(withSessionToken(ctx, s.token()), method, req, reply, cc, opts...)
}

func (s *GRPCClient) sessionTokenStreamInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	return streamer(withSessionToken(ctx, s.token()), desc, cc, method, opts...)
}

// NewGRPCClient connects lazily to endpointURL. timeout bounds each unary
// call; streams are bounded only by their context. Extra dial options are
// appended after the defaults.
func NewGRPCClient(endpointURL string, timeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, timeout: timeout}

	dial := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.sessionTokenInterceptor),
		grpc.WithStreamInterceptor(c.sessionTokenStreamInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dial...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = rpc.NewDashboardClient(conn)
	return c, nil
}

func (s *GRPCClient) SignIn(ctx context.Context, credential string) (rpc.SignInReply, error) {
	resp, err := s.client.SignIn(ctx, wrapperspb.String(credential))
	if err != nil {
		return rpc.SignInReply{}, s.mapError(err)
	}
	return rpc.DecodeSignInReply(resp)
}

func (s *GRPCClient) Register(ctx context.Context, req rpc.RegisterRequest) (rpc.RegisterReply, error) {
	in, err := req.Struct()
	if err != nil {
		return rpc.RegisterReply{}, err
	}

	resp, err := s.client.Register(ctx, in)
	if err != nil {
		return rpc.RegisterReply{}, s.mapError(err)
	}
	return rpc.DecodeRegisterReply(resp)
}

// Sync triggers one append on the server and returns how many rows it wrote.
func (s *GRPCClient) Sync(ctx context.Context) (int, error) {
	resp, err := s.client.Sync(ctx, &emptypb.Empty{})
	if err != nil {
		return 0, s.mapError(err)
	}
	return rpc.DecodeSyncReply(resp), nil
}

// Watch subscribes to collection and calls fn with every snapshot or
// failure the server pushes. It blocks until ctx is done, returning nil, or
// the stream breaks.
func (s *GRPCClient) Watch(ctx context.Context, collection string, fn func(mirror.Snapshot, error)) error {
	stream, err := s.client.Watch(ctx, wrapperspb.String(collection))
	if err != nil {
		return s.mapError(err)
	}

	for {
		msg, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				return nil
			}
			return s.mapError(err)
		}
		fn(rpc.DecodeWatchMessage(msg))
	}
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("rpc error: %w", err)
	}
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.FailedPrecondition:
		return fmt.Errorf("%w: %s", common.ErrDecode, st.Message())
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", common.ErrValidation, st.Message())
	case codes.NotFound:
		return fmt.Errorf("%w: %s", common.ErrNotFound, st.Message())
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %s", common.ErrConflict, st.Message())
	default:
		return fmt.Errorf("%w: %s", common.ErrInternal, st.Message())
	}
}
