// Package grpc is the gRPC surface used by the terminal client.
package grpc

import (
	"context"
	"net"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/logging"
	"github.com/dmitrijs2005/sheetsync/internal/rpc"
	"github.com/dmitrijs2005/sheetsync/internal/server/realtime"
	"github.com/dmitrijs2005/sheetsync/internal/server/services"
)

type SignIn interface {
	SignIn(ctx context.Context, credential string) (*services.SignInResult, error)
	Session(token string) (identity.Payload, error)
	Pending(token string) (identity.Payload, error)
}

type Registrar interface {
	Register(ctx context.Context, in services.RegisterInput) (*services.RegisterResult, error)
}

type Syncer interface {
	Trigger(ctx context.Context) ([]string, error)
}

type Subscriber interface {
	Subscribe(ctx context.Context, collection string) (*realtime.Subscription, error)
}

type GRPCServer struct {
	address                string
	signin                 SignIn
	registrar              Registrar
	syncer                 Syncer
	hub                    Subscriber
	registrationCollection string
	logger                 logging.Logger
}

func NewGRPCServer(a string, l logging.Logger, si SignIn, r Registrar, sy Syncer, hub Subscriber, registrationCollection string) *GRPCServer {
	return &GRPCServer{
		address:                a,
		signin:                 si,
		registrar:              r,
		syncer:                 sy,
		hub:                    hub,
		registrationCollection: registrationCollection,
		logger:                 l.With("module", "grpc_server"),
	}
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.sessionInterceptor),
		grpc.ChainStreamInterceptor(s.sessionStreamInterceptor),
	)
	rpc.RegisterDashboardServer(srv, &dashboard{s: s})

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
