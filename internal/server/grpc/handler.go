package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/rpc"
	"github.com/dmitrijs2005/sheetsync/internal/server/services"
)

// CodeFor maps an error kind to a gRPC status code. Every kind gets its own
// code so clients can map it back.
func CodeFor(err error) codes.Code {
	switch common.KindOf(err) {
	case common.KindDecode:
		return codes.FailedPrecondition
	case common.KindValidation:
		return codes.InvalidArgument
	case common.KindPermission:
		return codes.Unauthenticated
	case common.KindNotFound:
		return codes.NotFound
	case common.KindConflict:
		return codes.AlreadyExists
	case common.KindNetwork:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}

func (s *GRPCServer) statusError(ctx context.Context, method string, err error) error {
	code := CodeFor(err)
	if code == codes.Internal {
		s.logger.Error(ctx, "request failed", "method", method, "error", err)
		return status.Error(code, "internal error")
	}
	s.logger.Warn(ctx, "request rejected", "method", method, "error", err)
	return status.Error(code, err.Error())
}

// dashboard implements rpc.DashboardServer.
type dashboard struct {
	s *GRPCServer
}

func (d *dashboard) SignIn(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	res, err := d.s.signin.SignIn(ctx, in.GetValue())
	if err != nil {
		return nil, d.s.statusError(ctx, "SignIn", err)
	}

	reply := rpc.SignInReply{User: res.Payload, SessionToken: res.SessionToken, PendingToken: res.PendingToken}
	switch res.Outcome {
	case services.NewUser:
		reply.Outcome = rpc.OutcomeNewUser
	default:
		reply.Outcome = rpc.OutcomeExisting
	}
	return reply.Struct()
}

func (d *dashboard) Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req := rpc.DecodeRegisterRequest(in)
	input := services.RegisterInput{Name: req.Name, Email: req.Email}

	if req.PendingToken != "" {
		p, err := d.s.signin.Pending(req.PendingToken)
		if err != nil {
			return nil, d.s.statusError(ctx, "Register", err)
		}
		input.Pending = &p
	}

	res, err := d.s.registrar.Register(ctx, input)
	if err != nil {
		return nil, d.s.statusError(ctx, "Register", err)
	}
	return rpc.RegisterReply{Key: res.Key, User: res.Payload, SessionToken: res.SessionToken}.Struct()
}

func (d *dashboard) Sync(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	keys, err := d.s.syncer.Trigger(ctx)
	if err != nil {
		return nil, d.s.statusError(ctx, "Sync", err)
	}
	p, _ := payloadFrom(ctx)
	d.s.logger.Info(ctx, "sync via grpc", "email", p.Email, "appended", len(keys))
	return rpc.SyncReply(keys)
}

// Watch streams the collection until the client goes away. Subscription
// failures are sent as messages and the stream stays open.
func (d *dashboard) Watch(in *wrapperspb.StringValue, stream grpc.ServerStreamingServer[structpb.Struct]) error {
	ctx := stream.Context()
	collection := in.GetValue()
	if collection == "" {
		return status.Error(codes.InvalidArgument, "collection is required")
	}
	if collection != d.s.registrationCollection {
		if _, ok := payloadFrom(ctx); !ok {
			return status.Error(codes.Unauthenticated, "missing token")
		}
	}

	sub, err := d.s.hub.Subscribe(ctx, collection)
	if err != nil {
		return d.s.statusError(ctx, "Watch", err)
	}
	defer sub.Close()

	for {
		var msg *structpb.Struct
		select {
		case snap := <-sub.Updates():
			msg, err = rpc.SnapshotMessage(snap)
		case failure := <-sub.Errors():
			msg, err = rpc.FailureMessage(failure)
		case <-sub.Done():
			return nil
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		}
		if err != nil {
			return d.s.statusError(ctx, "Watch", err)
		}
		if err := stream.Send(msg); err != nil {
			return err
		}
	}
}

var (
	_ rpc.DashboardServer = (*dashboard)(nil)
	_ SignIn              = (*services.SignInService)(nil)
)
