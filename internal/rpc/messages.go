package rpc

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/sheetsync/internal/common"
	"github.com/dmitrijs2005/sheetsync/internal/identity"
	"github.com/dmitrijs2005/sheetsync/internal/mirror"
)

// Field names used in Struct messages.
const (
	FieldOutcome      = "outcome"
	FieldUser         = "user"
	FieldSessionToken = "session_token"
	FieldPendingToken = "pending_token"
	FieldName         = "name"
	FieldEmail        = "email"
	FieldKey          = "key"
	FieldAppended     = "appended"
	FieldKeys         = "keys"
	FieldSnapshot     = "snapshot"
	FieldFailure      = "failure"
	FieldKind         = "kind"
	FieldMessage      = "message"
)

const (
	OutcomeExisting = "existing"
	OutcomeNewUser  = "new_user"
)

var errBadMessage = fmt.Errorf("%w: malformed message", common.ErrDecode)

func PayloadMap(p identity.Payload) map[string]any {
	return map[string]any{
		"email":   p.Email,
		"name":    p.Name,
		"picture": p.Picture,
		"sub":     p.Sub,
	}
}

// PayloadFrom reads a payload written by PayloadMap. Missing fields stay empty.
func PayloadFrom(v any) (identity.Payload, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return identity.Payload{}, errBadMessage
	}
	str := func(k string) string {
		s, _ := m[k].(string)
		return s
	}
	return identity.Payload{Email: str("email"), Name: str("name"), Picture: str("picture"), Sub: str("sub")}, nil
}

// SignInReply is the decoded SignIn response.
type SignInReply struct {
	Outcome      string
	User         identity.Payload
	SessionToken string
	PendingToken string
}

func (r SignInReply) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldOutcome:      r.Outcome,
		FieldUser:         PayloadMap(r.User),
		FieldSessionToken: r.SessionToken,
		FieldPendingToken: r.PendingToken,
	})
}

func DecodeSignInReply(s *structpb.Struct) (SignInReply, error) {
	m := s.AsMap()
	user, err := PayloadFrom(m[FieldUser])
	if err != nil {
		return SignInReply{}, err
	}
	r := SignInReply{User: user}
	r.Outcome, _ = m[FieldOutcome].(string)
	r.SessionToken, _ = m[FieldSessionToken].(string)
	r.PendingToken, _ = m[FieldPendingToken].(string)
	if r.Outcome != OutcomeExisting && r.Outcome != OutcomeNewUser {
		return SignInReply{}, errBadMessage
	}
	return r, nil
}

// RegisterRequest is the Register input. PendingToken may be empty.
type RegisterRequest struct {
	Name         string
	Email        string
	PendingToken string
}

func (r RegisterRequest) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldName:         r.Name,
		FieldEmail:        r.Email,
		FieldPendingToken: r.PendingToken,
	})
}

func DecodeRegisterRequest(s *structpb.Struct) RegisterRequest {
	m := s.AsMap()
	var r RegisterRequest
	r.Name, _ = m[FieldName].(string)
	r.Email, _ = m[FieldEmail].(string)
	r.PendingToken, _ = m[FieldPendingToken].(string)
	return r
}

// RegisterReply carries the demo record key and, when a user was created, its
// session.
type RegisterReply struct {
	Key          string
	User         *identity.Payload
	SessionToken string
}

func (r RegisterReply) Struct() (*structpb.Struct, error) {
	m := map[string]any{FieldKey: r.Key, FieldSessionToken: r.SessionToken}
	if r.User != nil {
		m[FieldUser] = PayloadMap(*r.User)
	}
	return structpb.NewStruct(m)
}

func DecodeRegisterReply(s *structpb.Struct) (RegisterReply, error) {
	m := s.AsMap()
	var r RegisterReply
	r.Key, _ = m[FieldKey].(string)
	r.SessionToken, _ = m[FieldSessionToken].(string)
	if u, ok := m[FieldUser]; ok {
		p, err := PayloadFrom(u)
		if err != nil {
			return RegisterReply{}, err
		}
		r.User = &p
	}
	return r, nil
}

func SyncReply(keys []string) (*structpb.Struct, error) {
	list := make([]any, len(keys))
	for i, k := range keys {
		list[i] = k
	}
	return structpb.NewStruct(map[string]any{FieldAppended: len(keys), FieldKeys: list})
}

// DecodeSyncReply returns the number of appended rows.
func DecodeSyncReply(s *structpb.Struct) int {
	n, _ := s.AsMap()[FieldAppended].(float64)
	return int(n)
}

// SnapshotMessage wraps a full collection snapshot for the Watch stream.
func SnapshotMessage(snap mirror.Snapshot) (*structpb.Struct, error) {
	m := make(map[string]any, len(snap))
	for k, fields := range snap {
		m[k] = map[string]any(fields)
	}
	return structpb.NewStruct(map[string]any{FieldSnapshot: m})
}

// FailureMessage reports a subscription error without ending the stream.
func FailureMessage(err error) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		FieldFailure: map[string]any{
			FieldKind:    string(common.KindOf(err)),
			FieldMessage: err.Error(),
		},
	})
}

// WatchError is a failure received on the Watch stream.
type WatchError struct {
	Kind    common.Kind
	Message string
}

func (e *WatchError) Error() string { return e.Message }

func (e *WatchError) Unwrap() error { return e.Kind.Sentinel() }

// DecodeWatchMessage returns the snapshot, or the failure as a *WatchError.
func DecodeWatchMessage(s *structpb.Struct) (mirror.Snapshot, error) {
	m := s.AsMap()
	if f, ok := m[FieldFailure].(map[string]any); ok {
		kind, _ := f[FieldKind].(string)
		msg, _ := f[FieldMessage].(string)
		return nil, &WatchError{Kind: common.Kind(kind), Message: msg}
	}

	raw, ok := m[FieldSnapshot].(map[string]any)
	if !ok {
		return nil, errBadMessage
	}
	snap := make(mirror.Snapshot, len(raw))
	for k, v := range raw {
		fields, ok := v.(map[string]any)
		if !ok {
			return nil, errors.Join(errBadMessage, fmt.Errorf("record %q is not an object", k))
		}
		snap[k] = fields
	}
	return snap, nil
}
