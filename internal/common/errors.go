// Package common defines sentinel errors, error kinds and constants shared by
// the server, the terminal client and the library packages. Callers should
// use errors.Is to match sentinel values and KindOf to classify an error.
package common

import (
	"context"
	"errors"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Identity token errors.
	ErrDecode     = errors.New("malformed identity token")
	ErrPermission = errors.New("permission denied")

	// Input errors.
	ErrValidation = errors.New("validation error")

	// Transport errors.
	ErrNetwork = errors.New("network error")

	ErrInternal = errors.New("internal error")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// Kind is the closed set of error categories surfaced to callers.
type Kind string

const (
	KindDecode     Kind = "decode"
	KindNetwork    Kind = "network"
	KindPermission Kind = "permission"
	KindNotFound   Kind = "not-found"
	KindConflict   Kind = "conflict"
	KindValidation Kind = "validation"
	KindInternal   Kind = "internal"
)

// KindOf classifies err. A nil error has no kind and yields "".
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrPermission),
		errors.Is(err, ErrInvalidToken),
		errors.Is(err, ErrTokenExpired):
		return KindPermission
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrNetwork),
		errors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	default:
		return KindInternal
	}
}

// Sentinel returns the representative error of k, so a kind received over
// the wire can be matched with errors.Is again.
func (k Kind) Sentinel() error {
	switch k {
	case KindDecode:
		return ErrDecode
	case KindNetwork:
		return ErrNetwork
	case KindPermission:
		return ErrPermission
	case KindNotFound:
		return ErrNotFound
	case KindConflict:
		return ErrConflict
	case KindValidation:
		return ErrValidation
	default:
		return ErrInternal
	}
}
