// Package client contains the terminal client's building blocks.
//
// # Overview
//
// The package provides:
//  1. The Client contract used by the client services: SignIn, Register,
//     Sync and Watch against the dashboard server.
//  2. GRPCClient, a gRPC implementation that attaches the session token to
//     every call and maps status codes back to the common error sentinels.
//  3. InitDatabase and RunMigrations, which open the local SQLite file and
//     apply the embedded goose migrations.
//
// # Error Handling
//
// ErrUnavailable wraps common.ErrNetwork and ErrUnauthorized wraps
// common.ErrPermission, so callers can classify any returned error with
// common.KindOf.
package client
