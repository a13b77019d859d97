// Package client contains the device side of the remote identity service
// and the local database bootstrap.
//
// # Overview
//
//  1. IdentityClient is the transport-agnostic contract: SignUp, SignIn,
//     SignOut and ValidateToken.
//  2. GRPCClient implements it over gRPC with structpb payloads (see
//     internal/rpc/identity), per-call deadlines and OpenTelemetry
//     instrumentation.
//  3. InitDatabase and RunMigrations open the SQLite database and apply the
//     embedded goose migrations.
//
// # Error Handling
//
// Transport failures and expired deadlines are reported as ErrUnreachable.
// Explicit refusals are *RejectedError values carrying an HTTP-style status;
// they unwrap to common.ErrDuplicateEmail (409), common.ErrInvalidCredentials
// (401) and common.ErrNotFound (404).
//
// GRPCClient is safe for concurrent use.
package client
