// Package client contains client-side building blocks for Qrypto Vault.
//
// # Overview
//
// The package provides:
//  1. A transport-agnostic API contract (see the Client interface) to talk
//     to the backend: Login/Signup, uniqueness checks, the block list,
//     upload and download.
//  2. A concrete HTTP implementation (see HTTPClient) that applies a
//     per-request timeout, tags requests with an X-Request-ID, decodes the
//     several login response shapes the backend has used, and normalizes
//     failures into the error taxonomy below.
//  3. Local persistence bootstrap utilities (InitDatabase, RunMigrations)
//     wiring an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Every remote failure matches ErrRequest. Finer conditions are exposed as
// sentinels callers match with errors.Is: ErrUnavailable (network, timeout),
// ErrUnauthorized (401/403), ErrConflict (409 or a failed uniqueness check),
// ErrMalformedResponse (unusable 2xx body). Non-2xx replies are *APIError
// values carrying the server's message.
//
// Concurrency & Contexts
//
// HTTPClient is safe for concurrent use. All operations accept
// context.Context and honor cancellation.
package client
