// Package client contains client-side building blocks for sevr.
//
// # Overview
//
// The package provides:
//  1. A transport contract (see the Client interface) for the sevr REST API:
//     one-time code login, token refresh and logout, the encrypted vault
//     endpoints and account management.
//  2. An HTTP implementation (see HTTPClient) that keeps the access and
//     refresh tokens, sends the bearer header, transparently refreshes an
//     expired access token once per call and maps responses to errors.
//  3. Local persistence bootstrap (InitDatabase, RunMigrations) for the CLI,
//     opening an SQLite database and applying embedded goose migrations.
//
// # Error Handling
//
// Common conditions are exposed as sentinel errors matched with errors.Is:
// ErrUnavailable, ErrUnauthorized, ErrIncorrectPassword and friends. Server
// error bodies surface as *APIError.
package client
