// Package cli is the interactive sevr client.
//
// A session is started with an emailed one-time code and resumed on the
// next run from the cached refresh token. The vault is unlocked with a
// password that never leaves the process; the tracked services list is
// encrypted before it is sent.
//
// The REPL is started with App.Run and blocks until the user exits.
package cli
