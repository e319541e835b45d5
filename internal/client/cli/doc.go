// Package cli is the interactive eventplanner terminal client.
//
// It drives the two-step login (password, then emailed code), account
// registration and activation, token refresh, profile lookup and logout
// against the HTTP API. The session lives on App and is passed to every API
// call. Passwords are read without echo and wiped after use.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
