// Package cli provides the interactive stockkeeper command-line client.
//
// It wires configuration, local storage, the API client and services, and an
// interactive REPL. Typical flow: verify a saved session, start a background
// connectivity watcher, and execute user commands.
//
// Key features:
//   - Login / Register / Logout, with the session kept across restarts
//   - Dashboard with stock statistics
//   - Catalogue: list and create categories, suppliers and products; set stock
//   - Cart and checkout; order listing, cancellation and completion
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App, StartOnlineStatusWatcher, and runREPL for details.
package cli
