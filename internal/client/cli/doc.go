// Package cli provides the interactive gophwalk command-line client.
//
// It wires configuration, local storage, the identity client and the session
// service, restores the previous session, and runs a REPL whose lines are
// dispatched through a cobra command tree.
//
// Commands: guest, leave-guest, register, login, logout, delete-account,
// reset, whoami, profile, data get, data put, exit.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits
// or input ends.
package cli
