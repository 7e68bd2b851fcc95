// Package cli provides the interactive sheetsync terminal client.
//
// It wires configuration, the local session database, the API services and
// a read-eval-print loop. The session is resumed from the local database on
// start; views that need a signed-in user are gated the same way the web
// pages are.
//
// Commands:
//   - login [id-token]: sign in with a Google ID token
//   - register: finish a first sign-in or add a registration record
//   - logout, whoami
//   - watch [collection]: live table of a collection until Ctrl-C
//   - sync: append one copy of the spreadsheet to the sync collection
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
