package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context, args []string) error
	Register(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	Watch(ctx context.Context, args []string) error
	Sync(ctx context.Context) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command and dispatches it to a. The loop exits on scanner EOF or when the
// user types "exit" or "quit".
//
//	Signed out:
//	  - login [token]  sign in with a Google ID token
//	  - register       finish a first sign-in, or add a registration
//	  - watch registrations
//
//	Signed in:
//	  - whoami, logout
//	  - watch [name]   live table of a collection
//	  - sync           append one copy of the spreadsheet
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("sheetsync %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami, watch [collection], sync, logout, exit")
			} else {
				printlnFn("Available commands: login [token], register, watch registrations, exit")
			}

		case "login":
			_ = a.Login(ctx, args)

		case "register":
			_ = a.Register(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "whoami":
			_ = a.WhoAmI(ctx)

		case "watch", "w":
			_ = a.Watch(ctx, args)

		case "sync":
			_ = a.Sync(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
