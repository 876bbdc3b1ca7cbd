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
	Logout(ctx context.Context, args []string) error
	Add(ctx context.Context, args []string) error
	Remove(ctx context.Context, args []string) error
	History(ctx context.Context, args []string) error
	Delete(ctx context.Context, args []string) error
	Status(ctx context.Context, args []string) error
	Goal(ctx context.Context, args []string) error
	Unit(ctx context.Context, args []string) error
	Profile(ctx context.Context, args []string) error
	Theme(ctx context.Context, args []string) error
	Sync(ctx context.Context, args []string) error
	Remind(ctx context.Context, args []string) error
	DeleteAccount(ctx context.Context, args []string) error
}

// runREPL starts a simple read–eval–print loop for the HydroTrack CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches the remaining tokens to methods on 'a'. Unknown
// commands are reported back to the user. The loop exits on scanner EOF or
// when the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                        show available commands
//	  - login <id> [display name]   start a session
//	  - theme                       toggle dark mode
//	  - deleteaccount --resume      finish an interrupted account deletion
//	  - exit | quit                 leave the program
//
//	Logged in:
//	  - add <amount>                record intake in the display unit
//	  - remove <amount>             record a correction
//	  - history                     list records
//	  - delete <recordId>           delete one record
//	  - status                      show today's progress and settings
//	  - goal <ml>                   set the daily goal
//	  - unit <ml|l|cups|bottles>    set the display unit
//	  - profile <name> <email> <phone>
//	  - theme                       toggle dark mode
//	  - sync                        retry pending sync work
//	  - remind                      show the reminder due now
//	  - deleteaccount               delete all data of this account
//	  - logout                      end the session
//	  - exit | quit                 leave the program
//
// Any errors returned by command handlers are ignored here; handlers
// report their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("hydro %s> ", statusFn()))
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
				printlnFn("Available commands: add, remove, history, delete, status, goal, unit, profile, theme, sync, remind, deleteaccount, logout, exit")
			} else {
				printlnFn("Available commands: login, theme, deleteaccount --resume, exit")
			}

		case "login":
			_ = a.Login(ctx, args)

		case "logout":
			_ = a.Logout(ctx, args)

		case "add":
			_ = a.Add(ctx, args)

		case "remove":
			_ = a.Remove(ctx, args)

		case "history":
			_ = a.History(ctx, args)

		case "delete":
			_ = a.Delete(ctx, args)

		case "status":
			_ = a.Status(ctx, args)

		case "goal":
			_ = a.Goal(ctx, args)

		case "unit":
			_ = a.Unit(ctx, args)

		case "profile":
			_ = a.Profile(ctx, args)

		case "theme":
			_ = a.Theme(ctx, args)

		case "sync":
			_ = a.Sync(ctx, args)

		case "remind":
			_ = a.Remind(ctx, args)

		case "deleteaccount":
			_ = a.DeleteAccount(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
