package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printFn and printlnFn are test seams for REPL output.
var (
	printFn   = fmt.Print
	printlnFn = fmt.Println
)

// execIface is the command surface the REPL drives. App implements it.
type execIface interface {
	isLoggedIn() bool
	isUnlocked() bool

	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Whoami(ctx context.Context) error
	DeleteAccount(ctx context.Context) error

	Unlock(ctx context.Context) error
	Recover(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Reset(ctx context.Context) error
	Lock(ctx context.Context) error

	List(ctx context.Context) error
	Add(ctx context.Context) error
	Toggle(ctx context.Context, field, ref string) error
	Remove(ctx context.Context, ref string) error
}

func helpText(a execIface) string {
	switch {
	case !a.isLoggedIn():
		return "Available commands: login, exit"
	case !a.isUnlocked():
		return "Available commands: unlock, recover, reset, whoami, logout, delete-account, exit"
	default:
		return "Available commands: (l)ist, add, migrated <id>, ignore <id>, important <id>, remove <id>, passwd, lock, reset, whoami, logout, delete-account, exit"
	}
}

// runREPL reads commands from reader until EOF or exit. Handler errors are
// printed and the loop goes on.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printFn(fmt.Sprintf("sevr %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}
		cmd, args := parts[0], parts[1:]

		ref := ""
		if len(args) > 0 {
			ref = args[0]
		}

		var cmdErr error
		switch cmd {
		case "help":
			printlnFn(helpText(a))

		case "login":
			cmdErr = a.Login(ctx)
		case "logout":
			cmdErr = a.Logout(ctx)
		case "whoami":
			cmdErr = a.Whoami(ctx)
		case "delete-account":
			cmdErr = a.DeleteAccount(ctx)

		case "unlock", "setup":
			cmdErr = a.Unlock(ctx)
		case "recover":
			cmdErr = a.Recover(ctx)
		case "passwd":
			cmdErr = a.ChangePassword(ctx)
		case "reset":
			cmdErr = a.Reset(ctx)
		case "lock":
			cmdErr = a.Lock(ctx)

		case "l", "list":
			cmdErr = a.List(ctx)
		case "add":
			cmdErr = a.Add(ctx)
		case "migrated", "ignore", "important":
			cmdErr = a.Toggle(ctx, cmd, ref)
		case "remove", "rm":
			cmdErr = a.Remove(ctx, ref)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr)
		}
		if err != nil {
			return
		}
	}
}
