package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/client/services"
	"github.com/dmitrijs2005/vidtube/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Refresh(ctx context.Context) error
	ChangePassword(ctx context.Context) error
	Me(ctx context.Context) error
	Channel(ctx context.Context, username string) error
	History(ctx context.Context) error
}

// runREPL reads commands from reader until EOF, "exit" or "quit".
//
//	Not logged in:
//	  - help             show available commands
//	  - register         create an account
//	  - login            authenticate
//	  - exit | quit      leave the program
//
//	Logged in:
//	  - me               show the current user
//	  - channel <name>   show a channel profile
//	  - history          list watched videos
//	  - passwd           change the password
//	  - refresh          rotate the session tokens
//	  - logout           log out
//	  - exit | quit      leave the program
//
// Command errors are printed and the loop continues. Commands share reader
// with the loop so prompts inside a command consume the following lines.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("vt %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: me, channel <username>, history, passwd, refresh, logout, exit")
			} else {
				printlnFn("Available commands: register, login, exit")
			}

		case "register":
			report(a.Register(ctx))

		case "login":
			report(a.Login(ctx))

		case "me":
			report(a.Me(ctx))

		case "channel":
			if len(args) != 1 {
				printlnFn("Usage: channel <username>")
				continue
			}
			report(a.Channel(ctx, args[0]))

		case "history":
			report(a.History(ctx))

		case "passwd":
			report(a.ChangePassword(ctx))

		case "refresh":
			report(a.Refresh(ctx))

		case "logout":
			report(a.Logout(ctx))

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, services.ErrSessionExpired):
		printlnFn("Session expired, please log in again")
	case errors.Is(err, services.ErrNotLoggedIn):
		printlnFn("Not logged in")
	default:
		printlnFn("Error:", common.Message(err))
	}
}
