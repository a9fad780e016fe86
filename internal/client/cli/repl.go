package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/qryptovault/internal/common"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn(ctx context.Context) bool
	Login(ctx context.Context) error
	Signup(ctx context.Context) error
	Logout(ctx context.Context) error
	Inbox(ctx context.Context, all bool) error
	Upload(ctx context.Context, path string, recipients []string) error
	Download(ctx context.Context, fileID, dir string) error
	History(ctx context.Context) error
	Status(ctx context.Context) error
}

const (
	usageUpload   = "Usage: upload <path> <recipient>[,<recipient>...]"
	usageDownload = "Usage: download <file-id> [dir]"
)

// runREPL starts a simple read–eval–print loop for the Qrypto Vault CLI.
//
// It reads a line from reader, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on EOF, when ctx is done, or when
// the user types "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help                     show available commands
//	  - signup                   create an account
//	  - login                    authenticate
//	  - inbox [all]              show the cached inbox
//	  - status                   show session and connection state
//	  - exit | quit              leave the program
//
//	Logged in, additionally:
//	  - upload <path> <to,...>   share a file with recipients
//	  - download <id> [dir]      save a file
//	  - history                  list files uploaded from this client
//	  - logout                   log out
//
// Commands that prompt for more input read from the same reader, so reader
// must be the one the prompts use.
//
// Any errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for ctx.Err() == nil {
		printlnFn(fmt.Sprintf("qv %s> ", statusFn()))
		line, err := readLine(reader)
		if err != nil {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn(ctx) {
				printlnFn("Available commands: inbox [all], upload, download, history, status, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, inbox [all], status, exit")
			}

		case "signup", "register":
			_ = a.Signup(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "inbox", "ls":
			_ = a.Inbox(ctx, len(args) > 0 && args[0] == "all")

		case "upload":
			if len(args) < 2 {
				printlnFn(usageUpload)
				continue
			}
			_ = a.Upload(ctx, args[0], common.SplitList(strings.Join(args[1:], ",")))

		case "download", "get":
			if len(args) == 0 || len(args) > 2 {
				printlnFn(usageDownload)
				continue
			}
			dir := ""
			if len(args) == 2 {
				dir = args[1]
			}
			_ = a.Download(ctx, args[0], dir)

		case "history":
			_ = a.History(ctx)

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
