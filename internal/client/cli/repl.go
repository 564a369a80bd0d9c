package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context, username string) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	List(ctx context.Context, opts listOptions) error
	SelectFiles(ctx context.Context, paths []string) error
	Pending(ctx context.Context) error
	Unselect(ctx context.Context, refs []string) error
	Upload(ctx context.Context, paths []string) error
	Download(ctx context.Context, ref, dir string) error
	Delete(ctx context.Context, ref string, assumeYes bool) error
	Stats(ctx context.Context) error
}

const (
	helpLoggedOut = "Available commands: register, login, stats, exit"
	helpLoggedIn  = "Available commands: (l)ist [filter] [-s name|size|date] [-r] [-o table|json|yaml], " +
		"select <path>..., pending, unselect <#|id>..., upload [path...], download <id|name> [dir], " +
		"rm <id|name>, whoami, stats, logout, exit"
)

// runREPL reads commands from scanner until EOF, "exit" or "quit".
//
// The first token of a line is the command, the rest are its arguments.
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("gophdrive %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpLoggedIn)
			} else {
				printlnFn(helpLoggedOut)
			}

		case "register":
			err = a.Register(ctx)

		case "login":
			err = a.Login(ctx, strings.Join(args, " "))

		case "logout":
			err = a.Logout(ctx)

		case "whoami":
			err = a.WhoAmI(ctx)

		case "l", "ls", "list":
			var opts listOptions
			if opts, err = parseListArgs(args); err == nil {
				err = a.List(ctx, opts)
			}

		case "select", "add":
			err = a.SelectFiles(ctx, args)

		case "pending":
			err = a.Pending(ctx)

		case "unselect":
			err = a.Unselect(ctx, args)

		case "upload":
			err = a.Upload(ctx, args)

		case "download", "get":
			switch len(args) {
			case 1:
				err = a.Download(ctx, args[0], "")
			case 2:
				err = a.Download(ctx, args[0], args[1])
			default:
				err = errors.New("usage: download <id|name> [dir]")
			}

		case "rm", "delete":
			if len(args) != 1 {
				err = errors.New("usage: rm <id|name>")
				break
			}
			err = a.Delete(ctx, args[0], false)

		case "stats":
			err = a.Stats(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", userMessage(err))
		}
	}
}

// parseListArgs reads "[filter...] [-s key] [-r] [-o format]".
func parseListArgs(args []string) (listOptions, error) {
	var (
		opts   listOptions
		filter []string
	)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-s", "--sort", "-o", "--output":
			if i+1 >= len(args) {
				return listOptions{}, fmt.Errorf("%s needs a value", args[i])
			}
			if args[i] == "-s" || args[i] == "--sort" {
				opts.Sort = args[i+1]
			} else {
				opts.Output = args[i+1]
			}
			i++
		case "-r", "--desc":
			opts.Desc = true
		default:
			filter = append(filter, args[i])
		}
	}
	opts.Filter = strings.Join(filter, " ")
	return opts, nil
}
