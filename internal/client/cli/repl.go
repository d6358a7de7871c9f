package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the command surface the REPL dispatches to.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	Resources()
	Use(ctx context.Context, kind string) error
	List(ctx context.Context) error
	Refresh(ctx context.Context) error
	Search(query string)
	Sort(field string) error
	Page(n int) error
	Add() error
	Edit(ctx context.Context, id string) error
	Show(ctx context.Context, key string) error
	Set(field, value string) error
	Attach(field, uri string) error
	RemoveFile(ctx context.Context, field string) error
	Submit(ctx context.Context) error
	Cancel()
	Delete(ctx context.Context, id string, force bool) error
	Move(ctx context.Context, from, to int) error
	Slots() error
	Counts()
}

const helpText = `Available commands:
  resources                 list resources
  use <resource>            open a resource
  list | l                  show the current page
  refresh                   reload from the API
  search [text]             filter the list (no text clears)
  sort <field>              sort by field, again to reverse
  page <n>                  go to page n
  show <id|key>             show one entity (tooltips by field type)
  add | edit <id|key>       open the drawer
  set <field> [value]       set a field (no value prompts for text)
  attach <field> <uri>      attach a file (path, file:// or s3://)
  rmfile <field>            delete the stored file of the edited entity
  submit | cancel           save or close the drawer
  delete <id> [--yes]       delete an entity
  move <from> <to>          move an entity (positions from 1)
  slots                     free order slots
  counts                    sidebar counters
  exit | quit               leave the program`

// runREPL starts a read–eval–print loop over reader.
//
// The first token of each line is the command; the remaining tokens are its
// arguments. Unknown commands and malformed arguments are reported back to
// the user. The loop exits on EOF, when ctx is done, or when the user types
// "exit" or "quit".
//
// Errors returned by command handlers are ignored here; handlers report
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("console %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			printlnFn(helpText)

		case "resources":
			a.Resources()

		case "use":
			if len(args) != 1 {
				printlnFn("Usage: use <resource>")
				continue
			}
			_ = a.Use(ctx, args[0])

		case "l", "list":
			_ = a.List(ctx)

		case "refresh":
			_ = a.Refresh(ctx)

		case "search":
			a.Search(rest(line, 1))

		case "sort":
			if len(args) != 1 {
				printlnFn("Usage: sort <field>")
				continue
			}
			_ = a.Sort(args[0])

		case "page":
			n, ok := intArgs(args, 1)
			if !ok {
				printlnFn("Usage: page <n>")
				continue
			}
			_ = a.Page(n[0])

		case "add":
			_ = a.Add()

		case "edit":
			if len(args) != 1 {
				printlnFn("Usage: edit <id|key>")
				continue
			}
			_ = a.Edit(ctx, args[0])

		case "show":
			if len(args) != 1 {
				printlnFn("Usage: show <id|key>")
				continue
			}
			_ = a.Show(ctx, args[0])

		case "set":
			if len(args) == 0 {
				printlnFn("Usage: set <field> [value]")
				continue
			}
			_ = a.Set(args[0], rest(line, 2))

		case "attach":
			if len(args) != 2 {
				printlnFn("Usage: attach <field> <uri>")
				continue
			}
			_ = a.Attach(args[0], args[1])

		case "rmfile":
			if len(args) != 1 {
				printlnFn("Usage: rmfile <field>")
				continue
			}
			_ = a.RemoveFile(ctx, args[0])

		case "submit":
			_ = a.Submit(ctx)

		case "cancel":
			a.Cancel()

		case "delete":
			if len(args) == 0 || len(args) > 2 || (len(args) == 2 && args[1] != "--yes") {
				printlnFn("Usage: delete <id> [--yes]")
				continue
			}
			_ = a.Delete(ctx, args[0], len(args) == 2)

		case "move":
			n, ok := intArgs(args, 2)
			if !ok {
				printlnFn("Usage: move <from> <to>")
				continue
			}
			_ = a.Move(ctx, n[0], n[1])

		case "slots":
			_ = a.Slots()

		case "counts":
			a.Counts()

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

// rest returns line with its first n fields removed, keeping the inner
// spacing of what remains.
func rest(line string, n int) string {
	s := strings.TrimSpace(line)
	for range n {
		i := strings.IndexFunc(s, isSpace)
		if i < 0 {
			return ""
		}
		s = strings.TrimLeftFunc(s[i:], isSpace)
	}
	return s
}

func isSpace(r rune) bool { return r == ' ' || r == '\t' }

func intArgs(args []string, n int) ([]int, bool) {
	if len(args) != n {
		return nil, false
	}
	out := make([]int, n)
	for i, s := range args {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, false
		}
		out[i] = v
	}
	return out, true
}
