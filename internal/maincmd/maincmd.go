// Package maincmd implements the peach command-line entry point: argument
// parsing and dispatch between the REPL and file-run modes (spec.md §6).
// This, file I/O, and process exit-code translation are treated as
// collaborators around the compiler/VM core, not part of it.
package maincmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/quanta-kt/peachlang/lang/vm"
)

const binName = "peach"

const (
	exitCompileError mainer.ExitCode = 65
	exitRuntimeError mainer.ExitCode = 70
	exitIOError      mainer.ExitCode = 74
)

var (
	shortUsage = fmt.Sprintf(`
usage: %s [<option>...] [<path>]
Run '%[1]s --help' for details.
`, binName)

	longUsage = fmt.Sprintf(`usage: %s [<option>...] [<path>]
       %[1]s -h|--help
       %[1]s -v|--version

With no <path>, runs an interactive REPL reading one line at a time from
standard input. With a <path>, reads the whole file and interprets it once.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.

Exit codes: 0 on success, 65 on a compile error, 70 on a runtime error, 74
on an I/O error.
`, binName)
)

type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help    bool `flag:"h,help"`
	Version bool `flag:"v,version"`

	args []string
}

func (c *Cmd) SetArgs(args []string)            { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool)   {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("too many arguments: expected at most one path, got %d", len(c.args))
	}
	return nil
}

func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return mainer.InvalidArgs
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return mainer.Success
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return mainer.Success
	}

	ctx := mainer.CancelOnSignal(context.Background(), os.Interrupt)

	if len(c.args) == 0 {
		repl(ctx, stdio)
		return mainer.Success
	}
	return runFile(stdio, c.args[0])
}

// repl reads one line at a time from stdin and interprets each against a
// single, long-lived VM, so that global bindings from earlier lines remain
// visible to later ones (spec.md §9 "Globals are name-keyed, not
// slot-keyed... to support a REPL"). Errors are reported per line; the REPL
// itself never exits non-zero, matching a plain read-eval-print loop.
func repl(ctx context.Context, stdio mainer.Stdio) {
	machine := vm.New(stdio.Stdout, stdio.Stderr)
	scanner := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(stdio.Stdout)
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}
		machine.Interpret(scanner.Text())
	}
}

// runFile reads the whole file at path and interprets it once, translating
// the VM's Result (and any I/O failure) into the exit codes of spec.md §6.
func runFile(stdio mainer.Stdio, path string) mainer.ExitCode {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stdio.Stderr, "%s: %s\n", binName, err)
		return exitIOError
	}

	machine := vm.New(stdio.Stdout, stdio.Stderr)
	switch machine.Interpret(string(source)) {
	case vm.CompileError:
		return exitCompileError
	case vm.RuntimeError:
		return exitRuntimeError
	default:
		return mainer.Success
	}
}
