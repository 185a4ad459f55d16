// Package shell implements the interactive/scripted command loop that sits
// between a human (or a pre-scripted command list) and the VM engine:
// alias expansion, semicolon chaining, and dotted debug commands (spec.md
// §6 "Interactive commands"). It is grounded on the teacher's main.go line-
// oriented conversational model (namedBuffer/WithInputWriter assembling one
// logical input stream ahead of the interpreter), restructured around a
// single Dispatch entry point instead of a pre-assembled buffer, since this
// domain's debug commands must be recognized and intercepted per line
// rather than fed through to the VM.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"vm16kit/internal/config"
	"vm16kit/internal/persist"
	"vm16kit/internal/runeio"
	"vm16kit/internal/vm"
)

// ErrQuit is returned by Dispatch when the user issues "quit"/"q"; callers
// driving a REPL loop should stop on it without treating it as a failure.
var ErrQuit = errors.New("shell: quit requested")

// aliases are the single-token game-command abbreviations spec.md §6 lists.
var aliases = map[string]string{
	"l":  "look",
	"n":  "north",
	"s":  "south",
	"e":  "east",
	"w":  "west",
	"br": "bridge",
	"dw": "doorway",
	"dn": "down",
	"cn": "continue",
	"pa": "passage",
}

// Shell dispatches lines of input to either a debug command or the VM
// itself. It owns no goroutines; every method runs synchronously on the
// caller's, matching the engine's single-threaded cooperative model
// (spec.md §5).
type Shell struct {
	VM     *vm.VM
	Store  *persist.Store
	Config config.Config
	Out    io.Writer
}

// New returns a Shell writing VM output and command feedback to out.
func New(v *vm.VM, store *persist.Store, cfg config.Config, out io.Writer) *Shell {
	return &Shell{VM: v, Store: store, Config: cfg, Out: out}
}

// Dispatch handles one line of input: semicolon chaining, dotted debug
// commands and alias expansion are intercepted, in that order, before
// anything reaches the VM, so e.g. "l;n" is split first and each half is
// then expanded. Any error here is a user error (spec.md §7 kind 3,
// "VM is otherwise untouched") reported to the caller, not a VM fault.
func (sh *Shell) Dispatch(ctx context.Context, line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	if strings.Contains(line, ";") {
		for _, segment := range strings.Split(line, ";") {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			if err := sh.Dispatch(ctx, segment); err != nil {
				return err
			}
		}
		return nil
	}

	if strings.HasPrefix(line, ".") {
		return sh.dispatchDebug(ctx, strings.TrimPrefix(line, "."))
	}

	if expanded, ok := aliases[line]; ok {
		line = expanded
	}

	sh.VM.Send(ctx, line)
	// The VM's output can legally contain raw control bytes (the game text
	// never does, but a hand-written or fuzzed binary might); render them
	// through the teacher's ANSI-safe rune writer rather than assuming
	// plain ASCII passes through a terminal unscathed.
	runeio.WriteANSIString(sh.Out, sh.VM.Read())
	return nil
}

// dispatchDebug parses and runs one dotted debug command (spec.md §6 "Debug
// command grammar"). An unrecognized command name is reported, not treated
// as fatal.
func (sh *Shell) dispatchDebug(ctx context.Context, rest string) error {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		fmt.Fprintln(sh.Out, "unknown debug command")
		return nil
	}
	name, args := fields[0], fields[1:]

	cmd, ok := debugCommands[name]
	if !ok {
		fmt.Fprintln(sh.Out, "unknown debug command")
		return nil
	}
	return cmd(sh, ctx, args)
}

// Loop reads lines from r (one per line) and dispatches each in turn,
// stopping at EOF or ErrQuit; any other dispatch error is printed to Out
// and the loop goes on with the next line. Interactive
// callers (cmd/vm16) choose readline over r when stdin is a terminal;
// Loop itself is agnostic to where lines come from.
func (sh *Shell) Loop(ctx context.Context, r io.Reader) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if err := sh.Dispatch(ctx, scanner.Text()); err != nil {
			if errors.Is(err, ErrQuit) {
				return nil
			}
			fmt.Fprintln(sh.Out, err)
		}
	}
	return scanner.Err()
}

// RunCommands dispatches a semicolon-joined pre-scripted command string
// (the CLI's `-c|--commands` flag, spec.md §6), each segment sent as one
// line, same as a semicolon-chained interactive line.
func (sh *Shell) RunCommands(ctx context.Context, commands string) error {
	return sh.Dispatch(ctx, commands)
}
