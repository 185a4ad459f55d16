package shell

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"vm16kit/internal/disasm"
	"vm16kit/internal/explore"
	"vm16kit/internal/puzzle"
	"vm16kit/internal/snapshot"
)

// debugCmd implements one dotted debug command. args excludes the command
// name itself.
type debugCmd func(sh *Shell, ctx context.Context, args []string) error

var debugCommands = map[string]debugCmd{
	"dump":    cmdDump,
	"save":    cmdSave,
	"load":    cmdLoad,
	"diff":    cmdDiff,
	"reg":     cmdReg,
	"pm":      cmdPM,
	"ps":      cmdPS,
	"wr":      cmdWR,
	"wm":      cmdWM,
	"ws":      cmdWS,
	"loc":     cmdLoc,
	"dis":     cmdDis,
	"pc":      cmdPC,
	"quit":    cmdQuit,
	"q":       cmdQuit,
	"macro":   cmdMacro,
	"solve":   cmdSolve,
	"giveall": cmdGiveAll,
}

// defaultSnapshotName is the save/load slot used when the user omits a
// name, matching spec.md §6's "default name `last`".
const defaultSnapshotName = "last"

func cmdDump(sh *Shell, ctx context.Context, args []string) error {
	loc := "unknown"
	if sh.VM.LocationAddr != nil {
		if v, err := sh.VM.Mem.Get(*sh.VM.LocationAddr); err == nil {
			loc = strconv.Itoa(int(v))
		}
	}
	fmt.Fprintf(sh.Out, "pc=%d status=%s location=%s stack_depth=%d\n",
		sh.VM.PC, sh.VM.Status(), loc, len(sh.VM.Stack))
	return nil
}

func cmdSave(sh *Shell, ctx context.Context, args []string) error {
	name := defaultSnapshotName
	if len(args) > 0 {
		name = args[0]
	}
	snap := snapshot.Take(sh.VM)
	if err := sh.Store.Save(name, snap); err != nil {
		return err
	}
	fmt.Fprintf(sh.Out, "saved %q\n", name)
	return nil
}

func cmdLoad(sh *Shell, ctx context.Context, args []string) error {
	name := defaultSnapshotName
	if len(args) > 0 {
		name = args[0]
	}
	snap, err := sh.Store.Load(name)
	if err != nil {
		return err
	}
	snap.Apply(sh.VM)
	fmt.Fprintf(sh.Out, "loaded %q\n", name)
	return nil
}

// cmdDiff diffs two named snapshots, or one named snapshot against the
// current live VM state when only one name is given (spec.md §6 "diff <a>
// [<b>]").
func cmdDiff(sh *Shell, ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: diff <a> [<b>]")
	}
	a, err := sh.Store.Load(args[0])
	if err != nil {
		return err
	}

	b := snapshot.Take(sh.VM)
	if len(args) > 1 {
		b, err = sh.Store.Load(args[1])
		if err != nil {
			return err
		}
	}

	d := snapshot.Diff(a, b)
	for _, m := range d.Mem {
		fmt.Fprintf(sh.Out, "mem[%d]: %d -> %d\n", m.Index, m.Old, m.New)
	}
	for _, r := range d.Regs {
		fmt.Fprintf(sh.Out, "reg[%d]: %d -> %d\n", r.Index, r.Old, r.New)
	}
	for _, s := range d.Stack {
		fmt.Fprintf(sh.Out, "stack[%d]: %d -> %d\n", s.Index, s.Old, s.New)
	}
	if d.PC != nil {
		fmt.Fprintf(sh.Out, "pc: %d -> %d\n", d.PC.Old, d.PC.New)
	}
	return nil
}

func cmdReg(sh *Shell, ctx context.Context, args []string) error {
	for i, v := range sh.VM.Regs {
		fmt.Fprintf(sh.Out, "r%d=%d\n", i, v)
	}
	return nil
}

func cmdPM(sh *Shell, ctx context.Context, args []string) error {
	addr, n, err := addrAndCount(args)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		val, err := sh.VM.Mem.Get(addr + uint16(i))
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.Out, "mem[%d]=%d\n", addr+uint16(i), val)
	}
	return nil
}

func cmdPS(sh *Shell, ctx context.Context, args []string) error {
	addr, n, err := addrAndCount(args)
	if err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		idx := int(addr) + i
		if idx < 0 || idx >= len(sh.VM.Stack) {
			return fmt.Errorf("stack index %d out of range (depth %d)", idx, len(sh.VM.Stack))
		}
		fmt.Fprintf(sh.Out, "stack[%d]=%d\n", idx, sh.VM.Stack[idx])
	}
	return nil
}

func cmdWR(sh *Shell, ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: wr <i> <v>")
	}
	i, err := parseUint(args[0])
	if err != nil {
		return err
	}
	v, err := parseUint(args[1])
	if err != nil {
		return err
	}
	if int(i) >= len(sh.VM.Regs) {
		return fmt.Errorf("register index %d out of range", i)
	}
	sh.VM.Regs[i] = v
	return nil
}

func cmdWM(sh *Shell, ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: wm <addr> <v>")
	}
	addr, err := parseUint(args[0])
	if err != nil {
		return err
	}
	v, err := parseUint(args[1])
	if err != nil {
		return err
	}
	return sh.VM.Mem.Set(addr, v)
}

func cmdWS(sh *Shell, ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: ws <i> <v>")
	}
	i, err := parseUint(args[0])
	if err != nil {
		return err
	}
	v, err := parseUint(args[1])
	if err != nil {
		return err
	}
	if int(i) >= len(sh.VM.Stack) {
		return fmt.Errorf("stack index %d out of range (depth %d)", i, len(sh.VM.Stack))
	}
	sh.VM.Stack[i] = v
	return nil
}

// cmdLoc reads or writes the current location word. Reading requires the
// location address to already be discovered (internal/explore); writing
// requires it too, since there is no location address to write to
// otherwise.
func cmdLoc(sh *Shell, ctx context.Context, args []string) error {
	if sh.VM.LocationAddr == nil {
		return fmt.Errorf("location address not yet discovered")
	}
	if len(args) == 0 {
		val, err := sh.VM.Mem.Get(*sh.VM.LocationAddr)
		if err != nil {
			return err
		}
		fmt.Fprintf(sh.Out, "loc=%d\n", val)
		return nil
	}
	v, err := parseUint(args[0])
	if err != nil {
		return err
	}
	return sh.VM.Mem.Set(*sh.VM.LocationAddr, v)
}

// cmdDis disassembles from the current PC (or a given address) for a given
// number of lines (default 10), spec.md §6 "dis [<lines> [<addr>]]".
func cmdDis(sh *Shell, ctx context.Context, args []string) error {
	lines := 10
	addr := sh.VM.PC
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid line count %q: %w", args[0], err)
		}
		lines = n
	}
	if len(args) > 1 {
		a, err := parseUint(args[1])
		if err != nil {
			return err
		}
		addr = a
	}

	for _, l := range disasm.Disassemble(sh.VM.Mem, sh.VM.Table, addr, lines) {
		fmt.Fprintf(sh.Out, "%d: %s\n", l.Addr, l.Text)
	}
	return nil
}

func cmdPC(sh *Shell, ctx context.Context, args []string) error {
	fmt.Fprintf(sh.Out, "pc=%d\n", sh.VM.PC)
	return nil
}

func cmdQuit(sh *Shell, ctx context.Context, args []string) error {
	return ErrQuit
}

// cmdMacro reads a file under the configured macro directory, splits it on
// both newlines and semicolons, and forwards every resulting segment
// through Dispatch (spec.md §6 "macro <file>").
func cmdMacro(sh *Shell, ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: macro <file>")
	}
	path := filepath.Join(sh.Config.MacroDir, args[0])
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading macro %q: %w", args[0], err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		for _, segment := range strings.Split(line, ";") {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			if err := sh.Dispatch(ctx, segment); err != nil {
				return err
			}
		}
	}
	return nil
}

// cmdSolve implements "solve coins": solve the coin-order equation and
// issue the resulting `use <coin>` commands, spec.md §4.7 step 7 exposed as
// a standalone debug command.
func cmdSolve(sh *Shell, ctx context.Context, args []string) error {
	if len(args) != 1 || args[0] != "coins" {
		return fmt.Errorf("usage: solve coins")
	}
	order, err := puzzle.SolveCoins(ctx, puzzle.DefaultCoins, puzzle.CoinEquationTarget)
	if err != nil {
		return err
	}
	for _, coin := range order {
		if err := sh.Dispatch(ctx, "use "+coin.Name); err != nil {
			return err
		}
	}
	return nil
}

// cmdGiveAll zeroes every address in the configured giveall range (spec.md
// §6 "giveall").
func cmdGiveAll(sh *Shell, ctx context.Context, args []string) error {
	if err := explore.GiveAll(sh.VM, sh.Config.GiveAllRange.Addrs()); err != nil {
		return err
	}
	fmt.Fprintln(sh.Out, "gave all")
	return nil
}

// addrAndCount parses the shared "<addr> [<n>]" argument shape used by pm
// and ps, defaulting n to 1.
func addrAndCount(args []string) (addr uint16, n int, err error) {
	if len(args) == 0 {
		return 0, 0, fmt.Errorf("usage: <addr> [<n>]")
	}
	a, err := parseUint(args[0])
	if err != nil {
		return 0, 0, err
	}
	n = 1
	if len(args) > 1 {
		n, err = strconv.Atoi(args[1])
		if err != nil {
			return 0, 0, fmt.Errorf("invalid count %q: %w", args[1], err)
		}
	}
	return a, n, nil
}

func parseUint(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", s, err)
	}
	return uint16(v), nil
}
