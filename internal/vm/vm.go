// Package vm implements the 16-bit bytecode VM engine: a deterministic
// fetch/decode/execute loop with suspendable I/O and a single hookable call
// site, used both for plain execution and for the hot-call patcher.
package vm

import (
	"context"
	"strings"

	"vm16kit/internal/memimage"
	"vm16kit/internal/opcode"
	"vm16kit/internal/word"
)

// Status is the VM's run state after Step or Run returns.
type Status int

const (
	// Running means the last tick completed normally and another may follow.
	Running Status = iota
	// Suspended means an `in` opcode found an empty input buffer; PC still
	// points at that `in` instruction.
	Suspended
	// Halted means execution has terminated (halt, empty-stack ret, or a
	// fatal fault) and will not progress further.
	Halted
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Suspended:
		return "suspended"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// HookFunc is invoked in place of a call instruction whose target address
// matches a registered hook.
type HookFunc func(v *VM)

// VM holds the complete mutable state of one bytecode machine: memory,
// registers, stack, program counter, and I/O buffers, plus the two derived
// addresses the surrounding tooling discovers lazily.
type VM struct {
	Mem   memimage.Image
	Regs  [word.NumRegisters]uint16
	Stack []uint16
	PC    uint16

	input  []byte
	output strings.Builder

	// LocationAddr and TeleportCallAddr are discovered lazily by
	// internal/explore and internal/hotcall respectively; nil means
	// "not yet discovered."
	LocationAddr     *uint16
	TeleportCallAddr *uint16

	Table opcode.Table

	hooks map[uint16]HookFunc

	logfn func(mess string, args ...interface{})

	memLimit int

	status Status
	fault  *Fault
}

// New constructs a VM over the given memory image. A zero-value opcode.Table
// falls back to the built-in fixed semantics table (see opcodes.go); with a
// Table parsed from an architecture spec file, that table's arities are used
// for decoding. The table is not checked against the built-in one.
func New(img memimage.Image, opts ...Option) *VM {
	v := &VM{
		Mem:   img,
		hooks: map[uint16]HookFunc{},
	}
	for _, opt := range opts {
		opt.apply(v)
	}
	return v
}

// Status returns the VM's current run state.
func (v *VM) Status() Status { return v.status }

// Fault returns the fatal error that halted the VM, or nil if it never
// faulted (including if it is still running, suspended, or halted cleanly).
func (v *VM) Fault() *Fault { return v.fault }

// Send appends line plus a trailing newline to the input buffer as
// character codes, then runs until the VM stops again.
func (v *VM) Send(ctx context.Context, line string) Status {
	v.input = append(v.input, []byte(line)...)
	v.input = append(v.input, '\n')
	return v.Run(ctx)
}

// Read drains and clears the output buffer.
func (v *VM) Read() string {
	s := v.output.String()
	v.output.Reset()
	return s
}

// Peek returns the output buffer without clearing it.
func (v *VM) Peek() string { return v.output.String() }

// Input returns a copy of the pending (unconsumed) input bytes.
func (v *VM) Input() []byte { return append([]byte(nil), v.input...) }

// SetInput replaces the pending input buffer wholesale. Used by
// internal/snapshot to restore a captured state.
func (v *VM) SetInput(in []byte) { v.input = append([]byte(nil), in...) }

// SetOutput replaces the output buffer wholesale. Used by internal/snapshot
// to restore a captured state.
func (v *VM) SetOutput(s string) {
	v.output.Reset()
	v.output.WriteString(s)
}

// Run executes ticks until the VM stops (halts or suspends) or ctx is
// cancelled. A fatal VM error (spec.md §7 kind 1) is captured as a Fault and
// surfaced as Halted rather than propagated as a panic.
func (v *VM) Run(ctx context.Context) Status {
	for {
		if v.status == Halted {
			return Halted
		}
		if err := ctx.Err(); err != nil {
			return v.status
		}
		st := v.Step()
		if st != Running {
			return st
		}
	}
}

// Step executes exactly one fetch/decode/execute tick and returns the
// resulting status. Any fatal invariant violation (spec.md §7 kind 1) is
// recovered here and surfaced as Halted with Fault set, matching the
// teacher's own halt/recover idiom rather than letting a panic escape.
func (v *VM) Step() (status Status) {
	if v.status == Halted {
		return Halted
	}

	defer func() {
		if r := recover(); r != nil {
			v.haltWith(asFault(r))
			status = Halted
		}
	}()

	if addr, target, ok := v.pendingCall(); ok {
		if hook, found := v.hooks[target]; found {
			v.PC = addr + 2 // past the 2-word `call a` instruction
			hook(v)
			v.status = Running
			return Running
		}
	}

	status = v.tick()
	v.status = status
	return status
}

// pendingCall reports whether the instruction at PC is a `call` and, if so,
// its address and resolved target, without mutating any state. This is the
// "prelude check" from spec.md §4.1 Hookability.
func (v *VM) pendingCall() (addr uint16, target uint16, ok bool) {
	op, err := v.Mem.Get(v.PC)
	if err != nil || Opcode(op) != OpCall {
		return 0, 0, false
	}
	arg, err := v.Mem.Get(v.PC + 1)
	if err != nil {
		return 0, 0, false
	}
	return v.PC, word.Resolve(arg, &v.Regs), true
}

func (v *VM) haltWith(f *Fault) {
	v.status = Halted
	v.fault = f
}

func (v *VM) load(addr uint16) uint16 {
	if v.memLimit != 0 && int(addr) > v.memLimit {
		panic(&Fault{Op: "load", Err: ErrOutOfRange})
	}
	val, err := v.Mem.Get(addr)
	if err != nil {
		panic(&Fault{Op: "load", Err: err})
	}
	return val
}

func (v *VM) store(addr uint16, val uint16) {
	if v.memLimit != 0 && int(addr) > v.memLimit {
		panic(&Fault{Op: "store", Err: ErrOutOfRange})
	}
	if err := v.Mem.Set(addr, val); err != nil {
		panic(&Fault{Op: "store", Err: err})
	}
}

func (v *VM) resolve(w uint16) uint16 {
	return word.Resolve(w, &v.Regs)
}

func (v *VM) regIndex(w uint16) int {
	i, ok := word.RegisterIndex(w)
	if !ok {
		panic(&Fault{Op: "destination", Err: &InvalidDestinationError{Word: w}})
	}
	return i
}

func (v *VM) push(val uint16) {
	v.Stack = append(v.Stack, val)
}

func (v *VM) pop() uint16 {
	n := len(v.Stack)
	if n == 0 {
		panic(&Fault{Op: "pop", Err: ErrStackUnderflow})
	}
	val := v.Stack[n-1]
	v.Stack = v.Stack[:n-1]
	return val
}
