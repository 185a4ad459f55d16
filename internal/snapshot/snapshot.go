// Package snapshot implements deep-copy snapshot/clone/diff of vm.VM state
// (spec.md §4.2).
package snapshot

import (
	"vm16kit/internal/memimage"
	"vm16kit/internal/vm"
	"vm16kit/internal/word"
)

// Snapshot is an owned, independently restorable copy of a VM's complete
// state: memory, stack, registers, PC, input/output buffers, and the two
// derived addresses. No field shares a backing array with the VM it was
// taken from, nor with any other Snapshot (spec.md §9 "Cyclic references").
type Snapshot struct {
	Mem    memimage.Image
	Regs   [word.NumRegisters]uint16
	Stack  []uint16
	PC     uint16
	Input  []byte
	Output string

	LocationAddr     *uint16
	TeleportCallAddr *uint16
}

// Take returns a deep-copy snapshot of v's current state.
func Take(v *vm.VM) Snapshot {
	s := Snapshot{
		Mem:    v.Mem.Clone(),
		Regs:   v.Regs,
		Stack:  append([]uint16(nil), v.Stack...),
		PC:     v.PC,
		Input:  v.Input(),
		Output: v.Peek(),
	}
	if v.LocationAddr != nil {
		addr := *v.LocationAddr
		s.LocationAddr = &addr
	}
	if v.TeleportCallAddr != nil {
		addr := *v.TeleportCallAddr
		s.TeleportCallAddr = &addr
	}
	return s
}

// Apply replaces every field of v with a deep copy of s's state, atomically:
// the new state is fully constructed before any field of v is touched, so a
// panic here (e.g. from a corrupt Snapshot) never leaves v half-updated.
func (s Snapshot) Apply(v *vm.VM) {
	mem := s.Mem.Clone()
	regs := s.Regs
	stack := append([]uint16(nil), s.Stack...)
	input := append([]byte(nil), s.Input...)

	var loc, tele *uint16
	if s.LocationAddr != nil {
		addr := *s.LocationAddr
		loc = &addr
	}
	if s.TeleportCallAddr != nil {
		addr := *s.TeleportCallAddr
		tele = &addr
	}

	v.Mem = mem
	v.Regs = regs
	v.Stack = stack
	v.PC = s.PC
	v.SetInput(input)
	v.SetOutput(s.Output)
	v.LocationAddr = loc
	v.TeleportCallAddr = tele
}

// Clone returns a new VM holding an independent copy of v's state: no
// backing array is shared, so subsequent mutation of either VM never
// affects the other (spec.md §8 "Clone independence"). The opcode table and
// hook table are carried over too — the table because it describes the
// binary, not per-run state, and the hook table by reference since hooks
// are pure functions keyed by address, not mutable state that needs its own
// copy (spec.md §4.1 "Hookability", §8 "Clone independence").
func Clone(v *vm.VM, opts ...vm.Option) *vm.VM {
	base := []vm.Option{vm.WithTable(v.Table), vm.WithHookMap(v.Hooks())}
	clone := vm.New(v.Mem.Clone(), append(base, opts...)...)
	Take(v).Apply(clone)
	return clone
}
