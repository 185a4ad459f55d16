package vm

import "vm16kit/internal/opcode"

// Option configures a VM at construction time, mirroring the teacher's
// functional-option pattern (api.go/options.go).
type Option interface{ apply(v *VM) }

type optFunc func(v *VM)

func (f optFunc) apply(v *VM) { f(v) }

// WithLogf installs a leveled logging function; the VM emits a trace line
// once per tick when set (cmd/vm16 passes internal/logio.Logger.Leveledf).
func WithLogf(logfn func(mess string, args ...interface{})) Option {
	return optFunc(func(v *VM) { v.logfn = logfn })
}

// WithMemLimit caps the highest address the VM will access; 0 means
// unlimited.
func WithMemLimit(limit int) Option {
	return optFunc(func(v *VM) { v.memLimit = limit })
}

// WithTable supplies an opcode table parsed from an architecture spec file;
// without it, the VM falls back to its built-in fixed semantics table.
func WithTable(t opcode.Table) Option {
	return optFunc(func(v *VM) { v.Table = t })
}

// WithHook registers a pre-instruction hook: whenever the upcoming `call`
// instruction's resolved target equals addr, fn runs instead of the call
// (spec.md §4.1 "Hookability"). The only production use is the teleport-call
// bypass installed by internal/hotcall.
func WithHook(addr uint16, fn HookFunc) Option {
	return optFunc(func(v *VM) {
		if v.hooks == nil {
			v.hooks = map[uint16]HookFunc{}
		}
		v.hooks[addr] = fn
	})
}

// AddHook installs a hook on an already-constructed VM (used by
// internal/hotcall once the teleport-call address is discovered at
// runtime, after construction).
func (v *VM) AddHook(addr uint16, fn HookFunc) {
	if v.hooks == nil {
		v.hooks = map[uint16]HookFunc{}
	}
	v.hooks[addr] = fn
}

// Hooks returns v's hook table by reference (not a copy).
func (v *VM) Hooks() map[uint16]HookFunc { return v.hooks }

// WithHookMap installs the exact given hook table by reference, used by
// internal/snapshot.Clone to carry a VM's hooks over to its clone: hooks are
// pure functions keyed by call-target address, not mutable state, so
// sharing the map (rather than deep-copying it) is the correct clone
// semantics (spec.md §8 "Clone independence" concerns mutable state only).
func WithHookMap(hooks map[uint16]HookFunc) Option {
	return optFunc(func(v *VM) { v.hooks = hooks })
}
