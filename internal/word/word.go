// Package word classifies and resolves the 16-bit words that make up VM
// memory, register operands, and stack values.
package word

// RegisterBase is the first value in the register-reference range.
// Words in [RegisterBase, RegisterBase+NumRegisters) name R0..R7; words
// below it are immediates.
const RegisterBase = 32768

// NumRegisters is the fixed register file size.
const NumRegisters = 8

// ModBase is the modulus for add/mult/mod arithmetic. The top bit of a word
// is never treated as a sign.
const ModBase = 32768

// IsRegister reports whether w names a register (R0..R7).
func IsRegister(w uint16) bool {
	return w >= RegisterBase && w < RegisterBase+NumRegisters
}

// IsImmediate reports whether w is a literal value rather than a register
// reference.
func IsImmediate(w uint16) bool {
	return w < RegisterBase
}

// RegisterIndex returns the register file index named by w, and false if w
// does not name a register. Opcodes that write through an operand (set,
// add, eq, pop, gt, and, or, not, mult, mod, rmem, in) must use this to
// validate their destination operand.
func RegisterIndex(w uint16) (int, bool) {
	if !IsRegister(w) {
		return 0, false
	}
	return int(w - RegisterBase), true
}

// Resolve returns the resolved value of operand word w: the register's
// contents if w names a register, else w itself.
func Resolve(w uint16, regs *[NumRegisters]uint16) uint16 {
	if i, ok := RegisterIndex(w); ok {
		return regs[i]
	}
	return w
}

// Valid reports whether w is a legal word value at all (immediate or
// register reference; nothing above RegisterBase+NumRegisters is defined).
func Valid(w uint16) bool {
	return w < RegisterBase+NumRegisters
}
