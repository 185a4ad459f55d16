package vm

import "vm16kit/internal/word"

// Opcode is the closed sum of instruction ids the engine understands
// (spec.md §9 "Dynamic dispatch": a compile-time-exhaustive switch keyed by
// id, not a string tag or vtable).
type Opcode int

const (
	OpHalt Opcode = iota
	OpSet
	OpPush
	OpPop
	OpEq
	OpGt
	OpJmp
	OpJt
	OpJf
	OpAdd
	OpMult
	OpMod
	OpAnd
	OpOr
	OpNot
	OpRmem
	OpWmem
	OpCall
	OpRet
	OpOut
	OpIn
	OpNoop

	opcodeCount
)

// builtinArity is the fixed id->arity table from spec.md §4.1, used as a
// fallback when the VM wasn't constructed with an architecture-spec-derived
// opcode.Table.
var builtinArity = [opcodeCount]int{
	OpHalt: 0, OpSet: 2, OpPush: 1, OpPop: 1, OpEq: 3, OpGt: 3,
	OpJmp: 1, OpJt: 2, OpJf: 2, OpAdd: 3, OpMult: 3, OpMod: 3,
	OpAnd: 3, OpOr: 3, OpNot: 2, OpRmem: 2, OpWmem: 2,
	OpCall: 1, OpRet: 0, OpOut: 1, OpIn: 1, OpNoop: 0,
}

// arity returns the argument count for opcode id, preferring the parsed
// architecture spec table when the VM has one.
func (v *VM) arity(id int) (int, bool) {
	if e, ok := v.Table.ByID(id); ok {
		return e.Arity, true
	}
	if id < 0 || id >= int(opcodeCount) {
		return 0, false
	}
	return builtinArity[id], true
}

// tick performs one fetch/decode/execute cycle: read the opcode at PC, slice
// its argument words, compute the default fall-through PC, execute the
// opcode's semantics (which may override the next PC), and install it.
func (v *VM) tick() Status {
	opWord := v.load(v.PC)
	id := int(opWord)

	arity, known := v.arity(id)
	if !known || id >= int(opcodeCount) {
		panic(&Fault{Op: "fetch", Err: &UnknownOpcodeError{ID: id}})
	}

	if v.logfn != nil {
		v.logfn("@%v op:%v r:%v s:%v", v.PC, id, v.Regs, v.Stack)
	}

	args := make([]uint16, arity)
	for i := range args {
		args[i] = v.load(v.PC + 1 + uint16(i))
	}
	fallthroughPC := v.PC + 1 + uint16(arity)
	nextPC := fallthroughPC

	switch Opcode(id) {
	case OpHalt:
		return Halted

	case OpSet:
		v.Regs[v.regIndex(args[0])] = v.resolve(args[1])

	case OpPush:
		v.push(v.resolve(args[0]))

	case OpPop:
		v.Regs[v.regIndex(args[0])] = v.pop()

	case OpEq:
		v.Regs[v.regIndex(args[0])] = boolWord(v.resolve(args[1]) == v.resolve(args[2]))

	case OpGt:
		v.Regs[v.regIndex(args[0])] = boolWord(v.resolve(args[1]) > v.resolve(args[2]))

	case OpJmp:
		nextPC = v.resolve(args[0])

	case OpJt:
		if v.resolve(args[0]) != 0 {
			nextPC = v.resolve(args[1])
		}

	case OpJf:
		if v.resolve(args[0]) == 0 {
			nextPC = v.resolve(args[1])
		}

	case OpAdd:
		sum := (uint32(v.resolve(args[1])) + uint32(v.resolve(args[2]))) % word.ModBase
		v.Regs[v.regIndex(args[0])] = uint16(sum)

	case OpMult:
		prod := (uint32(v.resolve(args[1])) * uint32(v.resolve(args[2]))) % word.ModBase
		v.Regs[v.regIndex(args[0])] = uint16(prod)

	case OpMod:
		b, c := v.resolve(args[1]), v.resolve(args[2])
		if c == 0 {
			panic(&Fault{Op: "mod", Err: errDivideByZero})
		}
		v.Regs[v.regIndex(args[0])] = b % c

	case OpAnd:
		v.Regs[v.regIndex(args[0])] = v.resolve(args[1]) & v.resolve(args[2])

	case OpOr:
		v.Regs[v.regIndex(args[0])] = v.resolve(args[1]) | v.resolve(args[2])

	case OpNot:
		v.Regs[v.regIndex(args[0])] = (^v.resolve(args[1])) & 0x7FFF

	case OpRmem:
		v.Regs[v.regIndex(args[0])] = v.load(v.resolve(args[1]))

	case OpWmem:
		v.store(v.resolve(args[0]), v.resolve(args[1]))

	case OpCall:
		v.push(fallthroughPC)
		nextPC = v.resolve(args[0])

	case OpRet:
		if len(v.Stack) == 0 {
			return Halted
		}
		nextPC = v.pop()

	case OpOut:
		v.output.WriteByte(byte(v.resolve(args[0])))

	case OpIn:
		if len(v.input) == 0 {
			// Suspension: PC must still point at this `in` instruction so a
			// later Run re-executes the fetch (spec.md §5 "Suspension points").
			return Suspended
		}
		ch := v.input[0]
		v.input = v.input[1:]
		v.Regs[v.regIndex(args[0])] = uint16(ch)

	case OpNoop:
		// nothing

	default:
		panic(&Fault{Op: "fetch", Err: &UnknownOpcodeError{ID: id}})
	}

	v.PC = nextPC
	return Running
}

func boolWord(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
