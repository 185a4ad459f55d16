// Package disasm implements a linear-sweep disassembler over a memory
// image, grounded on the teacher's vmDumper idiom (dumper.go): scan forward
// instruction-by-instruction, merge adjacent runs that look like printable
// text into a single pseudo-line, and fall back to a raw integer for
// anything that isn't a recognized opcode.
package disasm

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"vm16kit/internal/opcode"
	"vm16kit/internal/vm"
	"vm16kit/internal/word"
)

// Line is one rendered row of a disassembly listing: either a decoded
// instruction, a merged string-literal run of `out` instructions, or a raw
// (unrecognized) word.
type Line struct {
	Addr uint16
	Text string
	Len  int // words consumed by this line
}

// Disassemble sweeps mem from start for up to n instructions (or until
// memory is exhausted), using table to name opcodes. A zero-value table
// falls back to the engine's built-in opcode names.
func Disassemble(mem []uint16, table opcode.Table, start uint16, n int) []Line {
	var lines []Line
	addr := int(start)
	for count := 0; count < n && addr < len(mem); count++ {
		if run, ok := scanCharRun(mem, addr); ok {
			lines = append(lines, run)
			addr += run.Len
			continue
		}
		line := decodeOne(mem, table, addr)
		lines = append(lines, line)
		addr += line.Len
	}
	return lines
}

// scanCharRun looks for a maximal run of `out <printable>` instruction
// pairs starting at addr and, if there are at least two of them, merges the
// run into a single string-literal pseudo-line (spec.md §2 "run-length
// merging of consecutive character outputs").
func scanCharRun(mem []uint16, addr int) (Line, bool) {
	const opOut = 19
	var chars []byte
	i := addr
	for i+1 < len(mem) && mem[i] == opOut && printable(mem[i+1]) {
		chars = append(chars, byte(mem[i+1]))
		i += 2
	}
	if len(chars) < 2 {
		return Line{}, false
	}
	return Line{
		Addr: uint16(addr),
		Text: fmt.Sprintf("out %q", string(chars)),
		Len:  i - addr,
	}, true
}

func printable(w uint16) bool {
	if w > 0xFF {
		return false
	}
	r := rune(w)
	return unicode.IsPrint(r) && r != '"'
}

func decodeOne(mem []uint16, table opcode.Table, addr int) Line {
	id := int(mem[addr])

	entry, known := table.ByID(id)
	if !known {
		entry, known = builtinEntry(id)
	}
	if !known {
		return Line{Addr: uint16(addr), Text: strconv.Itoa(id), Len: 1}
	}

	argc := entry.Arity
	if addr+1+argc > len(mem) {
		argc = len(mem) - addr - 1
	}
	args := mem[addr+1 : addr+1+argc]

	var sb strings.Builder
	sb.WriteString(entry.Name)
	for _, a := range args {
		sb.WriteByte(' ')
		sb.WriteString(formatOperand(a))
	}
	return Line{Addr: uint16(addr), Text: sb.String(), Len: 1 + argc}
}

func formatOperand(w uint16) string {
	if i, ok := word.RegisterIndex(w); ok {
		return fmt.Sprintf("r%d", i)
	}
	return strconv.Itoa(int(w))
}

// builtinEntry names the 22 fixed opcodes by spec.md §4.1's mnemonics, used
// when the VM has no architecture-spec-derived table.
func builtinEntry(id int) (opcode.Entry, bool) {
	names := map[int]struct {
		name  string
		arity int
	}{
		0: {"halt", 0}, 1: {"set", 2}, 2: {"push", 1}, 3: {"pop", 1},
		4: {"eq", 3}, 5: {"gt", 3}, 6: {"jmp", 1}, 7: {"jt", 2}, 8: {"jf", 2},
		9: {"add", 3}, 10: {"mult", 3}, 11: {"mod", 3}, 12: {"and", 3},
		13: {"or", 3}, 14: {"not", 2}, 15: {"rmem", 2}, 16: {"wmem", 2},
		17: {"call", 1}, 18: {"ret", 0}, 19: {"out", 1}, 20: {"in", 1}, 21: {"noop", 0},
	}
	e, ok := names[id]
	if !ok {
		return opcode.Entry{}, false
	}
	return opcode.Entry{Name: e.name, ID: id, Arity: e.arity}, true
}

// DisassembleVM is a convenience wrapper over Disassemble for a live VM.
func DisassembleVM(v *vm.VM, start uint16, n int) []Line {
	return Disassemble(v.Mem, v.Table, start, n)
}
