// Package pattern implements wildcard word-sequence matching over a memory
// image, used to locate call sites whose exact address varies across
// binary variants (spec.md §4.3).
package pattern

// Word is one element of a pattern: either a fixed value to match exactly,
// or a wildcard that matches any word.
type Word struct {
	Value uint16
	Any   bool
}

// Lit returns a fixed pattern word.
func Lit(v uint16) Word { return Word{Value: v} }

// wildcard is the pattern word that matches unconditionally.
var wildcard = Word{Any: true}

// FindPattern returns every starting index i in mem such that for every j
// where pattern[j] is not a wildcard, mem[i+j] == pattern[j].Value.
func FindPattern(mem []uint16, pat []Word) []int {
	var hits []int
	if len(pat) == 0 || len(pat) > len(mem) {
		return hits
	}
	for i := 0; i+len(pat) <= len(mem); i++ {
		if matchesAt(mem, pat, i) {
			hits = append(hits, i)
		}
	}
	return hits
}

func matchesAt(mem []uint16, pat []Word, i int) bool {
	for j, w := range pat {
		if w.Any {
			continue
		}
		if mem[i+j] != w.Value {
			return false
		}
	}
	return true
}

// TeleportCallPattern is the fixed 41-word signature that uniquely
// identifies the teleporter's setup-and-call sequence across binary
// variants (spec.md §6).
var TeleportCallPattern = []Word{
	Lit(7), Lit(32768), wildcard, Lit(9), Lit(32768), Lit(32769), Lit(1), Lit(18),
	Lit(7), Lit(32769), wildcard, Lit(9), Lit(32768), Lit(32768), Lit(32767), Lit(1), Lit(32769), Lit(32775),
	Lit(17), wildcard, Lit(18), Lit(2), Lit(32768), Lit(9), Lit(32769), Lit(32769), Lit(32767),
	Lit(17), wildcard, Lit(1), Lit(32769), Lit(32768), Lit(3), Lit(32768), Lit(9), Lit(32768),
	Lit(32768), Lit(32767), Lit(17), wildcard, Lit(18),
}
