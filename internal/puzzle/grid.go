package puzzle

import "fmt"

// Cell is one position in the vault's 4x4 grid: either a numeral or one of
// the three arithmetic operators (+, -, *).
type Cell struct {
	Value int
	Op    byte // 0 if this cell holds a Value instead
}

func num(v int) Cell { return Cell{Value: v} }
func op(b byte) Cell { return Cell{Op: b} }

// DefaultVaultGrid is the fixed 4x4 layout of the vault room, read top-left
// to bottom-right.
var DefaultVaultGrid = [4][4]Cell{
	{op('*'), num(8), op('-'), num(1)},
	{num(4), op('*'), num(11), op('*')},
	{op('+'), num(4), op('-'), num(18)},
	{num(22), op('-'), num(9), op('*')},
}

type point struct{ r, c int }

var gridDirs = []struct {
	d  point
	cmd string
}{
	{point{-1, 0}, "n"},
	{point{1, 0}, "s"},
	{point{0, 1}, "e"},
	{point{0, -1}, "w"},
}

type gridState struct {
	pos   point
	value int
	op    byte // pending operator, 0 when standing on a numeral last
}

// ErrNoVaultPath means no sequence of moves reaches goal with value goalVal.
var ErrNoVaultPath = fmt.Errorf("puzzle: no path reaches the vault's goal value")

// SolveVault runs a breadth-first search over the grid from start to goal,
// tracking the running arithmetic value as the path crosses operator cells,
// and returns the sequence of n/s/e/w direction commands that arrives at
// goal with exactly goalVal. The starting and goal cells may never be
// revisited except as the final step onto goal, and a move that would bring
// the running value to zero or below is not taken.
func SolveVault(grid [4][4]Cell, start, goal [2]int, goalVal int) ([]string, error) {
	startPos := point{start[0], start[1]}
	goalPos := point{goal[0], goal[1]}

	startCell := grid[startPos.r][startPos.c]
	init := gridState{pos: startPos, value: startCell.Value, op: '+'}

	type parented struct {
		state  gridState
		cmd    string
		parent *parented
	}

	seen := map[gridState]*parented{}
	start0 := &parented{state: init}
	seen[init] = start0

	queue := []*parented{start0}
	var goalNode *parented

	for len(queue) > 0 && goalNode == nil {
		cur := queue[0]
		queue = queue[1:]

		if cur.state.value == goalVal && cur.state.pos == goalPos {
			goalNode = cur
			break
		}

		for _, dir := range gridDirs {
			next := point{cur.state.pos.r + dir.d.r, cur.state.pos.c + dir.d.c}
			if next.r < 0 || next.r >= 4 || next.c < 0 || next.c >= 4 {
				continue
			}
			if next == startPos {
				continue
			}

			ns, ok := applyMove(cur.state, next, grid)
			if !ok {
				continue
			}
			if next == goalPos && ns.value != goalVal {
				continue
			}
			if _, dup := seen[ns]; dup {
				continue
			}
			node := &parented{state: ns, cmd: dir.cmd, parent: cur}
			seen[ns] = node
			queue = append(queue, node)
		}
	}

	if goalNode == nil {
		return nil, ErrNoVaultPath
	}

	var cmds []string
	for n := goalNode; n.parent != nil; n = n.parent {
		cmds = append([]string{n.cmd}, cmds...)
	}
	return cmds, nil
}

func applyMove(state gridState, next point, grid [4][4]Cell) (gridState, bool) {
	cell := grid[next.r][next.c]
	if cell.Op != 0 {
		return gridState{pos: next, value: state.value, op: cell.Op}, true
	}
	if state.op == 0 {
		return gridState{}, false
	}
	var v int
	switch state.op {
	case '+':
		v = state.value + cell.Value
	case '-':
		v = state.value - cell.Value
	case '*':
		v = state.value * cell.Value
	default:
		return gridState{}, false
	}
	if v <= 0 {
		return gridState{}, false
	}
	return gridState{pos: next, value: v, op: 0}, true
}
