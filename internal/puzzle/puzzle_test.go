package puzzle_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vm16kit/internal/puzzle"
)

func TestSolveCoinsFindsTheUniqueOrdering(t *testing.T) {
	order, err := puzzle.SolveCoins(context.Background(), puzzle.DefaultCoins, puzzle.CoinEquationTarget)
	require.NoError(t, err)
	require.Len(t, order, 5)

	a, b, c, d, e := order[0].Value, order[1].Value, order[2].Value, order[3].Value, order[4].Value
	assert.Equal(t, puzzle.CoinEquationTarget, a+b*c*c+d*d*d-e)

	values := map[int]bool{}
	for _, coin := range order {
		values[coin.Value] = true
	}
	assert.Len(t, values, 5, "every coin used exactly once")
}

func TestSolveCoinsNoSolution(t *testing.T) {
	coins := []puzzle.Coin{{"a", 1}, {"b", 1}, {"c", 1}, {"d", 1}, {"e", 1}}
	_, err := puzzle.SolveCoins(context.Background(), coins, 999999)
	assert.ErrorIs(t, err, puzzle.ErrNoCoinOrder)
}

func TestSolveVaultMatchesKnownSolution(t *testing.T) {
	cmds, err := puzzle.SolveVault(puzzle.DefaultVaultGrid, [2]int{3, 0}, [2]int{0, 3}, 30)
	require.NoError(t, err)
	assert.Equal(t, []string{"n", "e", "e", "n", "w", "s", "e", "e", "w", "n", "n", "e"}, cmds)
}

func TestSolveVaultUnreachableGoal(t *testing.T) {
	_, err := puzzle.SolveVault(puzzle.DefaultVaultGrid, [2]int{3, 0}, [2]int{0, 3}, 999999)
	assert.ErrorIs(t, err, puzzle.ErrNoVaultPath)
}
