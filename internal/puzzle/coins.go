// Package puzzle implements the two self-contained puzzles encountered
// during exploration: the coin-order arithmetic puzzle and the vault's
// arithmetic-operator grid, grounded on the original solution's
// solve_coins.py and solve_vault.py. Neither depends on VM internals.
package puzzle

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Coin names the five coins found in the game and the numeral each is
// stamped with (the arithmetic puzzle's variables).
type Coin struct {
	Name  string
	Value int
}

// DefaultCoins is the fixed set of coins the game provides.
var DefaultCoins = []Coin{
	{"red coin", 2},
	{"corroded coin", 3},
	{"shiny coin", 5},
	{"concave coin", 7},
	{"blue coin", 9},
}

// CoinEquationTarget is the sum the vault's coin inscription requires:
// a + b*c^2 + d^3 - e == 399.
const CoinEquationTarget = 399

// ErrNoCoinOrder means no permutation of coins satisfies the equation.
var ErrNoCoinOrder = fmt.Errorf("puzzle: no coin ordering satisfies the equation")

// SolveCoins searches every ordering of coins for the one satisfying
// a + b*c^2 + d^3 - e == target (the inscription found on the vault door),
// returning the coins in the order they must be used. The search fans out
// over the first-element choice via an errgroup, since each branch explores
// an independent slice of the permutation space with no shared state.
func SolveCoins(ctx context.Context, coins []Coin, target int) ([]Coin, error) {
	if len(coins) == 0 {
		return nil, ErrNoCoinOrder
	}

	type result struct {
		order []Coin
	}
	found := make(chan result, len(coins))

	eg, ctx := errgroup.WithContext(ctx)
	for i := range coins {
		i := i
		eg.Go(func() error {
			rest := withoutIndex(coins, i)
			permute(rest, func(perm []Coin) bool {
				if ctx.Err() != nil {
					return false
				}
				order := append([]Coin{coins[i]}, perm...)
				if satisfies(order, target) {
					found <- result{order: order}
					return false
				}
				return true
			})
			return nil
		})
	}

	go func() {
		eg.Wait()
		close(found)
	}()

	for r := range found {
		return r.order, nil
	}
	return nil, ErrNoCoinOrder
}

func satisfies(order []Coin, target int) bool {
	if len(order) != 5 {
		return false
	}
	a, b, c, d, e := order[0].Value, order[1].Value, order[2].Value, order[3].Value, order[4].Value
	return a+b*c*c+d*d*d-e == target
}

// withoutIndex returns a copy of coins with index i removed.
func withoutIndex(coins []Coin, i int) []Coin {
	out := make([]Coin, 0, len(coins)-1)
	for j, c := range coins {
		if j != i {
			out = append(out, c)
		}
	}
	return out
}

// permute calls visit with every permutation of items, stopping early if
// visit returns false.
func permute(items []Coin, visit func([]Coin) bool) bool {
	return permuteRec(items, nil, visit)
}

func permuteRec(remaining, chosen []Coin, visit func([]Coin) bool) bool {
	if len(remaining) == 0 {
		return visit(chosen)
	}
	for i := range remaining {
		next := make([]Coin, 0, len(remaining)-1)
		next = append(next, remaining[:i]...)
		next = append(next, remaining[i+1:]...)

		nextChosen := make([]Coin, len(chosen), len(chosen)+1)
		copy(nextChosen, chosen)
		nextChosen = append(nextChosen, remaining[i])

		if !permuteRec(next, nextChosen, visit) {
			return false
		}
	}
	return true
}
