// Package explore implements the breadth-first state-space search over VM
// clones (spec.md §4.6), location-address discovery by memory diff
// (spec.md §4.4), and inventory-flag discovery/grant (spec.md §4.6 "Item
// discovery").
package explore

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"vm16kit/internal/scrape"
	"vm16kit/internal/snapshot"
	"vm16kit/internal/vm"
)

// Edge is one BFS transition: taking direction from a node leads to To.
type Edge struct {
	To        uint16
	Direction string
}

// Graph is the fully-explored state space: per-location outgoing edges and
// the room description first seen at each location.
type Graph struct {
	Edges        map[uint16][]Edge
	Descriptions map[uint16]string
}

// State pairs a clone with the location word read from it at clone time.
type State struct {
	VM       *vm.VM
	Location uint16
}

// ErrNoLocationAddr is returned by the caller (via DiscoverLocationAddress)
// when no address changed consistently across every movement in the
// opening path.
var ErrNoLocationAddr = errors.New("explore: no location-address candidate found")

// ErrAmbiguousCandidate means more candidate addresses survived the
// opening-path diff than can be trusted to pick one automatically
// (spec.md §9: "surface a failure if no candidate emerges" is extended
// here to also refuse to guess among too many).
var ErrAmbiguousCandidate = errors.New("explore: too many location-address candidates to choose automatically")

// ErrNoItemFlag means no memory cell in the pre/post-take diff matched the
// truthy->falsy shape expected of an inventory flag.
var ErrNoItemFlag = errors.New("explore: no inventory-flag address found for item")

// DefaultWorkers bounds neighbor-expansion concurrency when the caller
// doesn't specify one explicitly.
const DefaultWorkers = 4

// maxLocationCandidates bounds how many surviving candidates
// DiscoverLocationAddress will accept before refusing to guess.
const maxLocationCandidates = 4

// DiscoverLocationAddress implements spec.md §4.4: snapshot the VM (already
// run to its first suspension), apply openingPath one command at a time
// (snapshotting after each), diff every adjacent pair, and return the
// lowest address that changed across every step. start is not mutated; all
// stepping happens on a clone.
func DiscoverLocationAddress(ctx context.Context, start *vm.VM, openingPath []string) (uint16, error) {
	cur := snapshot.Clone(start)
	snaps := []snapshot.Snapshot{snapshot.Take(cur)}
	for _, cmd := range openingPath {
		cur.Send(ctx, cmd)
		snaps = append(snaps, snapshot.Take(cur))
	}

	if len(snaps) < 2 {
		return 0, ErrNoLocationAddr
	}

	var common map[int]bool
	for i := 0; i+1 < len(snaps); i++ {
		d := snapshot.Diff(snaps[i], snaps[i+1])
		step := make(map[int]bool, len(d.Mem))
		for _, id := range d.Mem {
			step[id.Index] = true
		}
		if common == nil {
			common = step
			continue
		}
		for addr := range common {
			if !step[addr] {
				delete(common, addr)
			}
		}
	}

	if len(common) == 0 {
		return 0, ErrNoLocationAddr
	}
	if len(common) > maxLocationCandidates {
		return 0, ErrAmbiguousCandidate
	}

	addrs := make([]int, 0, len(common))
	for addr := range common {
		addrs = append(addrs, addr)
	}
	sort.Ints(addrs)
	return uint16(addrs[0]), nil
}

// DiscoverItemFlags clones each location's VM and, for each item the caller
// says is visible there, sends `take <item>` and diffs against the
// pre-take state; the memory cell whose old value is nonzero and new value
// is zero is that item's inventory-flag address (spec.md §4.6).
func DiscoverItemFlags(ctx context.Context, states map[uint16]*vm.VM, items map[uint16][]string) (map[string]uint16, error) {
	flags := map[string]uint16{}
	for loc, names := range items {
		v, ok := states[loc]
		if !ok {
			continue
		}
		before := snapshot.Take(v)
		for _, item := range names {
			clone := snapshot.Clone(v)
			clone.Send(ctx, "take "+item)
			after := snapshot.Take(clone)

			addr, err := firstTruthyToFalsy(snapshot.Diff(before, after).Mem)
			if err != nil {
				return nil, fmt.Errorf("explore: discovering flag for %q: %w", item, err)
			}
			flags[item] = addr
		}
	}
	return flags, nil
}

func firstTruthyToFalsy(deltas []snapshot.IndexDelta) (uint16, error) {
	for _, d := range deltas {
		if d.Old != 0 && d.New == 0 {
			return uint16(d.Index), nil
		}
	}
	return 0, ErrNoItemFlag
}

// Explore runs the BFS from spec.md §4.6's pseudocode: starting from
// start's current state (already positioned so that locAddr reads the
// current room id), expand every room's exits, following each clone's
// neighbor once and keying on its location word. workers bounds how many
// exits of a single node are followed concurrently; each follow owns an
// independent clone, so there is no shared state to race on (spec.md §5
// "clones do not share state").
func Explore(ctx context.Context, start *vm.VM, locAddr uint16, workers int) (*Graph, error) {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	g := &Graph{
		Edges:        map[uint16][]Edge{},
		Descriptions: map[uint16]string{},
	}

	startLoc, err := location(start, locAddr)
	if err != nil {
		return nil, err
	}
	g.Descriptions[startLoc] = start.Peek()

	seen := map[uint16]*vm.VM{startLoc: start}
	frontier := []State{{VM: start, Location: startLoc}}

	for len(frontier) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cur := frontier[0]
		frontier = frontier[1:]

		neighbors, err := expandNeighbors(ctx, cur.VM, locAddr, workers)
		if err != nil {
			return nil, err
		}

		for _, n := range neighbors {
			g.Edges[cur.Location] = append(g.Edges[cur.Location], Edge{To: n.state.Location, Direction: n.direction})
			if _, ok := seen[n.state.Location]; !ok {
				g.Descriptions[n.state.Location] = n.description
				seen[n.state.Location] = n.state.VM
				frontier = append(frontier, n.state)
			}
		}
	}

	return g, nil
}

type neighborResult struct {
	direction   string
	state       State
	description string
}

// expandNeighbors implements spec.md §4.6's neighbors(v): clone v, discard
// its buffered output, send `look`, parse exits, then for each exit clone
// again and send that direction. Exits of the same node are followed
// concurrently, bounded by workers.
func expandNeighbors(ctx context.Context, v *vm.VM, locAddr uint16, workers int) ([]neighborResult, error) {
	lookClone := snapshot.Clone(v)
	lookClone.Read()
	lookClone.Send(ctx, "look")
	exits, err := scrape.ParseExits(lookClone.Peek())
	if err != nil {
		return nil, fmt.Errorf("explore: parsing exits: %w", err)
	}

	results := make([]neighborResult, len(exits))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)

	for i, dir := range exits {
		i, dir := i, dir
		eg.Go(func() error {
			n := snapshot.Clone(v)
			n.Send(ctx, dir)
			loc, err := location(n, locAddr)
			if err != nil {
				return err
			}
			results[i] = neighborResult{direction: dir, state: State{VM: n, Location: loc}, description: n.Peek()}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func location(v *vm.VM, addr uint16) (uint16, error) {
	val, err := v.Mem.Get(addr)
	if err != nil {
		return 0, fmt.Errorf("explore: reading location word @%d: %w", addr, err)
	}
	return val, nil
}

// GiveAll writes zero to every address in addrs, matching the observed
// (but semantically opaque, per spec.md §9) effect of granting inventory.
// A write failure (an address past the image's bounds) is reported rather
// than swallowed, but does not stop writes to the remaining addresses.
func GiveAll(v *vm.VM, addrs []uint16) error {
	var errs []error
	for _, addr := range addrs {
		if err := v.Mem.Set(addr, 0); err != nil {
			errs = append(errs, fmt.Errorf("explore: giveall @%d: %w", addr, err))
		}
	}
	return errors.Join(errs...)
}
