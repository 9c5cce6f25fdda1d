// Package lds computes live decision strings: witness paths through an
// NBAIC's Y/Z fabric from a designated entrance Y-state to a marked one
// (spec.md §4.4).
package lds

import (
	"sort"

	"github.com/desctl/desctl/fsm"
	"github.com/desctl/desctl/nbaic"
)

// Step is one Y→Z→Y segment of a live decision string.
type Step struct {
	Z     nbaic.ZHandle
	Event fsm.EventID
	NextY nbaic.YHandle
}

// LDS is a live decision string rooted at Entrance.
type LDS struct {
	Entrance nbaic.YHandle
	Steps    []Step
}

// ComputeMaximal finds the maximal live decision string from entrance to
// some marked Y-state (spec.md §4.4). At each Y along the path it picks,
// among the admissible Z-decisions whose subtree still reaches a marked
// state, one that is not a proper subset of any other such candidate
// (set-wise maximal); ties are broken lexicographically on the sorted
// event-id sequence, and the event followed within the chosen Z is the
// lexicographically smallest one whose successor still reaches a marked
// state, so the result is reproducible run to run. Returns ok=false if
// entrance cannot reach any marked Y-state at all.
func ComputeMaximal(n *nbaic.NBAIC, entrance nbaic.YHandle) (*LDS, bool) {
	reach := canReachMarked(n)
	if !reach[entrance] {
		return nil, false
	}

	out := &LDS{Entrance: entrance}
	cur := entrance
	visited := map[nbaic.YHandle]bool{cur: true}
	for {
		y := n.YNode(cur)
		if n.IsMarkedY(y) {
			return out, true
		}
		z, ok := pickMaximalZ(n, y, reach)
		if !ok {
			return nil, false
		}
		event, nextY, ok := pickEvent(z, reach)
		if !ok {
			return nil, false
		}
		out.Steps = append(out.Steps, Step{Z: z.Handle, Event: event, NextY: nextY})
		if visited[nextY] {
			// would loop forever without making progress toward a marked
			// state; the reachability check above guarantees this can't
			// happen for a well-formed NBAIC, but bail out defensively.
			return nil, false
		}
		visited[nextY] = true
		cur = nextY
	}
}

// CanReach reports whether some path of live Z/Y edges connects y to a
// marked Y-state at all. Exposed so callers can tell "this NBAIC has no
// marked state to reach anywhere" — a valid negative result (spec.md §8,
// "Empty Xm ⇒ NBAIC empty") — apart from ComputeMaximal failing on some
// specific entrance, which is the genuine bug case.
func CanReach(n *nbaic.NBAIC, y nbaic.YHandle) bool {
	return canReachMarked(n)[y]
}

// canReachMarked computes, for every alive Y-state, whether some path
// over alive Z/Y edges reaches a marked Y-state. Implemented as a
// monotone least fixed point — the dual of nbaic's pruning pass, which
// removes rather than adds — in the same iterate-to-no-change idiom.
func canReachMarked(n *nbaic.NBAIC) map[nbaic.YHandle]bool {
	reach := make(map[nbaic.YHandle]bool)
	for _, y := range n.YNodes() {
		if y.Alive() && n.IsMarkedY(y) {
			reach[y.Handle] = true
		}
	}
	changed := true
	for changed {
		changed = false
		for _, y := range n.YNodes() {
			if !y.Alive() || reach[y.Handle] {
				continue
			}
			if zReachesMarked(n, y, reach) {
				reach[y.Handle] = true
				changed = true
			}
		}
	}
	return reach
}

func zReachesMarked(n *nbaic.NBAIC, y *nbaic.YNode, reach map[nbaic.YHandle]bool) bool {
	for _, zh := range y.Zs {
		z := n.ZNode(zh)
		if !z.Alive() {
			continue
		}
		for _, child := range z.YSuccessors {
			if reach[child] {
				return true
			}
		}
	}
	return false
}

func pickMaximalZ(n *nbaic.NBAIC, y *nbaic.YNode, reach map[nbaic.YHandle]bool) (*nbaic.ZNode, bool) {
	var candidates []*nbaic.ZNode
	for _, zh := range y.Zs {
		z := n.ZNode(zh)
		if z.Alive() && zCanProgress(z, reach) {
			candidates = append(candidates, z)
		}
	}
	if len(candidates) == 0 {
		return nil, false
	}

	var maximal []*nbaic.ZNode
	for _, c := range candidates {
		dominated := false
		for _, other := range candidates {
			if other == c {
				continue
			}
			if isStrictSuperset(other.Events, c.Events) {
				dominated = true
				break
			}
		}
		if !dominated {
			maximal = append(maximal, c)
		}
	}
	sort.Slice(maximal, func(i, j int) bool {
		return lexKey(maximal[i].Events) < lexKey(maximal[j].Events)
	})
	return maximal[0], true
}

// zCanProgress reports whether following at least one of z's events
// reaches a Y-state on the path to a marked state.
func zCanProgress(z *nbaic.ZNode, reach map[nbaic.YHandle]bool) bool {
	for _, e := range z.Events {
		if y, ok := z.YSuccessors[e]; ok && reach[y] {
			return true
		}
	}
	return false
}

func pickEvent(z *nbaic.ZNode, reach map[nbaic.YHandle]bool) (fsm.EventID, nbaic.YHandle, bool) {
	events := append([]fsm.EventID(nil), z.Events...)
	sort.Slice(events, func(i, j int) bool { return events[i] < events[j] })
	for _, e := range events {
		if y, ok := z.YSuccessors[e]; ok && reach[y] {
			return e, y, true
		}
	}
	return "", 0, false
}

func isStrictSuperset(a, b []fsm.EventID) bool {
	if len(a) <= len(b) {
		return false
	}
	set := make(map[fsm.EventID]bool, len(a))
	for _, e := range a {
		set[e] = true
	}
	for _, e := range b {
		if !set[e] {
			return false
		}
	}
	return true
}

func lexKey(events []fsm.EventID) string {
	strs := make([]string, len(events))
	for i, e := range events {
		strs[i] = string(e)
	}
	sort.Strings(strs)
	key := ""
	for i, s := range strs {
		if i > 0 {
			key += ","
		}
		key += s
	}
	return key
}
