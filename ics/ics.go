// Package ics projects a UBTS onto the plant FSM to form the
// Information-Consistent Subsystem (spec.md §4.5): the synchronous
// product ⟨UBTS-Y-node, plant-state⟩ used to detect entrance states and,
// once none remain, to emit the final A_UxG product automaton.
package ics

import (
	"fmt"
	"sort"

	"github.com/desctl/desctl/fsm"
	"github.com/desctl/desctl/ubts"
)

// Pair is one ICS vertex.
type Pair struct {
	U ubts.YHandle
	X fsm.StateID
}

type transition struct {
	from  Pair
	event fsm.EventID
	to    Pair
}

// ICS is a fresh, read-only view recomputed from the current UBTS and
// plant on every call to Project (spec.md §3, "Lifecycle": "ICS is
// recomputed from scratch after every UBTS augmentation").
type ICS struct {
	u *ubts.UBTS
	f *fsm.FSM

	pairs        []Pair
	index        map[Pair]int
	coAccessible map[Pair]bool
	trans        []transition
	reachable    map[ubts.YHandle]bool
}

// reachableYNodes computes the set of UBTS Y-nodes still reachable from
// the root by walking live Children/YSuccessors links. spliceZChild's
// dominated-sibling removal can leave an earlier Y/Z subtree allocated
// but unlinked from any parent; those orphans are not part of the live
// UBTS (spec.md §3: entrance states are "reachable from the root of the
// UBTS") and must not surface as ICS pairs or entrance candidates.
func reachableYNodes(u *ubts.UBTS) map[ubts.YHandle]bool {
	reach := map[ubts.YHandle]bool{u.Root: true}
	queue := []ubts.YHandle{u.Root}
	for len(queue) > 0 {
		yh := queue[0]
		queue = queue[1:]
		y := u.YNode(yh)
		for _, zh := range y.Children {
			z := u.ZNode(zh)
			for _, childY := range z.YSuccessors {
				if !reach[childY] {
					reach[childY] = true
					queue = append(queue, childY)
				}
			}
		}
	}
	return reach
}

// Project builds the ICS for the current state of u against f.
func Project(u *ubts.UBTS, f *fsm.FSM) *ICS {
	c := &ICS{u: u, f: f, index: make(map[Pair]int)}
	c.reachable = reachableYNodes(u)

	for _, y := range u.YNodes() {
		if !c.reachable[y.Handle] {
			continue
		}
		ny := u.N.YNode(y.NBAICY)
		for _, x := range ny.IState.Slice() {
			p := Pair{U: y.Handle, X: x}
			c.index[p] = len(c.pairs)
			c.pairs = append(c.pairs, p)
		}
	}

	for _, y := range u.YNodes() {
		if !c.reachable[y.Handle] {
			continue
		}
		ny := u.N.YNode(y.NBAICY)
		for _, zh := range y.Children {
			z := u.ZNode(zh)
			for e, childH := range z.YSuccessors {
				childY := u.YNode(childH)
				childNY := u.N.YNode(childY.NBAICY)
				for _, x := range ny.IState.Slice() {
					to, ok := f.Next(x, e)
					if !ok || !childNY.IState.Contains(to) {
						continue
					}
					c.trans = append(c.trans, transition{
						from:  Pair{U: y.Handle, X: x},
						event: e,
						to:    Pair{U: childY.Handle, X: to},
					})
				}
			}
		}
	}

	c.coAccessible = coAccess(c, f)
	return c
}

func coAccess(c *ICS, f *fsm.FSM) map[Pair]bool {
	reach := make(map[Pair]bool, len(c.pairs))
	for _, p := range c.pairs {
		if f.IsMarked(p.X) {
			reach[p] = true
		}
	}
	// reverse adjacency: to -> []from
	rev := make(map[Pair][]Pair)
	for _, t := range c.trans {
		rev[t.to] = append(rev[t.to], t.from)
	}
	queue := make([]Pair, 0, len(reach))
	for p := range reach {
		queue = append(queue, p)
	}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		for _, from := range rev[p] {
			if !reach[from] {
				reach[from] = true
				queue = append(queue, from)
			}
		}
	}
	return reach
}

// Pairs returns every ICS vertex discovered during Project, in the order
// their UBTS Y-node was created.
func (c *ICS) Pairs() []Pair { return c.pairs }

// CoAccessible reports whether p can reach a marked plant companion.
func (c *ICS) CoAccessible(p Pair) bool { return c.coAccessible[p] }

// GetEntranceState returns the shallowest UBTS Y-node (ties broken by
// insertion/handle order) none of whose ICS pairs are co-accessible
// (spec.md §4.4). ok is false once every reachable Y-node has at least
// one co-accessible plant companion.
func (c *ICS) GetEntranceState() (ubts.YHandle, bool) {
	type candidate struct {
		h     ubts.YHandle
		depth int
	}
	var candidates []candidate
	for _, y := range c.u.YNodes() {
		if !c.reachable[y.Handle] {
			continue
		}
		ny := c.u.N.YNode(y.NBAICY)
		anyCoAccessible := false
		for _, x := range ny.IState.Slice() {
			if c.coAccessible[Pair{U: y.Handle, X: x}] {
				anyCoAccessible = true
				break
			}
		}
		if !anyCoAccessible {
			candidates = append(candidates, candidate{h: y.Handle, depth: len(y.History)})
		}
	}
	if len(candidates) == 0 {
		return 0, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].depth != candidates[j].depth {
			return candidates[i].depth < candidates[j].depth
		}
		return candidates[i].h < candidates[j].h
	})
	return candidates[0].h, true
}

// ToFSM renders the ICS as a standalone plant-shaped FSM labeled by
// ⟨u,x⟩ pair identifiers: the raw A_UxG product automaton (spec.md §4.5).
// A state is marked iff its plant component is marked. Reduction to a
// minimized equivalent is fsmio's job, not this package's.
func (c *ICS) ToFSM() *fsm.FSM {
	root := Pair{U: c.u.Root, X: c.u.N.FSM.Initial()}
	out := fsm.New(pairID(root))
	for _, p := range c.pairs {
		out.AddState(fsm.State{ID: pairID(p), Marked: c.f.IsMarked(p.X), Regular: true})
	}
	seenEvents := make(map[fsm.EventID]bool)
	for _, e := range c.f.Events() {
		if !seenEvents[e.ID] {
			out.AddEvent(e)
			seenEvents[e.ID] = true
		}
	}
	for _, t := range c.trans {
		_ = out.AddTransition(pairID(t.from), t.event, pairID(t.to))
	}
	return out
}

func pairID(p Pair) fsm.StateID {
	return fsm.StateID(fmt.Sprintf("u%d:%s", p.U, p.X))
}
