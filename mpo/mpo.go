// Package mpo extracts a minimal- or maximal-cost sensor activation
// policy from an NBAIC built in MPO mode (spec.md §4.6).
package mpo

import (
	"sort"

	"github.com/desctl/desctl/fsm"
	"github.com/desctl/desctl/nbaic"
)

// Condition selects which extreme of the activation-count ordering to
// keep at each Y-state.
type Condition int

const (
	Min Condition = iota
	Max
)

// Reduce keeps, at every surviving Y-state, exactly one Z-decision: the
// smallest (Min) or largest (Max) by number of activated events, ties
// broken lexicographically on the event-id sequence (spec.md §4.6). All
// sibling Z-decisions are pruned. n must have been built with
// nbaic.MPO and must not be empty; Reduce mutates n in place and returns
// it, matching the reduce_mpo(nbaic, condition) -> NBAIC façade contract
// (spec.md §6).
//
// Every Z-decision still alive after NBAIC.Build's own pruning already
// has a live continuation for each of its enabled events (that is what
// non-blocking pruning guarantees), so picking any surviving Z at a
// Y-state keeps the rooted sub-structure non-empty; Reduce only has to
// choose among the survivors, not re-verify feasibility.
func Reduce(n *nbaic.NBAIC, condition Condition) *nbaic.NBAIC {
	for _, y := range n.YNodes() {
		if !y.Alive() {
			continue
		}
		winner, ok := pick(n, y, condition)
		if !ok {
			continue
		}
		for _, zh := range y.Zs {
			if zh != winner {
				n.ZNode(zh).Dismiss()
			}
		}
	}
	return n
}

func pick(n *nbaic.NBAIC, y *nbaic.YNode, condition Condition) (nbaic.ZHandle, bool) {
	var best *nbaic.ZNode
	var bestHandle nbaic.ZHandle
	found := false
	for _, zh := range y.Zs {
		z := n.ZNode(zh)
		if !z.Alive() {
			continue
		}
		if !found || better(z, best, condition) {
			best = z
			bestHandle = zh
			found = true
		}
	}
	return bestHandle, found
}

// better reports whether candidate beats incumbent under condition,
// breaking ties lexicographically on the sorted event-id sequence.
func better(candidate, incumbent *nbaic.ZNode, condition Condition) bool {
	cLen, iLen := len(candidate.Events), len(incumbent.Events)
	if cLen != iLen {
		if condition == Min {
			return cLen < iLen
		}
		return cLen > iLen
	}
	return lexLess(candidate.Events, incumbent.Events)
}

// lexLess compares two equal-length event-id sequences lexicographically
// on their sorted string form.
func lexLess(a, b []fsm.EventID) bool {
	as := sortedStrings(a)
	bs := sortedStrings(b)
	for i := range as {
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return false
}

func sortedStrings(events []fsm.EventID) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = string(e)
	}
	sort.Strings(out)
	return out
}
