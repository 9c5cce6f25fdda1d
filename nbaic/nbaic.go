// Package nbaic builds and prunes the Non-Blocking All-Inclusive
// Controller/Observer: the bipartite Y/Z reachability graph of
// information states and candidate decisions (spec.md §4.3).
package nbaic

import (
	"log/slog"

	"github.com/desctl/desctl/fsm"
	"github.com/desctl/desctl/isp"
)

// Mode selects which kind of Z-decision the builder enumerates.
type Mode int

const (
	// BSCOPNBMAX: Z is a control decision — a set of enabled controllable
	// events; feasible uncontrollable events are always implicitly
	// included.
	BSCOPNBMAX Mode = iota
	// MPO: Z is an activation decision — the subset of observable-capable
	// events currently chosen to be observed.
	MPO
)

// YHandle and ZHandle are stable integer handles into the NBAIC's node
// arenas (spec.md §9: "cross-references are handles, not pointers").
type YHandle int
type ZHandle int

// YNode is an information state plus its surviving admissible decisions.
type YNode struct {
	Handle YHandle
	IState fsm.StateSet
	Zs     []ZHandle // admissible Z successors, insertion order
	alive  bool
}

// Alive reports whether this Y-state survived pruning.
func (y *YNode) Alive() bool { return y.alive }

// ZNode is a decision: the set of events it enables/activates, and the
// Y-successor reached for each.
type ZNode struct {
	Handle      ZHandle
	Source      YHandle
	Events      []fsm.EventID // the decision itself, in FSM event order
	YSuccessors map[fsm.EventID]YHandle
	alive       bool
}

// Alive reports whether this decision survived pruning.
func (z *ZNode) Alive() bool { return z.alive }

// Dismiss marks a decision as no longer chosen. Used by mpo.Reduce to
// remove unchosen Z siblings once a min/max activation policy has been
// picked at a Y-state (spec.md §4.6).
func (z *ZNode) Dismiss() { z.alive = false }

// EventSet returns the decision's events as a set for membership tests.
func (z *ZNode) EventSet() map[fsm.EventID]bool {
	out := make(map[fsm.EventID]bool, len(z.Events))
	for _, e := range z.Events {
		out[e] = true
	}
	return out
}

// NBAIC is the bipartite Y/Z graph (spec.md §3).
type NBAIC struct {
	FSM  *fsm.FSM
	ISP  *isp.Property
	Mode Mode

	Root YHandle

	yNodes []*YNode
	zNodes []*ZNode
	yIndex map[string]YHandle // keyed by IState.Key()

	log *slog.Logger
}

// YNode returns the node for handle h.
func (n *NBAIC) YNode(h YHandle) *YNode { return n.yNodes[h] }

// ZNode returns the node for handle h.
func (n *NBAIC) ZNode(h ZHandle) *ZNode { return n.zNodes[h] }

// YNodes returns all Y-nodes in insertion order (including pruned ones —
// callers that want only surviving nodes should check Alive()).
func (n *NBAIC) YNodes() []*YNode { return n.yNodes }

// ZNodes returns all Z-nodes in insertion order.
func (n *NBAIC) ZNodes() []*ZNode { return n.zNodes }

// IsEmpty reports whether the root survived pruning (spec.md §4.3
// contract).
func (n *NBAIC) IsEmpty() bool {
	return !n.yNodes[n.Root].alive
}

// Size returns the number of surviving Y-nodes and Z-nodes, for
// scalability reporting (spec.md §C.2's print_size_info carryover).
func (n *NBAIC) Size() (yCount, zCount int) {
	for _, y := range n.yNodes {
		if y.alive {
			yCount++
		}
	}
	for _, z := range n.zNodes {
		if z.alive {
			zCount++
		}
	}
	return yCount, zCount
}

// FindYState looks up a Y-node by its information state, if one exists.
func (n *NBAIC) FindYState(I fsm.StateSet) (YHandle, bool) {
	h, ok := n.yIndex[I.Key()]
	return h, ok
}

// IsMarkedY reports whether any plant state in y's information state is
// marked — the "reaches a marked Y-node" test used by lds and ics.
func (n *NBAIC) IsMarkedY(y *YNode) bool {
	for _, x := range y.IState.Slice() {
		if n.FSM.IsMarked(x) {
			return true
		}
	}
	return false
}
