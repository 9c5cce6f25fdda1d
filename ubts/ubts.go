// Package ubts unfolds an NBAIC into a tree-shaped, history-tagged
// transition system (spec.md §4.4): repeated visits to the same
// information state along different histories are kept as distinct
// nodes, which is what lets the outer synthesis loop graft a longer,
// more permissive decision string onto one specific branch without
// disturbing the rest of the tree.
package ubts

import (
	"fmt"

	"github.com/desctl/desctl/errs"
	"github.com/desctl/desctl/fsm"
	"github.com/desctl/desctl/lds"
	"github.com/desctl/desctl/nbaic"
)

// YHandle and ZHandle are stable integer handles into the UBTS's own node
// arenas, distinct from the NBAIC handles they reference (spec.md §9).
type YHandle int
type ZHandle int

const noParent ZHandle = -1

// YNode is an unfolded information state: the NBAIC Y-state it labels,
// plus the event history that reached it.
type YNode struct {
	Handle   YHandle
	NBAICY   nbaic.YHandle
	History  []fsm.EventID
	Parent   ZHandle // noParent for the root
	Children []ZHandle
}

// ZNode is an unfolded decision beneath some YNode.
type ZNode struct {
	Handle      ZHandle
	NBAICZ      nbaic.ZHandle
	Source      YHandle
	Events      []fsm.EventID
	YSuccessors map[fsm.EventID]YHandle
}

// UBTS is the unfolding itself, rooted at UR({x0}).
type UBTS struct {
	N    *nbaic.NBAIC
	Root YHandle

	yNodes []*YNode
	zNodes []*ZNode

	frontier  []YHandle // Y-leaves not yet expanded
	entrances map[YHandle]bool
}

// New creates a UBTS with only its root node populated. Callers call
// Expand to unfold the first level.
func New(n *nbaic.NBAIC) *UBTS {
	u := &UBTS{N: n, entrances: make(map[YHandle]bool)}
	root := &YNode{Handle: 0, NBAICY: n.Root, Parent: noParent}
	u.yNodes = []*YNode{root}
	u.frontier = []YHandle{0}
	return u
}

func (u *UBTS) YNode(h YHandle) *YNode { return u.yNodes[h] }
func (u *UBTS) ZNode(h ZHandle) *ZNode { return u.zNodes[h] }

// YNodes returns every Y-node created so far, in creation order.
func (u *UBTS) YNodes() []*YNode { return u.yNodes }

// ZNodes returns every Z-node created so far, in creation order.
func (u *UBTS) ZNodes() []*ZNode { return u.zNodes }

// Size reports node counts for scalability reporting (SPEC_FULL.md §C.2).
func (u *UBTS) Size() (yCount, zCount int) { return len(u.yNodes), len(u.zNodes) }

// Expand unfolds the current frontier by one level: every Y-leaf gets a
// Z-child for each of its underlying NBAIC Y-state's live decisions, and
// a Y-grandchild for each event in that decision. A branch whose NBAIC
// Y-handle already occurred among its own ancestors is left unexpanded —
// the NBAIC is only acyclic once "stratified by depth" (spec.md §4.4);
// this is the stratification boundary, and it is what keeps Expand from
// unfolding an information-state cycle forever. Returns the number of new
// Y-nodes created.
func (u *UBTS) Expand() int {
	pending := u.frontier
	u.frontier = nil
	created := 0
	for _, yh := range pending {
		y := u.yNodes[yh]
		if u.ancestryRepeats(y) {
			continue
		}
		ny := u.N.YNode(y.NBAICY)
		if !ny.Alive() {
			continue
		}
		for _, zh := range ny.Zs {
			nz := u.N.ZNode(zh)
			if !nz.Alive() {
				continue
			}
			uzh := u.spliceZChild(yh, zh, nz.Events)
			for _, e := range nz.Events {
				childNBAICY, ok := nz.YSuccessors[e]
				if !ok {
					continue
				}
				childY, isNew := u.internYChild(uzh, e, childNBAICY, yh)
				if isNew {
					u.frontier = append(u.frontier, childY)
					created++
				}
			}
		}
	}
	return created
}

func (u *UBTS) ancestryRepeats(y *YNode) bool {
	target := y.NBAICY
	cur := y.Parent
	for cur != noParent {
		z := u.zNodes[cur]
		py := u.yNodes[z.Source]
		if py.NBAICY == target {
			return true
		}
		cur = py.Parent
	}
	return false
}

// Augment splices a live decision string beneath the UBTS Y-node at
// entrance, replacing any sibling Z whose event set the spliced decision
// strictly dominates (spec.md §4.4). entranceY's underlying NBAIC handle
// must match the head of l, matching the "LDS whose head does not match
// the entrance" InternalInvariantViolation case (spec.md §7).
func (u *UBTS) Augment(entrance YHandle, l *lds.LDS) error {
	if u.yNodes[entrance].NBAICY != l.Entrance {
		return errs.New(errs.InternalInvariantViolation, "ubts.Augment",
			fmt.Errorf("live decision string head does not match entrance state"))
	}
	cur := entrance
	for _, step := range l.Steps {
		nz := u.N.ZNode(step.Z)
		zh := u.spliceZChild(cur, step.Z, nz.Events)
		childY, isNew := u.internYChild(zh, step.Event, step.NextY, cur)
		if isNew {
			u.frontier = append(u.frontier, childY)
		}
		cur = childY
	}
	return nil
}

// spliceZChild attaches (or reuses) a Z-child under parent labeled by
// nbaicZ/events, removing any existing sibling whose event set is a
// strict subset of events and reusing any existing sibling whose event
// set is an exact match or a strict superset (spec.md §4.4: "previously
// sibling Z-subtrees whose decisions are dominated are removed").
func (u *UBTS) spliceZChild(parent YHandle, nbaicZ nbaic.ZHandle, events []fsm.EventID) ZHandle {
	py := u.yNodes[parent]
	var kept []ZHandle
	reuse := ZHandle(-1)
	for _, ch := range py.Children {
		cz := u.zNodes[ch]
		switch {
		case sameEventSet(cz.Events, events):
			reuse = ch
			kept = append(kept, ch)
		case isStrictSuperset(events, cz.Events):
			// new decision dominates this sibling; drop it
			continue
		case isStrictSuperset(cz.Events, events):
			reuse = ch
			kept = append(kept, ch)
		default:
			kept = append(kept, ch)
		}
	}
	py.Children = kept
	if reuse >= 0 {
		return reuse
	}
	zh := ZHandle(len(u.zNodes))
	u.zNodes = append(u.zNodes, &ZNode{
		Handle:      zh,
		NBAICZ:      nbaicZ,
		Source:      parent,
		Events:      events,
		YSuccessors: make(map[fsm.EventID]YHandle),
	})
	py.Children = append(py.Children, zh)
	return zh
}

func (u *UBTS) internYChild(zh ZHandle, event fsm.EventID, nbaicY nbaic.YHandle, parent YHandle) (YHandle, bool) {
	z := u.zNodes[zh]
	if existing, ok := z.YSuccessors[event]; ok {
		return existing, false
	}
	py := u.yNodes[parent]
	hist := make([]fsm.EventID, len(py.History)+1)
	copy(hist, py.History)
	hist[len(py.History)] = event
	yh := YHandle(len(u.yNodes))
	u.yNodes = append(u.yNodes, &YNode{Handle: yh, NBAICY: nbaicY, History: hist, Parent: zh})
	z.YSuccessors[event] = yh
	return yh, true
}

// MarkEntrance records that h was an entrance state at some point in the
// outer loop, for the EBTS writer (SPEC_FULL.md §C.4).
func (u *UBTS) MarkEntrance(h YHandle) { u.entrances[h] = true }

// WasEntrance reports whether h was ever marked by MarkEntrance.
func (u *UBTS) WasEntrance(h YHandle) bool { return u.entrances[h] }

func sameEventSet(a, b []fsm.EventID) bool {
	return len(a) == len(b) && isSuperset(a, b)
}

func isSuperset(a, b []fsm.EventID) bool {
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

func isStrictSuperset(a, b []fsm.EventID) bool {
	return len(a) > len(b) && isSuperset(a, b)
}
