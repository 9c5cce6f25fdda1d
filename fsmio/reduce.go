package fsmio

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/desctl/desctl/fsm"
)

// ReduceAndWrite minimizes g by partition refinement (SPEC_FULL.md §C.3,
// the original's reduce_A_UxG) and writes the result in `.fsm` form. This
// is a Moore-style fixed point — classes start as {marked, unmarked} and
// are repeatedly split by transition signature until no split changes
// anything — rather than the full Hopcroft queue-driven variant; for the
// state counts this system produces the asymptotic difference doesn't
// matter, and the simpler fixed point matches this codebase's existing
// iterate-to-no-change idiom (see nbaic.prune, lds.canReachMarked).
func ReduceAndWrite(w io.Writer, g *fsm.FSM) error {
	reduced := reduce(g)
	return WriteFSM(w, reduced)
}

func reduce(g *fsm.FSM) *fsm.FSM {
	states := g.States()
	events := g.Events()

	class := make(map[fsm.StateID]int, len(states))
	for _, s := range states {
		if s.Marked {
			class[s.ID] = 1
		} else {
			class[s.ID] = 0
		}
	}

	for {
		sig := make(map[fsm.StateID]string, len(states))
		for _, s := range states {
			var b strings.Builder
			fmt.Fprintf(&b, "%d|", class[s.ID])
			for _, e := range events {
				if to, ok := g.Next(s.ID, e.ID); ok {
					fmt.Fprintf(&b, "%s:%d,", e.ID, class[to])
				} else {
					fmt.Fprintf(&b, "%s:-,", e.ID)
				}
			}
			sig[s.ID] = b.String()
		}

		next := make(map[fsm.StateID]int, len(states))
		seen := make(map[string]int)
		changed := false
		for _, s := range states {
			key := fmt.Sprintf("%d/%s", class[s.ID], sig[s.ID])
			id, ok := seen[key]
			if !ok {
				id = len(seen)
				seen[key] = id
			}
			next[s.ID] = id
			if next[s.ID] != class[s.ID] {
				changed = true
			}
		}
		class = next
		if !changed {
			break
		}
	}

	classRep := make(map[int]fsm.StateID)
	classMarked := make(map[int]bool)
	for _, s := range states {
		c := class[s.ID]
		if _, ok := classRep[c]; !ok || s.ID < classRep[c] {
			classRep[c] = s.ID
		}
		if s.Marked {
			classMarked[c] = true
		}
	}

	classIDs := make([]int, 0, len(classRep))
	for c := range classRep {
		classIDs = append(classIDs, c)
	}
	sort.Ints(classIDs)

	label := func(c int) fsm.StateID {
		return fsm.StateID(fmt.Sprintf("q%d", c))
	}

	out := fsm.New(label(class[g.Initial()]))
	for _, c := range classIDs {
		out.AddState(fsm.State{ID: label(c), Marked: classMarked[c], Regular: true})
	}
	for _, e := range events {
		out.AddEvent(e)
	}

	added := make(map[string]bool)
	for _, s := range states {
		from := class[s.ID]
		for _, e := range events {
			to, ok := g.Next(s.ID, e.ID)
			if !ok {
				continue
			}
			key := fmt.Sprintf("%d|%s|%d", from, e.ID, class[to])
			if added[key] {
				continue
			}
			added[key] = true
			_ = out.AddTransition(label(from), e.ID, label(class[to]))
		}
	}
	return out
}
