package nbaic

import (
	"log/slog"

	"github.com/desctl/desctl/fsm"
	"github.com/desctl/desctl/isp"
)

// Build performs the forward construction of spec.md §4.3: starting from
// Y-root = UR({x0}), enumerate admissible Z-decisions at each new
// Y-state, compute their Y-successors, and recurse until no new
// Y-states are discovered. The result is then pruned to its non-blocking
// greatest fixed point before being returned.
func Build(f *fsm.FSM, prop *isp.Property, mode Mode, log *slog.Logger) *NBAIC {
	if log == nil {
		log = slog.Default()
	}
	n := &NBAIC{
		FSM:    f,
		ISP:    prop,
		Mode:   mode,
		yIndex: make(map[string]YHandle),
	}

	root := f.UnobservableReach(fsm.NewStateSet(f.Initial()))
	n.Root = n.internYState(root)

	queue := []YHandle{n.Root}
	for len(queue) > 0 {
		h := queue[0]
		queue = queue[1:]
		y := n.yNodes[h]

		if prop != nil && !prop.Holds(y.IState) {
			log.Debug("y-state violates property, no admissible decisions", "y_state", y.IState.String())
			continue
		}

		for _, cand := range candidateDecisions(f, mode, y.IState) {
			if !admissible(f, prop, mode, y.IState, cand) {
				continue
			}
			z := n.newZNode(h, cand)
			for _, sigma := range cand {
				if mode == BSCOPNBMAX {
					ev, _ := f.Event(sigma)
					if !ev.Observable {
						// Unobservable events never appear in observer
						// transitions (spec.md §3): their images are already
						// folded into I by UnobservableReach, so they get no
						// Z->Y edge of their own.
						continue
					}
				}
				successor := stepSuccessor(f, mode, y.IState, sigma, cand)
				childHandle, isNew := n.internYStateNew(successor)
				z.YSuccessors[sigma] = childHandle
				if isNew {
					queue = append(queue, childHandle)
				}
			}
			y.Zs = append(y.Zs, z.Handle)
			log.Debug("admissible decision", "y_state", y.IState.String(), "z_events", cand)
		}
	}

	prune(n, log)
	return n
}

// candidateDecisions enumerates the Z-decisions spec.md §4.3 step 1
// considers, before ISP admissibility filtering.
func candidateDecisions(f *fsm.FSM, mode Mode, I fsm.StateSet) [][]fsm.EventID {
	switch mode {
	case BSCOPNBMAX:
		return bscopnbmaxCandidates(f, I)
	case MPO:
		return mpoCandidates(f, I)
	default:
		return nil
	}
}

// bscopnbmaxCandidates ranges Z over subsets of feasible events at I that
// contain every feasible uncontrollable event (required) and any subset
// of the remaining feasible controllable events (free choice).
func bscopnbmaxCandidates(f *fsm.FSM, I fsm.StateSet) [][]fsm.EventID {
	feasible := f.FeasibleEvents(I)
	var required, free []fsm.EventID
	for _, evID := range feasible {
		ev, _ := f.Event(evID)
		if ev.Controllable {
			free = append(free, evID)
		} else {
			required = append(required, evID)
		}
	}
	return powersetUnion(required, free, feasible)
}

// mpoCandidates ranges Z over every subset of the observable-capable
// events feasible at I; both controllable and uncontrollable events are
// always enabled (spec.md §4.3), so there is no required subset.
func mpoCandidates(f *fsm.FSM, I fsm.StateSet) [][]fsm.EventID {
	feasible := f.FeasibleEvents(I)
	var observable []fsm.EventID
	for _, evID := range feasible {
		ev, _ := f.Event(evID)
		if ev.Observable {
			observable = append(observable, evID)
		}
	}
	return powersetUnion(nil, observable, feasible)
}

// powersetUnion returns, for each subset of free (in the relative order
// the events appear in order), required ∪ subset, reconstructed in the
// canonical order order.
func powersetUnion(required, free, order []fsm.EventID) [][]fsm.EventID {
	reqSet := make(map[fsm.EventID]bool, len(required))
	for _, e := range required {
		reqSet[e] = true
	}
	n := len(free)
	out := make([][]fsm.EventID, 0, 1<<uint(n))
	for mask := 0; mask < (1 << uint(n)); mask++ {
		chosen := make(map[fsm.EventID]bool, len(required)+n)
		for e := range reqSet {
			chosen[e] = true
		}
		for i, e := range free {
			if mask&(1<<uint(i)) != 0 {
				chosen[e] = true
			}
		}
		var z []fsm.EventID
		for _, e := range order {
			if chosen[e] {
				z = append(z, e)
			}
		}
		out = append(out, z)
	}
	return out
}

// admissible checks spec.md §4.3 step 1's ISP consistency condition
// against every reachable successor of a candidate Z, and (resolving an
// ambiguity the literal text leaves open — see DESIGN.md) additionally
// requires the origin Y-state itself to satisfy the property, since
// otherwise a childless Z={} would vacuously "admit" a Y-state that is
// already unsafe/non-opaque, and a plant whose initial reach is entirely
// forbidden would not yield an empty NBAIC. Neither Build nor prune
// consults Xm: a plant with no reachable marked state still yields a
// non-empty NBAIC, and that case is reported as errs.Infeasible by
// synth.Synthesize instead.
//
// For MPO it also checks the property against the closure reached by
// letting every currently-deactivated event fire silently (zMask below),
// since under MPO the choice of Z changes which events are hidden even
// before any of the activated ones are observed; a Z={} that hides
// everything still has to answer for where that silence leads, not just
// for the events it doesn't enable.
func admissible(f *fsm.FSM, prop *isp.Property, mode Mode, I fsm.StateSet, z []fsm.EventID) bool {
	if prop == nil {
		return true
	}
	if !prop.Holds(I) {
		return false
	}
	if mode == MPO && !prop.Holds(f.CloseUnderHidden(I, zMask(z))) {
		return false
	}
	for _, sigma := range z {
		successor := stepSuccessor(f, mode, I, sigma, z)
		if !prop.Holds(successor) {
			return false
		}
	}
	return true
}

// zMask returns z as a membership set, for CloseUnderHidden's "hidden =
// not activated" test.
func zMask(z []fsm.EventID) map[fsm.EventID]bool {
	mask := make(map[fsm.EventID]bool, len(z))
	for _, e := range z {
		mask[e] = true
	}
	return mask
}

// stepSuccessor computes the Y-successor of I under event sigma given
// decision z (spec.md §4.3 step 2 combined with the Data Model §3
// invariant that only observable events change the observer's belief;
// unobservable events' images are already folded into I by closure, so
// their "successor" is I itself).
func stepSuccessor(f *fsm.FSM, mode Mode, I fsm.StateSet, sigma fsm.EventID, z []fsm.EventID) fsm.StateSet {
	var images []fsm.StateID
	for _, x := range I.Slice() {
		if y, ok := f.Next(x, sigma); ok {
			images = append(images, y)
		}
	}
	seed := fsm.NewStateSet(images...)

	if mode == BSCOPNBMAX {
		if ev, _ := f.Event(sigma); !ev.Observable {
			return I
		}
	}
	if mode == MPO {
		return f.CloseUnderHidden(seed, zMask(z))
	}
	return f.UnobservableReach(seed)
}

func (n *NBAIC) internYState(I fsm.StateSet) YHandle {
	h, _ := n.internYStateNew(I)
	return h
}

func (n *NBAIC) internYStateNew(I fsm.StateSet) (YHandle, bool) {
	if h, ok := n.yIndex[I.Key()]; ok {
		return h, false
	}
	h := YHandle(len(n.yNodes))
	n.yNodes = append(n.yNodes, &YNode{Handle: h, IState: I, alive: true})
	n.yIndex[I.Key()] = h
	return h, true
}

func (n *NBAIC) newZNode(source YHandle, events []fsm.EventID) *ZNode {
	h := ZHandle(len(n.zNodes))
	z := &ZNode{
		Handle:      h,
		Source:      source,
		Events:      events,
		YSuccessors: make(map[fsm.EventID]YHandle, len(events)),
		alive:       true,
	}
	n.zNodes = append(n.zNodes, z)
	return z
}
