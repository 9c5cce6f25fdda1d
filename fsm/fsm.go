// Package fsm models the plant: a deterministic finite-state machine
// whose events are independently classified as observable/unobservable
// and controllable/uncontrollable.
package fsm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/desctl/desctl/errs"
)

// StateID identifies a plant state.
type StateID string

// EventID identifies an event.
type EventID string

// State is a plant state: marked states belong to Xm, regular states are
// the non-virtual initial population (spec.md §2, C1).
type State struct {
	ID      StateID
	Marked  bool
	Regular bool
}

// Event carries the two independent attributes that matter to synthesis:
// whether an observer can see it occur, and whether a supervisor can
// prevent it.
type Event struct {
	ID           EventID
	Observable   bool
	Controllable bool
}

// FSM is the tuple ⟨States, Events, δ, x0, Xm⟩ from spec.md §3. δ is a
// partial deterministic function State×Event → State. Enumeration order
// for states and events follows insertion order everywhere, so that two
// builds from the same input produce byte-identical NBAIC/UBTS/ICS
// output (spec.md §5, Determinism).
type FSM struct {
	states     map[StateID]*State
	stateOrder []StateID
	events     map[EventID]*Event
	eventOrder []EventID
	delta      map[StateID]map[EventID]StateID
	initial    StateID
}

// New creates an empty FSM. States and events are added with AddState and
// AddEvent, and must be declared before AddTransition references them:
// AddTransition does not register anything implicitly and returns
// InconsistentModel for an undeclared state or event.
func New(initial StateID) *FSM {
	return &FSM{
		states:  make(map[StateID]*State),
		events:  make(map[EventID]*Event),
		delta:   make(map[StateID]map[EventID]StateID),
		initial: initial,
	}
}

// AddState registers a state if not already present.
func (f *FSM) AddState(s State) {
	if _, ok := f.states[s.ID]; ok {
		return
	}
	cp := s
	f.states[s.ID] = &cp
	f.stateOrder = append(f.stateOrder, s.ID)
}

// AddEvent registers an event if not already present.
func (f *FSM) AddEvent(e Event) {
	if _, ok := f.events[e.ID]; ok {
		return
	}
	cp := e
	f.events[e.ID] = &cp
	f.eventOrder = append(f.eventOrder, e.ID)
}

// AddTransition registers δ(from, ev) = to. Returns InconsistentModel if
// from/to/ev were never declared, or if δ(from, ev) is already defined to
// something else (δ is required to be a partial function).
func (f *FSM) AddTransition(from StateID, ev EventID, to StateID) error {
	if _, ok := f.states[from]; !ok {
		return errs.New(errs.InconsistentModel, "AddTransition", fmt.Errorf("undeclared source state %q", from))
	}
	if _, ok := f.states[to]; !ok {
		return errs.New(errs.InconsistentModel, "AddTransition", fmt.Errorf("undeclared target state %q", to))
	}
	if _, ok := f.events[ev]; !ok {
		return errs.New(errs.InconsistentModel, "AddTransition", fmt.Errorf("undeclared event %q", ev))
	}
	row, ok := f.delta[from]
	if !ok {
		row = make(map[EventID]StateID)
		f.delta[from] = row
	}
	if existing, ok := row[ev]; ok && existing != to {
		return errs.New(errs.InconsistentModel, "AddTransition", fmt.Errorf("delta(%s,%s) already defined as %s", from, ev, existing))
	}
	row[ev] = to
	return nil
}

// Initial returns the unique initial state x0.
func (f *FSM) Initial() StateID { return f.initial }

// Next returns δ(x, σ) and whether it is defined (σ feasible at x).
func (f *FSM) Next(x StateID, sigma EventID) (StateID, bool) {
	row, ok := f.delta[x]
	if !ok {
		return "", false
	}
	y, ok := row[sigma]
	return y, ok
}

// IsMarked reports x ∈ Xm.
func (f *FSM) IsMarked(x StateID) bool {
	s, ok := f.states[x]
	return ok && s.Marked
}

// State returns the declared state record, if any.
func (f *FSM) State(x StateID) (State, bool) {
	s, ok := f.states[x]
	if !ok {
		return State{}, false
	}
	return *s, true
}

// Event returns the declared event record, if any.
func (f *FSM) Event(sigma EventID) (Event, bool) {
	e, ok := f.events[sigma]
	if !ok {
		return Event{}, false
	}
	return *e, true
}

// Events returns all declared events in insertion order.
func (f *FSM) Events() []Event {
	out := make([]Event, 0, len(f.eventOrder))
	for _, id := range f.eventOrder {
		out = append(out, *f.events[id])
	}
	return out
}

// States returns all declared states in insertion order.
func (f *FSM) States() []State {
	out := make([]State, 0, len(f.stateOrder))
	for _, id := range f.stateOrder {
		out = append(out, *f.states[id])
	}
	return out
}

// FeasibleEvents returns, in insertion order, every event feasible at
// some member of I.
func (f *FSM) FeasibleEvents(I StateSet) []EventID {
	var out []EventID
	for _, evID := range f.eventOrder {
		feasible := false
		for _, x := range I.members {
			if _, ok := f.Next(x, evID); ok {
				feasible = true
				break
			}
		}
		if feasible {
			out = append(out, evID)
		}
	}
	return out
}

// UnobservableReach computes UR(S): the least set containing S closed
// under δ(·, σ) for every unobservable σ (spec.md §4.1). It terminates
// because the state space is finite.
func (f *FSM) UnobservableReach(S StateSet) StateSet {
	return f.CloseUnderHidden(S, nil)
}

// CloseUnderHidden closes S under δ(·, σ) for every event the observer
// cannot currently see: FSM-declared unobservable events, plus — when
// mask is non-nil — any observable event not present in mask. mask is
// nil for BSCOPNBMAX (control decisions don't change what's observable)
// and is the chosen activation set Z for MPO (spec.md §9, resolving the
// "dynamically turning observability on/off" framing from §1 against the
// static UR(S) definition in §4.1).
func (f *FSM) CloseUnderHidden(S StateSet, mask map[EventID]bool) StateSet {
	in := make(map[StateID]bool, len(S.members))
	for _, x := range S.members {
		in[x] = true
	}
	frontier := append([]StateID(nil), S.members...)
	for len(frontier) > 0 {
		var next []StateID
		for _, x := range frontier {
			for _, evID := range f.eventOrder {
				ev := f.events[evID]
				hidden := !ev.Observable
				if mask != nil && ev.Observable && !mask[evID] {
					hidden = true
				}
				if !hidden {
					continue
				}
				if y, ok := f.Next(x, evID); ok && !in[y] {
					in[y] = true
					next = append(next, y)
				}
			}
		}
		frontier = next
	}
	ids := make([]StateID, 0, len(in))
	for x := range in {
		ids = append(ids, x)
	}
	return NewStateSet(ids...)
}

// StateSet is a non-empty, canonically-ordered set of plant states: an
// information state (spec.md §3). Two StateSets with the same membership
// always produce the same Key(), which NBAIC uses to dedupe Y-states.
type StateSet struct {
	members []StateID
}

// NewStateSet builds a canonical (sorted, deduped) StateSet.
func NewStateSet(ids ...StateID) StateSet {
	seen := make(map[StateID]bool, len(ids))
	uniq := make([]StateID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			uniq = append(uniq, id)
		}
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })
	return StateSet{members: uniq}
}

// Slice returns the canonical member list. Callers must not mutate it.
func (s StateSet) Slice() []StateID { return s.members }

// Len returns the number of member states.
func (s StateSet) Len() int { return len(s.members) }

// Contains reports whether x is a member.
func (s StateSet) Contains(x StateID) bool {
	idx := sort.Search(len(s.members), func(i int) bool { return s.members[i] >= x })
	return idx < len(s.members) && s.members[idx] == x
}

// Subset reports whether every member of s is also a member of other.
func (s StateSet) Subset(other StateSet) bool {
	for _, x := range s.members {
		if !other.Contains(x) {
			return false
		}
	}
	return true
}

// Intersects reports whether s and other share a member.
func (s StateSet) Intersects(other StateSet) bool {
	for _, x := range s.members {
		if other.Contains(x) {
			return true
		}
	}
	return false
}

// Key returns a stable hash key for use as a map key (NBAIC's Y-state
// dedup index, spec.md §4.3: "reuse existing node... hash-keyed by the
// sorted plant-state set").
func (s StateSet) Key() string {
	strs := make([]string, len(s.members))
	for i, x := range s.members {
		strs[i] = string(x)
	}
	return strings.Join(strs, ",")
}

func (s StateSet) String() string {
	return "{" + s.Key() + "}"
}
