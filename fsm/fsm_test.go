package fsm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func twoStateFSM(t *testing.T, observable bool) *FSM {
	t.Helper()
	f := New("x0")
	f.AddState(State{ID: "x0", Regular: true})
	f.AddState(State{ID: "x1", Marked: true, Regular: true})
	f.AddEvent(Event{ID: "sigma", Observable: observable, Controllable: true})
	require.NoError(t, f.AddTransition("x0", "sigma", "x1"))
	return f
}

func TestNextAndMarked(t *testing.T) {
	f := twoStateFSM(t, true)
	y, ok := f.Next("x0", "sigma")
	require.True(t, ok)
	require.Equal(t, StateID("x1"), y)
	require.False(t, f.IsMarked("x0"))
	require.True(t, f.IsMarked("x1"))

	_, ok = f.Next("x1", "sigma")
	require.False(t, ok, "sigma is not feasible at x1")
}

func TestAddTransitionRejectsUndeclared(t *testing.T) {
	f := New("x0")
	f.AddState(State{ID: "x0", Regular: true})
	f.AddEvent(Event{ID: "sigma", Observable: true, Controllable: true})
	err := f.AddTransition("x0", "sigma", "x1")
	require.Error(t, err)
}

func TestUnobservableReachCollapsesHiddenEvent(t *testing.T) {
	f := twoStateFSM(t, false) // sigma unobservable
	root := f.UnobservableReach(NewStateSet("x0"))
	require.Equal(t, 2, root.Len())
	require.True(t, root.Contains("x0"))
	require.True(t, root.Contains("x1"))
}

func TestUnobservableReachStopsAtObservableEvent(t *testing.T) {
	f := twoStateFSM(t, true) // sigma observable
	root := f.UnobservableReach(NewStateSet("x0"))
	require.Equal(t, 1, root.Len())
	require.True(t, root.Contains("x0"))
}

func TestCloseUnderHiddenMaskDeactivatesObservableEvent(t *testing.T) {
	f := twoStateFSM(t, true)
	// mask=empty: sigma is observable but deactivated -> treated as hidden
	closed := f.CloseUnderHidden(NewStateSet("x0"), map[EventID]bool{})
	require.True(t, closed.Contains("x1"), "deactivated observable event should still fold into the closure")

	// mask includes sigma: it's active, so it stays a visible edge, not folded
	closed = f.CloseUnderHidden(NewStateSet("x0"), map[EventID]bool{"sigma": true})
	require.Equal(t, 1, closed.Len())
}

func TestFeasibleEventsOrderedByInsertion(t *testing.T) {
	f := New("x0")
	f.AddState(State{ID: "x0", Regular: true})
	f.AddState(State{ID: "x1", Regular: true})
	f.AddEvent(Event{ID: "b", Observable: true, Controllable: false})
	f.AddEvent(Event{ID: "a", Observable: true, Controllable: true})
	require.NoError(t, f.AddTransition("x0", "b", "x1"))
	require.NoError(t, f.AddTransition("x0", "a", "x1"))

	feasible := f.FeasibleEvents(NewStateSet("x0"))
	require.Equal(t, []EventID{"b", "a"}, feasible, "insertion order, not lexicographic")
}

func TestStateSetKeyIsOrderIndependent(t *testing.T) {
	a := NewStateSet("x2", "x0", "x1")
	b := NewStateSet("x1", "x2", "x0", "x0")
	require.Equal(t, a.Key(), b.Key())
	require.Equal(t, 3, b.Len())
}

func TestStateSetSubset(t *testing.T) {
	a := NewStateSet("x0", "x1")
	b := NewStateSet("x0", "x1", "x2")
	require.True(t, a.Subset(b))
	require.False(t, b.Subset(a))
}
