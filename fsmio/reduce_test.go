package fsmio

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/desctl/desctl/fsm"
)

// Two unmarked states with identical outgoing behavior should collapse
// into a single class; the marked state stays in its own class.
func TestReduceAndWriteMergesBehaviorallyEquivalentStates(t *testing.T) {
	f := fsm.New("x0")
	f.AddState(fsm.State{ID: "x0", Regular: true})
	f.AddState(fsm.State{ID: "x1", Regular: true})
	f.AddState(fsm.State{ID: "x2", Marked: true, Regular: true})
	f.AddEvent(fsm.Event{ID: "a", Observable: true, Controllable: true})
	require.NoError(t, f.AddTransition("x0", "a", "x2"))
	require.NoError(t, f.AddTransition("x1", "a", "x2"))

	var buf bytes.Buffer
	require.NoError(t, ReduceAndWrite(&buf, f))

	reduced, err := ReadFSM(&buf)
	require.NoError(t, err)
	require.Len(t, reduced.States(), 2, "x0 and x1 are behaviorally identical and should merge")

	markedCount := 0
	for _, s := range reduced.States() {
		if s.Marked {
			markedCount++
		}
	}
	require.Equal(t, 1, markedCount)
}

func TestReduceAndWriteKeepsDistinctStatesWhenBehaviorDiffers(t *testing.T) {
	f := fsm.New("x0")
	f.AddState(fsm.State{ID: "x0", Regular: true})
	f.AddState(fsm.State{ID: "x1", Regular: true})
	f.AddState(fsm.State{ID: "x2", Marked: true, Regular: true})
	f.AddEvent(fsm.Event{ID: "a", Observable: true, Controllable: true})
	f.AddEvent(fsm.Event{ID: "b", Observable: true, Controllable: true})
	require.NoError(t, f.AddTransition("x0", "a", "x2"))
	require.NoError(t, f.AddTransition("x1", "b", "x2"))

	var buf bytes.Buffer
	require.NoError(t, ReduceAndWrite(&buf, f))

	reduced, err := ReadFSM(&buf)
	require.NoError(t, err)
	require.Len(t, reduced.States(), 3, "x0 and x1 enable different events and must stay distinct")
}
