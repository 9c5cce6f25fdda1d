package fsmio

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/desctl/desctl/fsm"
)

func TestReadFSMParsesStatesEventsTransitions(t *testing.T) {
	src := strings.NewReader(`
# a tiny two-state plant
STATE x0
STATE x1 MARKED
EVENT a OBS CTRL
EVENT u UNOBS UNCTRL
TRANS x0 a x1
TRANS x1 u x0
`)
	f, err := ReadFSM(src)
	require.NoError(t, err)
	require.Equal(t, fsm.StateID("x0"), f.Initial())

	s1, ok := f.State("x1")
	require.True(t, ok)
	require.True(t, s1.Marked)

	ev, ok := f.Event("u")
	require.True(t, ok)
	require.False(t, ev.Observable)
	require.False(t, ev.Controllable)

	to, ok := f.Next("x0", "a")
	require.True(t, ok)
	require.Equal(t, fsm.StateID("x1"), to)
}

func TestReadFSMRejectsUndeclaredTransitionEndpoints(t *testing.T) {
	src := strings.NewReader("STATE x0\nEVENT a OBS CTRL\nTRANS x0 a x9\n")
	_, err := ReadFSM(src)
	require.Error(t, err)
}

func TestReadFSMRejectsEmptyFile(t *testing.T) {
	_, err := ReadFSM(strings.NewReader("\n\n# just a comment\n"))
	require.Error(t, err)
}

func TestFSMRoundTripsThroughWriteAndRead(t *testing.T) {
	f := fsm.New("x0")
	f.AddState(fsm.State{ID: "x0", Regular: true})
	f.AddState(fsm.State{ID: "x1", Marked: true, Regular: true})
	f.AddEvent(fsm.Event{ID: "a", Observable: true, Controllable: true})
	f.AddEvent(fsm.Event{ID: "u", Observable: false, Controllable: false})
	require.NoError(t, f.AddTransition("x0", "a", "x1"))
	require.NoError(t, f.AddTransition("x1", "u", "x0"))

	var buf bytes.Buffer
	require.NoError(t, WriteFSM(&buf, f))

	back, err := ReadFSM(&buf)
	require.NoError(t, err)

	require.Equal(t, f.Initial(), back.Initial())
	require.Equal(t, f.States(), back.States())
	require.Equal(t, f.Events(), back.Events())
	for _, s := range f.States() {
		for _, e := range f.Events() {
			want, wantOK := f.Next(s.ID, e.ID)
			got, gotOK := back.Next(s.ID, e.ID)
			require.Equal(t, wantOK, gotOK)
			require.Equal(t, want, got)
		}
	}
}
