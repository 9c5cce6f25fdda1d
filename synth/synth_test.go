package synth

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/desctl/desctl/errs"
	"github.com/desctl/desctl/fsm"
	"github.com/desctl/desctl/internal/logging"
	"github.com/desctl/desctl/isp"
	"github.com/desctl/desctl/nbaic"
)

func TestSynthesizeTrivialMarkedRootNeedsZeroUnfolds(t *testing.T) {
	f := fsm.New("x0")
	f.AddState(fsm.State{ID: "x0", Marked: true, Regular: true})

	n := BuildNBAIC(f, nil, Config{Mode: nbaic.BSCOPNBMAX, Log: logging.Noop()})
	require.False(t, n.IsEmpty())

	result, err := Synthesize(n, f, logging.Noop())
	require.NoError(t, err)
	require.Equal(t, 0, result.NumUnfolds)
}

// x0 -a-> x1 -b-> x2 -c-> x3(marked): the first live decision string
// already reaches all the way to the mark, so the whole chain gets
// grafted in a single entrance/augment round.
func TestSynthesizeChainProducesOneUnfold(t *testing.T) {
	f := fsm.New("x0")
	f.AddState(fsm.State{ID: "x0", Regular: true})
	f.AddState(fsm.State{ID: "x1", Regular: true})
	f.AddState(fsm.State{ID: "x2", Regular: true})
	f.AddState(fsm.State{ID: "x3", Marked: true, Regular: true})
	f.AddEvent(fsm.Event{ID: "a", Observable: true, Controllable: true})
	f.AddEvent(fsm.Event{ID: "b", Observable: true, Controllable: true})
	f.AddEvent(fsm.Event{ID: "c", Observable: true, Controllable: true})
	require.NoError(t, f.AddTransition("x0", "a", "x1"))
	require.NoError(t, f.AddTransition("x1", "b", "x2"))
	require.NoError(t, f.AddTransition("x2", "c", "x3"))

	n := BuildNBAIC(f, nil, Config{Mode: nbaic.BSCOPNBMAX, Log: logging.Noop()})
	require.False(t, n.IsEmpty())

	result, err := Synthesize(n, f, logging.Noop())
	require.NoError(t, err)
	require.Equal(t, 1, result.NumUnfolds)
	require.Len(t, result.ICS.Pairs(), 4)
	require.Len(t, result.AUxG.States(), 4)
}

func TestSynthesizeInfeasibleWhenRootAlreadyUnsafe(t *testing.T) {
	f := fsm.New("x0")
	f.AddState(fsm.State{ID: "x0", Regular: true})

	prop := isp.NewSafety(fsm.NewStateSet("x0"))
	n := BuildNBAIC(f, prop, Config{Mode: nbaic.BSCOPNBMAX, Log: logging.Noop()})
	require.True(t, n.IsEmpty())

	_, err := Synthesize(n, f, logging.Noop())
	require.ErrorIs(t, err, errs.Infeasible)
}

// x0 -sigma-> x1, neither marked: the root survives pruning (it's not
// blocking — it still has a live Z) but Xm is empty, so no Y-state can
// ever reach a mark (spec.md §8, "Empty Xm ⇒ NBAIC empty"). This must
// come back as a plain infeasible result, not an internal-invariant
// fatal.
func TestSynthesizeInfeasibleWhenNoMarkedStateReachable(t *testing.T) {
	f := fsm.New("x0")
	f.AddState(fsm.State{ID: "x0", Regular: true})
	f.AddState(fsm.State{ID: "x1", Regular: true})
	f.AddEvent(fsm.Event{ID: "sigma", Observable: true, Controllable: true})
	require.NoError(t, f.AddTransition("x0", "sigma", "x1"))

	n := BuildNBAIC(f, nil, Config{Mode: nbaic.BSCOPNBMAX, Log: logging.Noop()})
	require.False(t, n.IsEmpty(), "root has a live (vacuous) decision and survives pruning")

	_, err := Synthesize(n, f, logging.Noop())
	require.ErrorIs(t, err, errs.Infeasible)
}
