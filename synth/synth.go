// Package synth is the library façade tying the NBAIC, UBTS, LDS, ICS
// and MPO packages into the two operations spec.md §6 exposes:
// build_nbaic + synthesize_supervisor (BSCOPNBMAX) and
// build_nbaic + reduce_mpo (MPO). The core packages it calls stay
// synchronous and single-threaded (spec.md §5); this package adds no
// concurrency of its own, only sequencing.
package synth

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/desctl/desctl/errs"
	"github.com/desctl/desctl/fsm"
	"github.com/desctl/desctl/ics"
	"github.com/desctl/desctl/isp"
	"github.com/desctl/desctl/lds"
	"github.com/desctl/desctl/mpo"
	"github.com/desctl/desctl/nbaic"
	"github.com/desctl/desctl/ubts"
)

// Config replaces the source's global MODE_FLAG/MPO_CONDITION_FLAG/
// VERBOSE_FLAG/FILE_OUT_FLAG with an explicit record (spec.md §9,
// "Global mutable flags"). The core never reads process-wide state;
// cmd/desctl is the only place this gets populated, from argv or the
// interactive prompt.
type Config struct {
	Mode      nbaic.Mode
	Condition mpo.Condition // not read by BuildNBAIC; ReduceMPO takes its condition as an argument
	Log       *slog.Logger
}

// Result is what synthesize_supervisor returns in BSCOPNBMAX mode.
type Result struct {
	RunID      uuid.UUID
	UBTS       *ubts.UBTS
	ICS        *ics.ICS
	AUxG       *fsm.FSM
	NumUnfolds int
}

// BuildNBAIC is the build_nbaic(fsm, isp, mode) -> NBAIC façade op.
func BuildNBAIC(f *fsm.FSM, prop *isp.Property, cfg Config) *nbaic.NBAIC {
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return nbaic.Build(f, prop, cfg.Mode, log)
}

// ReduceMPO is the reduce_mpo(nbaic, condition) -> NBAIC façade op. n
// must have been built with nbaic.MPO.
func ReduceMPO(n *nbaic.NBAIC, condition mpo.Condition) *nbaic.NBAIC {
	return mpo.Reduce(n, condition)
}

// Synthesize is the synthesize_supervisor(nbaic, fsm) -> (UBTS, ICS,
// A_UxG, num_unfolds) façade op (spec.md §6): expand, project, and
// repeatedly find an entrance state, compute its maximal live decision
// string, and splice it in, until every UBTS Y-node has a co-accessible
// plant companion (spec.md §8, universal invariant 4).
//
// num_unfolds is always returned, including when n is already empty —
// resolving the §9 Open Question about the counter only being written in
// the MPO branch of the original source (SPEC_FULL.md §C.5): it is
// always produced here, reported as 0 in the infeasible case, where the
// returned Result carries only RunID and NumUnfolds alongside
// errs.Infeasible.
func Synthesize(n *nbaic.NBAIC, f *fsm.FSM, log *slog.Logger) (*Result, error) {
	if log == nil {
		log = slog.Default()
	}
	runID := uuid.New()
	if n.IsEmpty() {
		log.Debug("nbaic empty, no supervisor exists", "run_id", runID)
		return &Result{RunID: runID, NumUnfolds: 0}, errs.Infeasible
	}
	if !lds.CanReach(n, n.Root) {
		// Xm is empty, or unreachable from the root under live Z/Y edges:
		// a valid negative result (spec.md §8, "Empty Xm ⇒ NBAIC empty"),
		// not the internal-invariant case below.
		log.Debug("no marked y-state reachable from nbaic root, no supervisor exists", "run_id", runID)
		return &Result{RunID: runID, NumUnfolds: 0}, errs.Infeasible
	}

	u := ubts.New(n)
	u.Expand()
	proj := ics.Project(u, f)

	numUnfolds := 0
	for {
		entrance, ok := proj.GetEntranceState()
		if !ok {
			break
		}
		u.MarkEntrance(entrance)
		entranceY := u.YNode(entrance)

		witness, ok := lds.ComputeMaximal(n, entranceY.NBAICY)
		if !ok {
			return nil, errs.New(errs.InternalInvariantViolation, "synth.Synthesize",
				fmt.Errorf("entrance state has no live decision string reaching a marked state"))
		}
		if err := u.Augment(entrance, witness); err != nil {
			return nil, err
		}
		u.Expand()
		proj = ics.Project(u, f)
		numUnfolds++

		log.Debug("unfold complete", "run_id", runID, "num_unfolds", numUnfolds)
	}

	return &Result{
		RunID:      runID,
		UBTS:       u,
		ICS:        proj,
		AUxG:       proj.ToFSM(),
		NumUnfolds: numUnfolds,
	}, nil
}
