package fsmio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/desctl/desctl/mpo"
	"github.com/desctl/desctl/nbaic"
	"github.com/desctl/desctl/ubts"
)

// WriteNBAIC dumps the bipartite Y/Z graph as a `.fsm`-adjacent text
// file (spec.md §6 writer list). Unlike WriteFSM this isn't a plant — Y
// and Z are two different vertex colors — so it gets its own line shape
// rather than overloading STATE/EVENT/TRANS.
func WriteNBAIC(w io.Writer, n *nbaic.NBAIC) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "NBAIC root=Y%d mode=%s\n", n.Root, modeName(n.Mode))
	for _, y := range n.YNodes() {
		fmt.Fprintf(bw, "Y%d %s alive=%t\n", y.Handle, y.IState, y.Alive())
	}
	for _, z := range n.ZNodes() {
		fmt.Fprintf(bw, "Z%d source=Y%d events=%v alive=%t\n", z.Handle, z.Source, z.Events, z.Alive())
		for _, e := range z.Events {
			if child, ok := z.YSuccessors[e]; ok {
				fmt.Fprintf(bw, "  %s -> Y%d\n", e, child)
			}
		}
	}
	return bw.Flush()
}

func modeName(m nbaic.Mode) string {
	if m == nbaic.MPO {
		return "mpo"
	}
	return "bscopnbmax"
}

// WriteMPOPolicy dumps an NBAIC already reduced by mpo.Reduce: exactly
// one live Z per live Y, the deterministic activation policy (spec.md
// §4.6, "emitted as an FSM" — rendered here as the same Y/Z shape as
// WriteNBAIC rather than coerced into a plant FSM, since a policy is
// still a decision graph, not a transition system over plant states).
func WriteMPOPolicy(w io.Writer, n *nbaic.NBAIC, condition mpo.Condition) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "MPO condition=%s root=Y%d\n", conditionName(condition), n.Root)
	for _, y := range n.YNodes() {
		if !y.Alive() {
			continue
		}
		for _, zh := range y.Zs {
			z := n.ZNode(zh)
			if z.Alive() {
				fmt.Fprintf(bw, "Y%d activates %v\n", y.Handle, z.Events)
			}
		}
	}
	return bw.Flush()
}

func conditionName(c mpo.Condition) string {
	if c == mpo.Max {
		return "max"
	}
	return "min"
}

// WriteUBTS dumps the unfolded tree: one line per Y-node with its
// history, one per Z-node with its events and successors.
func WriteUBTS(w io.Writer, u *ubts.UBTS) error {
	return writeUBTSLike(w, u, false)
}

// WriteEBTS dumps the UBTS annotated with which Y-nodes were ever
// entrance states over the course of the outer loop (SPEC_FULL.md §C.4).
func WriteEBTS(w io.Writer, u *ubts.UBTS) error {
	return writeUBTSLike(w, u, true)
}

func writeUBTSLike(w io.Writer, u *ubts.UBTS, annotateEntrance bool) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "UBTS root=Y%d\n", u.Root)
	for _, y := range u.YNodes() {
		if annotateEntrance && u.WasEntrance(y.Handle) {
			fmt.Fprintf(bw, "Y%d history=%v nbaic=Y%d entrance=true\n", y.Handle, y.History, y.NBAICY)
		} else {
			fmt.Fprintf(bw, "Y%d history=%v nbaic=Y%d\n", y.Handle, y.History, y.NBAICY)
		}
	}
	for _, z := range u.ZNodes() {
		fmt.Fprintf(bw, "Z%d source=Y%d events=%v\n", z.Handle, z.Source, z.Events)
		for _, e := range z.Events {
			if child, ok := z.YSuccessors[e]; ok {
				fmt.Fprintf(bw, "  %s -> Y%d\n", e, child)
			}
		}
	}
	return bw.Flush()
}
