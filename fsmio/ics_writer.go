package fsmio

import (
	"bufio"
	"fmt"
	"io"

	"github.com/desctl/desctl/ics"
)

// WriteICS dumps the ⟨UBTS-Y, plant-state⟩ pair graph, including which
// pairs are co-accessible — useful for diagnosing why a given Y-node was
// (or wasn't) flagged as an entrance state.
func WriteICS(w io.Writer, c *ics.ICS) error {
	bw := bufio.NewWriter(w)
	for _, p := range c.Pairs() {
		fmt.Fprintf(bw, "Y%d:%s co_accessible=%t\n", p.U, p.X, c.CoAccessible(p))
	}
	return bw.Flush()
}

// WriteAUxG writes the raw product automaton (spec.md §4.5: "the core
// only emits the raw product"); minimizing it is ReduceAndWrite's job.
func WriteAUxG(w io.Writer, c *ics.ICS) error {
	return WriteFSM(w, c.ToFSM())
}
