// Package fsmio is the external collaborator spec.md §1 and §6 carve out
// of the core: `.fsm` plant file parsing/writing, the `.fsm`↔`.txt`
// CONVERT mode, the ISP/config YAML loaders, and the NBAIC/UBTS/EBTS/ICS/
// A_UxG writers. Nothing in this package participates in a synthesis
// fixed point; it only reads and renders the structures C1-C6 already
// built.
package fsmio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/desctl/desctl/errs"
	"github.com/desctl/desctl/fsm"
)

// ReadFSM parses the line-oriented `.fsm` plant format (spec.md §6):
//
//	STATE <id> [MARKED]
//	EVENT <id> <OBS|UNOBS> <CTRL|UNCTRL>
//	TRANS <from> <event> <to>
//
// Blank lines and lines starting with '#' are ignored. The first STATE
// line declares the initial state.
func ReadFSM(r io.Reader) (*fsm.FSM, error) {
	var f *fsm.FSM
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch strings.ToUpper(fields[0]) {
		case "STATE":
			if len(fields) < 2 {
				return nil, parseErr(lineNo, "STATE requires an id")
			}
			id := fsm.StateID(fields[1])
			marked := len(fields) >= 3 && strings.EqualFold(fields[2], "MARKED")
			if f == nil {
				f = fsm.New(id)
			}
			f.AddState(fsm.State{ID: id, Marked: marked, Regular: true})
		case "EVENT":
			if len(fields) < 4 {
				return nil, parseErr(lineNo, "EVENT requires id, observability, controllability")
			}
			if f == nil {
				return nil, parseErr(lineNo, "EVENT declared before any STATE")
			}
			f.AddEvent(fsm.Event{
				ID:           fsm.EventID(fields[1]),
				Observable:   strings.EqualFold(fields[2], "OBS"),
				Controllable: strings.EqualFold(fields[3], "CTRL"),
			})
		case "TRANS":
			if len(fields) < 4 {
				return nil, parseErr(lineNo, "TRANS requires from, event, to")
			}
			if f == nil {
				return nil, parseErr(lineNo, "TRANS declared before any STATE")
			}
			if err := f.AddTransition(fsm.StateID(fields[1]), fsm.EventID(fields[2]), fsm.StateID(fields[3])); err != nil {
				return nil, err
			}
		default:
			return nil, parseErr(lineNo, fmt.Sprintf("unrecognized directive %q", fields[0]))
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.New(errs.InputParse, "fsmio.ReadFSM", err)
	}
	if f == nil {
		return nil, parseErr(lineNo, "empty plant file, no states declared")
	}
	return f, nil
}

// WriteFSM renders f back into the `.fsm` format ReadFSM accepts, in
// declaration order except that the initial state's STATE line is always
// written first (ReadFSM takes the first STATE line as the initial
// state), so that ReadFSM(WriteFSM(f)) round-trips modulo whitespace
// (spec.md §8, "Round-trip").
func WriteFSM(w io.Writer, f *fsm.FSM) error {
	bw := bufio.NewWriter(w)
	states := f.States()
	for i, s := range states {
		if s.ID == f.Initial() && i > 0 {
			copy(states[1:i+1], states[:i])
			states[0] = s
			break
		}
	}
	for _, s := range states {
		if s.Marked {
			fmt.Fprintf(bw, "STATE %s MARKED\n", s.ID)
		} else {
			fmt.Fprintf(bw, "STATE %s\n", s.ID)
		}
	}
	for _, e := range f.Events() {
		fmt.Fprintf(bw, "EVENT %s %s %s\n", e.ID, obsFlag(e.Observable), ctrlFlag(e.Controllable))
	}
	for _, s := range f.States() {
		for _, e := range f.Events() {
			if to, ok := f.Next(s.ID, e.ID); ok {
				fmt.Fprintf(bw, "TRANS %s %s %s\n", s.ID, e.ID, to)
			}
		}
	}
	return bw.Flush()
}

func obsFlag(b bool) string {
	if b {
		return "OBS"
	}
	return "UNOBS"
}

func ctrlFlag(b bool) string {
	if b {
		return "CTRL"
	}
	return "UNCTRL"
}

func parseErr(line int, msg string) error {
	return errs.New(errs.InputParse, "fsmio.ReadFSM", fmt.Errorf("line %d: %s", line, msg))
}
