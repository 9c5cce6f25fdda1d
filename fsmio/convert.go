package fsmio

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/desctl/desctl/errs"
	"github.com/desctl/desctl/fsm"
)

// ConvertToText renders f into the pretty `.txt` form (SPEC_FULL.md §C.1,
// the original CONVERT mode's fsm->txt direction):
//
//	PLANT <initial>
//	STATES:
//	  x0
//	  x1 (marked)
//	EVENTS:
//	  a (observable, controllable)
//	TRANSITIONS:
//	  x0 -a-> x1
func ConvertToText(w io.Writer, f *fsm.FSM) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "PLANT %s\n", f.Initial())

	fmt.Fprintln(bw, "STATES:")
	for _, s := range f.States() {
		if s.Marked {
			fmt.Fprintf(bw, "  %s (marked)\n", s.ID)
		} else {
			fmt.Fprintf(bw, "  %s\n", s.ID)
		}
	}

	fmt.Fprintln(bw, "EVENTS:")
	for _, e := range f.Events() {
		fmt.Fprintf(bw, "  %s (%s, %s)\n", e.ID, obsWord(e.Observable), ctrlWord(e.Controllable))
	}

	fmt.Fprintln(bw, "TRANSITIONS:")
	for _, s := range f.States() {
		for _, e := range f.Events() {
			if to, ok := f.Next(s.ID, e.ID); ok {
				fmt.Fprintf(bw, "  %s -%s-> %s\n", s.ID, e.ID, to)
			}
		}
	}
	return bw.Flush()
}

func obsWord(b bool) string {
	if b {
		return "observable"
	}
	return "unobservable"
}

func ctrlWord(b bool) string {
	if b {
		return "controllable"
	}
	return "uncontrollable"
}

// ConvertFromText parses the pretty `.txt` form back into an *fsm.FSM,
// the inverse of ConvertToText.
func ConvertFromText(r io.Reader) (*fsm.FSM, error) {
	var f *fsm.FSM
	scanner := bufio.NewScanner(r)
	section := ""
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(raw, "PLANT ") {
			continue // initial is inferred from the first STATES entry below
		}
		switch line {
		case "STATES:", "EVENTS:", "TRANSITIONS:":
			section = line
			continue
		}
		switch section {
		case "STATES:":
			marked := strings.HasSuffix(line, "(marked)")
			id := fsm.StateID(strings.TrimSpace(strings.TrimSuffix(line, "(marked)")))
			if f == nil {
				f = fsm.New(id)
			}
			f.AddState(fsm.State{ID: id, Marked: marked, Regular: true})
		case "EVENTS:":
			if f == nil {
				return nil, parseErr(lineNo, "EVENTS section before STATES")
			}
			idx := strings.Index(line, "(")
			if idx < 0 {
				return nil, parseErr(lineNo, "malformed event line")
			}
			id := fsm.EventID(strings.TrimSpace(line[:idx]))
			attrs := strings.TrimSuffix(line[idx+1:], ")")
			parts := strings.Split(attrs, ",")
			if len(parts) != 2 {
				return nil, parseErr(lineNo, "malformed event attributes")
			}
			f.AddEvent(fsm.Event{
				ID:           id,
				Observable:   strings.TrimSpace(parts[0]) == "observable",
				Controllable: strings.TrimSpace(parts[1]) == "controllable",
			})
		case "TRANSITIONS:":
			if f == nil {
				return nil, parseErr(lineNo, "TRANSITIONS section before STATES")
			}
			arrow := strings.Index(line, "->")
			if arrow < 0 {
				return nil, parseErr(lineNo, "malformed transition line")
			}
			left := strings.TrimSpace(line[:arrow])
			to := fsm.StateID(strings.TrimSpace(line[arrow+2:]))
			dash := strings.Index(left, "-")
			if dash < 0 {
				return nil, parseErr(lineNo, "malformed transition line")
			}
			from := fsm.StateID(strings.TrimSpace(left[:dash]))
			event := fsm.EventID(strings.TrimSpace(left[dash+1:]))
			if err := f.AddTransition(from, event, to); err != nil {
				return nil, err
			}
		default:
			return nil, parseErr(lineNo, "content outside any known section")
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.New(errs.InputParse, "fsmio.ConvertFromText", err)
	}
	if f == nil {
		return nil, parseErr(lineNo, "empty text file, no states declared")
	}
	return f, nil
}
