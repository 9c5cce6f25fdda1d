package fsmio

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/desctl/desctl/errs"
	"github.com/desctl/desctl/fsm"
	"github.com/desctl/desctl/isp"
)

// ispDoc mirrors the YAML shape SPEC_FULL.md §A.3 documents:
//
//	kind: safety        # safety | opacity | disambiguation
//	forbidden: [x2, x5]  # safety
//	secret: [x3, x4]      # opacity
//	classes:              # disambiguation
//	  - [x0, x1]
//	  - [x2]
type ispDoc struct {
	Kind      string     `yaml:"kind"`
	Forbidden []string   `yaml:"forbidden"`
	Secret    []string   `yaml:"secret"`
	Classes   [][]string `yaml:"classes"`
}

// ReadISP parses an ISP YAML file and resolves its state references
// against plant, raising InconsistentModel for anything plant doesn't
// declare (isp.Parse itself only validates the kind).
func ReadISP(r io.Reader, plant *fsm.FSM) (*isp.Property, error) {
	var doc ispDoc
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errs.New(errs.InputParse, "fsmio.ReadISP", err)
	}

	forbidden, err := resolveStates(plant, doc.Forbidden)
	if err != nil {
		return nil, err
	}
	secret, err := resolveStates(plant, doc.Secret)
	if err != nil {
		return nil, err
	}
	var classes []fsm.StateSet
	for _, c := range doc.Classes {
		set, err := resolveStates(plant, c)
		if err != nil {
			return nil, err
		}
		classes = append(classes, set)
	}

	return isp.Parse(doc.Kind, forbidden, secret, classes)
}

func resolveStates(plant *fsm.FSM, ids []string) (fsm.StateSet, error) {
	resolved := make([]fsm.StateID, 0, len(ids))
	for _, id := range ids {
		sid := fsm.StateID(id)
		if _, ok := plant.State(sid); !ok {
			return fsm.StateSet{}, errs.New(errs.InconsistentModel, "fsmio.ReadISP",
				fmt.Errorf("ISP references undeclared state %q", id))
		}
		resolved = append(resolved, sid)
	}
	return fsm.NewStateSet(resolved...), nil
}
