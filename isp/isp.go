// Package isp implements the Information-State Property: the predicate
// consulted when deciding which control/activation decisions are
// admissible at a Y-state (spec.md §4.2).
package isp

import (
	"fmt"

	"github.com/desctl/desctl/errs"
	"github.com/desctl/desctl/fsm"
)

// Kind names a recognized ISP flavor.
type Kind string

const (
	Safety         Kind = "safety"
	Opacity        Kind = "opacity"
	Disambiguation Kind = "disambiguation"
)

// Property is a tagged sum of {Safety(F), Opacity(S), Disambiguation(C)}
// dispatched through a single Holds method (spec.md §9, "Dynamic dispatch
// for ISP"). A nil *Property always holds (spec.md §4.2: "If no ISP is
// supplied, the predicate is true everywhere").
type Property struct {
	Kind      Kind
	Forbidden fsm.StateSet   // Safety
	Secret    fsm.StateSet   // Opacity
	Classes   []fsm.StateSet // Disambiguation
}

// NewSafety builds a safety property: holds(I) = I ∩ F = ∅.
func NewSafety(forbidden fsm.StateSet) *Property {
	return &Property{Kind: Safety, Forbidden: forbidden}
}

// NewOpacity builds an opacity property: holds(I) = ¬(I ⊆ S).
func NewOpacity(secret fsm.StateSet) *Property {
	return &Property{Kind: Opacity, Secret: secret}
}

// NewDisambiguation builds a disambiguation property: holds(I) = ∃i. I ⊆ Cᵢ.
func NewDisambiguation(classes []fsm.StateSet) *Property {
	return &Property{Kind: Disambiguation, Classes: classes}
}

// Holds evaluates the property at information state I.
func (p *Property) Holds(I fsm.StateSet) bool {
	if p == nil {
		return true
	}
	switch p.Kind {
	case Safety:
		return !I.Intersects(p.Forbidden)
	case Opacity:
		return !I.Subset(p.Secret)
	case Disambiguation:
		for _, c := range p.Classes {
			if I.Subset(c) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// Parse validates a (kind, kind-specific params) pair already resolved
// to state sets — the YAML-facing loader in fsmio does the string→StateID
// resolution and raises InconsistentModel for unknown states before
// calling this. Parse itself only guards against an unrecognized kind.
func Parse(kind string, forbidden, secret fsm.StateSet, classes []fsm.StateSet) (*Property, error) {
	switch Kind(kind) {
	case Safety:
		return NewSafety(forbidden), nil
	case Opacity:
		return NewOpacity(secret), nil
	case Disambiguation:
		return NewDisambiguation(classes), nil
	case "":
		return nil, nil
	default:
		return nil, errs.New(errs.PropertyUnsupported, "isp.Parse", fmt.Errorf("unrecognized ISP kind %q", kind))
	}
}
