package fsmio

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/desctl/desctl/fsm"
	"github.com/desctl/desctl/isp"
)

func testPlant(t *testing.T) *fsm.FSM {
	t.Helper()
	f := fsm.New("x0")
	f.AddState(fsm.State{ID: "x0", Regular: true})
	f.AddState(fsm.State{ID: "x1", Regular: true})
	f.AddState(fsm.State{ID: "x2", Regular: true})
	return f
}

func TestReadISPSafety(t *testing.T) {
	plant := testPlant(t)
	doc := strings.NewReader("kind: safety\nforbidden: [x2]\n")
	prop, err := ReadISP(doc, plant)
	require.NoError(t, err)
	require.Equal(t, isp.Safety, prop.Kind)
	require.True(t, prop.Holds(fsm.NewStateSet("x0", "x1")))
	require.False(t, prop.Holds(fsm.NewStateSet("x1", "x2")))
}

func TestReadISPDisambiguation(t *testing.T) {
	plant := testPlant(t)
	doc := strings.NewReader("kind: disambiguation\nclasses:\n  - [x0, x1]\n  - [x2]\n")
	prop, err := ReadISP(doc, plant)
	require.NoError(t, err)
	require.Equal(t, isp.Disambiguation, prop.Kind)
	require.True(t, prop.Holds(fsm.NewStateSet("x0")))
	require.False(t, prop.Holds(fsm.NewStateSet("x0", "x2")))
}

func TestReadISPRejectsUndeclaredState(t *testing.T) {
	plant := testPlant(t)
	doc := strings.NewReader("kind: safety\nforbidden: [x9]\n")
	_, err := ReadISP(doc, plant)
	require.Error(t, err)
}

func TestReadISPRejectsUnknownKind(t *testing.T) {
	plant := testPlant(t)
	doc := strings.NewReader("kind: bogus\n")
	_, err := ReadISP(doc, plant)
	require.Error(t, err)
}

func TestReadISPEmptyDocumentYieldsNoProperty(t *testing.T) {
	plant := testPlant(t)
	prop, err := ReadISP(strings.NewReader(""), plant)
	require.NoError(t, err)
	require.Nil(t, prop)
}
