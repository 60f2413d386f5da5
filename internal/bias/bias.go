// Package bias learns and applies a model of sequence-composition bias
// around read 5' ends.
//
// A Model pairs a window geometry (L bases upstream of the read anchor, R
// downstream) with a trained motif.Model and, optionally, an open
// reference used to score arbitrary intervals.
package bias

import (
	"errors"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"seqbias/internal/cmdutil"
	"seqbias/internal/motif"
)

var (
	ErrNoModel     = errors.New("bias: no trained model")
	ErrNoReference = errors.New("bias: no reference attached")
)

// Reference is the random-access sequence source a Model reads windows
// from. Coordinates are 0-based and inclusive; results are lower case.
type Reference interface {
	Fetch(name string, start, end int) ([]byte, error)
	FetchAll(name string) ([]byte, error)
	Close() error
}

// Model is a trained bias model. The zero value is not usable; call New,
// Fit, FitTable or Load.
type Model struct {
	L, R int

	motif   motif.Model
	codec   motif.Codec
	ref     Reference
	refPath string
	rng     *rand.Rand
	log     logrus.FieldLogger
}

// New returns an empty model that can be filled by Read.
func New() *Model {
	return &Model{codec: motif.NetworkCodec{}, log: cmdutil.OrDiscard(nil)}
}

// Len is the number of bases a model scores per anchor.
func (m *Model) Len() int { return m.L + 1 + m.R }

// Motif returns the trained sequence model, or nil.
func (m *Model) Motif() motif.Model { return m.motif }

func (m *Model) HasReference() bool { return m.ref != nil }

// RefPath is the path of the attached reference, if it was opened by path.
func (m *Model) RefPath() string { return m.refPath }

// SetLogger routes prediction diagnostics to l.
func (m *Model) SetLogger(l logrus.FieldLogger) { m.log = cmdutil.OrDiscard(l) }

// SetRand sets the source Predict draws replacements for ambiguous
// reference bases from. nil means the process-wide source. A Model with
// its own source must not be used by concurrent Predict calls.
func (m *Model) SetRand(rng *rand.Rand) { m.rng = rng }

// AttachReference replaces the reference used by Predict. The model takes
// ownership of ref and closes it on Clear.
func (m *Model) AttachReference(ref Reference, path string) error {
	var err error
	if m.ref != nil {
		err = m.ref.Close()
	}
	m.ref, m.refPath = ref, path
	return err
}

// Graph renders the dependency structure with positions relative to the
// read anchor. It is empty when no model is loaded.
func (m *Model) Graph() string {
	if m.motif == nil {
		return ""
	}
	return m.motif.Graph(m.L)
}

// Clear releases the reference and the trained model and resets the
// geometry.
func (m *Model) Clear() error {
	var err error
	if m.ref != nil {
		err = m.ref.Close()
	}
	m.ref, m.refPath = nil, ""
	m.motif = nil
	m.L, m.R = 0, 0
	return err
}

// Close is Clear.
func (m *Model) Close() error { return m.Clear() }
