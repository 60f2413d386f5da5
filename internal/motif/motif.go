// Package motif defines the sequence model used to score windows around
// read starts, and provides a discriminative Bayesian network
// implementation of it.
package motif

import (
	"context"
	"errors"

	"gopkg.in/yaml.v3"

	"seqbias/internal/twobit"
)

var (
	// ErrLength reports training data whose windows differ from Params.Len.
	ErrLength = errors.New("motif: window length mismatch")
	// ErrMalformed reports a model document that cannot be decoded.
	ErrMalformed = errors.New("motif: malformed model")
)

// Params controls training.
type Params struct {
	Len         int     // window length
	MaxParents  int     // in-degree bound per position
	MaxDistance int     // max |i-j| for an edge j -> i
	Penalty     float64 // complexity penalty per parameter per ln(N)
}

// Model scores a window of Len() bases. Eval returns the likelihood ratio
// of foreground over background for the window starting at offset; it is
// always positive.
type Model interface {
	Len() int
	Eval(seq *twobit.Seq, offset int) float64
	Graph(offset int) string
}

// Structure is implemented by models that can list which window
// positions they use and how those positions depend on each other.
type Structure interface {
	Positions() []int
	Links() [][2]int
}

// Trainer fits a Model discriminating fg windows from bg windows.
type Trainer interface {
	Train(ctx context.Context, bg, fg []*twobit.Seq, p Params) (Model, error)
}

// Codec moves a Model to and from a YAML node embedded in a larger
// document.
type Codec interface {
	Encode(Model) (*yaml.Node, error)
	Decode(*yaml.Node) (Model, error)
}
