package motif

import (
	"fmt"
	"math"

	"gopkg.in/yaml.v3"
)

type networkDoc struct {
	N         int         `yaml:"n"`
	Positions []factorDoc `yaml:"positions"`
}

type factorDoc struct {
	Index   int       `yaml:"index"`
	Parents []int     `yaml:"parents,flow"`
	Fg      []float64 `yaml:"fg,flow"`
	Bg      []float64 `yaml:"bg,flow"`
}

// NetworkCodec stores a *Network as
//
//	n: 31
//	positions:
//	  - {index: 14, parents: [13], fg: [...], bg: [...]}
//
// Tables hold conditional probabilities indexed by the code of the
// position and its parents, lowest position most significant.
type NetworkCodec struct{}

func (NetworkCodec) Encode(m Model) (*yaml.Node, error) {
	nw, ok := m.(*Network)
	if !ok {
		return nil, fmt.Errorf("motif: cannot encode %T", m)
	}
	doc := networkDoc{N: nw.n, Positions: make([]factorDoc, 0, len(nw.factors))}
	for _, f := range nw.factors {
		parents := f.parents
		if parents == nil {
			parents = []int{}
		}
		doc.Positions = append(doc.Positions, factorDoc{Index: f.index, Parents: parents, Fg: f.fg, Bg: f.bg})
	}
	var node yaml.Node
	if err := node.Encode(doc); err != nil {
		return nil, fmt.Errorf("motif: %w", err)
	}
	return &node, nil
}

func (NetworkCodec) Decode(node *yaml.Node) (Model, error) {
	if node == nil || node.Kind == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	var doc networkDoc
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.N <= 0 {
		return nil, fmt.Errorf("%w: n = %d", ErrMalformed, doc.N)
	}
	m := &Network{n: doc.N}
	seen := make([]bool, doc.N)
	for _, fd := range doc.Positions {
		if fd.Index < 0 || fd.Index >= doc.N || seen[fd.Index] {
			return nil, fmt.Errorf("%w: bad or repeated position %d", ErrMalformed, fd.Index)
		}
		seen[fd.Index] = true
		for _, p := range fd.Parents {
			if p < 0 || p >= doc.N || p == fd.Index {
				return nil, fmt.Errorf("%w: position %d has bad parent %d", ErrMalformed, fd.Index, p)
			}
		}
		f := newFactor(fd.Index, fd.Parents)
		if len(fd.Fg) != f.tableSize() || len(fd.Bg) != f.tableSize() {
			return nil, fmt.Errorf("%w: position %d wants %d table cells, got %d/%d",
				ErrMalformed, fd.Index, f.tableSize(), len(fd.Fg), len(fd.Bg))
		}
		for c := range fd.Fg {
			if !(fd.Fg[c] > 0) || !(fd.Bg[c] > 0) || math.IsInf(fd.Fg[c], 0) || math.IsInf(fd.Bg[c], 0) {
				return nil, fmt.Errorf("%w: position %d has a non-positive probability", ErrMalformed, fd.Index)
			}
		}
		f.setTables(fd.Fg, fd.Bg)
		m.factors = append(m.factors, f)
	}
	sortFactors(m.factors)
	return m, nil
}
