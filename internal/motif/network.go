package motif

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"
	"gonum.org/v1/gonum/floats"

	"seqbias/internal/dna"
	"seqbias/internal/twobit"
)

// factor is one included position i with its conditional tables
// P_fg(x_i | x_parents) and P_bg(x_i | x_parents). Tables are indexed by
// the code of the bases at pos, lowest position most significant.
type factor struct {
	index   int
	parents []int
	pos     []int  // parents plus index, ascending
	shift   uint   // bit offset of x_index inside a code
	mask    []bool // pos relative to pos[0]
	fg, bg  []float64
	lr      []float64 // log fg - log bg
}

func newFactor(index int, parents []int) *factor {
	f := &factor{index: index, parents: sortedCopy(parents)}
	f.pos = sortedCopy(append(append([]int(nil), parents...), index))
	for r, p := range f.pos {
		if p == index {
			f.shift = uint(2 * (len(f.pos) - 1 - r))
		}
	}
	f.mask = make([]bool, f.pos[len(f.pos)-1]-f.pos[0]+1)
	for _, p := range f.pos {
		f.mask[p-f.pos[0]] = true
	}
	return f
}

// tableSize is the number of cells in each conditional table.
func (f *factor) tableSize() int { return 1 << (2 * len(f.pos)) }

// params counts the free parameters of both class tables.
func (f *factor) params() int { return 2 * 3 * (1 << (2 * len(f.parents))) }

func (f *factor) code(x []dna.Nuc) int {
	c := 0
	for _, p := range f.pos {
		c = c<<2 | int(x[p])
	}
	return c
}

func (f *factor) setTables(fg, bg []float64) {
	f.fg, f.bg = fg, bg
	f.lr = make([]float64, len(fg))
	for c := range fg {
		f.lr[c] = math.Log(fg[c]) - math.Log(bg[c])
	}
}

// conditional turns raw counts into P(child | parents) with a +1
// pseudocount. counts is modified.
func conditional(counts []float64, shift uint) []float64 {
	floats.AddConst(1, counts)
	out := make([]float64, len(counts))
	child := 3 << shift
	var group [4]float64
	for c := range counts {
		if c&child != 0 {
			continue
		}
		for v := 0; v < 4; v++ {
			group[v] = counts[c|v<<shift]
		}
		z := floats.Sum(group[:])
		for v := 0; v < 4; v++ {
			out[c|v<<shift] = group[v] / z
		}
	}
	return out
}

// Network is a pair of class-conditional Bayesian networks sharing one
// structure. Positions not in the network do not affect Eval.
type Network struct {
	n       int
	factors []*factor // ascending index
}

func (m *Network) Len() int { return m.n }

// Positions lists the included window positions in ascending order.
func (m *Network) Positions() []int {
	out := make([]int, len(m.factors))
	for i, f := range m.factors {
		out[i] = f.index
	}
	return out
}

// Edges is the number of parent links.
func (m *Network) Edges() int {
	n := 0
	for _, f := range m.factors {
		n += len(f.parents)
	}
	return n
}

// Links lists every parent -> child pair, ordered by child then parent.
func (m *Network) Links() [][2]int {
	var out [][2]int
	for _, f := range m.factors {
		for _, p := range f.parents {
			out = append(out, [2]int{p, f.index})
		}
	}
	return out
}

// nodes lists every position that is in the network or is a parent of
// one, ascending.
func (m *Network) nodes() []int {
	var out []int
	for _, f := range m.factors {
		out = append(out, f.index)
		out = append(out, f.parents...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// Eval returns exp(sum of log P_fg - log P_bg) over included positions
// for the window seq[offset : offset+Len()].
func (m *Network) Eval(seq *twobit.Seq, offset int) float64 {
	var s float64
	for _, f := range m.factors {
		K, _ := seq.MaskedKmer(offset+f.pos[0], f.mask)
		s += f.lr[K]
	}
	return math.Exp(s)
}

// Graph renders the structure in Graphviz dot. Nodes are labelled with
// their position minus offset.
func (m *Network) Graph(offset int) string {
	var b strings.Builder
	b.WriteString("digraph {\n")
	b.WriteString("\tsplines=\"true\";\n")
	b.WriteString("\tnode [shape=\"box\", fontname=\"Helvetica\"];\n")
	for _, i := range m.nodes() {
		fmt.Fprintf(&b, "\tn%d [label=\"%d\", pos=\"%d,0!\"];\n", i, i-offset, i)
	}
	for _, f := range m.factors {
		for _, p := range f.parents {
			fmt.Fprintf(&b, "\tn%d -> n%d;\n", p, f.index)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func sortedCopy(xs []int) []int {
	out := slices.Clone(xs)
	slices.Sort(out)
	return out
}

func sortFactors(fs []*factor) {
	slices.SortFunc(fs, func(a, b *factor) int { return a.index - b.index })
}
