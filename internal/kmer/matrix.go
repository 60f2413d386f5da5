package kmer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// MaxMatrixK bounds k for a Matrix; 4^12 columns is already 16M cells
// per row.
const MaxMatrixK = 12

// Matrix accumulates weighted k-mer observations per window position.
// Rows are positions, columns are k-mer codes.
type Matrix struct {
	k int
	m *mat.Dense
}

// NewMatrix allocates a zero-filled rows x 4^k matrix.
func NewMatrix(rows, k int) (*Matrix, error) {
	if rows <= 0 {
		return nil, fmt.Errorf("kmer: rows must be positive, got %d", rows)
	}
	if k <= 0 || k > MaxMatrixK {
		return nil, fmt.Errorf("kmer: k must be in [1,%d], got %d", MaxMatrixK, k)
	}
	return &Matrix{k: k, m: mat.NewDense(rows, Count(k), nil)}, nil
}

func (x *Matrix) Rows() int { return x.m.RawMatrix().Rows }
func (x *Matrix) Cols() int { return x.m.RawMatrix().Cols }
func (x *Matrix) K() int    { return x.k }

func (x *Matrix) At(row int, K Code) float64 { return x.m.At(row, int(K)) }

// Add adds w to cell (row, K). The caller keeps row and K in range.
func (x *Matrix) Add(row int, K Code, w float64) {
	r := x.m.RawRowView(row)
	r[K] += w
}

// Row returns a copy of one row.
func (x *Matrix) Row(row int) []float64 {
	return append([]float64(nil), x.m.RawRowView(row)...)
}

// Clone deep-copies the matrix.
func (x *Matrix) Clone() *Matrix {
	return &Matrix{k: x.k, m: mat.DenseCopyOf(x.m)}
}

// Normalize rescales every row to sum to one. Rows that sum to zero are
// left at zero. Applying it to a normalized matrix changes nothing.
func (x *Matrix) Normalize() {
	for i := 0; i < x.Rows(); i++ {
		r := x.m.RawRowView(i)
		if z := floats.Sum(r); z > 0 {
			floats.Scale(1/z, r)
		}
	}
}

// Background sums the matrix over all positions and normalizes the
// result into a single distribution over k-mers.
func (x *Matrix) Background() []float64 {
	bg := make([]float64, x.Cols())
	for i := 0; i < x.Rows(); i++ {
		floats.Add(bg, x.m.RawRowView(i))
	}
	if z := floats.Sum(bg); z > 0 {
		floats.Scale(1/z, bg)
	}
	return bg
}

// Cell is one flattened matrix entry.
type Cell struct {
	Pos  int
	Kmer string
	Freq float64
}

// Table flattens the matrix row-major. Row i is reported at position
// i-offset so callers can express positions relative to an anchor.
func (x *Matrix) Table(offset int) []Cell {
	names := All(x.k)
	out := make([]Cell, 0, x.Rows()*x.Cols())
	for i := 0; i < x.Rows(); i++ {
		r := x.m.RawRowView(i)
		for K, f := range r {
			out = append(out, Cell{Pos: i - offset, Kmer: names[K], Freq: f})
		}
	}
	return out
}

// Tally adds counts[i] to row j at the k-mer starting at i-offset+j, for
// every row j, for each position i with a positive count whose full span
// of rows fits in seq.
func (x *Matrix) Tally(seq Stream, counts []float64, offset int) error {
	n := seq.Len()
	if len(counts) != n {
		return fmt.Errorf("kmer: sequence length %d mismatches count length %d", n, len(counts))
	}
	rows, k := x.Rows(), x.k
	starts := n - (k - 1)
	if starts <= 0 {
		return nil
	}
	ks := make([]Code, starts)
	for m := range ks {
		ks[m] = seq.Kmer(k, m+k-1)
	}
	for i, c := range counts {
		if c <= 0 || i < offset || i-offset+rows > starts {
			continue
		}
		for j := 0; j < rows; j++ {
			x.Add(j, ks[i-offset+j], c)
		}
	}
	return nil
}

// SymmetricKL returns KL(p||q) + KL(q||p) in bits. A cell where either
// probability is zero contributes nothing, so the result is finite.
func SymmetricKL(p, q []float64) float64 {
	pp := make([]float64, 0, len(p))
	qq := make([]float64, 0, len(q))
	for i := range p {
		if p[i] > 0 && q[i] > 0 {
			pp = append(pp, p[i])
			qq = append(qq, q[i])
		}
	}
	return (stat.KullbackLeibler(pp, qq) + stat.KullbackLeibler(qq, pp)) / math.Ln2
}

// Divergence computes, for every position, the symmetric KL divergence
// between that position's k-mer distribution and the distribution
// pooled over all positions. x itself is not modified.
func Divergence(x *Matrix) []float64 {
	bg := x.Background()
	norm := x.Clone()
	norm.Normalize()
	kl := make([]float64, x.Rows())
	for i := range kl {
		kl[i] = SymmetricKL(norm.m.RawRowView(i), bg)
	}
	return kl
}
