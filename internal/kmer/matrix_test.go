package kmer

import (
	"math"
	"testing"
)

// seqStream is a test Stream over a plain ACGT string.
type seqStream string

func (s seqStream) Len() int { return len(s) }
func (s seqStream) Kmer(k, pos int) Code {
	K, ok := Encode(string(s[pos-k+1 : pos+1]))
	if !ok {
		panic("bad test sequence")
	}
	return K
}

func mustMatrix(t *testing.T, rows, k int) *Matrix {
	t.Helper()
	m, err := NewMatrix(rows, k)
	if err != nil {
		t.Fatalf("NewMatrix(%d,%d): %v", rows, k, err)
	}
	return m
}

func TestEncodeDecode(t *testing.T) {
	for _, s := range []string{"a", "acgt", "ttttt", "gattaca"} {
		K, ok := Encode(s)
		if !ok {
			t.Fatalf("Encode(%s) failed", s)
		}
		if got := Decode(K, len(s)); got != s {
			t.Errorf("Decode(Encode(%s)) = %s", s, got)
		}
	}
	if _, ok := Encode("acn"); ok {
		t.Error("ambiguous k-mer encoded")
	}
	if K, _ := Encode("ac"); K != 1 {
		t.Errorf("ac = %d, want 1", K)
	}
	if K, _ := Encode("ca"); K != 4 {
		t.Errorf("ca = %d, want 4", K)
	}
}

func TestNewMatrixValidation(t *testing.T) {
	if _, err := NewMatrix(0, 1); err == nil {
		t.Error("rows=0 accepted")
	}
	if _, err := NewMatrix(3, 0); err == nil {
		t.Error("k=0 accepted")
	}
	if _, err := NewMatrix(3, MaxMatrixK+1); err == nil {
		t.Error("oversized k accepted")
	}
	m := mustMatrix(t, 3, 2)
	if m.Rows() != 3 || m.Cols() != 16 || m.K() != 2 {
		t.Fatalf("shape %dx%d k=%d", m.Rows(), m.Cols(), m.K())
	}
}

func TestNormalizeRowsSumToOne(t *testing.T) {
	m := mustMatrix(t, 3, 1)
	m.Add(0, 0, 2)
	m.Add(0, 3, 6)
	m.Add(2, 1, 0.5)
	m.Normalize()
	for _, i := range []int{0, 2} {
		var z float64
		for _, v := range m.Row(i) {
			z += v
		}
		if math.Abs(z-1) > 1e-12 {
			t.Errorf("row %d sums to %v", i, z)
		}
	}
	for _, v := range m.Row(1) {
		if v != 0 {
			t.Fatalf("zero row changed: %v", m.Row(1))
		}
	}
	if got := m.At(0, 3); math.Abs(got-0.75) > 1e-12 {
		t.Errorf("cell (0,t) = %v, want 0.75", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	m := mustMatrix(t, 4, 2)
	for i := 0; i < 4; i++ {
		for K := 0; K < 16; K++ {
			m.Add(i, Code(K), float64((i+1)*(K%5)))
		}
	}
	m.Normalize()
	once := m.Clone()
	m.Normalize()
	for i := 0; i < 4; i++ {
		a, b := once.Row(i), m.Row(i)
		for K := range a {
			if math.Abs(a[K]-b[K]) > 1e-12 {
				t.Fatalf("row %d col %d: %v vs %v", i, K, a[K], b[K])
			}
		}
	}
}

func TestTable(t *testing.T) {
	m := mustMatrix(t, 2, 1)
	m.Add(1, 2, 3)
	cells := m.Table(1)
	if len(cells) != 8 {
		t.Fatalf("len %d, want 8", len(cells))
	}
	if cells[0].Pos != -1 || cells[0].Kmer != "a" {
		t.Errorf("first cell %+v", cells[0])
	}
	got := cells[6]
	if got.Pos != 0 || got.Kmer != "g" || got.Freq != 3 {
		t.Errorf("cell 6 = %+v", got)
	}
}

func TestTally(t *testing.T) {
	// One read at position 3 in "acgtac"; window of 3 rows starting one
	// base upstream of the read.
	m := mustMatrix(t, 3, 1)
	counts := []float64{0, 0, 0, 2, 0, 0}
	if err := m.Tally(seqStream("acgtac"), counts, 1); err != nil {
		t.Fatal(err)
	}
	want := []struct {
		row int
		km  string
	}{{0, "g"}, {1, "t"}, {2, "a"}}
	for _, w := range want {
		K, _ := Encode(w.km)
		if m.At(w.row, K) != 2 {
			t.Errorf("row %d %s = %v, want 2", w.row, w.km, m.At(w.row, K))
		}
	}
}

func TestTallySkipsOverhang(t *testing.T) {
	m := mustMatrix(t, 3, 2)
	counts := []float64{1, 1, 1, 1, 1}
	if err := m.Tally(seqStream("acgta"), counts, 0); err != nil {
		t.Fatal(err)
	}
	// 4 dimers start at 0..3; a 3-row window fits only for i=0,1.
	var total float64
	for i := 0; i < 3; i++ {
		for _, v := range m.Row(i) {
			total += v
		}
	}
	if total != 6 {
		t.Fatalf("total weight %v, want 6", total)
	}
	if err := m.Tally(seqStream("acg"), []float64{1}, 0); err == nil {
		t.Fatal("length mismatch accepted")
	}
}

func TestSymmetricKL(t *testing.T) {
	p := []float64{0.25, 0.25, 0.25, 0.25}
	if kl := SymmetricKL(p, p); kl != 0 {
		t.Fatalf("identical rows: %v", kl)
	}
	rows := [][]float64{
		{0.1, 0.2, 0.3, 0.4},
		{0.7, 0.1, 0.1, 0.1},
		{0.25, 0.25, 0.25, 0.25},
		{0.01, 0.01, 0.01, 0.97},
	}
	for _, a := range rows {
		for _, b := range rows {
			if kl := SymmetricKL(a, b); kl < 0 || math.IsNaN(kl) {
				t.Fatalf("SymmetricKL(%v,%v) = %v", a, b, kl)
			}
			if d := SymmetricKL(a, b) - SymmetricKL(b, a); math.Abs(d) > 1e-12 {
				t.Fatalf("not symmetric: %v", d)
			}
		}
	}
	// two point masses vs uniform-ish, computed by hand
	got := SymmetricKL([]float64{0.5, 0.5}, []float64{0.25, 0.75})
	want := 0.5*math.Log2(2) + 0.5*math.Log2(0.5/0.75) + 0.25*math.Log2(0.5) + 0.75*math.Log2(0.75/0.5)
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSymmetricKLZeroCells(t *testing.T) {
	got := SymmetricKL([]float64{0.5, 0.5, 0}, []float64{0.25, 0.25, 0.5})
	if math.IsInf(got, 0) || math.IsNaN(got) {
		t.Fatalf("zero cell produced %v", got)
	}
	want := 2 * (0.5*math.Log2(2) + 0.25*math.Log2(0.5))
	if math.Abs(got-want) > 1e-12 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDivergenceFlatIsZero(t *testing.T) {
	m := mustMatrix(t, 5, 1)
	for i := 0; i < 5; i++ {
		for K := 0; K < 4; K++ {
			m.Add(i, Code(K), 10)
		}
	}
	for i, kl := range Divergence(m) {
		if math.Abs(kl) > 1e-12 {
			t.Fatalf("position %d: %v", i, kl)
		}
	}
	// raw counts untouched
	if m.At(0, 0) != 10 {
		t.Fatal("Divergence modified its input")
	}
}

func TestDivergencePeaksAtBiasedPosition(t *testing.T) {
	m := mustMatrix(t, 3, 1)
	for i := 0; i < 3; i++ {
		for K := 0; K < 4; K++ {
			m.Add(i, Code(K), 10)
		}
	}
	m.Add(1, 2, 60)
	kl := Divergence(m)
	if !(kl[1] > kl[0] && kl[1] > kl[2]) {
		t.Fatalf("expected peak at 1: %v", kl)
	}
}
