package tabulate

import (
	"context"
	"math"
	"strings"
	"testing"

	"golang.org/x/exp/rand"

	"seqbias/internal/dna"
	"seqbias/internal/kmer"
	"seqbias/internal/postable"
	"seqbias/internal/reference"
	"seqbias/internal/testfixture"
)

type fakeRef map[string]string

func (f fakeRef) Fetch(name string, start, end int) ([]byte, error) {
	s, ok := f[name]
	if !ok {
		return nil, reference.ErrNotFound
	}
	if start < 0 || end >= len(s) || end < start {
		return nil, reference.ErrOutOfRange
	}
	return []byte(strings.ToLower(s[start : end+1])), nil
}

func (f fakeRef) FetchAll(name string) ([]byte, error) {
	s, ok := f[name]
	if !ok {
		return nil, reference.ErrNotFound
	}
	return []byte(strings.ToLower(s)), nil
}

func (fakeRef) Close() error { return nil }

func randomGenome(seed uint64, n int) string {
	r := rand.New(rand.NewSource(seed))
	b := make([]byte, n)
	for i := range b {
		b[i] = "acgt"[r.Intn(4)]
	}
	return string(b)
}

func opts(L, R, k int) Options {
	o := DefaultOptions()
	o.L, o.R, o.K = L, R, k
	return o
}

func TestSelectFewDuplicates(t *testing.T) {
	var rs []postable.ReadPos
	for i := 0; i < 300; i++ {
		rs = append(rs, postable.ReadPos{Tid: 2 - i%3, Pos: i, Count: uint32(1 + i%5)})
	}
	got := Select(rs, 250000, nil, nil)
	if len(got) != 297 {
		t.Fatalf("len %d, want 297", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Tid < got[i-1].Tid {
			t.Fatalf("not sorted by tid at %d", i)
		}
	}
	// the three trimmed positions are the top 1% by count
	top := 0
	for _, rp := range got {
		if rp.Count == 5 {
			top++
		}
	}
	if top != 57 {
		t.Fatalf("%d positions with count 5 kept, want 57", top)
	}
}

// Positions with equal counts must be sampled across strands and
// references, not taken in locus order.
func TestSelectTiesSpanStrandsAndRefs(t *testing.T) {
	tb := postable.New([]string{"chr1", "chr2"})
	for tid := 0; tid < 2; tid++ {
		for _, s := range []dna.Strand{dna.StrandPos, dna.StrandNeg} {
			for p := 0; p < 1000; p++ {
				tb.Inc(tid, s, p)
			}
		}
	}
	rng := rand.New(rand.NewSource(9))
	got := Select(tb.Dump(maxDump, rng), 500, rng, nil)
	if len(got) != 500 {
		t.Fatalf("len %d", len(got))
	}
	var neg, chr2 int
	for _, rp := range got {
		if rp.Strand == dna.StrandNeg {
			neg++
		}
		if rp.Tid == 1 {
			chr2++
		}
	}
	if neg < 175 || neg > 325 || chr2 < 175 || chr2 > 325 {
		t.Fatalf("selected neg=%d chr2=%d of 500", neg, chr2)
	}
}

func TestSelectManyDuplicates(t *testing.T) {
	var rs []postable.ReadPos
	for i := 0; i < 5000; i++ {
		rs = append(rs, postable.ReadPos{Pos: i, Count: 1})
	}
	for i := 0; i < 20000; i++ {
		rs = append(rs, postable.ReadPos{Pos: 10000 + i, Count: 2})
	}
	rs = append(rs, postable.ReadPos{Pos: -1, Count: 1000})
	got := Select(rs, 250000, rand.New(rand.NewSource(2)), nil)
	// 20001 duplicated positions: skip 200, keep 99*20001/100.
	if len(got) != 19800 {
		t.Fatalf("len %d, want 19800", len(got))
	}
	for _, rp := range got {
		if rp.Count != 2 {
			t.Fatalf("kept %+v", rp)
		}
	}
	if got := Select(append([]postable.ReadPos(nil), rs...), 100, nil, nil); len(got) != 100 {
		t.Fatalf("cap ignored: %d", len(got))
	}
}

func TestTabulatePeaksAtAnchor(t *testing.T) {
	genome := randomGenome(1, 5000)
	ref := fakeRef{"chr1": genome}
	tb := postable.New([]string{"chr1"})
	for pos := 10; pos < len(genome)-10; pos++ {
		if genome[pos] == 'g' {
			tb.Inc(0, dna.StrandPos, pos)
		}
	}
	res, err := TabulateTable(context.Background(), ref, tb, nil, opts(3, 3, 1))
	if err != nil {
		t.Fatal(err)
	}
	if res.Windows == 0 || len(res.KL) != 7 {
		t.Fatalf("windows %d, KL %v", res.Windows, res.KL)
	}
	for i, kl := range res.KL {
		if i != 3 && !(res.KL[3] > kl) {
			t.Fatalf("no peak at the anchor: %v", res.KL)
		}
		if kl < 0 || math.IsNaN(kl) || math.IsInf(kl, 0) {
			t.Fatalf("bad divergence %v", kl)
		}
	}
	if res.Offset(3) != 0 || res.Offset(0) != -3 {
		t.Fatal("offsets")
	}
	g, _ := kmer.Encode("g")
	if got := res.Counts.At(3, g); got != float64(res.Windows) {
		t.Fatalf("anchor g count %v, want %d", got, res.Windows)
	}
	for i := 0; i < 7; i++ {
		var z float64
		for _, v := range res.Counts.Row(i) {
			z += v
		}
		if z != float64(res.Windows) {
			t.Fatalf("row %d holds %v, want %d", i, z, res.Windows)
		}
	}
}

func TestTabulateNegativeStrandKmers(t *testing.T) {
	genome := randomGenome(2, 200)
	ref := fakeRef{"chr1": genome}
	tb := postable.New([]string{"chr1"})
	pos := 100
	// The duplicated anchor survives the 1% trim; the single one does not.
	tb.Inc(0, dna.StrandNeg, pos)
	tb.Inc(0, dna.StrandNeg, pos)
	tb.Inc(0, dna.StrandPos, 50)
	L, R, k := 2, 3, 2
	res, err := TabulateTable(context.Background(), ref, tb, nil, opts(L, R, k))
	if err != nil {
		t.Fatal(err)
	}
	w := string(dna.RevComp([]byte(genome[pos-R : pos+L+k])))
	for j := 0; j < L+1+R; j++ {
		K, _ := kmer.Encode(w[j : j+k])
		if res.Counts.At(j, K) != 1 {
			t.Fatalf("row %d missing %s", j, w[j:j+k])
		}
	}
}

func TestTabulateSkipsEdgesAndMissing(t *testing.T) {
	genome := randomGenome(3, 50)
	ref := fakeRef{"chr1": genome[:20] + "n" + genome[21:]}
	tb := postable.New([]string{"chr1", "chrX"})
	tb.Inc(0, dna.StrandPos, 1)  // runs off the start
	tb.Inc(0, dna.StrandNeg, 48) // runs off the end
	tb.Inc(0, dna.StrandPos, 22) // covers the n
	tb.Inc(0, dna.StrandPos, 35) // twice so it survives the 99% cap
	tb.Inc(0, dna.StrandPos, 35)
	tb.Inc(1, dna.StrandPos, 10) // no such reference
	tb.Inc(1, dna.StrandPos, 10)
	res, err := TabulateTable(context.Background(), ref, tb, nil, opts(3, 3, 1))
	if err != nil {
		t.Fatal(err)
	}
	if res.Windows != 1 {
		t.Fatalf("windows %d, want 1", res.Windows)
	}
}

func TestTabulateCancelled(t *testing.T) {
	tb := postable.New([]string{"chr1"})
	tb.Inc(0, dna.StrandPos, 10)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := TabulateTable(ctx, fakeRef{}, tb, nil, opts(1, 1, 1)); err == nil {
		t.Fatal("cancelled context ignored")
	}
}

func TestOptionsValidate(t *testing.T) {
	for _, o := range []Options{opts(-1, 1, 1), opts(1, -1, 1), opts(1, 1, 0), opts(1, 1, 13)} {
		if o.Validate() == nil {
			t.Errorf("accepted %+v", o)
		}
	}
}

func TestTabulateFiles(t *testing.T) {
	dir := t.TempDir()
	contigs := []testfixture.Contig{{Name: "chr1", Seq: randomGenome(4, 3000)}}
	var rs []testfixture.Read
	for pos := 100; pos < 2800; pos += 9 {
		rs = append(rs, testfixture.Read{Pos: pos, Len: 25, Reverse: pos%2 == 0})
	}
	fa := testfixture.WriteFASTA(t, dir, contigs, 60, true)
	bam := testfixture.WriteBAM(t, dir, contigs, rs)
	res, err := Tabulate(context.Background(), fa, bam, opts(5, 5, 2))
	if err != nil {
		t.Fatal(err)
	}
	if res.Windows == 0 || len(res.KL) != 11 || res.Counts.Cols() != 16 {
		t.Fatalf("result %+v", res)
	}
}
