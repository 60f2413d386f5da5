// Package postable deduplicates read start positions.
//
// Every mapped read contributes one count at its 5' anchor: the leftmost
// aligned base on the forward strand, the rightmost on the reverse strand.
package postable

import (
	"github.com/biogo/hts/sam"
	"golang.org/x/exp/rand"
	"golang.org/x/exp/slices"

	"seqbias/internal/dna"
)

type key struct {
	tid    int32
	strand dna.Strand
	pos    int32
}

// ReadPos is one distinct anchor and how many reads share it.
type ReadPos struct {
	Tid    int
	Strand dna.Strand
	Pos    int
	Count  uint32
}

// Table maps (tid, strand, pos) to a read count.
type Table struct {
	names  []string
	counts map[key]uint32
}

// New creates an empty table over the given reference names; tid i
// refers to names[i].
func New(names []string) *Table {
	return &Table{
		names:  append([]string(nil), names...),
		counts: make(map[key]uint32),
	}
}

// SeqNames returns the reference names indexed by tid.
func (t *Table) SeqNames() []string { return t.names }

// Len is the number of distinct anchors.
func (t *Table) Len() int { return len(t.counts) }

// Inc adds one read at (tid, strand, pos).
func (t *Table) Inc(tid int, s dna.Strand, pos int) {
	t.counts[key{int32(tid), s, int32(pos)}]++
}

// Count returns the number of reads recorded at (tid, strand, pos).
func (t *Table) Count(tid int, s dna.Strand, pos int) uint32 {
	return t.counts[key{int32(tid), s, int32(pos)}]
}

// AddRecord counts r and reports whether it was kept. Unmapped reads and
// reads whose alignment is not a single CIGAR operation are skipped.
func (t *Table) AddRecord(r *sam.Record) bool {
	if r == nil || len(r.Cigar) != 1 {
		return false
	}
	s, pos, ok := Anchor(r)
	if !ok {
		return false
	}
	t.Inc(r.Ref.ID(), s, pos)
	return true
}

// Anchor returns the strand and 0-based 5' position of a mapped read.
func Anchor(r *sam.Record) (dna.Strand, int, bool) {
	if r == nil || r.Ref == nil || r.Flags&sam.Unmapped != 0 {
		return dna.StrandNA, 0, false
	}
	if r.Flags&sam.Reverse != 0 {
		return dna.StrandNeg, r.End() - 1, true
	}
	return dna.StrandPos, r.Pos, true
}

// Dump returns at most max entries in random order, so a capped dump is a
// uniform sample of the table. The order depends only on the table
// contents and rng; a nil rng uses a source seeded with 1. max <= 0
// means no cap.
func (t *Table) Dump(max int, rng *rand.Rand) []ReadPos {
	out := make([]ReadPos, 0, len(t.counts))
	for k, c := range t.counts {
		out = append(out, ReadPos{Tid: int(k.tid), Strand: k.strand, Pos: int(k.pos), Count: c})
	}
	// map order is not reproducible; fix it before shuffling
	slices.SortFunc(out, compareLocus)
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if max > 0 && len(out) > max {
		out = out[:max]
	}
	return out
}

func compareLocus(a, b ReadPos) int {
	switch {
	case a.Tid != b.Tid:
		return a.Tid - b.Tid
	case a.Strand != b.Strand:
		return int(a.Strand) - int(b.Strand)
	default:
		return a.Pos - b.Pos
	}
}

// SortByTid orders entries by reference id only. The sort is stable so
// any prior shuffle is preserved within a reference.
func SortByTid(xs []ReadPos) {
	slices.SortStableFunc(xs, func(a, b ReadPos) int { return a.Tid - b.Tid })
}

// SortByCountDesc orders entries by count, highest first. Ties keep their
// relative order.
func SortByCountDesc(xs []ReadPos) {
	slices.SortStableFunc(xs, func(a, b ReadPos) int {
		switch {
		case a.Count > b.Count:
			return -1
		case a.Count < b.Count:
			return 1
		}
		return 0
	})
}
