// Package twobit stores nucleotide sequences packed two bits per base and
// extracts fixed or masked k-mers from them in constant time per base.
//
// Bases other than A, C, G, T (and U, read as A) cannot be represented.
// They are replaced at encode time by a base drawn uniformly at random.
// This is a known approximation: windows that matter for training are
// screened for ambiguous bases before they are encoded, so the substitution
// only touches prediction queries over N runs.
package twobit

import (
	"strings"

	"golang.org/x/exp/rand"

	"seqbias/internal/dna"
	"seqbias/internal/kmer"
)

// perWord is the number of bases held by one storage word.
const perWord = 32

// MaxK is the longest k-mer a Code can carry.
const MaxK = perWord

// Seq is an immutable packed sequence. The zero value is an empty sequence.
type Seq struct {
	words []uint64
	n     int
}

// New packs s. Ambiguous bases draw from rng; a nil rng draws from the
// process-wide source of golang.org/x/exp/rand, which is safe for
// concurrent use.
func New(s []byte, rng *rand.Rand) *Seq {
	q := &Seq{n: len(s)}
	if q.n == 0 {
		return q
	}
	q.words = make([]uint64, q.n/perWord+1)
	for i, b := range s {
		nt, ok := dna.NucFromByte(b)
		if !ok {
			if rng != nil {
				nt = dna.Nuc(rng.Intn(4))
			} else {
				nt = dna.Nuc(rand.Intn(4))
			}
		}
		q.words[i/perWord] |= uint64(nt) << (2 * (i % perWord))
	}
	return q
}

// FromString is New for string input.
func FromString(s string, rng *rand.Rand) *Seq { return New([]byte(s), rng) }

// Len is the number of bases.
func (q *Seq) Len() int { return q.n }

// At returns the base at i.
func (q *Seq) At(i int) dna.Nuc {
	return dna.Nuc((q.words[i/perWord] >> (2 * (i % perWord))) & 0x3)
}

// String decodes the sequence in lower case.
func (q *Seq) String() string {
	var sb strings.Builder
	sb.Grow(q.n)
	for i := 0; i < q.n; i++ {
		sb.WriteByte(q.At(i).Byte())
	}
	return sb.String()
}

// Clone returns an independent copy.
func (q *Seq) Clone() *Seq {
	return &Seq{words: append([]uint64(nil), q.words...), n: q.n}
}

// Kmer returns the k-mer ending at pos, i.e. bases pos-k+1 through pos,
// with the first base in the most significant position. The caller
// guarantees pos-k+1 >= 0 and pos < Len().
func (q *Seq) Kmer(k, pos int) kmer.Code {
	var K kmer.Code
	for i := pos - k + 1; i <= pos; i++ {
		K = K<<2 | kmer.Code((q.words[i/perWord]>>(2*(i%perWord)))&0x3)
	}
	return K
}

// MaskedKmer builds a k-mer from the bases pos+i for which mask[i] is
// set, in increasing order of i. It also returns how many bases were
// taken, which is the effective k of the code.
func (q *Seq) MaskedKmer(pos int, mask []bool) (kmer.Code, int) {
	var (
		K kmer.Code
		k int
	)
	for i, on := range mask {
		if !on {
			continue
		}
		j := pos + i
		K = K<<2 | kmer.Code((q.words[j/perWord]>>(2*(j%perWord)))&0x3)
		k++
	}
	return K, k
}
