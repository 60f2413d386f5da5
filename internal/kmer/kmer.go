// Package kmer provides k-mer codes and a dense position-by-k-mer
// accumulator used for diagnostics and training summaries.
package kmer

import "seqbias/internal/dna"

// Code is a k-mer packed two bits per base, first base most significant.
type Code uint64

// Encode packs s. ok is false if s holds an ambiguous base or is longer
// than 32 bases.
func Encode(s string) (Code, bool) {
	if len(s) > 32 {
		return 0, false
	}
	var K Code
	for i := 0; i < len(s); i++ {
		nt, ok := dna.NucFromByte(s[i])
		if !ok {
			return 0, false
		}
		K = K<<2 | Code(nt)
	}
	return K, true
}

// Decode unpacks a k-mer of length k in lower case.
func Decode(K Code, k int) string {
	b := make([]byte, k)
	for i := k - 1; i >= 0; i-- {
		b[i] = dna.Nuc(K & 0x3).Byte()
		K >>= 2
	}
	return string(b)
}

// Count returns 4^k.
func Count(k int) int { return 1 << (2 * k) }

// All lists every k-mer of length k in code order.
func All(k int) []string {
	n := Count(k)
	out := make([]string, n)
	for K := 0; K < n; K++ {
		out[K] = Decode(Code(K), k)
	}
	return out
}

// Stream is anything k-mers can be read from by end position.
type Stream interface {
	Len() int
	Kmer(k, pos int) Code
}
