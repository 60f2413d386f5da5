// Package dna holds the small closed vocabularies shared by every other
// package: nucleotides, strands and complementation.
package dna

import "fmt"

// Nuc is a nucleotide code in {A, C, G, T}. The numeric values are the
// 2-bit codes used by packed sequences and k-mers.
type Nuc uint8

const (
	A Nuc = iota
	C
	G
	T
)

// NucFromByte maps a base letter to its code. Matching is case
// insensitive and U is read as A. ok is false for anything else
// (N, IUPAC ambiguity codes, gaps).
func NucFromByte(b byte) (Nuc, bool) {
	switch b {
	case 'a', 'A', 'u', 'U':
		return A, true
	case 'c', 'C':
		return C, true
	case 'g', 'G':
		return G, true
	case 't', 'T':
		return T, true
	default:
		return 0, false
	}
}

// Byte returns the lower-case letter for n.
func (n Nuc) Byte() byte { return "acgt"[n&0x3] }

func (n Nuc) String() string { return string(n.Byte()) }

// Strand of a read or query.
type Strand int8

const (
	StrandPos Strand = iota
	StrandNeg
	StrandNA
)

// ParseStrand accepts "+" and "-"; anything else is StrandNA.
func ParseStrand(s string) Strand {
	switch s {
	case "+":
		return StrandPos
	case "-":
		return StrandNeg
	default:
		return StrandNA
	}
}

func (s Strand) String() string {
	switch s {
	case StrandPos:
		return "+"
	case StrandNeg:
		return "-"
	default:
		return "."
	}
}

// Valid reports whether s is one of the two concrete strands.
func (s Strand) Valid() bool { return s == StrandPos || s == StrandNeg }

// Index returns 0 for + and 1 for -. It panics on StrandNA.
func (s Strand) Index() int {
	if !s.Valid() {
		panic(fmt.Sprintf("dna: no index for strand %v", s))
	}
	return int(s)
}
