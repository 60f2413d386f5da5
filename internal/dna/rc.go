// internal/dna/rc.go
package dna

var complement [256]byte

func init() {
	for i := range complement {
		complement[i] = 'n'
	}
	pair := func(a, b byte) {
		complement[a], complement[b] = b, a
		complement[a+'a'-'A'], complement[b+'a'-'A'] = b+'a'-'A', a+'a'-'A'
	}
	pair('A', 'T')
	pair('C', 'G')
	complement['U'], complement['u'] = 'A', 'a'
	complement['N'] = 'N'
}

// Complement returns the Watson-Crick complement of b, keeping case.
// Anything outside ACGTU complements to 'n' (or 'N').
func Complement(b byte) byte { return complement[b] }

// RevComp returns a new reverse-complemented copy of seq.
func RevComp(seq []byte) []byte {
	n := len(seq)
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = complement[seq[n-1-i]]
	}
	return out
}

// RevCompInPlace reverse-complements seq without allocating.
func RevCompInPlace(seq []byte) {
	for i, j := 0, len(seq)-1; i <= j; i, j = i+1, j-1 {
		seq[i], seq[j] = complement[seq[j]], complement[seq[i]]
	}
}

// HasAmbiguous reports whether seq contains any byte that is not a
// concrete nucleotide.
func HasAmbiguous(seq []byte) bool {
	for _, b := range seq {
		if _, ok := NucFromByte(b); !ok {
			return true
		}
	}
	return false
}
