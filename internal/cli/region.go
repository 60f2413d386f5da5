package cli

import (
	"fmt"
	"strconv"
	"strings"

	"seqbias/internal/dna"
)

// Region is a genomic interval. Start and End are 0-based and inclusive;
// the command line speaks 1-based.
type Region struct {
	Seqname    string
	Start, End int
}

// ParseRegion reads "name:start-end" with 1-based inclusive coordinates.
// Thousands separators are accepted. The name may itself contain ':'.
func ParseRegion(s string) (Region, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return Region{}, fmt.Errorf("region %q: want name:start-end", s)
	}
	name, span := s[:i], strings.ReplaceAll(s[i+1:], ",", "")
	a, b, ok := strings.Cut(span, "-")
	if !ok {
		return Region{}, fmt.Errorf("region %q: want name:start-end", s)
	}
	start, err := strconv.Atoi(a)
	if err != nil {
		return Region{}, fmt.Errorf("region %q: bad start: %w", s, err)
	}
	end, err := strconv.Atoi(b)
	if err != nil {
		return Region{}, fmt.Errorf("region %q: bad end: %w", s, err)
	}
	if start < 1 || end < start {
		return Region{}, fmt.Errorf("region %q: need 1 <= start <= end", s)
	}
	return Region{Seqname: name, Start: start - 1, End: end - 1}, nil
}

func (r Region) String() string { return fmt.Sprintf("%s:%d-%d", r.Seqname, r.Start+1, r.End+1) }

// parseStrand accepts "+" and "-", and "." when allowNA is set.
func parseStrand(s string, allowNA bool) (dna.Strand, error) {
	st := dna.ParseStrand(s)
	if st.Valid() || (allowNA && s == ".") {
		return st, nil
	}
	if allowNA {
		return dna.StrandNA, fmt.Errorf("--strand must be +, - or ., got %q", s)
	}
	return dna.StrandNA, fmt.Errorf("--strand must be + or -, got %q", s)
}
