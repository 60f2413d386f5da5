package bias

import (
	"seqbias/internal/dna"
	"seqbias/internal/twobit"
)

// Predict returns one bias multiplier per base of seqname[start..end]
// (0-based, inclusive), running 5' to 3' on the given strand: from start
// to end on +, from end down to start on -. Each value is the motif score
// of the window anchored at that base; read counts are divided by it to
// correct for bias.
//
// Predict returns nil when strand is not + or -, when the interval is
// empty, or when no model or reference is attached. If the surrounding
// sequence cannot be fetched, every value is 1.
func (m *Model) Predict(seqname string, start, end int, strand dna.Strand) []float64 {
	if !strand.Valid() || m.ref == nil || m.motif == nil || end < start {
		return nil
	}
	n := end - start + 1
	bs := make([]float64, n)
	for i := range bs {
		bs[i] = 1
	}

	lo, hi := start-m.L, end+m.R
	if strand == dna.StrandNeg {
		lo, hi = start-m.R, end+m.L
	}
	s, err := m.ref.Fetch(seqname, lo, hi)
	if err != nil {
		m.log.WithField("seqname", seqname).Debugf("predict: %v", err)
		return bs
	}
	if strand == dna.StrandNeg {
		dna.RevCompInPlace(s)
	}
	q := twobit.New(s, m.rng)
	for i := range bs {
		bs[i] = m.motif.Eval(q, i)
	}
	return bs
}
