package bias

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"

	"seqbias/internal/dna"
)

const (
	// maxDump caps how many distinct read positions are sampled from.
	maxDump = 10000000
	// bgPerFg is the number of background windows drawn per foreground
	// window.
	bgPerFg = 2
	// bgSigma is the standard deviation, in bases, of background offsets.
	bgSigma = 500
)

// Window copies the L+1+R bases around anchor pos of seq, oriented 5' to
// 3' on strand s. On the negative strand that is seq[pos-R : pos+L]
// reverse-complemented. ok is false when the window leaves seq or holds
// an ambiguous base.
func Window(seq []byte, pos, L, R int, s dna.Strand) (w []byte, ok bool) {
	lo, hi := pos-L, pos+R
	if s == dna.StrandNeg {
		lo, hi = pos-R, pos+L
	}
	if lo < 0 || hi >= len(seq) {
		return nil, false
	}
	w = append([]byte(nil), seq[lo:hi+1]...)
	if dna.HasAmbiguous(w) {
		return nil, false
	}
	if s == dna.StrandNeg {
		dna.RevCompInPlace(w)
	}
	return w, true
}

// roundAway rounds x to an integer away from zero.
func roundAway(x float64) int {
	if x < 0 {
		return int(math.Floor(x))
	}
	return int(math.Ceil(x))
}

// offsetSampler draws background offsets from N(0, bgSigma), rounded
// away from zero.
type offsetSampler struct {
	d distuv.Normal
}

func newOffsetSampler(rng *rand.Rand) offsetSampler {
	return offsetSampler{d: distuv.Normal{Mu: 0, Sigma: bgSigma, Src: rng}}
}

func (o offsetSampler) next() int { return roundAway(o.d.Rand()) }
