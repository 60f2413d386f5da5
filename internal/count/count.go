// Package count tallies read 5' ends over a genomic interval, optionally
// dividing each read by the predicted sequence bias at its anchor.
package count

import (
	"context"
	"fmt"

	"github.com/biogo/hts/sam"
	"golang.org/x/exp/slices"

	"seqbias/internal/bias"
	"seqbias/internal/dna"
	"seqbias/internal/kmer"
	"seqbias/internal/postable"
	"seqbias/internal/twobit"
)

// Query selects reads anchored in Seqname[Start..End] (0-based,
// inclusive). StrandNA counts both strands.
type Query struct {
	Seqname    string
	Start, End int
	Strand     dna.Strand
	Sum        bool // collapse the interval into one total
}

func (q Query) Len() int { return q.End - q.Start + 1 }

func (q Query) Validate() error {
	if q.Seqname == "" {
		return fmt.Errorf("count: empty sequence name")
	}
	if q.Start < 0 || q.End < q.Start {
		return fmt.Errorf("count: bad interval [%d,%d]", q.Start, q.End)
	}
	return nil
}

// Source yields the reads overlapping a half-open interval.
type Source interface {
	Query(ctx context.Context, name string, start, end int, fn func(*sam.Record) error) error
}

// Count returns one value per base of the interval, or a single value
// when q.Sum is set. Each read adds 1, or 1/bias at its anchor when model
// is non-nil. On the negative strand the per-base output runs 5' to 3'
// of that strand, i.e. from End down to Start.
func Count(ctx context.Context, model *bias.Model, src Source, q Query) ([]float64, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if model != nil && !model.HasReference() {
		return nil, bias.ErrNoReference
	}
	n := q.Len()
	out := make([]float64, n)
	if q.Sum {
		out = out[:1]
	}

	var bs [2][]float64
	if model != nil {
		for _, s := range []dna.Strand{dna.StrandPos, dna.StrandNeg} {
			if q.Strand.Valid() && q.Strand != s {
				continue
			}
			b := model.Predict(q.Seqname, q.Start, q.End, s)
			if s == dna.StrandNeg {
				// genomic order, to index by anchor
				slices.Reverse(b)
			}
			bs[s.Index()] = b
		}
	}

	err := src.Query(ctx, q.Seqname, q.Start, q.End+1, func(r *sam.Record) error {
		s, pos, ok := postable.Anchor(r)
		if !ok || (q.Strand.Valid() && s != q.Strand) {
			return nil
		}
		if pos < q.Start || pos > q.End {
			return nil
		}
		i := pos - q.Start
		w := 1.0
		if b := bs[s.Index()]; b != nil && b[i] > 0 {
			w = 1 / b[i]
		}
		if q.Sum {
			i = 0
		}
		out[i] += w
		return nil
	})
	if err != nil {
		return nil, err
	}
	if q.Strand == dna.StrandNeg && !q.Sum {
		slices.Reverse(out)
	}
	return out, nil
}

// TallyKmers accumulates, for every read anchored in the interval, the
// k-mers of the L+1+R window around its anchor. q.Strand must be + or -.
// The returned matrix holds raw weights; rows run from -L to +R.
func TallyKmers(ctx context.Context, ref bias.Reference, model *bias.Model, src Source, q Query, L, R, k int) (*kmer.Matrix, error) {
	if !q.Strand.Valid() {
		return nil, fmt.Errorf("count: k-mer tally needs strand + or -, got %v", q.Strand)
	}
	if L < 0 || R < 0 {
		return nil, fmt.Errorf("count: L and R must be >= 0, got %d and %d", L, R)
	}
	m, err := kmer.NewMatrix(L+1+R, k)
	if err != nil {
		return nil, err
	}
	q.Sum = false
	counts, err := Count(ctx, model, src, q)
	if err != nil {
		return nil, err
	}

	// k-1 extra bases downstream so the last row's k-mer fits.
	up, down := L, R+k-1
	lo, hi := q.Start-up, q.End+down
	if q.Strand == dna.StrandNeg {
		lo, hi = q.Start-down, q.End+up
	}
	seq, err := ref.Fetch(q.Seqname, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("count: %s:%d-%d: %w", q.Seqname, lo, hi, err)
	}
	if q.Strand == dna.StrandNeg {
		dna.RevCompInPlace(seq)
	}

	padded := make([]float64, len(seq))
	copy(padded[up:], counts)
	if err := m.Tally(twobit.New(seq, nil), padded, L); err != nil {
		return nil, err
	}
	return m, nil
}
