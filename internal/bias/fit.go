package bias

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"seqbias/internal/cmdutil"
	"seqbias/internal/motif"
	"seqbias/internal/postable"
	"seqbias/internal/progress"
	"seqbias/internal/reads"
	"seqbias/internal/reference"
	"seqbias/internal/twobit"
)

const (
	// sparseForeground is the foreground count below which the structure
	// penalty is relaxed to sparsePenalty.
	sparseForeground = 10000
	sparsePenalty    = 0.25

	maxParents  = 4
	maxDistance = 10
)

// FitOptions controls training. Zero values take the defaults from
// DefaultFitOptions except for L and R, which are used as given.
type FitOptions struct {
	MaxReads int     // foreground windows are drawn from at most this many read positions
	L, R     int     // window geometry
	Penalty  float64 // structure complexity penalty
	Rand     *rand.Rand
	Trainer  motif.Trainer
	Logger   logrus.FieldLogger
	Progress progress.Reporter
}

func DefaultFitOptions() FitOptions {
	return FitOptions{MaxReads: 100000, L: 15, R: 15, Penalty: 1}
}

// Validate checks the geometry and sample size.
func (o FitOptions) Validate() error {
	if o.L < 0 || o.R < 0 {
		return fmt.Errorf("bias: L and R must be >= 0, got %d and %d", o.L, o.R)
	}
	if o.MaxReads <= 0 {
		return fmt.Errorf("bias: max reads must be > 0, got %d", o.MaxReads)
	}
	if o.Penalty < 0 {
		return fmt.Errorf("bias: penalty must be >= 0, got %g", o.Penalty)
	}
	return nil
}

// EffectivePenalty is the penalty actually used for nFg foreground
// windows. Sparse training sets get a fixed, less conservative penalty.
func EffectivePenalty(nFg int, requested float64) float64 {
	if nFg < sparseForeground {
		return sparsePenalty
	}
	return requested
}

// Fit scans the BAM at readsPath, samples windows from the FASTA at
// refPath and trains a model. The returned model keeps the reference
// open for Predict.
func Fit(ctx context.Context, refPath, readsPath string, opts FitOptions) (*Model, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ref, err := reference.Open(refPath)
	if err != nil {
		return nil, err
	}
	rf, err := reads.Open(readsPath)
	if err != nil {
		_ = ref.Close()
		return nil, err
	}
	table, err := postable.Build(ctx, rf, postable.BuildOptions{Logger: opts.Logger, Progress: opts.Progress})
	_ = rf.Close()
	if err != nil {
		_ = ref.Close()
		return nil, err
	}
	m, err := FitTable(ctx, ref, table, opts)
	if err != nil {
		_ = ref.Close()
		return nil, err
	}
	m.refPath = refPath
	return m, nil
}

// FitTable trains from a prebuilt read position table. On success the
// model owns ref.
func FitTable(ctx context.Context, ref Reference, t *postable.Table, opts FitOptions) (*Model, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	log := cmdutil.OrDiscard(opts.Logger)
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	trainer := opts.Trainer
	if trainer == nil {
		trainer = motif.NetworkTrainer{Logger: opts.Logger}
	}

	fg, bg, err := sampleWindows(ctx, ref, t, opts, rng, log)
	if err != nil {
		return nil, err
	}
	penalty := EffectivePenalty(len(fg), opts.Penalty)
	log.WithFields(logrus.Fields{
		"foreground": len(fg),
		"background": len(bg),
		"penalty":    penalty,
	}).Info("training motif")

	mm, err := trainer.Train(ctx, bg, fg, motif.Params{
		Len:         opts.L + 1 + opts.R,
		MaxParents:  maxParents,
		MaxDistance: maxDistance,
		Penalty:     penalty,
	})
	if err != nil {
		return nil, fmt.Errorf("bias: training: %w", err)
	}
	return &Model{
		L:     opts.L,
		R:     opts.R,
		motif: mm,
		codec: motif.NetworkCodec{},
		ref:   ref,
		log:   log,
	}, nil
}

// sampleWindows draws foreground windows at read anchors and bgPerFg
// background windows per foreground window at Gaussian offsets.
//
// The dump comes back shuffled, so the first MaxReads entries are a
// uniform sample. They are then sorted by reference so that one sequence
// is resident at a time.
func sampleWindows(ctx context.Context, ref Reference, t *postable.Table, opts FitOptions, rng *rand.Rand, log logrus.FieldLogger) (fg, bg []*twobit.Seq, err error) {
	rs := t.Dump(maxDump, rng)
	if len(rs) > opts.MaxReads {
		rs = rs[:opts.MaxReads]
	}
	postable.SortByTid(rs)

	names := t.SeqNames()
	offsets := newOffsetSampler(rng)
	var (
		seq []byte
		cur = -1
	)
	for n, rp := range rs {
		if n&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		if rp.Tid != cur {
			cur = rp.Tid
			seq, err = ref.FetchAll(names[rp.Tid])
			if errors.Is(err, reference.ErrNotFound) {
				log.WithField("seqname", names[rp.Tid]).Warn("reference sequence not found, skipping")
				seq = nil
			} else if err != nil {
				return nil, nil, err
			} else {
				log.Infof("read sequence %s", names[rp.Tid])
			}
		}
		if seq == nil {
			continue
		}

		w, ok := Window(seq, rp.Pos, opts.L, opts.R, rp.Strand)
		if !ok {
			continue
		}
		fg = append(fg, twobit.New(w, rng))

		for got, tries := 0, 0; got < bgPerFg; tries++ {
			if tries&0x3ff == 0x3ff {
				if err := ctx.Err(); err != nil {
					return nil, nil, err
				}
			}
			w, ok := Window(seq, rp.Pos+offsets.next(), opts.L, opts.R, rp.Strand)
			if !ok {
				continue
			}
			bg = append(bg, twobit.New(w, rng))
			got++
		}
	}
	return fg, bg, nil
}
