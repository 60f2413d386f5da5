// Package tabulate measures how far the k-mer composition at each offset
// from read starts departs from the composition of the whole window. It
// is a cheap way to choose L and R before training a model.
package tabulate

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"seqbias/internal/bias"
	"seqbias/internal/cmdutil"
	"seqbias/internal/kmer"
	"seqbias/internal/postable"
	"seqbias/internal/progress"
	"seqbias/internal/reads"
	"seqbias/internal/reference"
	"seqbias/internal/twobit"
)

const (
	maxDump = 10000000
	// dupThreshold is the number of duplicated positions above which only
	// duplicated positions are sampled.
	dupThreshold = 10000
)

type Options struct {
	L, R, K   int
	MaxReads  int        // sample cap; default 250000
	ModelPath string     // optional bias model used as a window weight
	Rand      *rand.Rand // read sampling; nil means a source seeded with 1
	Logger    logrus.FieldLogger
	Progress  progress.Reporter
}

func DefaultOptions() Options {
	return Options{L: 20, R: 20, K: 1, MaxReads: 250000}
}

func (o Options) Validate() error {
	if o.L < 0 || o.R < 0 {
		return fmt.Errorf("tabulate: L and R must be >= 0, got %d and %d", o.L, o.R)
	}
	if o.K < 1 || o.K > kmer.MaxMatrixK {
		return fmt.Errorf("tabulate: k must be in [1,%d], got %d", kmer.MaxMatrixK, o.K)
	}
	if o.MaxReads <= 0 {
		return fmt.Errorf("tabulate: max reads must be > 0, got %d", o.MaxReads)
	}
	return nil
}

// Result holds raw k-mer counts per window position and the symmetric KL
// divergence of each position from the pooled window composition.
type Result struct {
	L, R, K int
	Counts  *kmer.Matrix
	KL      []float64
	Windows int // windows tallied
}

// Offset is the position of row i relative to the read anchor.
func (r *Result) Offset(i int) int { return i - r.L }

// Tabulate scans the BAM at readsPath and tallies windows from the FASTA
// at refPath.
func Tabulate(ctx context.Context, refPath, readsPath string, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	ref, err := reference.Open(refPath)
	if err != nil {
		return nil, err
	}
	defer ref.Close()

	var model *bias.Model
	if opts.ModelPath != "" {
		model, err = bias.Load(opts.ModelPath, refPath)
		if err != nil {
			return nil, err
		}
		defer model.Close()
	}

	rf, err := reads.Open(readsPath)
	if err != nil {
		return nil, err
	}
	table, err := postable.Build(ctx, rf, postable.BuildOptions{Logger: opts.Logger, Progress: opts.Progress})
	_ = rf.Close()
	if err != nil {
		return nil, err
	}
	return TabulateTable(ctx, ref, table, model, opts)
}

// Select picks the read positions to tally: the most duplicated
// positions when there are many of them, minus the top 1% by count,
// capped at maxReads and ordered by reference. Positions with equal
// counts are taken in an order drawn from rng (nil means seed 1).
func Select(rs []postable.ReadPos, maxReads int, rng *rand.Rand, log logrus.FieldLogger) []postable.ReadPos {
	log = cmdutil.OrDiscard(log)
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	rng.Shuffle(len(rs), func(i, j int) { rs[i], rs[j] = rs[j], rs[i] })
	postable.SortByCountDesc(rs)
	i := 0
	for i < len(rs) && rs[i].Count > 1 {
		i++
	}
	if i > dupThreshold {
		maxReads = min(maxReads, i)
		log.Infof("%d reads with duplicates", i)
	} else {
		i = len(rs)
	}
	rs = rs[i/100:]
	maxReads = min(maxReads, 99*i/100, len(rs))
	rs = rs[:maxReads]
	postable.SortByTid(rs)
	return rs
}

// TabulateTable tallies windows around the positions in t. model may be
// nil.
func TabulateTable(ctx context.Context, ref bias.Reference, t *postable.Table, model *bias.Model, opts Options) (*Result, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := cmdutil.OrDiscard(opts.Logger)
	k := opts.K
	counts, err := kmer.NewMatrix(opts.L+1+opts.R, k)
	if err != nil {
		return nil, err
	}
	res := &Result{L: opts.L, R: opts.R, K: k, Counts: counts}

	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	rs := Select(t.Dump(maxDump, rng), opts.MaxReads, rng, log)
	names := t.SeqNames()
	var (
		seq []byte
		cur = -1
	)
	for n, rp := range rs {
		if n&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		if rp.Tid != cur {
			cur = rp.Tid
			seq, err = ref.FetchAll(names[rp.Tid])
			if errors.Is(err, reference.ErrNotFound) {
				log.WithField("seqname", names[rp.Tid]).Warn("reference sequence not found, skipping")
				seq = nil
			} else if err != nil {
				return nil, err
			} else {
				log.Infof("read sequence %s", names[rp.Tid])
			}
		}
		if seq == nil {
			continue
		}
		// k-1 extra upstream bases so the first k-mer ends at offset -L.
		w, ok := bias.Window(seq, rp.Pos, opts.L+k-1, opts.R, rp.Strand)
		if !ok {
			continue
		}
		wt := weight(model, names[rp.Tid], rp)
		q := twobit.New(w, rng)
		for pos := k - 1; pos < len(w); pos++ {
			counts.Add(pos-(k-1), q.Kmer(k, pos), wt)
		}
		res.Windows++
	}
	res.KL = kmer.Divergence(counts)
	log.WithField("windows", res.Windows).Info("tabulated k-mers")
	return res, nil
}

// weight is the contribution of one window. A model may be supplied but
// does not change the weight yet.
// TODO: weight windows by 1/Predict at the anchor once corrected
// divergences have been validated against uncorrected ones.
func weight(model *bias.Model, seqname string, rp postable.ReadPos) float64 {
	return 1
}
