package motif

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"seqbias/internal/cmdutil"
	"seqbias/internal/dna"
	"seqbias/internal/twobit"
)

// NetworkTrainer learns a Network by greedy structure search.
//
// Each round tries adding every excluded position as a parentless node
// and every admissible edge j -> i, and keeps
// the single change that most improves
//
//	sum_s log P(class_s | x_s) - Penalty * params * ln(N)
//
// Search stops when no change improves it.
type NetworkTrainer struct {
	Workers int // candidate evaluation goroutines; <1 means GOMAXPROCS
	Logger  logrus.FieldLogger
}

type candidate struct {
	index   int
	parents []int
}

type outcome struct {
	f   *factor
	cll float64
}

type search struct {
	p       Params
	xs      [][]dna.Nuc
	ys      []bool
	nFg     int
	nBg     int
	d       []float64 // per-sequence log-odds of foreground under the current network
	cll     float64
	factors []*factor // by position; nil when excluded
}

// Train implements Trainer.
func (t NetworkTrainer) Train(ctx context.Context, bg, fg []*twobit.Seq, p Params) (Model, error) {
	log := cmdutil.OrDiscard(t.Logger)
	if p.Len <= 0 {
		return nil, fmt.Errorf("motif: window length must be positive, got %d", p.Len)
	}
	if len(fg) == 0 || len(bg) == 0 {
		return nil, fmt.Errorf("motif: need foreground and background windows, got %d and %d", len(fg), len(bg))
	}
	s, err := newSearch(bg, fg, p)
	if err != nil {
		return nil, err
	}
	workers := t.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	lnN := math.Log(float64(len(s.xs)))

	for round := 1; ; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cands := s.candidates()
		if len(cands) == 0 {
			break
		}
		results := s.evaluate(ctx, cands, workers)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		best, bestScore := -1, 0.0
		for k, r := range results {
			dp := r.f.params()
			if old := s.factors[cands[k].index]; old != nil {
				dp -= old.params()
			}
			score := r.cll - s.cll - p.Penalty*float64(dp)*lnN
			if score > bestScore {
				best, bestScore = k, score
			}
		}
		if best < 0 {
			break
		}
		c := cands[best]
		s.apply(results[best].f)
		log.WithFields(logrus.Fields{
			"round":    round,
			"position": c.index,
			"parents":  c.parents,
			"cll":      fmt.Sprintf("%.4g", s.cll),
		}).Debug("motif: accepted change")
	}

	m := &Network{n: p.Len}
	for _, f := range s.factors {
		if f != nil {
			m.factors = append(m.factors, f)
		}
	}
	log.Infof("motif: %d positions, %d edges", len(m.factors), m.Edges())
	return m, nil
}

func newSearch(bg, fg []*twobit.Seq, p Params) (*search, error) {
	s := &search{
		p:       p,
		nFg:     len(fg),
		nBg:     len(bg),
		factors: make([]*factor, p.Len),
	}
	add := func(seqs []*twobit.Seq, y bool) error {
		for _, q := range seqs {
			if q.Len() != p.Len {
				return fmt.Errorf("%w: got %d, want %d", ErrLength, q.Len(), p.Len)
			}
			x := make([]dna.Nuc, p.Len)
			for i := range x {
				x[i] = q.At(i)
			}
			s.xs = append(s.xs, x)
			s.ys = append(s.ys, y)
		}
		return nil
	}
	if err := add(bg, false); err != nil {
		return nil, err
	}
	if err := add(fg, true); err != nil {
		return nil, err
	}
	prior := math.Log(float64(s.nFg) / float64(s.nBg))
	s.d = make([]float64, len(s.xs))
	for k := range s.d {
		s.d[k] = prior
		s.cll += logPosterior(s.ys[k], prior)
	}
	return s, nil
}

// candidates lists every admissible single change in a fixed order. A
// position may gain a parent whether or not it is already in the
// network; parents need not be in the network themselves.
func (s *search) candidates() []candidate {
	var out []candidate
	for i, f := range s.factors {
		var parents []int
		if f == nil {
			out = append(out, candidate{index: i})
		} else {
			parents = f.parents
		}
		if len(parents) >= s.p.MaxParents {
			continue
		}
		for j := range s.factors {
			if j == i || abs(i-j) > s.p.MaxDistance || slices.Contains(parents, j) || s.reaches(j, i) {
				continue
			}
			out = append(out, candidate{index: i, parents: append(slices.Clone(parents), j)})
		}
	}
	return out
}

// reaches reports whether target is an ancestor of (or equal to) from.
func (s *search) reaches(from, target int) bool {
	if from == target {
		return true
	}
	f := s.factors[from]
	if f == nil {
		return false
	}
	for _, p := range f.parents {
		if s.reaches(p, target) {
			return true
		}
	}
	return false
}

func (s *search) evaluate(ctx context.Context, cands []candidate, workers int) []outcome {
	out := make([]outcome, len(cands))
	jobs := make(chan int, workers*2)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for k := range jobs {
				out[k] = s.try(cands[k])
			}
		}()
	}
feed:
	for k := range cands {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- k:
		}
	}
	close(jobs)
	wg.Wait()
	return out
}

// fit estimates both class tables for position index given parents.
func (s *search) fit(index int, parents []int) *factor {
	f := newFactor(index, parents)
	fgc := make([]float64, f.tableSize())
	bgc := make([]float64, f.tableSize())
	for k, x := range s.xs {
		if s.ys[k] {
			fgc[f.code(x)]++
		} else {
			bgc[f.code(x)]++
		}
	}
	f.setTables(conditional(fgc, f.shift), conditional(bgc, f.shift))
	return f
}

func (s *search) try(c candidate) outcome {
	f := s.fit(c.index, c.parents)
	old := s.factors[c.index]
	var cll float64
	for k, x := range s.xs {
		d := s.d[k] + f.lr[f.code(x)]
		if old != nil {
			d -= old.lr[old.code(x)]
		}
		cll += logPosterior(s.ys[k], d)
	}
	return outcome{f: f, cll: cll}
}

func (s *search) apply(f *factor) {
	old := s.factors[f.index]
	s.cll = 0
	for k, x := range s.xs {
		s.d[k] += f.lr[f.code(x)]
		if old != nil {
			s.d[k] -= old.lr[old.code(x)]
		}
		s.cll += logPosterior(s.ys[k], s.d[k])
	}
	s.factors[f.index] = f
}

// logPosterior is log P(y | x) for log-odds d = log P(fg|x) - log P(bg|x).
func logPosterior(fg bool, d float64) float64 {
	if fg {
		return -softplus(-d)
	}
	return -softplus(d)
}

// softplus is log(1 + e^z) without overflow.
func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
