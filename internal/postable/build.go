package postable

import (
	"context"

	"github.com/biogo/hts/sam"
	"github.com/sirupsen/logrus"

	"seqbias/internal/cmdutil"
	"seqbias/internal/progress"
)

// logEvery is how many scanned reads pass between progress log lines.
const logEvery = 1000000

// Source yields every record of an alignment file in file order.
type Source interface {
	RefNames() []string
	Scan(ctx context.Context, fn func(*sam.Record) error) error
}

type BuildOptions struct {
	Logger   logrus.FieldLogger
	Progress progress.Reporter
}

// Build scans src once and returns the table of read anchors.
func Build(ctx context.Context, src Source, opts BuildOptions) (*Table, error) {
	log := cmdutil.OrDiscard(opts.Logger)
	prog := progress.OrNop(opts.Progress)
	defer prog.Done()

	t := New(src.RefNames())
	n := 0
	err := src.Scan(ctx, func(r *sam.Record) error {
		t.AddRecord(r)
		n++
		prog.Add(1)
		if n%logEvery == 0 {
			log.Infof("hashed %d reads", n)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithField("distinct", t.Len()).Infof("hashed %d reads", n)
	return t, nil
}
