// internal/app/app.go
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/exp/rand"

	"seqbias/internal/bias"
	"seqbias/internal/cli"
	"seqbias/internal/cmdutil"
	"seqbias/internal/count"
	"seqbias/internal/dna"
	"seqbias/internal/motif"
	"seqbias/internal/output"
	"seqbias/internal/progress"
	"seqbias/internal/reads"
	"seqbias/internal/reference"
	"seqbias/internal/tabulate"
	"seqbias/internal/writers"
)

// Exit codes.
const (
	ExitOK        = 0
	ExitUsage     = 2
	ExitFailure   = 3
	ExitCancelled = 130
)

// RunContext parses argv, runs one command and returns the process exit
// code. Results go to stdout; logs, warnings and errors go to stderr.
func RunContext(parent context.Context, argv []string, stdout, stderr io.Writer) int {
	outw := bufio.NewWriter(stdout)
	r := &runner{stdout: outw, stderr: stderr}
	root := cli.NewRootCommand(r.handlers(), outw, stderr)
	root.SetArgs(argv)

	err := root.ExecuteContext(parent)
	if ferr := outw.Flush(); err == nil {
		err = ferr
	}
	return r.exitCode(writers.IgnoreBrokenPipe(err))
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}

type runner struct {
	stdout io.Writer
	stderr io.Writer
	ran    bool // a handler started; later errors are runtime failures
}

func (r *runner) exitCode(err error) int {
	var ue *cli.UsageError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitCancelled
	case errors.As(err, &ue) || !r.ran:
		_, _ = fmt.Fprintf(r.stderr, "error: %v\nRun 'seqbias --help' for usage.\n", err)
		return ExitUsage
	default:
		_, _ = fmt.Fprintf(r.stderr, "error: %v\n", err)
		return ExitFailure
	}
}

func (r *runner) handlers() cli.Handlers {
	return cli.Handlers{
		Fit:      r.fit,
		Predict:  r.predict,
		Count:    r.count,
		Tabulate: r.tabulate,
		Kmers:    r.kmers,
		Describe: r.describe,
	}
}

// start builds the run logger and turns on profiling. The returned
// function stops the profile.
func (r *runner) start(g cli.Global) (*logrus.Logger, func(), error) {
	r.ran = true
	log := cmdutil.NewLogger(r.stderr, g.Quiet, g.Verbose)
	stop, err := cmdutil.StartProfile(g.Profile, ".")
	if err != nil {
		return nil, nil, err
	}
	return log, stop, nil
}

func (r *runner) fit(ctx context.Context, g cli.Global, o cli.FitOptions) error {
	log, stop, err := r.start(g)
	if err != nil {
		return err
	}
	defer stop()

	opts := bias.DefaultFitOptions()
	opts.MaxReads, opts.L, opts.R, opts.Penalty = o.MaxReads, o.L, o.R, o.Penalty
	opts.Rand = rand.New(rand.NewSource(o.Seed))
	opts.Trainer = motif.NetworkTrainer{Workers: o.Workers, Logger: log}
	opts.Logger = log
	opts.Progress = progress.New(r.stderr, "reads", g.Progress)

	log.WithFields(logrus.Fields{"L": o.L, "R": o.R, "seed": o.Seed}).Info("fitting bias model")
	m, err := bias.Fit(ctx, o.Ref, o.Reads, opts)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Save(o.Out); err != nil {
		return err
	}
	log.WithField("path", o.Out).Info("wrote model")
	return nil
}

func (r *runner) predict(ctx context.Context, g cli.Global, o cli.PredictOptions) error {
	log, stop, err := r.start(g)
	if err != nil {
		return err
	}
	defer stop()

	m, err := bias.Load(o.Model, o.Ref)
	if err != nil {
		return err
	}
	defer m.Close()
	m.SetLogger(log)

	reg := o.Region
	bs := m.Predict(reg.Seqname, reg.Start, reg.End, o.Strand)
	t := output.Track{
		Seqname:  reg.Seqname,
		Start:    reg.Start,
		End:      reg.End,
		Strand:   o.Strand,
		Values:   bs,
		Reversed: o.Strand == dna.StrandNeg,
	}
	return writers.Write(writers.KindPrediction, o.Format, r.stdout, t, writers.Options{Header: o.Header})
}

// loadOptionalModel loads modelPath with refPath attached, or returns nil
// when no model was asked for.
func loadOptionalModel(modelPath, refPath string, log logrus.FieldLogger) (*bias.Model, error) {
	if modelPath == "" {
		return nil, nil
	}
	m, err := bias.Load(modelPath, refPath)
	if err != nil {
		return nil, err
	}
	m.SetLogger(log)
	return m, nil
}

func (r *runner) count(ctx context.Context, g cli.Global, o cli.CountOptions) error {
	log, stop, err := r.start(g)
	if err != nil {
		return err
	}
	defer stop()

	rf, err := reads.Open(o.Reads)
	if err != nil {
		return err
	}
	defer rf.Close()
	if _, ok := rf.RefLen(o.Region.Seqname); !ok {
		log.WithField("seqname", o.Region.Seqname).Warn("sequence not in read header; counts are zero")
	}
	model, err := loadOptionalModel(o.Model, o.Ref, log)
	if err != nil {
		return err
	}
	if model != nil {
		defer model.Close()
	}

	reg := o.Region
	q := count.Query{Seqname: reg.Seqname, Start: reg.Start, End: reg.End, Strand: o.Strand, Sum: o.Sum}
	vals, err := count.Count(ctx, model, rf, q)
	if err != nil {
		return err
	}
	t := output.Track{
		Seqname:   reg.Seqname,
		Start:     reg.Start,
		End:       reg.End,
		Strand:    o.Strand,
		Values:    vals,
		Reversed:  o.Strand == dna.StrandNeg && !o.Sum,
		Sum:       o.Sum,
		Corrected: model != nil,
	}
	return writers.Write(writers.KindCounts, o.Format, r.stdout, t, writers.Options{Header: o.Header})
}

func (r *runner) tabulate(ctx context.Context, g cli.Global, o cli.TabulateOptions) error {
	log, stop, err := r.start(g)
	if err != nil {
		return err
	}
	defer stop()

	opts := tabulate.DefaultOptions()
	opts.L, opts.R, opts.K, opts.MaxReads = o.L, o.R, o.K, o.MaxReads
	opts.ModelPath = o.Model
	opts.Rand = rand.New(rand.NewSource(o.Seed))
	opts.Logger = log
	opts.Progress = progress.New(r.stderr, "reads", g.Progress)

	res, err := tabulate.Tabulate(ctx, o.Ref, o.Reads, opts)
	if err != nil {
		return err
	}
	if o.Table != "" {
		if err := writeTable(o.Table, res); err != nil {
			return err
		}
		log.WithField("path", o.Table).Info("wrote k-mer table")
	}
	return writers.Write(writers.KindDivergence, o.Format, r.stdout, res, writers.Options{Header: o.Header})
}

func writeTable(path string, res *tabulate.Result) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("can't open %s for writing: %w", path, err)
	}
	if err := output.WriteKmerTableCSV(fh, res.Counts, res.L, true); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

func (r *runner) kmers(ctx context.Context, g cli.Global, o cli.KmersOptions) error {
	log, stop, err := r.start(g)
	if err != nil {
		return err
	}
	defer stop()

	ref, err := reference.Open(o.Ref)
	if err != nil {
		return err
	}
	defer ref.Close()
	rf, err := reads.Open(o.Reads)
	if err != nil {
		return err
	}
	defer rf.Close()
	model, err := loadOptionalModel(o.Model, o.Ref, log)
	if err != nil {
		return err
	}
	if model != nil {
		defer model.Close()
	}

	reg := o.Region
	q := count.Query{Seqname: reg.Seqname, Start: reg.Start, End: reg.End, Strand: o.Strand}
	m, err := count.TallyKmers(ctx, ref, model, rf, q, o.L, o.R, o.K)
	if err != nil {
		return err
	}
	return output.WriteKmerTableCSV(r.stdout, m, o.L, true)
}

func (r *runner) describe(ctx context.Context, g cli.Global, o cli.DescribeOptions) error {
	_, stop, err := r.start(g)
	if err != nil {
		return err
	}
	defer stop()

	m, err := bias.Load(o.Model, "")
	if err != nil {
		return err
	}
	defer m.Close()
	if o.Dot {
		_, err := io.WriteString(r.stdout, m.Graph())
		return err
	}
	return writers.Write(writers.KindModel, o.Format, r.stdout, output.ToAPIModelSummary(m, o.Model), writers.Options{Header: o.Header})
}
