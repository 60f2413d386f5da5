// Package cli defines the seqbias command tree. It parses and validates
// flags, folds in the optional TOML configuration, and hands the result
// to the Handlers supplied by the caller; it does no work itself.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"seqbias/internal/bias"
	"seqbias/internal/cmdutil"
	"seqbias/internal/config"
	"seqbias/internal/output"
	"seqbias/internal/tabulate"
	"seqbias/internal/version"
)

// UsageError marks a bad command line: a flag that does not parse, a
// missing input, or an option out of range.
type UsageError struct{ Err error }

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

func usage(err error) error {
	if err == nil {
		return nil
	}
	var ue *UsageError
	if errors.As(err, &ue) {
		return err
	}
	return &UsageError{Err: err}
}

// Handlers run the commands. Each receives fully validated options.
type Handlers struct {
	Fit      func(ctx context.Context, g Global, o FitOptions) error
	Predict  func(ctx context.Context, g Global, o PredictOptions) error
	Count    func(ctx context.Context, g Global, o CountOptions) error
	Tabulate func(ctx context.Context, g Global, o TabulateOptions) error
	Kmers    func(ctx context.Context, g Global, o KmersOptions) error
	Describe func(ctx context.Context, g Global, o DescribeOptions) error
}

// NewRootCommand builds the command tree writing help and version text
// to stdout.
func NewRootCommand(h Handlers, stdout, stderr io.Writer) *cobra.Command {
	var g Global
	root := &cobra.Command{
		Use:           "seqbias",
		Short:         "model and correct sequence bias at read starts",
		Long:          "seqbias learns the nucleotide composition bias around the 5' ends of aligned reads\nand uses it to correct read counts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if g.Quiet && g.Verbose {
				cmdutil.Warnf(stderr, false, "--verbose has no effect with --quiet")
			}
			return usage(g.Validate())
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error { return usage(err) })

	pf := root.PersistentFlags()
	pf.StringVar(&g.Config, "config", "", "TOML file with [fit] and [tabulate] defaults")
	pf.BoolVarP(&g.Quiet, "quiet", "q", false, "only log warnings and errors")
	pf.BoolVarP(&g.Verbose, "verbose", "v", false, "log debug detail")
	pf.BoolVar(&g.Progress, "progress", false, "show a spinner while scanning reads")
	pf.StringVar(&g.Profile, "profile", "", "write a cpu | mem | block profile to the working directory")

	root.AddCommand(
		fitCommand(h, &g),
		predictCommand(h, &g),
		countCommand(h, &g),
		tabulateCommand(h, &g),
		kmersCommand(h, &g),
		describeCommand(h, &g),
		versionCommand(),
	)
	return root
}

func loadConfig(g *Global) (*config.Config, error) {
	c, err := config.Load(g.Config)
	if err != nil {
		return nil, usage(err)
	}
	return c, nil
}

func addOutputFlags(cmd *cobra.Command, o *Output, formats string) {
	noHeader := false
	cmd.Flags().StringVarP(&o.Format, "output", "o", output.FormatText, "output format: "+formats)
	cmd.Flags().BoolVar(&noHeader, "no-header", false, "suppress the header line in text output")
	prev := cmd.PreRunE
	cmd.PreRunE = func(c *cobra.Command, args []string) error {
		o.Header = !noHeader
		if prev != nil {
			return prev(c, args)
		}
		return nil
	}
}

func fitCommand(h Handlers, g *Global) *cobra.Command {
	def := bias.DefaultFitOptions()
	o := FitOptions{MaxReads: def.MaxReads, L: def.L, R: def.R, Penalty: def.Penalty, Seed: 1}
	cmd := &cobra.Command{
		Use:   "fit",
		Short: "train a bias model from aligned reads",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(g)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			setInt(f.Changed("max-reads"), &o.MaxReads, c.Fit.MaxReads)
			setInt(f.Changed("left"), &o.L, c.Fit.L)
			setInt(f.Changed("right"), &o.R, c.Fit.R)
			if v := c.Fit.Penalty; v != nil && !f.Changed("penalty") {
				o.Penalty = *v
			}
			if v := c.Fit.Seed; v != nil && !f.Changed("seed") {
				o.Seed = *v
			}
			if err := o.Validate(); err != nil {
				return usage(err)
			}
			return h.Fit(cmd.Context(), *g, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.Ref, "ref", "", "indexed FASTA reference [*]")
	f.StringVar(&o.Reads, "reads", "", "sorted, indexed BAM [*]")
	f.StringVar(&o.Out, "out", "", "model file to write [*]")
	f.IntVarP(&o.MaxReads, "max-reads", "n", o.MaxReads, "reads sampled for training")
	f.IntVarP(&o.L, "left", "L", o.L, "bases upstream of the read start")
	f.IntVarP(&o.R, "right", "R", o.R, "bases downstream of the read start")
	f.Float64Var(&o.Penalty, "penalty", o.Penalty, "complexity penalty per parameter")
	f.Uint64Var(&o.Seed, "seed", o.Seed, "random seed for read and background sampling")
	f.IntVarP(&o.Workers, "threads", "t", 0, "worker threads for structure search (0 = all CPUs)")
	return cmd
}

func predictCommand(h Handlers, g *Global) *cobra.Command {
	var o PredictOptions
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "predict per-base bias over a region",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.Validate(); err != nil {
				return usage(err)
			}
			return h.Predict(cmd.Context(), *g, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.Model, "model", "", "model file [*]")
	f.StringVar(&o.Ref, "ref", "", "indexed FASTA reference [*]")
	f.StringVar(&o.RegionSpec, "region", "", "name:start-end, 1-based inclusive [*]")
	f.StringVar(&o.StrandSpec, "strand", "+", "+ | -")
	addOutputFlags(cmd, &o.Output, "text | json | jsonl")
	return cmd
}

func countCommand(h Handlers, g *Global) *cobra.Command {
	var o CountOptions
	cmd := &cobra.Command{
		Use:   "count",
		Short: "count read starts over a region, optionally bias-corrected",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.Validate(); err != nil {
				return usage(err)
			}
			return h.Count(cmd.Context(), *g, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.Reads, "reads", "", "sorted, indexed BAM [*]")
	f.StringVar(&o.Model, "model", "", "model file; counts are divided by predicted bias")
	f.StringVar(&o.Ref, "ref", "", "indexed FASTA reference (required with --model)")
	f.StringVar(&o.RegionSpec, "region", "", "name:start-end, 1-based inclusive [*]")
	f.StringVar(&o.StrandSpec, "strand", ".", "+ | - | . (both)")
	f.BoolVar(&o.Sum, "sum", false, "report one total for the region")
	addOutputFlags(cmd, &o.Output, "text | json | jsonl")
	return cmd
}

func tabulateCommand(h Handlers, g *Global) *cobra.Command {
	def := tabulate.DefaultOptions()
	o := TabulateOptions{L: def.L, R: def.R, K: def.K, MaxReads: def.MaxReads, Seed: 1}
	cmd := &cobra.Command{
		Use:   "tabulate",
		Short: "measure k-mer divergence at each offset from read starts",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadConfig(g)
			if err != nil {
				return err
			}
			f := cmd.Flags()
			setInt(f.Changed("left"), &o.L, c.Tabulate.L)
			setInt(f.Changed("right"), &o.R, c.Tabulate.R)
			setInt(f.Changed("kmer"), &o.K, c.Tabulate.K)
			setInt(f.Changed("max-reads"), &o.MaxReads, c.Tabulate.MaxReads)
			if v := c.Tabulate.Seed; v != nil && !f.Changed("seed") {
				o.Seed = *v
			}
			if err := o.Validate(); err != nil {
				return usage(err)
			}
			return h.Tabulate(cmd.Context(), *g, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.Ref, "ref", "", "indexed FASTA reference [*]")
	f.StringVar(&o.Reads, "reads", "", "sorted, indexed BAM [*]")
	f.StringVar(&o.Model, "model", "", "optional model file")
	f.StringVar(&o.Table, "table", "", "also write per-position k-mer frequencies to this CSV")
	f.IntVarP(&o.L, "left", "L", o.L, "bases upstream of the read start")
	f.IntVarP(&o.R, "right", "R", o.R, "bases downstream of the read start")
	f.IntVarP(&o.K, "kmer", "k", o.K, "k-mer length")
	f.IntVarP(&o.MaxReads, "max-reads", "n", o.MaxReads, "read positions tallied")
	f.Uint64Var(&o.Seed, "seed", o.Seed, "random seed for read sampling")
	addOutputFlags(cmd, &o.Output, "text | json | csv")
	return cmd
}

func kmersCommand(h Handlers, g *Global) *cobra.Command {
	o := KmersOptions{L: 10, R: 10, K: 1}
	cmd := &cobra.Command{
		Use:   "kmers",
		Short: "tabulate k-mers around read starts in one region as CSV",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.Validate(); err != nil {
				return usage(err)
			}
			return h.Kmers(cmd.Context(), *g, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.Ref, "ref", "", "indexed FASTA reference [*]")
	f.StringVar(&o.Reads, "reads", "", "sorted, indexed BAM [*]")
	f.StringVar(&o.Model, "model", "", "optional model file; reads are weighted by 1/bias")
	f.StringVar(&o.RegionSpec, "region", "", "name:start-end, 1-based inclusive [*]")
	f.StringVar(&o.StrandSpec, "strand", "+", "+ | -")
	f.IntVarP(&o.L, "left", "L", o.L, "bases upstream of the read start")
	f.IntVarP(&o.R, "right", "R", o.R, "bases downstream of the read start")
	f.IntVarP(&o.K, "kmer", "k", o.K, "k-mer length")
	return cmd
}

func describeCommand(h Handlers, g *Global) *cobra.Command {
	var o DescribeOptions
	cmd := &cobra.Command{
		Use:   "describe",
		Short: "summarise a model or print its dependency graph",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := o.Validate(); err != nil {
				return usage(err)
			}
			return h.Describe(cmd.Context(), *g, o)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.Model, "model", "", "model file [*]")
	f.BoolVar(&o.Dot, "dot", false, "print the dependency graph in graphviz dot format")
	addOutputFlags(cmd, &o.Output, "text | json")
	return cmd
}

func versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print the version",
		Args:  noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "seqbias version %s\n", version.Version)
			return err
		},
	}
}

func noArgs(cmd *cobra.Command, args []string) error {
	return usage(cobra.NoArgs(cmd, args))
}

// setInt copies a configured value into dst unless the flag was given.
func setInt(changed bool, dst *int, v *int) {
	if v != nil && !changed {
		*dst = *v
	}
}
