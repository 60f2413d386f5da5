package cli

import (
	"errors"
	"fmt"
	"strings"

	"seqbias/internal/dna"
	"seqbias/internal/kmer"
	"seqbias/internal/writers"
)

// Global holds the persistent flags shared by every command.
type Global struct {
	Config   string
	Quiet    bool
	Verbose  bool
	Progress bool
	Profile  string // cpu | mem | block
}

func (g *Global) Validate() error {
	switch g.Profile {
	case "", "cpu", "mem", "block":
	default:
		return fmt.Errorf("--profile must be cpu, mem or block, got %q", g.Profile)
	}
	return nil
}

type FitOptions struct {
	Ref      string
	Reads    string
	Out      string
	MaxReads int
	L, R     int
	Penalty  float64
	Seed     uint64
	Workers  int
}

func (o *FitOptions) Validate() error {
	switch {
	case o.Ref == "":
		return errors.New("--ref is required")
	case o.Reads == "":
		return errors.New("--reads is required")
	case o.Out == "":
		return errors.New("--out is required")
	case o.MaxReads <= 0:
		return errors.New("--max-reads must be > 0")
	case o.L < 0 || o.R < 0:
		return errors.New("-L and -R must be ≥ 0")
	case o.Penalty < 0:
		return errors.New("--penalty must be ≥ 0")
	case o.Workers < 0:
		return errors.New("--threads must be ≥ 0")
	}
	return nil
}

// Output holds the presentation flags of commands that print results.
type Output struct {
	Format string
	Header bool // true unless --no-header
}

func (o *Output) validate(kind writers.Kind) error {
	if !writers.Supports(kind, o.Format) {
		return fmt.Errorf("invalid --output %q (want %s)", o.Format, strings.Join(writers.Formats(kind), " | "))
	}
	return nil
}

type PredictOptions struct {
	Model      string
	Ref        string
	RegionSpec string
	StrandSpec string
	Output

	Region Region     // set by Validate
	Strand dna.Strand // set by Validate
}

func (o *PredictOptions) Validate() error {
	if o.Model == "" {
		return errors.New("--model is required")
	}
	if o.Ref == "" {
		return errors.New("--ref is required")
	}
	var err error
	if o.Region, err = ParseRegion(o.RegionSpec); err != nil {
		return err
	}
	if o.Strand, err = parseStrand(o.StrandSpec, false); err != nil {
		return err
	}
	return o.Output.validate(writers.KindPrediction)
}

type CountOptions struct {
	Reads      string
	Model      string
	Ref        string
	RegionSpec string
	StrandSpec string
	Sum        bool
	Output

	Region Region
	Strand dna.Strand
}

func (o *CountOptions) Validate() error {
	if o.Reads == "" {
		return errors.New("--reads is required")
	}
	if o.Model != "" && o.Ref == "" {
		return errors.New("--model needs --ref")
	}
	var err error
	if o.Region, err = ParseRegion(o.RegionSpec); err != nil {
		return err
	}
	if o.Strand, err = parseStrand(o.StrandSpec, true); err != nil {
		return err
	}
	return o.Output.validate(writers.KindCounts)
}

type TabulateOptions struct {
	Ref      string
	Reads    string
	Model    string
	Table    string // optional CSV of per-position k-mer frequencies
	L, R, K  int
	MaxReads int
	Seed     uint64
	Output
}

func (o *TabulateOptions) Validate() error {
	switch {
	case o.Ref == "":
		return errors.New("--ref is required")
	case o.Reads == "":
		return errors.New("--reads is required")
	case o.L < 0 || o.R < 0:
		return errors.New("-L and -R must be ≥ 0")
	case o.K < 1 || o.K > kmer.MaxMatrixK:
		return fmt.Errorf("-k must be between 1 and %d", kmer.MaxMatrixK)
	case o.MaxReads <= 0:
		return errors.New("--max-reads must be > 0")
	}
	return o.Output.validate(writers.KindDivergence)
}

type KmersOptions struct {
	Ref        string
	Reads      string
	Model      string
	RegionSpec string
	StrandSpec string
	L, R, K    int

	Region Region
	Strand dna.Strand
}

func (o *KmersOptions) Validate() error {
	switch {
	case o.Ref == "":
		return errors.New("--ref is required")
	case o.Reads == "":
		return errors.New("--reads is required")
	case o.L < 0 || o.R < 0:
		return errors.New("-L and -R must be ≥ 0")
	case o.K < 1 || o.K > kmer.MaxMatrixK:
		return fmt.Errorf("-k must be between 1 and %d", kmer.MaxMatrixK)
	}
	var err error
	if o.Region, err = ParseRegion(o.RegionSpec); err != nil {
		return err
	}
	o.Strand, err = parseStrand(o.StrandSpec, false)
	return err
}

type DescribeOptions struct {
	Model string
	Dot   bool
	Output
}

func (o *DescribeOptions) Validate() error {
	if o.Model == "" {
		return errors.New("--model is required")
	}
	if o.Dot {
		return nil
	}
	return o.Output.validate(writers.KindModel)
}
