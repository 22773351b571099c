// Package pipeline turns caller VCFs and CNV regions into PhyloWGS inputs.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/inodb/vibe-pwgs/internal/caller"
	"github.com/inodb/vibe-pwgs/internal/ssm"
)

// Default option values.
const (
	DefaultErrorRate                = 0.001
	DefaultMissingVariantConfidence = 1.0
	DefaultCNVConfidence            = 0.5
	DefaultReadLength               = 100
	DefaultOutputCNVs               = "cnv_data.txt"
	DefaultOutputVariants           = "ssm_data.txt"
)

// Config holds all pipeline options.
type Config struct {
	Inputs []caller.Input

	ErrorRate                float64
	MissingVariantConfidence float64
	CNVConfidence            float64
	ReadLength               int
	SampleSize               int // 0 keeps every variant
	Seed                     int64
	Workers                  int
	TumorSample              string
	MuseTier                 int

	PrioritySSMs string // optional "<chrom>_<pos>" list
	CNVs         string // optional CNV region file
	OnlyNormalCN bool

	OutputVariants            string
	OutputCNVs                string
	NonsubsampledVariants     string
	NonsubsampledVariantsCNVs string

	DuckDB string // optional export database
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		ErrorRate:                DefaultErrorRate,
		MissingVariantConfidence: DefaultMissingVariantConfidence,
		CNVConfidence:            DefaultCNVConfidence,
		ReadLength:               DefaultReadLength,
		Seed:                     ssm.DefaultSeed,
		OutputVariants:           DefaultOutputVariants,
		OutputCNVs:               DefaultOutputCNVs,
	}
}

// CallerOptions returns the adapter options of the config.
func (c *Config) CallerOptions() caller.Options {
	return caller.Options{TumorSample: c.TumorSample, MuseTier: c.MuseTier}
}

// WritesCNVs reports whether a CNV table with records is produced.
func (c *Config) WritesCNVs() bool {
	return c.CNVs != "" && !c.OnlyNormalCN
}

// Validate checks option ranges.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Inputs) == 0 {
		errs = append(errs, errors.New("at least one <caller>=<vcf> input is required"))
	}
	for _, r := range []struct {
		name string
		v    float64
	}{
		{"error rate", c.ErrorRate},
		{"missing variant confidence", c.MissingVariantConfidence},
		{"cnv confidence", c.CNVConfidence},
	} {
		if r.v < 0 || r.v > 1 {
			errs = append(errs, fmt.Errorf("%s %g not in range [0, 1]", r.name, r.v))
		}
	}
	if c.ReadLength <= 0 {
		errs = append(errs, fmt.Errorf("read length must be positive, got %d", c.ReadLength))
	}
	if c.SampleSize < 0 {
		errs = append(errs, fmt.Errorf("sample size must not be negative, got %d", c.SampleSize))
	}
	if c.OnlyNormalCN && c.CNVs == "" {
		errs = append(errs, errors.New("only-normal-cn requires a cnv file"))
	}
	if c.OutputVariants == "" || c.OutputCNVs == "" {
		errs = append(errs, errors.New("output paths must not be empty"))
	}

	return errors.Join(errs...)
}
