// Package caller extracts read counts from the VCF output of somatic
// variant callers.
package caller

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/inodb/vibe-pwgs/internal/vcf"
)

// ErrReadCountsUnavailable marks a record whose read counts cannot be
// determined. The record is dropped from that sample's contribution.
var ErrReadCountsUnavailable = errors.New("read counts unavailable")

// Type identifies a supported variant caller.
type Type string

// Supported callers.
const (
	Sanger         Type = "sanger"
	MutectPCAWG    Type = "mutect_pcawg"
	MutectSMCHET   Type = "mutect_smchet"
	MutectTCGA     Type = "mutect_tcga"
	MuSE           Type = "muse"
	DKFZ           Type = "dkfz"
	Strelka        Type = "strelka"
	VarDict        Type = "vardict"
	PCAWGConsensus Type = "pcawg_consensus"
)

var knownTypes = map[Type]bool{
	Sanger:         true,
	MutectPCAWG:    true,
	MutectSMCHET:   true,
	MutectTCGA:     true,
	MuSE:           true,
	DKFZ:           true,
	Strelka:        true,
	VarDict:        true,
	PCAWGConsensus: true,
}

// Types returns the keywords of all supported callers, sorted.
func Types() []string {
	names := make([]string, 0, len(knownTypes))
	for t := range knownTypes {
		names = append(names, string(t))
	}
	sort.Strings(names)
	return names
}

// ParseType validates a caller keyword.
func ParseType(s string) (Type, error) {
	t := Type(strings.TrimSpace(s))
	if !knownTypes[t] {
		return "", fmt.Errorf("unknown variant caller %q (valid: %s)", s, strings.Join(Types(), ", "))
	}
	return t, nil
}

// Adapter extracts read counts and a filter decision from one record.
type Adapter interface {
	// ReadCounts returns the reference and total read counts of the tumour
	// sample. ErrReadCountsUnavailable means the record should be skipped;
	// any other error is fatal.
	ReadCounts(v *vcf.Variant) (ref, total int, err error)

	// Passes reports whether the record passes the caller's filters.
	Passes(v *vcf.Variant) (bool, error)
}

// Options configures adapter construction.
type Options struct {
	// TumorSample selects the tumour column by exact name. When empty the
	// last sample column is used.
	TumorSample string

	// MuseTier is the highest MuSE tier still accepted.
	MuseTier int
}

// New returns the adapter for a caller type.
func New(t Type, opts Options) (Adapter, error) {
	b := base{tumorSample: opts.TumorSample}

	switch t {
	case Sanger:
		return &sangerAdapter{base: b}, nil
	case MutectPCAWG:
		return &mutectPCAWGAdapter{base: b}, nil
	case MutectSMCHET, VarDict:
		// VarDict reports AD like MuTect run for SMC-Het.
		return &allelicDepthAdapter{base: b}, nil
	case MutectTCGA:
		return &mutectTCGAAdapter{base: b}, nil
	case MuSE:
		return &museAdapter{base: b, tier: opts.MuseTier}, nil
	case DKFZ:
		return &dkfzAdapter{base: b}, nil
	case Strelka:
		return &strelkaAdapter{base: b}, nil
	case PCAWGConsensus:
		return &consensusAdapter{base: b}, nil
	default:
		return nil, fmt.Errorf("unknown variant caller %q", t)
	}
}

// base carries behaviour shared by all adapters.
type base struct {
	tumorSample string
}

// Passes accepts records without FILTER annotations.
func (b base) Passes(v *vcf.Variant) (bool, error) {
	return len(v.Filters()) == 0, nil
}

// tumorIndex locates the tumour sample column.
func (b base) tumorIndex(v *vcf.Variant) (int, error) {
	return tumorIndex(v, b.tumorSample)
}

func tumorIndex(v *vcf.Variant, name string) (int, error) {
	if len(v.Samples) == 0 {
		return 0, fmt.Errorf("%s:%d: record has no sample columns", v.Chrom, v.Pos)
	}
	if name == "" {
		return len(v.Samples) - 1, nil
	}
	idx := v.SampleIndices(name)
	if len(idx) != 1 {
		return 0, fmt.Errorf("%s:%d: expected exactly one tumor sample named %q, found %d",
			v.Chrom, v.Pos, name, len(idx))
	}
	return idx[0], nil
}

// tumor returns the tumour sample of a record.
func (b base) tumor(v *vcf.Variant) (vcf.Sample, error) {
	i, err := b.tumorIndex(v)
	if err != nil {
		return vcf.Sample{}, err
	}
	return v.Samples[i], nil
}
