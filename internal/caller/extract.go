package caller

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-pwgs/internal/vcf"
)

// Call is one variant observed in one sample, with its read counts.
type Call struct {
	Chrom string // normalized chromosome
	Pos   int64
	Ref   int
	Total int
}

// Extractor turns the records of one VCF into calls.
type Extractor struct {
	adapter Adapter
	logger  *zap.Logger
}

// NewExtractor creates an extractor for the given adapter.
func NewExtractor(a Adapter) *Extractor {
	return &Extractor{
		adapter: a,
		logger:  zap.NewNop(),
	}
}

// SetLogger sets the logger for diagnostic messages.
func (e *Extractor) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Extract reads all records from parser and returns the calls that are on
// an autosome, pass the caller's filters and have read counts.
func (e *Extractor) Extract(parser vcf.VariantParser) ([]Call, error) {
	var calls []Call
	var skipped, filtered, offChrom int

	for {
		v, err := parser.Next()
		if err != nil {
			return nil, fmt.Errorf("read variant: %w", err)
		}
		if v == nil {
			break
		}

		chrom := v.NormalizeChrom()
		if !vcf.IsGoodChrom(chrom) {
			offChrom++
			continue
		}

		ok, err := e.adapter.Passes(v)
		if err != nil {
			return nil, err
		}
		if !ok {
			filtered++
			continue
		}

		ref, total, err := e.adapter.ReadCounts(v)
		if errors.Is(err, ErrReadCountsUnavailable) {
			skipped++
			e.logger.Debug("read counts unavailable",
				zap.String("chrom", chrom),
				zap.Int64("pos", v.Pos))
			continue
		}
		if err != nil {
			return nil, err
		}

		if ref > total {
			e.logger.Warn("reference reads exceed total reads",
				zap.String("chrom", chrom),
				zap.Int64("pos", v.Pos),
				zap.Int("ref_reads", ref),
				zap.Int("total_reads", total))
		}

		calls = append(calls, Call{Chrom: chrom, Pos: v.Pos, Ref: ref, Total: total})
	}

	e.logger.Debug("extracted calls",
		zap.Int("records", parser.Records()),
		zap.Int("calls", len(calls)),
		zap.Int("other_chromosomes", offChrom),
		zap.Int("filtered", filtered),
		zap.Int("unavailable", skipped))

	return calls, nil
}
