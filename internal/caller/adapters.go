package caller

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/inodb/vibe-pwgs/internal/vcf"
)

// sangerAdapter reads the per-nucleotide forward (F?Z) and reverse (R?Z)
// strand counts of the PCAWG Sanger pipeline.
type sangerAdapter struct {
	base
}

func (a *sangerAdapter) ReadCounts(v *vcf.Variant) (int, int, error) {
	if len(v.Ref) != 1 || len(v.Alt) != 1 || len(v.Alt[0]) != 1 {
		return 0, 0, fmt.Errorf("%s:%d: sanger record is not a single-nucleotide substitution (%s>%s)",
			v.Chrom, v.Pos, v.Ref, strings.Join(v.Alt, ","))
	}

	name := a.tumorSample
	if name == "" {
		name = "TUMOUR"
	}
	idx, err := tumorIndex(v, name)
	if err != nil {
		return 0, 0, err
	}
	tumor := v.Samples[idx]

	refReads, err := strandCounts(v, tumor, v.Ref)
	if err != nil {
		return 0, 0, err
	}
	// Reads of a third or fourth base are ignored.
	variantReads, err := strandCounts(v, tumor, v.Alt[0])
	if err != nil {
		return 0, 0, err
	}

	return refReads, refReads + variantReads, nil
}

// strandCounts sums forward and reverse counts of one nucleotide.
func strandCounts(v *vcf.Variant, s vcf.Sample, nt string) (int, error) {
	nt = strings.ToUpper(nt)
	switch nt {
	case "A", "C", "G", "T":
	default:
		return 0, fmt.Errorf("%s:%d: unexpected nucleotide %q", v.Chrom, v.Pos, nt)
	}

	fwd, err := sampleInt(v, s, "F"+nt+"Z")
	if err != nil {
		return 0, err
	}
	rev, err := sampleInt(v, s, "R"+nt+"Z")
	if err != nil {
		return 0, err
	}
	return fwd + rev, nil
}

// consensusAdapter reads t_ref_count and t_alt_count from INFO, as written
// by the PCAWG consensus callset.
type consensusAdapter struct {
	base
}

func (a *consensusAdapter) ReadCounts(v *vcf.Variant) (int, int, error) {
	altRaw, okAlt := v.InfoValue("t_alt_count")
	refRaw, okRef := v.InfoValue("t_ref_count")
	if !okAlt || !okRef {
		return 0, 0, ErrReadCountsUnavailable
	}
	if strings.Contains(altRaw, ",") || strings.Contains(refRaw, ",") {
		return 0, 0, fmt.Errorf("%s:%d: expected single t_alt_count and t_ref_count values, got %q and %q",
			v.Chrom, v.Pos, altRaw, refRaw)
	}

	altReads, err := parseCount(v, "t_alt_count", altRaw)
	if err != nil {
		return 0, 0, err
	}
	refReads, err := parseCount(v, "t_ref_count", refRaw)
	if err != nil {
		return 0, 0, err
	}

	total := altReads + refReads
	if total == 0 {
		return 0, 0, ErrReadCountsUnavailable
	}
	return refReads, total, nil
}

// museAdapter maps the normal genotype onto the tumour's AD array.
type museAdapter struct {
	base
	tier int
}

// normalAlleles returns the distinct allele indices of the normal sample.
func (a *museAdapter) normalAlleles(v *vcf.Variant) (map[int]bool, error) {
	ti, err := a.tumorIndex(v)
	if err != nil {
		return nil, err
	}
	if ti != 0 && ti != 1 {
		return nil, fmt.Errorf("%s:%d: tumor index %d is not 0 or 1", v.Chrom, v.Pos, ti)
	}
	if len(v.Samples) < 2 {
		return nil, fmt.Errorf("%s:%d: muse record needs a normal and a tumor sample", v.Chrom, v.Pos)
	}

	normal := v.Samples[1-ti]
	gt, ok := normal.Get("GT")
	if !ok {
		return nil, fmt.Errorf("%s:%d: normal sample has no genotype", v.Chrom, v.Pos)
	}

	alleles := make(map[int]bool)
	for _, tok := range strings.FieldsFunc(gt, func(r rune) bool { return r == '/' || r == '|' }) {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid normal genotype %q", v.Chrom, v.Pos, gt)
		}
		alleles[n] = true
	}
	return alleles, nil
}

func (a *museAdapter) ReadCounts(v *vcf.Variant) (int, int, error) {
	alleles, err := a.normalAlleles(v)
	if err != nil {
		return 0, 0, err
	}
	if len(alleles) != 1 {
		return 0, 0, fmt.Errorf("%s:%d: expected homozygous normal genotype, got %d alleles",
			v.Chrom, v.Pos, len(alleles))
	}
	var normalGT int
	for gt := range alleles {
		normalGT = gt
	}

	tumor, err := a.tumor(v)
	if err != nil {
		return 0, 0, err
	}
	total, err := sampleInt(v, tumor, "DP")
	if err != nil {
		return 0, 0, err
	}
	depths, err := sampleInts(v, tumor, "AD")
	if err != nil {
		return 0, 0, err
	}
	if normalGT < 0 || normalGT >= len(depths) {
		return 0, 0, fmt.Errorf("%s:%d: normal genotype %d has no AD slot in %v", v.Chrom, v.Pos, normalGT, depths)
	}

	return depths[normalGT], total, nil
}

// Passes rejects heterozygous normals and accepts filtered records whose
// tier does not exceed the configured maximum.
func (a *museAdapter) Passes(v *vcf.Variant) (bool, error) {
	alleles, err := a.normalAlleles(v)
	if err != nil {
		return false, err
	}
	if len(alleles) != 1 {
		return false, nil
	}

	filters := v.Filters()
	if len(filters) == 0 {
		return true, nil
	}

	first := filters[0]
	tier, err := strconv.Atoi(first[len(first)-1:])
	if err != nil {
		return false, fmt.Errorf("%s:%d: cannot read tier from filter %q", v.Chrom, v.Pos, first)
	}
	return tier <= a.tier, nil
}

// strelkaAdapter reads the tumour DP and the tier-1 count of the FORMAT
// field named after the alternate base (AU, CU, GU, TU).
type strelkaAdapter struct {
	base
}

// Passes accepts unfiltered SNVs; the indel output of Strelka is not used.
func (a *strelkaAdapter) Passes(v *vcf.Variant) (bool, error) {
	return v.IsSNV() && len(v.Filters()) == 0, nil
}

func (a *strelkaAdapter) ReadCounts(v *vcf.Variant) (int, int, error) {
	alt := v.FirstAlt()
	if alt == vcf.MissingValue {
		return 0, 0, ErrReadCountsUnavailable
	}

	tumor, err := a.tumor(v)
	if err != nil {
		return 0, 0, err
	}
	total, err := sampleInt(v, tumor, "DP")
	if err != nil {
		return 0, 0, err
	}
	tiers, err := sampleInts(v, tumor, strings.ToUpper(alt)+"U")
	if err != nil {
		return 0, 0, err
	}

	variantReads := tiers[0]
	return total - variantReads, total, nil
}

// mutectTCGAAdapter reads TD, the tumour allelic depths of ref and alt.
type mutectTCGAAdapter struct {
	base
}

func (a *mutectTCGAAdapter) ReadCounts(v *vcf.Variant) (int, int, error) {
	tumor, err := a.tumor(v)
	if err != nil {
		return 0, 0, err
	}
	depths, err := sampleInts(v, tumor, "TD")
	if err != nil {
		return 0, 0, err
	}
	if len(depths) != 2 {
		return 0, 0, fmt.Errorf("%s:%d: expected two TD values, got %v", v.Chrom, v.Pos, depths)
	}
	return depths[0], depths[0] + depths[1], nil
}

// mutectPCAWGAdapter reads the ref_count and alt_count FORMAT fields.
type mutectPCAWGAdapter struct {
	base
}

func (a *mutectPCAWGAdapter) ReadCounts(v *vcf.Variant) (int, int, error) {
	tumor, err := a.tumor(v)
	if err != nil {
		return 0, 0, err
	}
	refReads, err := sampleInt(v, tumor, "ref_count")
	if err != nil {
		return 0, 0, err
	}
	variantReads, err := sampleInt(v, tumor, "alt_count")
	if err != nil {
		return 0, 0, err
	}
	return refReads, refReads + variantReads, nil
}

// allelicDepthAdapter reads AD[0] and AD[1] of the tumour.
type allelicDepthAdapter struct {
	base
}

func (a *allelicDepthAdapter) ReadCounts(v *vcf.Variant) (int, int, error) {
	tumor, err := a.tumor(v)
	if err != nil {
		return 0, 0, err
	}
	depths, err := sampleInts(v, tumor, "AD")
	if err != nil {
		return 0, 0, err
	}
	if len(depths) < 2 {
		return 0, 0, fmt.Errorf("%s:%d: expected ref and alt AD values, got %v", v.Chrom, v.Pos, depths)
	}
	return depths[0], depths[0] + depths[1], nil
}

// dkfzAdapter reads the INFO DP4 strand counts. Only single-sample DKFZ
// output is supported.
type dkfzAdapter struct {
	base
}

func (a *dkfzAdapter) ReadCounts(v *vcf.Variant) (int, int, error) {
	raw, ok := v.InfoValue("DP4")
	if !ok {
		return 0, 0, ErrReadCountsUnavailable
	}
	dp4, err := parseCounts(v, "DP4", raw)
	if err != nil {
		return 0, 0, err
	}
	if len(dp4) != 4 {
		return 0, 0, fmt.Errorf("%s:%d: expected four DP4 values, got %v", v.Chrom, v.Pos, dp4)
	}

	refReads := dp4[0] + dp4[1]
	variantReads := dp4[2] + dp4[3]
	return refReads, refReads + variantReads, nil
}

// sampleInt reads a single integer FORMAT value.
func sampleInt(v *vcf.Variant, s vcf.Sample, key string) (int, error) {
	raw, ok := s.Get(key)
	if !ok {
		return 0, ErrReadCountsUnavailable
	}
	return parseCount(v, key, raw)
}

// sampleInts reads a comma-separated integer FORMAT value.
func sampleInts(v *vcf.Variant, s vcf.Sample, key string) ([]int, error) {
	raw, ok := s.Get(key)
	if !ok {
		return nil, ErrReadCountsUnavailable
	}
	return parseCounts(v, key, raw)
}

func parseCounts(v *vcf.Variant, key, raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	counts := make([]int, len(parts))
	for i, p := range parts {
		n, err := parseCount(v, key, p)
		if err != nil {
			return nil, err
		}
		counts[i] = n
	}
	return counts, nil
}

// parseCount parses a read count. "." is treated as unavailable; any other
// non-integer is a caller/input mismatch.
func parseCount(v *vcf.Variant, key, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == vcf.MissingValue {
		return 0, ErrReadCountsUnavailable
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		// Some callers write integral counts as floats ("12.0").
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("%s:%d: invalid %s value %q", v.Chrom, v.Pos, key, raw)
		}
		n = int(f)
	}
	return n, nil
}
