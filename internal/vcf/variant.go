// Package vcf reads somatic variant calls from VCF files.
package vcf

import "strings"

// MissingValue is the VCF placeholder for an absent value.
const MissingValue = "."

// Variant represents a single record from a VCF file.
type Variant struct {
	Chrom   string            // Chromosome name as written in the file (e.g., "12", "chr12")
	Pos     int64             // 1-based genomic position
	Ref     string            // Reference allele
	Alt     []string          // Alternate alleles
	Filter  string            // Raw FILTER column
	Info    map[string]string // INFO key-value pairs; flags map to ""
	Samples []Sample          // Per-sample FORMAT values, in column order
}

// Sample holds the FORMAT values of one sample column.
type Sample struct {
	Name   string
	Fields map[string]string
}

// Get returns the raw value of a FORMAT key. Missing keys and "." report false.
func (s Sample) Get(key string) (string, bool) {
	v, ok := s.Fields[key]
	if !ok || v == "" || v == MissingValue {
		return "", false
	}
	return v, true
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (v *Variant) IsSNV() bool {
	if len(v.Ref) != 1 || len(v.Alt) == 0 {
		return false
	}
	for _, alt := range v.Alt {
		if len(alt) != 1 || alt == MissingValue {
			return false
		}
		switch alt[0] {
		case 'A', 'C', 'G', 'T', 'N', '*':
		default:
			return false
		}
	}
	return true
}

// FirstAlt returns the first alternate allele, or "." if there is none.
func (v *Variant) FirstAlt() string {
	if len(v.Alt) == 0 || v.Alt[0] == "" {
		return MissingValue
	}
	return v.Alt[0]
}

// Filters returns the FILTER annotations the record failed.
// Both "PASS" and "." mean the record passed every filter.
func (v *Variant) Filters() []string {
	f := strings.TrimSpace(v.Filter)
	if f == "" || f == MissingValue || f == "PASS" {
		return nil
	}
	return strings.Split(f, ";")
}

// InfoValue returns a raw INFO value. Missing keys and "." report false.
func (v *Variant) InfoValue(key string) (string, bool) {
	val, ok := v.Info[key]
	if !ok || val == "" || val == MissingValue {
		return "", false
	}
	return val, true
}

// SampleIndices returns the indices of all samples with the given name.
func (v *Variant) SampleIndices(name string) []int {
	var idx []int
	for i, s := range v.Samples {
		if s.Name == name {
			idx = append(idx, i)
		}
	}
	return idx
}

// NormalizeChrom returns the chromosome name lowercased and without "chr" prefix.
func (v *Variant) NormalizeChrom() string {
	return NormalizeChrom(v.Chrom)
}
