package vcf

import (
	"strconv"
	"strings"
)

// NormalizeChrom lowercases a chromosome name and strips the "chr" prefix
// some VCF dialects prepend.
func NormalizeChrom(chrom string) string {
	c := strings.ToLower(strings.TrimSpace(chrom))
	if len(c) > 3 && c[:3] == "chr" {
		return c[3:]
	}
	return c
}

// IsGoodChrom reports whether a normalized chromosome is an autosome (1-22).
//
// Unplaced contigs ("un", "*_random"), alternate haplotypes, mitochondrial
// and sex chromosomes are all rejected; expected frequencies on X depend on
// the patient's sex, which is not known here.
func IsGoodChrom(chrom string) bool {
	n, err := strconv.Atoi(chrom)
	if err != nil {
		return false
	}
	return n >= 1 && n <= 22 && strconv.Itoa(n) == chrom
}

// IsHaploid reports whether a normalized chromosome is expected to carry a
// single copy (X and Y assuming a male patient, and mitochondrial DNA).
func IsHaploid(chrom string) bool {
	switch chrom {
	case "x", "y", "m", "mt":
		return true
	}
	return false
}

// ChromKey returns the sort rank of a normalized chromosome: autosomes by
// number, then x (100), y (101) and mitochondrial DNA (102). Other contigs
// sort last.
func ChromKey(chrom string) int {
	switch chrom {
	case "x":
		return 100
	case "y":
		return 101
	case "m", "mt":
		return 102
	}
	if n, err := strconv.Atoi(chrom); err == nil && n >= 0 {
		return n
	}
	return 1000
}

// CompareChrom orders normalized chromosomes by ChromKey, breaking ties
// between unranked contigs by name.
func CompareChrom(a, b string) int {
	ka, kb := ChromKey(a), ChromKey(b)
	switch {
	case ka < kb:
		return -1
	case ka > kb:
		return 1
	}
	return strings.Compare(a, b)
}
