// Package cnv parses copy-number regions, reconciles variants against them
// and formats CNV records with implied read counts.
package cnv

import (
	"sort"

	"github.com/inodb/vibe-pwgs/internal/vcf"
)

// Region is one copy-number segment with its inferred clonal fraction.
type Region struct {
	Chrom              string // normalized chromosome
	Start              int64
	End                int64 // inclusive
	MajorCN            int
	MinorCN            int
	CellularPrevalence float64
}

// IsNormalCN reports whether the region carries one copy of each allele.
func (r Region) IsNormalCN() bool {
	return r.MajorCN == 1 && r.MinorCN == 1
}

// CopyNumber returns the total copy number of the region.
func (r Region) CopyNumber() int {
	return r.MajorCN + r.MinorCN
}

// Contains reports whether pos falls within [Start, End].
func (r Region) Contains(pos int64) bool {
	return r.Start <= pos && pos <= r.End
}

// Regions groups regions by chromosome, each slice sorted by start.
type Regions map[string][]Region

// Cellularity returns the highest cellular prevalence of any region, taken
// as the tumour purity. It is 0 when there are no regions.
func (rs Regions) Cellularity() float64 {
	var max float64
	for _, regions := range rs {
		for _, r := range regions {
			if r.CellularPrevalence > max {
				max = r.CellularPrevalence
			}
		}
	}
	return max
}

// Chroms returns the chromosomes in rank order.
func (rs Regions) Chroms() []string {
	chroms := make([]string, 0, len(rs))
	for c := range rs {
		chroms = append(chroms, c)
	}
	sort.Slice(chroms, func(i, j int) bool {
		return vcf.CompareChrom(chroms[i], chroms[j]) < 0
	})
	return chroms
}

// Len returns the total number of regions.
func (rs Regions) Len() int {
	n := 0
	for _, regions := range rs {
		n += len(regions)
	}
	return n
}

// Sort orders each chromosome's regions by start, keeping file order for
// equal starts.
func (rs Regions) Sort() {
	for _, regions := range rs {
		sort.SliceStable(regions, func(i, j int) bool {
			return regions[i].Start < regions[j].Start
		})
	}
}

// Filter returns the regions for which keep reports true.
func (rs Regions) Filter(keep func(Region) bool) Regions {
	out := make(Regions)
	for chrom, regions := range rs {
		for _, r := range regions {
			if keep(r) {
				out[chrom] = append(out[chrom], r)
			}
		}
	}
	return out
}
