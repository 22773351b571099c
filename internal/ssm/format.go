package ssm

import (
	"strconv"

	"github.com/inodb/vibe-pwgs/internal/vcf"
)

// SSM is one formatted row of the variant table.
type SSM struct {
	ID         string // s0, s1, ...
	Name       string // <chrom>_<pos>
	Chrom      string
	Pos        int64
	RefReads   []int // per sample
	TotalReads []int // per sample
	MuR        float64
	MuV        float64
}

// Formatter assigns sequential SSM ids and expected frequencies. The id
// counter persists across calls, so formatting the subsampled rows and then
// the nonsubsampled rows yields disjoint ids.
type Formatter struct {
	errorRate float64
	counter   int
}

// NewFormatter creates a formatter for the given sequencing error rate.
func NewFormatter(errorRate float64) *Formatter {
	return &Formatter{errorRate: errorRate}
}

// Format converts the given rows of c into SSMs, in order.
func (f *Formatter) Format(c *Counts, rows []int) []SSM {
	out := make([]SSM, 0, len(rows))
	for _, i := range rows {
		id := c.IDs[i]
		muR, muV := f.Frequencies(id.Chrom)
		out = append(out, SSM{
			ID:         "s" + strconv.Itoa(f.counter),
			Name:       id.Name(),
			Chrom:      id.Chrom,
			Pos:        id.Pos,
			RefReads:   c.Ref[i],
			TotalReads: c.Total[i],
			MuR:        muR,
			MuV:        muV,
		})
		f.counter++
	}
	return out
}

// Frequencies returns mu_r and mu_v for a chromosome. On haploid
// chromosomes mu_v reduces to the error rate.
func (f *Formatter) Frequencies(chrom string) (muR, muV float64) {
	muR = 1 - f.errorRate
	if vcf.IsHaploid(chrom) {
		return muR, f.errorRate
	}
	return muR, 0.5 - f.errorRate
}
