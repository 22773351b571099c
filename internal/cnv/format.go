package cnv

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/inodb/vibe-pwgs/internal/ssm"
)

// Distance in bp between common SNPs, used to discount estimates that rest
// on allele balance alone.
const snpSpacing = 1000.0

// SSMRef links an SSM to a CNV together with the CNV's copy numbers.
type SSMRef struct {
	ID      string
	MinorCN string
	MajorCN string
}

// CNV is one formatted record of the CNV table.
type CNV struct {
	ID                 string // c0, c1, ...; assigned by Merge
	Chrom              string
	Start              int64
	End                int64
	MajorCN            int
	MinorCN            int
	CellularPrevalence float64
	RefReads           int
	TotalReads         int
	SSMs               []SSMRef
	MergedFrom         []string // <chrom>_<start> of records merged into this one
}

// Label returns "<chrom>_<start>".
func (c *CNV) Label() string {
	return fmt.Sprintf("%s_%d", c.Chrom, c.Start)
}

// Formatter converts copy-number regions into CNV records with implied
// read counts.
type Formatter struct {
	confidence  float64
	cellularity float64
	readDepth   float64
	readLength  int
	logger      *zap.Logger
}

// NewFormatter creates a formatter. readDepth is the mean SSM read depth;
// confidence in [0, 1] scales the final read counts.
func NewFormatter(confidence, cellularity, readDepth float64, readLength int) *Formatter {
	return &Formatter{
		confidence:  confidence,
		cellularity: cellularity,
		readDepth:   readDepth,
		readLength:  readLength,
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger for diagnostic messages.
func (f *Formatter) SetLogger(l *zap.Logger) {
	f.logger = l
}

// MaxReads caps the total reads of any CNV.
func (f *Formatter) MaxReads() float64 {
	return 1e6 * f.readDepth
}

// TotalReads returns the implied total read count of a region with
// prevalence p spanning [start, end] whose total copy number is newCN.
//
// With delta = newCN - 2 and f = depth * length / readLength fragments,
// d = (delta^2 / 4) * f*p*(2-p) / (1 + delta*p/2). A copy-neutral event
// (newCN == 2) uses delta = 1 and is discounted by readLength / 1000.
func (f *Formatter) TotalReads(p float64, start, end int64, newCN int) int {
	delta := float64(newCN - 2)
	noNetChange := newCN == 2
	if noNetChange {
		delta = 1
	}

	length := float64(end - start + 1)
	fragments := f.readDepth * length / float64(f.readLength)

	// delta = -2 at p = 1 divides by zero.
	if p == 1.0 {
		p = 0.999
	}

	d := (delta * delta / 4) * (fragments * p * (2 - p)) / (1 + delta*p/2)
	if noNetChange {
		d *= float64(f.readLength) / snpSpacing
	}

	return int(math.Round(math.Min(d, f.MaxReads())))
}

// RefReads returns floor((1 - p/2) * total).
func (f *Formatter) RefReads(p float64, total int) int {
	return int((1 - p/2) * float64(total))
}

// Format computes read counts for every region and records the SSMs it
// contains. Regions are visited in chromosome rank order, then by start.
func (f *Formatter) Format(regions Regions, ssms []ssm.SSM) []CNV {
	f.logger.Debug("formatting cnvs",
		zap.Float64("read_depth", f.readDepth),
		zap.Int("regions", regions.Len()))

	byChrom := make(map[string][]ssm.SSM)
	for _, s := range ssms {
		byChrom[s.Chrom] = append(byChrom[s.Chrom], s)
	}

	var out []CNV
	for _, chrom := range regions.Chroms() {
		for _, reg := range regions[chrom] {
			total := f.TotalReads(reg.CellularPrevalence, reg.Start, reg.End, reg.CopyNumber())
			c := CNV{
				Chrom:              chrom,
				Start:              reg.Start,
				End:                reg.End,
				MajorCN:            reg.MajorCN,
				MinorCN:            reg.MinorCN,
				CellularPrevalence: reg.CellularPrevalence,
				TotalReads:         total,
				RefReads:           f.RefReads(reg.CellularPrevalence, total),
			}
			minor, major := strconv.Itoa(reg.MinorCN), strconv.Itoa(reg.MajorCN)
			for _, s := range byChrom[chrom] {
				if reg.Contains(s.Pos) {
					c.SSMs = append(c.SSMs, SSMRef{ID: s.ID, MinorCN: minor, MajorCN: major})
				}
			}
			out = append(out, c)
		}
	}
	return out
}

// Merge sorts cnvs by prevalence and folds adjacent clonal records into one,
// summing their totals, recomputing ref reads and taking the union of their
// SSMs. An SSM already linked keeps its first copy-number attribution.
// Sub-clonal records are never merged. Ids are assigned in output order and
// read counts are finally scaled by the confidence.
func (f *Formatter) Merge(cnvs []CNV) []CNV {
	if len(cnvs) == 0 {
		return nil
	}

	sorted := make([]CNV, len(cnvs))
	copy(sorted, cnvs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CellularPrevalence < sorted[j].CellularPrevalence
	})

	merged := []CNV{sorted[0]}
	merged[0].ID = "c0"
	counter := 1

	for _, cur := range sorted[1:] {
		last := &merged[len(merged)-1]
		if cur.CellularPrevalence == last.CellularPrevalence && last.CellularPrevalence == f.cellularity {
			f.logger.Debug("merging clonal cnvs",
				zap.String("cnv", cur.Label()),
				zap.String("into", last.Label()))
			last.TotalReads += cur.TotalReads
			last.RefReads = f.RefReads(last.CellularPrevalence, last.TotalReads)
			last.MergedFrom = append(last.MergedFrom, cur.Label())
			f.mergeSSMs(last, cur)
			continue
		}

		cur.ID = "c" + strconv.Itoa(counter)
		merged = append(merged, cur)
		counter++
	}

	for i := range merged {
		merged[i].RefReads = int(math.Round(float64(merged[i].RefReads) * f.confidence))
		merged[i].TotalReads = int(math.Round(float64(merged[i].TotalReads) * f.confidence))
	}

	return merged
}

func (f *Formatter) mergeSSMs(dst *CNV, src CNV) {
	linked := make(map[string]bool, len(dst.SSMs))
	for _, s := range dst.SSMs {
		linked[s.ID] = true
	}
	for _, s := range src.SSMs {
		if linked[s.ID] {
			f.logger.Debug("ssm already linked to cnv",
				zap.String("ssm", s.ID),
				zap.String("cnv", dst.ID))
			continue
		}
		dst.SSMs = append(dst.SSMs, s)
		linked[s.ID] = true
	}
}

// FormatAndMerge formats regions against ssms and merges the result.
func (f *Formatter) FormatAndMerge(regions Regions, ssms []ssm.SSM) []CNV {
	return f.Merge(f.Format(regions, ssms))
}
