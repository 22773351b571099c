package cnv

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-pwgs/internal/ssm"
)

// Placement classifies where an excluded variant lies.
type Placement string

// Placements of an excluded variant.
const (
	InNormalRegion   Placement = "normal"
	InAbnormalRegion Placement = "abnormal"
	OutsideRegions   Placement = "outside"
)

// Exclusion records a variant dropped during reconciliation.
type Exclusion struct {
	ID        ssm.ID
	Placement Placement
	Region    Region // first containing region; zero when OutsideRegions
}

// Reconciler decides which variants to keep given the CNV regions.
type Reconciler struct {
	regions     Regions
	index       Index
	cellularity float64
	logger      *zap.Logger
}

// NewReconciler creates a reconciler over rs.
func NewReconciler(rs Regions) *Reconciler {
	return &Reconciler{
		regions:     rs,
		index:       NewIndex(rs),
		cellularity: rs.Cellularity(),
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger for diagnostic messages.
func (r *Reconciler) SetLogger(l *zap.Logger) {
	r.logger = l
}

// Regions returns all parsed regions.
func (r *Reconciler) Regions() Regions { return r.regions }

// Cellularity returns the highest cellular prevalence of any region.
func (r *Reconciler) Cellularity() float64 { return r.cellularity }

// IsClonal reports whether reg is present in every tumour cell.
func (r *Reconciler) IsClonal(reg Region) bool {
	return reg.CellularPrevalence == r.cellularity
}

// RetainNormalCN keeps the rows of ids that lie in a clonal normal-CN
// region.
func (r *Reconciler) RetainNormalCN(ids []ssm.ID, rows []int) ([]int, []Exclusion) {
	normal := r.regions.Filter(func(reg Region) bool {
		return reg.IsNormalCN() && r.IsClonal(reg)
	})
	return r.filterOutside(normal, ids, rows, "only_normal_cn")
}

// ExcludeSubclonal keeps the rows of ids that lie in a region retained by
// FilterAmbiguous.
func (r *Reconciler) ExcludeSubclonal(ids []ssm.ID, rows []int) ([]int, []Exclusion, error) {
	good, err := r.FilterAmbiguous()
	if err != nil {
		return nil, nil, err
	}
	kept, excluded := r.filterOutside(good, ids, rows, "outside_subclonal_cn")
	return kept, excluded, nil
}

// FilterAmbiguous drops sub-clonal coordinate blocks whose event order
// cannot be resolved. Per chromosome, a clonal region is always kept. A
// sub-clonal region opens a block with the following regions sharing its
// start; they must also share its end. The block keeps its single abnormal
// region, or is dropped when it has none or several.
func (r *Reconciler) FilterAmbiguous() (Regions, error) {
	good := make(Regions)

	for _, chrom := range r.regions.Chroms() {
		regions := r.regions[chrom]
		for idx := 0; idx < len(regions); {
			region := regions[idx]
			if r.IsClonal(region) {
				good[chrom] = append(good[chrom], region)
				idx++
				continue
			}

			block := []Region{region}
			for i := idx + 1; i < len(regions) && regions[i].Start == region.Start; i++ {
				if regions[i].End != region.End {
					return nil, fmt.Errorf("chromosome %s: regions starting at %d end at both %d and %d",
						chrom, region.Start, region.End, regions[i].End)
				}
				block = append(block, regions[i])
			}

			var abnormal []Region
			for _, b := range block {
				if !b.IsNormalCN() {
					abnormal = append(abnormal, b)
				}
			}
			if len(abnormal) == 1 {
				good[chrom] = append(good[chrom], abnormal[0])
			} else {
				r.logger.Debug("dropping ambiguous sub-clonal block",
					zap.String("chrom", chrom),
					zap.Int64("start", region.Start),
					zap.Int64("end", region.End),
					zap.Int("abnormal_regions", len(abnormal)))
			}
			idx += len(block)
		}
	}

	return good, nil
}

// AbnormalRegions returns the abnormal-CN regions that survive
// FilterAmbiguous. These are the regions written as CNVs.
func (r *Reconciler) AbnormalRegions() (Regions, error) {
	good, err := r.FilterAmbiguous()
	if err != nil {
		return nil, err
	}
	return good.Filter(func(reg Region) bool { return !reg.IsNormalCN() }), nil
}

// filterOutside keeps the rows contained in some region of keep.
func (r *Reconciler) filterOutside(keep Regions, ids []ssm.ID, rows []int, label string) ([]int, []Exclusion) {
	index := NewIndex(keep)

	var kept []int
	var excluded []Exclusion
	for _, row := range rows {
		id := ids[row]
		if index.Contains(id.Chrom, id.Pos) {
			kept = append(kept, row)
			continue
		}
		excluded = append(excluded, r.classify(id))
	}

	r.logger.Debug("filtered variants by cnv regions",
		zap.Int("all_variants", len(rows)),
		zap.Int(label, len(kept)),
		zap.Int("delta", len(rows)-len(kept)))

	for _, e := range excluded {
		fields := []zap.Field{
			zap.String("variant", e.ID.Name()),
			zap.String("placement", string(e.Placement)),
		}
		if e.Placement != OutsideRegions {
			fields = append(fields,
				zap.String("region", fmt.Sprintf("chr%s(%d, %d)", e.Region.Chrom, e.Region.Start, e.Region.End)))
		}
		r.logger.Debug("excluded variant", fields...)
	}

	return kept, excluded
}

// classify locates id among all parsed regions.
func (r *Reconciler) classify(id ssm.ID) Exclusion {
	reg, ok := r.index.First(id.Chrom, id.Pos)
	if !ok {
		return Exclusion{ID: id, Placement: OutsideRegions}
	}
	p := InAbnormalRegion
	if reg.IsNormalCN() {
		p = InNormalRegion
	}
	return Exclusion{ID: id, Placement: p, Region: reg}
}
