package ssm

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"
)

// DefaultReadDepth is the read depth assumed when no variants are available.
const DefaultReadDepth = 50

// ImputationError reports a geometric mean that is zero, negative or NaN.
// It indicates a sample or variant without usable read depth.
type ImputationError struct {
	Axis  string // "sample", "variant" or "cell"
	Index int
	Label string
	Value float64
}

func (e *ImputationError) Error() string {
	return fmt.Sprintf("imputation failed: %s %d (%s) has geometric mean read depth %g", e.Axis, e.Index, e.Label, e.Value)
}

// Counts holds complete integer read counts after imputation.
type Counts struct {
	IDs   []ID
	Ref   [][]int
	Total [][]int
}

// Len returns the number of variants.
func (c *Counts) Len() int { return len(c.IDs) }

// MeanDepth returns the mean total read count over all cells, or
// DefaultReadDepth when there are no variants.
func (c *Counts) MeanDepth() float64 {
	var depths []float64
	for _, row := range c.Total {
		for _, t := range row {
			depths = append(depths, float64(t))
		}
	}
	if len(depths) == 0 {
		return DefaultReadDepth
	}
	return stat.Mean(depths, nil)
}

// Imputer fills absent cells of a raw matrix.
type Imputer struct {
	confidence float64
	logger     *zap.Logger
}

// NewImputer creates an imputer. confidence in [0, 1] scales every imputed
// total and expresses how sure we are that a variant missing from a sample
// is truly absent there.
func NewImputer(confidence float64) *Imputer {
	return &Imputer{
		confidence: confidence,
		logger:     zap.NewNop(),
	}
}

// SetLogger sets the logger for diagnostic messages.
func (im *Imputer) SetLogger(l *zap.Logger) {
	im.logger = l
}

// Impute returns complete counts for m. Missing totals are the product of
// the variant's geometric mean depth enrichment and the sample's geometric
// mean depth, scaled by the confidence and floored. Missing ref counts equal
// the imputed total, so imputed cells carry no variant reads.
func (im *Imputer) Impute(m *Matrix) (*Counts, error) {
	rows, cols := m.Rows(), m.Samples()
	c := &Counts{
		IDs:   m.IDs,
		Ref:   make([][]int, rows),
		Total: make([][]int, rows),
	}
	if rows == 0 {
		return c, nil
	}

	sampleMeans := make([]float64, cols)
	for j := 0; j < cols; j++ {
		var depths []float64
		for i := 0; i < rows; i++ {
			if _, total, ok := m.At(i, j); ok {
				depths = append(depths, total)
			}
		}
		gm := geometricMean(depths)
		if !(gm > 0) {
			return nil, &ImputationError{Axis: "sample", Index: j, Label: fmt.Sprintf("%d calls", len(depths)), Value: gm}
		}
		sampleMeans[j] = gm
	}

	variantMeans := make([]float64, rows)
	for i := 0; i < rows; i++ {
		var enrichment []float64
		for j := 0; j < cols; j++ {
			if _, total, ok := m.At(i, j); ok {
				enrichment = append(enrichment, total/sampleMeans[j])
			}
		}
		gm := geometricMean(enrichment)
		if !(gm > 0) {
			return nil, &ImputationError{Axis: "variant", Index: i, Label: m.IDs[i].Name(), Value: gm}
		}
		variantMeans[i] = gm
	}

	imputed := 0
	for i := 0; i < rows; i++ {
		c.Ref[i] = make([]int, cols)
		c.Total[i] = make([]int, cols)
		for j := 0; j < cols; j++ {
			if ref, total, ok := m.At(i, j); ok {
				c.Ref[i][j] = int(ref)
				c.Total[i][j] = int(total)
				continue
			}

			est := variantMeans[i] * sampleMeans[j]
			if !(est > 0) || math.IsInf(est, 0) {
				return nil, &ImputationError{Axis: "cell", Index: j, Label: m.IDs[i].Name(), Value: est}
			}
			total := int(math.Floor(est * im.confidence))
			if total <= 0 {
				im.logger.Warn("imputed total read count is zero",
					zap.String("variant", m.IDs[i].Name()),
					zap.Int("sample", j),
					zap.Float64("estimate", est),
					zap.Float64("confidence", im.confidence))
			}
			c.Total[i][j] = total
			c.Ref[i][j] = total
			imputed++
		}
	}

	im.logger.Debug("imputed missing read counts",
		zap.Int("variants", rows),
		zap.Int("samples", cols),
		zap.Int("imputed", imputed))

	return c, nil
}

// geometricMean returns NaN for an empty slice.
func geometricMean(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.GeometricMean(x, nil)
}
