package ssm

import (
	"github.com/willf/bitset"
	"gonum.org/v1/gonum/mat"
)

// Matrix holds raw read counts of variants (rows) across samples (columns).
// Cells without a call are absent; the presence mask tracks them instead of
// a NaN sentinel.
type Matrix struct {
	IDs []ID

	ref     *mat.Dense
	total   *mat.Dense
	present *bitset.BitSet
	samples int
}

// NewMatrix allocates an empty matrix for the given variants and sample count.
func NewMatrix(ids []ID, samples int) *Matrix {
	m := &Matrix{
		IDs:     ids,
		samples: samples,
		present: bitset.New(uint(len(ids) * samples)),
	}
	// gonum rejects zero-sized matrices.
	if len(ids) > 0 && samples > 0 {
		m.ref = mat.NewDense(len(ids), samples, nil)
		m.total = mat.NewDense(len(ids), samples, nil)
	}
	return m
}

// Rows returns the number of variants.
func (m *Matrix) Rows() int { return len(m.IDs) }

// Samples returns the number of samples.
func (m *Matrix) Samples() int { return m.samples }

// Set records the read counts of variant i in sample j.
func (m *Matrix) Set(i, j, ref, total int) {
	m.ref.Set(i, j, float64(ref))
	m.total.Set(i, j, float64(total))
	m.present.Set(m.cell(i, j))
}

// Present reports whether sample j has a call for variant i.
func (m *Matrix) Present(i, j int) bool {
	return m.present.Test(m.cell(i, j))
}

// At returns the read counts of a cell. ok is false for absent cells.
func (m *Matrix) At(i, j int) (ref, total float64, ok bool) {
	if !m.Present(i, j) {
		return 0, 0, false
	}
	return m.ref.At(i, j), m.total.At(i, j), true
}

// Missing returns the number of absent cells.
func (m *Matrix) Missing() int {
	return m.Rows()*m.samples - int(m.present.Count())
}

func (m *Matrix) cell(i, j int) uint {
	return uint(i*m.samples + j)
}
