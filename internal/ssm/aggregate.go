package ssm

import "github.com/inodb/vibe-pwgs/internal/caller"

// Aggregate builds the raw matrix from per-sample calls. Each slice of
// samples becomes one column. Rows are the union of all call identities,
// sorted by chromosome rank and position. If a sample lists the same locus
// twice, the later call wins.
func Aggregate(samples [][]caller.Call) *Matrix {
	index := make(map[ID]int)
	var ids []ID
	for _, calls := range samples {
		for _, c := range calls {
			id := ID{Chrom: c.Chrom, Pos: c.Pos}
			if _, ok := index[id]; ok {
				continue
			}
			index[id] = len(ids)
			ids = append(ids, id)
		}
	}

	SortIDs(ids)
	for i, id := range ids {
		index[id] = i
	}

	m := NewMatrix(ids, len(samples))
	for j, calls := range samples {
		for _, c := range calls {
			m.Set(index[ID{Chrom: c.Chrom, Pos: c.Pos}], j, c.Ref, c.Total)
		}
	}
	return m
}
