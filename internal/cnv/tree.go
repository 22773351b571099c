package cnv

import "sort"

// IntervalTree answers point-containment queries over the regions of one
// chromosome using a sorted slice with a suffix-max prune.
type IntervalTree struct {
	regions []Region
	maxEnd  []int64 // maxEnd[i] = max(End) for regions[i:]
}

// BuildIntervalTree indexes regions. The input slice is not modified.
func BuildIntervalTree(regions []Region) *IntervalTree {
	if len(regions) == 0 {
		return &IntervalTree{}
	}

	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	maxEnd := make([]int64, len(sorted))
	maxEnd[len(sorted)-1] = sorted[len(sorted)-1].End
	for i := len(sorted) - 2; i >= 0; i-- {
		maxEnd[i] = sorted[i].End
		if maxEnd[i+1] > maxEnd[i] {
			maxEnd[i] = maxEnd[i+1]
		}
	}

	return &IntervalTree{regions: sorted, maxEnd: maxEnd}
}

// FindOverlaps returns all regions whose [Start, End] contains pos, in
// ascending start order.
func (t *IntervalTree) FindOverlaps(pos int64) []Region {
	hi := t.upper(pos)

	var result []Region
	for i := hi - 1; i >= 0; i-- {
		if t.maxEnd[i] < pos {
			break
		}
		if t.regions[i].End >= pos {
			result = append(result, t.regions[i])
		}
	}

	// Reverse scan order back to start order.
	for i, j := 0, len(result)-1; i < j; i, j = i+1, j-1 {
		result[i], result[j] = result[j], result[i]
	}
	return result
}

// First returns the lowest-start region containing pos.
func (t *IntervalTree) First(pos int64) (Region, bool) {
	found := t.FindOverlaps(pos)
	if len(found) == 0 {
		return Region{}, false
	}
	return found[0], true
}

// Contains reports whether any region contains pos.
func (t *IntervalTree) Contains(pos int64) bool {
	hi := t.upper(pos)
	for i := hi - 1; i >= 0; i-- {
		if t.maxEnd[i] < pos {
			return false
		}
		if t.regions[i].End >= pos {
			return true
		}
	}
	return false
}

// upper returns the index of the first region starting after pos.
func (t *IntervalTree) upper(pos int64) int {
	return sort.Search(len(t.regions), func(i int) bool {
		return t.regions[i].Start > pos
	})
}

// Index holds one interval tree per chromosome.
type Index map[string]*IntervalTree

// NewIndex builds an index over rs.
func NewIndex(rs Regions) Index {
	idx := make(Index, len(rs))
	for chrom, regions := range rs {
		idx[chrom] = BuildIntervalTree(regions)
	}
	return idx
}

// Contains reports whether any region on chrom contains pos.
func (idx Index) Contains(chrom string, pos int64) bool {
	t, ok := idx[chrom]
	return ok && t.Contains(pos)
}

// First returns the lowest-start region on chrom containing pos.
func (idx Index) First(chrom string, pos int64) (Region, bool) {
	t, ok := idx[chrom]
	if !ok {
		return Region{}, false
	}
	return t.First(pos)
}
