package ssm

import (
	"math/rand"
	"sort"
)

// DefaultSeed seeds the subsampling shuffle so that repeated runs pick the
// same variants.
const DefaultSeed = 1

// Subsample splits the variant rows idxs into a subsample of at most size
// rows and the remainder. Rows are shuffled with a generator seeded by seed;
// prioritized variants are taken first, then the shuffled rest fills the
// subsample. Both groups are returned sorted by variant ID. A size of zero
// or less keeps every row.
func Subsample(ids []ID, idxs []int, size int, priority PrioritySet, seed int64) (subsampled, nonsubsampled []int) {
	if size <= 0 {
		size = len(idxs)
	}

	shuffled := make([]int, len(idxs))
	copy(shuffled, idxs)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var remaining []int
	for _, idx := range shuffled {
		if len(subsampled) < size && priority.Contains(ids[idx]) {
			subsampled = append(subsampled, idx)
		} else {
			remaining = append(remaining, idx)
		}
	}

	needed := size - len(subsampled)
	if needed > len(remaining) {
		needed = len(remaining)
	}
	subsampled = append(subsampled, remaining[:needed]...)
	nonsubsampled = remaining[needed:]

	sortRows(ids, subsampled)
	sortRows(ids, nonsubsampled)
	return subsampled, nonsubsampled
}

func sortRows(ids []ID, rows []int) {
	sort.Slice(rows, func(i, j int) bool {
		return ids[rows[i]].Compare(ids[rows[j]]) < 0
	})
}
