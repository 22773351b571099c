// Package ssm aggregates per-sample variant calls into read-count matrices,
// imputes missing counts and formats simple somatic mutations (SSMs).
package ssm

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/inodb/vibe-pwgs/internal/vcf"
)

// ID identifies a variant by normalized chromosome and 1-based position.
type ID struct {
	Chrom string
	Pos   int64
}

// Name returns the "<chrom>_<pos>" label used in output tables.
func (id ID) Name() string {
	return fmt.Sprintf("%s_%d", id.Chrom, id.Pos)
}

// Compare orders IDs by chromosome rank, then position.
func (id ID) Compare(o ID) int {
	if c := vcf.CompareChrom(id.Chrom, o.Chrom); c != 0 {
		return c
	}
	switch {
	case id.Pos < o.Pos:
		return -1
	case id.Pos > o.Pos:
		return 1
	}
	return 0
}

// SortIDs sorts ids in place by chromosome rank and position.
func SortIDs(ids []ID) {
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].Compare(ids[j]) < 0
	})
}

// ParseID parses a "<chrom>_<pos>" label. The chromosome is normalized.
func ParseID(s string) (ID, error) {
	chrom, pos, ok := strings.Cut(strings.TrimSpace(s), "_")
	if !ok || chrom == "" {
		return ID{}, fmt.Errorf("invalid variant label %q: expected <chrom>_<pos>", s)
	}
	n, err := strconv.ParseInt(pos, 10, 64)
	if err != nil {
		return ID{}, fmt.Errorf("invalid position in variant label %q: %w", s, err)
	}
	return ID{Chrom: vcf.NormalizeChrom(chrom), Pos: n}, nil
}
