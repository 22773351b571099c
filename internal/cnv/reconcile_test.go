package cnv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-pwgs/internal/ssm"
)

func testReconciler(t *testing.T) *Reconciler {
	t.Helper()
	rs, err := ReadRegions(findTestFile(t, "regions.txt"))
	require.NoError(t, err)
	return NewReconciler(rs)
}

var testIDs = []ssm.ID{
	{Chrom: "1", Pos: 500},  // clonal normal
	{Chrom: "1", Pos: 2500}, // sub-clonal block with one abnormal region
	{Chrom: "1", Pos: 4500}, // ambiguous block
	{Chrom: "1", Pos: 6500}, // clonal gain
	{Chrom: "1", Pos: 8000}, // no region
	{Chrom: "2", Pos: 10},   // no regions on chromosome
}

func allRows() []int {
	rows := make([]int, len(testIDs))
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func TestReconciler_FilterAmbiguous(t *testing.T) {
	good, err := testReconciler(t).FilterAmbiguous()
	require.NoError(t, err)

	require.Len(t, good["1"], 3)
	assert.Equal(t, int64(1), good["1"][0].Start)
	assert.Equal(t, int64(2000), good["1"][1].Start)
	assert.False(t, good["1"][1].IsNormalCN(), "normal remainder of block is dropped")
	assert.Equal(t, int64(6000), good["1"][2].Start)

	// A lone sub-clonal abnormal region forms a block of one.
	require.Len(t, good["3"], 1)
}

func TestReconciler_FilterAmbiguous_MismatchedEnds(t *testing.T) {
	r := NewReconciler(Regions{"1": {
		{Chrom: "1", Start: 1, End: 10, MajorCN: 1, MinorCN: 1, CellularPrevalence: 1},
		{Chrom: "1", Start: 20, End: 30, MajorCN: 2, MinorCN: 1, CellularPrevalence: 0.5},
		{Chrom: "1", Start: 20, End: 35, MajorCN: 1, MinorCN: 1, CellularPrevalence: 0.5},
	}})

	_, err := r.FilterAmbiguous()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chromosome 1")
}

func TestReconciler_FilterAmbiguous_NormalOnlyBlock(t *testing.T) {
	r := NewReconciler(Regions{"1": {
		{Chrom: "1", Start: 1, End: 10, MajorCN: 2, MinorCN: 1, CellularPrevalence: 0.9},
		{Chrom: "1", Start: 20, End: 30, MajorCN: 1, MinorCN: 1, CellularPrevalence: 0.5},
	}})

	good, err := r.FilterAmbiguous()
	require.NoError(t, err)
	assert.Len(t, good["1"], 1)
}

func TestReconciler_ExcludeSubclonal(t *testing.T) {
	kept, excluded, err := testReconciler(t).ExcludeSubclonal(testIDs, allRows())
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 3}, kept)
	require.Len(t, excluded, 3)

	assert.Equal(t, testIDs[2], excluded[0].ID)
	assert.Equal(t, InAbnormalRegion, excluded[0].Placement)
	assert.Equal(t, int64(4000), excluded[0].Region.Start)

	assert.Equal(t, OutsideRegions, excluded[1].Placement)
	assert.Equal(t, OutsideRegions, excluded[2].Placement)
}

func TestReconciler_RetainNormalCN(t *testing.T) {
	kept, excluded := testReconciler(t).RetainNormalCN(testIDs, allRows())

	assert.Equal(t, []int{0}, kept)
	require.Len(t, excluded, 5)

	placements := make([]Placement, len(excluded))
	for i, e := range excluded {
		placements[i] = e.Placement
	}
	assert.Equal(t, []Placement{
		InAbnormalRegion, // first region at 2500 in file order is the gain
		InAbnormalRegion,
		InAbnormalRegion,
		OutsideRegions,
		OutsideRegions,
	}, placements)
}

func TestReconciler_RetainNormalCN_SubclonalNormal(t *testing.T) {
	r := NewReconciler(Regions{"1": {
		{Chrom: "1", Start: 1, End: 100, MajorCN: 1, MinorCN: 1, CellularPrevalence: 0.4},
		{Chrom: "1", Start: 200, End: 300, MajorCN: 2, MinorCN: 1, CellularPrevalence: 0.8},
	}})

	kept, excluded := r.RetainNormalCN([]ssm.ID{{Chrom: "1", Pos: 50}}, []int{0})
	assert.Empty(t, kept)
	require.Len(t, excluded, 1)
	assert.Equal(t, InNormalRegion, excluded[0].Placement)
}

func TestReconciler_AbnormalRegions(t *testing.T) {
	abnormal, err := testReconciler(t).AbnormalRegions()
	require.NoError(t, err)

	assert.Equal(t, 3, abnormal.Len())
	for _, regions := range abnormal {
		for _, r := range regions {
			assert.False(t, r.IsNormalCN())
		}
	}
	assert.Equal(t, 0.9, testReconciler(t).Cellularity())
}
