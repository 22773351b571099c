package cnv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-pwgs/internal/ssm"
)

func TestFormatter_TotalReads(t *testing.T) {
	f := NewFormatter(1, 0.8, 50, 100)

	// 3+1 copies at P=0.8 over 10 kb: fragments = 50*10000/100 = 5000,
	// d = (4/4) * 5000*0.8*1.2 / (1+0.8) = 2666.67.
	total := f.TotalReads(0.8, 1, 10000, 4)
	assert.Equal(t, 2667, total)
	assert.Equal(t, 1600, f.RefReads(0.8, total), "floor(0.6 * 2667)")
}

func TestFormatter_TotalReads_CopyNeutral(t *testing.T) {
	f := NewFormatter(1, 1, 50, 100)

	// 2+0 at P=0.5: delta forced to 1, d = 0.25*5000*0.75/1.25 = 750,
	// discounted by 100/1000.
	total := f.TotalReads(0.5, 1, 10000, 2)
	assert.Equal(t, 75, total)
	assert.Equal(t, 56, f.RefReads(0.5, total))
}

func TestFormatter_TotalReads_Capped(t *testing.T) {
	f := NewFormatter(1, 1, 50, 100)

	// Homozygous deletion at P=1 is evaluated at P=0.999 and exceeds the cap.
	total := f.TotalReads(1.0, 1, 1000000, 0)
	assert.Equal(t, 50000000, total)
	assert.Equal(t, f.MaxReads(), float64(total))
}

func TestFormatter_Format(t *testing.T) {
	regions := Regions{
		"2": {{Chrom: "2", Start: 100, End: 200, MajorCN: 2, MinorCN: 0, CellularPrevalence: 0.5}},
		"1": {{Chrom: "1", Start: 1, End: 10000, MajorCN: 3, MinorCN: 1, CellularPrevalence: 0.8}},
	}
	ssms := []ssm.SSM{
		{ID: "s0", Chrom: "1", Pos: 1},
		{ID: "s1", Chrom: "1", Pos: 10001},
		{ID: "s2", Chrom: "2", Pos: 150},
		{ID: "s3", Chrom: "1", Pos: 10000},
	}

	cnvs := NewFormatter(1, 0.8, 50, 100).Format(regions, ssms)
	require.Len(t, cnvs, 2)

	assert.Equal(t, "1", cnvs[0].Chrom)
	assert.Equal(t, 2667, cnvs[0].TotalReads)
	assert.Equal(t, 1600, cnvs[0].RefReads)
	assert.Equal(t, []SSMRef{
		{ID: "s0", MinorCN: "1", MajorCN: "3"},
		{ID: "s3", MinorCN: "1", MajorCN: "3"},
	}, cnvs[0].SSMs)
	assert.Empty(t, cnvs[0].ID, "ids are assigned by Merge")

	assert.Equal(t, "2", cnvs[1].Chrom)
	assert.Equal(t, []SSMRef{{ID: "s2", MinorCN: "0", MajorCN: "2"}}, cnvs[1].SSMs)
}

func TestFormatter_Merge(t *testing.T) {
	f := NewFormatter(0.5, 1, 50, 100)

	cnvs := []CNV{
		{Chrom: "1", Start: 10, CellularPrevalence: 1, TotalReads: 100, RefReads: 50,
			SSMs: []SSMRef{{ID: "s0", MinorCN: "1", MajorCN: "2"}}},
		{Chrom: "2", Start: 20, CellularPrevalence: 0.5, TotalReads: 40, RefReads: 30},
		{Chrom: "3", Start: 30, CellularPrevalence: 1, TotalReads: 60, RefReads: 30,
			SSMs: []SSMRef{{ID: "s0", MinorCN: "0", MajorCN: "3"}, {ID: "s2", MinorCN: "0", MajorCN: "3"}}},
	}

	merged := f.Merge(cnvs)
	require.Len(t, merged, 2)

	assert.Equal(t, "c0", merged[0].ID)
	assert.Equal(t, "2", merged[0].Chrom)
	assert.Equal(t, 20, merged[0].TotalReads)
	assert.Equal(t, 15, merged[0].RefReads)
	assert.Empty(t, merged[0].MergedFrom)

	assert.Equal(t, "c1", merged[1].ID)
	assert.Equal(t, "1", merged[1].Chrom)
	// 160 total reads, floor(0.5*160) = 80 ref reads, then halved.
	assert.Equal(t, 80, merged[1].TotalReads)
	assert.Equal(t, 40, merged[1].RefReads)
	assert.Equal(t, []string{"3_30"}, merged[1].MergedFrom)
	assert.Equal(t, []SSMRef{
		{ID: "s0", MinorCN: "1", MajorCN: "2"},
		{ID: "s2", MinorCN: "0", MajorCN: "3"},
	}, merged[1].SSMs, "first attribution of s0 wins")
}

func TestFormatter_Merge_SubclonalNeverMerged(t *testing.T) {
	f := NewFormatter(1, 0.9, 50, 100)

	merged := f.Merge([]CNV{
		{Chrom: "1", Start: 1, CellularPrevalence: 0.4, TotalReads: 10},
		{Chrom: "1", Start: 50, CellularPrevalence: 0.4, TotalReads: 20},
		{Chrom: "2", Start: 1, CellularPrevalence: 0.6, TotalReads: 30},
	})

	require.Len(t, merged, 3)
	for i, c := range merged {
		assert.Equal(t, "c"+string(rune('0'+i)), c.ID)
		assert.Empty(t, c.MergedFrom)
	}
	assert.Equal(t, 10, merged[0].TotalReads)
	assert.Equal(t, 30, merged[2].TotalReads)
}

func TestFormatter_Merge_PreservesTotals(t *testing.T) {
	f := NewFormatter(1, 1, 50, 100)

	in := []CNV{
		{Chrom: "1", Start: 1, CellularPrevalence: 1, TotalReads: 11},
		{Chrom: "1", Start: 50, CellularPrevalence: 1, TotalReads: 22},
		{Chrom: "4", Start: 1, CellularPrevalence: 0.3, TotalReads: 33},
		{Chrom: "5", Start: 1, CellularPrevalence: 1, TotalReads: 44},
	}
	merged := f.Merge(in)

	sum := 0
	for _, c := range merged {
		sum += c.TotalReads
	}
	assert.Equal(t, 110, sum)
	require.Len(t, merged, 2)
	assert.Equal(t, []string{"1_50", "5_1"}, merged[1].MergedFrom)
}

func TestFormatter_Merge_HalvesRoundUp(t *testing.T) {
	f := NewFormatter(0.5, 1, 50, 100)

	tests := []struct {
		total, ref         int
		wantTotal, wantRef int
	}{
		{101, 61, 51, 31},
		{3, 1, 2, 1},
		{100, 50, 50, 25},
		{1, 1, 1, 1},
	}

	for _, tt := range tests {
		merged := f.Merge([]CNV{{Chrom: "1", Start: 1, CellularPrevalence: 1, TotalReads: tt.total, RefReads: tt.ref}})
		require.Len(t, merged, 1)
		assert.Equal(t, tt.wantTotal, merged[0].TotalReads, "total %d", tt.total)
		assert.Equal(t, tt.wantRef, merged[0].RefReads, "ref %d", tt.ref)
	}
}

func TestFormatter_TotalReads_HalfRoundsUp(t *testing.T) {
	// 3+1 at P=0.5 over 5 bp, depth 1, read length 1: fragments = 5,
	// d = 1 * 5*0.5*1.5 / 1.5 = 2.5 exactly.
	f := NewFormatter(1, 1, 1, 1)
	assert.Equal(t, 3, f.TotalReads(0.5, 1, 5, 4))
}

func TestFormatter_Merge_Empty(t *testing.T) {
	assert.Nil(t, NewFormatter(1, 1, 50, 100).Merge(nil))
}
