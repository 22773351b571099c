package caller

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-pwgs/internal/vcf"
)

func sample(name string, fields map[string]string) vcf.Sample {
	return vcf.Sample{Name: name, Fields: fields}
}

func newAdapter(t *testing.T, typ Type, opts Options) Adapter {
	t.Helper()
	a, err := New(typ, opts)
	require.NoError(t, err)
	return a
}

func TestParseType(t *testing.T) {
	for _, name := range Types() {
		typ, err := ParseType(name)
		require.NoError(t, err)
		assert.Equal(t, Type(name), typ)
	}

	_, err := ParseType("gatk")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variant caller")
}

func TestTypes_Sorted(t *testing.T) {
	types := Types()
	require.Len(t, types, 9)
	assert.Equal(t, "dkfz", types[0])
	assert.Equal(t, "vardict", types[len(types)-1])
}

func TestMutectSmchet_ReadCounts(t *testing.T) {
	v := &vcf.Variant{
		Chrom: "1", Pos: 100, Ref: "A", Alt: []string{"G"},
		Samples: []vcf.Sample{
			sample("NORMAL", map[string]string{"AD": "50,0"}),
			sample("TUMOR", map[string]string{"AD": "30,10"}),
		},
	}

	for _, typ := range []Type{MutectSMCHET, VarDict} {
		t.Run(string(typ), func(t *testing.T) {
			ref, total, err := newAdapter(t, typ, Options{}).ReadCounts(v)
			require.NoError(t, err)
			assert.Equal(t, 30, ref)
			assert.Equal(t, 40, total)
		})
	}
}

func TestTumorSample_ByName(t *testing.T) {
	v := &vcf.Variant{
		Chrom: "1", Pos: 100,
		Samples: []vcf.Sample{
			sample("TUMOR", map[string]string{"AD": "30,10"}),
			sample("NORMAL", map[string]string{"AD": "50,0"}),
		},
	}

	ref, total, err := newAdapter(t, MutectSMCHET, Options{TumorSample: "TUMOR"}).ReadCounts(v)
	require.NoError(t, err)
	assert.Equal(t, 30, ref)
	assert.Equal(t, 40, total)

	_, _, err = newAdapter(t, MutectSMCHET, Options{TumorSample: "MISSING"}).ReadCounts(v)
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrReadCountsUnavailable), "ambiguous tumor is fatal")

	dup := &vcf.Variant{Samples: []vcf.Sample{sample("T", nil), sample("T", nil)}}
	_, err = tumorIndex(dup, "T")
	require.Error(t, err)
}

func TestAllelicDepth_Missing(t *testing.T) {
	v := &vcf.Variant{
		Chrom: "1", Pos: 100,
		Samples: []vcf.Sample{sample("TUMOR", map[string]string{"AD": "."})},
	}
	_, _, err := newAdapter(t, MutectSMCHET, Options{}).ReadCounts(v)
	assert.ErrorIs(t, err, ErrReadCountsUnavailable)

	v.Samples[0].Fields["AD"] = "x,1"
	_, _, err = newAdapter(t, MutectSMCHET, Options{}).ReadCounts(v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrReadCountsUnavailable)
}

func TestSanger_ReadCounts(t *testing.T) {
	v := &vcf.Variant{
		Chrom: "3", Pos: 500, Ref: "C", Alt: []string{"T"},
		Samples: []vcf.Sample{
			sample("NORMAL", map[string]string{"FCZ": "40", "RCZ": "40", "FTZ": "0", "RTZ": "0"}),
			sample("TUMOUR", map[string]string{
				"FAZ": "1", "FCZ": "12", "FGZ": "0", "FTZ": "5",
				"RAZ": "0", "RCZ": "8", "RGZ": "2", "RTZ": "3",
			}),
		},
	}

	ref, total, err := newAdapter(t, Sanger, Options{}).ReadCounts(v)
	require.NoError(t, err)
	assert.Equal(t, 20, ref, "FCZ+RCZ")
	assert.Equal(t, 28, total, "ref plus FTZ+RTZ; A and G reads ignored")

	indel := &vcf.Variant{Chrom: "3", Pos: 500, Ref: "CA", Alt: []string{"C"}, Samples: v.Samples}
	_, _, err = newAdapter(t, Sanger, Options{}).ReadCounts(indel)
	require.Error(t, err)
}

func TestPCAWGConsensus_ReadCounts(t *testing.T) {
	tests := []struct {
		name      string
		info      map[string]string
		wantRef   int
		wantTotal int
		wantErr   error
		fatal     bool
	}{
		{"counts", map[string]string{"t_alt_count": "7", "t_ref_count": "21"}, 21, 28, nil, false},
		{"absent", map[string]string{"t_alt_count": "7"}, 0, 0, ErrReadCountsUnavailable, false},
		{"zero reads", map[string]string{"t_alt_count": "0", "t_ref_count": "0"}, 0, 0, ErrReadCountsUnavailable, false},
		{"multi-valued", map[string]string{"t_alt_count": "1,2", "t_ref_count": "3"}, 0, 0, nil, true},
	}

	a := newAdapter(t, PCAWGConsensus, Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, total, err := a.ReadCounts(&vcf.Variant{Chrom: "1", Pos: 1, Info: tt.info})
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.fatal:
				require.Error(t, err)
				assert.NotErrorIs(t, err, ErrReadCountsUnavailable)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantRef, ref)
				assert.Equal(t, tt.wantTotal, total)
			}
		})
	}
}

func TestMuse(t *testing.T) {
	record := func(normalGT, filter string) *vcf.Variant {
		return &vcf.Variant{
			Chrom: "5", Pos: 42, Ref: "G", Alt: []string{"A"}, Filter: filter,
			Samples: []vcf.Sample{
				sample("NORMAL", map[string]string{"GT": normalGT, "DP": "60", "AD": "60,0"}),
				sample("TUMOR", map[string]string{"GT": "0/1", "DP": "45", "AD": "30,15"}),
			},
		}
	}

	a := newAdapter(t, MuSE, Options{MuseTier: 2})

	ref, total, err := a.ReadCounts(record("0/0", "PASS"))
	require.NoError(t, err)
	assert.Equal(t, 30, ref, "AD slot of normal allele 0")
	assert.Equal(t, 45, total, "tumor DP")

	tests := []struct {
		name   string
		gt     string
		filter string
		want   bool
	}{
		{"pass", "0/0", "PASS", true},
		{"tier accepted", "0/0", "Tier2", true},
		{"tier rejected", "0/0", "Tier4", false},
		{"heterozygous normal", "0/1", "PASS", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := a.Passes(record(tt.gt, tt.filter))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
		})
	}

	three := record("0/0", "PASS")
	three.Samples = append(three.Samples, sample("OTHER", nil))
	_, err = a.Passes(three)
	require.Error(t, err, "tumor index 2 is fatal")
}

func TestStrelka(t *testing.T) {
	v := &vcf.Variant{
		Chrom: "8", Pos: 77, Ref: "A", Alt: []string{"T"},
		Samples: []vcf.Sample{
			sample("NORMAL", map[string]string{"DP": "50", "TU": "0,0"}),
			sample("TUMOR", map[string]string{"DP": "40", "TU": "12,14"}),
		},
	}

	a := newAdapter(t, Strelka, Options{})
	ref, total, err := a.ReadCounts(v)
	require.NoError(t, err)
	assert.Equal(t, 28, ref)
	assert.Equal(t, 40, total)

	ok, err := a.Passes(v)
	require.NoError(t, err)
	assert.True(t, ok)

	indel := &vcf.Variant{Ref: "AT", Alt: []string{"A"}}
	ok, err = a.Passes(indel)
	require.NoError(t, err)
	assert.False(t, ok, "only SNVs are accepted")

	filtered := &vcf.Variant{Ref: "A", Alt: []string{"T"}, Filter: "QSS_ref"}
	ok, err = a.Passes(filtered)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMutectTCGA(t *testing.T) {
	v := &vcf.Variant{
		Chrom: "2", Pos: 9,
		Samples: []vcf.Sample{sample("NORMAL", nil), sample("TUMOR", map[string]string{"TD": "33,11"})},
	}
	ref, total, err := newAdapter(t, MutectTCGA, Options{}).ReadCounts(v)
	require.NoError(t, err)
	assert.Equal(t, 33, ref)
	assert.Equal(t, 44, total)
}

func TestMutectPCAWG(t *testing.T) {
	v := &vcf.Variant{
		Chrom: "2", Pos: 9,
		Samples: []vcf.Sample{sample("TUMOR", map[string]string{"ref_count": "18", "alt_count": "6"})},
	}
	ref, total, err := newAdapter(t, MutectPCAWG, Options{}).ReadCounts(v)
	require.NoError(t, err)
	assert.Equal(t, 18, ref)
	assert.Equal(t, 24, total)
}

func TestDKFZ(t *testing.T) {
	a := newAdapter(t, DKFZ, Options{})

	ref, total, err := a.ReadCounts(&vcf.Variant{Chrom: "4", Pos: 1, Info: map[string]string{"DP4": "10,12,4,5"}})
	require.NoError(t, err)
	assert.Equal(t, 22, ref)
	assert.Equal(t, 31, total)

	_, _, err = a.ReadCounts(&vcf.Variant{Chrom: "4", Pos: 1, Info: map[string]string{}})
	assert.ErrorIs(t, err, ErrReadCountsUnavailable)
}

func TestDefaultPasses(t *testing.T) {
	a := newAdapter(t, MutectSMCHET, Options{})

	ok, err := a.Passes(&vcf.Variant{Filter: "PASS"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Passes(&vcf.Variant{Filter: "REJECT"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestParseCount(t *testing.T) {
	v := &vcf.Variant{Chrom: "1", Pos: 1}

	n, err := parseCount(v, "DP", "12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	n, err = parseCount(v, "DP", "12.0")
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	_, err = parseCount(v, "DP", ".")
	assert.ErrorIs(t, err, ErrReadCountsUnavailable)

	_, err = parseCount(v, "DP", "12.5")
	require.Error(t, err)
}
