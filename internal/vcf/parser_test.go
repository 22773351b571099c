package vcf

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brentp/vcfgo"
)

func TestParser_MutectSmchet(t *testing.T) {
	testFile := findTestFile(t, "mutect_smchet.vcf")

	parser, err := NewParser(testFile)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	names := parser.SampleNames()
	if len(names) != 2 || names[1] != "TUMOR" {
		t.Fatalf("Unexpected sample names: %v", names)
	}

	v, err := parser.Next()
	if err != nil {
		t.Fatalf("Failed to read variant: %v", err)
	}
	if v == nil {
		t.Fatal("Expected a variant, got nil")
	}

	if v.Chrom != "chr1" {
		t.Errorf("Expected chrom chr1, got %s", v.Chrom)
	}
	if v.NormalizeChrom() != "1" {
		t.Errorf("Expected normalized chrom 1, got %s", v.NormalizeChrom())
	}
	if v.Pos != 1000 {
		t.Errorf("Expected pos 1000, got %d", v.Pos)
	}
	if v.Ref != "A" || v.FirstAlt() != "G" {
		t.Errorf("Expected A>G, got %s>%s", v.Ref, v.FirstAlt())
	}
	if len(v.Filters()) != 0 {
		t.Errorf("Expected PASS record, got filters %v", v.Filters())
	}
	if _, ok := v.Info["SOMATIC"]; !ok {
		t.Error("Expected SOMATIC flag in INFO")
	}
	if len(v.Samples) != 2 {
		t.Fatalf("Expected 2 samples, got %d", len(v.Samples))
	}
	if ad, ok := v.Samples[1].Get("AD"); !ok || ad != "30,10" {
		t.Errorf("Expected tumor AD 30,10, got %q", ad)
	}
	if v.Samples[1].Name != "TUMOR" {
		t.Errorf("Expected sample name TUMOR, got %s", v.Samples[1].Name)
	}

	count := 1
	for {
		v, err := parser.Next()
		if err != nil {
			t.Fatalf("Error reading variant: %v", err)
		}
		if v == nil {
			break
		}
		count++
	}

	if count != 4 {
		t.Errorf("Expected 4 variants, got %d", count)
	}
	if parser.Records() != 4 {
		t.Errorf("Expected Records() = 4, got %d", parser.Records())
	}
}

func TestParser_MissingFile(t *testing.T) {
	if _, err := NewParser(filepath.Join(t.TempDir(), "absent.vcf")); err == nil {
		t.Fatal("Expected error for missing file")
	}
}

func TestParseInfo(t *testing.T) {
	info := parseInfo("t_alt_count=10;t_ref_count=30;SOMATIC;DP4=1,2,3,4")

	if info["t_alt_count"] != "10" || info["t_ref_count"] != "30" {
		t.Errorf("Unexpected counts: %v", info)
	}
	if v, ok := info["SOMATIC"]; !ok || v != "" {
		t.Errorf("Expected SOMATIC flag, got %q (%v)", v, ok)
	}
	if info["DP4"] != "1,2,3,4" {
		t.Errorf("Unexpected DP4: %q", info["DP4"])
	}

	if len(parseInfo(".")) != 0 {
		t.Error("Expected empty INFO for '.'")
	}
}

func TestConvertSample(t *testing.T) {
	s := &vcfgo.SampleGenotype{
		GT:     []int{0, 1},
		DP:     40,
		Fields: map[string]string{"AD": "30,10"},
	}

	got := convertSample("TUMOR", []string{"GT", "AD", "DP"}, s)

	if got.Fields["AD"] != "30,10" {
		t.Errorf("AD = %q", got.Fields["AD"])
	}
	if gt, ok := got.Get("GT"); !ok || gt != "0/1" {
		t.Errorf("GT = %q", gt)
	}
	if dp, ok := got.Get("DP"); !ok || dp != "40" {
		t.Errorf("DP = %q", dp)
	}

	empty := convertSample("NORMAL", []string{"GT"}, nil)
	if len(empty.Fields) != 0 {
		t.Errorf("Expected no fields for nil genotype, got %v", empty.Fields)
	}
}

func TestFormatGenotype(t *testing.T) {
	tests := []struct {
		name    string
		alleles []int
		phased  bool
		want    string
	}{
		{"het", []int{0, 1}, false, "0/1"},
		{"phased", []int{1, 0}, true, "1|0"},
		{"missing allele", []int{-1, -1}, false, "./."},
		{"none", nil, false, "."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatGenotype(tt.alleles, tt.phased); got != tt.want {
				t.Errorf("formatGenotype() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	err := &ParseError{
		Line:    42,
		Message: "record without chromosome",
	}

	expected := "vcf parse error at line 42: record without chromosome"
	if err.Error() != expected {
		t.Errorf("Error message mismatch: got %q, want %q", err.Error(), expected)
	}
}

const malformedHeader = `##fileformat=VCFv4.1
##FORMAT=<ID=AD,Number=R,Type=Integer,Description="Allelic depths">
#CHROM	POS	ID	REF	ALT	QUAL	FILTER	INFO	FORMAT	TUMOR
chr1	100	.	A	G	50	PASS	.	AD	30,10
`

func TestParser_MalformedRecords(t *testing.T) {
	tests := []struct {
		name     string
		record   string
		wantLine int
		wantMsg  string
	}{
		{"truncated line", "chr1\t200\t.\tA\n", 5, "at least 8 columns"},
		{"truncated without newline", "chr1\t200", 5, "at least 8 columns"},
		{"non-numeric position", "chr1\tabc\t.\tA\tG\t50\tPASS\t.\tAD\t30,10\n", 5, "invalid POS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parser, err := NewParserFromReader(strings.NewReader(malformedHeader + tt.record))
			if err != nil {
				t.Fatalf("Failed to create parser: %v", err)
			}
			defer parser.Close()

			v, err := parser.Next()
			if err != nil || v == nil || v.Pos != 100 {
				t.Fatalf("Expected first record at 100, got %v, %v", v, err)
			}

			v, err = parser.Next()
			if v != nil {
				t.Errorf("Expected no variant, got %+v", v)
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Expected *ParseError, got %v", err)
			}
			if perr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", perr.Line, tt.wantLine)
			}
			if !strings.Contains(perr.Message, tt.wantMsg) {
				t.Errorf("Message %q does not contain %q", perr.Message, tt.wantMsg)
			}
		})
	}
}

func TestParser_WarningsAreNotFatal(t *testing.T) {
	input := malformedHeader + "chr1\t300\t.\tC\tT\tbad\tPASS\t.\tAD\t5,5\n"
	parser, err := NewParserFromReader(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	for i := 0; i < 2; i++ {
		if _, err := parser.Next(); err != nil {
			t.Fatalf("Record %d: unexpected error %v", i, err)
		}
	}
	if parser.Warnings() == nil {
		t.Error("Expected a warning for the non-numeric QUAL")
	}
	if v, err := parser.Next(); v != nil || err != nil {
		t.Errorf("Expected end of input, got %v, %v", v, err)
	}
}

// findTestFile locates a test file in the testdata directory.
func findTestFile(t *testing.T, name string) string {
	t.Helper()

	paths := []string{
		filepath.Join("testdata", name),
		filepath.Join("..", "..", "testdata", name),
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	t.Fatalf("Test file not found: %s", name)
	return ""
}
