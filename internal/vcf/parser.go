// Package vcf reads somatic variant calls from VCF files.
package vcf

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/brentp/vcfgo"
	"github.com/brentp/xopen"
)

// Parser reads variants from a VCF file.
// Tokenizing is delegated to vcfgo; Parser converts its records into
// Variant values with raw INFO and FORMAT strings.
type Parser struct {
	reader      *vcfgo.Reader
	closer      io.Closer
	records     int
	sampleNames []string // sample names from #CHROM header line
	warnings    []error
}

// NewParser creates a new VCF parser for the given file.
// Supports both plain VCF and gzipped VCF (.vcf.gz) files, and "-" for stdin.
func NewParser(path string) (*Parser, error) {
	f, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("open vcf file: %w", err)
	}

	p, err := NewParserFromReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	p.closer = f

	return p, nil
}

// NewParserFromReader creates a parser from an io.Reader.
func NewParserFromReader(r io.Reader) (*Parser, error) {
	rdr, err := vcfgo.NewReader(r, false)
	if err != nil {
		return nil, &ParseError{Line: 0, Message: fmt.Sprintf("read header: %v", err)}
	}

	p := &Parser{reader: rdr}
	if rdr.Header != nil {
		p.sampleNames = rdr.Header.SampleNames
	}

	return p, nil
}

// Next reads the next variant from the VCF file.
// Returns nil, nil when there are no more variants. A record with too few
// columns or a non-numeric POS is a *ParseError.
func (p *Parser) Next() (*Variant, error) {
	v, err := p.read()
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	p.records++
	line := int(p.reader.LineNumber)

	if verr := p.reader.Error(); verr != nil {
		msg := verr.Error()
		p.reader.Clear()
		if strings.Contains(msg, "strconv.ParseUint") {
			return nil, &ParseError{Line: line, Message: "invalid POS: " + msg}
		}
		p.warnings = append(p.warnings, errors.New(msg))
	}

	if v.Chromosome == "" {
		return nil, &ParseError{
			Line:    line,
			Message: "record without chromosome",
		}
	}

	return convertVariant(v, p.sampleNames), nil
}

// read returns the next vcfgo record. vcfgo indexes the columns of a
// record without checking how many there are, so a truncated line panics.
func (p *Parser) read() (v *vcfgo.Variant, err error) {
	defer func() {
		if r := recover(); r != nil {
			v = nil
			err = &ParseError{
				Line:    int(p.reader.LineNumber),
				Message: fmt.Sprintf("malformed record, expected at least 8 columns: %v", r),
			}
		}
	}()
	return p.reader.Read(), nil
}

// convertVariant copies the fields of a vcfgo record into a Variant.
func convertVariant(v *vcfgo.Variant, names []string) *Variant {
	out := &Variant{
		Chrom:  v.Chromosome,
		Pos:    int64(v.Pos),
		Ref:    v.Reference,
		Alt:    v.Alternate,
		Filter: v.Filter,
		Info:   parseInfo(fmt.Sprint(v.Info())),
	}

	for i, s := range v.Samples {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		out.Samples = append(out.Samples, convertSample(name, v.Format, s))
	}

	return out
}

// convertSample collects the FORMAT values of one sample. vcfgo decodes a
// few well-known keys (GT, DP) into typed fields; those are rendered back to
// strings when they are not kept verbatim.
func convertSample(name string, format []string, s *vcfgo.SampleGenotype) Sample {
	out := Sample{Name: name, Fields: make(map[string]string, len(format))}
	if s == nil {
		return out
	}

	for k, v := range s.Fields {
		out.Fields[k] = v
	}

	for _, key := range format {
		if _, ok := out.Fields[key]; ok {
			continue
		}
		switch key {
		case "GT":
			out.Fields[key] = formatGenotype(s.GT, s.Phased)
		case "DP":
			if s.DP >= 0 {
				out.Fields[key] = strconv.Itoa(s.DP)
			}
		}
	}

	return out
}

// formatGenotype renders decoded allele indices as a GT string.
func formatGenotype(alleles []int, phased bool) string {
	if len(alleles) == 0 {
		return MissingValue
	}
	sep := "/"
	if phased {
		sep = "|"
	}
	parts := make([]string, len(alleles))
	for i, a := range alleles {
		if a < 0 {
			parts[i] = MissingValue
		} else {
			parts[i] = strconv.Itoa(a)
		}
	}
	return strings.Join(parts, sep)
}

// parseInfo parses the INFO field into a map.
func parseInfo(info string) map[string]string {
	result := make(map[string]string)
	info = strings.TrimSpace(info)
	if info == "" || info == MissingValue {
		return result
	}

	for _, kv := range strings.Split(info, ";") {
		if kv == "" {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) == 2 {
			result[parts[0]] = parts[1]
		} else {
			// Flag-type INFO field
			result[parts[0]] = ""
		}
	}

	return result
}

// SampleNames returns sample names from the #CHROM header line.
// Returns nil if no sample columns are present.
func (p *Parser) SampleNames() []string {
	return p.sampleNames
}

// Records returns the number of data records read so far.
func (p *Parser) Records() int {
	return p.records
}

// Warnings returns the non-fatal problems vcfgo reported while reading,
// such as FORMAT values that disagree with their header declaration.
func (p *Parser) Warnings() error {
	return errors.Join(p.warnings...)
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// ParseError represents an error during VCF parsing. Line is the line
// number in the file, header included.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vcf parse error at line %d: %s", e.Line, e.Message)
}
