package cnv

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/brentp/xopen"

	"github.com/inodb/vibe-pwgs/internal/vcf"
)

// Required column names of a CNV region file.
const (
	ColChromosome         = "chromosome"
	ColStart              = "start"
	ColEnd                = "end"
	ColMajorCN            = "major_cn"
	ColMinorCN            = "minor_cn"
	ColCellularPrevalence = "cellular_prevalence"
)

// ColumnIndices holds the indices of the CNV columns.
type ColumnIndices struct {
	Chromosome         int
	Start              int
	End                int
	MajorCN            int
	MinorCN            int
	CellularPrevalence int
}

// Parser reads regions from a tab-delimited CNV file with a header row.
// Other columns are ignored.
type Parser struct {
	reader     *bufio.Reader
	closer     io.Closer
	lineNumber int
	columns    ColumnIndices
}

// NewParser opens a CNV file. Gzipped files are detected automatically.
func NewParser(path string) (*Parser, error) {
	f, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("open cnv file: %w", err)
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
	p := &Parser{
		reader: bufio.NewReader(r),
	}

	if err := p.parseHeader(); err != nil {
		return nil, err
	}

	return p, nil
}

// readLine returns the next non-empty, non-comment line.
func (p *Parser) readLine() (string, error) {
	for {
		line, err := p.reader.ReadString('\n')
		if err != nil && (err != io.EOF || line == "") {
			return "", err
		}
		p.lineNumber++

		line = strings.TrimRight(line, "\r\n")
		if line == "" || strings.HasPrefix(line, "#") {
			if err == io.EOF {
				return "", io.EOF
			}
			continue
		}
		return line, nil
	}
}

func (p *Parser) parseHeader() error {
	line, err := p.readLine()
	if err == io.EOF {
		return &ParseError{Line: p.lineNumber, Message: "no header line found"}
	}
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}

	p.columns = ColumnIndices{-1, -1, -1, -1, -1, -1}
	for i, col := range strings.Split(line, "\t") {
		switch strings.TrimSpace(col) {
		case ColChromosome:
			p.columns.Chromosome = i
		case ColStart:
			p.columns.Start = i
		case ColEnd:
			p.columns.End = i
		case ColMajorCN:
			p.columns.MajorCN = i
		case ColMinorCN:
			p.columns.MinorCN = i
		case ColCellularPrevalence:
			p.columns.CellularPrevalence = i
		}
	}

	required := []struct {
		name string
		idx  int
	}{
		{ColChromosome, p.columns.Chromosome},
		{ColStart, p.columns.Start},
		{ColEnd, p.columns.End},
		{ColMajorCN, p.columns.MajorCN},
		{ColMinorCN, p.columns.MinorCN},
		{ColCellularPrevalence, p.columns.CellularPrevalence},
	}
	for _, c := range required {
		if c.idx == -1 {
			return &ParseError{
				Line:    p.lineNumber,
				Message: fmt.Sprintf("required column '%s' not found in header", c.name),
			}
		}
	}

	return nil
}

// Next reads the next region. Returns nil, nil at end of file.
func (p *Parser) Next() (*Region, error) {
	line, err := p.readLine()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cnv line: %w", err)
	}

	fields := strings.Split(line, "\t")
	c := p.columns
	minCols := max(c.Chromosome, c.Start, c.End, c.MajorCN, c.MinorCN, c.CellularPrevalence)
	if len(fields) <= minCols {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("expected at least %d columns, found %d", minCols+1, len(fields)),
		}
	}

	r := &Region{Chrom: vcf.NormalizeChrom(fields[c.Chromosome])}
	if r.Start, err = p.parseInt(fields, c.Start, ColStart); err != nil {
		return nil, err
	}
	if r.End, err = p.parseInt(fields, c.End, ColEnd); err != nil {
		return nil, err
	}
	major, err := p.parseInt(fields, c.MajorCN, ColMajorCN)
	if err != nil {
		return nil, err
	}
	minor, err := p.parseInt(fields, c.MinorCN, ColMinorCN)
	if err != nil {
		return nil, err
	}
	r.MajorCN, r.MinorCN = int(major), int(minor)

	raw := strings.TrimSpace(fields[c.CellularPrevalence])
	r.CellularPrevalence, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid %s: %s", ColCellularPrevalence, raw),
		}
	}

	if r.End < r.Start {
		return nil, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("region end %d precedes start %d", r.End, r.Start),
		}
	}

	return r, nil
}

func (p *Parser) parseInt(fields []string, idx int, name string) (int64, error) {
	raw := strings.TrimSpace(fields[idx])
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &ParseError{
			Line:    p.lineNumber,
			Message: fmt.Sprintf("invalid %s: %s", name, raw),
		}
	}
	return n, nil
}

// Columns returns the parsed column indices.
func (p *Parser) Columns() ColumnIndices {
	return p.columns
}

// LineNumber returns the current line number being processed.
func (p *Parser) LineNumber() int {
	return p.lineNumber
}

// Close closes the parser and underlying file.
func (p *Parser) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}

// ReadRegions parses every region of a CNV file, grouped by chromosome and
// sorted by start.
func ReadRegions(path string) (Regions, error) {
	p, err := NewParser(path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	return collect(p)
}

func collect(p *Parser) (Regions, error) {
	regions := make(Regions)
	for {
		r, err := p.Next()
		if err != nil {
			return nil, err
		}
		if r == nil {
			break
		}
		regions[r.Chrom] = append(regions[r.Chrom], *r)
	}
	regions.Sort()
	return regions, nil
}

// ParseError represents an error during CNV parsing with line context.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cnv parse error at line %d: %s", e.Line, e.Message)
}
