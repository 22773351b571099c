package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-pwgs/internal/cnv"
)

// CNVColumns is the header of the CNV table.
var CNVColumns = []string{"cnv", "a", "d", "ssms"}

// CNVWriter writes CNVs in the tab-delimited cnv_data.txt format.
type CNVWriter struct {
	w *bufio.Writer
}

// NewCNVWriter creates a new CNV table writer.
func NewCNVWriter(w io.Writer) *CNVWriter {
	return &CNVWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (cw *CNVWriter) WriteHeader() error {
	_, err := cw.w.WriteString(strings.Join(CNVColumns, "\t") + "\n")
	return err
}

// Write writes one CNV. Linked SSMs are written as "id,minor,major"
// triples joined by semicolons.
func (cw *CNVWriter) Write(c *cnv.CNV) error {
	links := make([]string, len(c.SSMs))
	for i, s := range c.SSMs {
		links[i] = s.ID + "," + s.MinorCN + "," + s.MajorCN
	}

	fields := []string{
		c.ID,
		strconv.Itoa(c.RefReads),
		strconv.Itoa(c.TotalReads),
		strings.Join(links, ";"),
	}
	_, err := cw.w.WriteString(strings.Join(fields, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (cw *CNVWriter) Flush() error {
	return cw.w.Flush()
}
