// Package output writes the PhyloWGS input tables.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-pwgs/internal/ssm"
)

// SSMColumns is the header of the variant table.
var SSMColumns = []string{"id", "gene", "a", "d", "mu_r", "mu_v"}

// SSMWriter writes SSMs in the tab-delimited ssm_data.txt format.
type SSMWriter struct {
	w *bufio.Writer
}

// NewSSMWriter creates a new variant table writer.
func NewSSMWriter(w io.Writer) *SSMWriter {
	return &SSMWriter{w: bufio.NewWriter(w)}
}

// WriteHeader writes the header line.
func (sw *SSMWriter) WriteHeader() error {
	_, err := sw.w.WriteString(strings.Join(SSMColumns, "\t") + "\n")
	return err
}

// Write writes one SSM. Per-sample read counts are comma-joined.
func (sw *SSMWriter) Write(s *ssm.SSM) error {
	fields := []string{
		s.ID,
		s.Name,
		JoinInts(s.RefReads),
		JoinInts(s.TotalReads),
		FormatFloat(s.MuR),
		FormatFloat(s.MuV),
	}
	_, err := sw.w.WriteString(strings.Join(fields, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (sw *SSMWriter) Flush() error {
	return sw.w.Flush()
}

// JoinInts renders read counts as a comma-separated list, one per sample.
func JoinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

// FormatFloat renders f with 12 significant digits, keeping a ".0" suffix
// on integral values (1.0, not 1).
func FormatFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', 12, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}
