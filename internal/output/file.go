package output

import (
	"fmt"
	"os"

	"github.com/inodb/vibe-pwgs/internal/cnv"
	"github.com/inodb/vibe-pwgs/internal/ssm"
)

// WriteSSMFile writes a complete variant table to path.
func WriteSSMFile(path string, ssms []ssm.SSM) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create ssm file: %w", err)
	}

	w := NewSSMWriter(f)
	if err := w.WriteHeader(); err != nil {
		f.Close()
		return fmt.Errorf("write ssm header: %w", err)
	}
	for i := range ssms {
		if err := w.Write(&ssms[i]); err != nil {
			f.Close()
			return fmt.Errorf("write ssm %s: %w", ssms[i].ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush ssm file: %w", err)
	}
	return f.Close()
}

// WriteCNVFile writes a complete CNV table to path.
func WriteCNVFile(path string, cnvs []cnv.CNV) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cnv file: %w", err)
	}

	w := NewCNVWriter(f)
	if err := w.WriteHeader(); err != nil {
		f.Close()
		return fmt.Errorf("write cnv header: %w", err)
	}
	for i := range cnvs {
		if err := w.Write(&cnvs[i]); err != nil {
			f.Close()
			return fmt.Errorf("write cnv %s: %w", cnvs[i].ID, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush cnv file: %w", err)
	}
	return f.Close()
}

// WriteEmptyFile creates or truncates path to zero bytes. It stands in for
// the CNV table when no CNVs are reported.
func WriteEmptyFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	return f.Close()
}
