package duckdb

import (
	"os"
	"time"
)

// InputFile identifies one VCF of a run by path and on-disk state.
type InputFile struct {
	Caller  string
	Path    string
	Size    int64
	ModTime time.Time
}

// StatInput records the size and modification time of a caller's VCF.
// Standard input ("-") is recorded without file state.
func StatInput(caller, path string) (InputFile, error) {
	if path == "-" {
		return InputFile{Caller: caller, Path: path}, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return InputFile{}, err
	}
	return InputFile{
		Caller:  caller,
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}, nil
}
