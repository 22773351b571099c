package ssm

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/brentp/xopen"
)

// PrioritySet holds variants to prefer when subsampling.
type PrioritySet map[ID]struct{}

// Contains reports whether id is prioritized. A nil set contains nothing.
func (p PrioritySet) Contains(id ID) bool {
	_, ok := p[id]
	return ok
}

// LoadPrioritySSMs reads a priority list with one "<chrom>_<pos>" label per
// line. An empty path yields an empty set.
func LoadPrioritySSMs(path string) (PrioritySet, error) {
	if path == "" {
		return PrioritySet{}, nil
	}

	f, err := xopen.Ropen(path)
	if err != nil {
		return nil, fmt.Errorf("open priority ssm file: %w", err)
	}
	defer f.Close()

	return ParsePrioritySSMs(f)
}

// ParsePrioritySSMs parses priority labels from r. Blank lines are skipped.
func ParsePrioritySSMs(r io.Reader) (PrioritySet, error) {
	set := make(PrioritySet)
	scanner := bufio.NewScanner(r)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		id, err := ParseID(text)
		if err != nil {
			return nil, fmt.Errorf("priority ssm line %d: %w", line, err)
		}
		set[id] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read priority ssms: %w", err)
	}

	return set, nil
}
