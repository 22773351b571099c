package caller

import (
	"fmt"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/inodb/vibe-pwgs/internal/vcf"
)

// Input is one VCF file tagged with the caller that produced it.
// Each input contributes one sample column.
type Input struct {
	Type Type
	Path string
}

// ParseInput parses a "<caller>=<path>" argument.
func ParseInput(arg string) (Input, error) {
	name, path, ok := strings.Cut(arg, "=")
	if !ok || path == "" {
		return Input{}, fmt.Errorf("invalid input %q: expected <caller>=<path>", arg)
	}
	t, err := ParseType(name)
	if err != nil {
		return Input{}, err
	}
	return Input{Type: t, Path: path}, nil
}

// WorkItem holds an input waiting for extraction.
type WorkItem struct {
	Seq   int
	Input Input
}

// WorkResult holds the calls extracted from one input.
type WorkResult struct {
	Seq   int
	Input Input
	Calls []Call
	Err   error
}

// ExtractAll extracts calls from every input using a pool of workers and
// returns them in input order. If workers is 0, runtime.NumCPU() is used.
func ExtractAll(inputs []Input, opts Options, workers int, logger *zap.Logger) ([][]Call, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Resolve all adapters up front so an unknown caller fails before any
	// file is read.
	adapters := make([]Adapter, len(inputs))
	for i, in := range inputs {
		a, err := New(in.Type, opts)
		if err != nil {
			return nil, err
		}
		adapters[i] = a
	}

	items := make(chan WorkItem, len(inputs))
	for i, in := range inputs {
		items <- WorkItem{Seq: i, Input: in}
	}
	close(items)

	results := parallelExtract(items, adapters, workers, logger)

	out := make([][]Call, 0, len(inputs))
	err := OrderedCollect(results, func(r WorkResult) error {
		if r.Err != nil {
			return fmt.Errorf("%s=%s: %w", r.Input.Type, r.Input.Path, r.Err)
		}
		logger.Info("parsed variants",
			zap.String("caller", string(r.Input.Type)),
			zap.String("path", r.Input.Path),
			zap.Int("calls", len(r.Calls)))
		out = append(out, r.Calls)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// parallelExtract extracts work items using a pool of workers.
// Results are sent to the returned channel in arrival order.
func parallelExtract(items <-chan WorkItem, adapters []Adapter, workers int, logger *zap.Logger) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				calls, err := extractFile(item.Input, adapters[item.Seq], logger)
				results <- WorkResult{
					Seq:   item.Seq,
					Input: item.Input,
					Calls: calls,
					Err:   err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func extractFile(in Input, a Adapter, logger *zap.Logger) ([]Call, error) {
	parser, err := vcf.NewParser(in.Path)
	if err != nil {
		return nil, err
	}
	defer parser.Close()

	l := logger.With(zap.String("path", in.Path))
	e := NewExtractor(a)
	e.SetLogger(l)

	calls, err := e.Extract(parser)
	if err != nil {
		return nil, err
	}
	if w := parser.Warnings(); w != nil {
		l.Warn("vcf warnings", zap.Error(w))
	}
	return calls, nil
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
