package pipeline

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/inodb/vibe-pwgs/internal/caller"
	"github.com/inodb/vibe-pwgs/internal/cnv"
	"github.com/inodb/vibe-pwgs/internal/duckdb"
	"github.com/inodb/vibe-pwgs/internal/output"
	"github.com/inodb/vibe-pwgs/internal/ssm"
)

// Result holds the in-memory outcome of a run.
type Result struct {
	Counts            *ssm.Counts
	Subsampled        []ssm.SSM
	Nonsubsampled     []ssm.SSM
	CNVs              []cnv.CNV // linked to Subsampled
	NonsubsampledCNVs []cnv.CNV // linked to Nonsubsampled
	Excluded          []cnv.Exclusion
	ReadDepth         float64
	Cellularity       float64
}

// Build runs the pipeline without writing any files.
func Build(cfg Config, logger *zap.Logger) (*Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	calls, err := caller.ExtractAll(cfg.Inputs, cfg.CallerOptions(), cfg.Workers, logger)
	if err != nil {
		return nil, err
	}

	raw := ssm.Aggregate(calls)
	logger.Info("aggregated variants",
		zap.Int("variants", raw.Rows()),
		zap.Int("samples", raw.Samples()),
		zap.Int("missing_cells", raw.Missing()))

	imputer := ssm.NewImputer(cfg.MissingVariantConfidence)
	imputer.SetLogger(logger)
	counts, err := imputer.Impute(raw)
	if err != nil {
		return nil, err
	}

	res := &Result{Counts: counts, ReadDepth: counts.MeanDepth()}
	if counts.Len() == 0 {
		logger.Info("no variants available, using default read depth", zap.Float64("read_depth", res.ReadDepth))
	}

	rows := make([]int, counts.Len())
	for i := range rows {
		rows[i] = i
	}

	var rec *cnv.Reconciler
	if cfg.CNVs != "" {
		regions, err := cnv.ReadRegions(cfg.CNVs)
		if err != nil {
			return nil, err
		}
		rec = cnv.NewReconciler(regions)
		rec.SetLogger(logger)
		res.Cellularity = rec.Cellularity()
		logger.Info("parsed cnv regions",
			zap.Int("regions", regions.Len()),
			zap.Float64("cellularity", res.Cellularity))

		if cfg.OnlyNormalCN {
			rows, res.Excluded = rec.RetainNormalCN(counts.IDs, rows)
		} else {
			rows, res.Excluded, err = rec.ExcludeSubclonal(counts.IDs, rows)
			if err != nil {
				return nil, err
			}
		}
	}

	priority, err := ssm.LoadPrioritySSMs(cfg.PrioritySSMs)
	if err != nil {
		return nil, err
	}

	subRows, restRows := ssm.Subsample(counts.IDs, rows, cfg.SampleSize, priority, cfg.Seed)
	f := ssm.NewFormatter(cfg.ErrorRate)
	res.Subsampled = f.Format(counts, subRows)
	res.Nonsubsampled = f.Format(counts, restRows)
	logger.Info("formatted ssms",
		zap.Int("subsampled", len(res.Subsampled)),
		zap.Int("nonsubsampled", len(res.Nonsubsampled)))

	if cfg.WritesCNVs() {
		abnormal, err := rec.AbnormalRegions()
		if err != nil {
			return nil, err
		}
		cf := cnv.NewFormatter(cfg.CNVConfidence, rec.Cellularity(), res.ReadDepth, cfg.ReadLength)
		cf.SetLogger(logger)
		res.CNVs = cf.FormatAndMerge(abnormal, res.Subsampled)
		if cfg.NonsubsampledVariants != "" && cfg.NonsubsampledVariantsCNVs != "" {
			res.NonsubsampledCNVs = cf.FormatAndMerge(abnormal, res.Nonsubsampled)
		}
		logger.Info("formatted cnvs", zap.Int("cnvs", len(res.CNVs)))
	}

	return res, nil
}

// Write writes the output tables of res. The CNV table is left empty when
// no CNVs are reported.
func Write(res *Result, cfg Config) error {
	if err := output.WriteSSMFile(cfg.OutputVariants, res.Subsampled); err != nil {
		return err
	}
	if cfg.NonsubsampledVariants != "" {
		if err := output.WriteSSMFile(cfg.NonsubsampledVariants, res.Nonsubsampled); err != nil {
			return err
		}
	}

	if !cfg.WritesCNVs() {
		return output.WriteEmptyFile(cfg.OutputCNVs)
	}
	if err := output.WriteCNVFile(cfg.OutputCNVs, res.CNVs); err != nil {
		return err
	}
	if cfg.NonsubsampledVariants != "" && cfg.NonsubsampledVariantsCNVs != "" {
		if err := output.WriteCNVFile(cfg.NonsubsampledVariantsCNVs, res.NonsubsampledCNVs); err != nil {
			return err
		}
	}
	return nil
}

// Run builds and writes the outputs, then exports the run to DuckDB when
// cfg.DuckDB is set. It returns the result and the export run id.
func Run(cfg Config, logger *zap.Logger) (*Result, string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	res, err := Build(cfg, logger)
	if err != nil {
		return nil, "", err
	}
	if err := Write(res, cfg); err != nil {
		return nil, "", err
	}

	if cfg.DuckDB == "" {
		return res, "", nil
	}
	runID, err := Export(res, cfg)
	if err != nil {
		return nil, "", err
	}
	logger.Info("exported run", zap.String("run_id", runID), zap.String("duckdb", cfg.DuckDB))
	return res, runID, nil
}

// Export stores res in the DuckDB database at cfg.DuckDB.
func Export(res *Result, cfg Config) (string, error) {
	store, err := duckdb.Open(cfg.DuckDB)
	if err != nil {
		return "", err
	}
	defer store.Close()

	run := duckdb.Run{
		ReadDepth:                res.ReadDepth,
		Cellularity:              res.Cellularity,
		ErrorRate:                cfg.ErrorRate,
		MissingVariantConfidence: cfg.MissingVariantConfidence,
		CNVConfidence:            cfg.CNVConfidence,
		ReadLength:               cfg.ReadLength,
		SampleSize:               cfg.SampleSize,
		Seed:                     cfg.Seed,
	}
	for _, in := range cfg.Inputs {
		f, err := duckdb.StatInput(string(in.Type), in.Path)
		if err != nil {
			return "", fmt.Errorf("stat input: %w", err)
		}
		run.Inputs = append(run.Inputs, f)
	}

	return store.WriteRun(duckdb.RunData{
		Run:               run,
		Subsampled:        res.Subsampled,
		Nonsubsampled:     res.Nonsubsampled,
		CNVs:              res.CNVs,
		NonsubsampledCNVs: res.NonsubsampledCNVs,
	})
}
