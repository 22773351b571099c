// Package main provides the vibe-pwgs command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/inodb/vibe-pwgs/internal/caller"
	"github.com/inodb/vibe-pwgs/internal/pipeline"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const configName = ".vibe-pwgs"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
	os.Exit(ExitSuccess)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vibe-pwgs [flags] <caller>=<vcf> ...",
		Short: "Create PhyloWGS inputs from somatic VCFs and CNV calls",
		Long: `Create ssm_data.txt and cnv_data.txt for PhyloWGS.

Each positional argument names the caller that produced a VCF, for example
mutect_smchet=tumor.vcf.gz. Every VCF contributes one sample column.
Run "vibe-pwgs callers" for the supported caller keywords.`,
		Example: `  vibe-pwgs sanger=sample.vcf.gz
  vibe-pwgs --cnvs cnvs.txt -s 5000 dkfz=a.vcf mutect_smchet=b.vcf
  vibe-pwgs --cnvs cnvs.txt --only-normal-cn muse=sample.vcf`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(args)
		},
	}

	f := cmd.Flags()
	f.Float64P("error-rate", "e", pipeline.DefaultErrorRate, "Expected sequencing error rate")
	f.Float64("missing-variant-confidence", pipeline.DefaultMissingVariantConfidence,
		"Confidence in [0, 1] that a variant missing from a sample is truly absent")
	f.IntP("sample-size", "s", 0, "Subsample this many variants (0 keeps all)")
	f.StringP("priority-ssms", "P", "", "File of <chrom>_<pos> variants kept first when subsampling")
	f.String("cnvs", "", "CNV region file")
	f.Bool("only-normal-cn", false, "Only output variants in normal copy-number regions")
	f.String("output-cnvs", pipeline.DefaultOutputCNVs, "CNV output file")
	f.String("output-variants", pipeline.DefaultOutputVariants, "Variant output file")
	f.String("tumor-sample", "", "Tumor sample column name (default: last column)")
	f.Float64("cnv-confidence", pipeline.DefaultCNVConfidence, "Confidence in the CNV calls, scales CNV read counts")
	f.Int("read-length", pipeline.DefaultReadLength, "Approximate read length")
	f.Int("muse-tier", 0, "Highest MuSE tier accepted")
	f.String("nonsubsampled-variants", "", "Write variants left out by subsampling to this file")
	f.String("nonsubsampled-variants-cnvs", "", "Write CNVs of the nonsubsampled variants to this file")
	f.Int64("seed", 1, "Random seed for subsampling")
	f.Int("workers", 0, "Number of VCFs read in parallel (0 = all CPUs)")
	f.String("duckdb", "", "Export the run to this DuckDB database")
	f.BoolP("verbose", "v", false, "Log debug diagnostics")

	_ = viper.BindPFlags(f)

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newCallersCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newRunsCmd())

	return cmd
}

// initConfig reads ~/.vibe-pwgs.yaml and VIBE_PWGS_* environment variables.
func initConfig() error {
	viper.SetEnvPrefix("VIBE_PWGS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if viper.ConfigFileUsed() != "" {
		return nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	viper.SetConfigFile(filepath.Join(home, configName+".yaml"))
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// configFromViper builds the pipeline config from flags, config file and
// environment.
func configFromViper(args []string) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	for _, arg := range args {
		in, err := caller.ParseInput(arg)
		if err != nil {
			return cfg, err
		}
		cfg.Inputs = append(cfg.Inputs, in)
	}

	cfg.ErrorRate = viper.GetFloat64("error-rate")
	cfg.MissingVariantConfidence = viper.GetFloat64("missing-variant-confidence")
	cfg.CNVConfidence = viper.GetFloat64("cnv-confidence")
	cfg.ReadLength = viper.GetInt("read-length")
	cfg.SampleSize = viper.GetInt("sample-size")
	if viper.IsSet("sample-size") && cfg.SampleSize <= 0 {
		return cfg, fmt.Errorf("sample size must be positive, got %d", cfg.SampleSize)
	}
	cfg.Seed = viper.GetInt64("seed")
	cfg.Workers = viper.GetInt("workers")
	cfg.TumorSample = viper.GetString("tumor-sample")
	cfg.MuseTier = viper.GetInt("muse-tier")
	cfg.PrioritySSMs = viper.GetString("priority-ssms")
	cfg.CNVs = viper.GetString("cnvs")
	cfg.OnlyNormalCN = viper.GetBool("only-normal-cn")
	cfg.OutputVariants = viper.GetString("output-variants")
	cfg.OutputCNVs = viper.GetString("output-cnvs")
	cfg.NonsubsampledVariants = viper.GetString("nonsubsampled-variants")
	cfg.NonsubsampledVariantsCNVs = viper.GetString("nonsubsampled-variants-cnvs")
	cfg.DuckDB = viper.GetString("duckdb")

	return cfg, cfg.Validate()
}

func runPipeline(args []string) error {
	logger, err := newLogger(viper.GetBool("verbose"))
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := configFromViper(args)
	if err != nil {
		return err
	}

	res, runID, err := pipeline.Run(cfg, logger)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.Int("ssms", len(res.Subsampled)),
		zap.Int("cnvs", len(res.CNVs)),
		zap.Float64("read_depth", res.ReadDepth),
		zap.String("output_variants", cfg.OutputVariants),
		zap.String("output_cnvs", cfg.OutputCNVs),
	}
	if runID != "" {
		fields = append(fields, zap.String("run_id", runID))
	}
	logger.Info("done", fields...)
	return nil
}

// newLogger builds a console logger on stderr.
func newLogger(verbose bool) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.DisableCaller = !verbose
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "vibe-pwgs version %s (%s) built %s\n", version, commit, date)
		},
	}
}

func newCallersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "callers",
		Short: "List supported variant callers",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range caller.Types() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
		},
	}
}
