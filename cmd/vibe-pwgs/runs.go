package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-pwgs/internal/duckdb"
	"github.com/inodb/vibe-pwgs/internal/output"
	"github.com/inodb/vibe-pwgs/internal/ssm"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect runs exported with --duckdb",
		Example: `  vibe-pwgs runs list --duckdb runs.duckdb
  vibe-pwgs runs ssm --duckdb runs.duckdb <run-id> 17_7577120
  vibe-pwgs runs delete --duckdb runs.duckdb <run-id>`,
	}

	cmd.PersistentFlags().String("duckdb", "", "DuckDB database written by --duckdb")

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List exported runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *duckdb.Store) error {
				return runRunsList(cmd.OutOrStdout(), s)
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "ssm <run-id> <chrom>_<pos>",
		Short: "Show the exported read counts of one variant",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *duckdb.Store) error {
				return runRunsSSM(cmd.OutOrStdout(), s, args[0], args[1])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <run-id>",
		Short: "Delete an exported run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(s *duckdb.Store) error {
				if err := s.DeleteRun(args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
				return nil
			})
		},
	})

	return cmd
}

// withStore opens the database named by --duckdb (or the configured
// default) for the duration of fn.
func withStore(cmd *cobra.Command, fn func(*duckdb.Store) error) error {
	path, _ := cmd.Flags().GetString("duckdb")
	if path == "" {
		path = viper.GetString("duckdb")
	}
	if path == "" {
		return fmt.Errorf("--duckdb is required")
	}

	s, err := duckdb.Open(path)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func runRunsList(w io.Writer, s *duckdb.Store) error {
	runs, err := s.ListRuns()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tCREATED\tSSMS\tCNVS\tREAD_DEPTH\tCELLULARITY")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.SSMs, r.CNVs,
			output.FormatFloat(r.ReadDepth), output.FormatFloat(r.Cellularity))
	}
	return tw.Flush()
}

func runRunsSSM(w io.Writer, s *duckdb.Store, runID, name string) error {
	id, err := ssm.ParseID(name)
	if err != nil {
		return err
	}
	v, ok, err := s.LookupSSM(runID, id.Chrom, id.Pos)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("variant %s not found in run %s", id.Name(), runID)
	}

	sw := output.NewSSMWriter(w)
	if err := sw.WriteHeader(); err != nil {
		return err
	}
	if err := sw.Write(v); err != nil {
		return err
	}
	return sw.Flush()
}
