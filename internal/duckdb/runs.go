package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-pwgs/internal/cnv"
	"github.com/inodb/vibe-pwgs/internal/output"
	"github.com/inodb/vibe-pwgs/internal/ssm"
)

// Variant groups of a run.
const (
	GroupSubsampled    = "subsampled"
	GroupNonsubsampled = "nonsubsampled"
)

// Run describes one pipeline invocation.
type Run struct {
	ID                       string
	CreatedAt                time.Time
	ReadDepth                float64
	Cellularity              float64
	ErrorRate                float64
	MissingVariantConfidence float64
	CNVConfidence            float64
	ReadLength               int
	SampleSize               int
	Seed                     int64
	Inputs                   []InputFile
}

// RunData is everything exported for a run.
type RunData struct {
	Run               Run
	Subsampled        []ssm.SSM
	Nonsubsampled     []ssm.SSM
	CNVs              []cnv.CNV
	NonsubsampledCNVs []cnv.CNV
}

// WriteRun stores a run with its inputs, SSMs and CNVs and returns the run
// id. A new UUID is assigned when data.Run.ID is empty.
func (s *Store) WriteRun(data RunData) (string, error) {
	run := data.Run
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	if _, err := s.db.Exec(`INSERT INTO runs VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt, run.ReadDepth, run.Cellularity, run.ErrorRate,
		run.MissingVariantConfidence, run.CNVConfidence,
		int64(run.ReadLength), int64(run.SampleSize), run.Seed,
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, in := range run.Inputs {
		if _, err := s.db.Exec(`INSERT INTO inputs VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, int64(i), in.Caller, in.Path, in.Size, in.ModTime,
		); err != nil {
			return "", fmt.Errorf("insert input %s: %w", in.Path, err)
		}
	}

	if err := s.appendSSMs(run.ID, data.Subsampled, data.Nonsubsampled); err != nil {
		return "", err
	}
	if err := s.appendCNVs(run.ID, data.CNVs, data.NonsubsampledCNVs); err != nil {
		return "", err
	}

	return run.ID, nil
}

// withAppender runs fn with an appender on table.
func (s *Store) withAppender(table string, fn func(*goduckdb.Appender) error) error {
	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
		return err
	}); err != nil {
		return fmt.Errorf("create %s appender: %w", table, err)
	}
	defer appender.Close()

	if err := fn(appender); err != nil {
		return err
	}
	return appender.Flush()
}

func (s *Store) appendSSMs(runID string, subsampled, nonsubsampled []ssm.SSM) error {
	if len(subsampled)+len(nonsubsampled) == 0 {
		return nil
	}

	return s.withAppender("ssms", func(a *goduckdb.Appender) error {
		for _, group := range []struct {
			ssms       []ssm.SSM
			subsampled bool
		}{{subsampled, true}, {nonsubsampled, false}} {
			for _, v := range group.ssms {
				if err := a.AppendRow(
					runID, v.ID, v.Chrom, v.Pos, group.subsampled,
					output.JoinInts(v.RefReads), output.JoinInts(v.TotalReads), v.MuR, v.MuV,
				); err != nil {
					return fmt.Errorf("append ssm %s: %w", v.ID, err)
				}
			}
		}
		return nil
	})
}

func (s *Store) appendCNVs(runID string, cnvs, nonsubsampled []cnv.CNV) error {
	if len(cnvs)+len(nonsubsampled) == 0 {
		return nil
	}

	return s.withAppender("cnvs", func(a *goduckdb.Appender) error {
		for _, group := range []struct {
			name string
			cnvs []cnv.CNV
		}{{GroupSubsampled, cnvs}, {GroupNonsubsampled, nonsubsampled}} {
			for _, c := range group.cnvs {
				links := make([]string, len(c.SSMs))
				for i, l := range c.SSMs {
					links[i] = l.ID + "," + l.MinorCN + "," + l.MajorCN
				}
				if err := a.AppendRow(
					runID, group.name, c.ID, c.Chrom, c.Start, c.End,
					int64(c.MajorCN), int64(c.MinorCN), c.CellularPrevalence,
					int64(c.RefReads), int64(c.TotalReads),
					strings.Join(links, ";"), strings.Join(c.MergedFrom, ";"),
				); err != nil {
					return fmt.Errorf("append cnv %s: %w", c.ID, err)
				}
			}
		}
		return nil
	})
}

// RunSummary is one row of ListRuns.
type RunSummary struct {
	ID          string
	CreatedAt   time.Time
	SSMs        int64
	CNVs        int64
	ReadDepth   float64
	Cellularity float64
}

// ListRuns returns all stored runs, oldest first.
func (s *Store) ListRuns() ([]RunSummary, error) {
	rows, err := s.db.Query(`SELECT
		r.run_id, r.created_at, r.read_depth, r.cellularity,
		(SELECT count(*) FROM ssms s WHERE s.run_id = r.run_id),
		(SELECT count(*) FROM cnvs c WHERE c.run_id = r.run_id)
		FROM runs r
		ORDER BY r.created_at, r.run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.ReadDepth, &r.Cellularity, &r.SSMs, &r.CNVs); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// LookupSSM returns the exported SSM of a run at chrom:pos.
func (s *Store) LookupSSM(runID, chrom string, pos int64) (*ssm.SSM, bool, error) {
	rows, err := s.db.Query(`SELECT ssm_id, ref_reads, total_reads, mu_r, mu_v
		FROM ssms WHERE run_id=? AND chrom=? AND pos=?`, runID, chrom, pos)
	if err != nil {
		return nil, false, fmt.Errorf("query ssm: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, false, rows.Err()
	}

	v := &ssm.SSM{Chrom: chrom, Pos: pos, Name: ssm.ID{Chrom: chrom, Pos: pos}.Name()}
	var ref, total string
	if err := rows.Scan(&v.ID, &ref, &total, &v.MuR, &v.MuV); err != nil {
		return nil, false, fmt.Errorf("scan ssm: %w", err)
	}
	if v.RefReads, err = splitInts(ref); err != nil {
		return nil, false, err
	}
	if v.TotalReads, err = splitInts(total); err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func splitInts(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("parse read counts %q: %w", s, err)
		}
		out[i] = n
	}
	return out, nil
}

// DeleteRun removes a run and all of its rows.
func (s *Store) DeleteRun(runID string) error {
	for _, table := range []string{"cnvs", "ssms", "inputs", "runs"} {
		if _, err := s.db.Exec("DELETE FROM "+table+" WHERE run_id=?", runID); err != nil {
			return fmt.Errorf("delete from %s: %w", table, err)
		}
	}
	return nil
}
