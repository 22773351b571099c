// Package duckdb exports pipeline runs to a DuckDB database so that the
// formatted SSMs and CNVs of several runs can be queried side by side.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding exported runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Path returns the database path, empty for in-memory databases.
func (s *Store) Path() string {
	return s.path
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
		run_id VARCHAR PRIMARY KEY,
		created_at TIMESTAMP,
		read_depth DOUBLE,
		cellularity DOUBLE,
		error_rate DOUBLE,
		missing_variant_confidence DOUBLE,
		cnv_confidence DOUBLE,
		read_length BIGINT,
		sample_size BIGINT,
		seed BIGINT
	)`,
	`CREATE TABLE IF NOT EXISTS inputs (
		run_id VARCHAR,
		sample BIGINT,
		caller VARCHAR,
		path VARCHAR,
		size BIGINT,
		mod_time TIMESTAMP,
		PRIMARY KEY (run_id, sample)
	)`,
	`CREATE TABLE IF NOT EXISTS ssms (
		run_id VARCHAR,
		ssm_id VARCHAR,
		chrom VARCHAR,
		pos BIGINT,
		subsampled BOOLEAN,
		ref_reads VARCHAR,
		total_reads VARCHAR,
		mu_r DOUBLE,
		mu_v DOUBLE,
		PRIMARY KEY (run_id, ssm_id)
	)`,
	`CREATE TABLE IF NOT EXISTS cnvs (
		run_id VARCHAR,
		variant_group VARCHAR,
		cnv_id VARCHAR,
		chrom VARCHAR,
		start_pos BIGINT,
		end_pos BIGINT,
		major_cn BIGINT,
		minor_cn BIGINT,
		cellular_prevalence DOUBLE,
		ref_reads BIGINT,
		total_reads BIGINT,
		ssms VARCHAR,
		merged_from VARCHAR,
		PRIMARY KEY (run_id, variant_group, cnv_id)
	)`,
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
