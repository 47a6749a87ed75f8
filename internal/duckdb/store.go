// Package duckdb stores pharmacogenomic reference tables in DuckDB so that
// reports can be produced without re-parsing the JSON exports each run.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection holding imported reference tables.
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

// Path returns the database file, or "" for an in-memory store.
func (s *Store) Path() string {
	return s.path
}

// ensureSchema creates tables if they don't exist.
// Cells and columns hold JSON text; a null cell is a position the star
// allele does not define.
func (s *Store) ensureSchema() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS allele_positions (
			gene VARCHAR PRIMARY KEY,
			rsids VARCHAR
		)`,
		`CREATE TABLE IF NOT EXISTS allele_definitions (
			gene VARCHAR,
			star_order INTEGER,
			star VARCHAR,
			cells VARCHAR,
			PRIMARY KEY (gene, star_order)
		)`,
		`CREATE TABLE IF NOT EXISTS allele_functions (
			gene VARCHAR,
			star VARCHAR,
			status VARCHAR,
			columns VARCHAR,
			PRIMARY KEY (gene, star)
		)`,
		`CREATE TABLE IF NOT EXISTS diplotype_phenotypes (
			gene VARCHAR,
			diplotype VARCHAR,
			phenotype VARCHAR,
			activity_score VARCHAR,
			ehr_priority VARCHAR,
			PRIMARY KEY (gene, diplotype)
		)`,
		`CREATE TABLE IF NOT EXISTS table_sources (
			kind INTEGER,
			gene VARCHAR,
			path VARCHAR,
			size BIGINT,
			mod_time VARCHAR,
			PRIMARY KEY (kind, gene)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
