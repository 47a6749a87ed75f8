package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"path/filepath"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/MehwishAlam/pgx/internal/refdata"
)

// Store serves imported tables as a reference source.
var _ refdata.Source = (*Store)(nil)

// replace swaps the rows of one gene in table for rows, using the Appender
// API, and records where the table came from.
func (s *Store) replace(ctx context.Context, kind refdata.Kind, gene, table string, rows [][]driver.Value, fp FileFingerprint, before func(*sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "DELETE FROM "+table+" WHERE gene=?", gene); err != nil {
		return fmt.Errorf("clear %s for %s: %w", table, gene, err)
	}
	if before != nil {
		if err := before(conn); err != nil {
			return err
		}
	}

	if len(rows) > 0 {
		var appender *goduckdb.Appender
		if err := conn.Raw(func(driverConn any) error {
			var err error
			appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", table)
			return err
		}); err != nil {
			return fmt.Errorf("create appender: %w", err)
		}

		for _, row := range rows {
			if err := appender.AppendRow(row...); err != nil {
				appender.Close()
				return fmt.Errorf("append %s row: %w", table, err)
			}
		}
		if err := appender.Close(); err != nil {
			return fmt.Errorf("flush %s: %w", table, err)
		}
	}

	return recordSource(ctx, conn, kind, gene, fp)
}

// PutAlleleDefinition stores t, replacing any earlier table for its gene.
func (s *Store) PutAlleleDefinition(ctx context.Context, t *refdata.AlleleDefinitionTable, fp FileFingerprint) error {
	rsids, err := json.Marshal(t.RSIDs())
	if err != nil {
		return fmt.Errorf("encode rsids: %w", err)
	}

	rows := make([][]driver.Value, 0, len(t.Stars()))
	for i, star := range t.Stars() {
		cells := make([]*string, len(t.RSIDs()))
		for pos := range cells {
			if c := t.Cell(i, pos); c.Valid {
				base := c.Base
				cells[pos] = &base
			}
		}
		data, err := json.Marshal(cells)
		if err != nil {
			return fmt.Errorf("encode cells of %s: %w", star, err)
		}
		rows = append(rows, []driver.Value{t.Gene, int32(i), star, string(data)})
	}

	return s.replace(ctx, refdata.KindAlleleDefinition, t.Gene, "allele_definitions", rows, fp,
		func(conn *sql.Conn) error {
			if _, err := conn.ExecContext(ctx, `DELETE FROM allele_positions WHERE gene=?`, t.Gene); err != nil {
				return fmt.Errorf("clear positions for %s: %w", t.Gene, err)
			}
			if _, err := conn.ExecContext(ctx,
				`INSERT INTO allele_positions (gene, rsids) VALUES (?, ?)`, t.Gene, string(rsids)); err != nil {
				return fmt.Errorf("store positions for %s: %w", t.Gene, err)
			}
			return nil
		})
}

// PutFunctions stores t, replacing any earlier table for its gene.
func (s *Store) PutFunctions(ctx context.Context, t *refdata.FunctionTable, fp FileFingerprint) error {
	var rows [][]driver.Value
	var encodeErr error
	t.EachFunction(func(star string, cols map[string]string) {
		data, err := json.Marshal(cols)
		if err != nil {
			encodeErr = err
			return
		}
		rows = append(rows, []driver.Value{t.Gene, star, t.Status(star), string(data)})
	})
	if encodeErr != nil {
		return fmt.Errorf("encode function columns: %w", encodeErr)
	}
	return s.replace(ctx, refdata.KindFunction, t.Gene, "allele_functions", rows, fp, nil)
}

// PutPhenotypes stores t, replacing any earlier table for its gene.
func (s *Store) PutPhenotypes(ctx context.Context, t *refdata.PhenotypeTable, fp FileFingerprint) error {
	var rows [][]driver.Value
	t.Each(func(diplotype string, e refdata.PhenotypeEntry) {
		rows = append(rows, []driver.Value{t.Gene, diplotype, e.Phenotype, e.ActivityScore, e.EHRPriority})
	})
	return s.replace(ctx, refdata.KindPhenotype, t.Gene, "diplotype_phenotypes", rows, fp, nil)
}

func notFound(kind refdata.Kind, gene string) error {
	return fmt.Errorf("%s table for %s: %w", kind, gene, refdata.ErrTableNotFound)
}

// AlleleDefinition implements refdata.Source.
func (s *Store) AlleleDefinition(ctx context.Context, gene string) (*refdata.AlleleDefinitionTable, error) {
	fp, ok, err := s.sourceOf(ctx, refdata.KindAlleleDefinition, gene)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(refdata.KindAlleleDefinition, gene)
	}

	var rsidsJSON string
	if err := s.db.QueryRowContext(ctx,
		`SELECT rsids FROM allele_positions WHERE gene=?`, gene).Scan(&rsidsJSON); err != nil {
		return nil, fmt.Errorf("query positions for %s: %w", gene, err)
	}
	var rsids []string
	if err := json.Unmarshal([]byte(rsidsJSON), &rsids); err != nil {
		return nil, fmt.Errorf("decode positions for %s: %w", gene, err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT star, cells FROM allele_definitions WHERE gene=? ORDER BY star_order`, gene)
	if err != nil {
		return nil, fmt.Errorf("query allele definitions for %s: %w", gene, err)
	}
	defer rows.Close()

	var stars []string
	var cells [][]refdata.Cell
	for rows.Next() {
		var star, cellsJSON string
		if err := rows.Scan(&star, &cellsJSON); err != nil {
			return nil, fmt.Errorf("scan allele definition: %w", err)
		}
		var raw []*string
		if err := json.Unmarshal([]byte(cellsJSON), &raw); err != nil {
			return nil, fmt.Errorf("decode cells of %s %s: %w", gene, star, err)
		}
		row := make([]refdata.Cell, len(raw))
		for i, b := range raw {
			if b != nil {
				row[i] = refdata.BaseCell(*b)
			}
		}
		stars = append(stars, star)
		cells = append(cells, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allele definitions: %w", err)
	}

	t, err := refdata.NewAlleleDefinitionTable(gene, rsids, stars, cells)
	if err != nil {
		return nil, err
	}
	t.Source = sourceName(fp)
	return t, nil
}

// Functions implements refdata.Source.
func (s *Store) Functions(ctx context.Context, gene string) (*refdata.FunctionTable, error) {
	fp, ok, err := s.sourceOf(ctx, refdata.KindFunction, gene)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(refdata.KindFunction, gene)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT star, columns FROM allele_functions WHERE gene=?`, gene)
	if err != nil {
		return nil, fmt.Errorf("query allele functions for %s: %w", gene, err)
	}
	defer rows.Close()

	entries := make(map[string]map[string]string)
	for rows.Next() {
		var star, colsJSON string
		if err := rows.Scan(&star, &colsJSON); err != nil {
			return nil, fmt.Errorf("scan allele function: %w", err)
		}
		var cols map[string]string
		if err := json.Unmarshal([]byte(colsJSON), &cols); err != nil {
			return nil, fmt.Errorf("decode columns of %s %s: %w", gene, star, err)
		}
		entries[star] = cols
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allele functions: %w", err)
	}

	t := refdata.NewFunctionTable(gene, entries)
	t.Source = sourceName(fp)
	return t, nil
}

// Phenotypes implements refdata.Source.
func (s *Store) Phenotypes(ctx context.Context, gene string) (*refdata.PhenotypeTable, error) {
	fp, ok, err := s.sourceOf(ctx, refdata.KindPhenotype, gene)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(refdata.KindPhenotype, gene)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT diplotype, phenotype, activity_score, ehr_priority
		FROM diplotype_phenotypes WHERE gene=?`, gene)
	if err != nil {
		return nil, fmt.Errorf("query diplotype phenotypes for %s: %w", gene, err)
	}
	defer rows.Close()

	entries := make(map[string]refdata.PhenotypeEntry)
	for rows.Next() {
		var diplotype string
		var e refdata.PhenotypeEntry
		if err := rows.Scan(&diplotype, &e.Phenotype, &e.ActivityScore, &e.EHRPriority); err != nil {
			return nil, fmt.Errorf("scan diplotype phenotype: %w", err)
		}
		entries[diplotype] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate diplotype phenotypes: %w", err)
	}

	t := refdata.NewPhenotypeTable(gene, entries)
	t.Source = sourceName(fp)
	return t, nil
}

// sourceName mirrors DirSource, which names tables after their file.
func sourceName(fp FileFingerprint) string {
	if fp.Path == "" {
		return ""
	}
	return filepath.Base(fp.Path)
}
