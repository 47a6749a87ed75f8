package duckdb

import (
	"context"
	"fmt"

	"github.com/MehwishAlam/pgx/internal/refdata"
)

// ImportStats counts the tables handled by ImportDir.
type ImportStats struct {
	Imported int
	Skipped  int // unchanged since the last import
}

// ImportDir loads every table found under src into the store. Files whose
// size and modification time match the last import are skipped.
func (s *Store) ImportDir(ctx context.Context, src *refdata.DirSource) (ImportStats, error) {
	var stats ImportStats

	for _, kind := range []refdata.Kind{refdata.KindAlleleDefinition, refdata.KindFunction, refdata.KindPhenotype} {
		genes, err := src.Genes(kind)
		if err != nil {
			return stats, err
		}

		for _, gene := range genes {
			if err := ctx.Err(); err != nil {
				return stats, err
			}

			fp, err := StatFile(src.Path(kind, gene))
			if err != nil {
				return stats, fmt.Errorf("stat %s table for %s: %w", kind, gene, err)
			}
			fresh, err := s.Fresh(ctx, kind, gene, fp)
			if err != nil {
				return stats, err
			}
			if fresh {
				stats.Skipped++
				continue
			}

			if err := s.importTable(ctx, src, kind, gene, fp); err != nil {
				return stats, err
			}
			stats.Imported++
		}
	}

	return stats, nil
}

func (s *Store) importTable(ctx context.Context, src refdata.Source, kind refdata.Kind, gene string, fp FileFingerprint) error {
	switch kind {
	case refdata.KindAlleleDefinition:
		t, err := src.AlleleDefinition(ctx, gene)
		if err != nil {
			return err
		}
		return s.PutAlleleDefinition(ctx, t, fp)
	case refdata.KindFunction:
		t, err := src.Functions(ctx, gene)
		if err != nil {
			return err
		}
		return s.PutFunctions(ctx, t, fp)
	case refdata.KindPhenotype:
		t, err := src.Phenotypes(ctx, gene)
		if err != nil {
			return err
		}
		return s.PutPhenotypes(ctx, t, fp)
	}
	return fmt.Errorf("unknown table kind %s", kind)
}
