package refdata

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"
)

// Preload fetches every table kind for genes from src with at most limit
// concurrent loads, warming a CachedSource before a batch of runs.
// Missing tables are skipped; any other error cancels the remaining loads.
func Preload(ctx context.Context, src Source, genes []string, limit int) error {
	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}

	for _, gene := range genes {
		g.Go(func() error {
			if _, err := src.AlleleDefinition(ctx, gene); err != nil && !errors.Is(err, ErrTableNotFound) {
				return err
			}
			if _, err := src.Functions(ctx, gene); err != nil && !errors.Is(err, ErrTableNotFound) {
				return err
			}
			if _, err := src.Phenotypes(ctx, gene); err != nil && !errors.Is(err, ErrTableNotFound) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}
