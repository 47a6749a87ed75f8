package main

import (
	"go.uber.org/zap"

	"github.com/MehwishAlam/pgx/internal/config"
	"github.com/MehwishAlam/pgx/internal/duckdb"
	"github.com/MehwishAlam/pgx/internal/refdata"
)

// tableSource is the reference source selected by the configuration.
type tableSource struct {
	refdata.Source
	cache *refdata.CachedSource
	store *duckdb.Store
}

// openSource serves tables from the DuckDB store when tables.duckdb is set,
// and from the JSON folders otherwise. A positive cache size adds an LRU layer.
func openSource(cfg *config.Config, logger *zap.Logger) (*tableSource, error) {
	ts := &tableSource{}

	if cfg.Tables.DuckDB != "" {
		store, err := duckdb.Open(cfg.Tables.DuckDB)
		if err != nil {
			return nil, err
		}
		logger.Debug("using reference store", zap.String("path", cfg.Tables.DuckDB))
		ts.store = store
		ts.Source = store
	} else {
		logger.Debug("using reference folders",
			zap.String("allele_definition", cfg.Tables.AlleleDefinition),
			zap.String("allele_function", cfg.Tables.Function),
			zap.String("diplotype_phenotype", cfg.Tables.Phenotype))
		ts.Source = refdata.NewDirSource(cfg.Tables.Dirs)
	}

	if cfg.Tables.CacheSize > 0 {
		cached, err := refdata.NewCachedSource(ts.Source, cfg.Tables.CacheSize)
		if err != nil {
			ts.Close()
			return nil, err
		}
		ts.cache = cached
		ts.Source = cached
	}

	return ts, nil
}

// Close releases the DuckDB connection, if any.
func (ts *tableSource) Close() error {
	if ts.store != nil {
		return ts.store.Close()
	}
	return nil
}

func (ts *tableSource) logStats(logger *zap.Logger) {
	if ts.cache == nil {
		return
	}
	st := ts.cache.Stats()
	logger.Debug("table cache",
		zap.Int64("hits", st.Hits),
		zap.Int64("misses", st.Misses),
		zap.Int("entries", st.Len))
}
