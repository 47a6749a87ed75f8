package refdata

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of tables kept by a CachedSource.
const DefaultCacheSize = 256

type cacheKey struct {
	kind Kind
	gene string
}

// CachedSource keeps recently used tables of an underlying Source in an LRU
// cache so repeated runs do not reload them. Missing tables are not cached.
// It is safe for concurrent use.
type CachedSource struct {
	src    Source
	tables *lru.Cache[cacheKey, any]

	hits   atomic.Int64
	misses atomic.Int64
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits   int64
	Misses int64
	Len    int
}

// NewCachedSource wraps src with an LRU cache of size tables (DefaultCacheSize if size <= 0).
func NewCachedSource(src Source, size int) (*CachedSource, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	tables, err := lru.New[cacheKey, any](size)
	if err != nil {
		return nil, fmt.Errorf("create table cache: %w", err)
	}
	return &CachedSource{src: src, tables: tables}, nil
}

func (c *CachedSource) AlleleDefinition(ctx context.Context, gene string) (*AlleleDefinitionTable, error) {
	v, err := c.get(KindAlleleDefinition, gene, func() (any, error) {
		return c.src.AlleleDefinition(ctx, gene)
	})
	if err != nil {
		return nil, err
	}
	return v.(*AlleleDefinitionTable), nil
}

func (c *CachedSource) Functions(ctx context.Context, gene string) (*FunctionTable, error) {
	v, err := c.get(KindFunction, gene, func() (any, error) {
		return c.src.Functions(ctx, gene)
	})
	if err != nil {
		return nil, err
	}
	return v.(*FunctionTable), nil
}

func (c *CachedSource) Phenotypes(ctx context.Context, gene string) (*PhenotypeTable, error) {
	v, err := c.get(KindPhenotype, gene, func() (any, error) {
		return c.src.Phenotypes(ctx, gene)
	})
	if err != nil {
		return nil, err
	}
	return v.(*PhenotypeTable), nil
}

func (c *CachedSource) get(kind Kind, gene string, load func() (any, error)) (any, error) {
	k := cacheKey{kind, gene}
	if v, ok := c.tables.Get(k); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	v, err := load()
	if err != nil {
		return nil, err
	}
	c.tables.Add(k, v)
	return v, nil
}

// Stats returns hit and miss counts since creation or the last Purge.
func (c *CachedSource) Stats() CacheStats {
	return CacheStats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Len:    c.tables.Len(),
	}
}

// Purge drops every cached table.
func (c *CachedSource) Purge() {
	c.tables.Purge()
	c.hits.Store(0)
	c.misses.Store(0)
}
