package refdata

import (
	"context"
	"fmt"
)

// Kind identifies one of the three per-gene reference tables.
type Kind int

const (
	KindAlleleDefinition Kind = iota
	KindFunction
	KindPhenotype
)

func (k Kind) String() string {
	switch k {
	case KindAlleleDefinition:
		return "allele definition"
	case KindFunction:
		return "allele function"
	case KindPhenotype:
		return "diplotype phenotype"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Source provides reference tables per gene. Implementations return an error
// wrapping ErrTableNotFound when a gene has no table of the requested kind.
type Source interface {
	AlleleDefinition(ctx context.Context, gene string) (*AlleleDefinitionTable, error)
	Functions(ctx context.Context, gene string) (*FunctionTable, error)
	Phenotypes(ctx context.Context, gene string) (*PhenotypeTable, error)
}

// MemorySource serves tables held in memory.
type MemorySource struct {
	alleles    map[string]*AlleleDefinitionTable
	functions  map[string]*FunctionTable
	phenotypes map[string]*PhenotypeTable
}

// NewMemorySource creates an empty in-memory source.
func NewMemorySource() *MemorySource {
	return &MemorySource{
		alleles:    make(map[string]*AlleleDefinitionTable),
		functions:  make(map[string]*FunctionTable),
		phenotypes: make(map[string]*PhenotypeTable),
	}
}

// AddAlleleDefinition registers an allele definition table under its gene.
func (m *MemorySource) AddAlleleDefinition(t *AlleleDefinitionTable) { m.alleles[t.Gene] = t }

// AddFunctions registers a function table under its gene.
func (m *MemorySource) AddFunctions(t *FunctionTable) { m.functions[t.Gene] = t }

// AddPhenotypes registers a phenotype table under its gene.
func (m *MemorySource) AddPhenotypes(t *PhenotypeTable) { m.phenotypes[t.Gene] = t }

func (m *MemorySource) AlleleDefinition(_ context.Context, gene string) (*AlleleDefinitionTable, error) {
	if t, ok := m.alleles[gene]; ok {
		return t, nil
	}
	return nil, notFound(KindAlleleDefinition, gene)
}

func (m *MemorySource) Functions(_ context.Context, gene string) (*FunctionTable, error) {
	if t, ok := m.functions[gene]; ok {
		return t, nil
	}
	return nil, notFound(KindFunction, gene)
}

func (m *MemorySource) Phenotypes(_ context.Context, gene string) (*PhenotypeTable, error) {
	if t, ok := m.phenotypes[gene]; ok {
		return t, nil
	}
	return nil, notFound(KindPhenotype, gene)
}

func notFound(kind Kind, gene string) error {
	return fmt.Errorf("%s table for %s: %w", kind, gene, ErrTableNotFound)
}
