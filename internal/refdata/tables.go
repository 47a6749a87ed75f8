// Package refdata provides the per-gene pharmacogenomic reference tables
// and the sources they are loaded from.
package refdata

import (
	"fmt"
	"strings"
)

// Reference table column names used by the JSON exports.
const (
	ColFunctionalStatus = "Allele Clinical Functional Status (Required)"
	ColPhenotype        = "Phenotype"
	ColActivityScore    = "Activity Score"
	ColEHRPriority      = "EHR Priority Notation"

	UnknownFunction  = "Unknown function"
	UnknownPhenotype = "Unknown"
)

// Cell is one base value of a star allele at a reference SNP position.
// Unmapped cells are not Valid and never match an observed base.
type Cell struct {
	Base  string
	Valid bool
}

// BaseCell returns a valid cell holding base.
func BaseCell(base string) Cell {
	return Cell{Base: base, Valid: true}
}

// Matches reports whether the cell holds exactly the observed base.
func (c Cell) Matches(base string) bool {
	return c.Valid && c.Base == base
}

func (c Cell) String() string {
	if !c.Valid {
		return "-"
	}
	return c.Base
}

// AlleleDefinitionTable maps each star allele of a gene to its base at every
// reference SNP. Star order is the order of the source table and is
// significant: resolution scans stars in this order.
type AlleleDefinitionTable struct {
	Gene   string
	Source string // file or table the definition was read from

	rsids []string
	stars []string
	cells [][]Cell // cells[starIdx][pos]
}

// NewAlleleDefinitionTable builds a table. Every star's cell row must be
// aligned with rsids and star names must start with "*".
func NewAlleleDefinitionTable(gene string, rsids, stars []string, cells [][]Cell) (*AlleleDefinitionTable, error) {
	if len(stars) != len(cells) {
		return nil, &TableFormatError{Gene: gene, Kind: KindAlleleDefinition,
			Reason: fmt.Sprintf("%d star alleles but %d cell rows", len(stars), len(cells))}
	}
	seen := make(map[string]bool, len(stars))
	for i, star := range stars {
		if !strings.HasPrefix(star, "*") {
			return nil, &TableFormatError{Gene: gene, Kind: KindAlleleDefinition,
				Reason: fmt.Sprintf("star allele name %q does not start with '*'", star)}
		}
		if seen[star] {
			return nil, &TableFormatError{Gene: gene, Kind: KindAlleleDefinition,
				Reason: fmt.Sprintf("duplicate star allele %q", star)}
		}
		seen[star] = true
		if len(cells[i]) != len(rsids) {
			return nil, &TableFormatError{Gene: gene, Kind: KindAlleleDefinition,
				Reason: fmt.Sprintf("star allele %s has %d values, expected %d", star, len(cells[i]), len(rsids))}
		}
	}
	return &AlleleDefinitionTable{Gene: gene, rsids: rsids, stars: stars, cells: cells}, nil
}

// RSIDs returns the reference SNP identifiers in table order.
func (t *AlleleDefinitionTable) RSIDs() []string { return t.rsids }

// Stars returns the star allele names in table order.
func (t *AlleleDefinitionTable) Stars() []string { return t.stars }

// Position returns the index of snp among the reference SNPs.
// The first occurrence wins if an rsID is listed more than once.
func (t *AlleleDefinitionTable) Position(snp string) (int, bool) {
	if snp == "" {
		return -1, false
	}
	for i, id := range t.rsids {
		if id == snp {
			return i, true
		}
	}
	return -1, false
}

// Cell returns the base of the star at scan index starIdx and SNP position pos.
func (t *AlleleDefinitionTable) Cell(starIdx, pos int) Cell {
	return t.cells[starIdx][pos]
}

// FunctionTable maps star alleles of a gene to their functional annotation columns.
type FunctionTable struct {
	Gene   string
	Source string

	entries map[string]map[string]string
}

// NewFunctionTable builds a function table from star → column → value.
func NewFunctionTable(gene string, entries map[string]map[string]string) *FunctionTable {
	if entries == nil {
		entries = make(map[string]map[string]string)
	}
	return &FunctionTable{Gene: gene, entries: entries}
}

// Status returns the clinical functional status of star, or UnknownFunction.
func (t *FunctionTable) Status(star string) string {
	cols, ok := t.entries[star]
	if !ok {
		return UnknownFunction
	}
	status, ok := cols[ColFunctionalStatus]
	if !ok {
		return UnknownFunction
	}
	return status
}

// Columns returns every annotation column recorded for star.
func (t *FunctionTable) Columns(star string) map[string]string {
	return t.entries[star]
}

// Len returns the number of star alleles in the table.
func (t *FunctionTable) Len() int { return len(t.entries) }

// EachFunction calls fn for every star allele in the table, in no particular order.
func (t *FunctionTable) EachFunction(fn func(star string, cols map[string]string)) {
	for s, cols := range t.entries {
		fn(s, cols)
	}
}

// PhenotypeEntry holds the clinical interpretation of one diplotype.
type PhenotypeEntry struct {
	Phenotype     string
	ActivityScore string
	EHRPriority   string
}

// PhenotypeTable maps diplotype strings ("*1/*3") of a gene to phenotypes.
type PhenotypeTable struct {
	Gene   string
	Source string

	entries map[string]PhenotypeEntry
}

// NewPhenotypeTable builds a phenotype table keyed by diplotype as written in the source.
func NewPhenotypeTable(gene string, entries map[string]PhenotypeEntry) *PhenotypeTable {
	if entries == nil {
		entries = make(map[string]PhenotypeEntry)
	}
	return &PhenotypeTable{Gene: gene, entries: entries}
}

// Lookup returns the entry stored under exactly this diplotype string.
func (t *PhenotypeTable) Lookup(diplotype string) (PhenotypeEntry, bool) {
	e, ok := t.entries[diplotype]
	return e, ok
}

// Len returns the number of diplotypes in the table.
func (t *PhenotypeTable) Len() int { return len(t.entries) }

// Each calls fn for every diplotype in the table, in no particular order.
func (t *PhenotypeTable) Each(fn func(diplotype string, e PhenotypeEntry)) {
	for d, e := range t.entries {
		fn(d, e)
	}
}
