// Package genotype reads genotyping exports and selects the calls of one sample.
package genotype

import (
	"sort"
	"strings"
)

// Required genotyping export columns.
const (
	ColGeneSymbol = "Gene Symbol"
	ColSNPRef     = "NCBI SNP Reference"
	ColSampleID   = "Sample ID"
	ColCall       = "Call"

	// HeaderMarker is the first cell of the column header row in a
	// QuantStudio export. Rows above it are run metadata.
	HeaderMarker = "Assay Name"
)

// RequiredColumns lists the columns a genotyping export must provide.
var RequiredColumns = []string{ColGeneSymbol, ColSNPRef, ColSampleID, ColCall}

// GenotypeCall is one SNP reading for one sample.
type GenotypeCall struct {
	Gene     string `json:"gene"`      // Gene symbol (e.g., CYP2C19)
	SNPID    string `json:"snp_id"`    // NCBI SNP reference (e.g., rs4244285)
	SampleID string `json:"sample_id"` // Sample identifier
	Call     string `json:"call"`      // Observed genotype ("A/G") or a failure token
}

// Table is a genotyping export positioned below its header row.
type Table struct {
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the index of the named column, or -1 if absent.
func (t *Table) ColumnIndex(name string) int {
	for i, col := range t.Header {
		if strings.TrimSpace(col) == name {
			return i
		}
	}
	return -1
}

// cell returns the trimmed value of row at index i, or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

type callKey struct {
	snp, sample string
}

// Filter returns the calls of one sample, restricted to the required columns.
// Sample IDs are compared after trimming whitespace. When several wells
// report the same SNP for the sample, the first row in source order wins.
func Filter(t *Table, sampleID string) ([]GenotypeCall, error) {
	idx := make(map[string]int, len(RequiredColumns))
	for _, col := range RequiredColumns {
		i := t.ColumnIndex(col)
		if i < 0 {
			return nil, &MissingColumnError{Column: col}
		}
		idx[col] = i
	}

	want := strings.TrimSpace(sampleID)
	seen := make(map[callKey]bool)
	var calls []GenotypeCall

	for _, row := range t.Rows {
		sample := cell(row, idx[ColSampleID])
		if sample != want {
			continue
		}
		c := GenotypeCall{
			Gene:     cell(row, idx[ColGeneSymbol]),
			SNPID:    cell(row, idx[ColSNPRef]),
			SampleID: sample,
			Call:     cell(row, idx[ColCall]),
		}
		k := callKey{c.SNPID, c.SampleID}
		if seen[k] {
			continue
		}
		seen[k] = true
		calls = append(calls, c)
	}

	return calls, nil
}

// UniqueGenes returns the sorted set of gene symbols present in calls.
func UniqueGenes(calls []GenotypeCall) []string {
	set := make(map[string]struct{})
	for _, c := range calls {
		set[c.Gene] = struct{}{}
	}
	genes := make([]string, 0, len(set))
	for g := range set {
		genes = append(genes, g)
	}
	sort.Strings(genes)
	return genes
}

// GroupByGene splits calls per gene, preserving source order within each gene.
func GroupByGene(calls []GenotypeCall) map[string][]GenotypeCall {
	groups := make(map[string][]GenotypeCall)
	for _, c := range calls {
		groups[c.Gene] = append(groups[c.Gene], c)
	}
	return groups
}
