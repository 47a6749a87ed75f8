// Package report renders phenotype reports as JSON, YAML, TSV or XLSX.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MehwishAlam/pgx/internal/resolve"
)

// Format names an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatTSV, FormatXLSX}

// ParseFormat returns the format named s (case-insensitive). "yml" and "tab"
// are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "tsv", "tab":
		return FormatTSV, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported output format %q (want one of json, yaml, tsv, xlsx)", s)
}

// Writer renders a complete report.
type Writer interface {
	Write(r resolve.Report) error
}

// NewWriter returns a writer for format that writes to w.
func NewWriter(format Format, w io.Writer) (Writer, error) {
	switch format {
	case FormatJSON:
		return NewJSONWriter(w), nil
	case FormatYAML:
		return NewYAMLWriter(w), nil
	case FormatTSV:
		return NewTabWriter(w), nil
	case FormatXLSX:
		return NewXLSXWriter(w), nil
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}

// JSONWriter writes the canonical indented JSON report.
type JSONWriter struct {
	w io.Writer
}

// NewJSONWriter creates a JSON report writer.
func NewJSONWriter(w io.Writer) *JSONWriter {
	return &JSONWriter{w: w}
}

func (jw *JSONWriter) Write(r resolve.Report) error {
	if r == nil {
		r = resolve.Report{}
	}
	enc := json.NewEncoder(jw.w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// YAMLWriter writes the report as a YAML document.
type YAMLWriter struct {
	w io.Writer
}

// NewYAMLWriter creates a YAML report writer.
func NewYAMLWriter(w io.Writer) *YAMLWriter {
	return &YAMLWriter{w: w}
}

func (yw *YAMLWriter) Write(r resolve.Report) error {
	if r == nil {
		r = resolve.Report{}
	}
	enc := yaml.NewEncoder(yw.w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// Row is one gene/diplotype line of a flattened report.
type Row struct {
	Gene            string
	Diplotype       string
	Allele1         string
	Allele2         string
	Function1       string
	Function2       string
	Phenotype       string
	ActivityScore   string
	EHRPriority     string
	SourceReference string
}

// Columns are the headers of a flattened report.
var Columns = []string{
	"Gene",
	"Diplotype",
	"Allele_1",
	"Allele_2",
	"Allele_1_Function",
	"Allele_2_Function",
	"Phenotype",
	"Activity_Score",
	"EHR_Priority",
	"Source",
}

// Values returns the row's cells in Columns order.
func (r Row) Values() []string {
	return []string{
		r.Gene, r.Diplotype, r.Allele1, r.Allele2, r.Function1, r.Function2,
		r.Phenotype, r.ActivityScore, r.EHRPriority, r.SourceReference,
	}
}

// Rows flattens r into one row per gene and diplotype, sorted by both.
func Rows(r resolve.Report) []Row {
	genes := make([]string, 0, len(r))
	for g := range r {
		genes = append(genes, g)
	}
	sort.Strings(genes)

	var rows []Row
	for _, gene := range genes {
		gr := r[gene]
		diplotypes := make([]string, 0, len(gr))
		for d := range gr {
			diplotypes = append(diplotypes, d)
		}
		sort.Strings(diplotypes)

		for _, d := range diplotypes {
			e := gr[d]
			rows = append(rows, Row{
				Gene:            gene,
				Diplotype:       d,
				Allele1:         e.Alleles[0],
				Allele2:         e.Alleles[1],
				Function1:       e.AlleleFunctions[e.Alleles[0]],
				Function2:       e.AlleleFunctions[e.Alleles[1]],
				Phenotype:       e.Phenotype,
				ActivityScore:   e.ActivityScore,
				EHRPriority:     e.EHRPriority,
				SourceReference: e.SourceReference,
			})
		}
	}
	return rows
}
