package refdata

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// rsIDKey is the allele definition row holding the reference SNP identifiers.
const rsIDKey = "rsid"

// DecodeAlleleDefinition reads an allele definition JSON object:
//
//	{"rsID": ["rs776746", ...], "*1": ["A", ...], "*3": ["G", ...], ...}
//
// Keys that start with "*" are star alleles and keep their order of
// appearance. Other keys (descriptive rows) are ignored. null or empty
// values are unmapped cells.
func DecodeAlleleDefinition(r io.Reader, gene string) (*AlleleDefinitionTable, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	formatErr := func(reason string) error {
		return &TableFormatError{Gene: gene, Kind: KindAlleleDefinition, Reason: reason}
	}

	tok, err := dec.Token()
	if err != nil {
		return nil, formatErr(err.Error())
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, formatErr("expected a JSON object")
	}

	var (
		rsids    []string
		haveRSID bool
		stars    []string
		cells    [][]Cell
		starIdx  = make(map[string]int)
	)

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, formatErr(err.Error())
		}
		key, _ := tok.(string)

		switch {
		case strings.EqualFold(strings.TrimSpace(key), rsIDKey):
			var vals []any
			if err := dec.Decode(&vals); err != nil {
				return nil, formatErr(fmt.Sprintf("rsID row: %v", err))
			}
			rsids = make([]string, len(vals))
			for i, v := range vals {
				if c := cellOf(v); c.Valid {
					rsids[i] = strings.TrimSpace(c.Base)
				}
			}
			haveRSID = true

		case strings.HasPrefix(key, "*"):
			var vals []any
			if err := dec.Decode(&vals); err != nil {
				return nil, formatErr(fmt.Sprintf("star allele %s: %v", key, err))
			}
			row := make([]Cell, len(vals))
			for i, v := range vals {
				row[i] = cellOf(v)
			}
			// A repeated key keeps its first position and its last value.
			if i, ok := starIdx[key]; ok {
				cells[i] = row
				continue
			}
			starIdx[key] = len(stars)
			stars = append(stars, key)
			cells = append(cells, row)

		default:
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, formatErr(fmt.Sprintf("row %q: %v", key, err))
			}
		}
	}
	if _, err := dec.Token(); err != nil {
		return nil, formatErr(err.Error())
	}

	if !haveRSID {
		return nil, formatErr("no rsID row")
	}
	return NewAlleleDefinitionTable(gene, rsids, stars, cells)
}

// DecodeFunctions reads a functionality JSON object:
//
//	{"CYP3A5": {"*1": {"Allele Clinical Functional Status (Required)": "Normal function", ...}}}
//
// A file without a block for gene yields an empty table.
func DecodeFunctions(r io.Reader, gene string) (*FunctionTable, error) {
	block, err := decodeGeneBlock(r, gene)
	if err != nil {
		return nil, &TableFormatError{Gene: gene, Kind: KindFunction, Reason: err.Error()}
	}

	entries := make(map[string]map[string]string, len(block))
	for star, raw := range block {
		var cols map[string]any
		if err := json.Unmarshal(raw, &cols); err != nil || cols == nil {
			continue // not an object: treated as unknown function
		}
		entries[star] = stringifyColumns(cols)
	}
	return NewFunctionTable(gene, entries), nil
}

// DecodePhenotypes reads a diplotype-phenotype JSON object:
//
//	{"CYP3A5": {"*1/*3": {"Activity Score": "", "Phenotype": "...", "EHR Priority Notation": "..."}}}
func DecodePhenotypes(r io.Reader, gene string) (*PhenotypeTable, error) {
	block, err := decodeGeneBlock(r, gene)
	if err != nil {
		return nil, &TableFormatError{Gene: gene, Kind: KindPhenotype, Reason: err.Error()}
	}

	entries := make(map[string]PhenotypeEntry, len(block))
	for diplotype, raw := range block {
		var cols map[string]any
		if err := json.Unmarshal(raw, &cols); err != nil || cols == nil {
			continue
		}
		s := stringifyColumns(cols)
		e := PhenotypeEntry{
			Phenotype:     UnknownPhenotype,
			ActivityScore: s[ColActivityScore],
			EHRPriority:   s[ColEHRPriority],
		}
		if p, ok := s[ColPhenotype]; ok {
			e.Phenotype = p
		}
		entries[diplotype] = e
	}
	return NewPhenotypeTable(gene, entries), nil
}

// decodeGeneBlock returns the object stored under the gene key of a
// {gene: {...}} document, or an empty block when the key is absent.
func decodeGeneBlock(r io.Reader, gene string) (map[string]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	raw, ok := doc[gene]
	if !ok {
		return map[string]json.RawMessage{}, nil
	}
	var block map[string]json.RawMessage
	if err := json.Unmarshal(raw, &block); err != nil {
		return nil, fmt.Errorf("gene block %s: %w", gene, err)
	}
	if block == nil {
		block = map[string]json.RawMessage{}
	}
	return block, nil
}

// cellOf converts a decoded JSON value to a Cell. null and blank strings are unmapped.
func cellOf(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Cell{}
	case string:
		if strings.TrimSpace(x) == "" {
			return Cell{}
		}
		return BaseCell(x)
	case json.Number:
		return BaseCell(x.String())
	default:
		return BaseCell(fmt.Sprint(x))
	}
}

func stringifyColumns(cols map[string]any) map[string]string {
	out := make(map[string]string, len(cols))
	for k, v := range cols {
		switch x := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = x
		case json.Number:
			out[k] = x.String()
		default:
			out[k] = fmt.Sprint(x)
		}
	}
	return out
}
