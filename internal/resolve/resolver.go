package resolve

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/MehwishAlam/pgx/internal/genotype"
	"github.com/MehwishAlam/pgx/internal/refdata"
)

// Resolver maps genotype calls to star alleles, functions and phenotypes.
// It holds no per-run state and may be shared between goroutines.
type Resolver struct {
	logger *zap.Logger
}

// NewResolver creates a resolver that logs nothing until SetLogger is called.
func NewResolver() *Resolver {
	return &Resolver{logger: zap.NewNop()}
}

// SetLogger sets the logger for warning and debug messages.
func (r *Resolver) SetLogger(l *zap.Logger) {
	r.logger = l
}

// IsFailureCall reports whether call is an assay failure token (case-insensitive).
func IsFailureCall(call string) bool {
	return failureTokens[strings.ToUpper(strings.TrimSpace(call))]
}

// SplitCall removes whitespace from call and splits it into its two bases.
func SplitCall(snp, call string) (a1, a2 string, err error) {
	compact := strings.Join(strings.Fields(call), "")
	parts := strings.Split(compact, "/")
	if len(parts) != 2 {
		return "", "", &MalformedCallError{SNPID: snp, Call: call}
	}
	return parts[0], parts[1], nil
}

// ResolveCall determines the diplotype of one call against a gene's allele
// definitions. ok is false when the call is skipped: an assay failure, an
// SNP outside the table, or a base no star allele carries. err is non-nil
// only for a malformed call.
//
// The second base is matched first: the first star in table order carrying
// it anchors the diplotype. The first base is then matched by scanning
// backwards from just above the anchor, and only if nothing above matches,
// forwards over the whole table.
func (r *Resolver) ResolveCall(t *refdata.AlleleDefinitionTable, c genotype.GenotypeCall) (d ResolvedDiplotype, ok bool, err error) {
	if IsFailureCall(c.Call) {
		return d, false, nil
	}

	pos, found := t.Position(c.SNPID)
	if !found {
		return d, false, nil
	}

	a1, a2, err := SplitCall(c.SNPID, c.Call)
	if err != nil {
		return d, false, err
	}

	stars := t.Stars()

	secondIdx := -1
	for i := range stars {
		if t.Cell(i, pos).Matches(a2) {
			secondIdx = i
			break
		}
	}
	if secondIdx < 0 {
		return d, false, nil
	}

	firstIdx := -1
	for i := secondIdx - 1; i >= 0; i-- {
		if t.Cell(i, pos).Matches(a1) {
			firstIdx = i
			break
		}
	}
	if firstIdx < 0 {
		for i := range stars {
			if t.Cell(i, pos).Matches(a1) {
				firstIdx = i
				break
			}
		}
	}
	if firstIdx < 0 {
		return d, false, nil
	}

	first, second := stars[firstIdx], stars[secondIdx]
	return ResolvedDiplotype{
		SNPID:         c.SNPID,
		Call:          c.Call,
		PositionIndex: pos,
		FirstStar:     first,
		SecondStar:    second,
		Diplotype:     FormatDiplotype(first, second),
	}, true, nil
}

// ResolveGene resolves every call of one gene in input order. A nil table
// yields no diplotypes and a missing-table warning.
func (r *Resolver) ResolveGene(gene string, t *refdata.AlleleDefinitionTable, calls []genotype.GenotypeCall) ([]ResolvedDiplotype, []Warning) {
	var warnings []Warning
	if t == nil {
		w := Warning{Gene: gene, Kind: WarnMissingAlleleTable, Message: "no allele definition table"}
		r.logger.Warn("allele definition table missing", zap.String("gene", gene))
		return []ResolvedDiplotype{}, append(warnings, w)
	}

	results := []ResolvedDiplotype{}
	for _, c := range calls {
		d, ok, err := r.ResolveCall(t, c)
		if err != nil {
			r.logger.Warn("skipping malformed call",
				zap.String("gene", gene),
				zap.String("snp", c.SNPID),
				zap.Error(err))
			warnings = append(warnings, Warning{Gene: gene, Kind: WarnMalformedCall, SNPID: c.SNPID, Message: err.Error()})
			continue
		}
		if !ok {
			if r.unresolved(t, c) {
				r.logger.Warn("no star alleles match call",
					zap.String("gene", gene),
					zap.String("snp", c.SNPID),
					zap.String("call", c.Call))
				warnings = append(warnings, Warning{Gene: gene, Kind: WarnUnresolved, SNPID: c.SNPID,
					Message: "no star allele pair matches call " + c.Call})
			}
			continue
		}
		r.logger.Debug("resolved call",
			zap.String("gene", gene),
			zap.String("snp", d.SNPID),
			zap.String("call", d.Call),
			zap.String("diplotype", d.Diplotype))
		results = append(results, d)
	}
	return results, warnings
}

// unresolved reports whether a skipped call was a usable genotype at a
// mapped SNP, i.e. whether skipping it lost information.
func (r *Resolver) unresolved(t *refdata.AlleleDefinitionTable, c genotype.GenotypeCall) bool {
	if IsFailureCall(c.Call) {
		return false
	}
	_, found := t.Position(c.SNPID)
	return found
}

// AnnotateFunctions returns the functional status of every star allele
// observed in diplotypes. A nil table maps every star to "Unknown function".
func (r *Resolver) AnnotateFunctions(gene string, t *refdata.FunctionTable, diplotypes []ResolvedDiplotype) (map[string]string, []Warning) {
	var warnings []Warning
	if t == nil {
		r.logger.Warn("allele function table missing", zap.String("gene", gene))
		warnings = append(warnings, Warning{Gene: gene, Kind: WarnMissingFunctionTable, Message: "no allele function table"})
	}

	functions := make(map[string]string)
	for _, d := range diplotypes {
		for _, star := range []string{d.FirstStar, d.SecondStar} {
			if star == "" {
				continue
			}
			if _, done := functions[star]; done {
				continue
			}
			if t == nil {
				functions[star] = refdata.UnknownFunction
				continue
			}
			functions[star] = t.Status(star)
		}
	}
	return functions, warnings
}

// ResolvePhenotypes maps each distinct diplotype of a gene to its phenotype.
// The table is searched with the diplotype as written and then with the two
// stars swapped. Alleles always keep the resolved order.
func (r *Resolver) ResolvePhenotypes(gene string, t *refdata.PhenotypeTable, diplotypes []ResolvedDiplotype, functions map[string]string) (GenePhenotypeReport, []Warning) {
	report := make(GenePhenotypeReport)
	if len(diplotypes) == 0 {
		return report, nil
	}

	var warnings []Warning
	if t == nil {
		r.logger.Warn("diplotype phenotype table missing", zap.String("gene", gene))
		warnings = append(warnings, Warning{Gene: gene, Kind: WarnMissingPhenotypeTable, Message: "no diplotype phenotype table"})
	}

	pairs := make(map[string][2]string)
	for _, d := range diplotypes {
		if _, ok := pairs[d.Diplotype]; !ok {
			pairs[d.Diplotype] = [2]string{d.FirstStar, d.SecondStar}
		}
	}
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		alleles := pairs[key]
		entry := DiplotypePhenotype{
			Alleles:         alleles,
			AlleleFunctions: make(map[string]string, 2),
			Phenotype:       refdata.UnknownPhenotype,
		}

		if t != nil {
			entry.SourceReference = t.Source
			e, ok := t.Lookup(key)
			if !ok {
				e, ok = t.Lookup(FormatDiplotype(alleles[1], alleles[0]))
			}
			if ok {
				entry.Phenotype = e.Phenotype
				entry.ActivityScore = e.ActivityScore
				entry.EHRPriority = e.EHRPriority
			} else {
				r.logger.Debug("diplotype not in phenotype table",
					zap.String("gene", gene),
					zap.String("diplotype", key))
			}
		}

		for _, star := range alleles {
			status, ok := functions[star]
			if !ok {
				status = refdata.UnknownFunction
			}
			entry.AlleleFunctions[star] = status
		}

		report[key] = entry
	}
	return report, warnings
}
