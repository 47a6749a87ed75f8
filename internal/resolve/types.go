// Package resolve turns genotype calls into star-allele diplotypes and maps
// them to functional status and clinical phenotype.
package resolve

import "fmt"

// Assay failure tokens. Calls carrying one of these never enter a diplotype.
var failureTokens = map[string]bool{
	"NOAMP":   true,
	"NOCALL":  true,
	"UND":     true,
	"INVALID": true,
}

// ResolvedDiplotype is the pair of star alleles inferred from one genotype call.
type ResolvedDiplotype struct {
	SNPID         string `json:"snp"`
	Call          string `json:"call"`
	PositionIndex int    `json:"position_index"`
	FirstStar     string `json:"first_star"`
	SecondStar    string `json:"second_star"`
	Diplotype     string `json:"diplotype"`
}

// FormatDiplotype joins two star alleles into a diplotype string.
func FormatDiplotype(first, second string) string {
	return first + "/" + second
}

// DiplotypePhenotype is the clinical interpretation of one diplotype of a gene.
type DiplotypePhenotype struct {
	Alleles         [2]string         `json:"alleles" yaml:"alleles"`
	AlleleFunctions map[string]string `json:"allele_functions" yaml:"allele_functions"`
	Phenotype       string            `json:"phenotype" yaml:"phenotype"`
	ActivityScore   string            `json:"activity_score" yaml:"activity_score"`
	EHRPriority     string            `json:"ehr_priority" yaml:"ehr_priority"`
	SourceReference string            `json:"source_reference,omitempty" yaml:"source_reference,omitempty"`
}

// GenePhenotypeReport maps each diplotype string of a gene to its interpretation.
type GenePhenotypeReport map[string]DiplotypePhenotype

// Report maps gene symbols to their phenotype reports.
type Report map[string]GenePhenotypeReport

// WarningKind classifies a recoverable data gap.
type WarningKind string

const (
	WarnMissingAlleleTable    WarningKind = "missing_allele_definition_table"
	WarnMissingFunctionTable  WarningKind = "missing_function_table"
	WarnMissingPhenotypeTable WarningKind = "missing_phenotype_table"
	WarnMalformedCall         WarningKind = "malformed_call"
	WarnUnresolved            WarningKind = "unresolved_diplotype"
)

// Warning records a data-completeness gap that was recovered locally.
type Warning struct {
	Gene    string      `json:"gene"`
	Kind    WarningKind `json:"kind"`
	SNPID   string      `json:"snp,omitempty"`
	Message string      `json:"message"`
}

func (w Warning) String() string {
	if w.SNPID != "" {
		return fmt.Sprintf("%s %s: %s", w.Gene, w.SNPID, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Gene, w.Message)
}

// MalformedCallError reports a call that does not split into exactly two bases.
type MalformedCallError struct {
	SNPID string
	Call  string
}

func (e *MalformedCallError) Error() string {
	return fmt.Sprintf("malformed call %q at %s: expected two bases separated by '/'", e.Call, e.SNPID)
}
