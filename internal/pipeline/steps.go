package pipeline

import (
	"context"

	"github.com/MehwishAlam/pgx/internal/genotype"
	"github.com/MehwishAlam/pgx/internal/resolve"
)

// CallSummary is one SNP reading in a gene summary.
type CallSummary struct {
	SNP  string `json:"snp"`
	Call string `json:"call"`
}

// Steps exposes every intermediate artefact of a run.
type Steps struct {
	FilteredCalls  []genotype.GenotypeCall                `json:"filtered_data"`
	Genes          []string                               `json:"unique_gene_list"`
	GeneSummary    map[string][]CallSummary               `json:"gene_summary"`
	StarAlleles    map[string][]resolve.ResolvedDiplotype `json:"star_alleles"`
	StarFunctions  map[string]map[string]string           `json:"star_functions"`
	GenePhenotypes resolve.Report                         `json:"gene_phenotypes"`
	Warnings       []resolve.Warning                      `json:"warnings,omitempty"`
}

// Steps assembles the intermediate artefacts of r.
func (r *Result) Steps() *Steps {
	s := &Steps{
		FilteredCalls:  r.Calls,
		Genes:          r.Genes,
		GeneSummary:    make(map[string][]CallSummary, len(r.PerGene)),
		StarAlleles:    make(map[string][]resolve.ResolvedDiplotype, len(r.PerGene)),
		StarFunctions:  make(map[string]map[string]string, len(r.PerGene)),
		GenePhenotypes: r.Report,
		Warnings:       r.Warnings,
	}
	if s.FilteredCalls == nil {
		s.FilteredCalls = []genotype.GenotypeCall{}
	}
	if s.Genes == nil {
		s.Genes = []string{}
	}
	for gene, gr := range r.PerGene {
		summary := make([]CallSummary, 0, len(gr.Calls))
		for _, c := range gr.Calls {
			summary = append(summary, CallSummary{SNP: c.SNPID, Call: c.Call})
		}
		s.GeneSummary[gene] = summary
		s.StarAlleles[gene] = gr.Diplotypes
		s.StarFunctions[gene] = gr.Functions
	}
	return s
}

// RunAllSteps runs the pipeline and returns every intermediate artefact
// instead of only the phenotype report.
func (p *Pipeline) RunAllSteps(ctx context.Context, t *genotype.Table, sampleID string) (*Steps, error) {
	res, err := p.Run(ctx, t, sampleID)
	if err != nil {
		return nil, err
	}
	return res.Steps(), nil
}
