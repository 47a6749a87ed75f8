// Package pipeline sequences genotype filtering, star-allele resolution,
// function annotation and phenotype lookup for one sample.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/MehwishAlam/pgx/internal/genotype"
	"github.com/MehwishAlam/pgx/internal/refdata"
	"github.com/MehwishAlam/pgx/internal/resolve"
)

// Pipeline produces phenotype reports from genotyping tables.
// A Pipeline holds no per-run state; Run may be called concurrently.
type Pipeline struct {
	source   refdata.Source
	resolver *resolve.Resolver
	logger   *zap.Logger
	workers  int
}

// New creates a pipeline reading reference tables from src.
// Genes are resolved sequentially until SetWorkers is called.
func New(src refdata.Source) *Pipeline {
	return &Pipeline{
		source:   src,
		resolver: resolve.NewResolver(),
		logger:   zap.NewNop(),
		workers:  1,
	}
}

// SetLogger sets the logger for the pipeline and its resolver.
func (p *Pipeline) SetLogger(l *zap.Logger) {
	p.logger = l
	p.resolver.SetLogger(l)
}

// SetWorkers sets the number of genes resolved concurrently.
// n <= 0 uses runtime.NumCPU(); 1 resolves genes one after another.
func (p *Pipeline) SetWorkers(n int) {
	p.workers = n
}

// GeneResult holds every artefact produced for one gene.
type GeneResult struct {
	Gene       string
	Calls      []genotype.GenotypeCall
	Diplotypes []resolve.ResolvedDiplotype
	Functions  map[string]string
	Phenotypes resolve.GenePhenotypeReport
	Warnings   []resolve.Warning
}

// Result is the outcome of one pipeline run.
type Result struct {
	SampleID string
	Calls    []genotype.GenotypeCall
	Genes    []string
	PerGene  map[string]*GeneResult
	Report   resolve.Report
	Warnings []resolve.Warning
}

// Run filters t down to sampleID and resolves the phenotype of every gene
// the sample has calls for. Missing reference tables degrade the affected
// gene and are reported as warnings; malformed tables abort the run.
func (p *Pipeline) Run(ctx context.Context, t *genotype.Table, sampleID string) (*Result, error) {
	start := time.Now()

	calls, err := genotype.Filter(t, sampleID)
	if err != nil {
		return nil, fmt.Errorf("filter sample %s: %w", sampleID, err)
	}

	genes := genotype.UniqueGenes(calls)
	byGene := genotype.GroupByGene(calls)

	res := &Result{
		SampleID: sampleID,
		Calls:    calls,
		Genes:    genes,
		PerGene:  make(map[string]*GeneResult, len(genes)),
		Report:   make(resolve.Report, len(genes)),
	}
	if len(calls) == 0 {
		p.logger.Warn("no calls for sample", zap.String("sample", sampleID))
		return res, nil
	}

	collect := func(gr *GeneResult) {
		res.PerGene[gr.Gene] = gr
		res.Report[gr.Gene] = gr.Phenotypes
		res.Warnings = append(res.Warnings, gr.Warnings...)
	}

	if p.workers == 1 || len(genes) == 1 {
		for _, gene := range genes {
			gr, err := p.resolveGene(ctx, gene, byGene[gene])
			if err != nil {
				return nil, err
			}
			collect(gr)
		}
	} else {
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		items := make(chan WorkItem, len(genes))
		for i, gene := range genes {
			items <- WorkItem{Seq: i, Gene: gene, Calls: byGene[gene]}
		}
		close(items)

		err := OrderedCollect(p.parallelResolve(ctx, items, p.workers), func(r WorkResult) error {
			if r.Err != nil {
				cancel()
				return r.Err
			}
			collect(r.Result)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	p.logger.Info("sample resolved",
		zap.String("sample", sampleID),
		zap.Int("calls", len(calls)),
		zap.Int("genes", len(genes)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Duration("elapsed", time.Since(start)))

	return res, nil
}

// resolveGene runs the three per-gene stages against the gene's tables.
func (p *Pipeline) resolveGene(ctx context.Context, gene string, calls []genotype.GenotypeCall) (*GeneResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	defs, err := p.source.AlleleDefinition(ctx, gene)
	if err = optional(err); err != nil {
		return nil, fmt.Errorf("gene %s: %w", gene, err)
	}
	funcs, err := p.source.Functions(ctx, gene)
	if err = optional(err); err != nil {
		return nil, fmt.Errorf("gene %s: %w", gene, err)
	}
	phens, err := p.source.Phenotypes(ctx, gene)
	if err = optional(err); err != nil {
		return nil, fmt.Errorf("gene %s: %w", gene, err)
	}

	gr := &GeneResult{Gene: gene, Calls: calls}

	var w []resolve.Warning
	gr.Diplotypes, w = p.resolver.ResolveGene(gene, defs, calls)
	gr.Warnings = append(gr.Warnings, w...)

	gr.Functions, w = p.resolver.AnnotateFunctions(gene, funcs, gr.Diplotypes)
	gr.Warnings = append(gr.Warnings, w...)

	gr.Phenotypes, w = p.resolver.ResolvePhenotypes(gene, phens, gr.Diplotypes, gr.Functions)
	gr.Warnings = append(gr.Warnings, w...)

	return gr, nil
}

// optional clears ErrTableNotFound. The loaders return a nil table alongside
// it, which the resolver treats as absent.
func optional(err error) error {
	if errors.Is(err, refdata.ErrTableNotFound) {
		return nil
	}
	return err
}
