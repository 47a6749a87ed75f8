package pipeline

import (
	"context"
	"runtime"
	"sync"

	"github.com/MehwishAlam/pgx/internal/genotype"
)

// WorkItem holds the calls of one gene ready for resolution.
type WorkItem struct {
	Seq   int
	Gene  string
	Calls []genotype.GenotypeCall
}

// WorkResult holds the resolution output for a single gene.
type WorkResult struct {
	Seq    int
	Gene   string
	Result *GeneResult
	Err    error
}

// parallelResolve resolves genes using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// If workers is 0, runtime.NumCPU() is used.
func (p *Pipeline) parallelResolve(ctx context.Context, items <-chan WorkItem, workers int) <-chan WorkResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan WorkResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				res, err := p.resolveGene(ctx, item.Gene, item.Calls)
				results <- WorkResult{
					Seq:    item.Seq,
					Gene:   item.Gene,
					Result: res,
					Err:    err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan WorkResult, fn func(WorkResult) error) error {
	pending := make(map[int]WorkResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
