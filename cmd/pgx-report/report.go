package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/MehwishAlam/pgx/internal/genotype"
	"github.com/MehwishAlam/pgx/internal/pipeline"
	"github.com/MehwishAlam/pgx/internal/refdata"
	"github.com/MehwishAlam/pgx/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var (
		sampleID   string
		outputFile string
		allSteps   bool
	)

	cmd := &cobra.Command{
		Use:   "report [flags] <genotyping-file>",
		Short: "Resolve the phenotype report of one sample",
		Long: `Resolve star-allele diplotypes, allele functions and phenotypes for one
sample of a genotyping export (.xlsx, .csv or tab-separated text; '-' reads
tab-separated text from stdin).`,
		Example: `  pgx-report report --sample NA12878 results.xlsx
  pgx-report report --sample NA12878 -f tsv -o NA12878.tsv results.txt
  pgx-report report --sample NA12878 --all-steps results.xlsx`,
		Args: exactArgs(1, "genotyping file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sampleID == "" {
				return &usageError{msg: "--sample is required"}
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			format, err := report.ParseFormat(cfg.Output.Format)
			if err != nil {
				return err
			}
			if allSteps && format != report.FormatJSON {
				return &usageError{msg: "--all-steps writes JSON only"}
			}
			logger := a.log()

			tbl, err := readGenotypes(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			src, err := openSource(cfg, logger)
			if err != nil {
				return err
			}
			defer src.Close()
			defer src.logStats(logger)

			p := pipeline.New(src)
			p.SetLogger(logger)
			p.SetWorkers(cfg.Pipeline.Workers)

			ctx := cmd.Context()
			if err := warmCache(ctx, src, tbl, sampleID, cfg.Pipeline.Workers, logger); err != nil {
				return err
			}

			out, closeOut, err := openOutput(outputFile, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer closeOut()

			if allSteps {
				steps, err := p.RunAllSteps(ctx, tbl, sampleID)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(steps)
			}

			res, err := p.Run(ctx, tbl, sampleID)
			if err != nil {
				return err
			}
			w, err := report.NewWriter(format, out)
			if err != nil {
				return err
			}
			if err := w.Write(res.Report); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if len(res.Warnings) > 0 {
				logger.Info("report written with data gaps", zap.Int("warnings", len(res.Warnings)))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sampleID, "sample", "s", "", "Sample ID to report")
	cmd.Flags().StringP("format", "f", "json", "Output format: json, yaml, tsv, xlsx")
	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&allSteps, "all-steps", false, "Write every intermediate result as JSON")
	cmd.Flags().IntP("workers", "j", 1, "Genes resolved concurrently (0 = all CPUs)")

	_ = viper.BindPFlag("output.format", cmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("pipeline.workers", cmd.Flags().Lookup("workers"))

	return cmd
}

// readGenotypes reads a genotyping export; "-" reads tab-separated text from stdin.
func readGenotypes(path string, stdin io.Reader) (*genotype.Table, error) {
	if path == "-" {
		return genotype.ReadDelimited(stdin, '\t')
	}
	return genotype.ReadFile(path)
}

// warmCache loads the sample's tables concurrently before resolution.
// Only worthwhile when an LRU cache will keep them.
func warmCache(ctx context.Context, src *tableSource, tbl *genotype.Table, sampleID string, workers int, logger *zap.Logger) error {
	if src.cache == nil {
		return nil
	}
	calls, err := genotype.Filter(tbl, sampleID)
	if err != nil {
		return fmt.Errorf("filter sample %s: %w", sampleID, err)
	}
	genes := genotype.UniqueGenes(calls)

	start := time.Now()
	if err := refdata.Preload(ctx, src.cache, genes, workers); err != nil {
		return err
	}
	logger.Debug("reference tables loaded",
		zap.Int("genes", len(genes)),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// openOutput returns the named file, or fallback when name is empty.
func openOutput(name string, fallback io.Writer) (io.Writer, func(), error) {
	if name == "" {
		return fallback, func() {}, nil
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { f.Close() }, nil
}
