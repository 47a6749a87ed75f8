package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MehwishAlam/pgx/internal/genotype"
)

func newGenesCmd(a *app) *cobra.Command {
	var (
		sampleID  string
		showCalls bool
	)

	cmd := &cobra.Command{
		Use:   "genes [flags] <genotyping-file>",
		Short: "List the genes genotyped for a sample",
		Example: `  pgx-report genes --sample NA12878 results.xlsx
  pgx-report genes --sample NA12878 --calls results.xlsx`,
		Args: exactArgs(1, "genotyping file"),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sampleID == "" {
				return &usageError{msg: "--sample is required"}
			}

			tbl, err := readGenotypes(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			calls, err := genotype.Filter(tbl, sampleID)
			if err != nil {
				return err
			}
			if len(calls) == 0 {
				a.log().Warn("no calls for sample")
				return nil
			}

			w := bufio.NewWriter(cmd.OutOrStdout())
			byGene := genotype.GroupByGene(calls)
			for _, gene := range genotype.UniqueGenes(calls) {
				gc := byGene[gene]
				if !showCalls {
					fmt.Fprintf(w, "%s\t%d\n", gene, len(gc))
					continue
				}
				for _, c := range gc {
					fmt.Fprintln(w, strings.Join([]string{gene, c.SNPID, c.Call}, "\t"))
				}
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&sampleID, "sample", "s", "", "Sample ID")
	cmd.Flags().BoolVar(&showCalls, "calls", false, "List every SNP call instead of a count per gene")

	return cmd
}
