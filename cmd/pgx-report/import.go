package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MehwishAlam/pgx/internal/duckdb"
	"github.com/MehwishAlam/pgx/internal/refdata"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		outputPath string
		root       string
		rebuild    bool
	)

	cmd := &cobra.Command{
		Use:   "import-tables",
		Short: "Import JSON reference tables into DuckDB",
		Long: `Import the per-gene allele definition, allele function and diplotype
phenotype JSON tables into a DuckDB database. Files unchanged since the
last import are skipped. Point tables.duckdb at the result to serve
reports from it.`,
		Example: `  pgx-report import-tables --output tables.duckdb
  pgx-report import-tables --root KG --output tables.duckdb --rebuild`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			logger := a.log()

			dirs := cfg.Tables.Dirs
			if root != "" {
				dirs = refdata.DefaultDirs(root)
			}
			if outputPath == "" {
				outputPath = cfg.Tables.DuckDB
			}
			if outputPath == "" {
				return &usageError{msg: "--output is required (or set tables.duckdb)"}
			}

			// Ensure output has .duckdb extension
			if ext := filepath.Ext(outputPath); ext != ".duckdb" && ext != ".db" {
				outputPath += ".duckdb"
			}

			if rebuild {
				if err := os.Remove(outputPath); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove existing database: %w", err)
				}
			}

			store, err := duckdb.Open(outputPath)
			if err != nil {
				return err
			}
			defer store.Close()

			start := time.Now()
			stats, err := store.ImportDir(cmd.Context(), refdata.NewDirSource(dirs))
			if err != nil {
				return fmt.Errorf("import tables: %w", err)
			}

			logger.Info("reference tables imported",
				zap.String("output", outputPath),
				zap.Int("imported", stats.Imported),
				zap.Int("unchanged", stats.Skipped),
				zap.Duration("elapsed", time.Since(start)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output DuckDB file (default: tables.duckdb config value)")
	cmd.Flags().StringVar(&root, "root", "", "Reference root holding allele_definition/, allele_functionality/ and diplotype-phenotype/")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Delete the database before importing")

	return cmd
}
