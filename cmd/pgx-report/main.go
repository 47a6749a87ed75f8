// Package main provides the pgx-report command-line tool.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/MehwishAlam/pgx/internal/config"
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// Version information (set at build time)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd(&app{})
	root.SetArgs(args)

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var ue *usageError
		if errors.As(err, &ue) {
			return ExitUsage
		}
		return ExitError
	}
	return ExitSuccess
}

// usageError marks a command-line mistake, reported with ExitUsage.
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func exactArgs(n int, what string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return &usageError{msg: fmt.Sprintf("%s argument required\n\n%s", what, cmd.UsageString())}
		}
		return nil
	}
}

// app carries state shared by the subcommands of one invocation.
type app struct {
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "pgx-report",
		Short: "Pharmacogenomic star-allele and phenotype reports",
		Long: `pgx-report resolves genotyping calls of one sample into star-allele
diplotypes, annotates allele function and looks up the clinical phenotype
of every gene the sample was genotyped for.`,
		Version:       fmt.Sprintf("%s (%s) built %s", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Init(viper.GetViper(), a.cfgFile)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "Config file (default ~/"+config.FileName+")")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug messages")

	root.AddCommand(newReportCmd(a))
	root.AddCommand(newGenesCmd(a))
	root.AddCommand(newImportCmd(a))
	root.AddCommand(newConfigCmd())
	root.AddCommand(newVersionCmd())

	return root
}

// loadConfig loads and validates the configuration on first use.
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

// log returns the console logger, built on first use.
func (a *app) log() *zap.Logger {
	if a.logger != nil {
		return a.logger
	}

	level := zapcore.InfoLevel
	if a.cfg != nil {
		if l, err := zapcore.ParseLevel(strings.ToLower(a.cfg.Log.Level)); err == nil {
			level = l
		}
	}
	if a.verbose {
		level = zapcore.DebugLevel
	}

	zc := zap.NewDevelopmentConfig()
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.OutputPaths = []string{"stderr"}
	zc.DisableStacktrace = true
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	logger, err := zc.Build()
	if err != nil {
		logger = zap.NewNop()
	}
	a.logger = logger
	return logger
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pgx-report version %s (%s) built %s\n", version, commit, date)
		},
	}
}
