// Package config loads pgx-report settings from defaults, an optional
// YAML file and PGX_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/MehwishAlam/pgx/internal/refdata"
	"github.com/MehwishAlam/pgx/internal/report"
)

// FileName is the config file looked up in the user's home directory.
const FileName = ".pgx-report.yaml"

// EnvPrefix prefixes environment overrides, e.g. PGX_PIPELINE_WORKERS.
const EnvPrefix = "PGX"

// DefaultTablesRoot holds the reference table folders unless configured otherwise.
const DefaultTablesRoot = "KG"

// Config is the complete application configuration.
type Config struct {
	Tables   TablesConfig   `mapstructure:"tables" yaml:"tables"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// TablesConfig locates the reference tables.
type TablesConfig struct {
	refdata.Dirs `mapstructure:",squash" yaml:",inline"`

	// DuckDB, when set, serves tables from an imported database instead of the JSON folders.
	DuckDB    string `mapstructure:"duckdb" yaml:"duckdb"`
	CacheSize int    `mapstructure:"cache_size" yaml:"cache_size"`
}

// PipelineConfig tunes gene resolution.
type PipelineConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

// OutputConfig selects the report encoding.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
}

// LogConfig sets the log verbosity.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	dirs := refdata.DefaultDirs(DefaultTablesRoot)
	v.SetDefault("tables.allele_definition_dir", dirs.AlleleDefinition)
	v.SetDefault("tables.allele_function_dir", dirs.Function)
	v.SetDefault("tables.diplotype_phenotype_dir", dirs.Phenotype)
	v.SetDefault("tables.duckdb", "")
	v.SetDefault("tables.cache_size", refdata.DefaultCacheSize)

	v.SetDefault("pipeline.workers", 1)
	v.SetDefault("output.format", string(report.FormatJSON))
	v.SetDefault("log.level", "info")
}

// Init prepares v: defaults, environment binding and the config file.
// An explicit cfgFile must exist; otherwise ~/.pgx-report.yaml is read
// when present.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	v.SetConfigFile(filepath.Join(home, FileName))
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if _, err := report.ParseFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}
	if c.Tables.CacheSize < 0 {
		return fmt.Errorf("tables.cache_size must not be negative: %d", c.Tables.CacheSize)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}
	if c.Tables.DuckDB == "" && c.Tables.AlleleDefinition == "" {
		return errors.New("tables.allele_definition_dir or tables.duckdb is required")
	}
	return nil
}
