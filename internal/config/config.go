package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ErrInvalid marks a configuration value outside its allowed range.
var ErrInvalid = errors.New("invalid configuration")

// Config is the full process configuration.
type Config struct {
	Neo4j      Neo4jConfig      `yaml:"neo4j" json:"neo4j"`
	Validation ValidationConfig `yaml:"validation" json:"validation"`
	Log        LogConfig        `yaml:"log" json:"log"`
	History    HistoryConfig    `yaml:"history" json:"history"`
	Metrics    MetricsConfig    `yaml:"metrics" json:"metrics"`
	Ingest     IngestConfig     `yaml:"ingest" json:"ingest"`
}

// Neo4jConfig addresses the graph database.
type Neo4jConfig struct {
	URI      string `yaml:"uri" json:"uri"`
	User     string `yaml:"user" json:"user"`
	Password string `yaml:"password" json:"-"`
	Database string `yaml:"database" json:"database"`
}

// ValidationConfig tunes fact validation and calculation reconciliation.
type ValidationConfig struct {
	// Tolerance is the relative difference allowed between a parent and
	// its weighted children.
	Tolerance decimal.Decimal `yaml:"tolerance" json:"tolerance"`
	// ZeroTolerance is the absolute difference allowed when the parent is
	// zero.
	ZeroTolerance decimal.Decimal `yaml:"zero_tolerance" json:"zero_tolerance"`
	PrimaryOnly   bool            `yaml:"primary_only" json:"primary_only"`
}

// LogConfig configures logging.Setup.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Pretty bool   `yaml:"pretty" json:"pretty"`
}

// HistoryConfig locates the run-history database.
type HistoryConfig struct {
	Path     string `yaml:"path" json:"path"`
	Disabled bool   `yaml:"disabled" json:"disabled"`
}

// MetricsConfig enables the /metrics endpoint when Addr is set.
type MetricsConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// IngestConfig controls batch processing.
type IngestConfig struct {
	Parallel  int `yaml:"parallel" json:"parallel"`
	BatchSize int `yaml:"batch_size" json:"batch_size"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Neo4j: Neo4jConfig{
			URI:      "bolt://localhost:7687",
			Database: "memgraph",
		},
		Validation: ValidationConfig{
			Tolerance:     decimal.RequireFromString("0.01"),
			ZeroTolerance: decimal.RequireFromString("0.5"),
			PrimaryOnly:   true,
		},
		Log:     LogConfig{Level: "info"},
		History: HistoryConfig{Path: Path("history.db")},
		Ingest:  IngestConfig{Parallel: 1, BatchSize: 500},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("NEO4J_URI", &c.Neo4j.URI)
	str("NEO4J_USER", &c.Neo4j.User)
	str("NEO4J_PASSWORD", &c.Neo4j.Password)
	str("NEO4J_DATABASE", &c.Neo4j.Database)
	str("XBRL_LOG_LEVEL", &c.Log.Level)
	str("XBRL_HISTORY_PATH", &c.History.Path)
	str("XBRL_METRICS_ADDR", &c.Metrics.Addr)

	for key, dst := range map[string]*decimal.Decimal{
		"XBRL_TOLERANCE":      &c.Validation.Tolerance,
		"XBRL_ZERO_TOLERANCE": &c.Validation.ZeroTolerance,
	} {
		if v, ok := lookup(key); ok && v != "" {
			d, err := decimal.NewFromString(v)
			if err != nil {
				return fmt.Errorf("%s=%q: %w", key, v, ErrInvalid)
			}
			*dst = d
		}
	}
	if v, ok := lookup("XBRL_LOG_PRETTY"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("XBRL_LOG_PRETTY=%q: %w", v, ErrInvalid)
		}
		c.Log.Pretty = b
	}
	if v, ok := lookup("XBRL_PARALLEL"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("XBRL_PARALLEL=%q: %w", v, ErrInvalid)
		}
		c.Ingest.Parallel = n
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch {
	case !c.Validation.Tolerance.IsPositive():
		return fmt.Errorf("validation.tolerance must be positive: %w", ErrInvalid)
	case c.Validation.ZeroTolerance.IsNegative():
		return fmt.Errorf("validation.zero_tolerance must not be negative: %w", ErrInvalid)
	case c.Ingest.Parallel < 1:
		return fmt.Errorf("ingest.parallel must be at least 1: %w", ErrInvalid)
	case c.Ingest.BatchSize < 1:
		return fmt.Errorf("ingest.batch_size must be at least 1: %w", ErrInvalid)
	case c.Neo4j.URI == "":
		return fmt.Errorf("neo4j.uri is required: %w", ErrInvalid)
	}
	return nil
}
