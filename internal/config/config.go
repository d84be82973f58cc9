// Package config loads the YAML configuration of a signal run.
package config

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signal/internal/strategy"
	"github.com/rxtech-lab/argo-signal/internal/version"
	"github.com/rxtech-lab/argo-signal/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLogLevel    = "info"
	DefaultResultsPath = "results/signals.parquet"
)

// RunConfig is the configuration of one run.
type RunConfig struct {
	EngineVersion string           `yaml:"engine_version" jsonschema:"title=Engine Version,description=Engine version the config was written for" validate:"required"`
	LogLevel      string           `yaml:"log_level" jsonschema:"title=Log Level,enum=debug,enum=info,enum=warn,enum=error,default=info" validate:"omitempty,oneof=debug info warn error"`
	Data          DataConfig       `yaml:"data" jsonschema:"title=Data"`
	Strategies    []StrategyConfig `yaml:"strategies" jsonschema:"title=Strategies" validate:"required,min=1,dive"`
	Results       ResultsConfig    `yaml:"results" jsonschema:"title=Results"`
}

// DataConfig selects the market data files and the time range to replay.
type DataConfig struct {
	Paths     []string   `yaml:"paths" jsonschema:"title=Paths,description=CSV or Parquet files; globs are expanded relative to the config file" validate:"required,min=1,dive,required"`
	StartTime *time.Time `yaml:"start_time,omitempty" jsonschema:"title=Start Time,format=date-time"`
	EndTime   *time.Time `yaml:"end_time,omitempty" jsonschema:"title=End Time,format=date-time"`
}

// StrategyConfig binds one strategy to every listed symbol.
type StrategyConfig struct {
	Name    string         `yaml:"name" jsonschema:"title=Name,description=Registered strategy name" validate:"required"`
	Symbols []string       `yaml:"symbols" jsonschema:"title=Symbols,description=One instance is bound to each symbol" validate:"required,min=1"`
	Config  map[string]any `yaml:"config,omitempty" jsonschema:"title=Config,description=Strategy specific config"`
}

// ResultsConfig is where the recorded signals are exported.
type ResultsConfig struct {
	Path string `yaml:"path" jsonschema:"title=Path,description=Export file (.parquet or .csv)" validate:"omitempty,endswith=.parquet|endswith=.csv"`
}

var validate = validator.New()

// Parse decodes, defaults and validates a run configuration. Unknown keys are rejected.
// Data paths are returned as written.
func Parse(data []byte) (*RunConfig, error) {
	var cfg RunConfig

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if cfg.Results.Path == "" {
		cfg.Results.Path = DefaultResultsPath
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if cfg.Data.StartTime != nil && cfg.Data.EndTime != nil && !cfg.Data.EndTime.After(*cfg.Data.StartTime) {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration,
			"data.end_time %s must be after data.start_time %s", cfg.Data.EndTime, cfg.Data.StartTime)
	}

	if err := version.Check(cfg.EngineVersion); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Load reads the configuration at path and expands its data globs relative to the
// config file's directory.
func Load(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	paths, err := ExpandPaths(filepath.Dir(path), cfg.Data.Paths)
	if err != nil {
		return nil, err
	}

	cfg.Data.Paths = paths

	return cfg, nil
}

// ExpandPaths resolves patterns against baseDir and expands globs. The result is sorted and
// free of duplicates. A pattern that matches nothing is an error.
func ExpandPaths(baseDir string, patterns []string) ([]string, error) {
	seen := make(map[string]bool)

	var paths []string

	for _, pattern := range patterns {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(baseDir, pattern)
		}

		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid data path %s", pattern)
		}

		if len(matches) == 0 {
			return nil, errors.Newf(errors.ErrCodeDataNotFound, "no market data file matches %s", pattern)
		}

		for _, match := range matches {
			if !seen[match] {
				seen[match] = true
				paths = append(paths, match)
			}
		}
	}

	sort.Strings(paths)

	return paths, nil
}

// Start returns the configured start of the replay.
func (d DataConfig) Start() optional.Option[time.Time] {
	if d.StartTime == nil {
		return optional.None[time.Time]()
	}

	return optional.Some(*d.StartTime)
}

// End returns the configured end of the replay.
func (d DataConfig) End() optional.Option[time.Time] {
	if d.EndTime == nil {
		return optional.None[time.Time]()
	}

	return optional.Some(*d.EndTime)
}

// EncodedConfig returns the strategy config re-encoded as YAML, or "" when there is none.
func (s StrategyConfig) EncodedConfig() (string, error) {
	if len(s.Config) == 0 {
		return "", nil
	}

	out, err := yaml.Marshal(s.Config)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeStrategyConfigError, err, "failed to encode config of %s", s.Name)
	}

	return strings.TrimSpace(string(out)), nil
}

// Schema returns the JSON schema of RunConfig.
func Schema() (string, error) {
	return strategy.ToJSONSchema(RunConfig{})
}
