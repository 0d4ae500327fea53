// Package config provides configuration loading and validation for nsisolate.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrMissingPrefix     = errors.New("isolation prefix is required")
	ErrInvalidPrefix     = errors.New("isolation prefix must be a single PHP identifier")
	ErrInvalidWorkers    = errors.New("workers must not be negative")
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidLogFormat  = errors.New("invalid log format")
	ErrInvalidSampleRate = errors.New("trace sample ratio must be within [0, 1]")
)

// envPrefix is the prefix of environment variable overrides (NSISOLATE_PREFIX, ...).
const envPrefix = "NSISOLATE"

// configName is the base name of the configuration file searched for when
// no explicit path is given.
const configName = ".nsisolate"

// identifierPattern matches a PHP identifier (one namespace segment).
var identifierPattern = regexp.MustCompile(`^[A-Za-z_\x{80}-\x{10FFFF}][A-Za-z0-9_\x{80}-\x{10FFFF}]*$`)

// Config holds all configuration for an isolation run.
type Config struct {
	Prefix        string          `mapstructure:"prefix"`
	VendorDir     string          `mapstructure:"vendor_dir"`
	InstalledJSON string          `mapstructure:"installed_json"`
	ComposerJSON  string          `mapstructure:"composer_json"`
	Namespaces    NamespaceConfig `mapstructure:"namespaces"`
	Packages      PackageConfig   `mapstructure:"packages"`
	ExcludeDirs   []string        `mapstructure:"exclude_dirs"`
	Workers       int             `mapstructure:"workers"`
	DryRun        bool            `mapstructure:"dry_run"`
	FailFast      bool            `mapstructure:"fail_fast"`
	Autoload      AutoloadConfig  `mapstructure:"autoload"`
	Logging       LoggingConfig   `mapstructure:"logging"`
	Telemetry     TelemetryConfig `mapstructure:"telemetry"`
}

// NamespaceConfig holds namespace selection rules on top of the ones read
// from Composer manifests.
type NamespaceConfig struct {
	Include  []string `mapstructure:"include"`
	Exclude  []string `mapstructure:"exclude"`
	Patterns []string `mapstructure:"patterns"`
}

// PackageConfig holds Composer package selection rules.
type PackageConfig struct {
	Exclude []string `mapstructure:"exclude"`
}

// AutoloadConfig controls the static autoloader patch.
type AutoloadConfig struct {
	RewriteFileKeys bool `mapstructure:"rewrite_file_keys"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TelemetryConfig holds tracing and metrics export configuration.
type TelemetryConfig struct {
	OTLPEndpoint    string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders     string  `mapstructure:"otlp_headers"`
	MetricsTextfile string  `mapstructure:"metrics_textfile"`
	SampleRatio     float64 `mapstructure:"sample_ratio"`
	OTLPInsecure    bool    `mapstructure:"otlp_insecure"`
}

// LoadConfig loads configuration from file and environment variables.
// With an empty configPath, .nsisolate.{yaml,yml,json,toml} is searched for in
// the working directory and ./config; a missing file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
	}

	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	validateErr := config.Validate()
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("prefix", "")
	viperCfg.SetDefault("vendor_dir", DefaultVendorDir)
	viperCfg.SetDefault("installed_json", "")
	viperCfg.SetDefault("composer_json", DefaultComposerJSON)
	viperCfg.SetDefault("exclude_dirs", DefaultExcludeDirs)
	viperCfg.SetDefault("workers", DefaultWorkers)
	viperCfg.SetDefault("dry_run", DefaultDryRun)
	viperCfg.SetDefault("fail_fast", DefaultFailFast)

	viperCfg.SetDefault("namespaces.include", []string{})
	viperCfg.SetDefault("namespaces.exclude", []string{})
	viperCfg.SetDefault("namespaces.patterns", []string{})
	viperCfg.SetDefault("packages.exclude", []string{})

	viperCfg.SetDefault("autoload.rewrite_file_keys", DefaultRewriteFileKeys)

	viperCfg.SetDefault("logging.level", DefaultLogLevel)
	viperCfg.SetDefault("logging.format", DefaultLogFormat)

	viperCfg.SetDefault("telemetry.otlp_endpoint", "")
	viperCfg.SetDefault("telemetry.otlp_headers", "")
	viperCfg.SetDefault("telemetry.otlp_insecure", false)
	viperCfg.SetDefault("telemetry.metrics_textfile", "")
	viperCfg.SetDefault("telemetry.sample_ratio", DefaultSampleRatio)
}

// Validate checks the configuration. The prefix is only checked for shape
// here because it is commonly supplied later on the command line; use
// ValidateForRun once all overrides are applied.
func (c *Config) Validate() error {
	if c.Prefix != "" && !identifierPattern.MatchString(c.Prefix) {
		return fmt.Errorf("%w: %q", ErrInvalidPrefix, c.Prefix)
	}

	if c.Workers < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		return err
	}

	switch c.Logging.Format {
	case LogFormatText, LogFormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRate, c.Telemetry.SampleRatio)
	}

	return nil
}

// ValidateForRun validates the configuration and requires a prefix.
func (c *Config) ValidateForRun() error {
	if c.Prefix == "" {
		return ErrMissingPrefix
	}

	return c.Validate()
}

// InstalledPath returns the installed.json location, derived from the
// vendor directory unless set explicitly.
func (c *Config) InstalledPath() string {
	if c.InstalledJSON != "" {
		return c.InstalledJSON
	}

	return filepath.Join(c.VendorDir, filepath.FromSlash(installedJSONPath))
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() slog.Level {
	level, err := parseLevel(c.Logging.Level)
	if err != nil {
		return slog.LevelInfo
	}

	return level
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level

	err := level.UnmarshalText([]byte(raw))
	if err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLogLevel, raw)
	}

	return level, nil
}
