// Package config provides YAML configuration parsing for NetPulse.
//
// This package enables running NetPulse as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	interval: 2s
//	probe_url: http://ipv4.download.thinkbroadband.com/5MB.zip
//	byte_budget: 262144
//	max_concurrency: 8
//
//	targets:
//	  - 8.8.8.8:53
//	  - 1.1.1.1:53
//	  - google.com:80
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for NetPulse.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Targets lists "host:port" specs to probe. The port may be
	// omitted and defaults to 80. If empty, the built-in default
	// targets are used at build time.
	Targets []string `yaml:"targets"`

	// ProbeURL is the URL the download throughput probe reads from.
	// Supports environment variable substitution: ${VAR} or
	// ${VAR:-default}. Empty means the built-in default.
	ProbeURL string `yaml:"probe_url"`

	// ByteBudget is the maximum number of bytes read per download
	// probe. Zero means the built-in default (256 KiB).
	ByteBudget int64 `yaml:"byte_budget"`

	// Interval is the sampling cadence. Accepts duration strings like
	// "2s", "1m", "500ms". Defaults to 2s. Values below 1s are
	// clamped by the engine.
	Interval Duration `yaml:"interval"`

	// MaxConcurrency limits concurrent latency probes per cycle.
	// Zero means the built-in default.
	MaxConcurrency int `yaml:"max_concurrency"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in ProbeURL. A default Interval of
// 2s is applied; every other zero field is defaulted later by the
// engine options built in [BuildOptions].
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Interval == 0 {
		cfg.Interval = Duration(2 * time.Second)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Interval.Duration() < 0 {
		return fmt.Errorf("interval cannot be negative, got %s", c.Interval.Duration())
	}

	if c.ByteBudget < 0 {
		return fmt.Errorf("byte_budget cannot be negative, got %d", c.ByteBudget)
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got %d", c.MaxConcurrency)
	}

	if c.ProbeURL != "" {
		expanded, err := expandEnvVars(c.ProbeURL)
		if err != nil {
			return fmt.Errorf("probe_url: %w", err)
		}
		c.ProbeURL = expanded

		parsedURL, err := url.Parse(c.ProbeURL)
		if err != nil {
			return fmt.Errorf("invalid probe_url: %w", err)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("probe_url scheme must be http or https, got %q", parsedURL.Scheme)
		}
	}

	return nil
}
