// Package config loads the resolvectl demo harness's configuration from
// an optional YAML file plus environment variable overrides. This is
// purely a CLI-harness concern; ResolverSession itself never reads the
// environment or a file, it only accepts an Options struct from its caller.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the demo harness's settings.
type Config struct {
	Resolver ResolverConfig `yaml:"resolver"`
	Fixture  FixtureConfig  `yaml:"fixture"`
	Log      LogConfig      `yaml:"log"`
}

// ResolverConfig mirrors the closed configuration set exposed by
// Options: batch window, schema TTL, and debug logging.
type ResolverConfig struct {
	BatchWindowMS int  `yaml:"batch_window_ms"`
	SchemaTTLMS   int  `yaml:"schema_ttl_ms"`
	DebugLog      bool `yaml:"debug_log"`
}

// FixtureConfig points resolvectl at the JSON fixture file backing its
// in-memory QueryClient.
type FixtureConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// BatchWindow and SchemaTTL convert the config's millisecond fields to
// time.Duration for handoff to resolvercore.Options.
func (r ResolverConfig) BatchWindow() time.Duration {
	return time.Duration(r.BatchWindowMS) * time.Millisecond
}

func (r ResolverConfig) SchemaTTL() time.Duration {
	return time.Duration(r.SchemaTTLMS) * time.Millisecond
}

// Load reads configuration from an optional YAML file and environment
// variables, in that order, with defaults applied first.
func Load() (Config, error) {
	cfg := Config{
		Resolver: ResolverConfig{
			BatchWindowMS: 5,
			SchemaTTLMS:   300_000,
			DebugLog:      false,
		},
		Fixture: FixtureConfig{
			Path: "fixtures/board.json",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("RESOLVECTL_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if ms := os.Getenv("RESOLVECTL_BATCH_WINDOW_MS"); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RESOLVECTL_BATCH_WINDOW_MS: %w", err)
		}
		cfg.Resolver.BatchWindowMS = v
	}
	if ms := os.Getenv("RESOLVECTL_SCHEMA_TTL_MS"); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RESOLVECTL_SCHEMA_TTL_MS: %w", err)
		}
		cfg.Resolver.SchemaTTLMS = v
	}
	if debug := os.Getenv("RESOLVECTL_DEBUG_LOG"); debug != "" {
		v, err := strconv.ParseBool(debug)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RESOLVECTL_DEBUG_LOG: %w", err)
		}
		cfg.Resolver.DebugLog = v
	}
	if path := os.Getenv("RESOLVECTL_FIXTURE_PATH"); path != "" {
		cfg.Fixture.Path = path
	}
	if level := os.Getenv("RESOLVECTL_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
