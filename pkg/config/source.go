// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/vulntor/scanbridge/pkg/paths"
)

// EnvPrefix prefixes every scanbridge environment variable.
const EnvPrefix = "SCANBRIDGE_"

// ConfigSource represents a configuration source that can load values into koanf.
// Sources are loaded in priority order (lowest first), with higher priority sources
// overriding lower priority values.
//
// Built-in sources and their priorities:
//   - DefaultSource (10): Hardcoded default values
//   - FileSource (20): Config file (e.g., ~/.scanbridge/config.yaml)
//   - LegacyEnvSource (25): Unprefixed NESSUS_*, PARAMIFY_* and GITHUB_TOKEN
//   - EnvSource (30): Environment variables (SCANBRIDGE_*)
//   - FlagSource (40): Command-line flags
type ConfigSource interface {
	// Name returns a human-readable name for this source (for logging/debugging)
	Name() string

	// Priority returns the load priority. Lower values are loaded first,
	// higher values override lower ones.
	Priority() int

	// Load loads configuration values into the provided koanf instance.
	Load(k *koanf.Koanf) error
}

// DefaultSource provides hardcoded default configuration values.
type DefaultSource struct{}

func (s *DefaultSource) Name() string  { return "defaults" }
func (s *DefaultSource) Priority() int { return 10 }

func (s *DefaultSource) Load(k *koanf.Koanf) error {
	if err := k.Load(confmap.Provider(DefaultConfigAsMap(), "."), nil); err != nil {
		return fmt.Errorf("error loading defaults: %w", err)
	}
	return nil
}

// FileSource loads configuration from a YAML file.
type FileSource struct {
	Path string // Path to config file (optional, silently skipped if empty or missing)
}

func (s *FileSource) Name() string  { return "file:" + s.Path }
func (s *FileSource) Priority() int { return 20 }

func (s *FileSource) Load(k *koanf.Koanf) error {
	if s.Path == "" {
		return nil
	}

	if _, err := os.Stat(s.Path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("error checking config file %s: %w", s.Path, err)
	}

	if err := k.Load(file.Provider(s.Path), yaml.Parser()); err != nil {
		return fmt.Errorf("error loading config file %s: %w", s.Path, err)
	}
	return nil
}

// legacyEnvKeys maps the variable names used by earlier deployments.
var legacyEnvKeys = map[string]string{
	"NESSUS_URL":        "nessus.url",
	"NESSUS_ACCESS_KEY": "nessus.access_key",
	"NESSUS_SECRET_KEY": "nessus.secret_key",
	"PARAMIFY_API_KEY":  "paramify.api_key",
	"PARAMIFY_BASE_URL": "paramify.base_url",
	"GITHUB_TOKEN":      "github.token",
}

// LegacyEnvSource reads the unprefixed variables listed in legacyEnvKeys.
// Empty values are ignored.
type LegacyEnvSource struct {
	// Lookup replaces os.LookupEnv (tests).
	Lookup func(string) (string, bool)
}

func (s *LegacyEnvSource) Name() string  { return "legacy-env" }
func (s *LegacyEnvSource) Priority() int { return 25 }

func (s *LegacyEnvSource) Load(k *koanf.Koanf) error {
	lookup := s.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	values := map[string]interface{}{}
	for name, key := range legacyEnvKeys {
		if v, ok := lookup(name); ok && v != "" {
			values[key] = v
		}
	}
	if len(values) == 0 {
		return nil
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return fmt.Errorf("error loading legacy environment variables: %w", err)
	}
	return nil
}

// EnvSource loads configuration from environment variables.
// Variables must have the SCANBRIDGE_ prefix. The first underscore after the
// prefix separates the section from the key:
//
//	SCANBRIDGE_LOG_LEVEL         -> log.level
//	SCANBRIDGE_NESSUS_ACCESS_KEY -> nessus.access_key
type EnvSource struct {
	Prefix string // Environment variable prefix (default: "SCANBRIDGE_")
}

func (s *EnvSource) Name() string  { return "env" }
func (s *EnvSource) Priority() int { return 30 }

func (s *EnvSource) Load(k *koanf.Koanf) error {
	prefix := s.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}

	if err := k.Load(env.Provider(prefix, ".", func(key string) string {
		return EnvKey(key, prefix)
	}), nil); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}
	return nil
}

// EnvKey converts an environment variable name into a koanf key.
func EnvKey(name, prefix string) string {
	key := strings.ToLower(strings.TrimPrefix(name, prefix))
	return strings.Replace(key, "_", ".", 1)
}

// FlagSource loads configuration from command-line flags.
type FlagSource struct {
	Flags *pflag.FlagSet
	Debug bool // If true, set log.level to "debug"
}

func (s *FlagSource) Name() string  { return "flags" }
func (s *FlagSource) Priority() int { return 40 }

func (s *FlagSource) Load(k *koanf.Koanf) error {
	if s.Flags != nil {
		if err := k.Load(posflag.Provider(s.Flags, ".", k), nil); err != nil {
			return fmt.Errorf("error loading command-line flags: %w", err)
		}
	}

	if s.Debug {
		_ = k.Set("log.level", "debug")
	}

	return nil
}

// DefaultSources returns the standard configuration sources.
// Order: defaults -> file -> legacy env -> env -> flags
// An empty configPath falls back to the user config file, if present.
func DefaultSources(configPath string, flags *pflag.FlagSet, debug bool) []ConfigSource {
	if configPath == "" {
		configPath = paths.DefaultConfigFile()
	}
	return []ConfigSource{
		&DefaultSource{},
		&FileSource{Path: configPath},
		&LegacyEnvSource{},
		&EnvSource{Prefix: EnvPrefix},
		&FlagSource{Flags: flags, Debug: debug},
	}
}
