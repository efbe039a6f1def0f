// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Manager handles loading and accessing application configuration.
type Manager struct {
	koanfInstance *koanf.Koanf
	currentConfig Config
	mu            sync.RWMutex
}

// NewManager creates a Manager with an empty koanf instance.
func NewManager() *Manager {
	return &Manager{
		koanfInstance: koanf.New("."),
	}
}

// DefaultConfig returns a new Config struct populated with hardcoded default values.
// These serve as the baseline configuration if no other sources override them.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Nessus: NessusConfig{
			URL:                "https://localhost:8834",
			InsecureSkipVerify: true,
			Timeout:            60 * time.Second,
		},
		Paramify: ParamifyConfig{
			BaseURL: "https://stage.paramify.com/api/v0",
			Timeout: 120 * time.Second,
		},
		GitHub: GitHubConfig{
			BaseURL:           "https://api.github.com/",
			RequestsPerSecond: 1.25,
			Burst:             5,
			Timeout:           60 * time.Second,
		},
		Export: ExportConfig{
			Format:       "nessus",
			MaxAttempts:  30,
			PollInterval: 2 * time.Second,
		},
		Search: SearchConfig{
			Extensions: []string{".nessus", ".csv"},
			Recursive:  true,
		},
	}
}

// Load loads configuration from the default sources: defaults, the optional
// YAML file at configPath, the environment and finally flags.
func (m *Manager) Load(flags *pflag.FlagSet, configPath string) error {
	debug := false
	if flags != nil {
		if f := flags.Lookup("debug"); f != nil && f.Value.String() == "true" {
			debug = true
		}
	}
	return m.LoadWithSources(DefaultSources(configPath, flags, debug))
}

// LoadWithSources loads the given sources in priority order into a fresh
// koanf instance and unmarshals the merged result.
func (m *Manager) LoadWithSources(sources []ConfigSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	ordered := make([]ConfigSource, len(sources))
	copy(ordered, sources)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority() < ordered[j].Priority()
	})

	k := koanf.New(".")
	for _, src := range ordered {
		if err := src.Load(k); err != nil {
			return fmt.Errorf("load %s: %w", src.Name(), err)
		}
	}

	var newCfg Config
	if err := k.UnmarshalWithConf("", &newCfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return fmt.Errorf("error unmarshaling final config: %w", err)
	}

	m.koanfInstance = k
	m.currentConfig = newCfg
	return nil
}

// Get returns a copy of the current configuration.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg := m.currentConfig
	cfg.Search.Extensions = append([]string(nil), m.currentConfig.Search.Extensions...)
	return cfg
}

// Koanf exposes the merged key space, e.g. for printing the effective config.
func (m *Manager) Koanf() *koanf.Koanf {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.koanfInstance
}

// DefaultConfigAsMap converts the DefaultConfig struct to a map[string]interface{}
// for Koanf's confmap.Provider. This is a bit manual but ensures Koanf knows all keys.
func DefaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,
		"log.file":   def.Log.File,

		"nessus.url":                  def.Nessus.URL,
		"nessus.access_key":           def.Nessus.AccessKey,
		"nessus.secret_key":           def.Nessus.SecretKey,
		"nessus.insecure_skip_verify": def.Nessus.InsecureSkipVerify,
		"nessus.timeout":              def.Nessus.Timeout,

		"paramify.base_url": def.Paramify.BaseURL,
		"paramify.api_key":  def.Paramify.APIKey,
		"paramify.timeout":  def.Paramify.Timeout,

		"github.base_url":            def.GitHub.BaseURL,
		"github.token":               def.GitHub.Token,
		"github.requests_per_second": def.GitHub.RequestsPerSecond,
		"github.burst":               def.GitHub.Burst,
		"github.timeout":             def.GitHub.Timeout,

		"export.format":        def.Export.Format,
		"export.max_attempts":  def.Export.MaxAttempts,
		"export.poll_interval": def.Export.PollInterval,

		"search.extensions": def.Search.Extensions,
		"search.recursive":  def.Search.Recursive,
		"search.max_depth":  def.Search.MaxDepth,
	}
}

// BindFlags defines the global flags that override configuration settings.
// Backend-specific flags are bound by the commands that need them.
func BindFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig()

	flags.String("log.level", defaults.Log.Level, "Log level (debug, info, warn, error)")
	flags.String("log.format", defaults.Log.Format, "Log format (text, json)")
	flags.String("log.file", defaults.Log.File, "Append logs to this file instead of stderr")
	flags.Bool("debug", false, "Enable debug logging")
}
