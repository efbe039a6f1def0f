// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import "time"

// Config is the root configuration structure for scanbridge.
// It aggregates all other specific configuration structs.
type Config struct {
	Log      LogConfig      `description:"Logging configuration" koanf:"log"`
	Nessus   NessusConfig   `description:"Nessus scanner connection" koanf:"nessus"`
	Paramify ParamifyConfig `description:"Paramify platform connection" koanf:"paramify"`
	GitHub   GitHubConfig   `description:"GitHub repository access" koanf:"github"`
	Export   ExportConfig   `description:"Scanner export polling" koanf:"export"`
	Search   SearchConfig   `description:"Repository scan file search" koanf:"search"`
}

// LogConfig holds logging related configuration.
type LogConfig struct {
	Level  string `description:"Log level (debug, info, warn, error)" koanf:"level"`
	Format string `description:"Log format: json | text" koanf:"format"`
	File   string `description:"Log file path" koanf:"file"`
}

// NessusConfig holds the scanner endpoint and API keys.
type NessusConfig struct {
	URL                string        `description:"Scanner base URL" koanf:"url"`
	AccessKey          string        `description:"API access key" koanf:"access_key"`
	SecretKey          string        `description:"API secret key" koanf:"secret_key"`
	InsecureSkipVerify bool          `description:"Skip TLS verification (self-signed certificates)" koanf:"insecure_skip_verify"`
	Timeout            time.Duration `description:"Per-request timeout" koanf:"timeout"`
}

// ParamifyConfig holds the platform endpoint and API key.
type ParamifyConfig struct {
	BaseURL string        `description:"API base URL" koanf:"base_url"`
	APIKey  string        `description:"API bearer key" koanf:"api_key"`
	Timeout time.Duration `description:"Per-request timeout" koanf:"timeout"`
}

// GitHubConfig holds repository access settings.
type GitHubConfig struct {
	BaseURL           string        `description:"REST API base URL" koanf:"base_url"`
	Token             string        `description:"Personal access token (private repositories)" koanf:"token"`
	RequestsPerSecond float64       `description:"Initial request rate" koanf:"requests_per_second"`
	Burst             int           `description:"Request burst size" koanf:"burst"`
	Timeout           time.Duration `description:"Per-request timeout" koanf:"timeout"`
}

// ExportConfig bounds the scanner export poll loop.
type ExportConfig struct {
	Format       string        `description:"Export format (nessus, csv, html, pdf, db)" koanf:"format"`
	MaxAttempts  int           `description:"Status checks before giving up" koanf:"max_attempts"`
	PollInterval time.Duration `description:"Delay between status checks" koanf:"poll_interval"`
}

// SearchConfig controls repository tree searches.
type SearchConfig struct {
	Extensions []string `description:"File extensions to match" koanf:"extensions"`
	Recursive  bool     `description:"Search subdirectories without a depth limit" koanf:"recursive"`
	MaxDepth   int      `description:"Directory levels to enter when not recursive" koanf:"max_depth"`
}
