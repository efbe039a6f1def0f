// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
)

// MissingKeysError lists required configuration keys that are unset.
type MissingKeysError struct {
	Section string
	Keys    []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("missing required %s configuration: %s", e.Section, strings.Join(e.Keys, ", "))
}

// EnvNames returns the environment variables that set the missing keys.
func (e *MissingKeysError) EnvNames() []string {
	names := make([]string, len(e.Keys))
	for i, key := range e.Keys {
		names[i] = EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	}
	return names
}

// ValidateNessus reports missing scanner credentials.
func (c Config) ValidateNessus() error {
	var missing []string
	if c.Nessus.URL == "" {
		missing = append(missing, "nessus.url")
	}
	if c.Nessus.AccessKey == "" {
		missing = append(missing, "nessus.access_key")
	}
	if c.Nessus.SecretKey == "" {
		missing = append(missing, "nessus.secret_key")
	}
	if len(missing) > 0 {
		return &MissingKeysError{Section: "nessus", Keys: missing}
	}
	return nil
}

// ValidateParamify reports missing platform credentials.
func (c Config) ValidateParamify() error {
	var missing []string
	if c.Paramify.BaseURL == "" {
		missing = append(missing, "paramify.base_url")
	}
	if c.Paramify.APIKey == "" {
		missing = append(missing, "paramify.api_key")
	}
	if len(missing) > 0 {
		return &MissingKeysError{Section: "paramify", Keys: missing}
	}
	return nil
}

// BindNessusFlags binds scanner connection flags. Secrets are deliberately
// not exposed as flags; set them through the environment or config file.
func BindNessusFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig().Nessus

	flags.String("nessus.url", defaults.URL, "Nessus scanner URL")
	flags.Bool("nessus.insecure_skip_verify", defaults.InsecureSkipVerify, "Skip TLS certificate verification")
	flags.Duration("nessus.timeout", defaults.Timeout, "Nessus request timeout")
}

// BindParamifyFlags binds platform connection flags.
func BindParamifyFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig().Paramify

	flags.String("paramify.base_url", defaults.BaseURL, "Paramify API base URL")
	flags.Duration("paramify.timeout", defaults.Timeout, "Paramify request timeout")
}

// BindGitHubFlags binds repository access flags.
func BindGitHubFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig().GitHub

	flags.String("github.base_url", defaults.BaseURL, "GitHub API base URL (GitHub Enterprise: https://host/api/v3/)")
	flags.Float64("github.requests_per_second", defaults.RequestsPerSecond, "Initial GitHub request rate")
	flags.Duration("github.timeout", defaults.Timeout, "GitHub request timeout")
}

// BindExportFlags binds export poll loop flags.
func BindExportFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig().Export

	flags.String("export.format", defaults.Format, "Export format (nessus, csv, html, pdf, db)")
	flags.Int("export.max_attempts", defaults.MaxAttempts, "Export status checks before giving up")
	flags.Duration("export.poll_interval", defaults.PollInterval, "Delay between export status checks")
}

// BindSearchFlags binds repository search flags.
func BindSearchFlags(flags *pflag.FlagSet) {
	defaults := DefaultConfig().Search

	flags.StringSlice("search.extensions", defaults.Extensions, "File extensions to search for")
	flags.Bool("search.recursive", defaults.Recursive, "Search subdirectories without a depth limit")
	flags.Int("search.max_depth", defaults.MaxDepth, "Directory levels to enter when --search.recursive=false")
}
