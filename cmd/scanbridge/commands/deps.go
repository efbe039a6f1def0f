// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/format"
	"github.com/vulntor/scanbridge/pkg/appctx"
	"github.com/vulntor/scanbridge/pkg/config"
	"github.com/vulntor/scanbridge/pkg/github"
	"github.com/vulntor/scanbridge/pkg/importer"
	"github.com/vulntor/scanbridge/pkg/nessus"
	"github.com/vulntor/scanbridge/pkg/output"
	"github.com/vulntor/scanbridge/pkg/paramify"
)

// reportedError marks an error whose failure summary was already printed.
type reportedError struct {
	error
}

func (e *reportedError) Unwrap() error { return e.error }

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var re *reportedError
	return errors.As(err, &re)
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var missing *config.MissingKeysError
	if errors.As(err, &missing) {
		return 2
	}
	return importer.ExitCode(err)
}

// codeMissingConfiguration tags credential errors raised before any backend is contacted.
const codeMissingConfiguration = "MISSING_CONFIGURATION"

// fail prints the failure summary for operation and returns err marked as reported.
func fail(f format.Formatter, operation string, err error) error {
	code := importer.ErrorCode(err)
	suggestions := importer.Suggestions(err)

	var missing *config.MissingKeysError
	if errors.As(err, &missing) {
		suggestions = nil
		for _, name := range missing.EnvNames() {
			suggestions = append(suggestions, "Set environment variable: "+name)
		}
	}

	if printErr := f.PrintTotalFailureSummary(operation, err, code, suggestions); printErr != nil {
		return printErr
	}
	return &reportedError{error: err}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	mgr, ok := appctx.Config(cmd.Context())
	if !ok {
		return config.Config{}, fmt.Errorf("configuration not loaded")
	}
	return mgr.Get(), nil
}

func newNessusClient(cfg config.Config) (*nessus.Client, error) {
	if err := cfg.ValidateNessus(); err != nil {
		return nil, importer.WithErrorCode(err, codeMissingConfiguration)
	}
	return nessus.NewClient(nessus.Options{
		URL:                cfg.Nessus.URL,
		AccessKey:          cfg.Nessus.AccessKey,
		SecretKey:          cfg.Nessus.SecretKey,
		InsecureSkipVerify: cfg.Nessus.InsecureSkipVerify,
		Timeout:            cfg.Nessus.Timeout,
	})
}

func newParamifyClient(cfg config.Config) (*paramify.Client, error) {
	if err := cfg.ValidateParamify(); err != nil {
		return nil, importer.WithErrorCode(err, codeMissingConfiguration)
	}
	return paramify.NewClient(paramify.Options{
		BaseURL: cfg.Paramify.BaseURL,
		APIKey:  cfg.Paramify.APIKey,
		Timeout: cfg.Paramify.Timeout,
	})
}

// newGitHubClient builds a GitHub client; a non-empty token overrides the configured one.
func newGitHubClient(cfg config.Config, token string) (*github.Client, error) {
	if token == "" {
		token = cfg.GitHub.Token
	}
	return github.NewClient(github.Options{
		BaseURL:           cfg.GitHub.BaseURL,
		Token:             token,
		Timeout:           cfg.GitHub.Timeout,
		RequestsPerSecond: cfg.GitHub.RequestsPerSecond,
		Burst:             cfg.GitHub.Burst,
	})
}

func exportSettings(cfg config.Config) importer.ExportSettings {
	return importer.ExportSettings{
		Format:       cfg.Export.Format,
		MaxAttempts:  cfg.Export.MaxAttempts,
		PollInterval: cfg.Export.PollInterval,
	}
}

func searchOptions(cfg config.Config, out output.Output) importer.SearchOptions {
	return importer.SearchOptions{
		Extensions: cfg.Search.Extensions,
		Recursive:  cfg.Search.Recursive,
		MaxDepth:   cfg.Search.MaxDepth,
		OnSuppressed: func(dir string, err error) {
			out.Diag(output.LevelDebug, fmt.Sprintf("Skipped %s: %v", displayDir(dir), err), nil)
		},
	}
}

func displayDir(dir string) string {
	if dir == "" {
		return "repository root"
	}
	return dir
}
