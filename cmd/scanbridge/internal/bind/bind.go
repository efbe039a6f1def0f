// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package bind turns command flags into validated option structs.
package bind

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"

	"github.com/vulntor/scanbridge/pkg/importer"
)

var validate = validator.New()

// ImportTargetOptions are the assessment-side inputs shared by every import command.
type ImportTargetOptions struct {
	AssessmentID  string `validate:"required,uuid"`
	EffectiveDate string `validate:"omitempty,datetime=2006-01-02"`
	Metadata      map[string]any
}

// ScanImportOptions contains validated options for the import command
type ScanImportOptions struct {
	ImportTargetOptions
	ScanID int64 `validate:"gt=0"`
}

// RepositoryOptions locates a GitHub repository tree.
type RepositoryOptions struct {
	Repo  string `validate:"required"`
	Ref   string
	Path  string
	Token string
}

// GitHubImportOptions contains validated options for the import-github command
type GitHubImportOptions struct {
	ImportTargetOptions
	RepositoryOptions
	File string
}

// LocalImportOptions contains validated options for the import-local command
type LocalImportOptions struct {
	ImportTargetOptions
	Dir  string `validate:"required"`
	File string
}

// BindImportTargetOptions extracts --assessment-id, --effective-date and --metadata.
func BindImportTargetOptions(cmd *cobra.Command) (ImportTargetOptions, error) {
	assessmentID, _ := cmd.Flags().GetString("assessment-id")
	effectiveDate, _ := cmd.Flags().GetString("effective-date")
	pairs, _ := cmd.Flags().GetStringArray("metadata")

	metadata, err := ParseMetadata(pairs)
	if err != nil {
		return ImportTargetOptions{}, err
	}

	opts := ImportTargetOptions{
		AssessmentID:  strings.ToLower(strings.TrimSpace(assessmentID)),
		EffectiveDate: strings.TrimSpace(effectiveDate),
		Metadata:      metadata,
	}
	return opts, check(opts)
}

// BindScanImportOptions extracts and validates import flags from the command
func BindScanImportOptions(cmd *cobra.Command) (ScanImportOptions, error) {
	target, err := BindImportTargetOptions(cmd)
	if err != nil {
		return ScanImportOptions{}, err
	}
	scanID, _ := cmd.Flags().GetInt64("scan-id")

	opts := ScanImportOptions{ImportTargetOptions: target, ScanID: scanID}
	return opts, check(opts)
}

// BindRepositoryOptions extracts and validates --repo, --ref, --path and --token.
func BindRepositoryOptions(cmd *cobra.Command) (RepositoryOptions, error) {
	repo, _ := cmd.Flags().GetString("repo")
	ref, _ := cmd.Flags().GetString("ref")
	path, _ := cmd.Flags().GetString("path")
	token, _ := cmd.Flags().GetString("token")

	opts := RepositoryOptions{
		Repo:  strings.TrimSpace(repo),
		Ref:   strings.TrimSpace(ref),
		Path:  strings.Trim(strings.TrimSpace(path), "/"),
		Token: token,
	}
	return opts, check(opts)
}

// BindGitHubImportOptions extracts and validates import-github flags.
func BindGitHubImportOptions(cmd *cobra.Command) (GitHubImportOptions, error) {
	target, err := BindImportTargetOptions(cmd)
	if err != nil {
		return GitHubImportOptions{}, err
	}
	repo, err := BindRepositoryOptions(cmd)
	if err != nil {
		return GitHubImportOptions{}, err
	}
	file, _ := cmd.Flags().GetString("file")

	return GitHubImportOptions{
		ImportTargetOptions: target,
		RepositoryOptions:   repo,
		File:                strings.TrimSpace(file),
	}, nil
}

// BindLocalImportOptions extracts and validates import-local flags.
func BindLocalImportOptions(cmd *cobra.Command) (LocalImportOptions, error) {
	target, err := BindImportTargetOptions(cmd)
	if err != nil {
		return LocalImportOptions{}, err
	}
	dir, _ := cmd.Flags().GetString("dir")
	file, _ := cmd.Flags().GetString("file")

	opts := LocalImportOptions{
		ImportTargetOptions: target,
		Dir:                 strings.TrimSpace(dir),
		File:                strings.TrimSpace(file),
	}
	return opts, check(opts)
}

// ParseMetadata turns key=value pairs into artifact metadata. The literals
// true and false become booleans and plain decimal integers become int64.
// Everything else, including "007" and "0x1F", stays a string.
func ParseMetadata(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, importer.ValidationError("metadata", "expected key=value, got %q", pair)
		}
		metadata[key] = metadataValue(strings.TrimSpace(value))
	}
	return metadata, nil
}

func metadataValue(raw string) any {
	switch raw {
	case "true":
		return true
	case "false":
		return false
	}
	if isDecimal(raw) {
		if n, err := cast.ToInt64E(raw); err == nil {
			return n
		}
	}
	return raw
}

// isDecimal reports whether s is a base-10 integer with no leading zeros.
// cast accepts 0x, 0o, 0b and underscores, which metadata keeps verbatim.
func isDecimal(s string) bool {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// check runs struct validation and reports the first failing field as an
// importer validation error.
func check(opts any) error {
	err := validate.Struct(opts)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return importer.ValidationError("flags", "%s", describe(fe))
	}
	return importer.ValidationError("flags", "%v", err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("--%s is required", flagName(fe.Field()))
	case "uuid":
		return fmt.Sprintf("--%s must be a UUID, got %q", flagName(fe.Field()), fe.Value())
	case "datetime":
		return fmt.Sprintf("--%s must be YYYY-MM-DD, got %q", flagName(fe.Field()), fe.Value())
	case "gt":
		return fmt.Sprintf("--%s must be positive, got %v", flagName(fe.Field()), fe.Value())
	default:
		return fmt.Sprintf("--%s failed %q check", flagName(fe.Field()), fe.Tag())
	}
}

var flagNames = map[string]string{
	"AssessmentID":  "assessment-id",
	"EffectiveDate": "effective-date",
	"ScanID":        "scan-id",
	"Repo":          "repo",
	"Dir":           "dir",
}

func flagName(field string) string {
	if name, ok := flagNames[field]; ok {
		return name
	}
	return strings.ToLower(field)
}
