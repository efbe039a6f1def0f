// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package bind

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/scanbridge/pkg/importer"
)

const testAssessment = "0b6a3c4e-2f1d-4c57-9a0e-7d2a5f1b9c33"

func importCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Int64("scan-id", 0, "")
	cmd.Flags().String("assessment-id", "", "")
	cmd.Flags().String("effective-date", "", "")
	cmd.Flags().StringArray("metadata", nil, "")
	cmd.Flags().String("repo", "", "")
	cmd.Flags().String("ref", "", "")
	cmd.Flags().String("path", "", "")
	cmd.Flags().String("token", "", "")
	cmd.Flags().String("file", "", "")
	cmd.Flags().String("dir", "", "")
	return cmd
}

func TestBindScanImportOptions(t *testing.T) {
	tests := []struct {
		name    string
		flags   map[string][]string
		want    ScanImportOptions
		wantErr string
	}{
		{
			name: "all flags set",
			flags: map[string][]string{
				"scan-id":        {"42"},
				"assessment-id":  {testAssessment},
				"effective-date": {"2025-01-15"},
				"metadata":       {"team=blue", "quarter=3"},
			},
			want: ScanImportOptions{
				ImportTargetOptions: ImportTargetOptions{
					AssessmentID:  testAssessment,
					EffectiveDate: "2025-01-15",
					Metadata:      map[string]any{"team": "blue", "quarter": int64(3)},
				},
				ScanID: 42,
			},
		},
		{
			name: "uppercase assessment id is normalized",
			flags: map[string][]string{
				"scan-id":       {"1"},
				"assessment-id": {"0B6A3C4E-2F1D-4C57-9A0E-7D2A5F1B9C33"},
			},
			want: ScanImportOptions{
				ImportTargetOptions: ImportTargetOptions{AssessmentID: testAssessment},
				ScanID:              1,
			},
		},
		{
			name:    "missing assessment",
			flags:   map[string][]string{"scan-id": {"42"}},
			wantErr: "--assessment-id is required",
		},
		{
			name:    "bad assessment",
			flags:   map[string][]string{"scan-id": {"42"}, "assessment-id": {"not-a-uuid"}},
			wantErr: "--assessment-id must be a UUID",
		},
		{
			name: "bad date",
			flags: map[string][]string{
				"scan-id":        {"42"},
				"assessment-id":  {testAssessment},
				"effective-date": {"15/01/2025"},
			},
			wantErr: "--effective-date must be YYYY-MM-DD",
		},
		{
			name:    "missing scan id",
			flags:   map[string][]string{"assessment-id": {testAssessment}},
			wantErr: "--scan-id must be positive",
		},
		{
			name: "malformed metadata",
			flags: map[string][]string{
				"scan-id":       {"42"},
				"assessment-id": {testAssessment},
				"metadata":      {"novalue"},
			},
			wantErr: "expected key=value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := importCommand()
			for name, values := range tt.flags {
				for _, v := range values {
					require.NoError(t, cmd.Flags().Set(name, v))
				}
			}

			got, err := BindScanImportOptions(cmd)
			if tt.wantErr != "" {
				require.Error(t, err)
				require.ErrorIs(t, err, importer.ErrValidation)
				require.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestBindGitHubImportOptions(t *testing.T) {
	cmd := importCommand()
	require.NoError(t, cmd.Flags().Set("assessment-id", testAssessment))
	require.NoError(t, cmd.Flags().Set("repo", " acme/scans "))
	require.NoError(t, cmd.Flags().Set("path", "/reports/2025/"))
	require.NoError(t, cmd.Flags().Set("file", "weekly.nessus"))

	got, err := BindGitHubImportOptions(cmd)
	require.NoError(t, err)
	require.Equal(t, "acme/scans", got.Repo)
	require.Equal(t, "reports/2025", got.Path)
	require.Equal(t, "weekly.nessus", got.File)
	require.Equal(t, testAssessment, got.AssessmentID)
}

func TestBindRepositoryOptions_RequiresRepo(t *testing.T) {
	_, err := BindRepositoryOptions(importCommand())
	require.ErrorIs(t, err, importer.ErrValidation)
	require.Contains(t, err.Error(), "--repo is required")
}

func TestBindLocalImportOptions(t *testing.T) {
	cmd := importCommand()
	require.NoError(t, cmd.Flags().Set("assessment-id", testAssessment))

	_, err := BindLocalImportOptions(cmd)
	require.ErrorIs(t, err, importer.ErrValidation)
	require.Contains(t, err.Error(), "--dir is required")

	require.NoError(t, cmd.Flags().Set("dir", "./scans"))
	got, err := BindLocalImportOptions(cmd)
	require.NoError(t, err)
	require.Equal(t, "./scans", got.Dir)
}

func TestParseMetadata(t *testing.T) {
	md, err := ParseMetadata(nil)
	require.NoError(t, err)
	require.Nil(t, md)

	md, err = ParseMetadata([]string{"a=1", "b=true", "c=007", "d=x=y", "e="})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"a": int64(1),
		"b": true,
		"c": "007",
		"d": "x=y",
		"e": "",
	}, md)

	_, err = ParseMetadata([]string{"=v"})
	require.ErrorIs(t, err, importer.ErrValidation)
}

func TestParseMetadata_ValueTypes(t *testing.T) {
	tests := []struct {
		raw  string
		want any
	}{
		{"0", int64(0)},
		{"-12", int64(-12)},
		{"42", int64(42)},
		{"false", false},
		{"TRUE", "TRUE"},
		{"t", "t"},
		{"1.5", "1.5"},
		{"0x1F", "0x1F"},
		{"0o17", "0o17"},
		{"1_000", "1_000"},
		{"-", "-"},
		{"-007", "-007"},
		{"99999999999999999999", "99999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			md, err := ParseMetadata([]string{"k=" + tt.raw})
			require.NoError(t, err)
			assert.Equal(t, tt.want, md["k"])
		})
	}
}
