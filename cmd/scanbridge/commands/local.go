// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/bind"
	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/format"
	"github.com/vulntor/scanbridge/pkg/config"
	"github.com/vulntor/scanbridge/pkg/importer"
	"github.com/vulntor/scanbridge/pkg/localrepo"
)

func newSearchLocalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "search-local",
		Short:   "Find scan files in a local directory",
		GroupID: "repository",
		Example: `  scanbridge search-local --dir ./security-scans`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeSearch(cmd, "search local", resolveLocal)
		},
	}
	cmd.Flags().String("dir", ".", "Directory to search")
	bindFlags(cmd, config.BindSearchFlags)
	return cmd
}

func newImportLocalCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "import-local",
		Short:   "Attach a scan file from a local directory to an assessment",
		GroupID: "repository",
		Example: `  # Import the only scan file under ./scans
  scanbridge import-local --dir ./scans --assessment-id <id>

  # Pick one file
  scanbridge import-local --dir ./scans --file 2025/weekly.nessus --assessment-id <id>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := format.FromCommand(cmd)
			opts, err := bind.BindLocalImportOptions(cmd)
			if err != nil {
				return fail(f, "import from directory", err)
			}
			return executeRepositoryImport(cmd, "import from directory", opts.ImportTargetOptions, opts.File, resolveLocal)
		},
	}
	cmd.Flags().String("dir", ".", "Directory to search")
	cmd.Flags().String("file", "", "Scan file to import (path relative to --dir, or name)")
	addImportTargetFlags(cmd)
	bindFlags(cmd, config.BindSearchFlags, config.BindParamifyFlags)
	return cmd
}

func resolveLocal(cmd *cobra.Command, _ config.Config) (repositorySource, error) {
	dir, _ := cmd.Flags().GetString("dir")
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return repositorySource{}, importer.ValidationError("flags", "--dir is required")
	}
	repo, err := localrepo.Open(dir)
	if err != nil {
		return repositorySource{}, err
	}
	return repositorySource{backend: repo, label: repo.Root()}, nil
}
