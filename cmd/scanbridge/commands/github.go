// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"github.com/spf13/cobra"

	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/bind"
	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/format"
	"github.com/vulntor/scanbridge/pkg/config"
	"github.com/vulntor/scanbridge/pkg/github"
)

func addRepositoryFlags(cmd *cobra.Command) {
	cmd.Flags().String("repo", "", "Repository as owner/repo or a github.com URL (tree/blob URLs select ref and path)")
	cmd.Flags().String("ref", "", "Branch, tag or commit (default: from URL, else main)")
	cmd.Flags().String("path", "", "Directory to search (default: from URL, else repository root)")
	cmd.Flags().String("token", "", "GitHub token (overrides github.token)")
}

func newSearchGitHubCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "search-github",
		Short:   "Find scan files in a GitHub repository",
		GroupID: "repository",
		Example: `  # Search a whole repository
  scanbridge search-github --repo acme/security-scans

  # Search one directory of a branch
  scanbridge search-github --repo https://github.com/acme/security-scans/tree/release/reports/2025

  # Only the top two levels, Nessus files only
  scanbridge search-github --repo acme/security-scans --search.recursive=false --search.max_depth 1 --search.extensions .nessus`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeSearch(cmd, "search github", resolveGitHub)
		},
	}
	addRepositoryFlags(cmd)
	bindFlags(cmd, config.BindGitHubFlags, config.BindSearchFlags)
	return cmd
}

func newImportGitHubCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "import-github",
		Short:   "Attach a scan file from a GitHub repository to an assessment",
		GroupID: "repository",
		Long: `Search a GitHub repository for scan files and upload one to a Paramify assessment.

When the search finds exactly one file it is imported; otherwise choose one
with --file (a path or file name from search-github).`,
		Example: `  # Import the only scan file in a directory
  scanbridge import-github --repo acme/security-scans --path reports/2025-q1 --assessment-id <id>

  # Import a specific file from a blob URL
  scanbridge import-github --repo https://github.com/acme/security-scans/blob/main/reports/weekly.nessus --assessment-id <id>`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := format.FromCommand(cmd)
			opts, err := bind.BindGitHubImportOptions(cmd)
			if err != nil {
				return fail(f, "import from github", err)
			}
			return executeRepositoryImport(cmd, "import from github", opts.ImportTargetOptions, opts.File, resolveGitHub)
		},
	}
	addRepositoryFlags(cmd)
	addImportTargetFlags(cmd)
	cmd.Flags().String("file", "", "Scan file to import (path or name)")
	bindFlags(cmd, config.BindGitHubFlags, config.BindSearchFlags, config.BindParamifyFlags)
	return cmd
}

// resolveGitHub turns --repo/--ref/--path into a repository source.
func resolveGitHub(cmd *cobra.Command, cfg config.Config) (repositorySource, error) {
	opts, err := bind.BindRepositoryOptions(cmd)
	if err != nil {
		return repositorySource{}, err
	}
	ref, err := github.ParseRepositoryURL(opts.Repo)
	if err != nil {
		return repositorySource{}, err
	}
	if opts.Ref != "" {
		ref.Ref = opts.Ref
	}
	if opts.Path != "" {
		ref.Path = opts.Path
	}

	client, err := newGitHubClient(cfg, opts.Token)
	if err != nil {
		return repositorySource{}, err
	}
	return repositorySource{
		backend: client.Repository(ref.Owner, ref.Repo, ref.Ref),
		root:    ref.Path,
		label:   ref.String(),
	}, nil
}
