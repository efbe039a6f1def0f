// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/bind"
	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/format"
	"github.com/vulntor/scanbridge/pkg/config"
	"github.com/vulntor/scanbridge/pkg/importer"
	"github.com/vulntor/scanbridge/pkg/output"
)

// collectCandidates drains a tree search into a slice.
func collectCandidates(ctx context.Context, lister importer.DirectoryLister, root string, opts importer.SearchOptions) ([]importer.ScanFileDescriptor, error) {
	var found []importer.ScanFileDescriptor
	for desc := range importer.Search(ctx, lister, root, opts) {
		found = append(found, desc)
	}
	if err := ctx.Err(); err != nil {
		return found, fmt.Errorf("search interrupted: %w", err)
	}
	return found, nil
}

// selectCandidate picks the file to import. An explicit file matches a
// candidate's path or name; without one exactly one candidate must exist.
func selectCandidate(candidates []importer.ScanFileDescriptor, file string) (importer.ScanFileDescriptor, error) {
	file = strings.Trim(file, "/")
	if file != "" {
		var matches []importer.ScanFileDescriptor
		for _, c := range candidates {
			if c.Path == file {
				return c, nil
			}
			if c.Name == file {
				matches = append(matches, c)
			}
		}
		switch len(matches) {
		case 0:
			return importer.ScanFileDescriptor{}, importer.NotFoundError("select file", "%q is not among the %d scan files found", file, len(candidates))
		case 1:
			return matches[0], nil
		default:
			return importer.ScanFileDescriptor{}, importer.ValidationError("select file", "%q matches %d files; pass the full path", file, len(matches))
		}
	}

	switch len(candidates) {
	case 0:
		return importer.ScanFileDescriptor{}, importer.NotFoundError("select file", "no scan files found")
	case 1:
		return candidates[0], nil
	default:
		return importer.ScanFileDescriptor{}, importer.ValidationError("select file", "%d scan files found; choose one with --file", len(candidates))
	}
}

func printCandidates(f format.Formatter, source string, candidates []importer.ScanFileDescriptor) error {
	if f.IsStructured() {
		return f.PrintStructured(candidates)
	}
	if len(candidates) == 0 {
		return f.PrintSummary("No scan files found in " + source)
	}

	rows := make([][]string, 0, len(candidates))
	for i, c := range candidates {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			c.Path,
			strings.ToUpper(c.FileType),
			fmt.Sprintf("%.1f", float64(c.Size)/1024),
		})
	}
	if err := f.PrintTable([]string{"#", "File", "Type", "Size KB"}, rows); err != nil {
		return err
	}
	return f.PrintSummary(fmt.Sprintf("\n%d scan files in %s", len(candidates), source))
}

// repositorySource is a resolved repository: something to search and fetch
// from, the directory to start at and a label for messages.
type repositorySource struct {
	backend importer.RepositoryBackend
	root    string
	label   string
}

type sourceResolver func(cmd *cobra.Command, cfg config.Config) (repositorySource, error)

func executeSearch(cmd *cobra.Command, op string, resolve sourceResolver) error {
	f := format.FromCommand(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := resolve(cmd, cfg)
	if err != nil {
		return fail(f, op, err)
	}

	out := setupOutputPipeline(cmd)
	candidates, err := collectCandidates(cmd.Context(), src.backend, src.root, searchOptions(cfg, out))
	if err != nil {
		return fail(f, op, err)
	}
	log.Info().Str("component", "cli").Str("op", op).Str("source", src.label).Int("count", len(candidates)).Msg("search completed")

	return printCandidates(f, src.label, candidates)
}

func executeRepositoryImport(cmd *cobra.Command, op string, target bind.ImportTargetOptions, file string, resolve sourceResolver) error {
	f := format.FromCommand(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, err := resolve(cmd, cfg)
	if err != nil {
		return fail(f, op, err)
	}
	uploader, err := newParamifyClient(cfg)
	if err != nil {
		return fail(f, op, err)
	}

	logger := log.With().Str("component", "cli").Str("op", op).Str("source", src.label).Logger()
	logger.Info().Str("assessment_id", target.AssessmentID).Msg("import started")

	out := setupOutputPipeline(cmd)
	candidates, err := collectCandidates(cmd.Context(), src.backend, src.root, searchOptions(cfg, out))
	if err != nil {
		return fail(f, op, err)
	}
	desc, err := selectCandidate(candidates, file)
	if err != nil {
		return fail(f, op, err)
	}
	out.Diag(output.LevelVerbose, fmt.Sprintf("Selected %s (%d bytes)", desc.Path, desc.Size), nil)

	orch := importer.NewOrchestrator(uploader).
		WithRepository(src.backend).
		WithOutput(out)

	result, err := orch.ImportFromRepository(cmd.Context(), desc, target.AssessmentID, importer.ImportOptions{
		EffectiveDate: target.EffectiveDate,
		Metadata:      target.Metadata,
	})
	if err != nil {
		logger.Error().Err(err).Str("step", importer.FailedStep(err)).Msg("import failed")
		return fail(f, op, err)
	}
	logger.Info().Str("artifact_id", result.ArtifactID).Msg("import succeeded")

	return printImportResult(f, result)
}
