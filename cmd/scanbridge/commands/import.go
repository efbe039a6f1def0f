// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/bind"
	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/format"
	"github.com/vulntor/scanbridge/pkg/config"
	"github.com/vulntor/scanbridge/pkg/importer"
)

func newImportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "import",
		Short:   "Export a Nessus scan and attach it to an assessment",
		GroupID: "scanner",
		Long: `Export a scan from the Nessus scanner and upload it to a Paramify assessment.

The export is requested once and polled until the scanner reports it ready.
The uploaded file is named after the scan.`,
		Example: `  # Import scan 42
  scanbridge import --scan-id 42 --assessment-id 0b6a3c4e-2f1d-4c57-9a0e-7d2a5f1b9c33

  # Set the effective date and extra metadata
  scanbridge import --scan-id 42 --assessment-id <id> --effective-date 2025-01-15 --metadata team=blue

  # Export as CSV and allow a slow scanner more time
  scanbridge import --scan-id 42 --assessment-id <id> --export.format csv --export.max_attempts 90`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeImport(cmd)
		},
	}

	cmd.Flags().Int64("scan-id", 0, "Nessus scan ID")
	addImportTargetFlags(cmd)
	bindFlags(cmd, config.BindNessusFlags, config.BindParamifyFlags, config.BindExportFlags)

	return cmd
}

func addImportTargetFlags(cmd *cobra.Command) {
	cmd.Flags().String("assessment-id", "", "Paramify assessment ID (UUID)")
	cmd.Flags().String("effective-date", "", "Artifact effective date (YYYY-MM-DD)")
	cmd.Flags().StringArray("metadata", nil, "Artifact metadata as key=value (repeatable)")
}

func executeImport(cmd *cobra.Command) error {
	f := format.FromCommand(cmd)

	opts, err := bind.BindScanImportOptions(cmd)
	if err != nil {
		return fail(f, "import", err)
	}

	logger := log.With().
		Str("component", "cli").
		Str("op", "import").
		Logger()

	start := time.Now()
	defer func() {
		logger.Info().Dur("duration_ms", time.Since(start)).Msg("import finished")
	}()
	logger.Info().
		Int64("scan_id", opts.ScanID).
		Str("assessment_id", opts.AssessmentID).
		Msg("import started")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	scanner, err := newNessusClient(cfg)
	if err != nil {
		return fail(f, "import", err)
	}
	uploader, err := newParamifyClient(cfg)
	if err != nil {
		return fail(f, "import", err)
	}

	orch := importer.NewOrchestrator(uploader).
		WithScanner(scanner).
		WithExportSettings(exportSettings(cfg)).
		WithOutput(setupOutputPipeline(cmd))

	result, err := orch.ImportFromScanner(cmd.Context(), opts.ScanID, opts.AssessmentID, importer.ImportOptions{
		EffectiveDate: opts.EffectiveDate,
		Metadata:      opts.Metadata,
	})
	if err != nil {
		logger.Error().Err(err).Str("step", importer.FailedStep(err)).Msg("import failed")
		return fail(f, "import", err)
	}

	return printImportResult(f, result)
}

// printImportResult prints the created artifact.
func printImportResult(f format.Formatter, result importer.UploadResult) error {
	if f.IsStructured() {
		return f.PrintStructured(map[string]any{
			"success":  true,
			"artifact": result,
		})
	}

	if result.ArtifactID == "" {
		return f.PrintSummary("⚠ Upload accepted but the platform reported no artifact")
	}

	effective := result.EffectiveDate
	if len(effective) > 10 {
		effective = effective[:10]
	}
	rows := [][]string{
		{"Artifact ID", result.ArtifactID},
		{"File", result.OriginalFileName},
		{"Effective date", orDash(effective)},
	}
	if err := f.PrintSuccessSummary("imported", result.OriginalFileName); err != nil {
		return err
	}
	return f.PrintTable([]string{"Field", "Value"}, rows)
}
