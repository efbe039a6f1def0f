// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package commands implements the scanbridge command tree.
package commands

import (
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/format"
	"github.com/vulntor/scanbridge/pkg/appctx"
	"github.com/vulntor/scanbridge/pkg/config"
	"github.com/vulntor/scanbridge/pkg/importer"
	"github.com/vulntor/scanbridge/pkg/logging"
)

const cliExecutable = "scanbridge"

// NewCommand constructs the top-level scanbridge CLI command, wiring global
// flags, configuration loading and logging.
func NewCommand() *cobra.Command {
	var (
		configFile     string
		verbosityCount int
		logCloser      io.Closer
	)

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "Import vulnerability scan results into Paramify assessments",
		Long: `scanbridge moves vulnerability scan results into Paramify assessments.

Scans come either from a live Nessus scanner, which exports them on demand,
or from files stored in a GitHub repository or a local checkout.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if mode, _ := cmd.Flags().GetString("output"); mode != "" {
				if err := format.ValidateMode(mode); err != nil {
					return importer.ValidationError("flags", "%v", err)
				}
			}

			mgr := config.NewManager()
			if err := mgr.Load(cmd.Flags(), configFile); err != nil {
				return importer.NewError("load configuration", importer.ErrValidation, 0, err)
			}
			cfg := mgr.Get()

			level := cfg.Log.Level
			if verbosityCount >= 2 {
				level = "debug"
			}
			closer, err := logging.ConfigureGlobalLogging(level, cfg.Log.Format, cfg.Log.File)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}
			logCloser = closer

			log.Debug().
				Str("component", "cli").
				Str("command", cmd.CommandPath()).
				Str("config_file", configFile).
				Msg("configuration loaded")

			ctx := appctx.WithConfig(cmd.Context(), mgr)
			cmd.SetContext(ctx)
			if root := cmd.Root(); root != nil && root != cmd {
				root.SetContext(ctx)
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logCloser != nil {
				return logCloser.Close()
			}
			return nil
		},
	}

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return importer.ValidationError("flags", "%v", err)
	})

	cmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file path")
	cmd.PersistentFlags().CountVarP(&verbosityCount, "verbosity", "v", "Increase diagnostic verbosity (repeatable)")
	cmd.PersistentFlags().StringP("output", "o", string(format.ModeTable), "Output format (table, json, yaml)")
	cmd.PersistentFlags().BoolP("quiet", "q", false, "Suppress summaries")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	config.BindFlags(cmd.PersistentFlags())

	cmd.AddGroup(&cobra.Group{ID: "scanner", Title: "Scanner Commands"})
	cmd.AddGroup(&cobra.Group{ID: "repository", Title: "Repository Commands"})
	cmd.AddGroup(&cobra.Group{ID: "platform", Title: "Platform Commands"})

	cmd.AddCommand(newListScansCommand())
	cmd.AddCommand(newDescribeScanCommand())
	cmd.AddCommand(newImportCommand())
	cmd.AddCommand(newSearchGitHubCommand())
	cmd.AddCommand(newImportGitHubCommand())
	cmd.AddCommand(newSearchLocalCommand())
	cmd.AddCommand(newImportLocalCommand())
	cmd.AddCommand(newListAssessmentsCommand())
	cmd.AddCommand(newDescribeAssessmentCommand())
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func bindFlags(cmd *cobra.Command, binders ...func(*pflag.FlagSet)) {
	for _, bind := range binders {
		bind(cmd.Flags())
	}
}
