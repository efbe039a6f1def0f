// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/format"
	"github.com/vulntor/scanbridge/pkg/config"
	v "github.com/vulntor/scanbridge/pkg/version"
)

func newVersionCommand() *cobra.Command {
	var short, check bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := format.FromCommand(cmd)
			info := v.Get()
			out := cmd.OutOrStdout()

			if f.IsStructured() {
				return f.PrintStructured(info)
			}

			fmt.Fprintf(out, "%s version: %s\n", cliExecutable, info.Version)
			if short {
				return nil
			}
			fmt.Fprintf(out, "Commit: %s\n", info.Commit)
			fmt.Fprintf(out, "Build Date: %s\n", info.BuildDate)
			fmt.Fprintf(out, "Go Version: %s\n", info.GoVersion)
			fmt.Fprintf(out, "Platform: %s\n", info.Platform)

			if check {
				return checkForUpdate(cmd, f, info.Version)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&short, "short", "s", false, "Print only the version number")
	cmd.Flags().BoolVar(&check, "check", false, "Check GitHub for a newer release")
	bindFlags(cmd, config.BindGitHubFlags)

	return cmd
}

func checkForUpdate(cmd *cobra.Command, f format.Formatter, current string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newGitHubClient(cfg, "")
	if err != nil {
		return fail(f, "check for updates", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	newer, err := v.CheckNewVersion(ctx, client, current)
	if err != nil {
		return fail(f, "check for updates", err)
	}
	if newer == "" {
		return f.PrintSummary("You are running the latest release")
	}
	return f.PrintSummary(fmt.Sprintf("A newer release is available: %s", newer))
}
