// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/format"
	"github.com/vulntor/scanbridge/pkg/config"
	"github.com/vulntor/scanbridge/pkg/importer"
	"github.com/vulntor/scanbridge/pkg/nessus"
	"github.com/vulntor/scanbridge/pkg/stringutil"
)

// maxNameWidth bounds the name column of list tables.
const maxNameWidth = 60

func newListScansCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list-scans",
		Short:   "List scans on the Nessus scanner",
		GroupID: "scanner",
		Example: `  # List scans
  scanbridge list-scans

  # Machine-readable output
  scanbridge list-scans --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeListScans(cmd)
		},
	}
	bindFlags(cmd, config.BindNessusFlags)
	return cmd
}

func executeListScans(cmd *cobra.Command) error {
	f := format.FromCommand(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newNessusClient(cfg)
	if err != nil {
		return fail(f, "list scans", err)
	}

	scans, err := client.ListScans(cmd.Context())
	if err != nil {
		return fail(f, "list scans", err)
	}
	log.Info().Str("component", "cli").Str("op", "list-scans").Int("count", len(scans)).Msg("scans listed")

	if f.IsStructured() {
		return f.PrintStructured(scans)
	}
	if len(scans) == 0 {
		return f.PrintSummary("No scans found")
	}

	table := make([][]string, 0, len(scans))
	for i, s := range scans {
		table = append(table, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(s.ID, 10),
			stringutil.Ellipsis(s.Name, maxNameWidth),
			scanStatus(s),
		})
	}
	if err := f.PrintTable([]string{"#", "ID", "Name", "Status"}, table); err != nil {
		return err
	}
	return f.PrintSummary(fmt.Sprintf("\n%d scans", len(scans)))
}

func scanStatus(s nessus.Scan) string {
	if s.Completed() {
		return "✓ " + s.Status
	}
	return "● " + s.Status
}

func newDescribeScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "describe-scan <scan-id>",
		Short:   "Show details of a Nessus scan",
		GroupID: "scanner",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeDescribeScan(cmd, args[0])
		},
	}
	bindFlags(cmd, config.BindNessusFlags)
	return cmd
}

func executeDescribeScan(cmd *cobra.Command, rawID string) error {
	f := format.FromCommand(cmd)
	scanID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || scanID <= 0 {
		return fail(f, "describe scan", importer.ValidationError("describe scan", "scan id must be a positive integer, got %q", rawID))
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newNessusClient(cfg)
	if err != nil {
		return fail(f, "describe scan", err)
	}

	details, err := client.GetScanDetails(cmd.Context(), scanID)
	if err != nil {
		return fail(f, "describe scan", err)
	}

	if f.IsStructured() {
		return f.PrintStructured(details)
	}

	info := details.Info
	rows := [][]string{
		{"ID", strconv.FormatInt(scanID, 10)},
		{"Name", info.Name},
		{"Status", info.Status},
		{"Policy", info.PolicyName},
		{"Scanner", info.ScannerName},
		{"Targets", info.Targets},
		{"Hosts", strconv.Itoa(info.HostCount)},
		{"Started", unixTime(info.ScannerStart)},
		{"Finished", unixTime(info.ScannerEnd)},
	}
	if err := f.PrintTable([]string{"Field", "Value"}, rows); err != nil {
		return err
	}

	if len(details.Hosts) == 0 {
		return nil
	}
	hostRows := make([][]string, 0, len(details.Hosts))
	for _, h := range details.Hosts {
		hostRows = append(hostRows, []string{
			h.Hostname,
			strconv.Itoa(h.Critical),
			strconv.Itoa(h.High),
			strconv.Itoa(h.Medium),
			strconv.Itoa(h.Low),
		})
	}
	if err := f.PrintSummary(""); err != nil {
		return err
	}
	return f.PrintTable([]string{"Host", "Critical", "High", "Medium", "Low"}, hostRows)
}

func unixTime(sec int64) string {
	if sec <= 0 {
		return "-"
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}
