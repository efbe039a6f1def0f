// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/vulntor/scanbridge/cmd/scanbridge/internal/format"
	"github.com/vulntor/scanbridge/pkg/config"
	"github.com/vulntor/scanbridge/pkg/importer"
	"github.com/vulntor/scanbridge/pkg/stringutil"
)

func newListAssessmentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list-assessments",
		Short:   "List Paramify assessments",
		GroupID: "platform",
		Example: `  # List all assessments
  scanbridge list-assessments

  # Filter by query parameter
  scanbridge list-assessments --filter type=VULNERABILITY_SCAN`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeListAssessments(cmd)
		},
	}
	cmd.Flags().StringArray("filter", nil, "Filter as key=value query parameter (repeatable)")
	bindFlags(cmd, config.BindParamifyFlags)
	return cmd
}

func executeListAssessments(cmd *cobra.Command) error {
	f := format.FromCommand(cmd)

	pairs, _ := cmd.Flags().GetStringArray("filter")
	filter := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fail(f, "list assessments", importer.ValidationError("filter", "expected key=value, got %q", pair))
		}
		filter[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newParamifyClient(cfg)
	if err != nil {
		return fail(f, "list assessments", err)
	}

	assessments, err := client.ListAssessments(cmd.Context(), filter)
	if err != nil {
		return fail(f, "list assessments", err)
	}
	log.Info().Str("component", "cli").Str("op", "list-assessments").Int("count", len(assessments)).Msg("assessments listed")

	if f.IsStructured() {
		return f.PrintStructured(assessments)
	}
	if len(assessments) == 0 {
		return f.PrintSummary("No assessments found")
	}

	rows := make([][]string, 0, len(assessments))
	for i, a := range assessments {
		rows = append(rows, []string{strconv.Itoa(i + 1), stringutil.Ellipsis(a.Name, maxNameWidth), a.TypeDisplay(), a.ID})
	}
	if err := f.PrintTable([]string{"#", "Name", "Type", "ID"}, rows); err != nil {
		return err
	}
	return f.PrintSummary(fmt.Sprintf("\n%d assessments", len(assessments)))
}

func newDescribeAssessmentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "describe-assessment <assessment-id>",
		Short:   "Show details of a Paramify assessment",
		GroupID: "platform",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeDescribeAssessment(cmd, args[0])
		},
	}
	bindFlags(cmd, config.BindParamifyFlags)
	return cmd
}

func executeDescribeAssessment(cmd *cobra.Command, id string) error {
	f := format.FromCommand(cmd)
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	client, err := newParamifyClient(cfg)
	if err != nil {
		return fail(f, "describe assessment", err)
	}

	a, err := client.GetAssessment(cmd.Context(), id)
	if err != nil {
		return fail(f, "describe assessment", err)
	}

	if f.IsStructured() {
		return f.PrintStructured(a)
	}
	rows := [][]string{
		{"ID", a.ID},
		{"Name", a.Name},
		{"Type", a.TypeDisplay()},
		{"Status", orDash(a.Status)},
		{"Description", orDash(a.Description)},
		{"Created", orDash(a.CreatedAt)},
		{"Updated", orDash(a.UpdatedAt)},
	}
	return f.PrintTable([]string{"Field", "Value"}, rows)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
