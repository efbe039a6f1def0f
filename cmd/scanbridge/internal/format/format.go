// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package format renders command results as tables, JSON or YAML.
package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"
)

// OutputMode defines the output format for CLI commands
type OutputMode string

const (
	// ModeTable outputs data as an aligned text table
	ModeTable OutputMode = "table"
	// ModeJSON outputs data as JSON
	ModeJSON OutputMode = "json"
	// ModeYAML outputs data as YAML
	ModeYAML OutputMode = "yaml"
)

// Formatter provides consistent output formatting across CLI commands
type Formatter interface {
	// PrintJSON outputs data as JSON to stdout
	PrintJSON(data any) error

	// PrintStructured outputs data as JSON or YAML depending on the mode
	PrintStructured(data any) error

	// PrintTable outputs data as a table to stdout
	PrintTable(headers []string, rows [][]string) error

	// PrintSummary outputs a summary message (unless quiet mode)
	PrintSummary(message string) error

	// PrintError outputs an error to stderr (or a document in structured modes)
	PrintError(err error) error

	// PrintSuccessSummary prints "✓ <operation> <subject>"
	PrintSuccessSummary(operation, subject string) error

	// PrintTotalFailureSummary prints the failure and suggestions for its code
	PrintTotalFailureSummary(operation string, err error, errorCode string, suggestions []string) error

	// IsStructured reports whether output is JSON or YAML
	IsStructured() bool

	// IsJSON reports whether output is JSON
	IsJSON() bool

	// Quiet reports whether summaries are suppressed
	Quiet() bool
}

type formatter struct {
	stdout io.Writer
	stderr io.Writer
	mode   OutputMode
	quiet  bool
	color  bool
}

// New creates a new Formatter
func New(stdout, stderr io.Writer, mode OutputMode, quiet, color bool) Formatter {
	return &formatter{
		stdout: stdout,
		stderr: stderr,
		mode:   mode,
		quiet:  quiet,
		color:  color,
	}
}

func (f *formatter) IsJSON() bool       { return f.mode == ModeJSON }
func (f *formatter) IsStructured() bool { return f.mode == ModeJSON || f.mode == ModeYAML }
func (f *formatter) Quiet() bool        { return f.quiet }

// PrintJSON outputs data as JSON to stdout
func (f *formatter) PrintJSON(data any) error {
	enc := json.NewEncoder(f.stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

func (f *formatter) printYAML(data any) error {
	enc := yaml.NewEncoder(f.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(data); err != nil {
		return err
	}
	return enc.Close()
}

// PrintStructured writes YAML in yaml mode and JSON otherwise.
func (f *formatter) PrintStructured(data any) error {
	if f.mode == ModeYAML {
		return f.printYAML(data)
	}
	return f.PrintJSON(data)
}

// PrintTable outputs rows under headers. Structured modes emit a list of
// header-keyed objects instead.
func (f *formatter) PrintTable(headers []string, rows [][]string) error {
	if f.IsStructured() {
		items := make([]map[string]string, 0, len(rows))
		for _, row := range rows {
			item := make(map[string]string, len(headers))
			for i, header := range headers {
				if i < len(row) {
					item[header] = row[i]
				}
			}
			items = append(items, item)
		}
		return f.PrintStructured(items)
	}

	w := tabwriter.NewWriter(f.stdout, 0, 0, 2, ' ', 0)

	if f.color {
		headerLine := make([]string, len(headers))
		for i, h := range headers {
			headerLine[i] = color.New(color.Bold).Sprint(strings.ToUpper(h))
		}
		if _, err := fmt.Fprintln(w, strings.Join(headerLine, "\t")); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprintln(w, strings.Join(headers, "\t")); err != nil {
			return err
		}
	}

	for _, row := range rows {
		if _, err := fmt.Fprintln(w, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	return w.Flush()
}

// PrintSummary outputs a summary message to stdout (unless quiet mode)
func (f *formatter) PrintSummary(message string) error {
	if f.quiet {
		return nil
	}

	if f.IsStructured() {
		// keep stdout parseable
		_, err := fmt.Fprintln(f.stderr, message)
		return err
	}

	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}

	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

// PrintError outputs an error to stderr (or a document to stdout in structured modes)
func (f *formatter) PrintError(err error) error {
	if err == nil {
		return nil
	}

	if f.IsStructured() {
		return f.PrintStructured(map[string]any{
			"success": false,
			"error":   err.Error(),
		})
	}

	var writeErr error
	if f.color {
		_, writeErr = color.New(color.FgRed).Fprintf(f.stderr, "Error: %v\n", err)
	} else {
		_, writeErr = fmt.Fprintf(f.stderr, "Error: %v\n", err)
	}
	return writeErr
}

// PrintSuccessSummary prints a standardized success message
// Examples:
//   - "✓ Imported scan_42.nessus"
//   - "✓ Found 3 scan files"
func (f *formatter) PrintSuccessSummary(operation, subject string) error {
	if f.quiet || f.IsStructured() {
		return nil
	}

	message := fmt.Sprintf("✓ %s %s", capitalize(operation), subject)
	if subject == "" {
		message = fmt.Sprintf("✓ %s completed successfully", capitalize(operation))
	}

	if f.color {
		_, err := color.New(color.FgGreen).Fprintln(f.stdout, message)
		return err
	}
	_, err := fmt.Fprintln(f.stdout, message)
	return err
}

// PrintTotalFailureSummary prints total failure with error and suggestions
// Example output:
//
//	✗ Failed to import: upload: request rejected (status 403)
//
//	💡 Suggestions:
//	  → Check API credentials:      SCANBRIDGE_PARAMIFY_API_KEY, SCANBRIDGE_NESSUS_ACCESS_KEY
func (f *formatter) PrintTotalFailureSummary(operation string, err error, errorCode string, suggestions []string) error {
	if f.quiet {
		return nil
	}

	if f.IsStructured() {
		return f.PrintStructured(map[string]any{
			"success":    false,
			"operation":  operation,
			"error":      err.Error(),
			"error_code": errorCode,
		})
	}

	var sb strings.Builder

	errorMsg := fmt.Sprintf("✗ Failed to %s: %v", operation, err)
	if f.color {
		sb.WriteString(color.RedString("%s\n", errorMsg))
	} else {
		sb.WriteString(errorMsg + "\n")
	}

	if len(suggestions) > 0 {
		sb.WriteString("\n💡 Suggestions:\n")
		for _, s := range suggestions {
			sb.WriteString(fmt.Sprintf("  → %s\n", s))
		}
	}

	_, writeErr := io.WriteString(f.stderr, sb.String())
	return writeErr
}

// ValidateMode checks if the output mode is valid
func ValidateMode(mode string) error {
	switch OutputMode(strings.ToLower(mode)) {
	case ModeJSON, ModeTable, ModeYAML:
		return nil
	default:
		return fmt.Errorf("invalid output mode: %s (must be 'table', 'json' or 'yaml')", mode)
	}
}

// ParseMode converts a string to OutputMode
func ParseMode(mode string) OutputMode {
	switch strings.ToLower(mode) {
	case "json":
		return ModeJSON
	case "yaml", "yml":
		return ModeYAML
	default:
		return ModeTable
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
