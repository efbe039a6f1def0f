// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package format

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func newTestFormatter(mode OutputMode, quiet bool) (Formatter, *bytes.Buffer, *bytes.Buffer) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return New(out, errOut, mode, quiet, false), out, errOut
}

func TestPrintTable_Text(t *testing.T) {
	f, out, _ := newTestFormatter(ModeTable, false)

	require.NoError(t, f.PrintTable([]string{"#", "Name"}, [][]string{{"1", "weekly"}, {"2", "monthly"}}))

	require.Equal(t, "#  Name\n1  weekly\n2  monthly\n", out.String())
}

func TestPrintTable_JSON(t *testing.T) {
	f, out, _ := newTestFormatter(ModeJSON, false)

	require.NoError(t, f.PrintTable([]string{"ID", "Name"}, [][]string{{"7", "weekly"}}))

	var items []map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &items))
	require.Equal(t, []map[string]string{{"ID": "7", "Name": "weekly"}}, items)
}

func TestPrintTable_YAML(t *testing.T) {
	f, out, _ := newTestFormatter(ModeYAML, false)

	require.NoError(t, f.PrintTable([]string{"ID"}, [][]string{{"7"}, {"8"}}))

	var items []map[string]string
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &items))
	require.Len(t, items, 2)
	require.Equal(t, "8", items[1]["ID"])
}

func TestPrintSummary(t *testing.T) {
	f, out, errOut := newTestFormatter(ModeTable, false)
	require.NoError(t, f.PrintSummary("done"))
	require.Equal(t, "done\n", out.String())
	require.Empty(t, errOut.String())

	f, out, errOut = newTestFormatter(ModeJSON, false)
	require.NoError(t, f.PrintSummary("done"))
	require.Empty(t, out.String())
	require.Equal(t, "done\n", errOut.String())

	f, out, errOut = newTestFormatter(ModeTable, true)
	require.NoError(t, f.PrintSummary("done"))
	require.Empty(t, out.String())
	require.Empty(t, errOut.String())
}

func TestPrintSuccessSummary(t *testing.T) {
	f, out, _ := newTestFormatter(ModeTable, false)
	require.NoError(t, f.PrintSuccessSummary("imported", "scan_42.nessus"))
	require.Equal(t, "✓ Imported scan_42.nessus\n", out.String())

	f, out, _ = newTestFormatter(ModeJSON, false)
	require.NoError(t, f.PrintSuccessSummary("imported", "scan_42.nessus"))
	require.Empty(t, out.String())
}

func TestPrintTotalFailureSummary_Text(t *testing.T) {
	f, _, errOut := newTestFormatter(ModeTable, false)

	err := f.PrintTotalFailureSummary("import", errors.New("boom"), "NOT_FOUND", []string{"List scans:  scanbridge list-scans"})
	require.NoError(t, err)

	require.Contains(t, errOut.String(), "✗ Failed to import: boom")
	require.Contains(t, errOut.String(), "💡 Suggestions:")
	require.Contains(t, errOut.String(), "  → List scans:  scanbridge list-scans")
}

func TestPrintTotalFailureSummary_JSON(t *testing.T) {
	f, out, _ := newTestFormatter(ModeJSON, false)

	require.NoError(t, f.PrintTotalFailureSummary("import", errors.New("boom"), "NOT_FOUND", nil))

	var doc map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &doc))
	require.Equal(t, false, doc["success"])
	require.Equal(t, "NOT_FOUND", doc["error_code"])
	require.Equal(t, "boom", doc["error"])
}

func TestPrintError(t *testing.T) {
	f, _, errOut := newTestFormatter(ModeTable, false)
	require.NoError(t, f.PrintError(errors.New("bad")))
	require.Equal(t, "Error: bad\n", errOut.String())

	require.NoError(t, f.PrintError(nil))
}

func TestParseAndValidateMode(t *testing.T) {
	require.Equal(t, ModeJSON, ParseMode("JSON"))
	require.Equal(t, ModeYAML, ParseMode("yml"))
	require.Equal(t, ModeTable, ParseMode("anything"))

	require.NoError(t, ValidateMode("yaml"))
	require.NoError(t, ValidateMode("table"))
	require.Error(t, ValidateMode("xml"))
}
