// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/scanbridge/pkg/output"
)

func TestDiagnosticSubscriber_ShouldHandle(t *testing.T) {
	tests := []struct {
		name  string
		level output.OutputLevel
		event output.OutputEvent
		want  bool
	}{
		{"warn at normal", output.LevelNormal, output.OutputEvent{Type: output.EventWarn}, true},
		{"diag at normal", output.LevelNormal, output.OutputEvent{Type: output.EventDiag, Level: output.LevelNormal}, false},
		{"verbose at -v", output.LevelVerbose, output.OutputEvent{Type: output.EventDiag, Level: output.LevelVerbose}, true},
		{"debug at -v", output.LevelVerbose, output.OutputEvent{Type: output.EventDiag, Level: output.LevelDebug}, false},
		{"debug at -vvv", output.LevelTrace, output.OutputEvent{Type: output.EventDiag, Level: output.LevelDebug}, true},
		{"unknown type", output.LevelTrace, output.OutputEvent{Type: "other"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewDiagnosticSubscriber(tt.level, &bytes.Buffer{}, false)
			assert.Equal(t, tt.want, s.ShouldHandle(tt.event))
		})
	}
}

func TestDiagnosticSubscriber_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	s := NewDiagnosticSubscriber(output.LevelDebug, &buf, false)
	assert.Equal(t, "diagnostic-subscriber", s.Name())

	ts := time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC)
	s.Handle(output.OutputEvent{Type: output.EventDiag, Level: output.LevelDebug, Message: "Export 7 is loading", Timestamp: ts})
	s.Handle(output.OutputEvent{Type: output.EventWarn, Message: "no artifact", Timestamp: ts, Metadata: map[string]any{"file": "weekly.nessus"}})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[DEBUG] 14:05:09 Export 7 is loading", lines[0])
	assert.Equal(t, "[WARN] 14:05:09 no artifact map[file:weekly.nessus]", lines[1])
}

func TestDiagnosticSubscriber_ColorOutput(t *testing.T) {
	var buf bytes.Buffer
	s := NewDiagnosticSubscriber(output.LevelVerbose, &buf, true)

	s.Handle(output.OutputEvent{Type: output.EventDiag, Level: output.LevelVerbose, Message: "Uploading weekly.nessus"})
	s.Handle(output.OutputEvent{Type: output.EventDiag, Level: output.LevelVerbose, Message: "Skipped reports/private"})
	s.Handle(output.OutputEvent{Type: output.EventWarn, Message: "no artifact"})

	out := buf.String()
	assert.Contains(t, out, "⇪ Uploading weekly.nessus")
	assert.Contains(t, out, "⊘ Skipped reports/private")
	assert.Contains(t, out, "⚠ no artifact")
}

func TestDiagnosticSubscriber_WithStream(t *testing.T) {
	var buf bytes.Buffer
	stream := output.NewOutputEventStream()
	stream.Subscribe(NewDiagnosticSubscriber(output.LevelVerbose, &buf, false))

	out := output.NewDefaultOutput(stream)
	out.Diag(output.LevelVerbose, "Fetching reports/q1.csv", nil)
	out.Diag(output.LevelTrace, "hidden", nil)

	assert.Contains(t, buf.String(), "[VERBOSE]")
	assert.Contains(t, buf.String(), "Fetching reports/q1.csv")
	assert.NotContains(t, buf.String(), "hidden")
}
