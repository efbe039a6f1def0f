// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package subscribers

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vulntor/scanbridge/pkg/output"
)

var (
	exportStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))  // cyan
	fetchStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))  // blue
	uploadStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))  // green
	skipStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))  // yellow
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))   // red
	diagStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")) // gray
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

// DiagnosticSubscriber writes diagnostic events up to a verbosity level,
// plus every warning, to a writer (normally stderr).
//
//   - LevelVerbose (1): -v
//   - LevelDebug (2): -vv
//   - LevelTrace (3): -vvv
type DiagnosticSubscriber struct {
	level        output.OutputLevel
	writer       io.Writer
	colorEnabled bool
}

// NewDiagnosticSubscriber creates a DiagnosticSubscriber.
func NewDiagnosticSubscriber(level output.OutputLevel, writer io.Writer, colorEnabled bool) *DiagnosticSubscriber {
	return &DiagnosticSubscriber{
		level:        level,
		writer:       writer,
		colorEnabled: colorEnabled,
	}
}

func (s *DiagnosticSubscriber) Name() string {
	return "diagnostic-subscriber"
}

// ShouldHandle accepts warnings always and diagnostics at or below the level.
func (s *DiagnosticSubscriber) ShouldHandle(event output.OutputEvent) bool {
	switch event.Type {
	case output.EventWarn:
		return true
	case output.EventDiag:
		return event.Level <= s.level && s.level > output.LevelNormal
	default:
		return false
	}
}

func (s *DiagnosticSubscriber) Handle(event output.OutputEvent) {
	if !s.colorEnabled {
		fmt.Fprintf(s.writer, "%s %s %s", levelPrefix(event), event.Timestamp.Format("15:04:05"), event.Message)
		if len(event.Metadata) > 0 {
			fmt.Fprintf(s.writer, " %+v", event.Metadata)
		}
		fmt.Fprintln(s.writer)
		return
	}

	message := event.Message
	var styled string

	switch {
	case event.Type == output.EventWarn:
		styled = warningStyle.Render("  ⚠ " + message)
	case strings.HasPrefix(message, "Export"):
		styled = exportStyle.Render("  ⏳ " + message)
	case strings.HasPrefix(message, "Fetch") || strings.HasPrefix(message, "Describ"):
		styled = fetchStyle.Render("  📦 " + message)
	case strings.HasPrefix(message, "Upload"):
		styled = uploadStyle.Render("  ⇪ " + message)
	case strings.HasPrefix(message, "Skipped "):
		styled = skipStyle.Render("  ⊘ " + message)
	case strings.Contains(message, "failed"):
		styled = failStyle.Render("  ✗ " + message)
	default:
		styled = diagStyle.Render(fmt.Sprintf("%s %s %s", levelPrefix(event), event.Timestamp.Format("15:04:05"), message))
	}

	fmt.Fprintln(s.writer, styled)

	if len(event.Metadata) > 0 {
		fmt.Fprintln(s.writer, metaStyle.Render(fmt.Sprintf("    %+v", event.Metadata)))
	}
}

func levelPrefix(event output.OutputEvent) string {
	if event.Type == output.EventWarn {
		return "[WARN]"
	}
	switch event.Level {
	case output.LevelVerbose:
		return "[VERBOSE]"
	case output.LevelDebug:
		return "[DEBUG]"
	case output.LevelTrace:
		return "[TRACE]"
	default:
		return "[INFO]"
	}
}
