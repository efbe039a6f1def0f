// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package output

import "time"

// EventType classifies output events.
type EventType string

const (
	// EventDiag is a diagnostic message shown only at -v and above.
	EventDiag EventType = "diag"
	// EventWarn is a non-fatal problem the user should see.
	EventWarn EventType = "warn"
)

// OutputLevel is the verbosity an event requires (-v count).
type OutputLevel int

const (
	LevelNormal OutputLevel = iota
	LevelVerbose
	LevelDebug
	LevelTrace
)

// OutputEvent is a single message flowing through an OutputEventStream.
type OutputEvent struct {
	Type      EventType
	Level     OutputLevel
	Message   string
	Timestamp time.Time
	Metadata  map[string]any
}

// Output is the emitter handed to domain code. Use Discard to drop events.
type Output interface {
	Diag(level OutputLevel, message string, metadata map[string]any)
	Warn(message string, metadata map[string]any)
}

type defaultOutput struct {
	stream *OutputEventStream
}

// NewDefaultOutput wraps stream as an Output.
func NewDefaultOutput(stream *OutputEventStream) Output {
	return &defaultOutput{stream: stream}
}

func (o *defaultOutput) Diag(level OutputLevel, message string, metadata map[string]any) {
	o.stream.Emit(OutputEvent{
		Type:      EventDiag,
		Level:     level,
		Message:   message,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
}

func (o *defaultOutput) Warn(message string, metadata map[string]any) {
	o.stream.Emit(OutputEvent{
		Type:      EventWarn,
		Level:     LevelNormal,
		Message:   message,
		Timestamp: time.Now(),
		Metadata:  metadata,
	})
}

// Discard is an Output that drops every event.
var Discard Output = discard{}

type discard struct{}

func (discard) Diag(OutputLevel, string, map[string]any) {}
func (discard) Warn(string, map[string]any)              {}
