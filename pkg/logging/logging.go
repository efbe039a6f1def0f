// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package logging configures the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	stdLog "log"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// logWriter stores the current console log writer globally
	logWriter io.Writer
)

// stdLogWriter is a custom writer that reformats stdlog output to match zerolog's format
type stdLogWriter struct {
	logger zerolog.Logger
}

func (w *stdLogWriter) Write(p []byte) (n int, err error) {
	message := strings.TrimSuffix(string(p), "\n")

	// Example stdlog output: "2025/05/23 14:40:15 transport.go:35: message"
	parts := strings.SplitN(message, " ", 4)
	if len(parts) >= 4 {
		stdTime, err := time.Parse("2006/01/02 15:04:05", parts[0]+" "+parts[1])
		if err == nil {
			fileLine := strings.TrimSuffix(parts[2], ":")
			w.logger.Debug().
				Str("file", fileLine).
				Time("time", stdTime).
				Msg(parts[3])
			return len(p), nil
		}
	}

	w.logger.Debug().Msg(message)
	return len(p), nil
}

// Logs go to stderr so that stdout only carries command output.
func init() {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	logWriter = zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// ConfigureGlobalLogging configures the global logger. format is "text"
// (console) or "json". A non-empty file receives the log instead of stderr;
// the returned closer releases it.
func ConfigureGlobalLogging(levelStr, format, file string) (io.Closer, error) {
	level := parseLogLevel(levelStr)
	zerolog.SetGlobalLevel(level)

	var (
		w      io.Writer
		closer io.Closer = nopCloser{}
	)
	switch {
	case file != "":
		f, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file %s: %w", file, err)
		}
		w, closer = f, f
		if !strings.EqualFold(format, "json") {
			w = zerolog.ConsoleWriter{Out: f, NoColor: true, TimeFormat: time.RFC3339}
		}
	case strings.EqualFold(format, "json"):
		w = os.Stderr
	default:
		w = getLogWriter()
	}

	logContext := zerolog.New(w).With().Timestamp()
	if level <= zerolog.DebugLevel {
		logContext = logContext.Caller()
	}

	log.Logger = logContext.Logger().Level(level)
	zerolog.DefaultContextLogger = &log.Logger

	// Configure stdlog to use our custom writer
	stdLog.SetFlags(0)
	stdLog.SetOutput(&stdLogWriter{logger: WithLevelOverride(log.Logger, zerolog.DebugLevel)})

	return closer, nil
}

// parseLogLevel converts a string log level to zerolog.Level
func parseLogLevel(levelString string) zerolog.Level {
	if levelString == "" {
		levelString = "warn"
	}

	level, err := zerolog.ParseLevel(strings.ToLower(levelString))
	if err != nil {
		log.Error().Err(err).
			Str("logLevel", levelString).
			Msg("Invalid log level provided. Defaulting to warn level.")
		return zerolog.WarnLevel
	}
	return level
}

// getLogWriter returns the configured log writer
func getLogWriter() io.Writer {
	return logWriter
}

// setLogWriter replaces the console log writer used by the text format.
func setLogWriter(w io.Writer) {
	logWriter = w
}

// LevelOverrideHook provides functionality to override log levels
// and filter logs below a minimum severity level.
type LevelOverrideHook struct {
	minSeverity zerolog.Level // Minimum log level to keep
	targetLevel zerolog.Level // Level to assign to NoLevel events
}

// NewLevelOverrideHook creates a new LevelOverrideHook instance.
func NewLevelOverrideHook(minSeverity, targetLevel zerolog.Level) *LevelOverrideHook {
	return &LevelOverrideHook{
		minSeverity: minSeverity,
		targetLevel: targetLevel,
	}
}

// Run implements zerolog.Hook interface and performs the log level processing.
func (h LevelOverrideHook) Run(e *zerolog.Event, currentLevel zerolog.Level, _ string) {
	if h.minSeverity > h.targetLevel {
		e.Discard()
		return
	}

	if currentLevel == zerolog.NoLevel {
		e.Str("level", h.targetLevel.String())
	}
}

// WithLevelOverride configures a logger to handle NoLevel events and level filtering.
func WithLevelOverride(logger zerolog.Logger, targetLevel zerolog.Level) zerolog.Logger {
	return logger.Hook(NewLevelOverrideHook(logger.GetLevel(), targetLevel))
}
