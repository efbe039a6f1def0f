// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package logging

import (
	"bytes"
	stdLog "log"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, parseLogLevel(""))
	assert.Equal(t, zerolog.DebugLevel, parseLogLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLogLevel("verbose"))
}

func TestConfigureGlobalLogging_WritesToConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	prev := getLogWriter()
	setLogWriter(&buf)
	t.Cleanup(func() { setLogWriter(prev) })

	closer, err := ConfigureGlobalLogging("info", "text", "")
	require.NoError(t, err)
	defer closer.Close()

	log.Info().Str("component", "test").Msg("configured")
	log.Debug().Msg("hidden")

	assert.Contains(t, buf.String(), "configured")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestConfigureGlobalLogging_JSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scanbridge.log")

	closer, err := ConfigureGlobalLogging("debug", "json", path)
	require.NoError(t, err)

	log.Info().Str("component", "test").Msg("to file")
	stdLog.Print("from stdlib")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
	assert.Contains(t, string(data), "from stdlib")
}

func TestConfigureGlobalLogging_LevelIsHonored(t *testing.T) {
	var buf bytes.Buffer
	prev := getLogWriter()
	setLogWriter(&buf)
	t.Cleanup(func() { setLogWriter(prev) })

	closer, err := ConfigureGlobalLogging("debug", "text", "")
	require.NoError(t, err)
	defer closer.Close()

	log.With().Str("component", "nessus").Logger().Debug().Msg("export requested")
	assert.Contains(t, buf.String(), "export requested")
	assert.Contains(t, buf.String(), "nessus")
	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
}

func TestConfigureGlobalLogging_BadFile(t *testing.T) {
	_, err := ConfigureGlobalLogging("info", "text", filepath.Join(t.TempDir(), "missing", "x.log"))
	require.Error(t, err)
}
