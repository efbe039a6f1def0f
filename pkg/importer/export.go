// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package importer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

// statusReady is the only export status treated as terminal success.
// Any other value, including ones the backend may add in the future, keeps
// the export pending until the attempt budget runs out.
const statusReady = "ready"

var errExportPending = errors.New("export pending")

// ExportSettings bounds the export poll loop. The worst-case wait before
// giving up is MaxAttempts × PollInterval.
type ExportSettings struct {
	Format       string
	MaxAttempts  int
	PollInterval time.Duration
}

// DefaultExportSettings mirrors the scanner's usual export latency.
func DefaultExportSettings() ExportSettings {
	return ExportSettings{
		Format:       "nessus",
		MaxAttempts:  30,
		PollInterval: 2 * time.Second,
	}
}

// Validate checks the settings before any request is issued.
func (s ExportSettings) Validate() error {
	if s.Format == "" {
		return ValidationError("export", "format is required")
	}
	if s.MaxAttempts < 1 {
		return ValidationError("export", "max attempts must be at least 1, got %d", s.MaxAttempts)
	}
	if s.PollInterval < 0 {
		return ValidationError("export", "poll interval must not be negative, got %s", s.PollInterval)
	}
	return nil
}

// ExportRunner drives one scanner export from request to download.
type ExportRunner struct {
	Backend  ExportBackend
	Settings ExportSettings

	// OnTransition, when set, observes every state change of the handle.
	OnTransition func(ExportHandle)
}

// RunExport requests an export of scanID in format, polls its status up to
// maxAttempts times at a constant pollInterval, and downloads it once ready.
func RunExport(ctx context.Context, backend ExportBackend, scanID int64, format string, maxAttempts int, pollInterval time.Duration) ([]byte, error) {
	r := &ExportRunner{
		Backend: backend,
		Settings: ExportSettings{
			Format:       format,
			MaxAttempts:  maxAttempts,
			PollInterval: pollInterval,
		},
	}
	return r.Run(ctx, scanID)
}

// Run executes the export protocol. The export request is issued exactly
// once; neither the request nor the download is retried.
func (r *ExportRunner) Run(ctx context.Context, scanID int64) ([]byte, error) {
	if err := r.Settings.Validate(); err != nil {
		return nil, err
	}

	logger := log.With().Str("component", "export").Int64("scan_id", scanID).Logger()

	exportID, err := r.Backend.RequestExport(ctx, scanID, r.Settings.Format)
	if err != nil {
		return nil, exportError("request", err)
	}

	handle := ExportHandle{
		ScanID:   scanID,
		ExportID: exportID,
		Format:   r.Settings.Format,
		State:    ExportRequested,
	}
	r.transition(&handle, ExportPending)
	logger.Info().Int64("export_id", exportID).Str("format", handle.Format).Msg("export requested")

	attempts := 0
	checkStatus := func() error {
		attempts++
		status, err := r.Backend.ExportStatus(ctx, scanID, exportID)
		if err != nil {
			return backoff.Permanent(exportError("status", err))
		}
		if status != statusReady {
			logger.Debug().
				Str("status", status).
				Int("attempt", attempts).
				Int("max_attempts", r.Settings.MaxAttempts).
				Msg("export not ready")
			return errExportPending
		}
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(r.Settings.PollInterval), uint64(r.Settings.MaxAttempts-1)),
		ctx,
	)

	if err := backoff.Retry(checkStatus, policy); err != nil {
		if errors.Is(err, errExportPending) {
			r.transition(&handle, ExportTimedOut)
			logger.Warn().Int("attempts", attempts).Msg("export abandoned")
			return nil, &ExportTimeoutError{ScanID: scanID, ExportID: exportID, Attempts: attempts}
		}
		r.transition(&handle, ExportFailed)
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, fmt.Errorf("export %d of scan %d: %w", exportID, scanID, err)
		}
		return nil, err
	}

	r.transition(&handle, ExportReady)
	logger.Info().Int("attempts", attempts).Msg("export ready")

	data, err := r.Backend.DownloadExport(ctx, scanID, exportID)
	if err != nil {
		r.transition(&handle, ExportFailed)
		return nil, exportError("download", err)
	}
	logger.Info().Int("bytes", len(data)).Msg("export downloaded")
	return data, nil
}

func (r *ExportRunner) transition(h *ExportHandle, next ExportState) {
	if h.State.Terminal() {
		return
	}
	h.State = next
	if r.OnTransition != nil {
		r.OnTransition(*h)
	}
}

// exportError keeps a backend classification when present and otherwise
// treats the failure as transport.
func exportError(stage string, err error) error {
	var classified *Error
	if errors.As(err, &classified) {
		return fmt.Errorf("export %s: %w", stage, err)
	}
	return TransportError("export "+stage, err)
}
