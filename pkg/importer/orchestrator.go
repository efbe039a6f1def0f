// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package importer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vulntor/scanbridge/pkg/output"
)

// Orchestrator steps, used in StepError and span names.
const (
	StepValidate = "validate"
	StepDescribe = "describe"
	StepExport   = "export"
	StepFetch    = "fetch"
	StepUpload   = "upload"
)

const tracerName = "github.com/vulntor/scanbridge/pkg/importer"

var validate = validator.New()

// Orchestrator composes a source backend with the artifact uploader. It runs
// one import at a time and stops at the first failing step; nothing is rolled
// back because only the final upload has externally visible effects.
type Orchestrator struct {
	scanner  ScannerBackend
	repo     ContentFetcher
	uploader ArtifactUploader
	export   ExportSettings
	out      output.Output
	tracer   trace.Tracer
}

// NewOrchestrator builds an Orchestrator that uploads through uploader.
// Sources are attached with WithScanner and WithRepository.
func NewOrchestrator(uploader ArtifactUploader) *Orchestrator {
	return &Orchestrator{
		uploader: uploader,
		export:   DefaultExportSettings(),
		out:      output.Discard,
		tracer:   otel.Tracer(tracerName),
	}
}

// WithScanner attaches the live scanner source.
func (o *Orchestrator) WithScanner(scanner ScannerBackend) *Orchestrator {
	o.scanner = scanner
	return o
}

// WithRepository attaches the repository content source.
func (o *Orchestrator) WithRepository(repo ContentFetcher) *Orchestrator {
	o.repo = repo
	return o
}

// WithExportSettings overrides the export format and poll budget.
func (o *Orchestrator) WithExportSettings(settings ExportSettings) *Orchestrator {
	o.export = settings
	return o
}

// WithOutput routes step diagnostics to out.
func (o *Orchestrator) WithOutput(out output.Output) *Orchestrator {
	if out == nil {
		out = output.Discard
	}
	o.out = out
	return o
}

// WithTracer replaces the OpenTelemetry tracer.
func (o *Orchestrator) WithTracer(tracer trace.Tracer) *Orchestrator {
	o.tracer = tracer
	return o
}

// ImportFromScanner exports scanID from the live scanner and attaches it to
// assessmentID. The export is requested exactly once.
func (o *Orchestrator) ImportFromScanner(ctx context.Context, scanID int64, assessmentID string, opts ImportOptions) (UploadResult, error) {
	assessmentID = canonicalAssessmentID(assessmentID)
	ctx, span := o.tracer.Start(ctx, "importer.import_from_scanner",
		trace.WithAttributes(
			attribute.Int64("scan_id", scanID),
			attribute.String("assessment_id", assessmentID),
			attribute.String("export_format", o.export.Format),
		))
	defer span.End()

	task := ImportTask{
		ScanID:        scanID,
		AssessmentID:  assessmentID,
		EffectiveDate: opts.EffectiveDate,
		Metadata:      opts.Metadata,
	}
	result, err := o.importFromScanner(ctx, task)
	return result, endSpan(span, err)
}

func (o *Orchestrator) importFromScanner(ctx context.Context, task ImportTask) (UploadResult, error) {
	logger := log.With().Str("component", "importer").Int64("scan_id", task.ScanID).Logger()

	if err := o.step(ctx, StepValidate, func(context.Context) error {
		if o.scanner == nil {
			return ValidationError("import", "no scanner backend configured")
		}
		if task.ScanID <= 0 {
			return ValidationError("import", "scan id must be positive, got %d", task.ScanID)
		}
		if err := o.export.Validate(); err != nil {
			return err
		}
		return validateTask(task)
	}); err != nil {
		return UploadResult{}, err
	}

	var info ScanInfo
	if err := o.step(ctx, StepDescribe, func(ctx context.Context) error {
		o.out.Diag(output.LevelVerbose, fmt.Sprintf("Describing scan %d", task.ScanID), nil)
		var err error
		info, err = o.scanner.DescribeScan(ctx, task.ScanID)
		return err
	}); err != nil {
		return UploadResult{}, err
	}
	logger.Info().Str("scan_name", info.Name).Msg("scan described")

	var content []byte
	if err := o.step(ctx, StepExport, func(ctx context.Context) error {
		o.out.Diag(output.LevelVerbose, fmt.Sprintf("Exporting scan %d as %s", task.ScanID, o.export.Format), nil)
		runner := &ExportRunner{
			Backend:  o.scanner,
			Settings: o.export,
			OnTransition: func(h ExportHandle) {
				o.out.Diag(output.LevelDebug, fmt.Sprintf("Export %d is %s", h.ExportID, h.State), nil)
			},
		}
		var err error
		content, err = runner.Run(ctx, task.ScanID)
		return err
	}); err != nil {
		return UploadResult{}, err
	}

	filename := ExportFilename(info.Name, task.ScanID, o.export.Format)
	return o.upload(ctx, task, content, filename)
}

// ImportFromRepository fetches the file behind descriptor and attaches it to
// assessmentID under the descriptor's own name.
func (o *Orchestrator) ImportFromRepository(ctx context.Context, descriptor ScanFileDescriptor, assessmentID string, opts ImportOptions) (UploadResult, error) {
	assessmentID = canonicalAssessmentID(assessmentID)
	ctx, span := o.tracer.Start(ctx, "importer.import_from_repository",
		trace.WithAttributes(
			attribute.String("path", descriptor.Path),
			attribute.String("assessment_id", assessmentID),
		))
	defer span.End()

	task := ImportTask{
		Descriptor:    &descriptor,
		AssessmentID:  assessmentID,
		EffectiveDate: opts.EffectiveDate,
		Metadata:      opts.Metadata,
	}
	result, err := o.importFromRepository(ctx, task)
	return result, endSpan(span, err)
}

func (o *Orchestrator) importFromRepository(ctx context.Context, task ImportTask) (UploadResult, error) {
	desc := task.Descriptor

	if err := o.step(ctx, StepValidate, func(context.Context) error {
		if o.repo == nil {
			return ValidationError("import", "no repository backend configured")
		}
		if desc.Locator == "" {
			return ValidationError("import", "descriptor %q has no locator", desc.Path)
		}
		if desc.Name == "" {
			return ValidationError("import", "descriptor %q has no file name", desc.Locator)
		}
		return validateTask(task)
	}); err != nil {
		return UploadResult{}, err
	}

	var content []byte
	if err := o.step(ctx, StepFetch, func(ctx context.Context) error {
		o.out.Diag(output.LevelVerbose, fmt.Sprintf("Fetching %s", desc.Path), nil)
		var err error
		content, err = o.repo.Fetch(ctx, desc.Locator)
		return err
	}); err != nil {
		return UploadResult{}, err
	}
	log.Info().Str("component", "importer").Str("path", desc.Path).Int("bytes", len(content)).Msg("repository file fetched")

	return o.upload(ctx, task, content, desc.Name)
}

func (o *Orchestrator) upload(ctx context.Context, task ImportTask, content []byte, filename string) (UploadResult, error) {
	var result UploadResult
	err := o.step(ctx, StepUpload, func(ctx context.Context) error {
		o.out.Diag(output.LevelVerbose, fmt.Sprintf("Uploading %s (%d bytes) to assessment %s", filename, len(content), task.AssessmentID), nil)
		var err error
		result, err = o.uploader.UploadIntake(ctx, UploadRequest{
			AssessmentID:  task.AssessmentID,
			Content:       content,
			Filename:      filename,
			Metadata:      task.Metadata,
			EffectiveDate: task.EffectiveDate,
		})
		return err
	})
	if err != nil {
		return UploadResult{}, err
	}
	log.Info().Str("component", "importer").Str("artifact_id", result.ArtifactID).Str("file", filename).Msg("import completed")
	return result, nil
}

// step runs fn in its own span and tags any failure with the step name.
func (o *Orchestrator) step(ctx context.Context, name string, fn func(context.Context) error) error {
	ctx, span := o.tracer.Start(ctx, "importer."+name)
	defer span.End()

	if err := fn(ctx); err != nil {
		o.out.Diag(output.LevelVerbose, fmt.Sprintf("Step %s failed: %v", name, err), nil)
		return endSpan(span, &StepError{Step: name, Err: err})
	}
	return nil
}

// canonicalAssessmentID rewrites any form uuid.Parse accepts (upper case,
// braces, urn prefix) to the lowercase hyphenated form. Anything else is
// returned unchanged for validation to reject.
func canonicalAssessmentID(id string) string {
	parsed, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return id
	}
	return parsed.String()
}

func validateTask(task ImportTask) error {
	if err := validate.Struct(task); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return ValidationError("import", "%s failed %q check (value %v)", fe.Field(), fe.Tag(), fe.Value())
		}
		return ValidationError("import", "%v", err)
	}
	return nil
}

func endSpan(span trace.Span, err error) error {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
