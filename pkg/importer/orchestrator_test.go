// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package importer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vulntor/scanbridge/pkg/output"
)

const testAssessment = "0b6a3c4e-2f1d-4c57-9a0e-7d2a5f1b9c33"

type fakeUploader struct {
	result UploadResult
	err    error
	calls  []UploadRequest
}

func (f *fakeUploader) UploadIntake(_ context.Context, req UploadRequest) (UploadResult, error) {
	f.calls = append(f.calls, req)
	return f.result, f.err
}

type fakeFetcher struct {
	content map[string][]byte
	fetched []string
}

func (f *fakeFetcher) Fetch(_ context.Context, locator string) ([]byte, error) {
	f.fetched = append(f.fetched, locator)
	data, ok := f.content[locator]
	if !ok {
		return nil, NotFoundError("fetch", "%s", locator)
	}
	return data, nil
}

type recordingOutput struct {
	diags []string
}

func (r *recordingOutput) Diag(_ output.OutputLevel, message string, _ map[string]any) {
	r.diags = append(r.diags, message)
}

func (r *recordingOutput) Warn(string, map[string]any) {}

func fastExport() ExportSettings {
	return ExportSettings{Format: "nessus", MaxAttempts: 5, PollInterval: time.Millisecond}
}

func TestImport_CanonicalizesAssessmentID(t *testing.T) {
	tests := []string{
		"0B6A3C4E-2F1D-4C57-9A0E-7D2A5F1B9C33",
		" 0b6a3c4e-2f1d-4c57-9a0e-7d2a5f1b9c33 ",
		"{0b6a3c4e-2f1d-4c57-9a0e-7d2a5f1b9c33}",
	}
	for _, id := range tests {
		t.Run(id, func(t *testing.T) {
			uploader := &fakeUploader{result: UploadResult{ArtifactID: "art"}}
			fetcher := &fakeFetcher{content: map[string][]byte{"a": []byte("x")}}
			orch := NewOrchestrator(uploader).WithRepository(fetcher)

			_, err := orch.ImportFromRepository(context.Background(), ScanFileDescriptor{Name: "a.csv", Locator: "a"}, id, ImportOptions{})
			require.NoError(t, err)
			require.Len(t, uploader.calls, 1)
			assert.Equal(t, testAssessment, uploader.calls[0].AssessmentID)
		})
	}

	scanner := &fakeScanner{info: ScanInfo{Name: "Weekly"}, exportID: 1, statuses: []string{"ready"}, content: []byte("x")}
	uploader := &fakeUploader{}
	_, err := NewOrchestrator(uploader).WithScanner(scanner).WithExportSettings(fastExport()).
		ImportFromScanner(context.Background(), 42, "0B6A3C4E-2F1D-4C57-9A0E-7D2A5F1B9C33", ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, testAssessment, uploader.calls[0].AssessmentID)

	_, err = NewOrchestrator(uploader).WithScanner(scanner).ImportFromScanner(context.Background(), 42, "not-a-uuid", ImportOptions{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestImportFromScanner_Success(t *testing.T) {
	scanner := &fakeScanner{
		info:     ScanInfo{Name: "Weekly: Prod/DMZ"},
		exportID: 3,
		statuses: []string{"loading", "ready"},
		content:  []byte("<report/>"),
	}
	uploader := &fakeUploader{result: UploadResult{ArtifactID: "art-1", OriginalFileName: "Weekly ProdDMZ.nessus"}}
	out := &recordingOutput{}

	orch := NewOrchestrator(uploader).WithScanner(scanner).WithExportSettings(fastExport()).WithOutput(out)
	result, err := orch.ImportFromScanner(context.Background(), 42, testAssessment, ImportOptions{
		EffectiveDate: "2025-01-15",
		Metadata:      map[string]any{"team": "blue"},
	})
	require.NoError(t, err)
	assert.Equal(t, "art-1", result.ArtifactID)

	require.Len(t, uploader.calls, 1)
	req := uploader.calls[0]
	assert.Equal(t, "Weekly ProdDMZ.nessus", req.Filename)
	assert.Equal(t, []byte("<report/>"), req.Content)
	assert.Equal(t, testAssessment, req.AssessmentID)
	assert.Equal(t, "2025-01-15", req.EffectiveDate)
	assert.Equal(t, "blue", req.Metadata["team"])

	assert.Equal(t, 1, scanner.requests)
	assert.NotEmpty(t, out.diags)
}

func TestImportFromScanner_NamelessScanFallsBack(t *testing.T) {
	scanner := &fakeScanner{info: ScanInfo{Name: "///"}, exportID: 3, statuses: []string{"ready"}, content: []byte("x")}
	uploader := &fakeUploader{}

	_, err := NewOrchestrator(uploader).WithScanner(scanner).WithExportSettings(fastExport()).
		ImportFromScanner(context.Background(), 42, testAssessment, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "scan_42.nessus", uploader.calls[0].Filename)
}

func TestImportFromScanner_ValidationHappensFirst(t *testing.T) {
	tests := []struct {
		name         string
		scanID       int64
		assessmentID string
		opts         ImportOptions
	}{
		{"zero scan id", 0, testAssessment, ImportOptions{}},
		{"negative scan id", -4, testAssessment, ImportOptions{}},
		{"missing assessment", 42, "", ImportOptions{}},
		{"malformed assessment", 42, "assessment-1", ImportOptions{}},
		{"bad effective date", 42, testAssessment, ImportOptions{EffectiveDate: "01/15/2025"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := &fakeScanner{}
			uploader := &fakeUploader{}

			_, err := NewOrchestrator(uploader).WithScanner(scanner).
				ImportFromScanner(context.Background(), tt.scanID, tt.assessmentID, tt.opts)
			require.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, StepValidate, FailedStep(err))
			assert.Zero(t, scanner.requests)
			assert.Empty(t, uploader.calls)
		})
	}
}

func TestImportFromScanner_NoScannerConfigured(t *testing.T) {
	_, err := NewOrchestrator(&fakeUploader{}).ImportFromScanner(context.Background(), 1, testAssessment, ImportOptions{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestImportFromScanner_StepFailures(t *testing.T) {
	tests := []struct {
		name     string
		scanner  *fakeScanner
		uploader *fakeUploader
		step     string
		kind     error
	}{
		{
			name:     "describe",
			scanner:  &fakeScanner{describeErr: NotFoundError("describe", "scan 42")},
			uploader: &fakeUploader{},
			step:     StepDescribe,
			kind:     ErrNotFound,
		},
		{
			name:     "export timeout",
			scanner:  &fakeScanner{exportID: 1},
			uploader: &fakeUploader{},
			step:     StepExport,
			kind:     ErrTimeout,
		},
		{
			name:     "upload rejected",
			scanner:  &fakeScanner{exportID: 1, statuses: []string{"ready"}, content: []byte("x")},
			uploader: &fakeUploader{err: NewError("upload", ErrRejected, 413, errors.New("too large"))},
			step:     StepUpload,
			kind:     ErrRejected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrchestrator(tt.uploader).WithScanner(tt.scanner).WithExportSettings(fastExport()).
				ImportFromScanner(context.Background(), 42, testAssessment, ImportOptions{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.step, FailedStep(err))
			assert.LessOrEqual(t, len(tt.uploader.calls), 1)
		})
	}
}

func TestImportFromRepository_Success(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{"https://raw.example/a.nessus": []byte("<scan/>")}}
	uploader := &fakeUploader{result: UploadResult{ArtifactID: "art-2"}}

	desc := ScanFileDescriptor{Name: "a.nessus", Path: "reports/a.nessus", Locator: "https://raw.example/a.nessus", FileType: "nessus"}
	result, err := NewOrchestrator(uploader).WithRepository(fetcher).
		ImportFromRepository(context.Background(), desc, testAssessment, ImportOptions{})
	require.NoError(t, err)
	assert.Equal(t, "art-2", result.ArtifactID)

	assert.Equal(t, []string{"https://raw.example/a.nessus"}, fetcher.fetched)
	require.Len(t, uploader.calls, 1)
	assert.Equal(t, "a.nessus", uploader.calls[0].Filename)
	assert.Equal(t, []byte("<scan/>"), uploader.calls[0].Content)
}

func TestImportFromRepository_Failures(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{}}
	uploader := &fakeUploader{}
	orch := NewOrchestrator(uploader).WithRepository(fetcher)

	_, err := orch.ImportFromRepository(context.Background(), ScanFileDescriptor{Name: "a.nessus"}, testAssessment, ImportOptions{})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, fetcher.fetched)

	_, err = orch.ImportFromRepository(context.Background(), ScanFileDescriptor{Locator: "x"}, testAssessment, ImportOptions{})
	require.ErrorIs(t, err, ErrValidation)

	_, err = orch.ImportFromRepository(context.Background(), ScanFileDescriptor{Name: "a.nessus", Locator: "missing"}, testAssessment, ImportOptions{})
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, StepFetch, FailedStep(err))
	assert.Empty(t, uploader.calls)

	_, err = NewOrchestrator(uploader).ImportFromRepository(context.Background(), ScanFileDescriptor{Name: "a", Locator: "a"}, testAssessment, ImportOptions{})
	require.ErrorIs(t, err, ErrValidation)
}

func TestImportFromRepository_EmptyArtifactListIsNotAnError(t *testing.T) {
	fetcher := &fakeFetcher{content: map[string][]byte{"a": []byte("x")}}
	uploader := &fakeUploader{}

	result, err := NewOrchestrator(uploader).WithRepository(fetcher).
		ImportFromRepository(context.Background(), ScanFileDescriptor{Name: "a.csv", Locator: "a"}, testAssessment, ImportOptions{})
	require.NoError(t, err)
	assert.Empty(t, result.ArtifactID)
}
