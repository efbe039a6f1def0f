// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package importer

// ScanFileDescriptor identifies a candidate scan file discovered in a
// repository tree. It carries no content; Locator is what a ContentFetcher
// needs to retrieve the bytes and is the descriptor's identity.
type ScanFileDescriptor struct {
	Name        string `json:"name" yaml:"name"`
	Path        string `json:"path" yaml:"path"`
	Size        int64  `json:"size" yaml:"size"`
	ContentHash string `json:"content_hash,omitempty" yaml:"content_hash,omitempty"`
	Locator     string `json:"locator" yaml:"locator"`
	FileType    string `json:"file_type" yaml:"file_type"`
}

// EntryType distinguishes files from directories in a listing.
type EntryType string

const (
	EntryFile EntryType = "file"
	EntryDir  EntryType = "dir"
)

// DirectoryEntry is one item returned by a DirectoryLister.
type DirectoryEntry struct {
	Name            string
	Path            string
	Type            EntryType
	Size            int64
	SHA             string
	DownloadLocator string
}

// ExportState tracks an export job through the poll loop.
type ExportState int

const (
	ExportRequested ExportState = iota
	ExportPending
	ExportReady
	ExportFailed
	ExportTimedOut
)

func (s ExportState) String() string {
	switch s {
	case ExportRequested:
		return "requested"
	case ExportPending:
		return "pending"
	case ExportReady:
		return "ready"
	case ExportFailed:
		return "failed"
	case ExportTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s ExportState) Terminal() bool {
	return s == ExportReady || s == ExportFailed || s == ExportTimedOut
}

// ExportHandle is the opaque reference returned by an export request.
type ExportHandle struct {
	ScanID   int64
	ExportID int64
	Format   string
	State    ExportState
}

// ScanInfo is the subset of scan metadata the orchestrator needs.
type ScanInfo struct {
	ID     int64
	Name   string
	Status string
}

// UploadRequest is the input to an ArtifactUploader.
type UploadRequest struct {
	AssessmentID  string
	Content       []byte
	Filename      string
	Metadata      map[string]any
	EffectiveDate string
}

// UploadResult describes the artifact created by the target platform.
type UploadResult struct {
	ArtifactID       string `json:"artifact_id" yaml:"artifact_id"`
	OriginalFileName string `json:"original_file_name" yaml:"original_file_name"`
	EffectiveDate    string `json:"effective_date,omitempty" yaml:"effective_date,omitempty"`
}

// ImportOptions carries the optional inputs of an import.
type ImportOptions struct {
	// EffectiveDate is a YYYY-MM-DD date; empty lets the platform default it.
	EffectiveDate string
	Metadata      map[string]any
}

// ImportTask is the per-call aggregate built by the orchestrator. It is
// validated before any backend is contacted and discarded when the call
// returns.
type ImportTask struct {
	ScanID        int64               `validate:"required_without=Descriptor"`
	Descriptor    *ScanFileDescriptor `validate:"required_without=ScanID"`
	AssessmentID  string              `validate:"required,uuid"`
	EffectiveDate string              `validate:"omitempty,datetime=2006-01-02"`
	Metadata      map[string]any
}
