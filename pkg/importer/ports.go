// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package importer

import "context"

// DirectoryLister lists one directory of a repository at a fixed ref.
// An empty dir lists the repository root.
type DirectoryLister interface {
	List(ctx context.Context, dir string) ([]DirectoryEntry, error)
}

// ContentFetcher retrieves the raw bytes behind a descriptor locator.
type ContentFetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// RepositoryBackend is a repository source: it can be searched and fetched from.
type RepositoryBackend interface {
	DirectoryLister
	ContentFetcher
}

// ScanDescriber returns scan metadata used for naming.
type ScanDescriber interface {
	DescribeScan(ctx context.Context, scanID int64) (ScanInfo, error)
}

// ExportBackend is the scanner's asynchronous export protocol.
type ExportBackend interface {
	RequestExport(ctx context.Context, scanID int64, format string) (int64, error)
	ExportStatus(ctx context.Context, scanID, exportID int64) (string, error)
	DownloadExport(ctx context.Context, scanID, exportID int64) ([]byte, error)
}

// ScannerBackend is a live scanner source.
type ScannerBackend interface {
	ScanDescriber
	ExportBackend
}

// ArtifactUploader attaches bytes to an assessment on the target platform.
// Implementations must issue at most one request per call.
type ArtifactUploader interface {
	UploadIntake(ctx context.Context, req UploadRequest) (UploadResult, error)
}
