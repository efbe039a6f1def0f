// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package github

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vulntor/scanbridge/pkg/importer"
)

// Repository is one repository at a fixed ref. It implements
// importer.RepositoryBackend.
type Repository struct {
	client *Client
	owner  string
	repo   string
	ref    string
}

var _ importer.RepositoryBackend = (*Repository)(nil)

// String returns owner/repo@ref.
func (r *Repository) String() string {
	return r.owner + "/" + r.repo + "@" + r.ref
}

// List returns the entries of dir. When dir names a file the listing holds
// that file alone, so a blob URL can be searched like a directory.
func (r *Repository) List(ctx context.Context, dir string) ([]importer.DirectoryEntry, error) {
	ctx, span := r.client.tracer.Start(ctx, "github.list", repoAttrs(r.owner, r.repo, r.ref),
		trace.WithAttributes(attribute.String("dir", dir)))
	defer span.End()

	file, items, err := r.client.getContents(ctx, r.owner, r.repo, dir, r.ref)
	if err != nil {
		return nil, fail(span, err)
	}
	if file != nil {
		items = append(items, file)
	}

	entries := make([]importer.DirectoryEntry, 0, len(items))
	for _, item := range items {
		var typ importer.EntryType
		switch item.GetType() {
		case "file":
			typ = importer.EntryFile
		case "dir":
			typ = importer.EntryDir
		default:
			// symlinks and submodules are not followed
			continue
		}
		entries = append(entries, importer.DirectoryEntry{
			Name:            item.GetName(),
			Path:            item.GetPath(),
			Type:            typ,
			Size:            int64(item.GetSize()),
			SHA:             item.GetSHA(),
			DownloadLocator: item.GetDownloadURL(),
		})
	}
	span.SetAttributes(attribute.Int("entries", len(entries)))
	r.client.logger.Debug().Str("repo", r.String()).Str("dir", dir).Int("entries", len(entries)).Msg("directory listed")
	return entries, nil
}

// Fetch returns the bytes behind locator. A URL is downloaded directly;
// anything else is a repository path read through the contents API, which
// must answer with base64 content.
func (r *Repository) Fetch(ctx context.Context, locator string) ([]byte, error) {
	ctx, span := r.client.tracer.Start(ctx, "github.fetch", repoAttrs(r.owner, r.repo, r.ref))
	defer span.End()

	if isURL(locator) {
		span.SetAttributes(attribute.String("mode", "direct"))
		data, err := r.client.download(ctx, locator)
		if err != nil {
			return nil, fail(span, err)
		}
		return data, nil
	}

	span.SetAttributes(attribute.String("mode", "contents"), attribute.String("path", locator))
	file, _, err := r.client.getContents(ctx, r.owner, r.repo, locator, r.ref)
	if err != nil {
		return nil, fail(span, err)
	}
	if file == nil {
		return nil, fail(span, importer.ValidationError("fetch", "%s is a directory, not a file", locator))
	}
	if enc := file.GetEncoding(); enc != "base64" {
		return nil, fail(span, importer.ValidationError("fetch", "unsupported content encoding %q for %s", enc, locator))
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, fail(span, importer.ValidationError("fetch", "decode %s: %v", locator, err))
	}
	r.client.logger.Info().Str("repo", r.String()).Str("path", locator).Int("bytes", len(content)).Msg("file fetched")
	return []byte(content), nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}
