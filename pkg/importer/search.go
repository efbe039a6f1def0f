// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package importer

import (
	"context"
	"iter"
	"strings"

	"github.com/rs/zerolog/log"
)

// SearchOptions controls a repository tree search.
type SearchOptions struct {
	// Extensions to match, case-insensitively. An empty list matches nothing.
	Extensions []string

	// Recursive lifts the depth limit entirely.
	Recursive bool

	// MaxDepth is the number of directory levels below the root that may be
	// entered when Recursive is false. Zero searches the root only.
	MaxDepth int

	// OnSuppressed receives listing errors that were swallowed at a branch.
	OnSuppressed func(dir string, err error)
}

// Search walks the repository depth-first from root and yields every file
// whose name ends with one of the extensions. The sequence is lazy and can be
// ranged over again, which lists the tree afresh.
//
// A directory whose listing fails contributes nothing; its siblings are still
// searched and the error only reaches OnSuppressed and the debug log.
func Search(ctx context.Context, lister DirectoryLister, root string, opts SearchOptions) iter.Seq[ScanFileDescriptor] {
	exts := normalizeExtensions(opts.Extensions)

	return func(yield func(ScanFileDescriptor) bool) {
		if len(exts) == 0 {
			return
		}
		s := &treeSearch{
			ctx:    ctx,
			lister: lister,
			exts:   exts,
			opts:   opts,
			seen:   make(map[string]struct{}),
			yield:  yield,
		}
		s.walk(strings.Trim(root, "/"), 0)
	}
}

// branchOutcome is the result of searching one directory. A failed listing
// yields found == 0 and the suppressed error; it never propagates upward.
type branchOutcome struct {
	found      int
	suppressed error
	stopped    bool
}

type treeSearch struct {
	ctx    context.Context
	lister DirectoryLister
	exts   []string
	opts   SearchOptions
	seen   map[string]struct{}
	yield  func(ScanFileDescriptor) bool
}

func (s *treeSearch) walk(dir string, depth int) branchOutcome {
	entries, err := s.lister.List(s.ctx, dir)
	if err != nil {
		s.suppress(dir, err)
		return branchOutcome{suppressed: err}
	}

	var out branchOutcome
	for _, entry := range entries {
		if s.ctx.Err() != nil {
			out.stopped = true
			return out
		}

		switch entry.Type {
		case EntryFile:
			fileType, ok := matchExtension(entry.Name, s.exts)
			if !ok {
				continue
			}
			if _, dup := s.seen[entry.Path]; dup {
				continue
			}
			s.seen[entry.Path] = struct{}{}
			out.found++
			if !s.yield(newDescriptor(entry, fileType)) {
				out.stopped = true
				return out
			}
		case EntryDir:
			if !s.opts.Recursive && depth >= s.opts.MaxDepth {
				continue
			}
			sub := s.walk(entry.Path, depth+1)
			out.found += sub.found
			if sub.stopped {
				out.stopped = true
				return out
			}
		}
	}
	return out
}

func (s *treeSearch) suppress(dir string, err error) {
	log.Debug().Err(err).Str("component", "search").Str("dir", dir).Msg("skipping unreadable directory")
	if s.opts.OnSuppressed != nil {
		s.opts.OnSuppressed(dir, err)
	}
}

func newDescriptor(entry DirectoryEntry, fileType string) ScanFileDescriptor {
	locator := entry.DownloadLocator
	if locator == "" {
		locator = entry.Path
	}
	return ScanFileDescriptor{
		Name:        entry.Name,
		Path:        entry.Path,
		Size:        entry.Size,
		ContentHash: entry.SHA,
		Locator:     locator,
		FileType:    fileType,
	}
}

// matchExtension reports whether the lowercased name ends with one of the
// normalized exts and returns the first match without its dot.
func matchExtension(name string, exts []string) (string, bool) {
	lower := strings.ToLower(name)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return strings.TrimPrefix(ext, "."), true
		}
	}
	return "", false
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}
