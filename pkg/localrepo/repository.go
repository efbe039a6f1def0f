// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package localrepo serves scan files from a local checkout through the same
// listing and fetching interfaces as a remote repository.
package localrepo

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog/log"

	"github.com/vulntor/scanbridge/pkg/importer"
)

// Repository reads a directory tree through a billy filesystem. Paths are
// slash-separated and relative to the filesystem root.
type Repository struct {
	fs billy.Filesystem
}

var _ importer.RepositoryBackend = (*Repository)(nil)

// New wraps an existing filesystem, such as memfs in tests.
func New(fsys billy.Filesystem) *Repository {
	return &Repository{fs: fsys}
}

// Open roots a Repository at dir on the host filesystem.
func Open(dir string) (*Repository, error) {
	fsys := osfs.New(dir)
	info, err := fsys.Stat(".")
	if err != nil {
		return nil, classify("open "+dir, err)
	}
	if !info.IsDir() {
		return nil, importer.ValidationError("open", "%s is not a directory", dir)
	}
	return New(fsys), nil
}

// Root returns the directory the repository is rooted at.
func (r *Repository) Root() string {
	return r.fs.Root()
}

// List returns the entries of dir sorted by name. Hidden entries such as
// .git are skipped.
func (r *Repository) List(ctx context.Context, dir string) ([]importer.DirectoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := clean(dir)

	infos, err := r.fs.ReadDir(name)
	if err != nil {
		return nil, classify("list "+name, err)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })

	entries := make([]importer.DirectoryEntry, 0, len(infos))
	for _, info := range infos {
		if strings.HasPrefix(info.Name(), ".") {
			continue
		}
		entry := importer.DirectoryEntry{
			Name: info.Name(),
			Path: join(dir, info.Name()),
		}
		switch {
		case info.IsDir():
			entry.Type = importer.EntryDir
		case info.Mode().IsRegular():
			entry.Type = importer.EntryFile
			entry.Size = info.Size()
		default:
			continue
		}
		entries = append(entries, entry)
	}
	log.Debug().Str("component", "localrepo").Str("dir", name).Int("entries", len(entries)).Msg("directory listed")
	return entries, nil
}

// Fetch reads the file at locator.
func (r *Repository) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := clean(locator)
	if name == "." {
		return nil, importer.ValidationError("fetch", "empty locator")
	}
	data, err := util.ReadFile(r.fs, name)
	if err != nil {
		return nil, classify("fetch "+name, err)
	}
	return data, nil
}

func clean(p string) string {
	p = path.Clean("/" + strings.TrimSpace(p))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return "."
	}
	return p
}

func join(dir, name string) string {
	dir = strings.Trim(dir, "/")
	if dir == "" {
		return name
	}
	return dir + "/" + name
}

func classify(op string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return importer.NewError(op, importer.ErrNotFound, 0, err)
	case errors.Is(err, fs.ErrPermission):
		return importer.NewError(op, importer.ErrRejected, 0, err)
	default:
		return importer.TransportError(op, err)
	}
}
