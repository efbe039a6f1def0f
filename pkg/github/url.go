// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package github

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/vulntor/scanbridge/pkg/importer"
)

// DefaultRef is used when a repository reference names no branch.
const DefaultRef = "main"

// RepoRef points at a path inside a repository at a ref.
type RepoRef struct {
	Owner string
	Repo  string
	Ref   string
	Path  string
}

var githubURLPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)(?:/(?:tree|blob)/([^/]+)(?:/(.*))?)?`)

// ParseRepositoryURL accepts "owner/repo" or a github.com URL such as
// https://github.com/owner/repo/tree/<ref>/<path> or .../blob/<ref>/<file>.
// A trailing slash or .git suffix is ignored, the ref defaults to main and a
// percent-encoded path is decoded.
func ParseRepositoryURL(input string) (RepoRef, error) {
	s := strings.TrimRight(strings.TrimSpace(input), "/")
	if s == "" {
		return RepoRef{}, importer.ValidationError("parse repository", "repository is required")
	}

	if !strings.Contains(s, "github.com") {
		parts := strings.Split(s, "/")
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			return RepoRef{}, importer.ValidationError("parse repository", "expected owner/repo or a GitHub URL, got %q", input)
		}
		return RepoRef{
			Owner: parts[0],
			Repo:  strings.TrimSuffix(parts[1], ".git"),
			Ref:   DefaultRef,
		}, nil
	}

	m := githubURLPattern.FindStringSubmatch(s)
	if m == nil {
		return RepoRef{}, importer.ValidationError("parse repository", "invalid GitHub URL %q", input)
	}

	ref := RepoRef{
		Owner: m[1],
		Repo:  strings.TrimSuffix(m[2], ".git"),
		Ref:   m[3],
		Path:  m[4],
	}
	if ref.Ref == "" {
		ref.Ref = DefaultRef
	}
	if ref.Path != "" {
		decoded, err := url.PathUnescape(ref.Path)
		if err != nil {
			return RepoRef{}, importer.ValidationError("parse repository", "invalid path %q: %v", ref.Path, err)
		}
		ref.Path = decoded
	}
	return ref, nil
}

// String renders the reference as owner/repo@ref[:path].
func (r RepoRef) String() string {
	s := r.Owner + "/" + r.Repo + "@" + r.Ref
	if r.Path != "" {
		s += ":" + r.Path
	}
	return s
}
