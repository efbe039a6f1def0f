// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package version provides version metadata for the application.
package version

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/rs/zerolog/log"
)

// These variables are typically injected at build time using -ldflags
var (
	// Version holds the current version of scanbridge.
	Version = "dev"
	// Commit holds the current version commit of scanbridge.
	Commit = "none"
	// BuildDate holds the build date of scanbridge.
	BuildDate = "unknown"
	// StartDate holds the start date of scanbridge.
	StartDate = time.Now()
)

// Repository is where releases are published.
const (
	RepositoryOwner = "vulntor"
	RepositoryName  = "scanbridge"
)

// Struct returns version information in a structured format.
type Struct struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"buildDate" yaml:"build_date"`
	GoVersion string `json:"goVersion" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// Info returns a formatted version string.
func Info() string {
	return fmt.Sprintf("scanbridge %s (commit: %s, date: %s)", Version, Commit, BuildDate)
}

// Get returns version information as a Struct.
func Get() Struct {
	return Struct{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
}

// ReleaseLister returns the release tags of a repository, newest first.
type ReleaseLister interface {
	ListReleaseTags(ctx context.Context, owner, repo string) ([]string, error)
}

// CheckNewVersion returns the newest published release that is greater than
// current, or "" when current is up to date. Pre-releases are only offered to
// pre-release builds. Development builds are never checked.
func CheckNewVersion(ctx context.Context, lister ReleaseLister, current string) (string, error) {
	if current == "" || current == "dev" {
		return "", nil
	}

	currentVersion, err := semver.NewVersion(current)
	if err != nil {
		return "", fmt.Errorf("parse current version %q: %w", current, err)
	}

	tags, err := lister.ListReleaseTags(ctx, RepositoryOwner, RepositoryName)
	if err != nil {
		return "", fmt.Errorf("list releases: %w", err)
	}

	var newest *semver.Version
	for _, tag := range tags {
		releaseVersion, err := semver.NewVersion(tag)
		if err != nil {
			log.Debug().Str("component", "version").Str("tag", tag).Msg("skipping non-semver release tag")
			continue
		}
		if currentVersion.Prerelease() == "" && releaseVersion.Prerelease() != "" {
			continue
		}
		if releaseVersion.GreaterThan(currentVersion) && (newest == nil || releaseVersion.GreaterThan(newest)) {
			newest = releaseVersion
		}
	}

	if newest == nil {
		return "", nil
	}
	return newest.Original(), nil
}
