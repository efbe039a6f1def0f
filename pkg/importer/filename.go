// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package importer

import (
	"fmt"
	"strings"
)

// SanitizeFilename drops every character outside [A-Za-z0-9 ._-] and trims
// surrounding spaces.
func SanitizeFilename(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isFilenameRune(r) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isFilenameRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == ' ', r == '.', r == '_', r == '-':
		return true
	}
	return false
}

// ExportExtension returns the file extension for an export format.
func ExportExtension(format string) string {
	return "." + strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
}

// ExportFilename names an exported scan after its display name. Scans with
// no usable name fall back to scan_<id>. The format's extension is always
// appended, even when the name already ends with it.
func ExportFilename(scanName string, scanID int64, format string) string {
	base := SanitizeFilename(scanName)
	if base == "" {
		base = fmt.Sprintf("scan_%d", scanID)
	}
	return base + ExportExtension(format)
}
