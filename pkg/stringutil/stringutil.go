// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

// Package stringutil provides small string helpers for table output.
package stringutil

import "strings"

// Ellipsis shortens s to at most maxLength runes, replacing the tail with
// "..." when truncated. Surrounding spaces are trimmed and line breaks are
// folded into spaces first. With maxLength <= 3 no ellipsis is added.
func Ellipsis(s string, maxLength int) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")

	if maxLength <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	if maxLength <= 3 {
		return string(runes[:maxLength])
	}
	return string(runes[:maxLength-3]) + "..."
}
