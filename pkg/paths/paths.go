// Copyright 2025 Vulntor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");

package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// ConfigFileName is the file looked up in ConfigDir when --config is not set.
const ConfigFileName = "config.yaml"

// ConfigDir returns the config directory for scanbridge.
// Order: XDG_CONFIG_HOME/scanbridge, platform-specific fallback.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "scanbridge")
	}
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("AppData"); appData != "" {
			return filepath.Join(appData, "Scanbridge")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "scanbridge")
}

// DefaultConfigFile returns ConfigDir()/config.yaml, or "" when no home
// directory can be determined.
func DefaultConfigFile() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, ConfigFileName)
}
