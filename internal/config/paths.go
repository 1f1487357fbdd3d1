// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Wabbit Contributors

package config

import (
	"os"
	"path/filepath"
)

const appName = "wabbit"

// ConfigDir returns the XDG config directory for wabbit.
// Checks XDG_CONFIG_HOME first, falls back to ~/.config.
func ConfigDir() string {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		base = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(base, appName)
}

// DefaultFile returns ConfigDir()/config.yaml when that file exists, else "".
// It is read when no --config flag is given.
func DefaultFile() string {
	path := filepath.Join(ConfigDir(), "config.yaml")
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		return ""
	}
	return path
}
