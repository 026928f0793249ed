// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

//go:build !windows

package config

import (
	"io/fs"
	"log/slog"
	"os"
)

// WarnInsecurePermissions logs a warning when the config file is writable by
// group or others. The file names the generator command that clientgen
// executes, so write access to it is write access to what runs.
func WarnInsecurePermissions(path string) {
	if path == "" {
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		slog.Debug("could not stat config file for permission check", "path", path, "error", err)
		return
	}

	mode := info.Mode()
	perm := mode.Perm()

	const groupWrite fs.FileMode = 0o020
	const otherWrite fs.FileMode = 0o002

	if perm&(groupWrite|otherWrite) != 0 {
		slog.Warn(
			"config file has insecure permissions, other users can change the generator command",
			"path", path,
			"mode", mode,
			"recommended", "0644",
		)
	}
}
