// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"

	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
)

//go:embed clientgen.yaml.default
var DefaultConfigYAML []byte

// DefaultConfigName is the file name auto-discovered in the working directory.
const DefaultConfigName = "clientgen.yaml"

// ErrConfigExists is returned by WriteDefault when the target already exists.
var ErrConfigExists = cgerr.New(cgerr.CodeCLIInputInvalid, "config file already exists")

// WriteDefault writes the default commented config to path. An existing file
// is never overwritten.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return cgerr.With(ErrConfigExists, cgerr.FieldPath(path))
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return cgerr.Errorf(cgerr.CodeCLISetupFailure, "creating config directory %s: %w", dir, err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return cgerr.With(ErrConfigExists, cgerr.FieldPath(path))
		}
		return cgerr.Errorf(cgerr.CodeCLISetupFailure, "creating config %s: %w", path, err)
	}
	if _, err := f.Write(DefaultConfigYAML); err != nil {
		_ = f.Close()
		return cgerr.Errorf(cgerr.CodeCLISetupFailure, "writing config %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return cgerr.Errorf(cgerr.CodeCLISetupFailure, "closing config %s: %w", path, err)
	}

	slog.Info("created default config", "path", path)
	return nil
}
