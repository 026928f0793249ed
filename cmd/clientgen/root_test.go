// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/sigil-dev/clientgen/internal/config"
	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs a fresh command tree and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	stdout, stderr := new(bytes.Buffer), new(bytes.Buffer)
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand_Help(t *testing.T) {
	out, _, err := execute(t, "--help")
	require.NoError(t, err)
	for _, sub := range []string{"generate", "fetch", "doctor", "init", "config", "version"} {
		assert.Contains(t, out, sub)
	}
}

func TestRootCommand_GlobalFlags(t *testing.T) {
	out, _, err := execute(t, "generate", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "--config")
	assert.Contains(t, out, "--verbose")
	assert.Contains(t, out, "--log-format")
	assert.Contains(t, out, "--skip-fetch")
	assert.Contains(t, out, "--prune")
}

func TestRootCommand_RejectsArguments(t *testing.T) {
	_, _, err := execute(t, "extra")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "clientgen dev")
}

func TestConfigCommand_Defaults(t *testing.T) {
	out, _, err := execute(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "url: http://localhost:5000/apispec_1.json")
	assert.Contains(t, out, "destination: src/client")
	assert.Contains(t, out, "language: javascript")
}

func TestConfigCommand_Precedence(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
schema:
  url: "http://file.example.com/spec.json"
generator:
  language: "typescript-fetch"
install:
  destination: "from/file"
`), 0o644))
	t.Setenv("CLIENTGEN_GENERATOR_LANGUAGE", "python")

	out, _, err := execute(t, "config", "--config", cfgPath, "--dest", "from/flag")
	require.NoError(t, err)
	assert.Contains(t, out, "url: http://file.example.com/spec.json", "file beats defaults")
	assert.Contains(t, out, "language: python", "env beats file")
	assert.Contains(t, out, "destination: from/flag", "flag beats file")
}

func TestConfigCommand_MissingConfigFile(t *testing.T) {
	_, _, err := execute(t, "config", "--config", "/nonexistent/clientgen.yaml")
	require.Error(t, err)
	assert.True(t, cgerr.HasCode(err, cgerr.CodeConfigLoadReadFailure))
	assert.Equal(t, 1, cgerr.ExitCode(err))
}

func TestConfigCommand_InvalidFlagValue(t *testing.T) {
	_, _, err := execute(t, "config", "--url", "ftp://example.com/spec.json")
	require.Error(t, err)
	assert.True(t, cgerr.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "schema.url")
}

func TestRootCommand_InvalidLogFormat(t *testing.T) {
	_, _, err := execute(t, "config", "--log-format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configuring logging")
}

func TestRootCommand_VerboseLogsToStderr(t *testing.T) {
	_, stderr, err := execute(t, "init", "--dir", t.TempDir(), "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "created default config")
}

func TestInitCommand_WritesDefault(t *testing.T) {
	dir := t.TempDir()
	out, _, err := execute(t, "init", "--dir", dir)
	require.NoError(t, err)

	path := filepath.Join(dir, config.DefaultConfigName)
	assert.Contains(t, out, path)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfigYAML, data)
}

func TestInitCommand_NeverOverwrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultConfigName)
	require.NoError(t, os.WriteFile(path, []byte("schema: {}\n"), 0o644))

	_, _, err := execute(t, "init", "--dir", dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrConfigExists)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "schema: {}\n", string(data))
}
