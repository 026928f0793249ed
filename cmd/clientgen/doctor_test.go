// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sigil-dev/clientgen/internal/schematest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoctor_RunsAllChecks(t *testing.T) {
	out, _, err := execute(t, "doctor",
		"--url", "http://127.0.0.1:1/apispec_1.json",
		"--schema", filepath.Join(t.TempDir(), "apispec_1.json"),
	)
	require.NoError(t, err)

	for _, name := range []string{"Binary:", "Config:", "Generator:", "Schema:", "Destination:", "Schema URL:"} {
		assert.Contains(t, out, name)
	}
}

func TestDoctor_HealthyProject(t *testing.T) {
	srv := schematest.New(t)
	old := doctorHTTPClient
	doctorHTTPClient = srv.Client()
	defer func() { doctorHTTPClient = old }()

	dir := t.TempDir()
	schemaPath := filepath.Join(dir, "apispec_1.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte(testSchema), 0o644))
	dest := filepath.Join(dir, "src", "client")

	out, _, err := execute(t, "doctor",
		"--url", srv.SchemaURL(),
		"--schema", schemaPath,
		"--dest", dest,
		"--generator", "sh",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "found at ")
	assert.Contains(t, out, schemaPath+" (")
	assert.Contains(t, out, `swagger 2.0 "API" v1, 0 paths`)
	assert.Contains(t, out, dest+" will be created ("+dir+" is writable)")
	assert.Contains(t, out, "reachable at "+srv.URL)
}

func TestDoctor_ProblemsAreReported(t *testing.T) {
	out, _, err := execute(t, "doctor",
		"--url", "http://127.0.0.1:1/apispec_1.json",
		"--schema", filepath.Join(t.TempDir(), "apispec_1.json"),
		"--generator", "clientgen-no-such-generator",
	)
	require.NoError(t, err, "doctor reports problems without failing")

	assert.Contains(t, out, "clientgen-no-such-generator not found on PATH")
	assert.Contains(t, out, "(run 'clientgen fetch')")
	assert.Contains(t, out, "unreachable at http://127.0.0.1:1/apispec_1.json")
}

func TestDoctor_SchemaNotAnAPIDescription(t *testing.T) {
	schemaPath := filepath.Join(t.TempDir(), "apispec_1.json")
	require.NoError(t, os.WriteFile(schemaPath, []byte("<html>502 Bad Gateway</html>"), 0o644))

	out, _, err := execute(t, "doctor", "--schema", schemaPath, "--url", "http://127.0.0.1:1/apispec_1.json")
	require.NoError(t, err)
	assert.Contains(t, out, schemaPath+" is not a usable API description")
}

func TestDoctor_SchemaURLErrorStatus(t *testing.T) {
	srv := schematest.New(t)
	out, _, err := execute(t, "doctor", "--url", srv.URL+"/missing.json")
	require.NoError(t, err)
	assert.Contains(t, out, "returned 404 Not Found")
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 bytes", formatBytes(512))
	assert.Equal(t, "2.0 KB", formatBytes(2048))
	assert.Equal(t, "3.5 MB", formatBytes(3*1024*1024+512*1024))
}
