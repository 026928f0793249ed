// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

//go:build !windows

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sigil-dev/clientgen/internal/schematest"
	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// copyGeneratorScript emits the schema as <out>/src/api.js plus a nested
// model file, the layout openapi-generator-cli produces for javascript.
const copyGeneratorScript = `#!/bin/sh
in=""
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -i) in="$2"; shift 2 ;;
    -o) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
mkdir -p "$out/src/model" || exit 1
cp "$in" "$out/src/api.js" || exit 1
echo "export default {};" > "$out/src/model/index.js"
echo "ignored" > "$out/README.md"
`

type project struct {
	dir       string
	schema    string
	dest      string
	tmp       string
	generator string
}

func newProject(t *testing.T, script string) *project {
	t.Helper()
	dir := t.TempDir()
	p := &project{
		dir:       dir,
		schema:    filepath.Join(dir, "src", "api", "apispec_1.json"),
		dest:      filepath.Join(dir, "src", "client"),
		tmp:       filepath.Join(dir, "tmp"),
		generator: filepath.Join(dir, "bin", "openapi-generator-cli"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(p.schema), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Dir(p.generator), 0o755))
	require.NoError(t, os.MkdirAll(p.tmp, 0o755))
	require.NoError(t, os.WriteFile(p.generator, []byte(script), 0o755))
	// Generator output directories are created under TMPDIR.
	t.Setenv("TMPDIR", p.tmp)
	return p
}

func (p *project) args(cmd, url string, extra ...string) []string {
	var args []string
	if cmd != "" {
		args = append(args, cmd)
	}
	args = append(args,
		"--url", url,
		"--schema", p.schema,
		"--dest", p.dest,
		"--generator", p.generator,
	)
	return append(args, extra...)
}

func (p *project) assertTempClean(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(p.tmp)
	require.NoError(t, err)
	assert.Empty(t, entries, "generator output directory must be removed")
}

func TestGenerate_EndToEnd(t *testing.T) {
	srv := schematest.New(t)
	p := newProject(t, copyGeneratorScript)

	out, _, err := execute(t, p.args("generate", srv.SchemaURL())...)
	require.NoError(t, err)
	assert.Contains(t, out, "installed 2 file(s) into "+p.dest+" (schema: refreshed)")

	schemaData, err := os.ReadFile(p.schema)
	require.NoError(t, err)
	assert.Equal(t, srv.Document(), schemaData)

	api, err := os.ReadFile(filepath.Join(p.dest, "api.js"))
	require.NoError(t, err)
	assert.Equal(t, srv.Document(), api)
	assert.FileExists(t, filepath.Join(p.dest, "model", "index.js"))
	assert.NoFileExists(t, filepath.Join(p.dest, "README.md"), "only the src subtree is installed")

	p.assertTempClean(t)
}

func TestGenerate_IsTheDefaultCommand(t *testing.T) {
	srv := schematest.New(t)
	p := newProject(t, copyGeneratorScript)

	out, _, err := execute(t, p.args("", srv.SchemaURL())...)
	require.NoError(t, err)
	assert.Contains(t, out, "installed 2 file(s)")
	assert.FileExists(t, filepath.Join(p.dest, "api.js"))
}

func TestGenerate_UnreachableServerUsesLocalSchema(t *testing.T) {
	p := newProject(t, copyGeneratorScript)
	stale := `{"swagger":"2.0","info":{"title":"stale","version":"0"}}`
	require.NoError(t, os.WriteFile(p.schema, []byte(stale), 0o644))

	out, stderr, err := execute(t, p.args("generate", "http://127.0.0.1:1/apispec_1.json")...)
	require.NoError(t, err)
	assert.Contains(t, out, "(schema: local copy)")
	assert.Contains(t, stderr, "couldn't download schema, using the existing one")

	api, err := os.ReadFile(filepath.Join(p.dest, "api.js"))
	require.NoError(t, err)
	assert.Equal(t, stale, string(api))
}

func TestGenerate_GeneratorFailure(t *testing.T) {
	srv := schematest.New(t)
	p := newProject(t, "#!/bin/sh\necho 'invalid spec' >&2\nexit 2\n")

	_, stderr, err := execute(t, p.args("generate", srv.SchemaURL())...)
	require.Error(t, err)
	assert.True(t, cgerr.HasCode(err, cgerr.CodeGeneratorRunFailure))
	assert.Equal(t, 2, cgerr.FieldsOf(err)["exit_code"])
	assert.NotEmpty(t, cgerr.FieldsOf(err)["run_id"])
	assert.Equal(t, 1, cgerr.ExitCode(err))
	assert.Contains(t, stderr, "generating client")

	assert.NoDirExists(t, p.dest)
	p.assertTempClean(t)
}

func TestGenerate_SkipFetch(t *testing.T) {
	p := newProject(t, copyGeneratorScript)
	require.NoError(t, os.WriteFile(p.schema, []byte(testSchema), 0o644))

	// The URL would fail; --skip-fetch must not touch it.
	out, stderr, err := execute(t, p.args("generate", "http://127.0.0.1:1/apispec_1.json", "--skip-fetch")...)
	require.NoError(t, err)
	assert.Contains(t, out, "(schema: local copy)")
	assert.NotContains(t, stderr, "couldn't download schema")
}

func TestGenerate_PruneRemovesStaleFiles(t *testing.T) {
	srv := schematest.New(t)
	p := newProject(t, copyGeneratorScript)
	require.NoError(t, os.MkdirAll(p.dest, 0o755))
	stale := filepath.Join(p.dest, "old.js")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	_, _, err := execute(t, p.args("generate", srv.SchemaURL())...)
	require.NoError(t, err)
	assert.FileExists(t, stale, "existing files are kept without --prune")

	_, _, err = execute(t, p.args("generate", srv.SchemaURL(), "--prune")...)
	require.NoError(t, err)
	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(p.dest, "api.js"))
}
