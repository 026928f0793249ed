// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

// Package pipeline runs the fetch, generate and install steps that refresh
// the generated API client.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sigil-dev/clientgen/internal/generator"
	"github.com/sigil-dev/clientgen/internal/install"
	"github.com/sigil-dev/clientgen/internal/schema"
	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
)

// Fetcher downloads the schema document.
type Fetcher interface {
	Fetch(ctx context.Context, url, dest string) (*schema.Result, error)
}

// ClientGenerator produces a generator output directory from a schema.
type ClientGenerator interface {
	Generate(ctx context.Context, schemaPath string) (*generator.Output, error)
}

// Installer copies the generated sources into place.
type Installer interface {
	InstallDirs(srcDir, dstDir string) (*install.Report, error)
}

// Paths are the locations a run reads and writes.
type Paths struct {
	SchemaURL   string
	SchemaPath  string
	Destination string
}

// Pipeline wires the three steps together. Steps run strictly in order and
// nothing is retried.
type Pipeline struct {
	Fetcher   Fetcher
	Generator ClientGenerator
	Installer Installer
	Paths     Paths
	// SkipFetch runs against the local schema without downloading.
	SkipFetch bool
	Logger    *slog.Logger
}

// Summary describes a completed run.
type Summary struct {
	RunID           string
	SchemaRefreshed bool
	Schema          *schema.Result
	Install         *install.Report
	Duration        time.Duration
}

// Run executes the pipeline. A failed download is logged and the existing
// local schema is used. Generator and install failures are returned; the
// generator output directory is removed on every path.
func (p *Pipeline) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("run_id", runID)

	summary := &Summary{RunID: runID}

	if p.SkipFetch {
		logger.Info("skipping schema download", "path", p.Paths.SchemaPath)
	} else {
		res, err := p.Fetcher.Fetch(ctx, p.Paths.SchemaURL, p.Paths.SchemaPath)
		if err != nil {
			logger.Warn("couldn't download schema, using the existing one",
				"url", p.Paths.SchemaURL,
				"path", p.Paths.SchemaPath,
				"code", cgerr.CodeOf(err),
				"error", err,
			)
		} else {
			summary.SchemaRefreshed = true
			summary.Schema = res
			logger.Info("schema downloaded", "url", res.URL, "path", res.Path, "bytes", res.Bytes)
		}
	}

	out, err := p.Generator.Generate(ctx, p.Paths.SchemaPath)
	if err != nil {
		logger.Error("generating client", "schema", p.Paths.SchemaPath, "error", err)
		return summary, cgerr.With(err, cgerr.FieldRunID(runID))
	}
	defer func() {
		if cleanupErr := out.Cleanup(); cleanupErr != nil {
			logger.Warn("removing generator output", "path", out.Dir, "error", cleanupErr)
		}
	}()
	logger.Info("client generated", "output", out.Dir)

	report, err := p.Installer.InstallDirs(out.SourceDir(), p.Paths.Destination)
	summary.Install = report
	if err != nil {
		logger.Error("installing client", "source", out.SourceDir(), "destination", p.Paths.Destination, "error", err)
		return summary, cgerr.With(err, cgerr.FieldRunID(runID))
	}

	summary.Duration = time.Since(start)
	logger.Info("client installed",
		"destination", p.Paths.Destination,
		"files", report.Files(),
		"pruned", len(report.Pruned),
		"duration", summary.Duration,
	)
	return summary, nil
}
