// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package generator

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
)

// Options configures a ClientGenerator.
type Options struct {
	Language string
	// SourceDir is the subtree of the generator output holding sources.
	SourceDir  string
	TempPrefix string
	// TempRoot is where output directories are created; os.TempDir when empty.
	TempRoot string
	Timeout  time.Duration
	Logger   *slog.Logger
}

// ClientGenerator runs a Generator into a fresh temporary directory per call.
type ClientGenerator struct {
	gen  Generator
	opts Options
}

// NewClientGenerator wraps gen with temporary directory management.
func NewClientGenerator(gen Generator, opts Options) *ClientGenerator {
	if opts.SourceDir == "" {
		opts.SourceDir = "src"
	}
	if opts.TempPrefix == "" {
		opts.TempPrefix = "openapi-client-gen-"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &ClientGenerator{gen: gen, opts: opts}
}

// Generate runs the generator against schemaPath. On success the caller owns
// the returned Output and must call Cleanup. On failure the temporary
// directory has already been removed.
func (g *ClientGenerator) Generate(ctx context.Context, schemaPath string) (*Output, error) {
	dir, err := os.MkdirTemp(g.opts.TempRoot, g.opts.TempPrefix)
	if err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeGeneratorWorkdirFailure, "creating generator output directory")
	}
	out := &Output{Dir: dir, sourceDir: filepath.Join(dir, g.opts.SourceDir)}

	runCtx := ctx
	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	g.opts.Logger.Debug("running generator", "schema", schemaPath, "language", g.opts.Language, "output", dir)
	start := time.Now()
	if err := g.gen.Generate(runCtx, schemaPath, g.opts.Language, dir); err != nil {
		if cleanupErr := out.Cleanup(); cleanupErr != nil {
			g.opts.Logger.Warn("removing generator output directory", "path", dir, "error", cleanupErr)
		}
		return nil, classify(runCtx, err, schemaPath)
	}

	g.opts.Logger.Debug("generator finished", "output", dir, "duration", time.Since(start))
	return out, nil
}

// classify ensures every failure carries a generator code, including errors
// from Generator implementations that do not set one.
func classify(ctx context.Context, err error, schemaPath string) error {
	if cgerr.CodeOf(err) != "" {
		return cgerr.With(err, cgerr.Field("schema", schemaPath))
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return cgerr.Wrap(err, cgerr.CodeGeneratorRunTimeout, "generator timed out", cgerr.Field("schema", schemaPath))
	}
	return cgerr.Wrap(err, cgerr.CodeGeneratorRunFailure, "generating client", cgerr.Field("schema", schemaPath))
}

// Output is a generator output directory owned by the caller.
type Output struct {
	Dir       string
	sourceDir string

	once       sync.Once
	cleanupErr error
}

// SourceDir is the nested source subtree inside Dir.
func (o *Output) SourceDir() string { return o.sourceDir }

// Cleanup removes Dir and everything below it. Repeated calls return the
// result of the first.
func (o *Output) Cleanup() error {
	o.once.Do(func() {
		if err := os.RemoveAll(o.Dir); err != nil {
			o.cleanupErr = cgerr.Wrap(err, cgerr.CodeGeneratorCleanupFailure,
				"removing generator output", cgerr.FieldPath(o.Dir))
		}
	})
	return o.cleanupErr
}
