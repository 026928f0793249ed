// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package generator

import (
	"context"
	"log/slog"
	"strings"

	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
)

// DefaultCommand is the openapi-generator launcher installed by npm.
const DefaultCommand = "openapi-generator-cli"

// Generator turns a schema document into client sources in outputDir.
type Generator interface {
	Generate(ctx context.Context, input, lang, outputDir string) error
}

// CLI drives an openapi-generator compatible executable:
//
//	<command> generate -i <input> -g <lang> -o <outputDir> [extra args...]
type CLI struct {
	command   string
	extraArgs []string
	runner    commandRunner
	logger    *slog.Logger
}

// NewCLI creates a generator backed by the given executable.
func NewCLI(command string, extraArgs []string, logger *slog.Logger) *CLI {
	return newCLIWithRunner(command, extraArgs, logger, execCommandRunner{})
}

func newCLIWithRunner(command string, extraArgs []string, logger *slog.Logger, runner commandRunner) *CLI {
	bin := strings.TrimSpace(command)
	if bin == "" {
		bin = DefaultCommand
	}
	if runner == nil {
		runner = execCommandRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CLI{
		command:   bin,
		extraArgs: extraArgs,
		runner:    runner,
		logger:    logger,
	}
}

// Command returns the executable the CLI invokes.
func (c *CLI) Command() string { return c.command }

// Generate runs the generator and blocks until it exits.
func (c *CLI) Generate(ctx context.Context, input, lang, outputDir string) error {
	if strings.TrimSpace(input) == "" {
		return cgerr.New(cgerr.CodeGeneratorInvalidInput, "generator input must not be empty")
	}
	if strings.TrimSpace(lang) == "" {
		return cgerr.New(cgerr.CodeGeneratorInvalidInput, "generator language must not be empty")
	}
	if strings.TrimSpace(outputDir) == "" {
		return cgerr.New(cgerr.CodeGeneratorInvalidInput, "generator output directory must not be empty")
	}

	args := append([]string{"generate", "-i", input, "-g", lang, "-o", outputDir}, c.extraArgs...)
	out, err := c.runner.Run(ctx, c.command, args...)
	if out != "" {
		c.logger.Debug("generator output", "command", c.command, "output", out)
	}
	return err
}
