// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/sigil-dev/clientgen/internal/config"
	"github.com/sigil-dev/clientgen/internal/generator"
	"github.com/sigil-dev/clientgen/internal/install"
	"github.com/sigil-dev/clientgen/internal/pipeline"
	"github.com/sigil-dev/clientgen/internal/schema"
	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// flagKeys maps command flags onto config keys. Only flags a command
// declares are bound.
var flagKeys = map[string]string{
	"url":       "schema.url",
	"schema":    "schema.path",
	"dest":      "install.destination",
	"lang":      "generator.language",
	"generator": "generator.command",
	"prune":     "install.prune",
}

func newGenerateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Download the schema, generate the client and install it",
		Long: "Download the OpenAPI schema (keeping the local copy when the server is\n" +
			"unreachable), run the generator in a temporary directory and copy the\n" +
			"generated sources into the destination.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, v)
		},
	}
	addGenerateFlags(cmd)
	return cmd
}

func addGenerateFlags(cmd *cobra.Command) {
	addOverrideFlags(cmd)
	cmd.Flags().Bool("skip-fetch", false, "generate from the local schema without downloading")
}

// addOverrideFlags declares a flag for every key in flagKeys.
func addOverrideFlags(cmd *cobra.Command) {
	addSchemaFlags(cmd)
	cmd.Flags().String("dest", "", "directory receiving the generated sources")
	cmd.Flags().String("lang", "", "generator target language")
	cmd.Flags().String("generator", "", "generator executable")
	cmd.Flags().Bool("prune", false, "remove destination files the generator no longer emits")
}

func addSchemaFlags(cmd *cobra.Command) {
	cmd.Flags().String("url", "", "schema URL")
	cmd.Flags().String("schema", "", "local schema path")
}

// bindFlags binds every changed flag in flagKeys that cmd declares.
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	for name, key := range flagKeys {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return cgerr.Errorf(cgerr.CodeCLISetupFailure, "binding %s flag: %w", name, err)
		}
	}
	return nil
}

func runGenerate(cmd *cobra.Command, v *viper.Viper) error {
	cfg, err := loadConfig(cmd, v)
	if err != nil {
		return err
	}
	skipFetch, _ := cmd.Flags().GetBool("skip-fetch")

	p := newPipeline(cfg, slog.Default())
	p.SkipFetch = skipFetch

	summary, err := p.Run(cmd.Context())
	if err != nil {
		return err
	}

	status := "refreshed"
	if !summary.SchemaRefreshed {
		status = "local copy"
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "installed %d file(s) into %s (schema: %s)\n",
		summary.Install.Files(), cfg.Install.Destination, status)
	return err
}

// newPipeline wires the production components for cfg.
func newPipeline(cfg *config.Config, logger *slog.Logger) *pipeline.Pipeline {
	gen := generator.NewCLI(cfg.Generator.Command, cfg.Generator.ExtraArgs, logger)

	return &pipeline.Pipeline{
		Fetcher: schema.NewFetcher(cfg.Schema.Timeout, schema.WithLogger(logger)),
		Generator: generator.NewClientGenerator(gen, generator.Options{
			Language:   cfg.Generator.Language,
			SourceDir:  cfg.Generator.SourceDir,
			TempPrefix: cfg.Generator.TempPrefix,
			Timeout:    cfg.Generator.Timeout,
			Logger:     logger,
		}),
		Installer: install.NewInstaller(install.Options{
			Prune:  cfg.Install.Prune,
			Logger: logger,
		}),
		Paths: pipeline.Paths{
			SchemaURL:   cfg.Schema.URL,
			SchemaPath:  cfg.Schema.Path,
			Destination: cfg.Install.Destination,
		},
		Logger: logger,
	}
}
