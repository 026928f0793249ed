// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"fmt"
	"log/slog"

	"github.com/sigil-dev/clientgen/internal/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newFetchCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the OpenAPI schema only",
		Long: "Download the OpenAPI schema and replace the local copy. Unlike generate,\n" +
			"a failed download is an error.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}

			f := schema.NewFetcher(cfg.Schema.Timeout, schema.WithLogger(slog.Default()))
			res, err := f.Fetch(cmd.Context(), cfg.Schema.URL, cfg.Schema.Path)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved %s (%d bytes, sha256 %s)\n", res.Path, res.Bytes, res.SHA256)
			return err
		},
	}
	addSchemaFlags(cmd)
	return cmd
}
