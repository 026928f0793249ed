// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sigil-dev/clientgen/internal/config"
	"github.com/sigil-dev/clientgen/internal/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sys/unix"
)

// doctorHTTPClient probes the schema URL. Tests replace it.
var doctorHTTPClient = &http.Client{Timeout: 5 * time.Second}

func newDoctorCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostics",
		Long:  "Check the generator binary, the local schema, the destination directory and the schema endpoint.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}
			return runDoctor(cmd, v, cfg)
		},
	}

	addSchemaFlags(cmd)
	cmd.Flags().String("dest", "", "directory receiving the generated sources")
	cmd.Flags().String("generator", "", "generator executable")

	return cmd
}

func runDoctor(cmd *cobra.Command, v *viper.Viper, cfg *config.Config) error {
	w := cmd.OutOrStdout()
	ctx := cmd.Context()

	checks := []struct {
		name string
		fn   func() string
	}{
		{"Binary", checkBinary},
		{"Config", func() string { return checkConfig(v.ConfigFileUsed()) }},
		{"Generator", func() string { return checkGenerator(cfg.Generator.Command) }},
		{"Schema", func() string { return checkSchemaFile(cfg.Schema.Path) }},
		{"Destination", func() string { return checkDestination(cfg.Install.Destination) }},
		{"Schema URL", func() string { return checkSchemaURL(ctx, cfg.Schema.URL) }},
	}

	for _, c := range checks {
		if _, err := fmt.Fprintf(w, "%-20s %s\n", c.name+":", c.fn()); err != nil {
			return err
		}
	}

	return nil
}

func checkBinary() string {
	return fmt.Sprintf("clientgen %s (%s/%s, Go %s)", version, runtime.GOOS, runtime.GOARCH, runtime.Version())
}

func checkConfig(cfgFile string) string {
	if cfgFile != "" {
		return fmt.Sprintf("loaded from %s", cfgFile)
	}
	return "using defaults (no config file found)"
}

func checkGenerator(command string) string {
	path, err := exec.LookPath(command)
	if err != nil {
		return fmt.Sprintf("%s not found on PATH", command)
	}
	return fmt.Sprintf("found at %s", path)
}

func checkSchemaFile(path string) string {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Sprintf("missing at %s (run 'clientgen fetch')", path)
		}
		return fmt.Sprintf("error: %s", err)
	}
	if info.IsDir() {
		return fmt.Sprintf("%s is a directory", path)
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return fmt.Sprintf("%s is not readable: %s", path, err)
	}
	doc, err := schema.Inspect(path)
	if err != nil {
		return fmt.Sprintf("%s is not a usable API description: %s", path, err)
	}
	return fmt.Sprintf("%s (%s, %s %s %q v%s, %d paths)", path, formatBytes(uint64(info.Size())),
		doc.Format, doc.Version, doc.Title, doc.APIVersion, doc.Paths)
}

// checkDestination reports whether the destination, or the nearest ancestor
// that exists, can be written.
func checkDestination(dest string) string {
	abs, err := filepath.Abs(dest)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}

	dir := abs
	for {
		if _, err := os.Stat(dir); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return fmt.Sprintf("no existing ancestor of %s", abs)
		}
		dir = parent
	}

	if err := unix.Access(dir, unix.W_OK); err != nil {
		return fmt.Sprintf("%s is not writable: %s", dir, err)
	}
	if dir != abs {
		return fmt.Sprintf("%s will be created (%s is writable)", dest, dir)
	}
	return fmt.Sprintf("%s is writable", dest)
}

func checkSchemaURL(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Sprintf("error: %s", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := doctorHTTPClient.Do(req)
	if err != nil {
		return fmt.Sprintf("unreachable at %s (the local schema will be used)", url)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Sprintf("%s returned %s", url, resp.Status)
	}
	return fmt.Sprintf("reachable at %s", url)
}

// formatBytes formats a byte count as a human-readable string.
func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * 1024
	)
	switch {
	case b >= mb:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d bytes", b)
	}
}
