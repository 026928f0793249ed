// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	"io"

	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
	"gopkg.in/yaml.v3"
)

// durations are rendered as Go duration strings ("30s") so the output can be
// fed back through Load.
type renderedSchema struct {
	URL     string `yaml:"url"`
	Path    string `yaml:"path"`
	Timeout string `yaml:"timeout"`
}

type renderedGenerator struct {
	Command    string   `yaml:"command"`
	Language   string   `yaml:"language"`
	SourceDir  string   `yaml:"source_dir"`
	TempPrefix string   `yaml:"temp_prefix"`
	Timeout    string   `yaml:"timeout"`
	ExtraArgs  []string `yaml:"extra_args,omitempty"`
}

type rendered struct {
	Schema    renderedSchema    `yaml:"schema"`
	Generator renderedGenerator `yaml:"generator"`
	Install   InstallConfig     `yaml:"install"`
	Log       LogConfig         `yaml:"log"`
}

// Render writes c as YAML in the same shape Load accepts.
func (c *Config) Render(w io.Writer) error {
	doc := rendered{
		Schema: renderedSchema{
			URL:     c.Schema.URL,
			Path:    c.Schema.Path,
			Timeout: c.Schema.Timeout.String(),
		},
		Generator: renderedGenerator{
			Command:    c.Generator.Command,
			Language:   c.Generator.Language,
			SourceDir:  c.Generator.SourceDir,
			TempPrefix: c.Generator.TempPrefix,
			Timeout:    c.Generator.Timeout.String(),
			ExtraArgs:  c.Generator.ExtraArgs,
		},
		Install: c.Install,
		Log:     c.Log,
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return cgerr.Errorf(cgerr.CodeCLIInternalFailure, "encoding config: %w", err)
	}
	return enc.Close()
}
