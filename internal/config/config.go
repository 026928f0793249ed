// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package config

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. CLIENTGEN_SCHEMA_URL.
const EnvPrefix = "CLIENTGEN"

// Config is the top-level clientgen configuration.
type Config struct {
	Schema    SchemaConfig    `mapstructure:"schema" yaml:"schema"`
	Generator GeneratorConfig `mapstructure:"generator" yaml:"generator"`
	Install   InstallConfig   `mapstructure:"install" yaml:"install"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// SchemaConfig controls where the API description is downloaded from and
// where the local copy lives.
type SchemaConfig struct {
	URL     string        `mapstructure:"url" yaml:"url" validate:"required,url,startswith=http"`
	Path    string        `mapstructure:"path" yaml:"path" validate:"required"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
}

// GeneratorConfig describes the external code generator invocation.
type GeneratorConfig struct {
	Command    string        `mapstructure:"command" yaml:"command" validate:"required"`
	Language   string        `mapstructure:"language" yaml:"language" validate:"required"`
	SourceDir  string        `mapstructure:"source_dir" yaml:"source_dir" validate:"required"`
	TempPrefix string        `mapstructure:"temp_prefix" yaml:"temp_prefix"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`
	ExtraArgs  []string      `mapstructure:"extra_args" yaml:"extra_args,omitempty"`
}

// InstallConfig controls where generated sources land.
type InstallConfig struct {
	Destination string `mapstructure:"destination" yaml:"destination" validate:"required"`
	Prune       bool   `mapstructure:"prune" yaml:"prune"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
	File   string `mapstructure:"file" yaml:"file,omitempty"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("schema.url", "http://localhost:5000/apispec_1.json")
	v.SetDefault("schema.path", "src/api/apispec_1.json")
	v.SetDefault("schema.timeout", 30*time.Second)
	v.SetDefault("generator.command", "openapi-generator-cli")
	v.SetDefault("generator.language", "javascript")
	v.SetDefault("generator.source_dir", "src")
	v.SetDefault("generator.temp_prefix", "openapi-client-gen-")
	v.SetDefault("generator.timeout", 5*time.Minute)
	v.SetDefault("generator.extra_args", []string{})
	v.SetDefault("install.destination", "src/client")
	v.SetDefault("install.prune", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// SetupEnv binds CLIENTGEN_* environment variables onto dotted keys.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides (prefix CLIENTGEN_).
func Load(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, cgerr.Errorf(cgerr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	return FromViper(v)
}

// FromViper decodes and validates the configuration held by v. The CLI uses
// it with the global viper so flag bindings take part in precedence.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, cgerr.Errorf(cgerr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, cgerr.Errorf(cgerr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report dotted config keys ("schema.url") rather than Go field names.
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return val
}

// Validate checks the configuration for logical errors.
// It returns a slice of all validation errors found, collecting all issues
// rather than stopping at the first one.
func (c *Config) Validate() []error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []error{cgerr.Errorf(cgerr.CodeConfigValidateInvalidValue, "config: %w", err)}
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, cgerr.New(cgerr.CodeConfigValidateInvalidValue,
			"config: "+describe(fe),
			cgerr.Field("key", configKey(fe)),
		))
	}
	return errs
}

// configKey trims the root struct name from the validator namespace.
func configKey(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	key := configKey(fe)
	switch fe.Tag() {
	case "required":
		return key + " must not be empty"
	case "url", "startswith":
		return key + " must be an absolute http or https URL, got " + quote(fe.Value())
	case "gt":
		return key + " must be greater than 0"
	case "oneof":
		return key + " must be one of [" + fe.Param() + "], got " + quote(fe.Value())
	default:
		return key + " failed " + fe.Tag() + " check"
	}
}

func quote(v any) string {
	s, _ := v.(string)
	return `"` + s + `"`
}
