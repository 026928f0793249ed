// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"errors"
	"io"

	"github.com/sigil-dev/clientgen/internal/config"
	"github.com/sigil-dev/clientgen/internal/logging"
	cgerr "github.com/sigil-dev/clientgen/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app is the state shared by one command tree.
type app struct {
	// Each command tree owns its viper so flag bindings and the discovered
	// config file never leak between invocations.
	v         *viper.Viper
	logCloser io.Closer
}

// closeLog releases the log file opened by initLogging, if any. Cobra skips
// PersistentPostRunE when RunE fails, so callers also run it after Execute.
func (a *app) closeLog() error {
	if a.logCloser == nil {
		return nil
	}
	err := a.logCloser.Close()
	a.logCloser = nil
	return err
}

// NewRootCmd creates the root clientgen command with all subcommands
// registered. Running it without a subcommand behaves like "generate".
func NewRootCmd() *cobra.Command {
	root, _ := newRootCmd()
	return root
}

func newRootCmd() (*cobra.Command, *app) {
	a := &app{v: viper.New()}
	v := a.v

	root := &cobra.Command{
		Use:   "clientgen",
		Short: "Generate an API client from a served OpenAPI schema",
		Long: "clientgen downloads the OpenAPI schema published by the backend, runs the\n" +
			"code generator against it and installs the generated sources into the project.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initViper(cmd, v); err != nil {
				return err
			}
			closer, err := initLogging(cmd, v)
			if err != nil {
				return err
			}
			a.logCloser = closer
			config.WarnInsecurePermissions(v.ConfigFileUsed())
			return nil
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return a.closeLog()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, v)
		},
	}

	// Global flags, mapped to viper keys in initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file (default ./clientgen.yaml)")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().String("log-format", "", "log format: text or json")
	root.PersistentFlags().String("log-file", "", "write logs to a rotated file instead of stderr")

	addGenerateFlags(root)

	root.AddCommand(
		newGenerateCmd(v),
		newFetchCmd(v),
		newDoctorCmd(v),
		newInitCmd(),
		newConfigCmd(v),
		newVersionCmd(),
	)

	return root, a
}

// initViper sets up v with defaults, env bindings, flag bindings, and the
// optional config file so the standard precedence (flag > env > file >
// defaults) is handled uniformly.
func initViper(cmd *cobra.Command, v *viper.Viper) error {
	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return cgerr.Errorf(cgerr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// SetConfigType is omitted: with it viper also tries the bare name,
		// which collides with a ./clientgen binary in the project root.
		v.SetConfigName("clientgen")
		v.AddConfigPath(".")
		// No config file is fine. Parse or permission errors must surface.
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return cgerr.Errorf(cgerr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
		}
	}

	flags := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{
		"log.format": "log-format",
		"log.file":   "log-file",
	} {
		if !flags.Changed(flag) {
			continue
		}
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return cgerr.Errorf(cgerr.CodeCLISetupFailure, "binding %s flag: %w", flag, err)
		}
	}
	if verbose, _ := flags.GetBool("verbose"); verbose {
		v.Set("log.level", "debug")
	}

	return nil
}

func initLogging(cmd *cobra.Command, v *viper.Viper) (io.Closer, error) {
	closer, err := logging.Setup(logging.Options{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		File:   v.GetString("log.file"),
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, cgerr.Wrap(err, cgerr.CodeCLISetupFailure, "configuring logging")
	}
	return closer, nil
}

// loadConfig binds the running command's flags and decodes the effective
// configuration.
func loadConfig(cmd *cobra.Command, v *viper.Viper) (*config.Config, error) {
	if err := bindFlags(cmd, v); err != nil {
		return nil, err
	}
	return config.FromViper(v)
}
