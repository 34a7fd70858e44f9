/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"

	"dirpx.dev/rsx/config"
)

const (
	FlagFile      = "file"
	FlagEnvPrefix = "env-prefix"
	FlagSet       = "set"
	FlagVerbosity = "verbosity"

	// DefaultEnvPrefix is empty: rsx.resolution.cacheSize is read from
	// RSX_RESOLUTION_CACHESIZE.
	DefaultEnvPrefix = ""
)

// New returns the root command.
func New() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rsx [sub-command]",
		Short: "Inspect and exercise typesafe selector resolution",
		Long: `rsx shows the configuration keys of the resolution engine, their
  effective values, and runs resolution workloads against the per-category
  caches.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}

	cmd.PersistentFlags().StringP(FlagFile, "f", "", "YAML or JSON file with configuration values")
	cmd.PersistentFlags().String(FlagEnvPrefix, DefaultEnvPrefix, "extra prefix of the environment variables holding configuration values")
	cmd.PersistentFlags().StringArray(FlagSet, nil, "configuration value as id=value, may be repeated (highest precedence)")
	cmd.PersistentFlags().IntP(FlagVerbosity, "v", 0, "log verbosity; 1 enables debug output")

	cmd.AddCommand(newConfigCommand())
	cmd.AddCommand(newSimulateCommand())
	return cmd
}

// loadConfig builds the configuration from --set values, the environment
// and --file, in that order of precedence.
func loadConfig(cmd *cobra.Command) (config.Configuration, error) {
	sets, err := cmd.Flags().GetStringArray(FlagSet)
	if err != nil {
		return config.Configuration{}, err
	}
	prefix, err := cmd.Flags().GetString(FlagEnvPrefix)
	if err != nil {
		return config.Configuration{}, err
	}
	file, err := cmd.Flags().GetString(FlagFile)
	if err != nil {
		return config.Configuration{}, err
	}

	values := make(map[string]string, len(sets))
	for _, s := range sets {
		id, value, ok := strings.Cut(s, "=")
		if !ok {
			return config.Configuration{}, fmt.Errorf("invalid --%s %q: expected id=value", FlagSet, s)
		}
		id = strings.TrimSpace(id)
		if _, known := config.Lookup(id); !known {
			return config.Configuration{}, fmt.Errorf("%w: %s", config.ErrUnknownKey, id)
		}
		values[id] = value
	}

	sources := []config.Source{config.Map("flags", values), config.Env(prefix)}
	if file != "" {
		src, err := config.File(file)
		if err != nil {
			return config.Configuration{}, err
		}
		sources = append(sources, src)
	}
	return config.Load(sources...)
}

// newLogger returns a logr.Logger writing text records to stderr.
func newLogger(cmd *cobra.Command) logr.Logger {
	verbosity, _ := cmd.Flags().GetInt(FlagVerbosity)
	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: slog.Level(-verbosity)})
	return logr.FromSlogHandler(handler)
}
