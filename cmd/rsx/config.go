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
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"

	"dirpx.dev/rsx/config"
)

const (
	FlagOutput      = "output"
	FlagOutputTable = "table"
	FlagOutputYAML  = "yaml"
	FlagOutputJSON  = "json"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration keys and values",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "keys",
		Short: "List every configuration key with its type and default",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			t := newTable(cmd)
			t.AppendHeader(table.Row{"Key", "Type", "Default"})
			for _, k := range config.Keys() {
				t.AppendRow(table.Row{k.ID(), k.Type().String(), fmt.Sprint(k.Default())})
			}
			t.Render()
			return nil
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	})

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration and where each value came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			output, err := cmd.Flags().GetString(FlagOutput)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return writeConfig(cmd, cfg, output)
		},
		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	show.Flags().StringP(FlagOutput, "o", FlagOutputTable, "output format: table, yaml or json")
	cmd.AddCommand(show)
	return cmd
}

type entry struct {
	Key    string `json:"key"`
	Type   string `json:"type"`
	Value  any    `json:"value"`
	Origin string `json:"origin"`
}

func writeConfig(cmd *cobra.Command, cfg config.Configuration, output string) error {
	values := cfg.Entries()
	entries := make([]entry, 0, len(values))
	for _, v := range values {
		entries = append(entries, entry{Key: v.Key.ID(), Type: v.Key.Type().String(), Value: v.Value, Origin: v.Origin})
	}

	switch output {
	case FlagOutputTable:
		t := newTable(cmd)
		t.AppendHeader(table.Row{"Key", "Value", "Origin"})
		for _, e := range entries {
			t.AppendRow(table.Row{e.Key, fmt.Sprint(e.Value), e.Origin})
		}
		t.Render()
		return nil
	case FlagOutputYAML:
		data, err := yaml.Marshal(entries)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	case FlagOutputJSON:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return err
		}
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	default:
		return fmt.Errorf("unknown output format %q", output)
	}
}

func newTable(cmd *cobra.Command) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	return t
}
