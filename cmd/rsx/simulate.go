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
	"reflect"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"dirpx.dev/rsx"
	"dirpx.dev/rsx/apis"
	"dirpx.dev/rsx/config"
)

const (
	FlagCategory  = "category"
	FlagSelectors = "selectors"
	FlagDistinct  = "distinct"
	FlagWorkers   = "workers"
	FlagLatency   = "latency"
)

// syntheticBean is the type requested by simulated injection points.
type syntheticBean struct{}

func newSimulateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Resolve a synthetic workload and report cache statistics",
		Long: `simulate builds --selectors selectors spread over --distinct qualifier
  values and resolves them through the executor. Every computation takes
  --latency. The report shows how many computations actually ran.`,
		Args: cobra.NoArgs,
		RunE: runSimulate,

		DisableAutoGenTag: true,
		SilenceUsage:      true,
	}
	cmd.Flags().String(FlagCategory, apis.Beans.String(), "provider category to resolve in")
	cmd.Flags().Int(FlagSelectors, 1000, "number of selectors to resolve")
	cmd.Flags().Int(FlagDistinct, 100, "number of distinct selectors")
	cmd.Flags().Int32(FlagWorkers, 0, "executor pool size (0 keeps the configured value)")
	cmd.Flags().Duration(FlagLatency, time.Millisecond, "duration of every computation")
	return cmd
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	categoryText, err := flags.GetString(FlagCategory)
	if err != nil {
		return err
	}
	category, err := apis.ParseCategory(categoryText)
	if err != nil {
		return err
	}
	total, err := flags.GetInt(FlagSelectors)
	if err != nil {
		return err
	}
	distinct, err := flags.GetInt(FlagDistinct)
	if err != nil {
		return err
	}
	if total < 0 || distinct <= 0 {
		return fmt.Errorf("--%s must not be negative and --%s must be positive", FlagSelectors, FlagDistinct)
	}
	workers, err := flags.GetInt32(FlagWorkers)
	if err != nil {
		return err
	}
	latency, err := flags.GetDuration(FlagLatency)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if workers > 0 {
		if cfg, err = config.WithInt32(config.ExecutorThreadPoolSize, workers)(cfg); err != nil {
			return err
		}
	}

	logger := newLogger(cmd)
	engine, err := rsx.New(rsx.WithConfig(cfg), rsx.WithLogger(logger))
	if err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(cmd.Context()); err != nil {
			logger.Error(err, "engine close failed")
		}
	}()

	sels := make([]apis.Selector, total)
	for i := range sels {
		sel, err := engine.NewBuilder().
			SetType(reflect.TypeOf(syntheticBean{})).
			AddQualifier(apis.Named{Value: strconv.Itoa(i % distinct)}).
			Build()
		if err != nil {
			return err
		}
		sels[i] = sel
	}

	var computations atomic.Int64
	start := time.Now()
	_, err = rsx.ResolveAll(cmd.Context(), engine, category, sels, func(sel apis.Selector) (string, error) {
		computations.Add(1)
		time.Sleep(latency)
		return sel.String(), nil
	})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	r := engine.Resolver(category)
	stats := r.Stats()
	t := newTable(cmd)
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"category", category.String()},
		{"executor", string(engine.Executor().Type())},
		{"selectors", total},
		{"distinct", distinct},
		{"computations", computations.Load()},
		{"hits", stats.Hits},
		{"misses", stats.Misses},
		{"shared", stats.Shared},
		{"evictions", stats.Evictions},
		{"entries", r.Len()},
		{"elapsed", elapsed.Round(time.Microsecond).String()},
	})
	t.Render()
	return nil
}
