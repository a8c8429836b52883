// Copyright 2026 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pingcap/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sc := make(chan os.Signal, 1)
	signal.Notify(sc,
		syscall.SIGHUP,
		syscall.SIGINT,
		syscall.SIGTERM,
		syscall.SIGQUIT)

	go func() {
		sig := <-sc
		log.Warn("received signal to exit", zap.Stringer("signal", sig))
		cancel()
		<-sc
		os.Exit(1)
	}()

	rootCmd := newRootCommand()
	rootCmd.SetOut(os.Stdout)
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, err)
		log.Error("pivot failed", zap.Error(err))
		os.Exit(1) // nolint:gocritic
	}
}

const (
	flagConfig   = "config"
	flagData     = "data"
	flagFormat   = "format"
	flagWorkers  = "workers"
	flagLogLevel = "log-level"
	flagMetrics  = "metrics-file"
)

func newRootCommand() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "pivot",
		Short:        "pivot aggregates a CSV file into a pivot table with calculated fields.",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.configFile, flagConfig, "C", "pivot.toml", "Path of the TOML config file")
	cmd.Flags().StringVarP(&opts.dataFile, flagData, "d", "", "Path of the CSV data file, '-' reads stdin")
	cmd.Flags().StringVarP(&opts.format, flagFormat, "f", formatTable, "Output format, table or json")
	cmd.Flags().IntVar(&opts.workers, flagWorkers, 0, "Override pivot.workers of the config file")
	cmd.Flags().StringVarP(&opts.logLevel, flagLogLevel, "L", "", "Override log.level of the config file")
	cmd.Flags().StringVar(&opts.metricsFile, flagMetrics, "", "Write the metrics of the run to this file in the Prometheus text format")
	_ = cmd.MarkFlagRequired(flagData)
	return cmd
}
