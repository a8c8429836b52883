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
	"encoding/csv"
	"io"
	"os"

	"github.com/pingcap/errors"
	"github.com/pingcap/pivot/pkg/config"
	"github.com/pingcap/pivot/pkg/metrics"
	"github.com/pingcap/pivot/pkg/pivot/builder"
	"github.com/pingcap/pivot/pkg/util/logutil"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type options struct {
	configFile  string
	dataFile    string
	format      string
	workers     int
	logLevel    string
	metricsFile string
	// stdin replaces os.Stdin in tests.
	stdin io.Reader
}

func loadConfig(opts *options) (*config.Config, error) {
	conf := config.NewConfig()
	if err := conf.Load(opts.configFile); err != nil {
		return nil, err
	}
	if opts.workers > 0 {
		conf.Pivot.Workers = opts.workers
	}
	if opts.logLevel != "" {
		conf.Log.Level = opts.logLevel
	}
	if err := conf.Valid(); err != nil {
		return nil, err
	}
	return conf, nil
}

func readRecords(opts *options) ([]builder.Record, error) {
	var r io.Reader
	if opts.dataFile == "-" {
		r = opts.stdin
		if r == nil {
			r = os.Stdin
		}
	} else {
		f, err := os.Open(opts.dataFile)
		if err != nil {
			return nil, errors.Trace(err)
		}
		defer f.Close()
		r = f
	}
	rows, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, errors.Annotatef(err, "read %s", opts.dataFile)
	}
	if len(rows) == 0 {
		return nil, errors.Errorf("%s has no header", opts.dataFile)
	}
	return builder.RecordsFromRows(rows[0], rows[1:])
}

func run(ctx context.Context, opts *options, out io.Writer) error {
	if opts.format != formatTable && opts.format != formatJSON {
		return errors.Errorf("unknown output format %q", opts.format)
	}
	conf, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := conf.InitLogger(); err != nil {
		return err
	}
	ctx = logutil.WithCategory(ctx, "pivot")

	reg, err := conf.Pivot.NewRegistry()
	if err != nil {
		return err
	}
	fields, err := conf.Pivot.ValueFields(reg)
	if err != nil {
		return err
	}
	records, err := readRecords(opts)
	if err != nil {
		return err
	}
	logutil.Logger(ctx).Info("records loaded",
		zap.String("file", opts.dataFile),
		zap.Int("records", len(records)))

	b := builder.New(conf.Pivot.Rows, conf.Pivot.Columns, fields, reg)
	res, err := b.BuildParallel(ctx, records, conf.Pivot.Workers)
	if err != nil {
		return err
	}
	if opts.format == formatJSON {
		err = renderJSON(out, res)
	} else {
		err = renderTable(out, res)
	}
	if err != nil {
		return err
	}
	return writeMetrics(opts.metricsFile)
}

func writeMetrics(path string) error {
	if path == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	if err := metrics.RegisterMetrics(reg); err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(prometheus.WriteToTextfile(path, reg))
}
