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

package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"
	"github.com/pingcap/pivot/pkg/pivot"
	"github.com/pingcap/pivot/pkg/pivot/aggregation"
	"github.com/pingcap/pivot/pkg/pivot/aggregation/sketch"
	"github.com/pingcap/pivot/pkg/util/logutil"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Names of the aggregates served by sketches instead of built-ins.
const (
	AggregateMedian     = "median"
	AggregatePercentile = "percentile"
)

// ErrInvalidConfig is returned when the configuration is rejected.
var ErrInvalidConfig = errors.Normalize("invalid config: %s",
	errors.RFCCodeText("Pivot:config:ErrInvalidConfig"))

// Config contains configuration options.
type Config struct {
	Log   Log   `toml:"log" json:"log"`
	Pivot Pivot `toml:"pivot" json:"pivot"`
}

// Log is the log section of config.
type Log struct {
	// Log level.
	Level string `toml:"level" json:"level"`
	// Log format, one of json or text.
	Format string `toml:"format" json:"format"`
	// Disable automatic timestamps in output.
	DisableTimestamp bool `toml:"disable-timestamp" json:"disable-timestamp"`
	// File log config.
	File logutil.FileLogConfig `toml:"file" json:"file"`
}

// Pivot is the layout of the pivot to build.
type Pivot struct {
	// Locale used to parse numeric strings, as a BCP 47 tag. Empty means
	// the invariant format.
	Locale  string   `toml:"locale" json:"locale"`
	Rows    []string `toml:"rows" json:"rows"`
	Columns []string `toml:"columns" json:"columns"`
	// Workers is the number of goroutines accumulating records.
	Workers int     `toml:"workers" json:"workers"`
	Fields  []Field `toml:"fields" json:"fields"`
}

// Field is one value field.
type Field struct {
	Key       string `toml:"key" json:"key"`
	Header    string `toml:"header" json:"header"`
	Source    string `toml:"source" json:"source"`
	Aggregate string `toml:"aggregate" json:"aggregate"`
	Formula   string `toml:"formula" json:"formula"`
	// Percentile is the quantile, in (0, 1], of the percentile aggregate.
	Percentile float64 `toml:"percentile" json:"percentile"`
}

var defaultConf = Config{
	Log: Log{
		Level:  logutil.DefaultLogLevel,
		Format: logutil.DefaultLogFormat,
		File:   logutil.NewFileLogConfig(logutil.DefaultLogMaxSize),
	},
	Pivot: Pivot{
		Workers: 1,
	},
}

// NewConfig creates a new config instance with default value.
func NewConfig() *Config {
	conf := defaultConf
	return &conf
}

// Load loads config options from a toml file. Keys the config does not know
// are rejected.
func (c *Config) Load(confFile string) error {
	metaData, err := toml.DecodeFile(confFile, c)
	if err != nil {
		return errors.Trace(err)
	}
	if undecoded := metaData.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return ErrInvalidConfig.GenWithStackByArgs(fmt.Sprintf("%s: unknown keys %s", confFile, strings.Join(keys, ", ")))
	}
	return nil
}

// Valid checks if this config is valid. Every problem found is reported.
// Field names, the key or else the header, must be unique ignoring case.
func (c *Config) Valid() error {
	var err error
	if _, e := c.Pivot.LocaleTag(); e != nil {
		err = multierr.Append(err, e)
	}
	if c.Pivot.Workers < 1 {
		err = multierr.Append(err, ErrInvalidConfig.GenWithStackByArgs(
			fmt.Sprintf("pivot.workers must be at least 1, got %d", c.Pivot.Workers)))
	}
	if len(c.Pivot.Fields) == 0 {
		err = multierr.Append(err, ErrInvalidConfig.GenWithStackByArgs("no value fields"))
	}
	names := make(map[string]int, len(c.Pivot.Fields))
	for i := range c.Pivot.Fields {
		f := &c.Pivot.Fields[i]
		err = multierr.Append(err, f.valid(i))
		name := f.Key
		if name == "" {
			name = f.Header
		}
		if name == "" {
			continue
		}
		name = strings.ToLower(name)
		if j, ok := names[name]; ok {
			err = multierr.Append(err, ErrInvalidConfig.GenWithStackByArgs(
				fmt.Sprintf("field %d has the same name as field %d", i, j)))
			continue
		}
		names[name] = i
	}
	return err
}

func (f *Field) valid(i int) error {
	var err error
	if f.Key == "" && f.Header == "" {
		err = multierr.Append(err, ErrInvalidConfig.GenWithStackByArgs(
			fmt.Sprintf("field %d has neither key nor header", i)))
	}
	switch agg := strings.ToLower(strings.TrimSpace(f.Aggregate)); agg {
	case "":
		if f.Formula == "" {
			err = multierr.Append(err, ErrInvalidConfig.GenWithStackByArgs(
				fmt.Sprintf("field %d has neither aggregate nor formula", i)))
		}
	case AggregateMedian:
	case AggregatePercentile:
		if f.Percentile <= 0 || f.Percentile > 1 {
			err = multierr.Append(err, ErrInvalidConfig.GenWithStackByArgs(
				fmt.Sprintf("field %d: percentile must be in (0, 1], got %v", i, f.Percentile)))
		}
	default:
		if _, ok := aggregation.ParseKind(agg); !ok {
			err = multierr.Append(err, ErrInvalidConfig.GenWithStackByArgs(
				fmt.Sprintf("field %d: unknown aggregate %q", i, f.Aggregate)))
		}
	}
	return err
}

// LocaleTag parses the locale.
func (p *Pivot) LocaleTag() (language.Tag, error) {
	if p.Locale == "" {
		return language.Und, nil
	}
	tag, err := language.Parse(p.Locale)
	if err != nil {
		return language.Und, ErrInvalidConfig.GenWithStackByArgs(fmt.Sprintf("pivot.locale %q: %v", p.Locale, err))
	}
	return tag, nil
}

// NewRegistry creates the aggregator registry for the configured locale,
// with the median sketch registered.
func (p *Pivot) NewRegistry() (*aggregation.Registry, error) {
	tag, err := p.LocaleTag()
	if err != nil {
		return nil, err
	}
	reg := aggregation.NewRegistry(aggregation.WithLocale(tag))
	if err := sketch.Register(reg); err != nil {
		return nil, errors.Trace(err)
	}
	return reg, nil
}

// ValueFields converts the fields section into value fields. Percentile
// fields get their own aggregator; every other aggregate is looked up in reg
// when the pivot is built.
func (p *Pivot) ValueFields(reg *aggregation.Registry) ([]pivot.ValueField, error) {
	fields := make([]pivot.ValueField, 0, len(p.Fields))
	for i, f := range p.Fields {
		vf := pivot.ValueField{
			Key:     f.Key,
			Header:  f.Header,
			Source:  f.Source,
			Formula: f.Formula,
		}
		switch agg := strings.ToLower(strings.TrimSpace(f.Aggregate)); agg {
		case "":
		case AggregateMedian:
			vf.Kind = sketch.KindMedian
		case AggregatePercentile:
			a, err := sketch.NewPercentile(f.Percentile, reg.Coercer())
			if err != nil {
				return nil, errors.Trace(err)
			}
			vf.Kind = sketch.KindPercentile
			vf.Aggregator = a
		default:
			kind, ok := aggregation.ParseKind(agg)
			if !ok {
				return nil, ErrInvalidConfig.GenWithStackByArgs(fmt.Sprintf("field %d: unknown aggregate %q", i, f.Aggregate))
			}
			vf.Kind = kind
		}
		fields = append(fields, vf)
	}
	return fields, nil
}

// ToLogConfig converts *Log to *logutil.LogConfig.
func (l *Log) ToLogConfig() *logutil.LogConfig {
	return logutil.NewLogConfig(l.Level, l.Format, l.File, l.DisableTimestamp)
}

// InitLogger initializes the global logger from the log section.
func (c *Config) InitLogger() error {
	if err := logutil.InitLogger(c.Log.ToLogConfig()); err != nil {
		return errors.Trace(err)
	}
	logutil.BgLogger().Debug("logger initialized", zap.String("level", c.Log.Level))
	return nil
}
