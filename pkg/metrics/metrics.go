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

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "pivot"

// label constants.
const (
	LblResult = "result"

	LblOK       = "ok"
	LblFailed   = "failed"
	LblMismatch = "mismatch"
)

var collectors []prometheus.Collector

func init() {
	InitMetrics()
}

// InitMetrics (re)creates every metric of the package. It is called from the
// package init, tests may call it again to start from zeroed collectors.
func InitMetrics() {
	collectors = collectors[:0]
	InitFormulaMetrics()
	InitEvaluatorMetrics()
	InitStatsMetrics()
}

// RegisterMetrics registers every metric of the package with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// RetLabel returns "ok" when err is nil and "failed" otherwise.
func RetLabel(err error) string {
	if err == nil {
		return LblOK
	}
	return LblFailed
}

// NewCounter wraps a prometheus.NewCounter and tracks it for registration.
func NewCounter(opts prometheus.CounterOpts) prometheus.Counter {
	c := prometheus.NewCounter(opts)
	collectors = append(collectors, c)
	return c
}

// NewCounterVec wraps a prometheus.NewCounterVec and tracks it for registration.
func NewCounterVec(opts prometheus.CounterOpts, labelNames []string) *prometheus.CounterVec {
	c := prometheus.NewCounterVec(opts, labelNames)
	collectors = append(collectors, c)
	return c
}

// NewHistogram wraps a prometheus.NewHistogram and tracks it for registration.
func NewHistogram(opts prometheus.HistogramOpts) prometheus.Histogram {
	h := prometheus.NewHistogram(opts)
	collectors = append(collectors, h)
	return h
}
