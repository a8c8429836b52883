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

// Build and aggregation metrics.
var (
	AggregationMergeCounter         *prometheus.CounterVec
	AggregationMergeMismatchCounter prometheus.Counter

	BuilderRecordCounter     prometheus.Counter
	BuilderDurationHistogram prometheus.Histogram
)

// InitStatsMetrics initializes build and aggregation metrics.
func InitStatsMetrics() {
	AggregationMergeCounter = NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "aggregation",
			Name:      "merge_total",
			Help:      "Counter of aggregation state merges.",
		}, []string{LblResult})
	AggregationMergeMismatchCounter = AggregationMergeCounter.WithLabelValues(LblMismatch)

	BuilderRecordCounter = NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "records_total",
			Help:      "Counter of source records routed into pivot cells.",
		})

	BuilderDurationHistogram = NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "builder",
			Name:      "duration_seconds",
			Help:      "Bucketed histogram of pivot build time (s).",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 20), // 0.5ms ~ 4.4min
		})
}
