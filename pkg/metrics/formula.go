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

// formula metrics.
var (
	FormulaCompileCounter *prometheus.CounterVec
)

// InitFormulaMetrics initializes formula metrics.
func InitFormulaMetrics() {
	FormulaCompileCounter = NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "formula",
			Name:      "compile_total",
			Help:      "Counter of formula compilations.",
		}, []string{LblResult})
}

// evaluator metrics.
var (
	EvaluatorRequestCounter prometheus.Counter
	EvaluatorCycleCounter   prometheus.Counter
)

// InitEvaluatorMetrics initializes evaluator metrics.
func InitEvaluatorMetrics() {
	EvaluatorRequestCounter = NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "requests_total",
			Help:      "Counter of cell evaluation requests.",
		})

	EvaluatorCycleCounter = NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "evaluator",
			Name:      "cycle_total",
			Help:      "Counter of cyclic formula references cut by the cycle guard.",
		})
}
