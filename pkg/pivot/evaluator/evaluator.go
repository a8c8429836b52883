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

// Package evaluator computes the display values of pivot cells. Plain value
// fields read their aggregation state; calculated fields run their compiled
// formula, resolving field references and totals lazily per request.
package evaluator

import (
	"github.com/pingcap/pivot/pkg/metrics"
	"github.com/pingcap/pivot/pkg/pivot"
	"github.com/pingcap/pivot/pkg/pivot/aggregation"
	"github.com/pingcap/pivot/pkg/pivot/formula"
	"github.com/pingcap/pivot/pkg/util/logutil"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Evaluator evaluates value fields over a frozen cell state map. It never
// mutates the map, so one Evaluator serves concurrent callers.
type Evaluator struct {
	fields     []pivot.ValueField
	formulas   []*formula.Formula
	usage      formula.Usage
	cells      *pivot.CellStateMap
	rowParents *pivot.ParentTable
	colParents *pivot.ParentTable
	coercer    *aggregation.Coercer

	requests atomic.Int64
	cycles   atomic.Int64
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithCoercer sets the coercer used to read aggregate results as numbers in
// formulas.
func WithCoercer(c *aggregation.Coercer) Option {
	return func(e *Evaluator) {
		if c != nil {
			e.coercer = c
		}
	}
}

// WithParentTables sets the parent lookups used by ParentRowTotal and
// ParentColumnTotal.
func WithParentTables(rows, cols *pivot.ParentTable) Option {
	return func(e *Evaluator) {
		e.rowParents = rows
		e.colParents = cols
	}
}

// WithFormulas sets already compiled formulas, indexed like the fields.
func WithFormulas(formulas []*formula.Formula) Option {
	return func(e *Evaluator) {
		e.formulas = formulas
	}
}

// New creates an evaluator. Formulas are compiled from the fields unless
// given with WithFormulas.
func New(fields []pivot.ValueField, cells *pivot.CellStateMap, opts ...Option) *Evaluator {
	e := &Evaluator{
		fields:  fields,
		cells:   cells,
		coercer: aggregation.InvariantCoercer(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.formulas == nil {
		e.formulas, e.usage = CompileFormulas(fields)
	} else {
		e.usage = formula.Usage{FieldCount: len(fields)}
		for _, f := range e.formulas {
			if f != nil {
				e.usage = e.usage.Merge(f.Usage())
			}
		}
	}
	return e
}

// CompileFormulas compiles the formula of every field. A field whose formula
// is empty or fails to compile gets a nil entry and is read as a plain
// aggregate. The returned usage merges the usages of all compiled formulas.
func CompileFormulas(fields []pivot.ValueField) ([]*formula.Formula, formula.Usage) {
	names := formula.NewNameTable(pivot.FieldNames(fields))
	formulas := make([]*formula.Formula, len(fields))
	usage := formula.Usage{FieldCount: len(fields)}
	for i := range fields {
		text := fields[i].Formula
		if text == "" {
			continue
		}
		f, err := formula.Compile(text, names)
		metrics.FormulaCompileCounter.WithLabelValues(metrics.RetLabel(err)).Inc()
		if err != nil {
			logutil.BgLogger().Warn("compile formula failed, fall back to aggregate",
				zap.String(logutil.LogFieldValueField, fields[i].Name()),
				zap.String("formula", text),
				zap.Error(err))
			continue
		}
		formulas[i] = f
		usage = usage.Merge(f.Usage())
	}
	return formulas, usage
}

// Usage returns the merged usage of the compiled formulas.
func (e *Evaluator) Usage() formula.Usage {
	return e.usage
}

// Fields returns the value fields.
func (e *Evaluator) Fields() []pivot.ValueField {
	return e.fields
}

// Formula returns the compiled formula of field i, or nil for plain fields.
func (e *Evaluator) Formula(i int) *formula.Formula {
	if i < 0 || i >= len(e.formulas) {
		return nil
	}
	return e.formulas[i]
}

// IsCalculated reports whether field i has a compiled formula.
func (e *Evaluator) IsCalculated(i int) bool {
	return e.Formula(i) != nil
}

// Evaluate returns the value of field i at (row, col), or nil when absent.
func (e *Evaluator) Evaluate(row, col pivot.Path, i int) any {
	return e.NewContext(row, col).ResolveValue(i)
}

// EvaluateAll returns the value of every field at (row, col). The fields
// share one context, so a field referenced by several formulas is resolved
// once.
func (e *Evaluator) EvaluateAll(row, col pivot.Path) []any {
	ctx := e.NewContext(row, col)
	res := make([]any, len(e.fields))
	for i := range res {
		res[i] = ctx.ResolveValue(i)
	}
	return res
}

// NewContext creates the evaluation context of one display request.
func (e *Evaluator) NewContext(row, col pivot.Path) *Context {
	e.requests.Inc()
	metrics.EvaluatorRequestCounter.Inc()
	return newContext(e, nil, row, col)
}

// Requests returns the number of contexts created by NewContext.
func (e *Evaluator) Requests() int64 {
	return e.requests.Load()
}

// Cycles returns how many times the cycle guard cut a recursive reference.
func (e *Evaluator) Cycles() int64 {
	return e.cycles.Load()
}
