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

// Package builder turns flat records into a frozen pivot cell state map.
//
// Every record is added to its leaf cell, the cell addressed by the full row
// and column paths. Subtotal and total cells are then built by merging leaf
// states into every ancestor coordinate, so the raw records are read once.
package builder

import (
	"context"
	"time"

	"github.com/pingcap/errors"
	"github.com/pingcap/pivot/pkg/metrics"
	"github.com/pingcap/pivot/pkg/pivot"
	"github.com/pingcap/pivot/pkg/pivot/aggregation"
	"github.com/pingcap/pivot/pkg/pivot/evaluator"
	"github.com/pingcap/pivot/pkg/pivot/formula"
	"github.com/pingcap/pivot/pkg/util/logutil"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Record is one source row, keyed by column name.
type Record map[string]any

// Builder builds pivots over a fixed layout. A Builder is immutable and can
// run several builds concurrently.
type Builder struct {
	rows     []string
	cols     []string
	fields   []pivot.ValueField
	aggs     []aggregation.Aggregator
	formulas []*formula.Formula
	usage    formula.Usage
	coercer  *aggregation.Coercer
}

// New creates a builder grouping rows by the rows dimensions and columns by
// the cols dimensions. Aggregators are looked up in reg; a nil reg means the
// built-in aggregators in the invariant numeric format.
func New(rows, cols []string, fields []pivot.ValueField, reg *aggregation.Registry) *Builder {
	b := &Builder{
		rows:    rows,
		cols:    cols,
		fields:  fields,
		aggs:    pivot.ResolveAggregators(fields, reg),
		coercer: aggregation.InvariantCoercer(),
	}
	if reg != nil {
		b.coercer = reg.Coercer()
	}
	b.formulas, b.usage = evaluator.CompileFormulas(fields)
	return b
}

// Usage returns the merged usage of the fields' formulas.
func (b *Builder) Usage() formula.Usage {
	return b.usage
}

// Result is a finished pivot.
type Result struct {
	Fields []pivot.ValueField
	Cells  *pivot.CellStateMap
	// RowPaths and ColPaths list the distinct non-empty paths of each axis,
	// subtotal paths included, in order of first appearance.
	RowPaths   []pivot.Path
	ColPaths   []pivot.Path
	RowParents *pivot.ParentTable
	ColParents *pivot.ParentTable

	formulas []*formula.Formula
	coercer  *aggregation.Coercer
}

// Evaluator returns an evaluator over the result.
func (r *Result) Evaluator() *evaluator.Evaluator {
	return evaluator.New(r.Fields, r.Cells,
		evaluator.WithFormulas(r.formulas),
		evaluator.WithCoercer(r.coercer),
		evaluator.WithParentTables(r.RowParents, r.ColParents))
}

// leafCube holds the leaf cells of a set of records, in order of first
// appearance.
type leafCube struct {
	cells *pivot.CellStateMap
	count int
}

func (b *Builder) newCellState() pivot.CellState {
	return pivot.NewCellState(b.aggs)
}

func (b *Builder) path(r Record, dims []string) pivot.Path {
	p := make(pivot.Path, len(dims))
	for i, d := range dims {
		p[i] = r[d]
	}
	return p
}

func (b *Builder) values(r Record, buf []any) []any {
	for i := range b.fields {
		buf[i] = r[b.fields[i].SourceColumn()]
	}
	return buf
}

func (b *Builder) accumulate(records []Record) *leafCube {
	cube := &leafCube{cells: pivot.NewCellStateMap()}
	buf := make([]any, len(b.fields))
	for _, r := range records {
		key := pivot.CellKey{Row: b.path(r, b.rows), Col: b.path(r, b.cols)}
		cs := cube.cells.GetOrCreate(key, b.newCellState)
		cs.Add(b.values(r, buf))
		cube.count++
	}
	return cube
}

// merge folds o into c. Cells new to c are appended in o's order.
func (c *leafCube) merge(o *leafCube, create func() pivot.CellState) error {
	for _, key := range o.cells.Keys() {
		src, _ := o.cells.Lookup(key)
		dst := c.cells.GetOrCreate(key, create)
		if err := dst.Merge(src); err != nil {
			return errors.Trace(err)
		}
	}
	c.count += o.count
	return nil
}

// Build builds the pivot of records in one pass.
func (b *Builder) Build(records []Record) (*Result, error) {
	start := time.Now()
	res, err := b.rollup(b.accumulate(records))
	if err != nil {
		return nil, err
	}
	b.finish(context.Background(), res, len(records), 1, start)
	return res, nil
}

// BuildParallel splits records into contiguous chunks, accumulates the
// chunks on up to workers goroutines and merges the partial results in chunk
// order. The result equals Build's up to floating point rounding.
func (b *Builder) BuildParallel(ctx context.Context, records []Record, workers int) (*Result, error) {
	if workers <= 1 || len(records) < 2 {
		return b.Build(records)
	}
	start := time.Now()
	chunks := min(workers, len(records))
	size := (len(records) + chunks - 1) / chunks
	cubes := make([]*leafCube, (len(records)+size-1)/size)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range cubes {
		lo := i * size
		hi := min(lo+size, len(records))
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cubes[i] = b.accumulate(records[lo:hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Trace(err)
	}
	merged := cubes[0]
	for _, c := range cubes[1:] {
		if err := merged.merge(c, b.newCellState); err != nil {
			return nil, err
		}
	}
	res, err := b.rollup(merged)
	if err != nil {
		return nil, err
	}
	b.finish(ctx, res, len(records), len(cubes), start)
	return res, nil
}

// rollup builds every subtotal and total cell from the leaf cells.
func (b *Builder) rollup(leaves *leafCube) (*Result, error) {
	res := &Result{
		Fields:   b.fields,
		Cells:    pivot.NewCellStateMap(),
		formulas: b.formulas,
		coercer:  b.coercer,
	}
	rowSeen := make(map[string]struct{})
	colSeen := make(map[string]struct{})
	for _, key := range leaves.cells.Keys() {
		leaf, _ := leaves.cells.Lookup(key)
		rowPrefixes, colPrefixes := key.Row.Prefixes(), key.Col.Prefixes()
		res.RowPaths = appendPaths(res.RowPaths, rowSeen, rowPrefixes[1:])
		res.ColPaths = appendPaths(res.ColPaths, colSeen, colPrefixes[1:])
		for _, row := range rowPrefixes {
			for _, col := range colPrefixes {
				dst := res.Cells.GetOrCreate(pivot.CellKey{Row: row, Col: col}, b.newCellState)
				if err := dst.Merge(leaf); err != nil {
					return nil, errors.Trace(err)
				}
				metrics.AggregationMergeCounter.WithLabelValues(metrics.LblOK).Inc()
			}
		}
	}
	if b.usage.NeedsParents() {
		res.RowParents = parentTable(res.RowPaths)
		res.ColParents = parentTable(res.ColPaths)
	}
	res.Cells.Freeze()
	return res, nil
}

func appendPaths(paths []pivot.Path, seen map[string]struct{}, add []pivot.Path) []pivot.Path {
	for _, p := range add {
		k := p.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		paths = append(paths, p)
	}
	return paths
}

func parentTable(paths []pivot.Path) *pivot.ParentTable {
	t := pivot.NewParentTable()
	for _, p := range paths {
		t.Set(p, p.Parent())
	}
	return t
}

func (b *Builder) finish(ctx context.Context, res *Result, records, workers int, start time.Time) {
	elapsed := time.Since(start)
	metrics.BuilderRecordCounter.Add(float64(records))
	metrics.BuilderDurationHistogram.Observe(elapsed.Seconds())
	logutil.Logger(ctx).Info("pivot built",
		zap.Int("records", records),
		zap.Int("cells", res.Cells.Len()),
		zap.Int("rowPaths", len(res.RowPaths)),
		zap.Int("colPaths", len(res.ColPaths)),
		zap.Int("workers", workers),
		zap.Duration("cost", elapsed))
}

// RecordsFromRows converts a header and positional rows into records.
func RecordsFromRows(header []string, rows [][]string) ([]Record, error) {
	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if len(row) != len(header) {
			return nil, ErrRecordShape.GenWithStackByArgs(i, len(row), len(header))
		}
		r := make(Record, len(header))
		for j, col := range header {
			if row[j] == "" {
				continue
			}
			r[col] = row[j]
		}
		records = append(records, r)
	}
	return records, nil
}
