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

package evaluator

import (
	"sync"
	"testing"

	"github.com/pingcap/pivot/pkg/metrics"
	"github.com/pingcap/pivot/pkg/pivot"
	"github.com/pingcap/pivot/pkg/pivot/aggregation"
	"github.com/pingcap/pivot/pkg/pivot/formula"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

const (
	fieldRevenue = iota
	fieldCost
	fieldProfit
	fieldShare
	fieldParentShare
	fieldSelf
	fieldA
	fieldB
	fieldTotalLoop
	fieldBroken
	fieldLabel
	fieldLabelTwice
)

func testFields() []pivot.ValueField {
	return []pivot.ValueField{
		fieldRevenue:     {Key: "rev", Header: "Revenue", Kind: aggregation.KindSum},
		fieldCost:        {Key: "cost", Header: "Cost", Kind: aggregation.KindSum},
		fieldProfit:      {Header: "Profit", Formula: "[Revenue]-[Cost]"},
		fieldShare:       {Header: "Share", Formula: "Revenue / RowTotal(Revenue)"},
		fieldParentShare: {Header: "Parent Share", Formula: "rev / ParentRowTotal(rev)"},
		fieldSelf:        {Key: "self", Formula: "self + 1"},
		fieldA:           {Key: "a", Formula: "b * 2"},
		fieldB:           {Key: "b", Formula: "a + 1"},
		fieldTotalLoop:   {Key: "loop", Formula: "RowTotal(loop) + ColumnTotal(rev)"},
		fieldBroken:      {Key: "broken", Kind: aggregation.KindSum, Formula: "[nope] * 2"},
		fieldLabel:       {Key: "label", Kind: aggregation.KindFirst},
		fieldLabelTwice:  {Key: "label2", Formula: "label * 2"},
	}
}

var (
	eastNY = pivot.Path{"east", "ny"}
	east   = pivot.Path{"east"}
	total  = pivot.Path{}
	y2024  = pivot.Path{"2024"}
)

type cellValues struct {
	row, col  pivot.Path
	rev, cost any
	label     any
}

func buildCells(t *testing.T, fields []pivot.ValueField) *pivot.CellStateMap {
	aggs := pivot.ResolveAggregators(fields, aggregation.NewRegistry())
	cells := pivot.NewCellStateMap()
	for _, v := range []cellValues{
		{eastNY, y2024, 100, 30, "NY"},
		{eastNY, total, 400, 100, "NY"},
		{east, y2024, 200, 50, "NY"},
		{east, total, 800, nil, "NY"},
		{total, y2024, 250, nil, "7"},
		{total, total, 1000, nil, nil},
	} {
		values := make([]any, len(fields))
		values[fieldRevenue] = v.rev
		values[fieldCost] = v.cost
		values[fieldBroken] = v.rev
		values[fieldLabel] = v.label
		cs := pivot.NewCellState(aggs)
		cs.Add(values)
		cells.Set(pivot.CellKey{Row: v.row, Col: v.col}, cs)
	}
	require.Equal(t, 6, cells.Len())
	cells.Freeze()
	return cells
}

func TestPlainAndFormula(t *testing.T) {
	fields := testFields()
	e := New(fields, buildCells(t, fields))

	require.Equal(t, 100.0, e.Evaluate(eastNY, y2024, fieldRevenue))
	require.Equal(t, 70.0, e.Evaluate(eastNY, y2024, fieldProfit))
	require.Equal(t, 150.0, e.Evaluate(east, y2024, fieldProfit))
	require.Equal(t, 0.25, e.Evaluate(eastNY, y2024, fieldShare))
	require.Equal(t, 1.0, e.Evaluate(eastNY, total, fieldShare))
	require.Equal(t, 0.5, e.Evaluate(eastNY, y2024, fieldParentShare))
	require.Equal(t, 0.8, e.Evaluate(east, y2024, fieldParentShare))
	require.Equal(t, 1.0, e.Evaluate(total, total, fieldParentShare))

	// A missing operand makes the formula absent.
	require.Nil(t, e.Evaluate(east, total, fieldProfit))
	// Missing cells are absent.
	require.Nil(t, e.Evaluate(pivot.Path{"west"}, y2024, fieldRevenue))
	require.Nil(t, e.Evaluate(pivot.Path{"west"}, y2024, fieldProfit))
	// Out of range fields are absent.
	require.Nil(t, e.Evaluate(eastNY, y2024, -1))
	require.Nil(t, e.Evaluate(eastNY, y2024, len(fields)))

	// Non-numeric results feed formulas only when they read as numbers.
	require.Equal(t, "NY", e.Evaluate(eastNY, y2024, fieldLabel))
	require.Nil(t, e.Evaluate(eastNY, y2024, fieldLabelTwice))
	require.Equal(t, 14.0, e.Evaluate(total, y2024, fieldLabelTwice))
}

func TestTotals(t *testing.T) {
	fields := testFields()
	e := New(fields, buildCells(t, fields))
	ctx := e.NewContext(eastNY, y2024)
	require.Equal(t, eastNY, ctx.Row())
	require.Equal(t, y2024, ctx.Col())
	require.Equal(t, 400.0, ctx.ResolveRowTotal(fieldRevenue))
	require.Equal(t, 250.0, ctx.ResolveColumnTotal(fieldRevenue))
	require.Equal(t, 1000.0, ctx.ResolveGrandTotal(fieldRevenue))
	require.Equal(t, 200.0, ctx.ResolveParentRowTotal(fieldRevenue))
	require.Equal(t, 400.0, ctx.ResolveParentColumnTotal(fieldRevenue))
	require.Equal(t, 0.25, ctx.ResolveValue(fieldShare))

	v, ok := ctx.GrandTotal(fieldRevenue)
	require.True(t, ok)
	require.Equal(t, 1000.0, v)
	_, ok = ctx.ColumnTotal(fieldCost)
	require.False(t, ok)
}

func TestParentTables(t *testing.T) {
	fields := testFields()
	rows := pivot.NewParentTable()
	rows.Set(eastNY, total)
	e := New(fields, buildCells(t, fields), WithParentTables(rows, nil))
	require.Equal(t, 0.4, e.Evaluate(eastNY, y2024, fieldParentShare))
	require.Equal(t, 0.8, e.Evaluate(east, total, fieldParentShare))
}

func TestCycles(t *testing.T) {
	fields := testFields()
	e := New(fields, buildCells(t, fields))
	before := testutil.ToFloat64(metrics.EvaluatorCycleCounter)

	for _, row := range []pivot.Path{eastNY, east, total, {"west"}} {
		for _, col := range []pivot.Path{y2024, total} {
			for _, i := range []int{fieldSelf, fieldA, fieldB, fieldTotalLoop} {
				require.Nil(t, e.Evaluate(row, col, i), "%s %s field %d", row, col, i)
			}
		}
	}
	require.Positive(t, e.Cycles())
	require.Equal(t, float64(e.Cycles()), testutil.ToFloat64(metrics.EvaluatorCycleCounter)-before)
}

func TestBrokenFormula(t *testing.T) {
	fields := testFields()
	before := testutil.ToFloat64(metrics.FormulaCompileCounter.WithLabelValues(metrics.LblFailed))
	e := New(fields, buildCells(t, fields))
	require.Equal(t, 1.0, testutil.ToFloat64(metrics.FormulaCompileCounter.WithLabelValues(metrics.LblFailed))-before)

	require.False(t, e.IsCalculated(fieldBroken))
	require.False(t, e.IsCalculated(fieldRevenue))
	require.True(t, e.IsCalculated(fieldProfit))
	require.Nil(t, e.Formula(100))
	require.Equal(t, 100.0, e.Evaluate(eastNY, y2024, fieldBroken))

	u := e.Usage()
	require.Equal(t, len(fields), u.FieldCount)
	require.True(t, u.Has(formula.UsesRowTotals|formula.UsesColumnTotals|formula.UsesParentRowTotals))
	require.False(t, u.Has(formula.UsesGrandTotals))
}

func TestEvaluateAll(t *testing.T) {
	fields := testFields()
	e := New(fields, buildCells(t, fields))
	requests := e.Requests()

	all := e.EvaluateAll(eastNY, y2024)
	require.Len(t, all, len(fields))
	require.Equal(t, int64(1), e.Requests()-requests)
	for i := range fields {
		require.Equal(t, e.Evaluate(eastNY, y2024, i), all[i], "field %d", i)
	}
	require.Equal(t, 70.0, all[fieldProfit])
}

func TestWithFormulas(t *testing.T) {
	fields := testFields()
	formulas, usage := CompileFormulas(fields)
	require.Len(t, formulas, len(fields))
	require.Nil(t, formulas[fieldRevenue])
	require.Nil(t, formulas[fieldBroken])

	e := New(fields, buildCells(t, fields), WithFormulas(formulas), WithCoercer(aggregation.InvariantCoercer()))
	require.Equal(t, usage, e.Usage())
	require.Equal(t, 70.0, e.Evaluate(eastNY, y2024, fieldProfit))

	// A shorter formula list leaves the remaining fields plain.
	e = New(fields, buildCells(t, fields), WithFormulas(formulas[:fieldProfit]))
	require.Nil(t, e.Evaluate(eastNY, y2024, fieldProfit))
	require.Len(t, e.Fields(), len(fields))
}

func TestDeterminism(t *testing.T) {
	fields := testFields()
	cells := buildCells(t, fields)
	e1, e2 := New(fields, cells), New(fields, cells)
	for _, row := range []pivot.Path{eastNY, east, total} {
		for _, col := range []pivot.Path{y2024, total} {
			require.Equal(t, e1.EvaluateAll(row, col), e2.EvaluateAll(row, col))
			require.Equal(t, e1.EvaluateAll(row, col), e1.EvaluateAll(row, col))
		}
	}
}

func TestConcurrentReaders(t *testing.T) {
	fields := testFields()
	e := New(fields, buildCells(t, fields))
	expected := e.EvaluateAll(eastNY, y2024)

	var wg sync.WaitGroup
	results := make([][]any, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.EvaluateAll(eastNY, y2024)
		}(i)
	}
	wg.Wait()
	for _, res := range results {
		require.Equal(t, expected, res)
	}
}
