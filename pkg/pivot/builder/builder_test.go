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

package builder

import (
	"context"
	"fmt"
	"testing"

	"github.com/pingcap/errors"
	"github.com/pingcap/pivot/pkg/metrics"
	"github.com/pingcap/pivot/pkg/pivot"
	"github.com/pingcap/pivot/pkg/pivot/aggregation"
	"github.com/pingcap/pivot/pkg/pivot/aggregation/sketch"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func testFields() []pivot.ValueField {
	return []pivot.ValueField{
		{Key: "amount", Header: "Revenue", Kind: aggregation.KindSum},
		{Key: "orders", Source: "amount", Kind: aggregation.KindCount},
		{Key: "avg", Source: "amount", Kind: aggregation.KindAverage},
		{Key: "var", Source: "amount", Kind: aggregation.KindVariance},
		{Key: "min", Source: "amount", Kind: aggregation.KindMin},
		{Key: "products", Source: "product", Kind: aggregation.KindCountDistinct},
		{Key: "first", Source: "product", Kind: aggregation.KindFirst},
		{Key: "median", Source: "amount", Aggregator: sketch.NewMedian(nil)},
		{Key: "share", Formula: "amount / ParentRowTotal(amount)"},
	}
}

func testRecords(n int) []Record {
	regions := []string{"east", "west", "north"}
	cities := []string{"a", "b", "c", "d"}
	years := []int{2023, 2024}
	records := make([]Record, 0, n)
	for i := range n {
		records = append(records, Record{
			"region":  regions[i%len(regions)],
			"city":    cities[(i/3)%len(cities)],
			"year":    years[(i/7)%len(years)],
			"product": fmt.Sprintf("p%d", i%11),
			"amount":  float64((i*37)%101) + 0.25,
		})
	}
	return records
}

func requireSameResult(t *testing.T, expected, actual *Result) {
	fields := expected.Fields
	require.Equal(t, expected.Cells.Keys(), actual.Cells.Keys())
	require.Equal(t, expected.RowPaths, actual.RowPaths)
	require.Equal(t, expected.ColPaths, actual.ColPaths)
	for _, key := range expected.Cells.Keys() {
		ec, _ := expected.Cells.Lookup(key)
		ac, ok := actual.Cells.Lookup(key)
		require.True(t, ok)
		for i := range ec {
			ev, av := ec.Result(i), ac.Result(i)
			if f, ok := ev.(float64); ok {
				delta := 1e-6
				if fields[i].Aggregator != nil {
					// Sketches merge centroids, so their estimate may move a little.
					delta = 5
				}
				require.InDelta(t, f, av.(float64), delta, "%s field %d", key, i)
				continue
			}
			require.Equal(t, ev, av, "%s field %d", key, i)
		}
	}
}

func TestBuild(t *testing.T) {
	b := New([]string{"region", "city"}, []string{"year"}, testFields(), nil)
	records := testRecords(10)
	res, err := b.Build(records)
	require.NoError(t, err)
	require.True(t, res.Cells.Frozen())

	sum := 0.0
	for _, r := range records {
		sum += r["amount"].(float64)
	}
	grand, ok := res.Cells.Get(pivot.Path{}, pivot.Path{})
	require.True(t, ok)
	require.InDelta(t, sum, grand.Result(0), 1e-9)
	require.Equal(t, int64(10), grand.Result(1))
	require.Equal(t, int64(10), grand.Result(5))
	require.Equal(t, "p0", grand.Result(6))

	// Subtotals equal the sum of their children.
	east, ok := res.Cells.Get(pivot.Path{"east"}, pivot.Path{})
	require.True(t, ok)
	eastSum := 0.0
	for _, r := range records {
		if r["region"] == "east" {
			eastSum += r["amount"].(float64)
		}
	}
	require.InDelta(t, eastSum, east.Result(0), 1e-9)

	require.Equal(t, pivot.Path{"east"}, res.RowPaths[0])
	require.Equal(t, pivot.Path{"east", "a"}, res.RowPaths[1])
	require.ElementsMatch(t, []pivot.Path{{2023}, {2024}}, res.ColPaths)

	require.NotNil(t, res.RowParents)
	require.Equal(t, len(res.RowPaths), res.RowParents.Len())
	require.Equal(t, pivot.Path{"east"}, res.RowParents.Parent(pivot.Path{"east", "a"}))
}

func TestEvaluateResult(t *testing.T) {
	b := New([]string{"region", "city"}, []string{"year"}, testFields(), nil)
	res, err := b.Build(testRecords(60))
	require.NoError(t, err)
	e := res.Evaluator()

	share := e.Evaluate(pivot.Path{"east"}, pivot.Path{}, 8)
	eastCell, _ := res.Cells.Get(pivot.Path{"east"}, pivot.Path{})
	grandCell, _ := res.Cells.Get(pivot.Path{}, pivot.Path{})
	require.InDelta(t, eastCell.Result(0).(float64)/grandCell.Result(0).(float64), share.(float64), 1e-12)

	total := 0.0
	for _, region := range []string{"east", "west", "north"} {
		total += e.Evaluate(pivot.Path{region}, pivot.Path{}, 8).(float64)
	}
	require.InDelta(t, 1.0, total, 1e-12)
	require.Equal(t, 1.0, e.Evaluate(pivot.Path{}, pivot.Path{}, 8))
}

func TestBuildParallel(t *testing.T) {
	b := New([]string{"region", "city"}, []string{"year"}, testFields(), aggregation.NewRegistry())
	records := testRecords(503)
	serial, err := b.Build(records)
	require.NoError(t, err)

	for _, workers := range []int{0, 1, 2, 3, 8, 1000} {
		parallel, err := b.BuildParallel(context.Background(), records, workers)
		require.NoError(t, err)
		requireSameResult(t, serial, parallel)
	}
}

func TestBuildParallelCanceled(t *testing.T) {
	b := New([]string{"region"}, nil, testFields(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := b.BuildParallel(ctx, testRecords(20), 4)
	require.Error(t, err)
	require.Equal(t, context.Canceled, errors.Cause(err))
}

func TestNoParentTables(t *testing.T) {
	fields := []pivot.ValueField{{Key: "amount", Kind: aggregation.KindSum}}
	b := New([]string{"region"}, []string{"year"}, fields, nil)
	require.False(t, b.Usage().NeedsParents())
	res, err := b.Build(testRecords(5))
	require.NoError(t, err)
	require.Nil(t, res.RowParents)
	require.Nil(t, res.ColParents)
	// Without dimensions every record lands in the grand total.
	res, err = New(nil, nil, fields, nil).Build(testRecords(5))
	require.NoError(t, err)
	require.Equal(t, 1, res.Cells.Len())
	require.Empty(t, res.RowPaths)
}

func TestBuildMetrics(t *testing.T) {
	before := testutil.ToFloat64(metrics.BuilderRecordCounter)
	fields := []pivot.ValueField{{Key: "amount", Kind: aggregation.KindSum}}
	_, err := New([]string{"region"}, nil, fields, nil).Build(testRecords(7))
	require.NoError(t, err)
	require.Equal(t, 7.0, testutil.ToFloat64(metrics.BuilderRecordCounter)-before)
}

func TestRecordsFromRows(t *testing.T) {
	header := []string{"region", "amount"}
	records, err := RecordsFromRows(header, [][]string{{"east", "1.5"}, {"west", ""}})
	require.NoError(t, err)
	require.Equal(t, []Record{{"region": "east", "amount": "1.5"}, {"region": "west"}}, records)

	_, err = RecordsFromRows(header, [][]string{{"east"}})
	require.True(t, ErrRecordShape.Equal(err))
}

// Subtotals merge whole leaf cells in order of first appearance, so First and
// Last of a total follow cell order rather than raw record order.
func TestFirstLastFollowCellOrder(t *testing.T) {
	fields := []pivot.ValueField{
		{Key: "first", Source: "v", Kind: aggregation.KindFirst},
		{Key: "last", Source: "v", Kind: aggregation.KindLast},
	}
	records := []Record{
		{"k": "A", "v": 1},
		{"k": "B", "v": 2},
		{"k": "A", "v": 3},
	}
	b := New([]string{"k"}, nil, fields, nil)
	for _, workers := range []int{1, 2, 3} {
		res, err := b.BuildParallel(context.Background(), records, workers)
		require.NoError(t, err)

		a, ok := res.Cells.Get(pivot.Path{"A"}, pivot.Path{})
		require.True(t, ok)
		require.Equal(t, 1, a.Result(0))
		require.Equal(t, 3, a.Result(1))

		grand, ok := res.Cells.Get(pivot.Path{}, pivot.Path{})
		require.True(t, ok)
		require.Equal(t, 1, grand.Result(0), "workers %d", workers)
		require.Equal(t, 2, grand.Result(1), "workers %d", workers)
	}
}
