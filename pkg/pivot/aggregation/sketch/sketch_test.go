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

package sketch

import (
	"testing"

	"github.com/pingcap/pivot/pkg/pivot/aggregation"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/sync/errgroup"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestMedian(t *testing.T) {
	agg := NewMedian(nil)
	require.Equal(t, KindMedian, agg.Kind())
	require.Equal(t, "Median", agg.Name())

	s := agg.CreateState()
	require.Nil(t, s.Result())
	for _, v := range []any{5, "1", 3, nil, "x", 4.0, 2} {
		s.Add(v)
	}
	require.InDelta(t, 3.0, s.Result().(float64), 0.5)
}

func TestPercentileMerge(t *testing.T) {
	agg, err := NewPercentile(0.9, nil)
	require.NoError(t, err)
	require.Equal(t, KindPercentile, agg.Kind())

	full := agg.CreateState()
	left, right := agg.CreateState(), agg.CreateState()
	for i := 1; i <= 1000; i++ {
		full.Add(i)
		if i%2 == 0 {
			left.Add(i)
		} else {
			right.Add(i)
		}
	}
	require.NoError(t, left.Merge(right))
	require.NoError(t, left.Merge(agg.CreateState()))
	require.InDelta(t, full.Result().(float64), left.Result().(float64), 10)
	require.InDelta(t, 900.0, left.Result().(float64), 10)

	median := NewMedian(nil).CreateState()
	require.True(t, aggregation.ErrMergeMismatch.Equal(left.Merge(median)))
	require.True(t, aggregation.ErrMergeMismatch.Equal(left.Merge(aggregation.Builtin(aggregation.KindSum, nil).CreateState())))
}

func TestInvalidQuantile(t *testing.T) {
	for _, q := range []float64{-0.1, 1.5} {
		_, err := NewPercentile(q, nil)
		require.True(t, ErrInvalidQuantile.Equal(err))
	}
}

func TestRegister(t *testing.T) {
	reg := aggregation.NewRegistry()
	require.NoError(t, Register(reg))
	agg, ok := reg.Lookup(KindMedian)
	require.True(t, ok)
	require.Equal(t, "Median", agg.Name())
	require.True(t, aggregation.ErrDuplicateKind.Equal(Register(reg)))
}

func TestConcurrentResult(t *testing.T) {
	s := NewMedian(nil).CreateState()
	for i := 1; i <= 1000; i++ {
		s.Add(i)
	}
	other := NewMedian(nil).CreateState()
	other.Add(500)

	var g errgroup.Group
	results := make([]any, 8)
	for i := range results {
		g.Go(func() error {
			results[i] = s.Result()
			return nil
		})
	}
	// Merging reads the source digest while readers query it.
	for range 4 {
		g.Go(func() error {
			return NewMedian(nil).CreateState().Merge(s)
		})
	}
	require.NoError(t, g.Wait())
	for _, r := range results {
		require.InDelta(t, 500.5, r.(float64), 5)
	}

	require.NoError(t, s.Merge(s))
	require.InDelta(t, 500.5, s.Result().(float64), 5)
	require.NoError(t, other.Merge(s))
	require.InDelta(t, 500.5, other.Result().(float64), 5)
}
