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

// Package sketch provides approximate quantile aggregators backed by a
// t-digest. The digests merge, so medians and percentiles roll up from child
// cells like the built-in aggregates do.
package sketch

import (
	"fmt"
	"math"
	"sync"

	"github.com/influxdata/tdigest"
	"github.com/pingcap/errors"
	"github.com/pingcap/pivot/pkg/pivot/aggregation"
)

// Custom kinds of the quantile aggregators.
const (
	KindMedian = aggregation.KindCustom + iota
	KindPercentile
)

const compression = 100

// ErrInvalidQuantile is returned for a quantile outside [0, 1].
var ErrInvalidQuantile = errors.Normalize("invalid quantile %v, must be between 0 and 1",
	errors.RFCCodeText("Pivot:sketch:ErrInvalidQuantile"))

// Quantile is an aggregator estimating one quantile of its numeric inputs.
type Quantile struct {
	kind aggregation.Kind
	name string
	q    float64
	c    *aggregation.Coercer
}

// NewMedian creates the median aggregator.
func NewMedian(c *aggregation.Coercer) *Quantile {
	return &Quantile{kind: KindMedian, name: "Median", q: 0.5, c: coercer(c)}
}

// NewPercentile creates an aggregator for quantile q, given as a fraction.
func NewPercentile(q float64, c *aggregation.Coercer) (*Quantile, error) {
	if math.IsNaN(q) || q < 0 || q > 1 {
		return nil, ErrInvalidQuantile.GenWithStackByArgs(q)
	}
	return &Quantile{kind: KindPercentile, name: fmt.Sprintf("Percentile(%g)", q), q: q, c: coercer(c)}, nil
}

func coercer(c *aggregation.Coercer) *aggregation.Coercer {
	if c == nil {
		return aggregation.InvariantCoercer()
	}
	return c
}

// Kind implements aggregation.Aggregator.
func (a *Quantile) Kind() aggregation.Kind {
	return a.kind
}

// Name implements aggregation.Aggregator.
func (a *Quantile) Name() string {
	return a.name
}

// Q returns the estimated quantile.
func (a *Quantile) Q() float64 {
	return a.q
}

// CreateState implements aggregation.Aggregator.
func (a *Quantile) CreateState() aggregation.State {
	return &digestState{q: a.q, c: a.c, digest: tdigest.NewWithCompression(compression)}
}

// Register adds the median aggregator to reg under KindMedian.
func Register(reg *aggregation.Registry) error {
	return reg.Register(NewMedian(reg.Coercer()))
}

// digestState guards the digest with mu because tdigest compresses its
// buffer on Quantile and Centroids, so reads of a frozen cell write too.
type digestState struct {
	mu     sync.Mutex
	q      float64
	c      *aggregation.Coercer
	digest *tdigest.TDigest
	count  int64
}

func (s *digestState) Add(v any) {
	f, ok := s.c.ToFloat(v)
	if !ok {
		return
	}
	s.mu.Lock()
	s.digest.Add(f, 1)
	s.count++
	s.mu.Unlock()
}

func (s *digestState) Merge(other aggregation.State) error {
	o, ok := other.(*digestState)
	if !ok || o.q != s.q {
		return aggregation.MergeMismatch(s, other)
	}
	centroids, count := o.snapshot()
	if count == 0 {
		return nil
	}
	s.mu.Lock()
	s.digest.AddCentroidList(centroids)
	s.count += count
	s.mu.Unlock()
	return nil
}

// snapshot copies the centroids of s under its lock.
func (s *digestState) snapshot() (tdigest.CentroidList, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return nil, 0
	}
	return append(tdigest.CentroidList(nil), s.digest.Centroids()...), s.count
}

func (s *digestState) Result() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.count == 0 {
		return nil
	}
	return s.digest.Quantile(s.q)
}
