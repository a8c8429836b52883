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

package aggregation

import (
	"math"
)

// varianceState computes the variance in one pass with Welford's method.
// Merging two states uses Chan's pairwise update, which keeps partial states
// built over disjoint inputs combinable without revisiting the values.
type varianceState struct {
	c          *Coercer
	population bool

	count int64
	mean  float64
	m2    float64
}

func (s *varianceState) Add(v any) {
	f, ok := s.c.ToFloat(v)
	if !ok {
		return
	}
	s.count++
	delta := f - s.mean
	s.mean += delta / float64(s.count)
	s.m2 += delta * (f - s.mean)
}

func (s *varianceState) merge(o *varianceState) {
	if o.count == 0 {
		return
	}
	if s.count == 0 {
		s.count, s.mean, s.m2 = o.count, o.mean, o.m2
		return
	}
	na, nb := float64(s.count), float64(o.count)
	n := na + nb
	delta := o.mean - s.mean
	s.m2 = s.m2 + o.m2 + delta*delta*na*nb/n
	s.mean = (s.mean*na + o.mean*nb) / n
	s.count += o.count
}

func (s *varianceState) Merge(other State) error {
	o, ok := other.(*varianceState)
	if !ok || o.population != s.population {
		return MergeMismatch(s, other)
	}
	s.merge(o)
	return nil
}

func (s *varianceState) variance() (float64, bool) {
	if s.population {
		if s.count < 1 {
			return 0, false
		}
		return s.m2 / float64(s.count), true
	}
	if s.count < 2 {
		return 0, false
	}
	return s.m2 / float64(s.count-1), true
}

func (s *varianceState) Result() any {
	if v, ok := s.variance(); ok {
		return v
	}
	return nil
}

// stdDevState is the square root of the matching variance state.
type stdDevState struct {
	v varianceState
}

func (s *stdDevState) Add(v any) {
	s.v.Add(v)
}

func (s *stdDevState) Merge(other State) error {
	o, ok := other.(*stdDevState)
	if !ok || o.v.population != s.v.population {
		return MergeMismatch(s, other)
	}
	s.v.merge(&o.v)
	return nil
}

func (s *stdDevState) Result() any {
	if v, ok := s.v.variance(); ok {
		return math.Sqrt(v)
	}
	return nil
}
