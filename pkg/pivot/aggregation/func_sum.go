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

// sumState keeps the running sum of the numeric inputs. The count tells an
// empty sum apart from a sum of zeros.
type sumState struct {
	c     *Coercer
	sum   float64
	count int64
}

func (s *sumState) Add(v any) {
	f, ok := s.c.ToFloat(v)
	if !ok {
		return
	}
	s.sum += f
	s.count++
}

func (s *sumState) Merge(other State) error {
	o, ok := other.(*sumState)
	if !ok {
		return MergeMismatch(s, other)
	}
	s.sum += o.sum
	s.count += o.count
	return nil
}

func (s *sumState) Result() any {
	if s.count == 0 {
		return nil
	}
	return s.sum
}

type avgState struct {
	c     *Coercer
	sum   float64
	count int64
}

func (s *avgState) Add(v any) {
	f, ok := s.c.ToFloat(v)
	if !ok {
		return
	}
	s.sum += f
	s.count++
}

func (s *avgState) Merge(other State) error {
	o, ok := other.(*avgState)
	if !ok {
		return MergeMismatch(s, other)
	}
	s.sum += o.sum
	s.count += o.count
	return nil
}

func (s *avgState) Result() any {
	if s.count == 0 {
		return nil
	}
	return s.sum / float64(s.count)
}

type productState struct {
	c       *Coercer
	product float64
	count   int64
}

func (s *productState) Add(v any) {
	f, ok := s.c.ToFloat(v)
	if !ok {
		return
	}
	s.product *= f
	s.count++
}

func (s *productState) Merge(other State) error {
	o, ok := other.(*productState)
	if !ok {
		return MergeMismatch(s, other)
	}
	if o.count > 0 {
		s.product *= o.product
		s.count += o.count
	}
	return nil
}

func (s *productState) Result() any {
	if s.count == 0 {
		return nil
	}
	return s.product
}
