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

// countState counts every non-nil input, numeric or not.
type countState struct {
	count int64
}

func (s *countState) Add(v any) {
	if v == nil {
		return
	}
	s.count++
}

func (s *countState) Merge(other State) error {
	o, ok := other.(*countState)
	if !ok {
		return MergeMismatch(s, other)
	}
	s.count += o.count
	return nil
}

func (s *countState) Result() any {
	return s.count
}

// countNumbersState counts the inputs that convert to a number.
type countNumbersState struct {
	c     *Coercer
	count int64
}

func (s *countNumbersState) Add(v any) {
	if _, ok := s.c.ToFloat(v); ok {
		s.count++
	}
}

func (s *countNumbersState) Merge(other State) error {
	o, ok := other.(*countNumbersState)
	if !ok {
		return MergeMismatch(s, other)
	}
	s.count += o.count
	return nil
}

func (s *countNumbersState) Result() any {
	return s.count
}
