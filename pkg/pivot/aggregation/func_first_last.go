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

type firstState struct {
	val any
	has bool
}

func (s *firstState) Add(v any) {
	if s.has || v == nil {
		return
	}
	s.val, s.has = v, true
}

func (s *firstState) Merge(other State) error {
	o, ok := other.(*firstState)
	if !ok {
		return MergeMismatch(s, other)
	}
	if !s.has && o.has {
		s.val, s.has = o.val, true
	}
	return nil
}

func (s *firstState) Result() any {
	if !s.has {
		return nil
	}
	return s.val
}

type lastState struct {
	val any
	has bool
}

func (s *lastState) Add(v any) {
	if v == nil {
		return
	}
	s.val, s.has = v, true
}

func (s *lastState) Merge(other State) error {
	o, ok := other.(*lastState)
	if !ok {
		return MergeMismatch(s, other)
	}
	if o.has {
		s.val, s.has = o.val, true
	}
	return nil
}

func (s *lastState) Result() any {
	if !s.has {
		return nil
	}
	return s.val
}
