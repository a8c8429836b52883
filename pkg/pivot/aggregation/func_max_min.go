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
	"strings"
	"time"
)

// valueClass orders values of different kinds. A numeric value always beats
// a time, a time beats a string and a string beats a bool, so Min and Max
// stay well defined over mixed input.
type valueClass int

const (
	classOther valueClass = iota
	classBool
	classString
	classTime
	classNumber
)

// extremeState keeps the smallest (or, with max set, the largest) value seen.
// The raw value is kept, not its numeric conversion.
type extremeState struct {
	c   *Coercer
	max bool

	best  any
	class valueClass
	num   float64
	has   bool
}

func (s *extremeState) classify(v any) (valueClass, float64) {
	if f, ok := s.c.ToFloat(v); ok {
		return classNumber, f
	}
	switch v.(type) {
	case time.Time:
		return classTime, 0
	case string:
		return classString, 0
	case bool:
		return classBool, 0
	}
	return classOther, 0
}

func (s *extremeState) Add(v any) {
	if v == nil {
		return
	}
	class, num := s.classify(v)
	if class == classOther {
		return
	}
	if !s.has || s.better(class, num, v) {
		s.best, s.class, s.num, s.has = v, class, num, true
	}
}

// better reports whether the candidate should replace the current best value.
// Ties keep the value seen first.
func (s *extremeState) better(class valueClass, num float64, v any) bool {
	if class != s.class {
		return class > s.class
	}
	cmp := 0
	switch class {
	case classNumber:
		switch {
		case num < s.num:
			cmp = -1
		case num > s.num:
			cmp = 1
		}
	case classTime:
		cmp = v.(time.Time).Compare(s.best.(time.Time))
	case classString:
		cmp = strings.Compare(v.(string), s.best.(string))
	case classBool:
		a, b := v.(bool), s.best.(bool)
		switch {
		case !a && b:
			cmp = -1
		case a && !b:
			cmp = 1
		}
	}
	if s.max {
		return cmp > 0
	}
	return cmp < 0
}

func (s *extremeState) Merge(other State) error {
	o, ok := other.(*extremeState)
	if !ok || o.max != s.max {
		return MergeMismatch(s, other)
	}
	if o.has {
		s.Add(o.best)
	}
	return nil
}

func (s *extremeState) Result() any {
	if !s.has {
		return nil
	}
	return s.best
}
