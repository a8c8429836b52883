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
	"fmt"
	"time"

	"github.com/dolthub/swiss"
)

const defaultDistinctSize = 8

type timeKey struct {
	nanos int64
}

type opaqueKey string

// distinctState counts the distinct non-null values it has seen. Native
// numbers of different Go types compare by value, so int 1 and float64 1 are
// the same element.
type distinctState struct {
	c   *Coercer
	set *swiss.Map[any, struct{}]
}

func newDistinctState(c *Coercer) *distinctState {
	return &distinctState{c: c, set: swiss.NewMap[any, struct{}](defaultDistinctSize)}
}

func distinctKey(v any) any {
	switch x := v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		f, _ := invariantCoercer.ToFloat(x)
		return f
	case string, bool:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return timeKey{nanos: x.UnixNano()}
	}
	return opaqueKey(fmt.Sprintf("%T\x00%v", v, v))
}

func (s *distinctState) Add(v any) {
	if v == nil {
		return
	}
	s.set.Put(distinctKey(v), struct{}{})
}

func (s *distinctState) Merge(other State) error {
	o, ok := other.(*distinctState)
	if !ok {
		return MergeMismatch(s, other)
	}
	o.set.Iter(func(k any, _ struct{}) bool {
		s.set.Put(k, struct{}{})
		return false
	})
	return nil
}

func (s *distinctState) Result() any {
	return int64(s.set.Count())
}
