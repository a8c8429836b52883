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
)

// Kind identifies an aggregate function.
type Kind int

// Built-in aggregate kinds.
const (
	KindNone Kind = iota
	KindSum
	KindCount
	KindCountNumbers
	KindAverage
	KindMin
	KindMax
	KindProduct
	KindCountDistinct
	KindVariance
	KindVarianceP
	KindStdDev
	KindStdDevP
	KindFirst
	KindLast
)

// KindCustom is the first kind value reserved for custom aggregators.
const KindCustom Kind = 1000

var kindNames = map[Kind]string{
	KindNone:          "None",
	KindSum:           "Sum",
	KindCount:         "Count",
	KindCountNumbers:  "CountNumbers",
	KindAverage:       "Average",
	KindMin:           "Min",
	KindMax:           "Max",
	KindProduct:       "Product",
	KindCountDistinct: "CountDistinct",
	KindVariance:      "Variance",
	KindVarianceP:     "VarianceP",
	KindStdDev:        "StdDev",
	KindStdDevP:       "StdDevP",
	KindFirst:         "First",
	KindLast:          "Last",
}

var kindByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames)+2)
	for k, name := range kindNames {
		m[strings.ToLower(name)] = k
	}
	m["avg"] = KindAverage
	m["distinctcount"] = KindCountDistinct
	return m
}()

// String implements fmt.Stringer interface.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	if k >= KindCustom {
		return "Custom"
	}
	return "Unknown"
}

// ParseKind looks up a built-in kind by name, case-insensitively.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindByName[strings.ToLower(strings.TrimSpace(name))]
	return k, ok
}

// State is the partial result of one aggregate function for one pivot cell.
//
// Add is called for every raw value routed to the cell while the pivot is
// being built. Merge folds a state of the same aggregator kind into the
// receiver, so partial states built over disjoint partitions of the input can
// be combined after the fact. Result is pure: it can be called any number of
// times and returns nil when the aggregate has no value.
type State interface {
	Add(v any)
	Merge(other State) error
	Result() any
}

// Aggregator creates States for one aggregate kind.
type Aggregator interface {
	Kind() Kind
	Name() string
	CreateState() State
}

type builtin struct {
	kind   Kind
	create func(c *Coercer) State
	c      *Coercer
}

func (b *builtin) Kind() Kind {
	return b.kind
}

func (b *builtin) Name() string {
	return b.kind.String()
}

func (b *builtin) CreateState() State {
	return b.create(b.c)
}

var builtinStates = map[Kind]func(c *Coercer) State{
	KindSum:           func(c *Coercer) State { return &sumState{c: c} },
	KindCount:         func(*Coercer) State { return &countState{} },
	KindCountNumbers:  func(c *Coercer) State { return &countNumbersState{c: c} },
	KindAverage:       func(c *Coercer) State { return &avgState{c: c} },
	KindMin:           func(c *Coercer) State { return &extremeState{c: c} },
	KindMax:           func(c *Coercer) State { return &extremeState{c: c, max: true} },
	KindProduct:       func(c *Coercer) State { return &productState{c: c, product: 1} },
	KindCountDistinct: func(c *Coercer) State { return newDistinctState(c) },
	KindVariance:      func(c *Coercer) State { return &varianceState{c: c} },
	KindVarianceP:     func(c *Coercer) State { return &varianceState{c: c, population: true} },
	KindStdDev:        func(c *Coercer) State { return &stdDevState{v: varianceState{c: c}} },
	KindStdDevP:       func(c *Coercer) State { return &stdDevState{v: varianceState{c: c, population: true}} },
	KindFirst:         func(*Coercer) State { return &firstState{} },
	KindLast:          func(*Coercer) State { return &lastState{} },
}

// Builtin returns the built-in aggregator of kind, or nil if kind is not a
// built-in. A nil coercer means the invariant numeric format.
func Builtin(kind Kind, c *Coercer) Aggregator {
	create, ok := builtinStates[kind]
	if !ok {
		return nil
	}
	if c == nil {
		c = InvariantCoercer()
	}
	return &builtin{kind: kind, create: create, c: c}
}
