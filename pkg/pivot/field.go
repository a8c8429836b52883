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

package pivot

import (
	"github.com/pingcap/pivot/pkg/pivot/aggregation"
	"github.com/pingcap/pivot/pkg/pivot/formula"
)

// ValueField is a measure shown in the pivot cells. A field with a formula
// that compiles is calculated from other fields; every other field reads its
// aggregator's result.
type ValueField struct {
	Key    string
	Header string
	// Source is the record column the field aggregates. Empty means Key.
	Source string
	Kind   aggregation.Kind
	// Aggregator, when set, is used instead of the registry's aggregator
	// for Kind.
	Aggregator aggregation.Aggregator
	Formula    string
}

// Name returns the key, or the header when the key is empty.
func (f *ValueField) Name() string {
	if f.Key != "" {
		return f.Key
	}
	return f.Header
}

// SourceColumn returns the record column the field reads.
func (f *ValueField) SourceColumn() string {
	if f.Source != "" {
		return f.Source
	}
	return f.Key
}

// ResolveAggregator returns the custom aggregator if set, else the registry's
// aggregator for Kind. It returns nil when neither exists.
func (f *ValueField) ResolveAggregator(reg *aggregation.Registry) aggregation.Aggregator {
	if f.Aggregator != nil {
		return f.Aggregator
	}
	if reg == nil {
		return aggregation.Builtin(f.Kind, nil)
	}
	if a, ok := reg.Lookup(f.Kind); ok {
		return a
	}
	return nil
}

// ResolveAggregators resolves the aggregator of every field.
func ResolveAggregators(fields []ValueField, reg *aggregation.Registry) []aggregation.Aggregator {
	aggs := make([]aggregation.Aggregator, len(fields))
	for i := range fields {
		aggs[i] = fields[i].ResolveAggregator(reg)
	}
	return aggs
}

// FieldNames returns the names formulas use to refer to fields.
func FieldNames(fields []ValueField) []formula.FieldName {
	names := make([]formula.FieldName, len(fields))
	for i, f := range fields {
		names[i] = formula.FieldName{Key: f.Key, Header: f.Header}
	}
	return names
}
