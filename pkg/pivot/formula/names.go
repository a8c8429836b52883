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

package formula

import (
	"golang.org/x/text/cases"
)

// FieldName is the identity of one value field as seen by formulas.
type FieldName struct {
	Key    string
	Header string
}

// NameTable resolves user-typed field names to value field indexes. Lookups
// are case-insensitive; when two fields share a name the first one
// registered keeps it.
type NameTable struct {
	index map[string]int
	count int
}

// NewNameTable builds the table from fields, registering each field's key and
// then its header, in field order.
func NewNameTable(fields []FieldName) *NameTable {
	t := &NameTable{index: make(map[string]int, 2*len(fields)), count: len(fields)}
	for i, f := range fields {
		t.add(f.Key, i)
		t.add(f.Header, i)
	}
	return t
}

func (t *NameTable) add(name string, i int) {
	if name == "" {
		return
	}
	folded := foldName(name)
	if _, ok := t.index[folded]; !ok {
		t.index[folded] = i
	}
}

// Lookup returns the field index registered for name.
func (t *NameTable) Lookup(name string) (int, bool) {
	if t == nil {
		return 0, false
	}
	i, ok := t.index[foldName(name)]
	return i, ok
}

// FieldCount returns the number of fields the table was built from.
func (t *NameTable) FieldCount() int {
	if t == nil {
		return 0
	}
	return t.count
}

// A cases.Caser keeps state between calls, so every call gets its own.
func foldName(s string) string {
	return cases.Fold().String(s)
}
