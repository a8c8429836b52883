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

// Package pivot holds the data model shared by the pivot builder and the
// formula evaluator: value fields, group paths, cell keys and the map of
// per-cell aggregation states.
package pivot

import (
	"fmt"
	"strconv"
	"strings"
)

// Path is the sequence of group values leading to a row or column header.
// The empty path is the total over the whole axis.
type Path []any

// Key returns a string that identifies the path. Elements are tagged with
// their Go type, so int 1 and string "1" give different keys.
func (p Path) Key() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range p {
		s := fmt.Sprintf("%T=%v", e, e)
		b.WriteString(strconv.Itoa(len(s)))
		b.WriteByte(':')
		b.WriteString(s)
	}
	return b.String()
}

// Parent drops the last element. The parent of the empty path is itself.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return p
	}
	return p[:len(p)-1:len(p)-1]
}

// Equal reports whether both paths have the same elements.
func (p Path) Equal(o Path) bool {
	return len(p) == len(o) && p.Key() == o.Key()
}

// IsTotal reports whether p is the empty path.
func (p Path) IsTotal() bool {
	return len(p) == 0
}

// Prefixes returns every prefix of p, from the empty path to p itself.
func (p Path) Prefixes() []Path {
	res := make([]Path, 0, len(p)+1)
	for i := 0; i <= len(p); i++ {
		res = append(res, p[:i:i])
	}
	return res
}

func (p Path) String() string {
	if len(p) == 0 {
		return "(total)"
	}
	parts := make([]string, 0, len(p))
	for _, e := range p {
		parts = append(parts, fmt.Sprint(e))
	}
	return strings.Join(parts, " / ")
}

// CellKey identifies one pivot cell.
type CellKey struct {
	Row Path
	Col Path
}

// Key returns a string that identifies the cell.
func (k CellKey) Key() string {
	return k.Row.Key() + "|" + k.Col.Key()
}

func (k CellKey) String() string {
	return "(" + k.Row.String() + ", " + k.Col.String() + ")"
}
