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

// ParentTable maps group paths to their parent path. It lets a builder give
// a path a parent other than its prefix, e.g. when a level of the hierarchy
// is collapsed.
type ParentTable struct {
	parents map[string]Path
}

// NewParentTable creates an empty table.
func NewParentTable() *ParentTable {
	return &ParentTable{parents: make(map[string]Path)}
}

// Set records parent as the parent of p.
func (t *ParentTable) Set(p, parent Path) {
	t.parents[p.Key()] = parent
}

// Parent returns the parent of p. Without an entry the last element of p is
// dropped; the empty path is its own parent.
func (t *ParentTable) Parent(p Path) Path {
	if t != nil {
		if parent, ok := t.parents[p.Key()]; ok {
			return parent
		}
	}
	return p.Parent()
}

// Len returns the number of entries.
func (t *ParentTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.parents)
}
