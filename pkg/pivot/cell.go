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
	"github.com/pingcap/errors"
	"github.com/pingcap/pivot/pkg/pivot/aggregation"
)

// CellState holds the aggregation states of one cell, indexed by value field.
// A nil entry belongs to a field without an aggregator.
type CellState []aggregation.State

// NewCellState creates fresh states from aggs. A nil aggregator leaves a nil
// entry.
func NewCellState(aggs []aggregation.Aggregator) CellState {
	cs := make(CellState, len(aggs))
	for i, a := range aggs {
		if a != nil {
			cs[i] = a.CreateState()
		}
	}
	return cs
}

// Add feeds values[i] to the state of field i.
func (cs CellState) Add(values []any) {
	for i, s := range cs {
		if s != nil && i < len(values) {
			s.Add(values[i])
		}
	}
}

// Merge merges o into cs field by field.
func (cs CellState) Merge(o CellState) error {
	if len(o) != len(cs) {
		return errors.Errorf("cannot merge cell state of %d fields into %d fields", len(o), len(cs))
	}
	for i, s := range cs {
		if s == nil || o[i] == nil {
			continue
		}
		if err := s.Merge(o[i]); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Result returns the aggregate of field i, or nil.
func (cs CellState) Result(i int) any {
	if i < 0 || i >= len(cs) || cs[i] == nil {
		return nil
	}
	return cs[i].Result()
}

type cellEntry struct {
	key   CellKey
	state CellState
}

// CellStateMap maps cell keys to cell states. It is written by one builder
// and frozen before it is read; a frozen map is safe for concurrent readers.
type CellStateMap struct {
	cells  map[string]*cellEntry
	order  []*cellEntry
	frozen bool
}

// NewCellStateMap creates an empty map.
func NewCellStateMap() *CellStateMap {
	return &CellStateMap{cells: make(map[string]*cellEntry)}
}

func (m *CellStateMap) mustWritable() {
	if m.frozen {
		panic("pivot: write to frozen cell state map")
	}
}

// Get returns the state of the cell at (row, col).
func (m *CellStateMap) Get(row, col Path) (CellState, bool) {
	return m.Lookup(CellKey{Row: row, Col: col})
}

// Lookup returns the state of the cell at key.
func (m *CellStateMap) Lookup(key CellKey) (CellState, bool) {
	if m == nil {
		return nil, false
	}
	e, ok := m.cells[key.Key()]
	if !ok {
		return nil, false
	}
	return e.state, true
}

// Set stores state at key, replacing any previous state.
func (m *CellStateMap) Set(key CellKey, state CellState) {
	m.mustWritable()
	k := key.Key()
	if e, ok := m.cells[k]; ok {
		e.state = state
		return
	}
	e := &cellEntry{key: key, state: state}
	m.cells[k] = e
	m.order = append(m.order, e)
}

// GetOrCreate returns the state at key, creating it with create when absent.
func (m *CellStateMap) GetOrCreate(key CellKey, create func() CellState) CellState {
	m.mustWritable()
	k := key.Key()
	if e, ok := m.cells[k]; ok {
		return e.state
	}
	e := &cellEntry{key: key, state: create()}
	m.cells[k] = e
	m.order = append(m.order, e)
	return e.state
}

// Len returns the number of cells.
func (m *CellStateMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.order)
}

// Keys returns the cell keys in insertion order.
func (m *CellStateMap) Keys() []CellKey {
	if m == nil {
		return nil
	}
	keys := make([]CellKey, 0, len(m.order))
	for _, e := range m.order {
		keys = append(keys, e.key)
	}
	return keys
}

// Freeze makes the map read-only. Later writes panic.
func (m *CellStateMap) Freeze() {
	m.frozen = true
}

// Frozen reports whether Freeze was called.
func (m *CellStateMap) Frozen() bool {
	return m.frozen
}
