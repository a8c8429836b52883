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

package evaluator

import (
	"github.com/pingcap/pivot/pkg/metrics"
	"github.com/pingcap/pivot/pkg/pivot"
)

// Context resolves the fields of one cell. Results are memoized for the life
// of the context. A field that is reached again while it is being resolved
// is a cycle and resolves to nil.
//
// Totals are resolved in contexts nested under the requesting one. When the
// total's coordinate is already held by the context or one of its ancestors,
// that context is reused, so a cycle running through totals hits the same
// in-progress marker.
type Context struct {
	e        *Evaluator
	parent   *Context
	row, col pivot.Path
	cell     pivot.CellState

	results    []any
	resolved   []bool
	inProgress []bool
}

func newContext(e *Evaluator, parent *Context, row, col pivot.Path) *Context {
	n := len(e.fields)
	c := &Context{
		e:          e,
		parent:     parent,
		row:        row,
		col:        col,
		results:    make([]any, n),
		resolved:   make([]bool, n),
		inProgress: make([]bool, n),
	}
	c.cell, _ = e.cells.Get(row, col)
	return c
}

// Row returns the row path of the context.
func (c *Context) Row() pivot.Path {
	return c.row
}

// Col returns the column path of the context.
func (c *Context) Col() pivot.Path {
	return c.col
}

// ResolveValue returns the value of field i at the context's cell.
func (c *Context) ResolveValue(i int) any {
	if i < 0 || i >= len(c.results) {
		return nil
	}
	if c.resolved[i] {
		return c.results[i]
	}
	if c.inProgress[i] {
		c.e.cycles.Inc()
		metrics.EvaluatorCycleCounter.Inc()
		return nil
	}
	c.inProgress[i] = true
	var res any
	if f := c.e.Formula(i); f != nil {
		if v, ok := f.Eval(c); ok {
			res = v
		}
	} else {
		res = c.cell.Result(i)
	}
	c.inProgress[i] = false
	c.results[i], c.resolved[i] = res, true
	return res
}

// ResolveRowTotal returns field i at the same row with the column axis
// collapsed.
func (c *Context) ResolveRowTotal(i int) any {
	return c.at(c.row, pivot.Path{}).ResolveValue(i)
}

// ResolveColumnTotal returns field i at the same column with the row axis
// collapsed.
func (c *Context) ResolveColumnTotal(i int) any {
	return c.at(pivot.Path{}, c.col).ResolveValue(i)
}

// ResolveGrandTotal returns field i at the grand total cell.
func (c *Context) ResolveGrandTotal(i int) any {
	return c.at(pivot.Path{}, pivot.Path{}).ResolveValue(i)
}

// ResolveParentRowTotal returns field i at the parent of the row path.
func (c *Context) ResolveParentRowTotal(i int) any {
	return c.at(c.e.rowParents.Parent(c.row), c.col).ResolveValue(i)
}

// ResolveParentColumnTotal returns field i at the parent of the column path.
func (c *Context) ResolveParentColumnTotal(i int) any {
	return c.at(c.row, c.e.colParents.Parent(c.col)).ResolveValue(i)
}

func (c *Context) at(row, col pivot.Path) *Context {
	for anc := c; anc != nil; anc = anc.parent {
		if anc.row.Equal(row) && anc.col.Equal(col) {
			return anc
		}
	}
	return newContext(c.e, c, row, col)
}

func (c *Context) number(v any) (float64, bool) {
	return c.e.coercer.ToFloat(v)
}

// FieldValue implements formula.Resolver.
func (c *Context) FieldValue(i int) (float64, bool) {
	return c.number(c.ResolveValue(i))
}

// RowTotal implements formula.Resolver.
func (c *Context) RowTotal(i int) (float64, bool) {
	return c.number(c.ResolveRowTotal(i))
}

// ColumnTotal implements formula.Resolver.
func (c *Context) ColumnTotal(i int) (float64, bool) {
	return c.number(c.ResolveColumnTotal(i))
}

// GrandTotal implements formula.Resolver.
func (c *Context) GrandTotal(i int) (float64, bool) {
	return c.number(c.ResolveGrandTotal(i))
}

// ParentRowTotal implements formula.Resolver.
func (c *Context) ParentRowTotal(i int) (float64, bool) {
	return c.number(c.ResolveParentRowTotal(i))
}

// ParentColumnTotal implements formula.Resolver.
func (c *Context) ParentColumnTotal(i int) (float64, bool) {
	return c.number(c.ResolveParentColumnTotal(i))
}
