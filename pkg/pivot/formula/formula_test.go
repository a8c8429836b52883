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
	"testing"

	"github.com/pingcap/errors"
	"github.com/stretchr/testify/require"
)

var testNames = NewNameTable([]FieldName{
	{Key: "revenue", Header: "Revenue"},
	{Key: "cost", Header: "Total Cost"},
	{Key: "", Header: "Margin %"},
	{Key: "units.sold", Header: "revenue"},
})

// mapResolver serves fixed values; a missing entry is absent.
type mapResolver struct {
	values     map[int]float64
	rowTotals  map[int]float64
	colTotals  map[int]float64
	grand      map[int]float64
	parentRows map[int]float64
	parentCols map[int]float64
}

func lookup(m map[int]float64, i int) (float64, bool) {
	v, ok := m[i]
	return v, ok
}

func (r *mapResolver) FieldValue(i int) (float64, bool) { return lookup(r.values, i) }
func (r *mapResolver) RowTotal(i int) (float64, bool) { return lookup(r.rowTotals, i) }
func (r *mapResolver) ColumnTotal(i int) (float64, bool) { return lookup(r.colTotals, i) }
func (r *mapResolver) GrandTotal(i int) (float64, bool) { return lookup(r.grand, i) }
func (r *mapResolver) ParentRowTotal(i int) (float64, bool) { return lookup(r.parentRows, i) }
func (r *mapResolver) ParentColumnTotal(i int) (float64, bool) { return lookup(r.parentCols, i) }

func newResolver() *mapResolver {
	return &mapResolver{
		values:     map[int]float64{0: 100, 1: 30, 3: 4},
		rowTotals:  map[int]float64{0: 400},
		colTotals:  map[int]float64{0: 250, 1: 50},
		grand:      map[int]float64{0: 1000},
		parentRows: map[int]float64{0: 200},
		parentCols: map[int]float64{1: 60},
	}
}

func TestEval(t *testing.T) {
	tests := []struct {
		text   string
		result float64
		ok     bool
	}{
		{"2+3*4", 14, true},
		{"(2+3)*4", 20, true},
		{"-2+3", 1, true},
		{"2*-3", -6, true},
		{"--2", 2, true},
		{"-(2+3)*2", -10, true},
		{"10-4-3", 3, true},
		{"12/3/2", 2, true},
		{"1.5e2 + .5", 150.5, true},
		{"2E-1*10", 2, true},
		{"[Revenue]-[Cost]", 70, true},
		{"revenue - [total cost]", 70, true},
		{"REVENUE/RowTotal(revenue)", 0.25, true},
		{"ColumnTotal([Revenue]) + columntotal(cost)", 300, true},
		{"GrandTotal(Revenue)", 1000, true},
		{"ParentRowTotal( revenue ) / ParentColumnTotal([Total Cost])", 200.0 / 60.0, true},
		{"units.sold * 2", 8, true},
		{"[Margin %]", 0, false},
		{"[Margin %] + 1", 0, false},
		{"-[Margin %]", 0, false},
		{"1/0", 0, false},
		{"revenue / (cost - 30)", 0, false},
		{"RowTotal(cost)", 0, false},
	}
	r := newResolver()
	for _, test := range tests {
		f, err := Compile(test.text, testNames)
		require.NoError(t, err, test.text)
		v, ok := f.Eval(r)
		require.Equal(t, test.ok, ok, test.text)
		if test.ok {
			require.InDelta(t, test.result, v, 1e-12, test.text)
		}
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		text string
		err  *errors.Error
	}{
		{"", ErrEmptyFormula},
		{"   ", ErrEmptyFormula},
		{"2 +", ErrInvalidExpression},
		{"2 3", ErrInvalidExpression},
		{"*2", ErrInvalidExpression},
		{"()", ErrInvalidExpression},
		{"-", ErrInvalidExpression},
		{"2 3 +", ErrInvalidExpression},
		{"2 3 4 * +", ErrInvalidExpression},
		{"[Revenue] [Cost] -", ErrInvalidExpression},
		{"revenue cost /", ErrInvalidExpression},
		{"(2)(3)", ErrInvalidExpression},
		{"2 (3)", ErrInvalidExpression},
		{"(2 *)", ErrInvalidExpression},
		{"2 * / 3", ErrInvalidExpression},
		{"(2+3", ErrMismatchedParen},
		{"2+3)", ErrMismatchedParen},
		{"((1)", ErrMismatchedParen},
		{"[Revenue", ErrUnterminatedBracket},
		{"RowTotal([Revenue)", ErrUnterminatedBracket},
		{"price * 2", ErrUnknownField},
		{"[ Revenue ]", ErrUnknownField},
		{"RowTotal(price)", ErrUnknownField},
		{"Sum(revenue)", ErrUnknownFunction},
		{"RowTotal(1)", ErrInvalidArgument},
		{"RowTotal(revenue cost)", ErrInvalidArgument},
		{"RowTotal(revenue", ErrInvalidArgument},
		{"2 % 3", ErrUnexpectedChar},
		{"revenue ^ 2", ErrUnexpectedChar},
		{"1e", ErrMalformedNumber},
		{"2e+x", ErrMalformedNumber},
	}
	for _, test := range tests {
		f, err := Compile(test.text, testNames)
		require.Nil(t, f, test.text)
		require.Error(t, err, test.text)
		require.True(t, test.err.Equal(err), "%q: %v", test.text, err)
	}
}

func TestUsage(t *testing.T) {
	f, err := Compile("revenue + 1", testNames)
	require.NoError(t, err)
	require.Equal(t, Usage{FieldCount: 4}, f.Usage())
	require.False(t, f.Usage().NeedsParents())

	f, err = Compile("RowTotal(revenue) + ParentColumnTotal(cost) + rowtotal(cost)", testNames)
	require.NoError(t, err)
	u := f.Usage()
	require.True(t, u.Has(UsesRowTotals))
	require.True(t, u.Has(UsesParentColumnTotals))
	require.True(t, u.Has(UsesRowTotals|UsesParentColumnTotals))
	require.False(t, u.Has(UsesGrandTotals))
	require.True(t, u.NeedsParents())
	require.Equal(t, "RowTotals|ParentColumnTotals", u.Flags.String())

	merged := u.Merge(Usage{Flags: UsesGrandTotals, FieldCount: 7})
	require.Equal(t, UsesRowTotals|UsesParentColumnTotals|UsesGrandTotals, merged.Flags)
	require.Equal(t, 7, merged.FieldCount)
	require.Equal(t, "None", Usage{}.Flags.String())
}

func TestDeterminism(t *testing.T) {
	const text = "(revenue - cost) / GrandTotal(revenue) * -100"
	f1, err := Compile(text, testNames)
	require.NoError(t, err)
	f2, err := Compile(text, testNames)
	require.NoError(t, err)
	require.Equal(t, f1.Program(), f2.Program())
	require.Equal(t, text, f1.Text())

	r := newResolver()
	v1, ok1 := f1.Eval(r)
	v2, ok2 := f2.Eval(r)
	require.True(t, ok1)
	require.Equal(t, ok1, ok2)
	require.Equal(t, v1, v2)
	require.InDelta(t, -7.0, v1, 1e-12)
}

func TestString(t *testing.T) {
	f, err := Compile("-2 + [Revenue] * RowTotal(cost)", testNames)
	require.NoError(t, err)
	require.Equal(t, "2 neg $0 RowTotal($1) * +", f.String())

	prog := f.Program()
	prog[0].Value = 99
	require.Equal(t, "2 neg $0 RowTotal($1) * +", f.String())
}
