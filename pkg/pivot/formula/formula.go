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

// Package formula compiles and evaluates the arithmetic formulas of
// calculated value fields.
//
// A formula combines numbers, value field references and the total functions
// RowTotal, ColumnTotal, GrandTotal, ParentRowTotal and ParentColumnTotal
// with + - * / and parentheses:
//
//	expr      := term (('+'|'-') term)*
//	term      := unary (('*'|'/') unary)*
//	unary     := '-' unary | atom
//	atom      := number | fieldref | funccall | '(' expr ')'
//	fieldref  := bareIdent | '[' anyChars ']'
//	funccall  := function '(' fieldref ')'
package formula

import (
	"strings"
)

// Resolver supplies the operand values of a formula. A false second result
// means the value is absent.
type Resolver interface {
	FieldValue(field int) (float64, bool)
	RowTotal(field int) (float64, bool)
	ColumnTotal(field int) (float64, bool)
	GrandTotal(field int) (float64, bool)
	ParentRowTotal(field int) (float64, bool)
	ParentColumnTotal(field int) (float64, bool)
}

// Formula is a compiled formula. It is immutable and safe for concurrent use.
type Formula struct {
	text    string
	program []Token
	usage   Usage
}

// Text returns the source text.
func (f *Formula) Text() string {
	return f.text
}

// Usage returns the cross-cell lookups of the formula.
func (f *Formula) Usage() Usage {
	return f.usage
}

// Program returns a copy of the postfix program.
func (f *Formula) Program() []Token {
	return append([]Token(nil), f.program...)
}

// String renders the postfix program, e.g. "$0 $1 -".
func (f *Formula) String() string {
	var b strings.Builder
	for i, tok := range f.program {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(tok.String())
	}
	return b.String()
}

type operand struct {
	v  float64
	ok bool
}

// Eval runs the program. Absent operands and division by zero make the
// result absent.
func (f *Formula) Eval(r Resolver) (float64, bool) {
	stack := make([]operand, 0, len(f.program))
	for _, tok := range f.program {
		var v operand
		switch tok.Kind {
		case Number:
			v = operand{tok.Value, true}
		case Field:
			v.v, v.ok = r.FieldValue(tok.Field)
		case RowTotal:
			v.v, v.ok = r.RowTotal(tok.Field)
		case ColumnTotal:
			v.v, v.ok = r.ColumnTotal(tok.Field)
		case GrandTotal:
			v.v, v.ok = r.GrandTotal(tok.Field)
		case ParentRowTotal:
			v.v, v.ok = r.ParentRowTotal(tok.Field)
		case ParentColumnTotal:
			v.v, v.ok = r.ParentColumnTotal(tok.Field)
		case Negate:
			top := &stack[len(stack)-1]
			top.v = -top.v
			continue
		default:
			a, b := stack[len(stack)-2], stack[len(stack)-1]
			stack = stack[:len(stack)-2]
			v = apply(tok.Kind, a, b)
		}
		stack = append(stack, v)
	}
	res := stack[0]
	return res.v, res.ok
}

func apply(op TokenKind, a, b operand) operand {
	if !a.ok || !b.ok {
		return operand{}
	}
	switch op {
	case Plus:
		return operand{a.v + b.v, true}
	case Minus:
		return operand{a.v - b.v, true}
	case Multiply:
		return operand{a.v * b.v, true}
	case Divide:
		if b.v == 0 {
			return operand{}
		}
		return operand{a.v / b.v, true}
	}
	return operand{}
}
