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
	"strconv"
)

// TokenKind is the kind of a formula token.
type TokenKind uint8

// Token kinds.
const (
	EOF TokenKind = iota
	Invalid

	Number
	Field
	RowTotal
	ColumnTotal
	GrandTotal
	ParentRowTotal
	ParentColumnTotal

	Plus
	Minus
	Multiply
	Divide
	Negate
	LeftParen
	RightParen
)

var tokenNames = [...]string{
	EOF:               "EOF",
	Invalid:           "Invalid",
	Number:            "Number",
	Field:             "Field",
	RowTotal:          "RowTotal",
	ColumnTotal:       "ColumnTotal",
	GrandTotal:        "GrandTotal",
	ParentRowTotal:    "ParentRowTotal",
	ParentColumnTotal: "ParentColumnTotal",
	Plus:              "+",
	Minus:             "-",
	Multiply:          "*",
	Divide:            "/",
	Negate:            "neg",
	LeftParen:         "(",
	RightParen:        ")",
}

func (k TokenKind) String() string {
	if int(k) < len(tokenNames) {
		return tokenNames[k]
	}
	return "TokenKind(" + strconv.Itoa(int(k)) + ")"
}

// IsOperand reports whether the token pushes a value.
func (k TokenKind) IsOperand() bool {
	return k >= Number && k <= ParentColumnTotal
}

// IsOperator reports whether the token is an arithmetic operator.
func (k TokenKind) IsOperator() bool {
	return k >= Plus && k <= Negate
}

func (k TokenKind) precedence() int {
	switch k {
	case Negate:
		return 3
	case Multiply, Divide:
		return 2
	case Plus, Minus:
		return 1
	}
	return 0
}

func (k TokenKind) rightAssoc() bool {
	return k == Negate
}

// Token is one lexical element of a formula. Value is set for Number tokens,
// Field holds the value field index of field and total tokens. Pos is the
// offset, in runes, of the token in the formula text.
type Token struct {
	Kind  TokenKind
	Value float64
	Field int
	Pos   int
}

func (t Token) String() string {
	switch t.Kind {
	case Number:
		return strconv.FormatFloat(t.Value, 'g', -1, 64)
	case Field:
		return "$" + strconv.Itoa(t.Field)
	case RowTotal, ColumnTotal, GrandTotal, ParentRowTotal, ParentColumnTotal:
		return t.Kind.String() + "($" + strconv.Itoa(t.Field) + ")"
	}
	return t.Kind.String()
}
