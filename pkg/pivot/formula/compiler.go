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
	"strings"
)

// Compile parses text into a postfix program. Field references are resolved
// through names.
//
// The parser is a shunting-yard over the scanner's tokens. A '-' seen where
// an operand is expected is a unary negation. The program must leave exactly
// one value on the operand stack, anything else is reported as an invalid
// expression. Operands and binary operators must alternate, so postfix input
// such as "2 3 +" is rejected.
func Compile(text string, names *NameTable) (*Formula, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyFormula.GenWithStackByArgs()
	}
	sc := NewScanner(text, names)
	var (
		program = make([]Token, 0, len(text))
		ops     = make([]Token, 0, 8)
		operand = true
	)
	for {
		tok := sc.Next()
		if tok.Kind == Invalid {
			return nil, sc.Err()
		}
		if tok.Kind == EOF {
			break
		}
		switch {
		case tok.Kind.IsOperand():
			if !operand {
				return nil, ErrInvalidExpression.GenWithStackByArgs(text)
			}
			program = append(program, tok)
			operand = false
		case tok.Kind == LeftParen:
			if !operand {
				return nil, ErrInvalidExpression.GenWithStackByArgs(text)
			}
			ops = append(ops, tok)
			operand = true
		case tok.Kind == RightParen:
			if operand {
				return nil, ErrInvalidExpression.GenWithStackByArgs(text)
			}
			matched := false
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.Kind == LeftParen {
					matched = true
					break
				}
				program = append(program, top)
			}
			if !matched {
				return nil, ErrMismatchedParen.GenWithStackByArgs(tok.Pos)
			}
			operand = false
		default:
			if tok.Kind == Minus && operand {
				tok.Kind = Negate
			} else if operand {
				return nil, ErrInvalidExpression.GenWithStackByArgs(text)
			}
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.Kind == LeftParen {
					break
				}
				tp, p := top.Kind.precedence(), tok.Kind.precedence()
				if tp < p || (tp == p && tok.Kind.rightAssoc()) {
					break
				}
				program = append(program, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, tok)
			operand = true
		}
	}
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].Kind == LeftParen {
			return nil, ErrMismatchedParen.GenWithStackByArgs(ops[i].Pos)
		}
		program = append(program, ops[i])
	}
	if !wellFormed(program) {
		return nil, ErrInvalidExpression.GenWithStackByArgs(text)
	}
	return &Formula{
		text:    text,
		program: program,
		usage:   Usage{Flags: sc.Usage(), FieldCount: names.FieldCount()},
	}, nil
}

// wellFormed simulates the operand stack depth of program.
func wellFormed(program []Token) bool {
	depth := 0
	for _, tok := range program {
		switch {
		case tok.Kind.IsOperand():
			depth++
		case tok.Kind == Negate:
			if depth < 1 {
				return false
			}
		default:
			if depth < 2 {
				return false
			}
			depth--
		}
	}
	return depth == 1
}
