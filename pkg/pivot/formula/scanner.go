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
	"strings"
	"unicode"
)

var functions = map[string]TokenKind{
	"rowtotal":          RowTotal,
	"columntotal":       ColumnTotal,
	"grandtotal":        GrandTotal,
	"parentrowtotal":    ParentRowTotal,
	"parentcolumntotal": ParentColumnTotal,
}

// Scanner splits formula text into tokens. Field names are resolved against
// the name table while scanning. After the first error every call to Next
// returns an Invalid token and Err reports the error.
type Scanner struct {
	src   []rune
	pos   int
	names *NameTable
	usage UsageFlag
	err   error
}

// NewScanner creates a scanner over text.
func NewScanner(text string, names *NameTable) *Scanner {
	return &Scanner{src: []rune(text), names: names}
}

// Err returns the first error met by the scanner.
func (s *Scanner) Err() error {
	return s.err
}

// Usage returns the flags of the total functions scanned so far.
func (s *Scanner) Usage() UsageFlag {
	return s.usage
}

func (s *Scanner) peek() rune {
	if s.pos < len(s.src) {
		return s.src[s.pos]
	}
	return 0
}

func (s *Scanner) peekAt(off int) rune {
	if s.pos+off < len(s.src) {
		return s.src[s.pos+off]
	}
	return 0
}

func (s *Scanner) eof() bool {
	return s.pos >= len(s.src)
}

func (s *Scanner) skipSpace() {
	for !s.eof() && unicode.IsSpace(s.src[s.pos]) {
		s.pos++
	}
}

func (s *Scanner) fail(err error) Token {
	if s.err == nil {
		s.err = err
	}
	return Token{Kind: Invalid, Pos: s.pos}
}

// Next returns the next token.
func (s *Scanner) Next() Token {
	if s.err != nil {
		return Token{Kind: Invalid, Pos: s.pos}
	}
	s.skipSpace()
	if s.eof() {
		return Token{Kind: EOF, Pos: s.pos}
	}
	start := s.pos
	r := s.src[s.pos]
	switch {
	case isDigit(r) || (r == '.' && isDigit(s.peekAt(1))):
		return s.scanNumber()
	case isIdentStart(r):
		return s.scanIdent()
	case r == '[':
		name, ok := s.scanBracket()
		if !ok {
			return s.fail(ErrUnterminatedBracket.GenWithStackByArgs(start))
		}
		return s.fieldToken(name, start)
	}
	s.pos++
	switch r {
	case '+':
		return Token{Kind: Plus, Pos: start}
	case '-':
		return Token{Kind: Minus, Pos: start}
	case '*':
		return Token{Kind: Multiply, Pos: start}
	case '/':
		return Token{Kind: Divide, Pos: start}
	case '(':
		return Token{Kind: LeftParen, Pos: start}
	case ')':
		return Token{Kind: RightParen, Pos: start}
	}
	s.pos = start
	return s.fail(ErrUnexpectedChar.GenWithStackByArgs(r, start))
}

func (s *Scanner) scanNumber() Token {
	start := s.pos
	for isDigit(s.peek()) {
		s.pos++
	}
	if s.peek() == '.' {
		s.pos++
		for isDigit(s.peek()) {
			s.pos++
		}
	}
	if r := s.peek(); r == 'e' || r == 'E' {
		s.pos++
		if r := s.peek(); r == '+' || r == '-' {
			s.pos++
		}
		if !isDigit(s.peek()) {
			return s.fail(ErrMalformedNumber.GenWithStackByArgs(string(s.src[start:s.pos]), start))
		}
		for isDigit(s.peek()) {
			s.pos++
		}
	}
	lit := string(s.src[start:s.pos])
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return s.fail(ErrMalformedNumber.GenWithStackByArgs(lit, start))
	}
	return Token{Kind: Number, Value: v, Pos: start}
}

func (s *Scanner) readIdent() string {
	start := s.pos
	for !s.eof() && isIdentPart(s.src[s.pos]) {
		s.pos++
	}
	return string(s.src[start:s.pos])
}

// scanBracket reads a "[name]" reference. The name is kept verbatim.
func (s *Scanner) scanBracket() (string, bool) {
	end := -1
	for i := s.pos + 1; i < len(s.src); i++ {
		if s.src[i] == ']' {
			end = i
			break
		}
	}
	if end < 0 {
		return "", false
	}
	name := string(s.src[s.pos+1 : end])
	s.pos = end + 1
	return name, true
}

func (s *Scanner) scanIdent() Token {
	start := s.pos
	ident := s.readIdent()
	if s.peek() != '(' {
		return s.fieldToken(ident, start)
	}
	kind, ok := functions[strings.ToLower(ident)]
	if !ok {
		return s.fail(ErrUnknownFunction.GenWithStackByArgs(ident, start))
	}
	s.pos++
	s.skipSpace()
	argStart := s.pos
	var arg string
	switch r := s.peek(); {
	case r == '[':
		if arg, ok = s.scanBracket(); !ok {
			return s.fail(ErrUnterminatedBracket.GenWithStackByArgs(argStart))
		}
	case isIdentStart(r):
		arg = s.readIdent()
	default:
		return s.fail(ErrInvalidArgument.GenWithStackByArgs(kind.String(), argStart))
	}
	s.skipSpace()
	if s.peek() != ')' {
		return s.fail(ErrInvalidArgument.GenWithStackByArgs(kind.String(), s.pos))
	}
	s.pos++
	tok := s.fieldToken(arg, argStart)
	if tok.Kind == Invalid {
		return tok
	}
	tok.Kind = kind
	tok.Pos = start
	s.usage |= functionUsage(kind)
	return tok
}

func (s *Scanner) fieldToken(name string, pos int) Token {
	i, ok := s.names.Lookup(name)
	if !ok {
		return s.fail(ErrUnknownField.GenWithStackByArgs(name, pos))
	}
	return Token{Kind: Field, Field: i, Pos: pos}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || r == '.' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
