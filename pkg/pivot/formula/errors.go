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
	"github.com/pingcap/errors"
)

// error definitions.
var (
	ErrEmptyFormula        = errors.Normalize("formula is empty", errors.RFCCodeText("Pivot:formula:ErrEmptyFormula"))
	ErrUnexpectedChar      = errors.Normalize("unexpected character %q at offset %d", errors.RFCCodeText("Pivot:formula:ErrUnexpectedChar"))
	ErrUnterminatedBracket = errors.Normalize("unterminated bracket at offset %d", errors.RFCCodeText("Pivot:formula:ErrUnterminatedBracket"))
	ErrMalformedNumber     = errors.Normalize("malformed number %q at offset %d", errors.RFCCodeText("Pivot:formula:ErrMalformedNumber"))
	ErrUnknownField        = errors.Normalize("unknown field %q at offset %d", errors.RFCCodeText("Pivot:formula:ErrUnknownField"))
	ErrUnknownFunction     = errors.Normalize("unknown function %q at offset %d", errors.RFCCodeText("Pivot:formula:ErrUnknownFunction"))
	ErrInvalidArgument     = errors.Normalize("function %s takes a single field reference, at offset %d", errors.RFCCodeText("Pivot:formula:ErrInvalidArgument"))
	ErrMismatchedParen     = errors.Normalize("mismatched parenthesis at offset %d", errors.RFCCodeText("Pivot:formula:ErrMismatchedParen"))
	ErrInvalidExpression   = errors.Normalize("invalid expression %q", errors.RFCCodeText("Pivot:formula:ErrInvalidExpression"))
)
