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

package aggregation

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Coercer converts raw values to float64.
//
// Native numeric types are converted directly. Strings are parsed with the
// decimal and group separators of the coercer's locale; a trailing '%'
// divides the parsed value by 100. Strings that do not parse in the locale
// format are retried in the invariant format.
type Coercer struct {
	tag     language.Tag
	decimal rune
	group   rune
}

var invariantCoercer = &Coercer{tag: language.Und, decimal: '.', group: ','}

// InvariantCoercer returns the coercer for the invariant numeric format.
func InvariantCoercer() *Coercer {
	return invariantCoercer
}

// NewCoercer builds a coercer for tag. The separators are taken from the
// locale's own rendering of a probe number.
func NewCoercer(tag language.Tag) *Coercer {
	if tag == language.Und {
		return invariantCoercer
	}
	decimal, group, ok := separators(message.NewPrinter(tag).Sprintf("%.1f", 1234.5))
	if !ok {
		return invariantCoercer
	}
	return &Coercer{tag: tag, decimal: decimal, group: group}
}

// separators reads the separators out of the localized form of 1234.5.
func separators(probe string) (decimal, group rune, ok bool) {
	runes := []rune(probe)
	decIdx := -1
	for i := len(runes) - 1; i >= 0; i-- {
		if !unicode.IsDigit(runes[i]) {
			decIdx = i
			break
		}
	}
	if decIdx <= 0 || decIdx == len(runes)-1 {
		return 0, 0, false
	}
	decimal = runes[decIdx]
	for _, r := range runes[:decIdx] {
		if !unicode.IsDigit(r) {
			group = r
			break
		}
	}
	if group == decimal {
		return 0, 0, false
	}
	return decimal, group, true
}

// Tag returns the locale of c.
func (c *Coercer) Tag() language.Tag {
	return c.tag
}

// ToFloat converts v to float64. The second result is false when v is nil or
// cannot be read as a number.
func (c *Coercer) ToFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case string:
		return c.parse(x)
	case []byte:
		return c.parse(string(x))
	}
	return 0, false
}

func (c *Coercer) parse(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
		scale = 100
	}
	if f, ok := c.parseLocale(s); ok {
		return f / scale, true
	}
	if f, ok := parseInvariant(s); ok {
		return f / scale, true
	}
	return 0, false
}

func (c *Coercer) parseLocale(s string) (float64, bool) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == c.group || (c.group != 0 && isSpaceGroup(c.group) && isSpaceGroup(r)):
			continue
		case r == c.decimal:
			b.WriteByte('.')
		default:
			b.WriteRune(r)
		}
	}
	return parseInvariant(b.String())
}

func isSpaceGroup(r rune) bool {
	return r == ' ' || r == '\u00a0' || r == '\u202f'
}

func parseInvariant(s string) (float64, bool) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
