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

// UsageFlag marks a kind of cross-cell lookup a formula performs.
type UsageFlag uint8

// Usage flags.
const (
	UsesRowTotals UsageFlag = 1 << iota
	UsesColumnTotals
	UsesGrandTotals
	UsesParentRowTotals
	UsesParentColumnTotals
)

var usageFlagNames = []struct {
	flag UsageFlag
	name string
}{
	{UsesRowTotals, "RowTotals"},
	{UsesColumnTotals, "ColumnTotals"},
	{UsesGrandTotals, "GrandTotals"},
	{UsesParentRowTotals, "ParentRowTotals"},
	{UsesParentColumnTotals, "ParentColumnTotals"},
}

func (f UsageFlag) String() string {
	if f == 0 {
		return "None"
	}
	var parts []string
	for _, n := range usageFlagNames {
		if f&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Usage describes what a set of compiled formulas needs from the builder:
// which virtual totals they read and how many value fields they were
// compiled against.
type Usage struct {
	Flags      UsageFlag
	FieldCount int
}

// Has reports whether every flag in f is set.
func (u Usage) Has(f UsageFlag) bool {
	return u.Flags&f == f
}

// Merge combines two usages: flags are OR-ed and the larger field count wins.
func (u Usage) Merge(o Usage) Usage {
	return Usage{Flags: u.Flags | o.Flags, FieldCount: max(u.FieldCount, o.FieldCount)}
}

// NeedsParents reports whether parent-path lookups are used.
func (u Usage) NeedsParents() bool {
	return u.Flags&(UsesParentRowTotals|UsesParentColumnTotals) != 0
}

func functionUsage(k TokenKind) UsageFlag {
	switch k {
	case RowTotal:
		return UsesRowTotals
	case ColumnTotal:
		return UsesColumnTotals
	case GrandTotal:
		return UsesGrandTotals
	case ParentRowTotal:
		return UsesParentRowTotals
	case ParentColumnTotal:
		return UsesParentColumnTotals
	}
	return 0
}
