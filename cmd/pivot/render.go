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

package main

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	jsoniter "github.com/json-iterator/go"
	"github.com/pingcap/errors"
	"github.com/pingcap/pivot/pkg/pivot"
	"github.com/pingcap/pivot/pkg/pivot/builder"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	totalLabel  = "Total"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.RFC3339)
	}
	return fmt.Sprint(v)
}

func pathLabel(p pivot.Path) string {
	if p.IsTotal() {
		return totalLabel
	}
	return p.String()
}

// withTotal appends the empty path to paths.
func withTotal(paths []pivot.Path) []pivot.Path {
	res := make([]pivot.Path, 0, len(paths)+1)
	res = append(res, paths...)
	return append(res, pivot.Path{})
}

// renderTable prints one line per row path and one column per (column path,
// value field) pair. Totals come last on both axes.
func renderTable(w io.Writer, res *builder.Result) error {
	e := res.Evaluator()
	cols := withTotal(res.ColPaths)

	t := table.NewWriter()
	t.Style().Format.Header = text.FormatDefault
	header := table.Row{""}
	configs := []table.ColumnConfig{{Number: 1, Align: text.AlignLeft}}
	for _, col := range cols {
		for i := range res.Fields {
			header = append(header, pathLabel(col)+" | "+res.Fields[i].Name())
			configs = append(configs, table.ColumnConfig{Number: len(header), Align: text.AlignRight})
		}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, row := range withTotal(res.RowPaths) {
		line := table.Row{pathLabel(row)}
		for _, col := range cols {
			for _, v := range e.EvaluateAll(row, col) {
				line = append(line, formatValue(v))
			}
		}
		if row.IsTotal() {
			t.AppendSeparator()
		}
		t.AppendRow(line)
	}
	if _, err := io.WriteString(w, t.Render()+"\n"); err != nil {
		return errors.Trace(err)
	}
	return nil
}

// jsonCell holds the values of one cell in the order of jsonPivot.Fields.
type jsonCell struct {
	Row    []any `json:"row"`
	Col    []any `json:"col"`
	Values []any `json:"values"`
}

type jsonPivot struct {
	Fields []string   `json:"fields"`
	Rows   [][]any    `json:"rows"`
	Cols   [][]any    `json:"columns"`
	Cells  []jsonCell `json:"cells"`
}

func toSlices(paths []pivot.Path) [][]any {
	res := make([][]any, 0, len(paths))
	for _, p := range paths {
		res = append(res, []any(p))
	}
	return res
}

// jsonValue maps values JSON cannot carry, such as an overflowed formula
// result, to null.
func jsonValue(v any) any {
	if f, ok := v.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return nil
	}
	return v
}

// renderJSON prints every cell, totals included, with the values of all
// fields. Absent and non-finite values are null.
func renderJSON(w io.Writer, res *builder.Result) error {
	e := res.Evaluator()
	out := jsonPivot{
		Rows: toSlices(res.RowPaths),
		Cols: toSlices(res.ColPaths),
	}
	for i := range res.Fields {
		out.Fields = append(out.Fields, res.Fields[i].Name())
	}
	for _, row := range withTotal(res.RowPaths) {
		for _, col := range withTotal(res.ColPaths) {
			if _, ok := res.Cells.Get(row, col); !ok {
				continue
			}
			values := e.EvaluateAll(row, col)
			for i, v := range values {
				values[i] = jsonValue(v)
			}
			out.Cells = append(out.Cells, jsonCell{Row: []any(row), Col: []any(col), Values: values})
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errors.Trace(err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		return errors.Trace(err)
	}
	return nil
}
