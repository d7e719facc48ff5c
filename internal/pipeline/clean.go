package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"percances/internal"
	"percances/internal/frame"
)

// Sentinel is the raw-data placeholder for a missing value, distinct
// from an empty field.
const Sentinel = `\N`

// Numeric columns are declared two ways, mirroring the report layout:
// contiguous position ranges over the unified header order plus an
// explicit name list for the stragglers outside those ranges.
var numericRanges = [][2]string{
	{"siniestro", "codigo_postal"},
	{"ambulancia", "animal"},
}

var numericColumns = []string{
	"modelo", "ano", "dia_numero", "hora", "total_lesionados", "edad_lesionado",
}

// stringColumns are the categorical/text fields typed explicitly before
// the residual pass.
var stringColumns = []string{
	"calle", "color", "nivel_dano_vehiculo", "punto_impacto", "mes", "dia",
	"estado", "ciudad_municipio", "rol_lesionado", "genero_lesionado",
	"hospitalizado", "fallecido",
}

// ResolveNumericColumns expands the declared ranges and names against
// the canonical dictionary column order, so range membership does not
// depend on whatever layout a given year's file happened to ship. A
// range whose endpoint is missing from the order is reported and
// skipped; an expanded name absent from the table is reported and
// excluded; the remaining declarations still resolve.
func ResolveNumericColumns(f *frame.Frame, order []string) ([]string, []internal.ColumnIssue) {
	pos := make(map[string]int, len(order))
	for i, n := range order {
		pos[n] = i
	}

	var issues []internal.ColumnIssue
	seen := map[string]bool{}
	out := []string{}

	add := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		if !f.Has(name) {
			issues = append(issues, internal.ColumnIssue{Column: name, Err: "missing from unified table"})
			return
		}
		out = append(out, name)
	}

	for _, r := range numericRanges {
		from, okFrom := pos[r[0]]
		to, okTo := pos[r[1]]
		if !okFrom || !okTo {
			issues = append(issues, internal.ColumnIssue{
				Column: r[0] + ".." + r[1],
				Err:    "range endpoint missing from schema",
			})
			continue
		}
		if to < from {
			from, to = to, from
		}
		for i := from; i <= to; i++ {
			add(order[i])
		}
	}
	for _, name := range numericColumns {
		if _, ok := pos[name]; !ok {
			issues = append(issues, internal.ColumnIssue{Column: name, Err: "missing from schema"})
			continue
		}
		add(name)
	}
	return out, issues
}

// CoerceNumeric attempts a numeric parse of every non-null cell in the
// given columns. Values that fail become nulls and are audited; a
// column that cannot be processed is reported without aborting the
// rest.
func CoerceNumeric(f *frame.Frame, cols []string) internal.CoercionReport {
	report := internal.CoercionReport{PerColumn: map[string]int{}}
	for _, name := range cols {
		col, ok := f.Column(name)
		if !ok {
			report.Issues = append(report.Issues, internal.ColumnIssue{Column: name, Err: "no such column"})
			continue
		}
		coerced := 0
		for i, cell := range col.Cells {
			if cell == nil {
				continue
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(*cell), 64); err != nil {
				col.Cells[i] = nil
				coerced++
			}
		}
		col.Kind = frame.KindFloat
		if coerced > 0 {
			report.PerColumn[name] = coerced
			report.Total += coerced
		}
	}
	return report
}

// ReplaceSentinel turns every sentinel cell anywhere in the table into
// a null and reports the exact number of replacements.
func ReplaceSentinel(f *frame.Frame) internal.SentinelReport {
	report := internal.SentinelReport{Sentinel: Sentinel}
	for _, col := range f.Columns() {
		for i, cell := range col.Cells {
			if cell != nil && *cell == Sentinel {
				col.Cells[i] = nil
				report.Replaced++
			}
		}
	}
	return report
}

// TypeStringColumns forces the designated categorical/text columns to
// the string kind. Columns absent from the schema are tolerated.
func TypeStringColumns(f *frame.Frame) int {
	typed := 0
	for _, name := range stringColumns {
		if f.SetKind(name, frame.KindString) {
			typed++
		}
	}
	return typed
}

// TypeRemainingColumns gives every column not already claimed by the
// numeric or explicit string passes the string kind.
func TypeRemainingColumns(f *frame.Frame, handled []string) int {
	claimed := make(map[string]bool, len(handled))
	for _, name := range handled {
		claimed[name] = true
	}
	for _, name := range stringColumns {
		claimed[name] = true
	}
	typed := 0
	for _, col := range f.Columns() {
		if claimed[col.Name] {
			continue
		}
		col.Kind = frame.KindString
		typed++
	}
	return typed
}

// castInt casts a column's cells to integer text, nulling and recording
// anything unparseable. Used by the month and damage translations after
// their substitution rules have run.
func castInt(col *frame.Column, originals []string, report *internal.TranslationReport) {
	for i, cell := range col.Cells {
		if cell == nil {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(*cell))
		if err != nil {
			if report.Invalid == nil {
				report.Invalid = map[string]int{}
			}
			report.Invalid[originals[i]]++
			report.Nulled++
			col.Cells[i] = nil
			continue
		}
		col.Cells[i] = frame.Str(strconv.Itoa(n))
	}
	col.Kind = frame.KindInt
}

func requireColumn(f *frame.Frame, name string) (*frame.Column, error) {
	col, ok := f.Column(name)
	if !ok {
		return nil, fmt.Errorf("column %s missing from unified table", name)
	}
	return col, nil
}
