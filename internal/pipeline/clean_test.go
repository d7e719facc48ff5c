package pipeline

import (
	"testing"

	"percances/internal/frame"
)

func TestResolveNumericColumns(t *testing.T) {
	order := []string{
		"siniestro", "reporte", "codigo_postal", // first range
		"estado",
		"ambulancia", "grua", "animal", // second range
		"modelo", "mes", "ano", "dia_numero", "hora", "total_lesionados", "edad_lesionado",
	}
	f := mkFrame(t, order, nil)

	cols, issues := ResolveNumericColumns(f, order)
	if len(issues) != 0 {
		t.Fatalf("issues=%+v", issues)
	}
	want := []string{
		"siniestro", "reporte", "codigo_postal", "ambulancia", "grua", "animal",
		"modelo", "ano", "dia_numero", "hora", "total_lesionados", "edad_lesionado",
	}
	if len(cols) != len(want) {
		t.Fatalf("cols=%v", cols)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("cols[%d]=%q want %q", i, cols[i], want[i])
		}
	}
	for _, name := range cols {
		if name == "estado" || name == "mes" {
			t.Fatalf("%s resolved as numeric", name)
		}
	}
}

func TestResolveNumericColumnsUsesDictionaryOrder(t *testing.T) {
	// A pre-cutover file can ship its columns in any order; range
	// membership follows the dictionary order, not the table layout.
	order := []string{"siniestro", "reporte", "codigo_postal", "estado", "modelo"}
	f := mkFrame(t, []string{"estado", "modelo", "codigo_postal", "siniestro", "reporte"}, nil)

	cols, _ := ResolveNumericColumns(f, order)
	want := []string{"siniestro", "reporte", "codigo_postal", "modelo"}
	if len(cols) != len(want) {
		t.Fatalf("cols=%v", cols)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("cols[%d]=%q want %q", i, cols[i], want[i])
		}
	}
	for _, name := range cols {
		if name == "estado" {
			t.Fatal("estado resolved as numeric")
		}
	}
}

func TestResolveNumericColumnsMissingEndpoint(t *testing.T) {
	// codigo_postal absent: the whole first range is skipped and
	// reported, but the name list still resolves what it can.
	order := []string{"siniestro", "reporte", "modelo"}
	f := mkFrame(t, order, nil)
	cols, issues := ResolveNumericColumns(f, order)
	found := false
	for _, issue := range issues {
		if issue.Column == "siniestro..codigo_postal" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no issue for the broken range: %+v", issues)
	}
	if len(cols) != 1 || cols[0] != "modelo" {
		t.Fatalf("cols=%v", cols)
	}
}

func TestResolveNumericColumnsReportsColumnsAbsentFromTable(t *testing.T) {
	// The dictionary lists reporte but this table lost it: the name is
	// reported and excluded instead of flowing on to the coercion pass.
	order := []string{"siniestro", "reporte", "codigo_postal"}
	f := mkFrame(t, []string{"siniestro", "codigo_postal"}, nil)

	cols, issues := ResolveNumericColumns(f, order)
	found := false
	for _, issue := range issues {
		if issue.Column == "reporte" && issue.Err == "missing from unified table" {
			found = true
		}
	}
	if !found {
		t.Fatalf("no issue for the absent column: %+v", issues)
	}
	if len(cols) != 2 || cols[0] != "siniestro" || cols[1] != "codigo_postal" {
		t.Fatalf("cols=%v", cols)
	}
}

func TestCoerceNumeric(t *testing.T) {
	f := mkFrame(t, []string{"hora"}, [][]*string{
		{frame.Str("12")}, {frame.Str("abc")}, {nil}, {frame.Str("7")},
	})

	report := CoerceNumeric(f, []string{"hora"})
	// "abc" is the only audited coercion: the null never counts and the
	// parseable values pass through untouched.
	if report.Total != 1 || report.PerColumn["hora"] != 1 {
		t.Fatalf("total=%d perColumn=%v", report.Total, report.PerColumn)
	}
	if f.Cell("hora", 1) != nil {
		t.Fatal("unparseable value must become null")
	}
	if got := f.Cell("hora", 0); got == nil || *got != "12" {
		t.Fatalf("hora[0]=%v", got)
	}
	if got := f.Cell("hora", 3); got == nil || *got != "7" {
		t.Fatalf("hora[3]=%v", got)
	}
	col, _ := f.Column("hora")
	if col.Kind != frame.KindFloat {
		t.Fatalf("kind=%v", col.Kind)
	}
}

func TestCoerceNumericMissingColumn(t *testing.T) {
	f := mkFrame(t, []string{"hora"}, nil)
	report := CoerceNumeric(f, []string{"hora", "no_such"})
	if len(report.Issues) != 1 || report.Issues[0].Column != "no_such" {
		t.Fatalf("issues=%+v", report.Issues)
	}
}

func TestReplaceSentinel(t *testing.T) {
	f := mkFrame(t, []string{"calle", "color"}, [][]*string{
		{frame.Str(`\N`), frame.Str("rojo")},
		{frame.Str("insurgentes"), frame.Str(`\N`)},
		{nil, frame.Str(`\N`)},
	})

	report := ReplaceSentinel(f)
	if report.Replaced != 3 {
		t.Fatalf("replaced=%d", report.Replaced)
	}
	if f.Cell("calle", 0) != nil || f.Cell("color", 1) != nil || f.Cell("color", 2) != nil {
		t.Fatal("sentinel cells must become null")
	}
	if got := f.Cell("color", 0); got == nil || *got != "rojo" {
		t.Fatalf("color[0]=%v", got)
	}
}

func TestTypeRemainingColumns(t *testing.T) {
	f := mkFrame(t, []string{"siniestro", "estado", "placas"}, nil)
	f.SetKind("siniestro", frame.KindFloat)

	TypeStringColumns(f)
	typed := TypeRemainingColumns(f, []string{"siniestro"})
	if typed != 1 {
		t.Fatalf("typed=%d", typed)
	}
	for name, want := range map[string]frame.Kind{
		"siniestro": frame.KindFloat,
		"estado":    frame.KindString,
		"placas":    frame.KindString,
	} {
		col, _ := f.Column(name)
		if col.Kind != want {
			t.Fatalf("%s kind=%v want %v", name, col.Kind, want)
		}
	}
}
