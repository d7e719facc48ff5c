package pipeline

import (
	"percances/internal"
	"percances/internal/frame"
	"percances/internal/util"
)

// columnAliases maps normalized raw names to canonical names. It covers
// the known historical naming drift across releases: encoding-mangled
// accents (daa_numero, aao), renamed fields, and shortened variants.
// The map is a function by construction: one raw name, one canonical
// name.
var columnAliases = map[string]string{
	"daa_numero":          "dia_numero",
	"aao":                 "ano",
	"nivel_daao_vehiculo": "nivel_dano_vehiculo",
	"causa_siniestro":     "tipo_de_percance",
	"punto_de_impacto":    "punto_impacto",
	"ciudad":              "ciudad_municipio",
	"lesionados":          "total_lesionados",
	"relacion_lesionados": "rol_lesionado",
	"nivel_lesionados":    "nivel_lesion",
	"obra_civil":          "dano_obra_civil",
	"fuga":                "tercero_fuga",
	"seguro":              "aseguradora",
	"taxi":                "servicio_taxi",
}

// optionalColumns are absent from some years' releases. They are
// injected as all-null so those tables are not excluded from the schema
// intersection purely for lacking them.
var optionalColumns = []string{"rol_lesionado", "nivel_lesion"}

// CleanColumnNames rewrites every column name to its canonical form:
// transliterated, lowercased, snake_cased, report suffix stripped,
// alias resolved. Cell values are never touched. A rename that would
// collide with a name already present in the table is skipped and
// reported rather than absorbed.
func CleanColumnNames(f *frame.Frame) internal.NormalizeReport {
	var report internal.NormalizeReport
	for _, raw := range f.Names() {
		name := util.NormalizeHeader(raw)
		if name != raw {
			if err := f.Rename(raw, name); err != nil {
				report.SkippedRenames = append(report.SkippedRenames, internal.ColumnIssue{Column: raw, Err: err.Error()})
				continue
			}
		}
		canonical, ok := columnAliases[name]
		if !ok {
			continue
		}
		if err := f.Rename(name, canonical); err != nil {
			report.SkippedRenames = append(report.SkippedRenames, internal.ColumnIssue{Column: name, Err: err.Error()})
		}
	}
	return report
}

// CanonicalColumnOrder maps a raw header list to canonical column
// names, preserving order. This is the name rewrite CleanColumnNames
// applies to a table, applied to a bare field list such as the resolved
// dictionary headers.
func CanonicalColumnOrder(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		name := util.NormalizeHeader(r)
		if canonical, ok := columnAliases[name]; ok {
			name = canonical
		}
		out = append(out, name)
	}
	return out
}

// AddMissingColumns injects the known-optional columns as all-null
// where absent.
func AddMissingColumns(f *frame.Frame) {
	for _, name := range optionalColumns {
		if !f.Has(name) {
			_ = f.AddNullColumn(name)
		}
	}
}
