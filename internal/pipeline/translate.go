package pipeline

import (
	"regexp"
	"strings"

	"percances/internal"
	"percances/internal/frame"
)

// Rule is one ordered substring substitution. Rule lists are applied in
// sequence; where a later rule could re-match text produced by an
// earlier one, an explicit collapse step mops up the residue instead of
// relying on coincidental non-overlap.
type Rule struct {
	Old string
	New string
}

func applyRules(s string, rules []Rule) string {
	for _, r := range rules {
		s = strings.ReplaceAll(s, r.Old, r.New)
	}
	return s
}

// Month vocabulary: Spanish to English, then English to the 1-12
// numeric strings. Pairing the entries keeps the two sides of each
// mapping in lock-step.
var monthsSpanishToEnglish = []Rule{
	{"enero", "January"}, {"febrero", "February"}, {"marzo", "March"},
	{"abril", "April"}, {"mayo", "May"}, {"junio", "June"},
	{"julio", "July"}, {"agosto", "August"}, {"septiembre", "September"},
	{"octubre", "October"}, {"noviembre", "November"}, {"diciembre", "December"},
}

var monthsEnglishToNumber = []Rule{
	{"January", "1"}, {"February", "2"}, {"March", "3"}, {"April", "4"},
	{"May", "5"}, {"June", "6"}, {"July", "7"}, {"August", "8"},
	{"September", "9"}, {"October", "10"}, {"November", "11"}, {"December", "12"},
}

// Damage vocabulary: Spanish severity descriptors to English tokens,
// then tokens to the severity scale (no damage=1, low=2, medium=3,
// high=4). Raw values often carry trailing descriptive text after the
// core token; the collapse regexps reduce those variants to the bare
// token or digit before the cast.
var damageSpanishToEnglish = []Rule{
	{"Bajo", "Low"}, {"Alto", "High"}, {"Medio", "Medium"}, {"Sin ", "No damage"},
}

var damageEnglishToNumber = []Rule{
	{"Low", "2"}, {"High", "4"}, {"Medium", "3"}, {"No damage", "1"},
}

var (
	noDamageCollapse = regexp.MustCompile(`^No damage.*`)
	digitCollapse    = regexp.MustCompile(`^([1-4]).*`)
)

// TranslateMonths lowercases the month column, walks it through the
// Spanish-to-English and English-to-number rule lists, and casts to
// integer. Values that end up null report their original text for
// diagnosis.
func TranslateMonths(f *frame.Frame) (internal.TranslationReport, error) {
	report := internal.TranslationReport{Column: "mes"}
	col, err := requireColumn(f, "mes")
	if err != nil {
		return report, err
	}

	originals := make([]string, len(col.Cells))
	for i, cell := range col.Cells {
		if cell == nil {
			continue
		}
		originals[i] = *cell
		s := strings.ToLower(*cell)
		s = applyRules(s, monthsSpanishToEnglish)
		s = applyRules(s, monthsEnglishToNumber)
		col.Cells[i] = frame.Str(s)
	}
	castInt(col, originals, &report)
	return report, nil
}

// TranslateDamageLevels rewrites the vehicle damage column onto the
// 1-4 severity scale and casts to integer, reporting unconvertible
// originals.
func TranslateDamageLevels(f *frame.Frame) (internal.TranslationReport, error) {
	report := internal.TranslationReport{Column: "nivel_dano_vehiculo"}
	col, err := requireColumn(f, "nivel_dano_vehiculo")
	if err != nil {
		return report, err
	}

	originals := make([]string, len(col.Cells))
	for i, cell := range col.Cells {
		if cell == nil {
			continue
		}
		originals[i] = *cell
		s := applyRules(*cell, damageSpanishToEnglish)
		s = noDamageCollapse.ReplaceAllString(s, "No damage")
		s = applyRules(s, damageEnglishToNumber)
		s = digitCollapse.ReplaceAllString(s, "$1")
		col.Cells[i] = frame.Str(s)
	}
	castInt(col, originals, &report)
	return report, nil
}
