package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var asciiFold = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Transliterate strips diacritics so that "Día" becomes "Dia" and
// "Año" becomes "Ano". Characters without a decomposed ASCII base pass
// through unchanged.
func Transliterate(input string) string {
	out, _, err := transform.String(asciiFold, input)
	if err != nil {
		return input
	}
	return out
}

const reportSuffix = "_reporte"

// NormalizeHeader turns a raw column header into its snake_case form:
// ASCII-folded, lowercased, space-separated words joined by underscores,
// with the report-suffix token stripped. Alias resolution happens on top
// of this in the pipeline.
func NormalizeHeader(input string) string {
	s := Transliterate(input)
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), "_")
	return strings.ReplaceAll(s, reportSuffix, "")
}
