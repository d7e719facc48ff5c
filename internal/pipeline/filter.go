package pipeline

import (
	"strings"

	"percances/internal/frame"
)

// StateVariants are the accepted spellings of the target state as they
// appear in the data. Matching is a case-sensitive substring test per
// variant, OR-combined, so "Ciudad de Mexico", "ciudad de méxico" and
// "CIUDAD DE MEXICO" all qualify.
var StateVariants = []string{"ciudad", "Ciudad", "CIUDAD"}

// FilterState keeps only the rows whose state field contains any of the
// given variants. Returns the filtered table and the number of rows
// dropped.
func FilterState(f *frame.Frame, variants []string) (*frame.Frame, int, error) {
	col, err := requireColumn(f, "estado")
	if err != nil {
		return nil, 0, err
	}

	out := f.Filter(func(row int) bool {
		cell := col.Cells[row]
		if cell == nil {
			return false
		}
		for _, v := range variants {
			if strings.Contains(*cell, v) {
				return true
			}
		}
		return false
	})
	return out, f.Rows() - out.Rows(), nil
}
