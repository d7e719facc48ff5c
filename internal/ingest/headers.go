package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	// DictionaryDir is the subdirectory holding the reference artifact.
	DictionaryDir = "data-dictionary"
	// DictionaryPrefix identifies the data-dictionary workbook by name.
	DictionaryPrefix = "diccionario-percances-viales-axa"

	monthField     = "Mes Reporte"
	dayNumberField = "Día Numero"
)

// ResolveHeaders reads the authoritative ordered field list from the
// data-dictionary workbook: the first sheet's first column, top to
// bottom, skipping the sheet's own header cell. The derived day-number
// field is inserted right after the month field because day-of-month is
// reported as a separate value the dictionary does not list.
//
// Every failure here is fatal for the pipeline: without the resolved
// header list no later stage knows the expected schema.
func ResolveHeaders(baseDir string) ([]string, error) {
	dictDir := filepath.Join(baseDir, DictionaryDir)
	entries, err := os.ReadDir(dictDir)
	if err != nil {
		return nil, fmt.Errorf("data dictionary directory: %w", err)
	}

	var dictPath string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(strings.ToLower(entry.Name()), DictionaryPrefix) {
			dictPath = filepath.Join(dictDir, entry.Name())
			break
		}
	}
	if dictPath == "" {
		return nil, fmt.Errorf("no %s* file in %s", DictionaryPrefix, dictDir)
	}

	wb, err := excelize.OpenFile(dictPath)
	if err != nil {
		return nil, fmt.Errorf("open dictionary %s: %w", dictPath, err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(wb.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read dictionary %s: %w", dictPath, err)
	}

	headers := make([]string, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // column title, not a field name
		}
		if len(row) == 0 {
			continue
		}
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		headers = append(headers, name)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("dictionary %s lists no field names", dictPath)
	}

	monthIdx := -1
	for i, h := range headers {
		if h == monthField {
			monthIdx = i
			break
		}
	}
	if monthIdx < 0 {
		return nil, fmt.Errorf("dictionary %s has no %q field", dictPath, monthField)
	}

	out := make([]string, 0, len(headers)+1)
	out = append(out, headers[:monthIdx+1]...)
	out = append(out, dayNumberField)
	out = append(out, headers[monthIdx+1:]...)
	return out, nil
}
