package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	json "github.com/goccy/go-json"

	"percances/internal/frame"
)

type Format string

const (
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
	FormatJSON    Format = "json"
)

// Options override the per-format defaults. The zero value of every
// field selects the default: comma separator with a header row for CSV,
// snappy compression for parquet, pretty multi-line layout for JSON.
type Options struct {
	Separator   rune
	NoHeader    bool
	Compression string
	Compact     bool
}

func (o *Options) separator() rune {
	if o == nil || o.Separator == 0 {
		return ','
	}
	return o.Separator
}

func (o *Options) noHeader() bool { return o != nil && o.NoHeader }
func (o *Options) compact() bool  { return o != nil && o.Compact }

func (o *Options) compression() string {
	if o == nil || o.Compression == "" {
		return "snappy"
	}
	return o.Compression
}

// Export serializes the table to path in the given format, creating the
// destination directory if needed. Unrecognized formats are an error.
func Export(f *frame.Frame, path string, format Format, opts *Options) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	switch format {
	case FormatCSV:
		return exportCSV(f, path, opts)
	case FormatParquet:
		return exportParquet(f, path, opts)
	case FormatJSON:
		return exportJSON(f, path, opts)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func exportCSV(f *frame.Frame, path string, opts *Options) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	w.Comma = opts.separator()

	if !opts.noHeader() {
		if err := w.Write(f.Names()); err != nil {
			return err
		}
	}

	cols := f.Columns()
	record := make([]string, len(cols))
	for row := 0; row < f.Rows(); row++ {
		for i, col := range cols {
			if cell := col.Cells[row]; cell != nil {
				record[i] = *cell
			} else {
				record[i] = ""
			}
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func exportJSON(f *frame.Frame, path string, opts *Options) error {
	rows := make([]map[string]any, 0, f.Rows())
	cols := f.Columns()
	for row := 0; row < f.Rows(); row++ {
		obj := make(map[string]any, len(cols))
		for _, col := range cols {
			obj[col.Name] = typedCell(col, row)
		}
		rows = append(rows, obj)
	}

	var blob []byte
	var err error
	if opts.compact() {
		blob, err = json.Marshal(rows)
	} else {
		blob, err = json.MarshalIndent(rows, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

// typedCell materializes a cell according to the column kind; cells
// whose text does not parse under the declared kind fall back to raw
// text rather than being dropped.
func typedCell(col *frame.Column, row int) any {
	cell := col.Cells[row]
	if cell == nil {
		return nil
	}
	switch col.Kind {
	case frame.KindInt:
		if n, err := strconv.ParseInt(*cell, 10, 64); err == nil {
			return n
		}
	case frame.KindFloat:
		if v, err := strconv.ParseFloat(*cell, 64); err == nil {
			return v
		}
	}
	return *cell
}
