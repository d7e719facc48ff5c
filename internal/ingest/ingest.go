package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"percances/internal"
	"percances/internal/frame"
)

const (
	// FirstYear is the earliest published release.
	FirstYear = 2015
	// CutoverYear is the first release shipped without an embedded
	// header row; from here on the dictionary order is assigned
	// positionally.
	CutoverYear = 2020
)

// All source files use the same legacy Latin-1 encoding. This is a
// property of the publisher, not something detected per file.
var sourceEncoding = charmap.ISO8859_1

// HeaderedYears returns the pre-cutover year range.
func HeaderedYears() []int {
	return yearRange(FirstYear, CutoverYear-1)
}

// HeaderlessYears returns the cutover year through current.
func HeaderlessYears(current int) []int {
	return yearRange(CutoverYear, current)
}

func yearRange(from, to int) []int {
	if to < from {
		return nil
	}
	out := make([]int, 0, to-from+1)
	for y := from; y <= to; y++ {
		out = append(out, y)
	}
	return out
}

// LoadHeaderless reads every CSV under the given year directories
// assigning the resolved headers positionally. The reader enforces the
// resolved column count, so a file whose layout drifted from the
// dictionary fails fast instead of misaligning silently.
func LoadHeaderless(baseDir string, years []int, headers []string) ([]*frame.Frame, []internal.FileRows, error) {
	return loadYears(baseDir, years, headers)
}

// LoadHeadered reads every CSV under the given year directories using
// each file's own embedded header row.
func LoadHeadered(baseDir string, years []int) ([]*frame.Frame, []internal.FileRows, error) {
	return loadYears(baseDir, years, nil)
}

func loadYears(baseDir string, years []int, headers []string) ([]*frame.Frame, []internal.FileRows, error) {
	var frames []*frame.Frame
	var files []internal.FileRows
	for _, year := range years {
		dir := filepath.Join(baseDir, strconv.Itoa(year))
		names, err := listCSVs(dir)
		if err != nil {
			return nil, nil, err
		}
		for _, name := range names {
			path := filepath.Join(dir, name)
			f, err := readCSV(path, headers)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", path, err)
			}
			frames = append(frames, f)
			files = append(files, internal.FileRows{Year: year, Name: name, Rows: f.Rows()})
		}
	}
	return frames, files, nil
}

// listCSVs returns the CSV file names in dir, in directory order. A
// missing directory is not an error: absence of a year's data is
// expected.
func listCSVs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
			out = append(out, entry.Name())
		}
	}
	return out, nil
}

// readCSV reads one Latin-1 encoded file into a frame. With headers the
// file is treated as headerless and the names are assigned positionally;
// without, the first record is the header row. Empty fields become
// nulls.
func readCSV(path string, headers []string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(transform.NewReader(file, sourceEncoding.NewDecoder()))

	var out *frame.Frame
	if headers != nil {
		r.FieldsPerRecord = len(headers)
		if out, err = frame.New(headers...); err != nil {
			return nil, err
		}
	} else {
		first, err := r.Read()
		if err != nil {
			return nil, fmt.Errorf("header row: %w", err)
		}
		for i := range first {
			first[i] = strings.TrimSpace(first[i])
		}
		if out, err = frame.New(first...); err != nil {
			return nil, err
		}
	}

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		cells := make([]*string, len(record))
		for i, v := range record {
			if v == "" {
				continue
			}
			cells[i] = frame.Str(v)
		}
		if err := out.AppendRow(cells); err != nil {
			return nil, err
		}
	}
	return out, nil
}
