package export

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"

	"percances/internal/frame"
)

func testFrame(t *testing.T) *frame.Frame {
	t.Helper()
	f, err := frame.New("siniestro", "mes", "estado")
	if err != nil {
		t.Fatal(err)
	}
	rows := [][]*string{
		{frame.Str("101"), frame.Str("1"), frame.Str("Ciudad de Mexico")},
		{frame.Str("102"), nil, frame.Str("Ciudad de Mexico")},
		{nil, frame.Str("12"), nil},
	}
	for _, row := range rows {
		if err := f.AppendRow(row); err != nil {
			t.Fatal(err)
		}
	}
	f.SetKind("siniestro", frame.KindFloat)
	f.SetKind("mes", frame.KindInt)
	return f
}

func TestExportUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	if err := Export(testFrame(t), path, Format("feather"), nil); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestExportCreatesDestinationDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deeper", "out.csv")
	if err := Export(testFrame(t), path, FormatCSV, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}
}

func TestCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	if err := Export(testFrame(t), path, FormatCSV, nil); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 4 {
		t.Fatalf("records=%d", len(records))
	}
	if records[0][0] != "siniestro" || records[0][2] != "estado" {
		t.Fatalf("header=%v", records[0])
	}
	if records[2][1] != "" {
		t.Fatalf("null should serialize empty, got %q", records[2][1])
	}
	if records[1][2] != "Ciudad de Mexico" {
		t.Fatalf("row=%v", records[1])
	}
}

func TestCSVOptionsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	opts := &Options{Separator: ';', NoHeader: true}
	if err := Export(testFrame(t), path, FormatCSV, opts); err != nil {
		t.Fatal(err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	r := csv.NewReader(file)
	r.Comma = ';'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected no header row, got %d records", len(records))
	}
	if records[0][0] != "101" {
		t.Fatalf("first record=%v", records[0])
	}
}

func TestJSONExportTypesValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := Export(testFrame(t), path, FormatJSON, nil); err != nil {
		t.Fatal(err)
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(blob, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows=%d", len(rows))
	}
	if v, ok := rows[0]["mes"].(float64); !ok || v != 1 {
		t.Fatalf("mes=%v", rows[0]["mes"])
	}
	if rows[1]["mes"] != nil {
		t.Fatalf("null lost: %v", rows[1]["mes"])
	}
	if v, ok := rows[0]["estado"].(string); !ok || v != "Ciudad de Mexico" {
		t.Fatalf("estado=%v", rows[0]["estado"])
	}
}

func TestParquetRoundTrip(t *testing.T) {
	f := testFrame(t)
	path := filepath.Join(t.TempDir(), "out.parquet")
	if err := Export(f, path, FormatParquet, nil); err != nil {
		t.Fatal(err)
	}

	got, err := ReadParquet(path)
	if err != nil {
		t.Fatal(err)
	}
	if !f.Equal(got) {
		t.Fatalf("round trip mismatch:\nwant names=%v rows=%d\ngot names=%v rows=%d",
			f.Names(), f.Rows(), got.Names(), got.Rows())
	}
}

func TestParquetCompressionOption(t *testing.T) {
	f := testFrame(t)
	path := filepath.Join(t.TempDir(), "out.parquet")
	if err := Export(f, path, FormatParquet, &Options{Compression: "gzip"}); err != nil {
		t.Fatal(err)
	}
	if got, err := ReadParquet(path); err != nil || !f.Equal(got) {
		t.Fatalf("gzip round trip failed: %v", err)
	}

	if err := Export(f, path, FormatParquet, &Options{Compression: "lzo"}); err == nil {
		t.Fatal("expected error for unsupported compression")
	}
}
