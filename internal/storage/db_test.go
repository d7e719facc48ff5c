package storage

import (
	"path/filepath"
	"testing"

	"percances/internal"
)

func TestRunLedger(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	runID, err := db.InsertRun("abc123", internal.RunRecord{
		DurationMs: 12.5, Files: 2, RowsIn: 100, RowsOut: 100,
		Coerced: 3, Sentinels: 5, InvalidMes: 1, InvalidNivel: 2,
		FilteredOut: 40, Details: `{}`,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := db.InsertSourceFile(runID, internal.FileRows{Year: 2021, Name: "a.csv", Rows: 60}); err != nil {
		t.Fatal(err)
	}

	runs, err := db.ListRuns(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].TraceID != "abc123" || runs[0].RowsIn != 100 {
		t.Fatalf("runs=%+v", runs)
	}

	files, err := db.SourceFiles(runID)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Year != 2021 || files[0].Rows != 60 {
		t.Fatalf("files=%+v", files)
	}
}

func TestMetadata(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "app.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, ok, err := db.GetMetadata("fetch.last"); err != nil || ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if err := db.SetMetadata("fetch.last", "2026-01-01"); err != nil {
		t.Fatal(err)
	}
	if err := db.SetMetadata("fetch.last", "2026-02-01"); err != nil {
		t.Fatal(err)
	}
	value, ok, err := db.GetMetadata("fetch.last")
	if err != nil || !ok || value != "2026-02-01" {
		t.Fatalf("value=%q ok=%v err=%v", value, ok, err)
	}
}
