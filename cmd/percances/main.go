package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"percances/internal"
	"percances/internal/config"
	"percances/internal/export"
	"percances/internal/fetch"
	"percances/internal/pipeline"
	"percances/internal/storage"
	"percances/internal/viz"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "fetch":
		svc := fetch.NewService(db, cfg)
		result, err := svc.FetchAll(context.Background())
		must(err)
		fmt.Printf("fetch done links=%d stored=%d skipped=%d\n", result.LinksFound, result.Stored, result.Skipped)
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "fetch warning: %s\n", e)
		}
	case "process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		year := fs.Int("year", time.Now().Year(), "latest release year to look for")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg)
		cleaned, diag, err := processor.Run(*year)
		must(err)
		printDiagnostics(diag)
		fmt.Printf("process done rows=%d columns=%d\n", cleaned.Rows(), cleaned.Width())
	case "export":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		year := fs.Int("year", time.Now().Year(), "latest release year to look for")
		out := fs.String("out", cfg.ExportPath, "output file path")
		format := fs.String("format", cfg.ExportFormat, "csv|parquet|json")
		compression := fs.String("compression", "", "parquet compression codec")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg)
		cleaned, diag, err := processor.Run(*year)
		must(err)
		printDiagnostics(diag)
		opts := &export.Options{Compression: *compression}
		must(export.Export(cleaned, *out, export.Format(strings.ToLower(*format)), opts))
		_ = db.SetMetadata("export.last", time.Now().UTC().Format(time.RFC3339))
		fmt.Printf("exported %d rows to %s\n", cleaned.Rows(), *out)
	case "map":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		year := fs.Int("year", time.Now().Year(), "latest release year to look for")
		column := fs.String("column", "nivel_dano_vehiculo", "column to color by")
		minSeverity := fs.Float64("min-severity", cfg.MapMinSeverity, "minimum damage level to plot")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg)
		cleaned, _, err := processor.Run(*year)
		must(err)
		path, err := viz.WriteCrashMap(cleaned, *column, *minSeverity, cfg.OutputDir)
		must(err)
		fmt.Printf("map written to %s\n", path)
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		year := fs.Int("year", time.Now().Year(), "latest release year to look for")
		out := fs.String("out", cfg.ExportPath, "output file path")
		format := fs.String("format", cfg.ExportFormat, "csv|parquet|json")
		_ = fs.Parse(os.Args[2:])

		svc := fetch.NewService(db, cfg)
		result, err := svc.FetchAll(context.Background())
		if err != nil {
			// Downloads are best-effort in a combined run: whatever is
			// already on disk still gets processed.
			fmt.Fprintf(os.Stderr, "fetch failed, processing local files: %v\n", err)
		} else {
			fmt.Printf("fetch done links=%d stored=%d skipped=%d\n", result.LinksFound, result.Stored, result.Skipped)
		}

		processor := pipeline.NewProcessingService(db, cfg)
		cleaned, diag, err := processor.Run(*year)
		must(err)
		printDiagnostics(diag)

		// The export and the maps are best-effort too: the run already
		// produced and ledgered the cleaned table.
		if err := export.Export(cleaned, *out, export.Format(strings.ToLower(*format)), nil); err != nil {
			fmt.Fprintf(os.Stderr, "export failed: %v\n", err)
		} else {
			_ = db.SetMetadata("export.last", time.Now().UTC().Format(time.RFC3339))
			fmt.Printf("exported %d rows to %s\n", cleaned.Rows(), *out)
		}
		paths, mapErrs := viz.WriteAllMaps(cleaned, cfg.MapMinSeverity, cfg.OutputDir)
		for _, p := range paths {
			fmt.Printf("map written to %s\n", p)
		}
		for _, e := range mapErrs {
			fmt.Fprintf(os.Stderr, "map warning: %s\n", e)
		}
		fmt.Printf("run done rows=%d output=%s\n", cleaned.Rows(), *out)
	default:
		usage()
		os.Exit(1)
	}
}

func printDiagnostics(diag internal.RunDiagnostics) {
	for _, file := range diag.Files {
		fmt.Printf("loaded %d/%s rows=%d\n", file.Year, file.Name, file.Rows)
	}
	if !diag.RowCount.OK() {
		fmt.Fprintf(os.Stderr, "warning: unified table has %d rows, inputs had %d\n",
			diag.RowCount.Actual, diag.RowCount.Expected)
	}
	for _, n := range diag.Normalize {
		for _, skipped := range n.SkippedRenames {
			fmt.Fprintf(os.Stderr, "warning: rename skipped for %s: %s\n", skipped.Column, skipped.Err)
		}
	}
	for _, issue := range diag.Coercion.Issues {
		fmt.Fprintf(os.Stderr, "warning: numeric column %s: %s\n", issue.Column, issue.Err)
	}
	fmt.Printf("coerced %d non-numeric values to null\n", diag.Coercion.Total)
	fmt.Printf("replaced %d %s sentinels\n", diag.Sentinel.Replaced, diag.Sentinel.Sentinel)
	printTranslation(diag.Months)
	printTranslation(diag.Damage)
	fmt.Printf("filtered out %d rows outside the target state, %d remain\n", diag.FilteredOut, diag.FinalRows)
}

func printTranslation(report internal.TranslationReport) {
	if report.Nulled == 0 {
		fmt.Printf("%s: all values translated\n", report.Column)
		return
	}
	fmt.Printf("%s: %d untranslatable values nulled\n", report.Column, report.Nulled)
	for original, count := range report.Invalid {
		fmt.Printf("  %q x%d\n", original, count)
	}
}

func usage() {
	fmt.Println("usage: percances <command>")
	fmt.Println("commands:")
	fmt.Println("  fetch")
	fmt.Println("  process [--year=YYYY]")
	fmt.Println("  export [--year=YYYY] [--out=...] [--format=csv|parquet|json] [--compression=snappy|gzip|zstd|uncompressed]")
	fmt.Println("  map [--year=YYYY] [--column=nivel_dano_vehiculo] [--min-severity=1]")
	fmt.Println("  run [--year=YYYY] [--out=...] [--format=csv|parquet|json]")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
