package internal

// Diagnostic results threaded out of the pipeline stages. Counters are
// returned, not printed, so callers and tests can assert on them; the
// CLI renders them at the edge.

// FileRows records how many rows one source file contributed.
type FileRows struct {
	Year int
	Name string
	Rows int
}

// RowCountReport is the post-concatenation invariant check: the unified
// table must carry every ingested row. A mismatch is a symptom of an
// upstream aliasing or projection bug; it is reported, never fatal.
type RowCountReport struct {
	Expected int
	Actual   int
}

func (r RowCountReport) OK() bool { return r.Expected == r.Actual }

// ColumnIssue is a per-column failure recovered during cleaning.
type ColumnIssue struct {
	Column string
	Err    string
}

// CoercionReport audits numeric coercion: values that were non-null but
// failed to parse and were turned into nulls.
type CoercionReport struct {
	Total     int
	PerColumn map[string]int
	Issues    []ColumnIssue
}

// SentinelReport counts sentinel cells replaced with nulls.
type SentinelReport struct {
	Sentinel string
	Replaced int
}

// TranslationReport captures values that survived the substitution
// rules but still failed the integer cast, keyed by their original
// text.
type TranslationReport struct {
	Column  string
	Nulled  int
	Invalid map[string]int
}

// NormalizeReport lists renames skipped because the canonical name was
// already taken within the same table.
type NormalizeReport struct {
	SkippedRenames []ColumnIssue
}

// RunDiagnostics aggregates one full pipeline run.
type RunDiagnostics struct {
	Files       []FileRows
	RowCount    RowCountReport
	Normalize   []NormalizeReport
	Coercion    CoercionReport
	Sentinel    SentinelReport
	Months      TranslationReport
	Damage      TranslationReport
	FilteredOut int
	FinalRows   int
}

// RunRecord is a persisted run-ledger row.
type RunRecord struct {
	ID           int
	TraceID      string
	StartedAt    string
	DurationMs   float64
	Files        int
	RowsIn       int
	RowsOut      int
	Coerced      int
	Sentinels    int
	InvalidMes   int
	InvalidNivel int
	FilteredOut  int
	Details      string
}
