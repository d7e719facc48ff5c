package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"percances/internal"
	"percances/internal/config"
	"percances/internal/frame"
	"percances/internal/ingest"
	"percances/internal/storage"
)

type ProcessingService struct {
	db  *storage.DB
	cfg config.Config
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg}
}

// Run executes the full pipeline against the configured data directory:
// resolve headers, ingest every year's files, normalize column names,
// reconcile schemas, run the value stages, filter to the target state.
// The cleaned table and the run diagnostics are returned; the run is
// also recorded in the ledger when a database is attached.
func (s *ProcessingService) Run(currentYear int) (*frame.Frame, internal.RunDiagnostics, error) {
	start := time.Now()
	var diag internal.RunDiagnostics

	headers, err := ingest.ResolveHeaders(s.cfg.DataDir)
	if err != nil {
		return nil, diag, err
	}

	headerless, headerlessFiles, err := ingest.LoadHeaderless(s.cfg.DataDir, ingest.HeaderlessYears(currentYear), headers)
	if err != nil {
		return nil, diag, err
	}
	headered, headeredFiles, err := ingest.LoadHeadered(s.cfg.DataDir, ingest.HeaderedYears())
	if err != nil {
		return nil, diag, err
	}

	frames := append(headerless, headered...)
	diag.Files = append(append([]internal.FileRows{}, headerlessFiles...), headeredFiles...)
	if len(frames) == 0 {
		return nil, diag, fmt.Errorf("no source files under %s", s.cfg.DataDir)
	}

	for _, f := range frames {
		diag.Normalize = append(diag.Normalize, CleanColumnNames(f))
		AddMissingColumns(f)
	}

	unified, rowReport, err := Unify(frames)
	if err != nil {
		return nil, diag, err
	}
	diag.RowCount = rowReport

	numericCols, rangeIssues := ResolveNumericColumns(unified, CanonicalColumnOrder(headers))
	diag.Coercion = CoerceNumeric(unified, numericCols)
	diag.Coercion.Issues = append(rangeIssues, diag.Coercion.Issues...)

	diag.Sentinel = ReplaceSentinel(unified)
	TypeStringColumns(unified)
	TypeRemainingColumns(unified, numericCols)

	if diag.Months, err = TranslateMonths(unified); err != nil {
		return nil, diag, err
	}
	if diag.Damage, err = TranslateDamageLevels(unified); err != nil {
		return nil, diag, err
	}

	cleaned, dropped, err := FilterState(unified, StateVariants)
	if err != nil {
		return nil, diag, err
	}
	diag.FilteredOut = dropped
	diag.FinalRows = cleaned.Rows()

	if s.db != nil {
		s.recordRun(diag, time.Since(start))
	}
	return cleaned, diag, nil
}

func (s *ProcessingService) recordRun(diag internal.RunDiagnostics, elapsed time.Duration) {
	details, err := json.Marshal(diag)
	if err != nil {
		details = []byte("{}")
	}
	runID, err := s.db.InsertRun(traceID(), internal.RunRecord{
		DurationMs:   float64(elapsed.Milliseconds()),
		Files:        len(diag.Files),
		RowsIn:       diag.RowCount.Expected,
		RowsOut:      diag.RowCount.Actual,
		Coerced:      diag.Coercion.Total,
		Sentinels:    diag.Sentinel.Replaced,
		InvalidMes:   diag.Months.Nulled,
		InvalidNivel: diag.Damage.Nulled,
		FilteredOut:  diag.FilteredOut,
		Details:      string(details),
	})
	if err != nil {
		return
	}
	for _, file := range diag.Files {
		_ = s.db.InsertSourceFile(runID, file)
	}
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
