package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"percances/internal"
)

// DB is the pipeline's run ledger: one row per processing run with its
// row counts and coercion totals, the source files each run ingested,
// and a small metadata table for fetch/export bookkeeping.
type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  startedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  durationMs REAL NOT NULL,
  files INTEGER NOT NULL,
  rowsIn INTEGER NOT NULL,
  rowsOut INTEGER NOT NULL,
  coerced INTEGER NOT NULL,
  sentinels INTEGER NOT NULL,
  invalidMes INTEGER NOT NULL,
  invalidNivel INTEGER NOT NULL,
  filteredOut INTEGER NOT NULL,
  details TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_traceId ON runs(traceId);

CREATE TABLE IF NOT EXISTS source_files (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL REFERENCES runs(id),
  year INTEGER NOT NULL,
  name TEXT NOT NULL,
  rows INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_source_files_runId ON source_files(runId);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`
	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) InsertRun(traceID string, rec internal.RunRecord) (int, error) {
	res, err := d.conn.Exec(`
INSERT INTO runs (traceId, durationMs, files, rowsIn, rowsOut, coerced, sentinels, invalidMes, invalidNivel, filteredOut, details)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		traceID, rec.DurationMs, rec.Files, rec.RowsIn, rec.RowsOut,
		rec.Coerced, rec.Sentinels, rec.InvalidMes, rec.InvalidNivel,
		rec.FilteredOut, rec.Details)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (d *DB) InsertSourceFile(runID int, file internal.FileRows) error {
	_, err := d.conn.Exec(`INSERT INTO source_files (runId, year, name, rows) VALUES (?, ?, ?, ?)`,
		runID, file.Year, file.Name, file.Rows)
	return err
}

func (d *DB) ListRuns(limit int) ([]internal.RunRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, traceId, startedAt, durationMs, files, rowsIn, rowsOut, coerced, sentinels, invalidMes, invalidNivel, filteredOut, details
FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.RunRecord{}
	for rows.Next() {
		var rec internal.RunRecord
		if err := rows.Scan(&rec.ID, &rec.TraceID, &rec.StartedAt, &rec.DurationMs,
			&rec.Files, &rec.RowsIn, &rec.RowsOut, &rec.Coerced, &rec.Sentinels,
			&rec.InvalidMes, &rec.InvalidNivel, &rec.FilteredOut, &rec.Details); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (d *DB) SourceFiles(runID int) ([]internal.FileRows, error) {
	rows, err := d.conn.Query(`SELECT year, name, rows FROM source_files WHERE runId = ? ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []internal.FileRows{}
	for rows.Next() {
		var f internal.FileRows
		if err := rows.Scan(&f.Year, &f.Name, &f.Rows); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (string, bool, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}
