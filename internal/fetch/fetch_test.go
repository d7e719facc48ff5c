package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"percances/internal/config"
)

func mkZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	zw := zip.NewWriter(buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	archive := mkZip(t, map[string]string{
		"extracted/percances-2020.csv": "1,Enero,Ciudad\n",
	})
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<a href="/files/releases-2020.zip">2020</a>
<a href="/files/percances-2021.csv">2021</a>
<a href="/files/diccionario-percances-viales-axa-1.xlsx">dict</a>
<a href="/about">about</a>
</body></html>`))
	})
	mux.HandleFunc("/files/releases-2020.zip", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(archive)
	})
	mux.HandleFunc("/files/percances-2021.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("2,Febrero,Ciudad\n"))
	})
	mux.HandleFunc("/files/diccionario-percances-viales-axa-1.xlsx", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not a real workbook"))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(t *testing.T, url string) config.Config {
	return config.Config{
		DataDir:              t.TempDir(),
		SourceURL:            url,
		LinkSelector:         "a",
		HTTPTimeoutMs:        5000,
		DownloadRateLimitRPS: 100,
	}
}

func TestFetchAllRoutesFiles(t *testing.T) {
	server := testServer(t)
	cfg := testConfig(t, server.URL)

	result, err := NewService(nil, cfg).FetchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.LinksFound != 3 {
		t.Fatalf("links=%d", result.LinksFound)
	}
	if result.Stored != 3 || len(result.Errors) != 0 {
		t.Fatalf("result=%+v", result)
	}

	checks := []string{
		filepath.Join(cfg.DataDir, "2020", "percances-2020.csv"),
		filepath.Join(cfg.DataDir, "2021", "percances-2021.csv"),
		filepath.Join(cfg.DataDir, "data-dictionary", "diccionario-percances-viales-axa-1.xlsx"),
	}
	for _, path := range checks {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("missing %s: %v", path, err)
		}
	}
}

func TestFetchAllIsIdempotent(t *testing.T) {
	server := testServer(t)
	cfg := testConfig(t, server.URL)
	svc := NewService(nil, cfg)

	if _, err := svc.FetchAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	existing := filepath.Join(cfg.DataDir, "2021", "percances-2021.csv")
	if err := os.WriteFile(existing, []byte("local edit\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := svc.FetchAll(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if result.Stored != 0 || result.Skipped != 3 {
		t.Fatalf("second run result=%+v", result)
	}
	blob, err := os.ReadFile(existing)
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != "local edit\n" {
		t.Fatal("existing file was overwritten")
	}
}

func TestFetchAllPageFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	if _, err := NewService(nil, testConfig(t, server.URL)).FetchAll(context.Background()); err == nil {
		t.Fatal("expected error when the source page is unreachable")
	}
}

func TestExtractYear(t *testing.T) {
	if year, ok := extractYear("percances-2018-parte1.csv", 2026); !ok || year != 2018 {
		t.Fatalf("year=%d ok=%v", year, ok)
	}
	if _, ok := extractYear("notas.csv", 2026); ok {
		t.Fatal("expected no year")
	}
}
