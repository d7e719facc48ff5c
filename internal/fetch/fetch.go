package fetch

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"percances/internal/config"
	"percances/internal/ingest"
	"percances/internal/storage"
)

var downloadExtensions = []string{".zip", ".xlsx", ".csv"}

// Service retrieves the published crash-record releases: it scrapes the
// open-data page for archive/spreadsheet/CSV links, downloads each one,
// extracts archives, and files every resource into the year directory
// inferred from its filename (or the data-dictionary directory for the
// dictionary workbook). Existing destination files are skipped, never
// overwritten.
type Service struct {
	cfg        config.Config
	db         *storage.DB
	httpClient *http.Client
	limiter    *RateLimiter
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{
		cfg:        cfg,
		db:         db,
		httpClient: &http.Client{Timeout: time.Duration(cfg.HTTPTimeoutMs) * time.Millisecond},
		limiter:    NewRateLimiter(cfg.DownloadRateLimitRPS),
	}
}

type Result struct {
	LinksFound int
	Stored     int
	Skipped    int
	Errors     []string
}

// FetchAll downloads everything linked from the configured source page.
// A failure to reach the page itself ends the acquisition; per-file
// failures are collected in the result and do not stop the remaining
// downloads.
func (s *Service) FetchAll(ctx context.Context) (Result, error) {
	var result Result

	base, err := url.Parse(s.cfg.SourceURL)
	if err != nil {
		return result, fmt.Errorf("source url: %w", err)
	}

	body, err := s.get(ctx, s.cfg.SourceURL)
	if err != nil {
		return result, fmt.Errorf("download source page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return result, fmt.Errorf("parse source page: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(s.cfg.DataDir, ingest.DictionaryDir), 0o755); err != nil {
		return result, err
	}

	var links []string
	doc.Find(s.cfg.LinkSelector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		lower := strings.ToLower(href)
		for _, ext := range downloadExtensions {
			if strings.Contains(lower, ext) {
				links = append(links, href)
				return
			}
		}
	})
	result.LinksFound = len(links)

	for _, href := range links {
		target, err := base.Parse(href)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", href, err))
			continue
		}
		s.limiter.WaitTurn()
		blob, err := s.get(ctx, target.String())
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", href, err))
			continue
		}

		if strings.HasSuffix(strings.ToLower(target.Path), ".zip") {
			s.storeArchive(blob, &result)
			continue
		}
		s.storeFile(path.Base(target.Path), blob, &result)
	}

	if s.db != nil {
		_ = s.db.SetMetadata("fetch.last", time.Now().UTC().Format(time.RFC3339))
	}
	return result, nil
}

func (s *Service) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (s *Service) storeArchive(blob []byte, result *Result) {
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("extract archive: %v", err))
		return
	}
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Name, err))
			continue
		}
		content, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.Name, err))
			continue
		}
		s.storeFile(path.Base(entry.Name), content, result)
	}
}

// storeFile routes one downloaded resource to its destination. The
// dictionary workbook goes to the data-dictionary directory; everything
// else is filed under the year its name contains.
func (s *Service) storeFile(name string, content []byte, result *Result) {
	var dest string
	if strings.Contains(strings.ToLower(name), ingest.DictionaryPrefix) {
		dest = filepath.Join(s.cfg.DataDir, ingest.DictionaryDir, name)
	} else {
		year, ok := extractYear(name, time.Now().Year())
		if !ok {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: could not determine year", name))
			return
		}
		dest = filepath.Join(s.cfg.DataDir, strconv.Itoa(year), name)
	}

	if _, err := os.Stat(dest); err == nil {
		result.Skipped++
		return
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
		return
	}
	if err := os.WriteFile(dest, content, 0o644); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
		return
	}
	result.Stored++
}

func extractYear(name string, current int) (int, bool) {
	for year := ingest.FirstYear; year <= current; year++ {
		if strings.Contains(name, strconv.Itoa(year)) {
			return year, true
		}
	}
	return 0, false
}
