// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package download fetches paper PDFs from arXiv into a local directory.
package download

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pdiddy/topcited/pkg/types"
)

// arxivPDFBase is the arXiv PDF endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

const defaultTitleMaxLen = 50

// BatchResult holds the outcome of a batch download run.
type BatchResult struct {
	Downloaded int
	Skipped    int
	Failed     int
}

// Total returns the total number of records processed.
func (r BatchResult) Total() int {
	return r.Downloaded + r.Skipped + r.Failed
}

// HasFailures reports whether any downloads failed.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Filename derives a filesystem-safe PDF filename from a record's ID and
// title: "<id>_<sanitized title>.pdf". The title fragment keeps only
// letters, digits, spaces, hyphens, and underscores, and is truncated to
// maxLen bytes before trailing spaces are trimmed.
func Filename(id, title string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = defaultTitleMaxLen
	}

	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if len(clean) > maxLen {
		clean = clean[:maxLen]
	}
	clean = strings.TrimRight(clean, " ")

	return fmt.Sprintf("%s_%s.pdf", id, clean)
}

// Fetch downloads one record's PDF into cfg.OutputDir. When the target
// file already exists the download is skipped, so re-runs are idempotent.
// The skipped return value reports that case.
func Fetch(client *http.Client, rec types.PaperRecord, cfg types.DownloadConfig, w io.Writer) (path string, skipped bool, err error) {
	filename := Filename(rec.ID, rec.Title, cfg.TitleMaxLen)
	destPath := filepath.Join(cfg.OutputDir, filename)

	if _, err := os.Stat(destPath); err == nil {
		fmt.Fprintf(w, "skipped: %s (already exists)\n", filename)
		return destPath, true, nil
	}

	fmt.Fprintf(w, "downloading: %s\n", filename)
	if err := downloadFile(client, arxivPDFBase+rec.ID+".pdf", destPath, cfg); err != nil {
		return "", false, err
	}
	return destPath, false, nil
}

// Batch downloads every record's PDF, continuing after individual
// failures and applying cfg.DownloadDelay between consecutive records
// regardless of outcome. Failures are logged to w with the record's ID
// and title. It prints a summary line and returns the counts.
func Batch(client *http.Client, records []types.PaperRecord, cfg types.DownloadConfig, w io.Writer) BatchResult {
	var result BatchResult
	for i, rec := range records {
		if i > 0 && cfg.DownloadDelay > 0 {
			time.Sleep(cfg.DownloadDelay)
		}
		_, wasSkipped, err := Fetch(client, rec, cfg, w)
		if err != nil {
			fmt.Fprintf(w, "failed: %s (%q): %v\n", rec.ID, rec.Title, err)
			result.Failed++
			continue
		}
		if wasSkipped {
			result.Skipped++
		} else {
			result.Downloaded++
		}
	}
	fmt.Fprintf(w, "\nDownload summary: %d downloaded, %d skipped, %d failed (total: %d)\n",
		result.Downloaded, result.Skipped, result.Failed, result.Total())
	return result
}

// downloadFile fetches url to destPath using a temporary file so a
// failed download never leaves a partial PDF behind.
func downloadFile(client *http.Client, url, destPath string, cfg types.DownloadConfig) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("Accept", "application/pdf")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".download-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	_, copyErr := io.Copy(tmpFile, resp.Body)
	closeErr := tmpFile.Close()
	if copyErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing download: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
