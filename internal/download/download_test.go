// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pdiddy/topcited/pkg/types"
)

func testCfg(dir string) types.DownloadConfig {
	return types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "topcited-test/0.1",
		},
		OutputDir:   dir,
		TitleMaxLen: 50,
	}
}

func swapBase(t *testing.T, url string) {
	t.Helper()
	old := arxivPDFBase
	arxivPDFBase = url + "/"
	t.Cleanup(func() { arxivPDFBase = old })
}

func TestFilename(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		title  string
		maxLen int
		want   string
	}{
		{
			"punctuation stripped",
			"1706.03762v5", "Attention: Is All You Need?", 50,
			"1706.03762v5_Attention Is All You Need.pdf",
		},
		{
			"truncated to max length",
			"2401.00001v1", "AAAAAAAAAABBBBBBBBBBCC", 20,
			"2401.00001v1_AAAAAAAAAABBBBBBBBBB.pdf",
		},
		{
			"trailing space trimmed after truncation",
			"2401.00001v1", "Short title that ends mid word", 12,
			"2401.00001v1_Short title.pdf",
		},
		{
			"hyphen and underscore kept",
			"2401.00002v1", "multi-task_learning", 50,
			"2401.00002v1_multi-task_learning.pdf",
		},
		{
			"unicode dropped",
			"2401.00003v1", "Café Résumé — Networks", 50,
			"2401.00003v1_Caf Rsum  Networks.pdf",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.id, tt.title, tt.maxLen); got != tt.want {
				t.Errorf("Filename(%q, %q, %d) = %q, want %q", tt.id, tt.title, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestFetchWritesPDF(t *testing.T) {
	var gotPath atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath.Store(r.URL.Path)
		fmt.Fprint(w, "%PDF-1.5 fake body")
	}))
	defer ts.Close()
	swapBase(t, ts.URL)

	dir := t.TempDir()
	rec := types.PaperRecord{ID: "2401.00001v1", Title: "Test Paper"}

	path, skipped, err := Fetch(ts.Client(), rec, testCfg(dir), io.Discard)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if skipped {
		t.Error("Fetch reported skipped on fresh download")
	}
	if gotPath.Load() != "/2401.00001v1.pdf" {
		t.Errorf("requested path = %v, want /2401.00001v1.pdf", gotPath.Load())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading downloaded file: %v", err)
	}
	if string(data) != "%PDF-1.5 fake body" {
		t.Errorf("file contents = %q", data)
	}
	// No temp files left behind.
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("output dir has %d entries, want 1", len(entries))
	}
}

func TestFetchSkipsExistingFile(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, "pdf")
	}))
	defer ts.Close()
	swapBase(t, ts.URL)

	dir := t.TempDir()
	cfg := testCfg(dir)
	rec := types.PaperRecord{ID: "2401.00001v1", Title: "Test Paper"}

	existing := filepath.Join(dir, Filename(rec.ID, rec.Title, cfg.TitleMaxLen))
	if err := os.WriteFile(existing, []byte("already here"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, skipped, err := Fetch(ts.Client(), rec, cfg, io.Discard)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !skipped {
		t.Error("Fetch did not skip existing file")
	}
	if path != existing {
		t.Errorf("path = %q, want %q", path, existing)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("server hit %d times, want 0", calls)
	}
	data, _ := os.ReadFile(existing)
	if string(data) != "already here" {
		t.Errorf("existing file overwritten: %q", data)
	}
}

func TestFetchNon200LeavesNoFile(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()
	swapBase(t, ts.URL)

	dir := t.TempDir()
	rec := types.PaperRecord{ID: "2401.00001v1", Title: "Withdrawn Paper"}

	_, _, err := Fetch(ts.Client(), rec, testCfg(dir), io.Discard)
	if err == nil {
		t.Fatal("Fetch succeeded on HTTP 404")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("output dir has %d entries after failure, want 0", len(entries))
	}
}

func TestBatchContinuesAfterFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/bad.pdf" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		fmt.Fprint(w, "pdf")
	}))
	defer ts.Close()
	swapBase(t, ts.URL)

	dir := t.TempDir()
	cfg := testCfg(dir)

	// Pre-create the third record's file to exercise the skip path too.
	skipRec := types.PaperRecord{ID: "2401.00003v1", Title: "Already Here"}
	pre := filepath.Join(dir, Filename(skipRec.ID, skipRec.Title, cfg.TitleMaxLen))
	if err := os.WriteFile(pre, []byte("pdf"), 0o644); err != nil {
		t.Fatal(err)
	}

	records := []types.PaperRecord{
		{ID: "2401.00001v1", Title: "Good One"},
		{ID: "bad", Title: "Broken"},
		skipRec,
	}

	result := Batch(ts.Client(), records, cfg, io.Discard)

	if result.Downloaded != 1 || result.Failed != 1 || result.Skipped != 1 {
		t.Errorf("result = %+v, want 1 downloaded, 1 skipped, 1 failed", result)
	}
	if result.Total() != 3 {
		t.Errorf("Total() = %d, want 3", result.Total())
	}
	if !result.HasFailures() {
		t.Error("HasFailures() = false, want true")
	}
}
