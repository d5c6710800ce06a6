// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package catalog fetches paper records for an arXiv category over a
// bounded submittedDate window.
package catalog

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pdiddy/topcited/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

const (
	defaultSliceDays = 7
	defaultBatchSize = 400
)

// Fetch pages through the arXiv API for cfg.Category over
// [cfg.DateFrom, cfg.DateTo) and returns the accumulated records,
// deduplicated by arXiv ID, with citation fields left at their zero
// values. Progress is written to w.
//
// The window is split into SliceDays-wide submittedDate slices so a
// single query's result set stays near BatchSize; arXiv pagination is
// unreliable beyond roughly 400 results per query. Within a slice the
// offset advances by the number of entries actually returned, since
// arXiv sometimes serves short pages. A page with zero entries in a
// slice that should still have data is an upstream anomaly and aborts
// the whole run.
func Fetch(ctx context.Context, client *http.Client, cfg types.CatalogConfig, w io.Writer) ([]types.PaperRecord, error) {
	if cfg.Category == "" {
		return nil, fmt.Errorf("catalog: no category configured")
	}
	if cfg.DateFrom.IsZero() || cfg.DateTo.IsZero() || !cfg.DateFrom.Before(cfg.DateTo) {
		return nil, fmt.Errorf("catalog: invalid date window [%s, %s)",
			cfg.DateFrom.Format("2006-01-02"), cfg.DateTo.Format("2006-01-02"))
	}

	sliceDays := cfg.SliceDays
	if sliceDays <= 0 {
		sliceDays = defaultSliceDays
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	var records []types.PaperRecord
	seen := make(map[string]bool)

	for sliceStart := cfg.DateFrom; sliceStart.Before(cfg.DateTo); {
		if cfg.MaxRecords > 0 && len(records) >= cfg.MaxRecords {
			break
		}

		sliceEnd := sliceStart.AddDate(0, 0, sliceDays)
		if sliceEnd.After(cfg.DateTo) {
			sliceEnd = cfg.DateTo
		}

		fmt.Fprintf(w, "slice %s to %s (%d records so far)\n",
			sliceStart.Format("2006-01-02"), sliceEnd.Format("2006-01-02"), len(records))

		if err := fetchSlice(ctx, client, cfg, sliceStart, sliceEnd, batchSize, seen, &records, w); err != nil {
			return nil, err
		}

		sliceStart = sliceEnd
	}

	fmt.Fprintf(w, "fetched %d %s records\n", len(records), cfg.Category)
	return records, nil
}

// fetchSlice pages through one submittedDate slice, appending new records
// to *records.
func fetchSlice(ctx context.Context, client *http.Client, cfg types.CatalogConfig,
	sliceStart, sliceEnd time.Time, batchSize int,
	seen map[string]bool, records *[]types.PaperRecord, w io.Writer) error {

	query := fmt.Sprintf("cat:%s AND submittedDate:[%s0000 TO %s2359]",
		cfg.Category, sliceStart.Format("20060102"), sliceEnd.Format("20060102"))

	for start := 0; ; {
		if cfg.MaxRecords > 0 && len(*records) >= cfg.MaxRecords {
			return nil
		}

		entries, err := fetchPage(ctx, client, cfg, query, start, batchSize)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			// Empty page where the slice should still have data: arXiv
			// pagination has broken down and the same offset never recovers.
			return fmt.Errorf(
				"catalog: empty page at offset %d for slice %s to %s: upstream anomaly, aborting",
				start, sliceStart.Format("2006-01-02"), sliceEnd.Format("2006-01-02"))
		}

		for _, entry := range entries {
			rec, ok := recordFromEntry(entry)
			if !ok {
				continue
			}
			if seen[rec.ID] {
				continue
			}
			seen[rec.ID] = true
			*records = append(*records, rec)
		}

		// Advance by the actual return, not the nominal batch size.
		start += len(entries)

		sleep(ctx, cfg.RequestDelay)

		if len(entries) < batchSize {
			// Short page: slice exhausted.
			fmt.Fprintf(w, "  %d entries at offset %d, slice done\n", len(entries), start-len(entries))
			return nil
		}
	}
}

// fetchPage requests one page of results and returns the parsed entries.
func fetchPage(ctx context.Context, client *http.Client, cfg types.CatalogConfig, query string, start, batchSize int) ([]arxivEntry, error) {
	params := url.Values{
		"search_query": {query},
		"start":        {fmt.Sprintf("%d", start)},
		"max_results":  {fmt.Sprintf("%d", batchSize)},
	}
	reqURL := arxivAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return feed.Entries, nil
}

// recordFromEntry converts an Atom entry to a PaperRecord. Entries whose
// ID cannot be extracted are dropped.
func recordFromEntry(entry arxivEntry) (types.PaperRecord, bool) {
	id := extractArxivID(entry.ID)
	if id == "" {
		return types.PaperRecord{}, false
	}

	rec := types.PaperRecord{
		ID:    id,
		Title: strings.TrimSpace(entry.Title),
	}
	for _, a := range entry.Authors {
		rec.Authors = append(rec.Authors, strings.TrimSpace(a.Name))
	}
	if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
		rec.Published = t
	}
	return rec, true
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041v1").
// The version suffix is kept; downstream matching strips it as needed.
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	return idURL[idx+len(prefix):]
}
