// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich attaches Semantic Scholar citation counts to catalog records.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/pdiddy/topcited/internal/httputil"
	"github.com/pdiddy/topcited/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,authors,citationCount,externalIds,paperId"

// Enrich looks up each record by title on Semantic Scholar and attaches
// the citation count of the best-matching candidate. The returned slice
// always has the same length as the input: a record whose lookup fails
// keeps its zero citation count and is logged to w, never dropped.
//
// HTTP 429 responses are retried per the server's Retry-After header,
// without bound unless cfg.MaxRetries is positive. Any other failure
// abandons that record's enrichment and moves on.
func Enrich(ctx context.Context, client *http.Client, records []types.PaperRecord, cfg types.EnrichConfig, w io.Writer) []types.PaperRecord {
	out := make([]types.PaperRecord, 0, len(records))
	for _, rec := range records {
		if err := enrichRecord(ctx, client, &rec, cfg); err != nil {
			fmt.Fprintf(w, "warning: %s (%q): %v\n", rec.ID, rec.Title, err)
		} else {
			fmt.Fprintf(w, "%6d citations  %s  %s\n", rec.CitationCount, rec.ID, rec.Title)
		}
		out = append(out, rec)
	}
	return out
}

// enrichRecord queries Semantic Scholar for one record and fills in its
// citation fields in place.
func enrichRecord(ctx context.Context, client *http.Client, rec *types.PaperRecord, cfg types.EnrichConfig) error {
	params := url.Values{
		"query":  {rec.Title},
		"fields": {semanticFields},
	}
	reqURL := semanticAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	if cfg.APIKey != "" {
		req.Header.Set("x-api-key", cfg.APIKey)
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, cfg.MaxRetries)
	if err != nil {
		return fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	best := bestMatch(sr.Data, rec.BaseID())
	if best == nil {
		return nil
	}
	rec.CitationCount = best.CitationCount
	rec.ExternalID = best.PaperID
	return nil
}

// bestMatch selects the candidate to take the citation count from: the
// one whose reported arXiv ID equals baseID, else the first candidate,
// else nil. Title search carries no exact-match guarantee, so the
// identifier check comes first.
func bestMatch(candidates []semanticPaper, baseID string) *semanticPaper {
	for i := range candidates {
		if candidates[i].ExternalIDs.ArXiv == baseID {
			return &candidates[i]
		}
	}
	if len(candidates) > 0 {
		return &candidates[0]
	}
	return nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Data   []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	CitationCount int                 `json:"citationCount"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticExternalIDs struct {
	DOI      string `json:"DOI"`
	ArXiv    string `json:"ArXiv"`
	CorpusID int    `json:"CorpusId"`
}
