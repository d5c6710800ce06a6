// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/pdiddy/topcited/pkg/types"
)

func testCfg() types.EnrichConfig {
	return types.EnrichConfig{
		HTTPConfig: types.HTTPConfig{UserAgent: "topcited-test/0.1"},
	}
}

func swapBase(t *testing.T, url string) {
	t.Helper()
	old := semanticAPIBase
	semanticAPIBase = url
	t.Cleanup(func() { semanticAPIBase = old })
}

func TestEnrichMatchesByArxivID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		// First candidate is a title-similar hit; second has the exact
		// arXiv ID and must win.
		fmt.Fprint(w, `{"total":2,"offset":0,"data":[
			{"paperId":"wrong","title":"Attention Is Not All You Need","citationCount":999,"externalIds":{"ArXiv":"9999.00000"}},
			{"paperId":"right","title":"Attention Is All You Need","citationCount":42,"externalIds":{"ArXiv":"1706.03762"}}
		]}`)
	}))
	defer ts.Close()
	swapBase(t, ts.URL)

	in := []types.PaperRecord{{ID: "1706.03762v5", Title: "Attention Is All You Need"}}
	out := Enrich(context.Background(), ts.Client(), in, testCfg(), io.Discard)

	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if out[0].CitationCount != 42 {
		t.Errorf("CitationCount = %d, want 42", out[0].CitationCount)
	}
	if out[0].ExternalID != "right" {
		t.Errorf("ExternalID = %q, want %q", out[0].ExternalID, "right")
	}
}

func TestEnrichFallsBackToFirstCandidate(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total":1,"offset":0,"data":[
			{"paperId":"first","title":"Close Enough","citationCount":7,"externalIds":{}}
		]}`)
	}))
	defer ts.Close()
	swapBase(t, ts.URL)

	in := []types.PaperRecord{{ID: "2401.00001v1", Title: "Some Paper"}}
	out := Enrich(context.Background(), ts.Client(), in, testCfg(), io.Discard)

	if out[0].CitationCount != 7 {
		t.Errorf("CitationCount = %d, want 7", out[0].CitationCount)
	}
	if out[0].ExternalID != "first" {
		t.Errorf("ExternalID = %q, want %q", out[0].ExternalID, "first")
	}
}

func TestEnrichNoCandidatesLeavesZero(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
	}))
	defer ts.Close()
	swapBase(t, ts.URL)

	in := []types.PaperRecord{{ID: "2401.00001v1", Title: "Obscure Paper"}}
	out := Enrich(context.Background(), ts.Client(), in, testCfg(), io.Discard)

	if len(out) != 1 {
		t.Fatalf("got %d records, want 1", len(out))
	}
	if out[0].CitationCount != 0 || out[0].ExternalID != "" {
		t.Errorf("record enriched unexpectedly: %+v", out[0])
	}
}

func TestEnrichRetriesOn429(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) <= 2 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total":1,"offset":0,"data":[
			{"paperId":"p","title":"T","citationCount":5,"externalIds":{"ArXiv":"2401.00001"}}
		]}`)
	}))
	defer ts.Close()
	swapBase(t, ts.URL)

	in := []types.PaperRecord{{ID: "2401.00001v1", Title: "T"}}
	out := Enrich(context.Background(), ts.Client(), in, testCfg(), io.Discard)

	if out[0].CitationCount != 5 {
		t.Errorf("CitationCount = %d, want 5 after retries", out[0].CitationCount)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("calls = %d, want 3 (two 429s then success)", got)
	}
}

func TestEnrichNeverDropsRecords(t *testing.T) {
	// Fail one record with a 500, succeed the rest.
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total":1,"offset":0,"data":[
			{"paperId":"p","title":"T","citationCount":9,"externalIds":{}}
		]}`)
	}))
	defer ts.Close()
	swapBase(t, ts.URL)

	in := []types.PaperRecord{
		{ID: "2401.00001v1", Title: "A"},
		{ID: "2401.00002v1", Title: "B"},
		{ID: "2401.00003v1", Title: "C"},
	}
	out := Enrich(context.Background(), ts.Client(), in, testCfg(), io.Discard)

	if len(out) != len(in) {
		t.Fatalf("got %d records, want %d", len(out), len(in))
	}
	// The failed record keeps its zero count but is still present.
	if out[1].ID != "2401.00002v1" || out[1].CitationCount != 0 {
		t.Errorf("failed record mishandled: %+v", out[1])
	}
	if out[0].CitationCount != 9 || out[2].CitationCount != 9 {
		t.Errorf("surviving records not enriched: %+v, %+v", out[0], out[2])
	}
}

func TestEnrichSendsQueryAndAPIKey(t *testing.T) {
	var capturedReq *http.Request
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedReq = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"total":0,"offset":0,"data":[]}`)
	}))
	defer ts.Close()
	swapBase(t, ts.URL)

	cfg := testCfg()
	cfg.APIKey = "key-123"

	in := []types.PaperRecord{{ID: "2401.00001v1", Title: "Deep Learning Survey"}}
	Enrich(context.Background(), ts.Client(), in, cfg, io.Discard)

	q := capturedReq.URL.Query()
	if got := q.Get("query"); got != "Deep Learning Survey" {
		t.Errorf("query param = %q", got)
	}
	if got := q.Get("fields"); got != semanticFields {
		t.Errorf("fields param = %q", got)
	}
	if got := capturedReq.Header.Get("x-api-key"); got != "key-123" {
		t.Errorf("x-api-key = %q", got)
	}
}

func TestStripVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2301.07041v1", "2301.07041"},
		{"2301.07041v12", "2301.07041"},
		{"2301.07041", "2301.07041"},
		{"1706.03762v5", "1706.03762"},
	}
	for _, tt := range tests {
		if got := types.StripVersion(tt.in); got != tt.want {
			t.Errorf("StripVersion(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
