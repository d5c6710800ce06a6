// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the topcited pipeline.
package types

import "time"

// PaperRecord holds the metadata for a single arXiv paper as it moves
// through the pipeline. The catalog stage creates records, the enrich
// stage fills in the citation fields, and the rank/download stages treat
// records as read-only.
type PaperRecord struct {
	// ID is the arXiv identifier as returned by the API, version suffix
	// included (e.g. "2301.07041v2"). Unique within one run's catalog.
	ID string `json:"arxiv_id" yaml:"arxiv_id"`

	// Title is the paper title as returned by arXiv.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Published is the submission date reported by arXiv.
	Published time.Time `json:"published" yaml:"published"`

	// CitationCount is the citation count attached by the enrich stage.
	// Zero until enriched, and stays zero when no match is found.
	CitationCount int `json:"citations" yaml:"citations"`

	// ExternalID is the Semantic Scholar paper ID of the matched
	// candidate, kept for cross-reference only.
	ExternalID string `json:"semantic_scholar_id,omitempty" yaml:"semantic_scholar_id,omitempty"`
}

// BaseID returns the arXiv ID with any version suffix stripped
// (e.g. "2301.07041v2" → "2301.07041"). Semantic Scholar reports arXiv
// IDs without versions, so cross-reference matching uses the base form.
func (p PaperRecord) BaseID() string {
	return StripVersion(p.ID)
}

// StripVersion removes a trailing "vN" version suffix from an arXiv ID.
func StripVersion(id string) string {
	i := len(id)
	for i > 0 && id[i-1] >= '0' && id[i-1] <= '9' {
		i--
	}
	if i > 0 && i < len(id) && id[i-1] == 'v' {
		return id[:i-1]
	}
	return id
}
