// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "topcited/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// CatalogConfig holds settings for the catalog stage.
type CatalogConfig struct {
	HTTPConfig `yaml:",inline"`

	// Category is the arXiv category to fetch (e.g. "cs.AI").
	Category string `json:"category" yaml:"category"`

	// DateFrom and DateTo bound the submittedDate window, [DateFrom, DateTo).
	DateFrom time.Time `json:"date_from" yaml:"date_from"`
	DateTo   time.Time `json:"date_to" yaml:"date_to"`

	// SliceDays is the width of one submittedDate slice (default 7).
	// Slices keep a single query's result set near BatchSize; arXiv
	// pagination degrades beyond roughly 400 results per query.
	SliceDays int `json:"slice_days" yaml:"slice_days"`

	// BatchSize is max_results per page request (default 400).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// RequestDelay is the pause after each page request, per the arXiv
	// API usage policy (default 4s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// MaxRecords stops the fetch once this many records are accumulated.
	MaxRecords int `json:"max_records" yaml:"max_records"`
}

// EnrichConfig holds settings for the enrich stage.
type EnrichConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional Semantic Scholar API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries caps retries on HTTP 429 per record. Zero or negative
	// means retry until the upstream stops rate-limiting.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// DownloadConfig holds settings for the download stage.
type DownloadConfig struct {
	HTTPConfig `yaml:",inline"`

	// OutputDir is the directory PDFs and metadata are written to.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// DownloadDelay is the pause between consecutive downloads (default 500ms).
	DownloadDelay time.Duration `json:"download_delay" yaml:"download_delay"`

	// TitleMaxLen is the maximum length of the sanitized title fragment
	// in a PDF filename (default 50).
	TitleMaxLen int `json:"title_max_len" yaml:"title_max_len"`
}

// RankConfig holds settings for the rank stage.
type RankConfig struct {
	// TopK is the number of top-cited records to keep.
	TopK int `json:"top_k" yaml:"top_k"`
}

// IndexConfig holds settings for the SQLite paper index.
type IndexConfig struct {
	// DBPath is the SQLite database file path.
	DBPath string `json:"db_path" yaml:"db_path"`

	// MaxResults is the default maximum number of query results (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Catalog  CatalogConfig  `json:"catalog" yaml:"catalog"`
	Enrich   EnrichConfig   `json:"enrich" yaml:"enrich"`
	Rank     RankConfig     `json:"rank" yaml:"rank"`
	Download DownloadConfig `json:"download" yaml:"download"`
	Index    IndexConfig    `json:"index" yaml:"index"`
}
