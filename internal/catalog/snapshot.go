// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/topcited/pkg/types"
)

// Snapshot is the on-disk representation of a fetched (or enriched)
// catalog. Stages write snapshots so catalog, enrich, and rank can run
// separately and intermediate results survive for inspection.
type Snapshot struct {
	Query   SnapshotQuery       `yaml:"query"`
	Summary SnapshotSummary     `yaml:"summary"`
	Records []types.PaperRecord `yaml:"records"`
}

// SnapshotQuery stores the catalog parameters that produced the records.
type SnapshotQuery struct {
	Category string `yaml:"category"`
	DateFrom string `yaml:"date_from,omitempty"`
	DateTo   string `yaml:"date_to,omitempty"`
}

// SnapshotSummary stores record counts and a timestamp.
type SnapshotSummary struct {
	Total     int       `yaml:"total"`
	Enriched  int       `yaml:"enriched"`
	Timestamp time.Time `yaml:"timestamp"`
}

const dateFmt = "2006-01-02"

// QueryFromConfig converts catalog settings into their snapshot form.
func QueryFromConfig(cfg types.CatalogConfig) SnapshotQuery {
	q := SnapshotQuery{Category: cfg.Category}
	if !cfg.DateFrom.IsZero() {
		q.DateFrom = cfg.DateFrom.Format(dateFmt)
	}
	if !cfg.DateTo.IsZero() {
		q.DateTo = cfg.DateTo.Format(dateFmt)
	}
	return q
}

// WriteSnapshot saves the catalog query parameters and records to a YAML
// file. The enriched count tallies records carrying a Semantic Scholar match.
func WriteSnapshot(path string, query SnapshotQuery, records []types.PaperRecord) error {
	snap := Snapshot{
		Query: query,
		Summary: SnapshotSummary{
			Total:     len(records),
			Timestamp: time.Now(),
		},
		Records: records,
	}
	for _, r := range records {
		if r.ExternalID != "" {
			snap.Summary.Enriched++
		}
	}

	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadSnapshot loads a previously saved catalog snapshot from disk.
func ReadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	return &snap, nil
}
