// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders enriched records by citation count and persists the top-K.
package rank

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pdiddy/topcited/pkg/types"
)

// Rank returns the top k records by citation count, descending. The sort
// is stable: records with equal counts keep their input order. The input
// slice is not modified.
func Rank(records []types.PaperRecord, k int) []types.PaperRecord {
	ranked := make([]types.PaperRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].CitationCount > ranked[j].CitationCount
	})

	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// WriteMetadata saves the ranked records to path as indented JSON. The
// rank stage writes this before any download is attempted, so a partial
// download batch never loses the ranking work.
func WriteMetadata(path string, records []types.PaperRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing metadata: %w", err)
	}
	return nil
}

// ReadMetadata loads ranked records from a metadata JSON file.
func ReadMetadata(path string) ([]types.PaperRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata: %w", err)
	}
	var records []types.PaperRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing metadata %s: %w", path, err)
	}
	return records, nil
}

// FormatTable writes the ranked records as a human-readable table to w.
func FormatTable(records []types.PaperRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-9s  %-60s  %-20s  %s\n",
		"Rank", "Citations", "Title", "Authors", "ID")
	fmt.Fprintln(w, strings.Repeat("-", 110))

	for i, r := range records {
		title := r.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(w, "%-4d  %-9d  %-60s  %-20s  %s\n",
			i+1, r.CitationCount, title, formatAuthors(r.Authors), r.ID)
	}
	fmt.Fprintf(w, "\n%d records\n", len(records))
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
