// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topcited/internal/catalog"
	"github.com/pdiddy/topcited/pkg/types"
)

const (
	defaultUserAgent    = "topcited/0.1"
	defaultFetchTimeout = 60 * time.Second
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Fetch the arXiv catalog for a category and date window",
	Long: `Catalog pages through the arXiv API for a category over a submittedDate
window and writes the accumulated records to a YAML snapshot file with
empty citation fields. The window is split into short date slices to keep
each query within arXiv's reliable pagination range.`,
	RunE: runCatalog,
}

func init() {
	catalogCmd.Flags().String("category", "cs.AI", "arXiv category to fetch")
	catalogCmd.Flags().String("from", "", "date window start, inclusive (YYYY-MM-DD)")
	catalogCmd.Flags().String("to", "", "date window end, exclusive (YYYY-MM-DD)")
	catalogCmd.Flags().Int("max-records", 10000, "stop after this many records")
	catalogCmd.Flags().Int("slice-days", 7, "width of one date slice in days")
	catalogCmd.Flags().Int("batch-size", 400, "max_results per page request")
	catalogCmd.Flags().Duration("request-delay", 4*time.Second, "pause between page requests")
	catalogCmd.Flags().String("out", "catalog.yaml", "snapshot file to write")

	rootCmd.AddCommand(catalogCmd)
}

// catalogConfig assembles the catalog stage settings from flags and config.
func catalogConfig(cmd *cobra.Command) (types.CatalogConfig, error) {
	from, err := parseDate("from", stringSetting(cmd, "from", "catalog.date_from"))
	if err != nil {
		return types.CatalogConfig{}, err
	}
	to, err := parseDate("to", stringSetting(cmd, "to", "catalog.date_to"))
	if err != nil {
		return types.CatalogConfig{}, err
	}

	return types.CatalogConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultFetchTimeout,
			UserAgent: defaultUserAgent,
		},
		Category:     stringSetting(cmd, "category", "catalog.category"),
		DateFrom:     from,
		DateTo:       to,
		SliceDays:    intSetting(cmd, "slice-days", "catalog.slice_days"),
		BatchSize:    intSetting(cmd, "batch-size", "catalog.batch_size"),
		RequestDelay: durationSetting(cmd, "request-delay", "catalog.request_delay"),
		MaxRecords:   intSetting(cmd, "max-records", "catalog.max_records"),
	}, nil
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := catalogConfig(cmd)
	if err != nil {
		return err
	}
	out, _ := cmd.Flags().GetString("out")

	client := &http.Client{Timeout: cfg.Timeout}
	records, err := catalog.Fetch(cmd.Context(), client, cfg, os.Stdout)
	if err != nil {
		return err
	}

	if err := catalog.WriteSnapshot(out, catalog.QueryFromConfig(cfg), records); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %d records to %s\n", len(records), out)
	return nil
}
