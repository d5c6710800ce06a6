// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topcited/internal/catalog"
	"github.com/pdiddy/topcited/internal/enrich"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: catalog, enrich, rank, download",
	Long: `Run executes all three stages in sequence: fetch the arXiv catalog,
attach Semantic Scholar citation counts, then rank by citations and
download the top-K PDFs. Snapshots of the catalog and enriched records
are written into the output directory so intermediate results survive
for inspection.`,
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().String("category", "cs.AI", "arXiv category to fetch")
	runCmd.Flags().String("from", "", "date window start, inclusive (YYYY-MM-DD)")
	runCmd.Flags().String("to", "", "date window end, exclusive (YYYY-MM-DD)")
	runCmd.Flags().Int("max-records", 10000, "stop the catalog fetch after this many records")
	runCmd.Flags().Int("slice-days", 7, "width of one date slice in days")
	runCmd.Flags().Int("batch-size", 400, "max_results per page request")
	runCmd.Flags().Duration("request-delay", 4*time.Second, "pause between catalog page requests")
	runCmd.Flags().String("api-key", "", "Semantic Scholar API key (default: .secrets/semantic-scholar-api-key)")
	runCmd.Flags().Int("max-retries", 0, "cap 429 retries per record (0 = retry until the limit lifts)")
	runCmd.Flags().Int("top-k", 100, "number of top-cited papers to keep")
	runCmd.Flags().String("output-dir", "papers", "directory for snapshots, metadata, and PDFs")
	runCmd.Flags().Duration("download-delay", defaultDownloadDelay, "pause between downloads")
	runCmd.Flags().Duration("timeout", defaultDownloadTimeout, "per-download HTTP timeout")
	runCmd.Flags().Int("title-max-len", 50, "max sanitized title length in filenames")
	runCmd.Flags().Bool("skip-download", false, "rank and write metadata only")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	catCfg, err := catalogConfig(cmd)
	if err != nil {
		return err
	}
	enrCfg := enrichConfig(cmd)
	dlCfg := downloadConfig(cmd)
	topK := intSetting(cmd, "top-k", "rank.top_k")
	skipDownload, _ := cmd.Flags().GetBool("skip-download")

	if err := os.MkdirAll(dlCfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", dlCfg.OutputDir, err)
	}

	// Stage 1: catalog.
	fetchClient := &http.Client{Timeout: catCfg.Timeout}
	records, err := catalog.Fetch(cmd.Context(), fetchClient, catCfg, os.Stdout)
	if err != nil {
		return err
	}
	query := catalog.QueryFromConfig(catCfg)
	if err := catalog.WriteSnapshot(filepath.Join(dlCfg.OutputDir, "catalog.yaml"), query, records); err != nil {
		return err
	}

	// Stage 2: enrich.
	enrichClient := &http.Client{Timeout: enrCfg.Timeout}
	enriched := enrich.Enrich(cmd.Context(), enrichClient, records, enrCfg, os.Stdout)
	if err := catalog.WriteSnapshot(filepath.Join(dlCfg.OutputDir, "enriched.yaml"), query, enriched); err != nil {
		return err
	}

	// Stage 3: rank and download.
	return rankAndDownload(enriched, topK, dlCfg, skipDownload)
}
