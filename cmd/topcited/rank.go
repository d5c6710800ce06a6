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
	"github.com/pdiddy/topcited/internal/download"
	"github.com/pdiddy/topcited/internal/rank"
	"github.com/pdiddy/topcited/pkg/types"
)

const (
	defaultDownloadTimeout = 30 * time.Second
	defaultDownloadDelay   = 500 * time.Millisecond
	metadataFile           = "metadata.json"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank an enriched snapshot and download the top-K PDFs",
	Long: `Rank sorts enriched records by citation count (descending, stable ties),
keeps the top K, writes their metadata as JSON into the output directory,
and downloads each paper's PDF from arXiv. PDFs already on disk are
skipped, so re-runs resume where they left off.`,
	RunE: runRank,
}

func init() {
	rankCmd.Flags().String("in", "enriched.yaml", "enriched snapshot to read")
	rankCmd.Flags().Int("top-k", 100, "number of top-cited papers to keep")
	rankCmd.Flags().String("output-dir", "papers", "directory for metadata and PDFs")
	rankCmd.Flags().Duration("download-delay", defaultDownloadDelay, "pause between downloads")
	rankCmd.Flags().Duration("timeout", defaultDownloadTimeout, "per-download HTTP timeout")
	rankCmd.Flags().Int("title-max-len", 50, "max sanitized title length in filenames")
	rankCmd.Flags().Bool("skip-download", false, "rank and write metadata only")

	rootCmd.AddCommand(rankCmd)
}

// downloadConfig assembles the download stage settings from flags and config.
func downloadConfig(cmd *cobra.Command) types.DownloadConfig {
	return types.DownloadConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   durationSetting(cmd, "timeout", "download.timeout"),
			UserAgent: defaultUserAgent,
		},
		OutputDir:     stringSetting(cmd, "output-dir", "download.output_dir"),
		DownloadDelay: durationSetting(cmd, "download-delay", "download.download_delay"),
		TitleMaxLen:   intSetting(cmd, "title-max-len", "download.title_max_len"),
	}
}

func runRank(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	topK := intSetting(cmd, "top-k", "rank.top_k")
	skipDownload, _ := cmd.Flags().GetBool("skip-download")
	cfg := downloadConfig(cmd)

	snap, err := catalog.ReadSnapshot(in)
	if err != nil {
		return err
	}
	if len(snap.Records) == 0 {
		return fmt.Errorf("no records in %s; run 'topcited enrich' first", in)
	}

	return rankAndDownload(snap.Records, topK, cfg, skipDownload)
}

// rankAndDownload runs the rank stage: sort, persist metadata, then
// fetch PDFs. Metadata is written before any download so a partial batch
// never loses the ranking work.
func rankAndDownload(records []types.PaperRecord, topK int, cfg types.DownloadConfig, skipDownload bool) error {
	ranked := rank.Rank(records, topK)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", cfg.OutputDir, err)
	}

	metaPath := filepath.Join(cfg.OutputDir, metadataFile)
	if err := rank.WriteMetadata(metaPath, ranked); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %d records to %s\n", len(ranked), metaPath)

	rank.FormatTable(ranked, os.Stdout)

	if skipDownload {
		return nil
	}

	client := &http.Client{Timeout: cfg.Timeout}
	result := download.Batch(client, ranked, cfg, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d paper(s) failed to download", result.Failed)
	}
	return nil
}
