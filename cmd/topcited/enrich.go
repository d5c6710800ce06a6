// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topcited/internal/catalog"
	"github.com/pdiddy/topcited/internal/enrich"
	"github.com/pdiddy/topcited/pkg/types"
)

const defaultEnrichTimeout = 30 * time.Second

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Attach Semantic Scholar citation counts to a catalog snapshot",
	Long: `Enrich looks up each catalog record by title on Semantic Scholar and
attaches the citation count of the best-matching candidate. Rate-limit
responses are waited out per the server's Retry-After header; other
failures leave that record's count at zero. Every input record appears
in the output snapshot.`,
	RunE: runEnrich,
}

func init() {
	enrichCmd.Flags().String("in", "catalog.yaml", "catalog snapshot to read")
	enrichCmd.Flags().String("out", "enriched.yaml", "enriched snapshot to write")
	enrichCmd.Flags().String("api-key", "", "Semantic Scholar API key (default: .secrets/semantic-scholar-api-key)")
	enrichCmd.Flags().Int("max-retries", 0, "cap 429 retries per record (0 = retry until the limit lifts)")

	rootCmd.AddCommand(enrichCmd)
}

// enrichConfig assembles the enrich stage settings from flags, config,
// and loaded secrets.
func enrichConfig(cmd *cobra.Command) types.EnrichConfig {
	apiKey, _ := cmd.Flags().GetString("api-key")
	return types.EnrichConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   defaultEnrichTimeout,
			UserAgent: defaultUserAgent,
		},
		APIKey:     secretDefault("semantic-scholar-api-key", apiKey),
		MaxRetries: intSetting(cmd, "max-retries", "enrich.max_retries"),
	}
}

func runEnrich(cmd *cobra.Command, args []string) error {
	in, _ := cmd.Flags().GetString("in")
	out, _ := cmd.Flags().GetString("out")

	snap, err := catalog.ReadSnapshot(in)
	if err != nil {
		return err
	}
	if len(snap.Records) == 0 {
		return fmt.Errorf("no records in %s; run 'topcited catalog' first", in)
	}

	cfg := enrichConfig(cmd)
	client := &http.Client{Timeout: cfg.Timeout}

	enriched := enrich.Enrich(cmd.Context(), client, snap.Records, cfg, os.Stdout)

	if err := catalog.WriteSnapshot(out, snap.Query, enriched); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "wrote %d records to %s\n", len(enriched), out)
	return nil
}
