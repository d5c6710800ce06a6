// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/topcited/internal/index"
	"github.com/pdiddy/topcited/internal/rank"
	"github.com/pdiddy/topcited/pkg/types"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the SQLite paper index (load, top, search)",
	Long: `Index maintains a local SQLite database of ranked paper metadata.
Use subcommands to load a metadata file, list the most-cited papers,
or search stored titles. The index is reporting-only; pipeline runs
never read from it.`,
}

// --- load subcommand ---

var indexLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load a ranked metadata file into the index",
	Long: `Load reads a metadata JSON file produced by 'topcited rank' and upserts
its records into the index. Rows are keyed by arXiv ID, so reloading the
same file is idempotent and newer citation counts replace older ones.`,
	RunE: runIndexLoad,
}

// --- top subcommand ---

var indexTopCmd = &cobra.Command{
	Use:   "top",
	Short: "List the most-cited papers in the index",
	RunE:  runIndexTop,
}

// --- search subcommand ---

var indexSearchCmd = &cobra.Command{
	Use:   "search [terms...]",
	Short: "Search stored paper titles",
	RunE:  runIndexSearch,
}

func init() {
	indexCmd.PersistentFlags().String("db", "papers/index.db", "SQLite database path")

	indexLoadCmd.Flags().String("metadata", "papers/metadata.json", "metadata JSON file to load")
	indexTopCmd.Flags().Int("n", 20, "number of papers to list")
	indexSearchCmd.Flags().Int("n", 20, "number of papers to list")

	indexCmd.AddCommand(indexLoadCmd)
	indexCmd.AddCommand(indexTopCmd)
	indexCmd.AddCommand(indexSearchCmd)
	rootCmd.AddCommand(indexCmd)
}

// indexStore opens the store configured by the persistent --db flag.
func indexStore(cmd *cobra.Command) (*index.Store, error) {
	dbPath, _ := cmd.Flags().GetString("db")
	return index.NewStore(types.IndexConfig{DBPath: dbPath})
}

func runIndexLoad(cmd *cobra.Command, args []string) error {
	metaPath, _ := cmd.Flags().GetString("metadata")

	records, err := rank.ReadMetadata(metaPath)
	if err != nil {
		return err
	}

	store, err := indexStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Ingest(cmd.Context(), records, os.Stdout)
	return err
}

func runIndexTop(cmd *cobra.Command, args []string) error {
	n, _ := cmd.Flags().GetInt("n")

	store, err := indexStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Top(cmd.Context(), n)
	if err != nil {
		return err
	}
	rank.FormatTable(records, os.Stdout)
	return nil
}

func runIndexSearch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more search terms")
	}
	n, _ := cmd.Flags().GetInt("n")

	store, err := indexStore(cmd)
	if err != nil {
		return err
	}
	defer store.Close()

	records, err := store.Search(cmd.Context(), strings.Join(args, " "), n)
	if err != nil {
		return err
	}
	rank.FormatTable(records, os.Stdout)
	return nil
}
