package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lorebook/internal/output"
	"lorebook/internal/storage"
)

var (
	searchQuery string
	searchScope string
	searchLimit int
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Full-text search the persisted fallback corpus",
	Long: `Runs a bm25-ranked query against the corpus built by "lorebook index",
printing matching documents and chunks per scope.

Examples:
  lorebook search -q "harbor cargo"
  lorebook search -q "old tales" --scope places --limit 5`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Search terms (required)")
	searchCmd.Flags().StringVar(&searchScope, "scope", "", "Search only this scope")
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum results per scope")
	searchCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	v, _, logger, err := setup()
	if err != nil {
		return err
	}

	if !storage.Exists(vaultFlag) {
		return fmt.Errorf("no corpus found; run \"lorebook index\" first")
	}

	pools := selectPools(v, searchScope)
	if len(pools) == 0 {
		return fmt.Errorf("unknown scope %q", searchScope)
	}

	db, err := storage.Open(vaultFlag, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	for _, pool := range pools {
		results, err := db.Search(ctx, pool.Scope, searchQuery, searchLimit)
		if err != nil {
			return err
		}
		for _, r := range results {
			unit := "document"
			if r.ChunkID != "" {
				unit = "chunk " + r.ChunkID
			}
			fmt.Printf("%s\t%s\t%s (%s)\n", pool.Scope, output.FormatFloat(r.Score), r.Title, unit)
		}
	}
	return nil
}
