package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lorebook/internal/chunker"
	"lorebook/internal/storage"
)

var indexScope string

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and persist the fallback corpus",
	Long: `Chunks every scope's fallback documents and stores them, with an FTS5
full-text mirror, in <vault>/.lorebook/corpus.db. Re-running replaces the
stored corpus for the indexed scopes.

Examples:
  lorebook index
  lorebook index --scope places`,
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().StringVar(&indexScope, "scope", "", "Index only this scope")
	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	v, cfg, logger, err := setup()
	if err != nil {
		return err
	}

	pools := selectPools(v, indexScope)
	if len(pools) == 0 {
		return fmt.Errorf("unknown scope %q", indexScope)
	}

	db, err := storage.Open(vaultFlag, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	ch := chunker.New(cfg.Chunking.SentencesPerChunk, cfg.Chunking.OverlapSentences)
	for _, pool := range pools {
		chunks := ch.ChunkAll(pool.Documents)
		if err := db.ReplaceScope(ctx, pool.Scope, pool.Documents, chunks); err != nil {
			return err
		}
		fmt.Printf("%s: %d documents, %d chunks\n", pool.Scope, len(pool.Documents), len(chunks))
	}
	return nil
}
