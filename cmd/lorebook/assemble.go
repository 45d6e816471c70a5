package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"lorebook/internal/assemble"
	"lorebook/internal/chunker"
	"lorebook/internal/config"
	"lorebook/internal/export"
	"lorebook/internal/logging"
	"lorebook/internal/model"
	"lorebook/internal/output"
	"lorebook/internal/scope"
	"lorebook/internal/storage"
	"lorebook/internal/vault"
)

var (
	assembleQuery    string
	assembleBudget   int
	assembleScope    string
	assembleHops     int
	assembleDecay    float64
	assembleFallback string
	assembleFormat   string
)

var assembleCmd = &cobra.Command{
	Use:   "assemble",
	Short: "Assemble injectable context for a query",
	Long: `Runs the full pipeline for every declared scope (or one scope with
--scope): link-graph build, priority ordering, seed retrieval with hop
expansion, fallback search, and budget-packed selection.

Examples:
  lorebook assemble -q "the dragon awakens"
  lorebook assemble -q "harbor rumors" --scope places --budget 4096
  lorebook assemble -q "what now" --format json`,
	RunE: runAssemble,
}

func init() {
	assembleCmd.Flags().StringVarP(&assembleQuery, "query", "q", "", "Query text (required)")
	assembleCmd.Flags().IntVar(&assembleBudget, "budget", 0, "Token budget (default from config)")
	assembleCmd.Flags().StringVar(&assembleScope, "scope", "", "Assemble only this scope")
	assembleCmd.Flags().IntVar(&assembleHops, "hops", -1, "Max graph hops, 0-3 (default from config)")
	assembleCmd.Flags().Float64Var(&assembleDecay, "decay", 0, "Hop decay factor, 0.2-0.9 (default from config)")
	assembleCmd.Flags().StringVar(&assembleFallback, "fallback", "", "Fallback policy: off, auto, always")
	assembleCmd.Flags().StringVar(&assembleFormat, "format", "text", "Output format: text, json, markdown")
	assembleCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(assembleCmd)
}

func runAssemble(cmd *cobra.Command, args []string) error {
	v, cfg, logger, err := setup()
	if err != nil {
		return err
	}

	query := cfg.Query(assembleQuery)
	if assembleBudget > 0 {
		query.TokenBudget = assembleBudget
	}
	if assembleHops >= 0 {
		query.MaxGraphHops = assembleHops
	}
	if assembleDecay > 0 {
		query.HopDecay = assembleDecay
	}
	if assembleFallback != "" {
		query.FallbackPolicy = model.FallbackPolicy(assembleFallback)
	}

	pools := selectPools(v, assembleScope)
	if len(pools) == 0 {
		return fmt.Errorf("unknown scope %q", assembleScope)
	}
	if err := loadPoolChunks(vaultFlag, cfg, pools, logger); err != nil {
		return err
	}

	roots := scopeRoots(v)
	failed := false
	for _, pool := range pools {
		opts := cfg.Options()
		opts.RootUID = roots[pool.Scope]
		ctx, err := assemble.New(opts, logger).Assemble(pool, v.Resolve, query)
		if err != nil {
			failed = true
			logger.Error("scope failed", map[string]interface{}{
				"scope": pool.Scope,
				"error": err.Error(),
			})
			continue
		}
		if err := printContext(&ctx); err != nil {
			return err
		}
	}
	if failed {
		return fmt.Errorf("one or more scopes failed")
	}
	return nil
}

// loadPoolChunks fills each pool's fallback chunks, preferring the corpus
// persisted by "lorebook index" and chunking in memory otherwise.
func loadPoolChunks(vaultRoot string, cfg *config.Config, pools []*model.CandidatePool, logger *logging.Logger) error {
	ch := chunker.New(cfg.Chunking.SentencesPerChunk, cfg.Chunking.OverlapSentences)
	if !storage.Exists(vaultRoot) {
		for _, pool := range pools {
			pool.Chunks = ch.ChunkAll(pool.Documents)
		}
		return nil
	}

	db, err := storage.Open(vaultRoot, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	for _, pool := range pools {
		_, chunks, err := db.LoadScope(ctx, pool.Scope)
		if err != nil {
			return err
		}
		if len(chunks) == 0 {
			// Scope not indexed yet.
			pool.Chunks = ch.ChunkAll(pool.Documents)
			continue
		}
		pool.Chunks = chunks
	}
	return nil
}

// scopeRoots resolves each declared scope's root note uid.
func scopeRoots(v *vault.Vault) map[string]int {
	roots := make(map[string]int, len(v.Scopes))
	for _, decl := range v.Scopes {
		roots[decl.Name] = scope.RootUID(v, decl)
	}
	return roots
}

func printContext(ctx *model.AssembledContext) error {
	switch assembleFormat {
	case "json":
		data, err := output.DeterministicEncodeIndented(ctx, "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	case "markdown":
		fmt.Print(export.Markdown(ctx))
	default:
		if text := assemble.RenderText(ctx); text != "" {
			fmt.Print(text)
			fmt.Println()
		}
	}
	return nil
}

// selectPools builds the candidate pools, restricted to one scope when
// name is non-empty.
func selectPools(v *vault.Vault, name string) []*model.CandidatePool {
	pools := scope.All(v)
	if name == "" {
		return pools
	}
	for _, pool := range pools {
		if pool.Scope == name {
			return []*model.CandidatePool{pool}
		}
	}
	return nil
}
