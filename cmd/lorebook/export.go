package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"lorebook/internal/export"
	"lorebook/internal/graph"
	"lorebook/internal/priority"
	"lorebook/internal/version"
)

var (
	exportScope   string
	exportOut     string
	exportArchive bool
	exportBudget  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export scopes to the lorebook JSON interchange format",
	Long: `Writes each scope's entries as a lorebook JSON file consumable by
downstream tools, with computed orders and per-entry trigger flags.

Examples:
  lorebook export                       # every scope to <scope>.lorebook.json
  lorebook export --scope places
  lorebook export --archive             # zstd-compressed .json.zst files`,
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportScope, "scope", "", "Export only this scope")
	exportCmd.Flags().StringVar(&exportOut, "out", ".", "Output directory")
	exportCmd.Flags().BoolVar(&exportArchive, "archive", false, "Write zstd-compressed archives")
	exportCmd.Flags().IntVar(&exportBudget, "budget", 0, "Token budget recorded in settings (default from config)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	v, cfg, logger, err := setup()
	if err != nil {
		return err
	}

	pools := selectPools(v, exportScope)
	if len(pools) == 0 {
		return fmt.Errorf("unknown scope %q", exportScope)
	}

	budget := cfg.Budget.TokenBudget
	if exportBudget > 0 {
		budget = exportBudget
	}

	x := export.New("lorebook", version.Version, logger)
	roots := scopeRoots(v)
	for _, pool := range pools {
		// Exported orders reflect the same priority pass the assembler uses.
		g := graph.Build(pool.Entries, v.Resolve)
		orders := priority.ComputeOrder(pool.Entries, g, roots[pool.Scope], cfg.Options().FactorWeights)
		priority.Apply(pool.Entries, orders)
		sort.SliceStable(pool.Entries, func(i, j int) bool {
			if pool.Entries[i].Order != pool.Entries[j].Order {
				return pool.Entries[i].Order > pool.Entries[j].Order
			}
			return pool.Entries[i].UID < pool.Entries[j].UID
		})

		data, err := x.Lorebook(pool.Scope, pool.Entries, export.Settings{
			UseRecursion: true,
			TokenBudget:  budget,
		})
		if err != nil {
			return err
		}

		name := strings.ReplaceAll(pool.Scope, "/", "-")
		if exportArchive {
			path := fmt.Sprintf("%s/%s.lorebook.json.zst", exportOut, name)
			if err := x.WriteArchive(path, data); err != nil {
				return err
			}
			fmt.Println(path)
		} else {
			path := fmt.Sprintf("%s/%s.lorebook.json", exportOut, name)
			if err := x.WriteFile(path, data); err != nil {
				return err
			}
			fmt.Println(path)
		}
	}
	return nil
}
