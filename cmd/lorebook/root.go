package main

import (
	"github.com/spf13/cobra"

	"lorebook/internal/config"
	"lorebook/internal/logging"
	"lorebook/internal/vault"
	"lorebook/internal/version"
)

var (
	vaultFlag     string
	logLevelFlag  string
	logFormatFlag string
)

var rootCmd = &cobra.Command{
	Use:   "lorebook",
	Short: "lorebook - graph-aware context assembly for note vaults",
	Long: `lorebook turns a markdown note vault into scoped, budget-packed context
blocks: keyed entries are retrieved by keyword seeds and link-graph expansion,
backed by a full-text fallback corpus, and packed into a token budget with a
full explainability trace.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("lorebook version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&vaultFlag, "vault", ".", "Vault root directory")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormatFlag, "log-format", "", "Log format: human or json")
}

// setup loads the vault, its configuration, and a logger honoring the CLI
// flag > LOREBOOK_* env > config.json precedence (flags override by being
// applied last).
func setup() (*vault.Vault, *config.Config, *logging.Logger, error) {
	cfg, err := config.Load(vaultFlag)
	if err != nil {
		return nil, nil, nil, err
	}

	level := cfg.Logging.Level
	if logLevelFlag != "" {
		level = logLevelFlag
	}
	format := cfg.Logging.Format
	if logFormatFlag != "" {
		format = logFormatFlag
	}
	logger := logging.NewLogger(logging.Config{
		Format: logging.Format(format),
		Level:  logging.LogLevel(level),
	})

	v, err := vault.Load(vaultFlag)
	if err != nil {
		return nil, nil, nil, err
	}
	return v, cfg, logger, nil
}
