// Package config loads the lorebook configuration from
// <vault>/.lorebook/config.json, with LOREBOOK_* environment overrides.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"lorebook/internal/assemble"
	"lorebook/internal/budget"
	"lorebook/internal/model"
	"lorebook/internal/priority"
	"lorebook/internal/retrieval"
)

// Config is the complete lorebook configuration.
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Scoring   ScoringConfig   `json:"scoring" mapstructure:"scoring"`
	Factors   FactorsConfig   `json:"factors" mapstructure:"factors"`
	Retrieval RetrievalConfig `json:"retrieval" mapstructure:"retrieval"`
	Budget    BudgetConfig    `json:"budget" mapstructure:"budget"`
	Chunking  ChunkingConfig  `json:"chunking" mapstructure:"chunking"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// ScoringConfig holds the retrieval score component weights.
type ScoringConfig struct {
	SeedMatch     float64 `json:"seedMatch" mapstructure:"seedMatch"`
	ExtraKeyBonus float64 `json:"extraKeyBonus" mapstructure:"extraKeyBonus"`
	ConstantBonus float64 `json:"constantBonus" mapstructure:"constantBonus"`
	OrderPrior    float64 `json:"orderPrior" mapstructure:"orderPrior"`
}

// FactorsConfig holds the priority factor weights.
type FactorsConfig struct {
	Hierarchy   float64 `json:"hierarchy" mapstructure:"hierarchy"`
	InDegree    float64 `json:"inDegree" mapstructure:"inDegree"`
	PageRank    float64 `json:"pageRank" mapstructure:"pageRank"`
	Betweenness float64 `json:"betweenness" mapstructure:"betweenness"`
	OutDegree   float64 `json:"outDegree" mapstructure:"outDegree"`
	Degree      float64 `json:"degree" mapstructure:"degree"`
	PathDepth   float64 `json:"pathDepth" mapstructure:"pathDepth"`
}

// RetrievalConfig holds the query defaults applied when a query leaves the
// corresponding field unset.
type RetrievalConfig struct {
	MaxGraphHops    int     `json:"maxGraphHops" mapstructure:"maxGraphHops"`
	HopDecay        float64 `json:"hopDecay" mapstructure:"hopDecay"`
	FallbackPolicy  string  `json:"fallbackPolicy" mapstructure:"fallbackPolicy"`
	SeedThreshold   float64 `json:"seedThreshold" mapstructure:"seedThreshold"`
	MaxEntries      int     `json:"maxEntries" mapstructure:"maxEntries"`
	MaxRagDocuments int     `json:"maxRagDocuments" mapstructure:"maxRagDocuments"`
}

// BudgetConfig holds the allocation defaults.
type BudgetConfig struct {
	TokenBudget      int     `json:"tokenBudget" mapstructure:"tokenBudget"`
	WorldInfoRatio   float64 `json:"worldInfoRatio" mapstructure:"worldInfoRatio"`
	MaxLifted        int     `json:"maxLifted" mapstructure:"maxLifted"`
	PerEntryTokenCap int     `json:"perEntryTokenCap" mapstructure:"perEntryTokenCap"`
}

// ChunkingConfig holds the fallback-corpus chunker settings.
type ChunkingConfig struct {
	SentencesPerChunk int `json:"sentencesPerChunk" mapstructure:"sentencesPerChunk"`
	OverlapSentences  int `json:"overlapSentences" mapstructure:"overlapSentences"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the shipped configuration.
func DefaultConfig() *Config {
	cw := retrieval.DefaultComponentWeights()
	fw := priority.DefaultFactorWeights()
	lift := budget.DefaultLiftOptions()
	return &Config{
		Version: 1,
		Scoring: ScoringConfig{
			SeedMatch:     cw.SeedMatch,
			ExtraKeyBonus: cw.ExtraKeyBonus,
			ConstantBonus: cw.ConstantBonus,
			OrderPrior:    cw.OrderPrior,
		},
		Factors: FactorsConfig{
			Hierarchy:   fw.Hierarchy,
			InDegree:    fw.InDegree,
			PageRank:    fw.PageRank,
			Betweenness: fw.Betweenness,
			OutDegree:   fw.OutDegree,
			Degree:      fw.Degree,
			PathDepth:   fw.PathDepth,
		},
		Retrieval: RetrievalConfig{
			MaxGraphHops:    model.DefaultGraphHops,
			HopDecay:        model.DefaultHopDecay,
			FallbackPolicy:  string(model.FallbackAuto),
			SeedThreshold:   model.DefaultSeedThreshold,
			MaxEntries:      model.DefaultMaxEntries,
			MaxRagDocuments: model.DefaultMaxRagDocuments,
		},
		Budget: BudgetConfig{
			TokenBudget:      8192,
			WorldInfoRatio:   model.DefaultWorldInfoRatio,
			MaxLifted:        lift.MaxLifted,
			PerEntryTokenCap: lift.PerEntryTokenCap,
		},
		Chunking: ChunkingConfig{
			SentencesPerChunk: 5,
			OverlapSentences:  1,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// Load reads <vaultRoot>/.lorebook/config.json. A missing file yields the
// defaults. LOREBOOK_* environment variables override either source, e.g.
// LOREBOOK_LOGGING_LEVEL=debug or LOREBOOK_BUDGET_TOKENBUDGET=4096.
func Load(vaultRoot string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(vaultRoot, ".lorebook"))

	v.SetEnvPrefix("LOREBOOK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultConfig()
	setDefaults(v, defaults)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := *defaults
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can see it even when the
// config file is absent.
func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("version", c.Version)
	v.SetDefault("scoring.seedMatch", c.Scoring.SeedMatch)
	v.SetDefault("scoring.extraKeyBonus", c.Scoring.ExtraKeyBonus)
	v.SetDefault("scoring.constantBonus", c.Scoring.ConstantBonus)
	v.SetDefault("scoring.orderPrior", c.Scoring.OrderPrior)
	v.SetDefault("factors.hierarchy", c.Factors.Hierarchy)
	v.SetDefault("factors.inDegree", c.Factors.InDegree)
	v.SetDefault("factors.pageRank", c.Factors.PageRank)
	v.SetDefault("factors.betweenness", c.Factors.Betweenness)
	v.SetDefault("factors.outDegree", c.Factors.OutDegree)
	v.SetDefault("factors.degree", c.Factors.Degree)
	v.SetDefault("factors.pathDepth", c.Factors.PathDepth)
	v.SetDefault("retrieval.maxGraphHops", c.Retrieval.MaxGraphHops)
	v.SetDefault("retrieval.hopDecay", c.Retrieval.HopDecay)
	v.SetDefault("retrieval.fallbackPolicy", c.Retrieval.FallbackPolicy)
	v.SetDefault("retrieval.seedThreshold", c.Retrieval.SeedThreshold)
	v.SetDefault("retrieval.maxEntries", c.Retrieval.MaxEntries)
	v.SetDefault("retrieval.maxRagDocuments", c.Retrieval.MaxRagDocuments)
	v.SetDefault("budget.tokenBudget", c.Budget.TokenBudget)
	v.SetDefault("budget.worldInfoRatio", c.Budget.WorldInfoRatio)
	v.SetDefault("budget.maxLifted", c.Budget.MaxLifted)
	v.SetDefault("budget.perEntryTokenCap", c.Budget.PerEntryTokenCap)
	v.SetDefault("chunking.sentencesPerChunk", c.Chunking.SentencesPerChunk)
	v.SetDefault("chunking.overlapSentences", c.Chunking.OverlapSentences)
	v.SetDefault("logging.format", c.Logging.Format)
	v.SetDefault("logging.level", c.Logging.Level)
}

// Save writes the configuration to <vaultRoot>/.lorebook/config.json.
func (c *Config) Save(vaultRoot string) error {
	dir := filepath.Join(vaultRoot, ".lorebook")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0o644)
}

// Options maps the configuration onto pipeline options.
func (c *Config) Options() assemble.Options {
	return assemble.Options{
		ComponentWeights: retrieval.ComponentWeights{
			SeedMatch:     c.Scoring.SeedMatch,
			ExtraKeyBonus: c.Scoring.ExtraKeyBonus,
			ConstantBonus: c.Scoring.ConstantBonus,
			OrderPrior:    c.Scoring.OrderPrior,
		},
		FactorWeights: priority.FactorWeights{
			Hierarchy:   c.Factors.Hierarchy,
			InDegree:    c.Factors.InDegree,
			PageRank:    c.Factors.PageRank,
			Betweenness: c.Factors.Betweenness,
			OutDegree:   c.Factors.OutDegree,
			Degree:      c.Factors.Degree,
			PathDepth:   c.Factors.PathDepth,
		},
		Lift: budget.LiftOptions{
			MaxLifted:        c.Budget.MaxLifted,
			PerEntryTokenCap: c.Budget.PerEntryTokenCap,
		},
	}
}

// Query builds a query from the configured defaults.
func (c *Config) Query(text string) model.Query {
	return model.Query{
		Text:            text,
		TokenBudget:     c.Budget.TokenBudget,
		MaxGraphHops:    c.Retrieval.MaxGraphHops,
		HopDecay:        c.Retrieval.HopDecay,
		FallbackPolicy:  model.FallbackPolicy(c.Retrieval.FallbackPolicy),
		SeedThreshold:   c.Retrieval.SeedThreshold,
		MaxEntries:      c.Retrieval.MaxEntries,
		MaxRagDocuments: c.Retrieval.MaxRagDocuments,
		WorldInfoRatio:  c.Budget.WorldInfoRatio,
		VectorThreshold: model.DefaultVectorThreshold,
	}
}
