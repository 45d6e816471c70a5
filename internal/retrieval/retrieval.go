// Package retrieval turns a query and a candidate pool into scored,
// explainable entry and document candidates: seed keyword matching, bounded
// hop expansion through the link graph, and a policy-gated full-text
// fallback over the document corpus.
package retrieval

import (
	"sort"

	"lorebook/internal/graph"
	"lorebook/internal/logging"
	"lorebook/internal/model"
)

// ComponentWeights controls how the score components combine. The composite
// score is additive: seed + graph + constant + order prior.
type ComponentWeights struct {
	// SeedMatch is the base score of a direct keyword match.
	SeedMatch float64 `json:"seedMatch"`
	// ExtraKeyBonus is added per matched keyword beyond the first.
	ExtraKeyBonus float64 `json:"extraKeyBonus"`
	// ConstantBonus is the score granted to constant-mode entries.
	ConstantBonus float64 `json:"constantBonus"`
	// OrderPrior is the weight of the normalized static order, a low
	// prior so otherwise-tied candidates still rank by importance.
	OrderPrior float64 `json:"orderPrior"`
}

// DefaultComponentWeights returns the shipped component weights.
func DefaultComponentWeights() ComponentWeights {
	return ComponentWeights{
		SeedMatch:     100,
		ExtraKeyBonus: 20,
		ConstantBonus: 120,
		OrderPrior:    10,
	}
}

// Engine scores candidates for one scope. It holds no per-query state; a
// single engine may serve concurrent scopes.
type Engine struct {
	weights ComponentWeights
	logger  *logging.Logger
}

// NewEngine creates a retrieval engine.
func NewEngine(weights ComponentWeights, logger *logging.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{weights: weights, logger: logger}
}

// Result is the full retrieval output for one query.
type Result struct {
	Entries   []model.ScoredEntry    `json:"entries"`
	Documents []model.ScoredDocument `json:"documents"`
	Fallback  model.FallbackTrace    `json:"fallback"`
}

// Retrieve runs the four retrieval stages. The query must already be
// validated. orders is the priority engine's output; a missing uid falls
// back to the entry's own Order field.
func (e *Engine) Retrieve(pool *model.CandidatePool, g *graph.Graph, orders map[int]int, query model.Query) Result {
	seeds := e.matchSeeds(pool.Entries, query)

	scored := e.expand(pool, g, seeds, query)

	maxOrder := 1
	for i := range pool.Entries {
		if o := orderOf(&pool.Entries[i], orders); o > maxOrder {
			maxOrder = o
		}
	}
	for i := range scored {
		entry := pool.EntryByUID(scored[i].UID)
		o := orderOf(entry, orders)
		scored[i].Breakdown.Order = e.weights.OrderPrior * float64(o) / float64(maxOrder)
		scored[i].Score = scored[i].Breakdown.Seed +
			scored[i].Breakdown.Graph +
			scored[i].Breakdown.Constant +
			scored[i].Breakdown.Order
	}

	sortEntries(scored, orders, pool)

	confidence := seedConfidence(seeds)
	fallback := model.FallbackTrace{
		Policy:     query.FallbackPolicy,
		Confidence: confidence,
		Threshold:  query.SeedThreshold,
	}
	var docs []model.ScoredDocument
	switch query.FallbackPolicy {
	case model.FallbackAlways:
		fallback.Ran = true
	case model.FallbackAuto:
		fallback.Ran = confidence < query.SeedThreshold
	}
	if fallback.Ran {
		docs = e.searchFallback(pool, query)
	}

	e.logger.Debug("retrieval complete", map[string]interface{}{
		"scope":       pool.Scope,
		"seeds":       len(seeds),
		"entries":     len(scored),
		"documents":   len(docs),
		"fallbackRan": fallback.Ran,
	})

	return Result{Entries: scored, Documents: docs, Fallback: fallback}
}

func orderOf(entry *model.Entry, orders map[int]int) int {
	if entry == nil {
		return 1
	}
	if o, ok := orders[entry.UID]; ok {
		return o
	}
	if entry.Order > 0 {
		return entry.Order
	}
	return 1
}

// seedConfidence is the highest keyword-seed score. Constant entries are
// excluded: their presence says nothing about how well the query matched
// the lorebook, which is what the fallback decision is about.
func seedConfidence(seeds []seed) float64 {
	best := 0.0
	for _, s := range seeds {
		if s.constant {
			continue
		}
		if s.score > best {
			best = s.score
		}
	}
	return best
}

// sortEntries orders candidates score desc, order desc, uid asc.
func sortEntries(scored []model.ScoredEntry, orders map[int]int, pool *model.CandidatePool) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		oi := orderOf(pool.EntryByUID(scored[i].UID), orders)
		oj := orderOf(pool.EntryByUID(scored[j].UID), orders)
		if oi != oj {
			return oi > oj
		}
		return scored[i].UID < scored[j].UID
	})
}
