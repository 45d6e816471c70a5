package budget

import (
	"lorebook/internal/logging"
	"lorebook/internal/model"
)

// LiftOptions bounds the second-pass tier upgrade.
type LiftOptions struct {
	// MaxLifted caps how many distinct entries may be upgraded.
	MaxLifted int
	// PerEntryTokenCap caps the rendered size any single entry may reach.
	PerEntryTokenCap int
}

// DefaultLiftOptions returns the shipped lift bounds.
func DefaultLiftOptions() LiftOptions {
	return LiftOptions{MaxLifted: 6, PerEntryTokenCap: 2048}
}

// Allocator packs scored candidates into a token budget.
type Allocator struct {
	lift   LiftOptions
	logger *logging.Logger
}

// NewAllocator creates an allocator. A MaxLifted of zero disables lifting;
// a missing per-entry cap is filled from the defaults on its own.
func NewAllocator(lift LiftOptions, logger *logging.Logger) *Allocator {
	if lift.MaxLifted < 0 {
		lift.MaxLifted = 0
	}
	if lift.PerEntryTokenCap <= 0 {
		lift.PerEntryTokenCap = DefaultLiftOptions().PerEntryTokenCap
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Allocator{lift: lift, logger: logger}
}

// Allocate splits the budget between entries and fallback documents, walks
// each list greedily in retrieval order, lifts content tiers into remaining
// headroom, and accounts for every candidate exactly once. The query must
// already be validated. Allocation is a pure function of its inputs:
// re-running it on the same retrieval output yields the same selection.
func (a *Allocator) Allocate(pool *model.CandidatePool, entries []model.ScoredEntry, docs []model.ScoredDocument, fallback model.FallbackTrace, query model.Query) model.AssembledContext {
	entryBudget := int(float64(query.TokenBudget) * query.WorldInfoRatio)
	docBudget := query.TokenBudget - entryBudget

	ctx := model.AssembledContext{
		Scope:          pool.Scope,
		TokenBudget:    query.TokenBudget,
		Fallback:       fallback,
		WorldInfo:      []model.SelectedEntry{},
		Rag:            []model.SelectedDocument{},
		BodyLiftedUids: []int{},
		Entries:        model.DropAccounting{DroppedByBudget: []int{}, DroppedByLimit: []int{}},
		Documents:      model.DropAccounting{DroppedByBudget: []int{}, DroppedByLimit: []int{}},
	}

	entryTokens := a.selectEntries(pool, entries, entryBudget, query.MaxEntries, &ctx)
	docTokens := a.selectDocuments(pool, docs, docBudget, query.MaxRagDocuments, &ctx)
	ctx.UsedTokens = entryTokens + docTokens

	a.logger.Debug("allocation complete", map[string]interface{}{
		"scope":      pool.Scope,
		"selected":   len(ctx.WorldInfo),
		"rag":        len(ctx.Rag),
		"usedTokens": ctx.UsedTokens,
		"budget":     query.TokenBudget,
	})

	return ctx
}

// selectEntries greedily includes entries at the short tier, then lifts.
// Returns the entry-side token total.
func (a *Allocator) selectEntries(pool *model.CandidatePool, entries []model.ScoredEntry, budget, maxEntries int, ctx *model.AssembledContext) int {
	used := 0
	budgetHit := false

	for _, sc := range entries {
		entry := pool.EntryByUID(sc.UID)
		if entry == nil {
			continue
		}

		if len(ctx.WorldInfo) >= maxEntries {
			ctx.Entries.DroppedByLimit = append(ctx.Entries.DroppedByLimit, sc.UID)
			continue
		}

		text := Render(entry, model.TierShort)
		cost := model.EstimateTokens(text)
		if budgetHit || used+cost > budget {
			budgetHit = true
			ctx.Entries.DroppedByBudget = append(ctx.Entries.DroppedByBudget, sc.UID)
			continue
		}

		used += cost
		ctx.WorldInfo = append(ctx.WorldInfo, model.SelectedEntry{
			UID:    sc.UID,
			Title:  entry.Title,
			Score:  sc.Score,
			Tier:   model.TierShort,
			Text:   text,
			Tokens: cost,
		})
	}

	used = a.liftEntries(pool, budget, used, ctx)
	return used
}

// liftEntries upgrades the highest-scoring included entries while headroom
// remains: short to medium, then full, then full body where it differs.
// Lifting never evicts an included entry.
func (a *Allocator) liftEntries(pool *model.CandidatePool, budget, used int, ctx *model.AssembledContext) int {
	lifted := make(map[int]bool)

	for _, tier := range []model.ContentTier{model.TierMedium, model.TierFull, model.TierFullBody} {
		// WorldInfo is already in score order; highest first.
		for i := range ctx.WorldInfo {
			sel := &ctx.WorldInfo[i]
			entry := pool.EntryByUID(sel.UID)
			if entry == nil || sel.Tier >= tier || !liftable(entry, tier) {
				continue
			}
			if !lifted[sel.UID] && len(lifted) >= a.lift.MaxLifted {
				continue
			}

			text := Render(entry, tier)
			cost := model.EstimateTokens(text)
			if cost > a.lift.PerEntryTokenCap {
				continue
			}
			delta := cost - sel.Tokens
			if delta <= 0 || used+delta > budget {
				continue
			}

			used += delta
			sel.Tier = tier
			sel.Text = text
			sel.Tokens = cost
			lifted[sel.UID] = true
		}
	}

	for _, sel := range ctx.WorldInfo {
		if lifted[sel.UID] {
			ctx.BodyLiftedUids = append(ctx.BodyLiftedUids, sel.UID)
		}
	}
	return used
}

// selectDocuments greedily includes fallback units whole; a document that
// does not fit is dropped, never truncated.
func (a *Allocator) selectDocuments(pool *model.CandidatePool, docs []model.ScoredDocument, budget, maxDocs int, ctx *model.AssembledContext) int {
	texts := make(map[int]string, len(pool.Documents))
	for _, d := range pool.Documents {
		texts[d.UID] = d.Content
	}
	chunkTexts := make(map[string]string, len(pool.Chunks))
	for _, c := range pool.Chunks {
		chunkTexts[c.ChunkID] = c.Text
	}

	used := 0
	budgetHit := false

	for _, sc := range docs {
		if len(ctx.Rag) >= maxDocs {
			ctx.Documents.DroppedByLimit = append(ctx.Documents.DroppedByLimit, sc.UID)
			continue
		}

		text := texts[sc.UID]
		if sc.ChunkID != "" {
			text = chunkTexts[sc.ChunkID]
		}
		cost := model.EstimateTokens(text)
		if budgetHit || used+cost > budget {
			budgetHit = true
			ctx.Documents.DroppedByBudget = append(ctx.Documents.DroppedByBudget, sc.UID)
			continue
		}

		used += cost
		ctx.Rag = append(ctx.Rag, model.SelectedDocument{
			UID:     sc.UID,
			ChunkID: sc.ChunkID,
			Title:   sc.Title,
			Score:   sc.Score,
			Text:    text,
			Tokens:  cost,
		})
	}

	return used
}
