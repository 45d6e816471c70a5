package retrieval

import (
	"math"
	"sort"

	"lorebook/internal/graph"
	"lorebook/internal/model"
)

// expand runs Stage B: bounded BFS from every seed with multiplicative hop
// decay. A node reached via multiple paths keeps its maximum graph score
// and shortest hop distance. Entries that are neither seeds nor reached are
// absent from the result, not zero-scored.
func (e *Engine) expand(pool *model.CandidatePool, g *graph.Graph, seeds []seed, query model.Query) []model.ScoredEntry {
	byUID := make(map[int]*model.ScoredEntry, len(seeds))

	for _, s := range seeds {
		byUID[s.uid] = &model.ScoredEntry{
			UID: s.uid,
			Breakdown: model.ScoreBreakdown{
				Seed:     s.score,
				Constant: s.bonus,
			},
			MatchedKeys: s.matched,
			SeedUID:     s.uid,
			Path:        []int{s.uid},
			Reasons:     s.reasons,
		}
	}

	if query.MaxGraphHops > 0 {
		for _, s := range seeds {
			e.expandFrom(pool, g, s, query, byUID)
		}
	}

	scored := make([]model.ScoredEntry, 0, len(byUID))
	for _, sc := range byUID {
		scored = append(scored, *sc)
	}
	// Map order is random; normalize before the caller's final sort.
	sort.Slice(scored, func(i, j int) bool { return scored[i].UID < scored[j].UID })
	return scored
}

// expandFrom walks outbound (and optionally inbound) edges from one seed,
// depositing decayed score on every node within the hop limit.
func (e *Engine) expandFrom(pool *model.CandidatePool, g *graph.Graph, s seed, query model.Query, byUID map[int]*model.ScoredEntry) {
	base := s.score + s.bonus
	if base == 0 {
		return
	}

	type visit struct {
		uid  int
		hops int
		path []int
	}

	bestHops := map[int]int{s.uid: 0}
	queue := []visit{{uid: s.uid, hops: 0, path: []int{s.uid}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.hops == query.MaxGraphHops {
			continue
		}

		neighbors := g.OutNeighbors(cur.uid)
		if query.TraverseInbound {
			neighbors = append(neighbors, g.InNeighbors(cur.uid)...)
		}

		for _, nb := range neighbors {
			hops := cur.hops + 1
			if prev, seen := bestHops[nb]; seen && prev <= hops {
				continue
			}
			bestHops[nb] = hops

			// Only pool entries receive score; the graph never holds
			// foreign uids, but the entry may have been filtered.
			entry := pool.EntryByUID(nb)
			if entry == nil {
				continue
			}

			path := make([]int, len(cur.path)+1)
			copy(path, cur.path)
			path[len(path)-1] = nb

			contribution := base * math.Pow(query.HopDecay, float64(hops))
			e.deposit(byUID, nb, s.uid, hops, path, contribution)

			queue = append(queue, visit{uid: nb, hops: hops, path: path})
		}
	}
}

// deposit records a graph-score contribution on a node. The score keeps the
// maximum contribution across paths; seed, path, and reason follow the
// shortest route, so the hop distance always matches its explanation.
func (e *Engine) deposit(byUID map[int]*model.ScoredEntry, uid, seedUID, hops int, path []int, contribution float64) {
	sc, ok := byUID[uid]
	if !ok {
		byUID[uid] = &model.ScoredEntry{
			UID:         uid,
			Breakdown:   model.ScoreBreakdown{Graph: contribution},
			HopDistance: hops,
			SeedUID:     seedUID,
			Path:        path,
			Reasons:     []string{hopReason(hops, seedUID)},
		}
		return
	}

	// Seeds keep hop distance zero and their own provenance.
	if sc.Breakdown.Seed > 0 || sc.Breakdown.Constant > 0 {
		if contribution > sc.Breakdown.Graph {
			sc.Breakdown.Graph = contribution
		}
		return
	}

	if contribution > sc.Breakdown.Graph {
		sc.Breakdown.Graph = contribution
	}
	if hops < sc.HopDistance {
		sc.HopDistance = hops
		sc.SeedUID = seedUID
		sc.Path = path
		sc.Reasons = []string{hopReason(hops, seedUID)}
	}
}
