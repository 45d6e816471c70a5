// Package priority computes the static composite-centrality order used as
// the default entry ranking and the final retrieval tie-break.
package priority

import (
	"math"
	"sort"
	"strings"

	"lorebook/internal/graph"
	"lorebook/internal/model"
)

// FactorWeights controls how the seven normalized centrality factors combine
// into the raw order score.
type FactorWeights struct {
	Hierarchy   float64 `json:"hierarchy"`   // BFS depth from the root entry
	InDegree    float64 `json:"inDegree"`    // how often an entry is referenced
	PageRank    float64 `json:"pageRank"`    // global link importance
	Betweenness float64 `json:"betweenness"` // bridging position in the graph
	OutDegree   float64 `json:"outDegree"`   // how much an entry references
	Degree      float64 `json:"degree"`      // total connectivity
	PathDepth   float64 `json:"pathDepth"`   // container-path nesting depth
}

// DefaultFactorWeights returns weights that favor being referenced over
// referencing, with hierarchy as the strongest single signal.
func DefaultFactorWeights() FactorWeights {
	return FactorWeights{
		Hierarchy:   30,
		InDegree:    20,
		PageRank:    20,
		Betweenness: 10,
		OutDegree:   5,
		Degree:      10,
		PathDepth:   5,
	}
}

// ComputeOrder assigns every entry an order value from the weighted sum of
// seven normalized [0,1] factors. Entries landing on the same raw order are
// separated by ascending uid, so the result is a pure function of its
// inputs. rootUID <= 0 disables the hierarchy factor.
func ComputeOrder(entries []model.Entry, g *graph.Graph, rootUID int, weights FactorWeights) map[int]int {
	orders := make(map[int]int, len(entries))
	if len(entries) == 0 {
		return orders
	}

	var dist map[int]int
	if rootUID > 0 {
		dist = g.BFSDistances(rootUID)
	}
	pr := g.PageRank(graph.DefaultPageRankOptions())
	bc := g.Betweenness()

	maxDist, maxIn, maxOut, maxDeg, maxDepth := 1.0, 1.0, 1.0, 1.0, 1.0
	maxPR, maxBC := 0.0, 0.0
	for _, e := range entries {
		if d, ok := dist[e.UID]; ok && float64(d) > maxDist {
			maxDist = float64(d)
		}
		if v := float64(g.InDegree(e.UID)); v > maxIn {
			maxIn = v
		}
		if v := float64(g.OutDegree(e.UID)); v > maxOut {
			maxOut = v
		}
		if v := float64(g.Degree(e.UID)); v > maxDeg {
			maxDeg = v
		}
		if v := float64(pathDepth(e.ContainerPath)); v > maxDepth {
			maxDepth = v
		}
		if pr[e.UID] > maxPR {
			maxPR = pr[e.UID]
		}
		if bc[e.UID] > maxBC {
			maxBC = bc[e.UID]
		}
	}
	if maxPR == 0 {
		maxPR = 1
	}
	if maxBC == 0 {
		maxBC = 1
	}

	raw := make(map[int]int, len(entries))
	for _, e := range entries {
		hierarchy := 0.0
		if d, ok := dist[e.UID]; ok {
			hierarchy = float64(d) / maxDist
		}

		score := weights.Hierarchy*hierarchy +
			weights.InDegree*(float64(g.InDegree(e.UID))/maxIn) +
			weights.PageRank*(pr[e.UID]/maxPR) +
			weights.Betweenness*(bc[e.UID]/maxBC) +
			weights.OutDegree*(float64(g.OutDegree(e.UID))/maxOut) +
			weights.Degree*(float64(g.Degree(e.UID))/maxDeg) +
			weights.PathDepth*(float64(pathDepth(e.ContainerPath))/maxDepth)

		order := int(math.Floor(score))
		if order < 1 {
			order = 1
		}
		raw[e.UID] = order
	}

	// Separate equal-order groups by ascending uid. The upstream behavior
	// shuffled these groups per run; a stable secondary key keeps repeated
	// runs byte-identical.
	groups := make(map[int][]int)
	for uid, order := range raw {
		groups[order] = append(groups[order], uid)
	}
	for order, uids := range groups {
		sort.Ints(uids)
		for i, uid := range uids {
			orders[uid] = order + i
		}
	}

	return orders
}

// Apply writes computed orders back onto the entries in place.
func Apply(entries []model.Entry, orders map[int]int) {
	for i := range entries {
		if o, ok := orders[entries[i].UID]; ok {
			entries[i].Order = o
		}
	}
}

// pathDepth counts the segments of a container path like "world/factions/guild".
func pathDepth(path string) int {
	path = strings.Trim(path, "/")
	if path == "" {
		return 0
	}
	return strings.Count(path, "/") + 1
}
