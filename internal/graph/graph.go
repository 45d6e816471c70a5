// Package graph builds the directed link graph over candidate entries and
// provides the centrality measures the priority engine consumes.
package graph

import (
	"regexp"
	"sort"

	"lorebook/internal/model"
)

// LinkResolver maps a raw reference string (the inside of a wikilink) to a
// target entry uid. The second return is false when the reference resolves
// to nothing; such references are silently dropped.
type LinkResolver func(raw string) (int, bool)

// wikilinkPattern matches [[Target]] and [[Target|alias]] references.
var wikilinkPattern = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|[^\[\]]*)?\]\]`)

// Graph is an immutable snapshot of the entry link graph. Entries are
// addressed by uid through a dense index table; adjacency is stored as
// index-based lists since the link graph is frequently cyclic.
type Graph struct {
	uids    []int       // dense index -> uid
	uidIdx  map[int]int // uid -> dense index
	out     [][]int     // dense index -> outbound neighbor indices
	in      [][]int     // dense index -> inbound neighbor indices
	numEdge int
}

// Build constructs the graph from the pool's entries. Outbound references
// are extracted from each entry's body via the resolver; an edge is added
// only when the target uid exists in the pool. Self-loops are skipped and
// duplicate edges collapse to one. Build is a pure function of its inputs.
func Build(entries []model.Entry, resolve LinkResolver) *Graph {
	g := &Graph{
		uidIdx: make(map[int]int, len(entries)),
	}

	for _, e := range entries {
		g.addNode(e.UID)
	}

	seen := make(map[[2]int]bool)
	for _, e := range entries {
		from := g.uidIdx[e.UID]
		for _, m := range wikilinkPattern.FindAllStringSubmatch(e.Body, -1) {
			if resolve == nil {
				break
			}
			target, ok := resolve(m[1])
			if !ok {
				continue
			}
			to, ok := g.uidIdx[target]
			if !ok || to == from {
				continue
			}
			key := [2]int{from, to}
			if seen[key] {
				continue
			}
			seen[key] = true
			g.out[from] = append(g.out[from], to)
			g.in[to] = append(g.in[to], from)
			g.numEdge++
		}
	}

	// Stable neighbor order regardless of map iteration upstream.
	for i := range g.out {
		sort.Ints(g.out[i])
		sort.Ints(g.in[i])
	}

	return g
}

// BuildFromLinks constructs the graph from pre-resolved entry links, for
// callers that already extracted references.
func BuildFromLinks(entries []model.Entry, links []model.EntryLink) *Graph {
	g := &Graph{
		uidIdx: make(map[int]int, len(entries)),
	}
	for _, e := range entries {
		g.addNode(e.UID)
	}

	seen := make(map[[2]int]bool)
	for _, l := range links {
		from, ok := g.uidIdx[l.FromUID]
		if !ok {
			continue
		}
		to, ok := g.uidIdx[l.ToUID]
		if !ok || to == from {
			continue
		}
		key := [2]int{from, to}
		if seen[key] {
			continue
		}
		seen[key] = true
		g.out[from] = append(g.out[from], to)
		g.in[to] = append(g.in[to], from)
		g.numEdge++
	}

	for i := range g.out {
		sort.Ints(g.out[i])
		sort.Ints(g.in[i])
	}

	return g
}

func (g *Graph) addNode(uid int) int {
	if idx, ok := g.uidIdx[uid]; ok {
		return idx
	}
	idx := len(g.uids)
	g.uids = append(g.uids, uid)
	g.uidIdx[uid] = idx
	g.out = append(g.out, nil)
	g.in = append(g.in, nil)
	return idx
}

// NumNodes returns the number of nodes in the graph.
func (g *Graph) NumNodes() int {
	return len(g.uids)
}

// NumEdges returns the number of distinct directed edges.
func (g *Graph) NumEdges() int {
	return g.numEdge
}

// HasNode reports whether uid exists in the graph.
func (g *Graph) HasNode(uid int) bool {
	_, ok := g.uidIdx[uid]
	return ok
}

// OutNeighbors returns the uids this entry links to, in ascending order.
func (g *Graph) OutNeighbors(uid int) []int {
	idx, ok := g.uidIdx[uid]
	if !ok {
		return nil
	}
	return g.toUIDs(g.out[idx])
}

// InNeighbors returns the uids linking to this entry, in ascending order.
func (g *Graph) InNeighbors(uid int) []int {
	idx, ok := g.uidIdx[uid]
	if !ok {
		return nil
	}
	return g.toUIDs(g.in[idx])
}

// OutDegree returns the number of outbound edges from uid.
func (g *Graph) OutDegree(uid int) int {
	idx, ok := g.uidIdx[uid]
	if !ok {
		return 0
	}
	return len(g.out[idx])
}

// InDegree returns the number of inbound edges to uid.
func (g *Graph) InDegree(uid int) int {
	idx, ok := g.uidIdx[uid]
	if !ok {
		return 0
	}
	return len(g.in[idx])
}

// Degree returns the total degree of uid.
func (g *Graph) Degree(uid int) int {
	return g.InDegree(uid) + g.OutDegree(uid)
}

// BFSDistances returns hop distances from root to every reachable node,
// following outbound edges. Unreached nodes are absent from the map. An
// unknown root yields an empty map.
func (g *Graph) BFSDistances(rootUID int) map[int]int {
	dist := make(map[int]int)
	rootIdx, ok := g.uidIdx[rootUID]
	if !ok {
		return dist
	}

	idxDist := make([]int, len(g.uids))
	for i := range idxDist {
		idxDist[i] = -1
	}
	idxDist[rootIdx] = 0

	queue := []int{rootIdx}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range g.out[cur] {
			if idxDist[nb] < 0 {
				idxDist[nb] = idxDist[cur] + 1
				queue = append(queue, nb)
			}
		}
	}

	for i, d := range idxDist {
		if d >= 0 {
			dist[g.uids[i]] = d
		}
	}
	return dist
}

func (g *Graph) toUIDs(indices []int) []int {
	uids := make([]int, len(indices))
	for i, idx := range indices {
		uids[i] = g.uids[idx]
	}
	sort.Ints(uids)
	return uids
}

// UIDs returns every node uid in ascending order.
func (g *Graph) UIDs() []int {
	uids := make([]int, len(g.uids))
	copy(uids, g.uids)
	sort.Ints(uids)
	return uids
}
