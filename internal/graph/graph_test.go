package graph

import (
	"math"
	"testing"

	"lorebook/internal/model"
)

func testEntries() []model.Entry {
	return []model.Entry{
		{UID: 1, Title: "Capital", Body: "The [[Queen]] rules from here. See [[Harbor]]."},
		{UID: 2, Title: "Queen", Body: "Resides in the [[Capital]]."},
		{UID: 3, Title: "Harbor", Body: "Ships arrive daily."},
		{UID: 4, Title: "Ruins", Body: "Linked to [[Nowhere]] and [[Queen]]."},
	}
}

func testResolver() LinkResolver {
	byTitle := map[string]int{"Capital": 1, "Queen": 2, "Harbor": 3, "Ruins": 4}
	return func(raw string) (int, bool) {
		uid, ok := byTitle[raw]
		return uid, ok
	}
}

func TestBuild(t *testing.T) {
	g := Build(testEntries(), testResolver())

	if g.NumNodes() != 4 {
		t.Fatalf("NumNodes = %d, want 4", g.NumNodes())
	}
	// 1->2, 1->3, 2->1, 4->2; [[Nowhere]] silently dropped.
	if g.NumEdges() != 4 {
		t.Fatalf("NumEdges = %d, want 4", g.NumEdges())
	}

	out := g.OutNeighbors(1)
	if len(out) != 2 || out[0] != 2 || out[1] != 3 {
		t.Errorf("OutNeighbors(1) = %v, want [2 3]", out)
	}
	if g.InDegree(2) != 2 {
		t.Errorf("InDegree(2) = %d, want 2", g.InDegree(2))
	}
	if g.OutDegree(3) != 0 {
		t.Errorf("OutDegree(3) = %d, want 0", g.OutDegree(3))
	}
	if g.Degree(1) != 3 {
		t.Errorf("Degree(1) = %d, want 3", g.Degree(1))
	}
}

func TestBuildDropsSelfLoopsAndDuplicates(t *testing.T) {
	entries := []model.Entry{
		{UID: 1, Title: "A", Body: "[[A]] links to [[B]] and again [[B]]."},
		{UID: 2, Title: "B", Body: ""},
	}
	resolve := func(raw string) (int, bool) {
		switch raw {
		case "A":
			return 1, true
		case "B":
			return 2, true
		}
		return 0, false
	}

	g := Build(entries, resolve)
	if g.NumEdges() != 1 {
		t.Errorf("NumEdges = %d, want 1 (self-loop and duplicate collapsed)", g.NumEdges())
	}
}

func TestBuildAliasLinks(t *testing.T) {
	entries := []model.Entry{
		{UID: 1, Title: "A", Body: "See [[B|her majesty]]."},
		{UID: 2, Title: "B", Body: ""},
	}
	g := Build(entries, testResolverFor(map[string]int{"A": 1, "B": 2}))
	if g.NumEdges() != 1 {
		t.Errorf("NumEdges = %d, want 1 (alias form resolves)", g.NumEdges())
	}
}

func testResolverFor(byTitle map[string]int) LinkResolver {
	return func(raw string) (int, bool) {
		uid, ok := byTitle[raw]
		return uid, ok
	}
}

func TestBFSDistances(t *testing.T) {
	g := Build(testEntries(), testResolver())

	t.Run("from root", func(t *testing.T) {
		dist := g.BFSDistances(1)
		want := map[int]int{1: 0, 2: 1, 3: 1}
		if len(dist) != len(want) {
			t.Fatalf("BFSDistances(1) = %v, want %v", dist, want)
		}
		for uid, d := range want {
			if dist[uid] != d {
				t.Errorf("dist[%d] = %d, want %d", uid, dist[uid], d)
			}
		}
		if _, ok := dist[4]; ok {
			t.Error("unreached node 4 must be absent, not zero")
		}
	})

	t.Run("unknown root", func(t *testing.T) {
		if dist := g.BFSDistances(99); len(dist) != 0 {
			t.Errorf("BFSDistances(99) = %v, want empty", dist)
		}
	})
}

func TestBuildFromLinks(t *testing.T) {
	entries := []model.Entry{{UID: 1}, {UID: 2}}
	links := []model.EntryLink{
		{FromUID: 1, ToUID: 2},
		{FromUID: 1, ToUID: 2}, // duplicate
		{FromUID: 1, ToUID: 1}, // self-loop
		{FromUID: 1, ToUID: 7}, // outside pool
		{FromUID: 7, ToUID: 2}, // outside pool
	}
	g := BuildFromLinks(entries, links)
	if g.NumEdges() != 1 {
		t.Errorf("NumEdges = %d, want 1", g.NumEdges())
	}
}

func TestPageRank(t *testing.T) {
	g := Build(testEntries(), testResolver())
	pr := g.PageRank(DefaultPageRankOptions())

	sum := 0.0
	for _, s := range pr {
		sum += s
	}
	if math.Abs(sum-1.0) > 1e-6 {
		t.Errorf("PageRank scores sum to %v, want 1", sum)
	}

	// Node 2 has two in-links (from 1 and 4), node 4 has none.
	if pr[2] <= pr[4] {
		t.Errorf("pr[2] = %v should exceed pr[4] = %v", pr[2], pr[4])
	}
}

func TestPageRankEmptyGraph(t *testing.T) {
	g := Build(nil, nil)
	if pr := g.PageRank(DefaultPageRankOptions()); len(pr) != 0 {
		t.Errorf("PageRank on empty graph = %v, want empty", pr)
	}
}

func TestBetweenness(t *testing.T) {
	// Path graph 1 -> 2 -> 3: node 2 sits on the only 1->3 shortest path.
	entries := []model.Entry{
		{UID: 1, Body: "[[B]]"},
		{UID: 2, Body: "[[C]]"},
		{UID: 3, Body: ""},
	}
	g := Build(entries, testResolverFor(map[string]int{"A": 1, "B": 2, "C": 3}))

	bc := g.Betweenness()
	if bc[2] != 1 {
		t.Errorf("betweenness of middle node = %v, want 1", bc[2])
	}
	if bc[1] != 0 || bc[3] != 0 {
		t.Errorf("endpoints should have zero betweenness, got %v / %v", bc[1], bc[3])
	}
}
