package budget

import (
	"strings"
	"testing"
	"unicode/utf8"

	"lorebook/internal/model"
)

func scoredList(uids ...int) []model.ScoredEntry {
	out := make([]model.ScoredEntry, len(uids))
	for i, uid := range uids {
		out[i] = model.ScoredEntry{UID: uid, Score: float64(100 - i)}
	}
	return out
}

func poolWith(entries ...model.Entry) *model.CandidatePool {
	return &model.CandidatePool{Scope: "test", Entries: entries}
}

func newAllocator() *Allocator {
	return NewAllocator(DefaultLiftOptions(), nil)
}

func TestAllocateBasics(t *testing.T) {
	pool := poolWith(
		model.Entry{UID: 1, Title: "A", Content: strings.Repeat("alpha ", 20)},
		model.Entry{UID: 2, Title: "B", Content: strings.Repeat("beta ", 20)},
	)
	q := model.NewQuery("x", 10000)

	ctx := newAllocator().Allocate(pool, scoredList(1, 2), nil, model.FallbackTrace{}, q)

	if len(ctx.WorldInfo) != 2 {
		t.Fatalf("selected %d, want 2", len(ctx.WorldInfo))
	}
	if ctx.UsedTokens > ctx.TokenBudget {
		t.Errorf("usedTokens %d exceeds budget %d", ctx.UsedTokens, ctx.TokenBudget)
	}
	if ctx.UsedTokens == 0 {
		t.Error("usedTokens should be nonzero")
	}
}

func TestBudgetTooSmall(t *testing.T) {
	// Scenario D: nothing fits even at the short tier.
	pool := poolWith(
		model.Entry{UID: 1, Content: strings.Repeat("x", 400)},
		model.Entry{UID: 2, Content: strings.Repeat("y", 400)},
	)
	q := model.NewQuery("x", 10)
	q.WorldInfoRatio = 0.5 // entry budget 5 tokens, short tier needs ~65

	ctx := newAllocator().Allocate(pool, scoredList(1, 2), nil, model.FallbackTrace{}, q)

	if len(ctx.WorldInfo) != 0 {
		t.Fatalf("worldInfo must be empty, got %d", len(ctx.WorldInfo))
	}
	if len(ctx.Entries.DroppedByBudget) != 2 {
		t.Errorf("droppedByBudget = %v, want both uids", ctx.Entries.DroppedByBudget)
	}
	if ctx.UsedTokens != 0 {
		t.Errorf("usedTokens = %d, want 0", ctx.UsedTokens)
	}
}

func TestExhaustiveAccounting(t *testing.T) {
	var entries []model.Entry
	for uid := 1; uid <= 10; uid++ {
		entries = append(entries, model.Entry{UID: uid, Content: strings.Repeat("w", 200)})
	}
	pool := poolWith(entries...)

	q := model.NewQuery("x", 300)
	q.MaxEntries = 3

	ctx := newAllocator().Allocate(pool, scoredList(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), nil, model.FallbackTrace{}, q)

	seen := make(map[int]int)
	for _, s := range ctx.WorldInfo {
		seen[s.UID]++
	}
	for _, uid := range ctx.Entries.DroppedByBudget {
		seen[uid]++
	}
	for _, uid := range ctx.Entries.DroppedByLimit {
		seen[uid]++
	}
	if len(seen) != 10 {
		t.Fatalf("accounted %d uids, want 10", len(seen))
	}
	for uid, n := range seen {
		if n != 1 {
			t.Errorf("uid %d accounted %d times, want exactly once", uid, n)
		}
	}
}

func TestCountCapDropsByLimit(t *testing.T) {
	pool := poolWith(
		model.Entry{UID: 1, Content: "a"},
		model.Entry{UID: 2, Content: "b"},
		model.Entry{UID: 3, Content: "c"},
	)
	q := model.NewQuery("x", 10000)
	q.MaxEntries = 2

	ctx := newAllocator().Allocate(pool, scoredList(1, 2, 3), nil, model.FallbackTrace{}, q)
	if len(ctx.WorldInfo) != 2 {
		t.Fatalf("selected %d, want 2", len(ctx.WorldInfo))
	}
	if len(ctx.Entries.DroppedByLimit) != 1 || ctx.Entries.DroppedByLimit[0] != 3 {
		t.Errorf("droppedByLimit = %v, want [3]", ctx.Entries.DroppedByLimit)
	}
}

func TestLift(t *testing.T) {
	long := strings.Repeat("word ", 300) // 1500 chars: trims at every tier
	body := long + "and the body goes further " + strings.Repeat("more ", 100)

	t.Run("lifts into headroom and records uids", func(t *testing.T) {
		pool := poolWith(model.Entry{UID: 1, Content: long, Body: body})
		q := model.NewQuery("x", 10000)
		ctx := newAllocator().Allocate(pool, scoredList(1), nil, model.FallbackTrace{}, q)

		if len(ctx.WorldInfo) != 1 {
			t.Fatal("entry not selected")
		}
		if ctx.WorldInfo[0].Tier != model.TierFullBody {
			t.Errorf("tier = %v, want full-body", ctx.WorldInfo[0].Tier)
		}
		if len(ctx.BodyLiftedUids) != 1 || ctx.BodyLiftedUids[0] != 1 {
			t.Errorf("bodyLiftedUids = %v, want [1]", ctx.BodyLiftedUids)
		}
	})

	t.Run("no headroom means no lift", func(t *testing.T) {
		pool := poolWith(model.Entry{UID: 1, Content: long})
		q := model.NewQuery("x", 110)
		q.WorldInfoRatio = 0.7 // short tier ~66 tokens fits, medium would not

		ctx := newAllocator().Allocate(pool, scoredList(1), nil, model.FallbackTrace{}, q)
		if len(ctx.WorldInfo) != 1 {
			t.Fatal("entry not selected")
		}
		if ctx.WorldInfo[0].Tier != model.TierShort {
			t.Errorf("tier = %v, want short", ctx.WorldInfo[0].Tier)
		}
		if len(ctx.BodyLiftedUids) != 0 {
			t.Errorf("bodyLiftedUids = %v, want empty", ctx.BodyLiftedUids)
		}
	})

	t.Run("lift never evicts a lower-scored included entry", func(t *testing.T) {
		pool := poolWith(
			model.Entry{UID: 1, Content: long, Body: body},
			model.Entry{UID: 2, Content: "short and sweet"},
		)
		q := model.NewQuery("x", 1200)
		ctx := newAllocator().Allocate(pool, scoredList(1, 2), nil, model.FallbackTrace{}, q)

		found := false
		for _, s := range ctx.WorldInfo {
			if s.UID == 2 {
				found = true
			}
		}
		if !found {
			t.Error("lift evicted the lower-scored entry")
		}
		if ctx.UsedTokens > ctx.TokenBudget {
			t.Errorf("usedTokens %d exceeds budget %d", ctx.UsedTokens, ctx.TokenBudget)
		}
	})

	t.Run("zero max lifted disables lifting", func(t *testing.T) {
		pool := poolWith(model.Entry{UID: 1, Content: long, Body: body})
		alloc := NewAllocator(LiftOptions{MaxLifted: 0, PerEntryTokenCap: 2048}, nil)
		q := model.NewQuery("x", 10000)

		ctx := alloc.Allocate(pool, scoredList(1), nil, model.FallbackTrace{}, q)
		if len(ctx.WorldInfo) != 1 {
			t.Fatal("entry not selected")
		}
		if ctx.WorldInfo[0].Tier != model.TierShort {
			t.Errorf("tier = %v, want short", ctx.WorldInfo[0].Tier)
		}
		if len(ctx.BodyLiftedUids) != 0 {
			t.Errorf("bodyLiftedUids = %v, want empty", ctx.BodyLiftedUids)
		}
	})

	t.Run("explicit per-entry cap survives option fill", func(t *testing.T) {
		// A cap below the medium rendering blocks every lift.
		pool := poolWith(model.Entry{UID: 1, Content: long, Body: body})
		alloc := NewAllocator(LiftOptions{MaxLifted: 6, PerEntryTokenCap: 100}, nil)
		q := model.NewQuery("x", 10000)

		ctx := alloc.Allocate(pool, scoredList(1), nil, model.FallbackTrace{}, q)
		if len(ctx.BodyLiftedUids) != 0 {
			t.Errorf("bodyLiftedUids = %v, want empty under a tight cap", ctx.BodyLiftedUids)
		}
	})

	t.Run("respects max lifted cap", func(t *testing.T) {
		var entries []model.Entry
		var scored []model.ScoredEntry
		for uid := 1; uid <= 5; uid++ {
			entries = append(entries, model.Entry{UID: uid, Content: long})
			scored = append(scored, model.ScoredEntry{UID: uid, Score: float64(10 - uid)})
		}
		alloc := NewAllocator(LiftOptions{MaxLifted: 2, PerEntryTokenCap: 2048}, nil)
		q := model.NewQuery("x", 50000)

		ctx := alloc.Allocate(poolWith(entries...), scored, nil, model.FallbackTrace{}, q)
		if len(ctx.BodyLiftedUids) != 2 {
			t.Errorf("lifted %d entries, want 2", len(ctx.BodyLiftedUids))
		}
	})
}

func TestAllocateIdempotent(t *testing.T) {
	pool := poolWith(
		model.Entry{UID: 1, Content: strings.Repeat("a", 500)},
		model.Entry{UID: 2, Content: strings.Repeat("b", 500)},
		model.Entry{UID: 3, Content: strings.Repeat("c", 500)},
	)
	scored := scoredList(1, 2, 3)
	q := model.NewQuery("x", 400)

	first := newAllocator().Allocate(pool, scored, nil, model.FallbackTrace{}, q)
	second := newAllocator().Allocate(pool, scored, nil, model.FallbackTrace{}, q)

	if len(first.WorldInfo) != len(second.WorldInfo) || first.UsedTokens != second.UsedTokens {
		t.Errorf("allocation not idempotent: %+v vs %+v", first, second)
	}
}

func TestDocumentSelection(t *testing.T) {
	pool := &model.CandidatePool{
		Scope: "test",
		Documents: []model.Document{
			{UID: 10, Title: "Log", Content: strings.Repeat("d", 200)},
			{UID: 11, Title: "Huge", Content: strings.Repeat("e", 100000)},
		},
	}
	docs := []model.ScoredDocument{
		{UID: 10, Title: "Log", Score: 5},
		{UID: 11, Title: "Huge", Score: 4},
	}
	q := model.NewQuery("x", 1000)

	ctx := newAllocator().Allocate(pool, nil, docs, model.FallbackTrace{}, q)
	if len(ctx.Rag) != 1 || ctx.Rag[0].UID != 10 {
		t.Fatalf("rag = %+v, want only doc 10", ctx.Rag)
	}
	if len(ctx.Documents.DroppedByBudget) != 1 || ctx.Documents.DroppedByBudget[0] != 11 {
		t.Errorf("droppedByBudget = %v, want [11]", ctx.Documents.DroppedByBudget)
	}
	if ctx.UsedTokens > ctx.TokenBudget {
		t.Errorf("usedTokens %d exceeds budget %d", ctx.UsedTokens, ctx.TokenBudget)
	}
}

func TestEmptyPool(t *testing.T) {
	pool := &model.CandidatePool{Scope: "empty"}
	q := model.NewQuery("x", 1000)
	ctx := newAllocator().Allocate(pool, nil, nil, model.FallbackTrace{}, q)

	if len(ctx.WorldInfo) != 0 || len(ctx.Rag) != 0 || ctx.UsedTokens != 0 {
		t.Errorf("empty pool must yield empty context: %+v", ctx)
	}
	if ctx.WorldInfo == nil || ctx.Rag == nil {
		t.Error("selections must be empty slices, not nil")
	}
}

func TestTrimToWord(t *testing.T) {
	t.Run("short text untouched", func(t *testing.T) {
		if got := trimToWord("hello world", 260); got != "hello world" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("cuts at word boundary with ellipsis", func(t *testing.T) {
		s := strings.Repeat("token ", 100)
		got := trimToWord(s, 260)
		if len(got) > 263 {
			t.Errorf("len = %d, want <= 263", len(got))
		}
		if !strings.HasSuffix(got, "...") {
			t.Errorf("missing ellipsis: %q", got)
		}
		if strings.HasSuffix(strings.TrimSuffix(got, "..."), " ") {
			t.Errorf("trailing space before ellipsis: %q", got)
		}
	})

	t.Run("unbroken text hard-cuts", func(t *testing.T) {
		s := strings.Repeat("x", 300)
		got := trimToWord(s, 260)
		if len(got) != 263 {
			t.Errorf("len = %d, want 263", len(got))
		}
	})

	t.Run("multibyte text cuts on a rune boundary", func(t *testing.T) {
		s := strings.Repeat("龍", 300)
		got := trimToWord(s, 260)
		if !utf8.ValidString(got) {
			t.Fatalf("invalid UTF-8: %q", got)
		}
		if !strings.HasSuffix(got, "...") {
			t.Errorf("missing ellipsis: %q", got)
		}
		if len(got) > 263 {
			t.Errorf("len = %d, want <= 263", len(got))
		}
	})
}
