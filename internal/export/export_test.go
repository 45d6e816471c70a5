package export

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lorebook/internal/model"
	"lorebook/internal/output"
)

func testEntries() []model.Entry {
	return []model.Entry{
		{UID: 3, Title: "Queen", Keys: []string{"queen"}, Content: "The queen rules.",
			Mode: model.TriggerSelective, Probability: 100, ScanDepth: 4, Order: 12},
		{UID: 1, Title: "Rules", Content: "Magic is rare.",
			Mode: model.TriggerConstant, Probability: 100, ScanDepth: 4, Order: 3},
	}
}

func fixedExporter() *Exporter {
	x := New("lorebook", "1.0.0", nil)
	x.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return x
}

func TestLorebook(t *testing.T) {
	data, err := fixedExporter().Lorebook("campaign", testEntries(), Settings{TokenBudget: 2048})
	if err != nil {
		t.Fatalf("Lorebook() = %v", err)
	}

	t.Run("valid json with expected shape", func(t *testing.T) {
		var parsed struct {
			Entries  map[string]EntryRecord `json:"entries"`
			Meta     Meta                   `json:"meta"`
			Settings Settings               `json:"settings"`
		}
		if err := json.Unmarshal(data, &parsed); err != nil {
			t.Fatalf("invalid json: %v\n%s", err, data)
		}
		if len(parsed.Entries) != 2 {
			t.Fatalf("got %d entries", len(parsed.Entries))
		}
		if parsed.Settings.TokenBudget != 2048 {
			t.Errorf("settings = %+v", parsed.Settings)
		}
		if parsed.Meta.Scope != "campaign" || parsed.Meta.Tool != "lorebook" {
			t.Errorf("meta = %+v", parsed.Meta)
		}
	})

	t.Run("entries keyed by uid in input order", func(t *testing.T) {
		// uid 3 was passed first, so its key must appear first.
		if i3, i1 := strings.Index(string(data), `"3":`), strings.Index(string(data), `"1":`); i3 < 0 || i1 < 0 || i3 > i1 {
			t.Errorf("key order wrong: %s", data)
		}
	})

	t.Run("trigger booleans are mutually exclusive", func(t *testing.T) {
		for _, e := range testEntries() {
			rec := Record(e)
			count := 0
			for _, flag := range []bool{rec.Constant, rec.Vectorized, rec.Selective} {
				if flag {
					count++
				}
			}
			if count != 1 {
				t.Errorf("uid %d: %d trigger flags set", e.UID, count)
			}
		}
	})

	t.Run("empty keys encode as arrays", func(t *testing.T) {
		rec, err := json.Marshal(Record(model.Entry{UID: 1}))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(rec), `"key":[]`) || !strings.Contains(string(rec), `"keysecondary":[]`) {
			t.Errorf("nil keys encoded as null: %s", rec)
		}
	})

	t.Run("snapshot-stable modulo generatedAt", func(t *testing.T) {
		x := New("lorebook", "1.0.0", nil)
		later, err := x.Lorebook("campaign", testEntries(), Settings{TokenBudget: 2048})
		if err != nil {
			t.Fatal(err)
		}
		if ok, msg := output.CompareSnapshots(data, later); !ok {
			t.Errorf("exports differ beyond timestamp: %s", msg)
		}
	})
}

func TestRecord(t *testing.T) {
	e := model.Entry{UID: 5, Title: "Harbor", Keys: []string{"harbor"}, Content: "c",
		Mode: model.TriggerSelective, Logic: model.LogicAndAll, Probability: 60, ScanDepth: 7, GroupWeight: 2, Order: 9}
	rec := Record(e)
	if rec.UID != 5 || rec.Comment != "Harbor" || rec.SelectiveLogic != int(model.LogicAndAll) {
		t.Errorf("rec = %+v", rec)
	}
	if !rec.UseProbability || rec.Probability != 60 {
		t.Errorf("probability: %+v", rec)
	}
	if rec.Depth != 7 || rec.Order != 9 {
		t.Errorf("depth/order: %+v", rec)
	}
}

func TestArchiveRoundTrip(t *testing.T) {
	x := fixedExporter()
	data, err := x.Lorebook("campaign", testEntries(), Settings{})
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "campaign.json.zst")
	if err := x.WriteArchive(path, data); err != nil {
		t.Fatalf("WriteArchive() = %v", err)
	}
	back, err := ReadArchive(path)
	if err != nil {
		t.Fatalf("ReadArchive() = %v", err)
	}
	if string(back) != string(data) {
		t.Error("archive round trip lost data")
	}
}

func TestMarkdown(t *testing.T) {
	ctx := &model.AssembledContext{
		RunID:       "run-1",
		Scope:       "campaign",
		TokenBudget: 1000,
		UsedTokens:  120,
		WorldInfo: []model.SelectedEntry{
			{UID: 1, Title: "Queen", Score: 120.5, Tier: model.TierFull, Tokens: 80},
		},
		Rag: []model.SelectedDocument{
			{UID: 9, ChunkID: "9:0", Title: "Sightings", Score: 3, Tokens: 40},
		},
		Entries:        model.DropAccounting{DroppedByBudget: []int{4, 6}},
		BodyLiftedUids: []int{1},
	}
	got := Markdown(ctx)
	for _, want := range []string{
		"# Assembled Context: campaign",
		"| 1 | Queen | 120.5 | full | 80 |",
		"| 9 | 9:0 | Sightings | 3 | 40 |",
		"by budget: 4, 6",
		"Lifted to full body: 1",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q:\n%s", want, got)
		}
	}
}
