package retrieval

import (
	"fmt"
	"strings"

	"lorebook/internal/model"
)

// seed is an entry that retrieval expansion starts from.
type seed struct {
	uid      int
	score    float64 // seed component (keyword match) only
	bonus    float64 // constant component only
	constant bool
	matched  []string
	reasons  []string
}

// matchSeeds runs Stage A. Constant entries always seed at zero match cost.
// Selective entries seed on a case-insensitive primary keyword match, gated
// by their selective logic over secondary keys. Vectorized entries seed
// from the caller-supplied similarity score. Entries with zero probability
// never trigger.
func (e *Engine) matchSeeds(entries []model.Entry, query model.Query) []seed {
	var seeds []seed
	for i := range entries {
		entry := &entries[i]
		if entry.Probability == 0 {
			continue
		}

		switch entry.Mode {
		case model.TriggerConstant:
			seeds = append(seeds, seed{
				uid:      entry.UID,
				bonus:    e.weights.ConstantBonus,
				constant: true,
				reasons:  []string{"constant"},
			})

		case model.TriggerVectorized:
			sim, ok := query.VectorScores[entry.UID]
			if ok && sim >= query.VectorThreshold {
				seeds = append(seeds, seed{
					uid:     entry.UID,
					score:   e.weights.SeedMatch * sim,
					reasons: []string{fmt.Sprintf("vector:%.2f", sim)},
				})
			}

		case model.TriggerSelective:
			if s, ok := e.matchKeywords(entry, query); ok {
				seeds = append(seeds, s)
			}
		}
	}
	return seeds
}

// matchKeywords checks primary keys against the entry's scan window of the
// query text, then applies the selective logic over secondary keys.
func (e *Engine) matchKeywords(entry *model.Entry, query model.Query) (seed, bool) {
	window := strings.ToLower(scanWindow(query.Text, entry.ScanDepth))

	var matched []string
	for _, key := range entry.Keys {
		if key != "" && strings.Contains(window, strings.ToLower(key)) {
			matched = append(matched, key)
		}
	}
	if len(matched) == 0 {
		return seed{}, false
	}

	if len(entry.SecondaryKeys) > 0 {
		var secondary []string
		for _, key := range entry.SecondaryKeys {
			if key != "" && strings.Contains(window, strings.ToLower(key)) {
				secondary = append(secondary, key)
			}
		}

		any := len(secondary) > 0
		all := len(secondary) == countNonEmpty(entry.SecondaryKeys)

		pass := false
		switch entry.Logic {
		case model.LogicAndAny:
			pass = any
		case model.LogicAndAll:
			pass = all
		case model.LogicNotAny:
			pass = !any
		case model.LogicNotAll:
			pass = !all
		}
		if !pass {
			return seed{}, false
		}
		matched = append(matched, secondary...)
	}

	score := e.weights.SeedMatch + e.weights.ExtraKeyBonus*float64(len(matched)-1)
	reasons := make([]string, 0, len(matched))
	for _, k := range matched {
		reasons = append(reasons, "keyword:"+k)
	}

	return seed{
		uid:     entry.UID,
		score:   score,
		matched: matched,
		reasons: reasons,
	}, true
}

// scanWindow returns the last depth lines of the query text. An entry's
// scan depth bounds how far back into the query context its keywords look.
func scanWindow(text string, depth int) string {
	if depth <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	if len(lines) <= depth {
		return text
	}
	return strings.Join(lines[len(lines)-depth:], "\n")
}

func countNonEmpty(keys []string) int {
	n := 0
	for _, k := range keys {
		if k != "" {
			n++
		}
	}
	return n
}

func hopReason(hops, seedUID int) string {
	return fmt.Sprintf("graph:%d-hops-from:%d", hops, seedUID)
}
