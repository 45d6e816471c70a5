package retrieval

import (
	"sort"
	"strings"
	"unicode"

	"lorebook/internal/model"
)

// searchFallback runs the literal term-overlap search over the fallback
// corpus. Chunked documents are scored at chunk granularity; unchunked ones
// whole. Only nonzero matches are returned, each with its matched terms.
func (e *Engine) searchFallback(pool *model.CandidatePool, query model.Query) []model.ScoredDocument {
	terms := queryTerms(query.Text)
	if len(terms) == 0 {
		return nil
	}

	chunked := make(map[int]bool)
	for _, c := range pool.Chunks {
		chunked[c.DocUID] = true
	}

	titles := make(map[int]string, len(pool.Documents))
	routes := make(map[int]model.RetrievalRoute, len(pool.Documents))
	for _, d := range pool.Documents {
		titles[d.UID] = d.Title
		routes[d.UID] = d.Route
	}

	var docs []model.ScoredDocument

	for _, d := range pool.Documents {
		if !ragRoutable(d.Route) || chunked[d.UID] {
			continue
		}
		score, matched := overlapScore(d.Title, d.Content, terms)
		if score == 0 {
			continue
		}
		docs = append(docs, model.ScoredDocument{
			UID:          d.UID,
			Title:        d.Title,
			Score:        score,
			MatchedTerms: matched,
		})
	}

	for _, c := range pool.Chunks {
		if r, ok := routes[c.DocUID]; ok && !ragRoutable(r) {
			continue
		}
		title := titles[c.DocUID]
		if c.Heading != "" {
			title = c.Heading
		}
		score, matched := overlapScore(title, c.Text, terms)
		if score == 0 {
			continue
		}
		docs = append(docs, model.ScoredDocument{
			UID:          c.DocUID,
			ChunkID:      c.ChunkID,
			Title:        title,
			Score:        score,
			MatchedTerms: matched,
		})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		if docs[i].Score != docs[j].Score {
			return docs[i].Score > docs[j].Score
		}
		if docs[i].UID != docs[j].UID {
			return docs[i].UID < docs[j].UID
		}
		return docs[i].ChunkID < docs[j].ChunkID
	})

	return docs
}

func ragRoutable(r model.RetrievalRoute) bool {
	switch r {
	case model.RouteNone, model.RouteWorldInfo:
		return false
	default:
		return true
	}
}

// overlapScore counts matching query terms against title and content.
// Title hits weigh double; repeated occurrences of a term count once.
func overlapScore(title, content string, terms []string) (float64, []string) {
	lowTitle := strings.ToLower(title)
	lowContent := strings.ToLower(content)

	score := 0.0
	var matched []string
	for _, term := range terms {
		inTitle := strings.Contains(lowTitle, term)
		inContent := strings.Contains(lowContent, term)
		if !inTitle && !inContent {
			continue
		}
		matched = append(matched, term)
		if inTitle {
			score += 2
		}
		if inContent {
			score++
		}
	}
	return score, matched
}

// queryTerms tokenizes the query into lowercase terms of three or more
// characters, deduplicated, order preserved.
func queryTerms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	seen := make(map[string]bool, len(fields))
	var terms []string
	for _, f := range fields {
		if len(f) < 3 || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}
