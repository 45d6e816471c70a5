package model

// ScoreBreakdown explains how a candidate's total score was composed.
type ScoreBreakdown struct {
	Seed     float64 `json:"seed"`     // direct keyword/constant seed score
	Graph    float64 `json:"graph"`    // decayed score inherited through the link graph
	Constant float64 `json:"constant"` // constant-mode inclusion bonus
	Order    float64 `json:"order"`    // normalized static priority prior
}

// ScoredEntry is an entry candidate emitted by the retrieval engine, with
// full match provenance for the explainability trace.
type ScoredEntry struct {
	UID       int            `json:"uid"`
	Score     float64        `json:"score"`
	Breakdown ScoreBreakdown `json:"breakdown"`

	// MatchedKeys lists the primary/secondary keywords that matched the
	// query text. Empty for purely graph-reached candidates.
	MatchedKeys []string `json:"matchedKeys,omitempty"`

	// HopDistance is the shortest number of graph hops from a seed.
	// Zero for seeds themselves.
	HopDistance int `json:"hopDistance"`

	// SeedUID is the seed whose shortest route reached this candidate.
	// Equal to UID for seeds. The graph score may come from a longer,
	// stronger route.
	SeedUID int `json:"seedUid"`

	// Path is the uid sequence of that shortest route, seed first.
	Path []int `json:"path,omitempty"`

	// Reasons are human-readable inclusion markers ("constant",
	// "keyword:dragon", "graph:2-hops-from:12").
	Reasons []string `json:"reasons,omitempty"`
}

// ScoredDocument is a fallback document or chunk candidate with the literal
// query terms that matched it.
type ScoredDocument struct {
	UID          int      `json:"uid"`
	ChunkID      string   `json:"chunkId,omitempty"`
	Title        string   `json:"title"`
	Score        float64  `json:"score"`
	MatchedTerms []string `json:"matchedTerms"`
}
