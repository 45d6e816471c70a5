package model

// ContentTier is one of the candidate renderings of an entry's content,
// chosen to fit the token budget.
type ContentTier int

const (
	// TierShort is a ~260 character word-boundary trimmed rendering.
	TierShort ContentTier = iota
	// TierMedium is a ~900 character word-boundary trimmed rendering.
	TierMedium
	// TierFull is the untrimmed world-info content.
	TierFull
	// TierFullBody is the full note body, used only when it differs from
	// the world-info content.
	TierFullBody
)

// String returns the tier name used in traces.
func (t ContentTier) String() string {
	switch t {
	case TierMedium:
		return "medium"
	case TierFull:
		return "full"
	case TierFullBody:
		return "full-body"
	default:
		return "short"
	}
}

// SelectedEntry is an entry that made it into the assembled context, at a
// specific content tier.
type SelectedEntry struct {
	UID    int         `json:"uid"`
	Title  string      `json:"title"`
	Score  float64     `json:"score"`
	Tier   ContentTier `json:"tier"`
	Text   string      `json:"text"` // the literal included rendering
	Tokens int         `json:"tokens"`
}

// SelectedDocument is a fallback unit that made it into the assembled context.
type SelectedDocument struct {
	UID     int     `json:"uid"`
	ChunkID string  `json:"chunkId,omitempty"`
	Title   string  `json:"title"`
	Score   float64 `json:"score"`
	Text    string  `json:"text"`
	Tokens  int     `json:"tokens"`
}

// FallbackTrace records the fallback decision for the explainability record.
type FallbackTrace struct {
	Policy     FallbackPolicy `json:"policy"`
	Ran        bool           `json:"ran"`
	Confidence float64        `json:"confidence"`
	Threshold  float64        `json:"threshold"`
}

// DropAccounting lists every retrieval candidate that was not selected,
// partitioned by the reason it was dropped. Together with the selected set
// this covers each candidate uid exactly once.
type DropAccounting struct {
	DroppedByBudget []int `json:"droppedByBudget"`
	DroppedByLimit  []int `json:"droppedByLimit"`
}

// AssembledContext is the core's sole output: the packed, explainable
// injection payload for one scope.
type AssembledContext struct {
	RunID       string `json:"runId"`
	Scope       string `json:"scope"`
	TokenBudget int    `json:"tokenBudget"`
	UsedTokens  int    `json:"usedTokens"`

	WorldInfo []SelectedEntry    `json:"worldInfo"`
	Rag       []SelectedDocument `json:"rag"`

	Fallback       FallbackTrace  `json:"fallback"`
	Entries        DropAccounting `json:"entries"`
	Documents      DropAccounting `json:"documents"`
	BodyLiftedUids []int          `json:"bodyLiftedUids"`
}
