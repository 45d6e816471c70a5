package model

import lberrors "lorebook/internal/errors"

// FallbackPolicy gates the full-text fallback search.
type FallbackPolicy string

const (
	// FallbackOff never runs the fallback search.
	FallbackOff FallbackPolicy = "off"
	// FallbackAuto runs the fallback only when seed confidence is below
	// the configured threshold.
	FallbackAuto FallbackPolicy = "auto"
	// FallbackAlways runs the fallback unconditionally.
	FallbackAlways FallbackPolicy = "always"
)

// Query domain bounds. Out-of-domain values are rejected before any
// computation rather than clamped: the caller asked for something the
// engine cannot honor.
const (
	MinGraphHops = 0
	MaxGraphHops = 3
	MinHopDecay  = 0.2
	MaxHopDecay  = 0.9
	MinRatio     = 0.1
	MaxRatio     = 0.95

	DefaultGraphHops       = 2
	DefaultHopDecay        = 0.55
	DefaultSeedThreshold   = 120.0
	DefaultWorldInfoRatio  = 0.65
	DefaultMaxEntries      = 25
	DefaultMaxRagDocuments = 8
	DefaultVectorThreshold = 0.5
)

// Query is a single retrieval request against one scope's candidate pool.
type Query struct {
	Text        string `json:"text"`
	TokenBudget int    `json:"tokenBudget"`

	MaxGraphHops int     `json:"maxGraphHops"`
	HopDecay     float64 `json:"hopDecay"`

	FallbackPolicy FallbackPolicy `json:"fallbackPolicy"`
	// SeedThreshold is the seed-confidence level below which an auto
	// fallback triggers.
	SeedThreshold float64 `json:"seedThreshold"`

	MaxEntries      int `json:"maxEntries"`
	MaxRagDocuments int `json:"maxRagDocuments"`

	// WorldInfoRatio is the fraction of the token budget reserved for
	// entries; the remainder goes to fallback documents.
	WorldInfoRatio float64 `json:"worldInfoRatio"`

	// TraverseInbound also expands seeds along incoming edges.
	TraverseInbound bool `json:"traverseInbound"`

	// VectorScores carries opaque embedding-similarity scores per entry
	// uid, supplied by the caller. Vectorized entries seed when their
	// similarity reaches VectorThreshold.
	VectorScores    map[int]float64 `json:"vectorScores,omitempty"`
	VectorThreshold float64         `json:"vectorThreshold"`
}

// NewQuery returns a query with engine defaults for everything but the text
// and budget.
func NewQuery(text string, tokenBudget int) Query {
	return Query{
		Text:            text,
		TokenBudget:     tokenBudget,
		MaxGraphHops:    DefaultGraphHops,
		HopDecay:        DefaultHopDecay,
		FallbackPolicy:  FallbackAuto,
		SeedThreshold:   DefaultSeedThreshold,
		MaxEntries:      DefaultMaxEntries,
		MaxRagDocuments: DefaultMaxRagDocuments,
		WorldInfoRatio:  DefaultWorldInfoRatio,
		VectorThreshold: DefaultVectorThreshold,
	}
}

// Validate rejects out-of-domain queries with an INVALID_QUERY error.
// A zero-valued optional field is filled with its default instead.
func (q *Query) Validate() error {
	if q.TokenBudget <= 0 {
		return lberrors.Invalidf("tokenBudget must be positive, got %d", q.TokenBudget)
	}

	if q.MaxGraphHops < MinGraphHops || q.MaxGraphHops > MaxGraphHops {
		return lberrors.Invalidf("maxGraphHops %d outside [%d,%d]", q.MaxGraphHops, MinGraphHops, MaxGraphHops)
	}

	if q.HopDecay == 0 {
		q.HopDecay = DefaultHopDecay
	}
	if q.HopDecay < MinHopDecay || q.HopDecay > MaxHopDecay {
		return lberrors.Invalidf("hopDecay %.2f outside [%.2f,%.2f]", q.HopDecay, MinHopDecay, MaxHopDecay)
	}

	if q.WorldInfoRatio == 0 {
		q.WorldInfoRatio = DefaultWorldInfoRatio
	}
	if q.WorldInfoRatio < MinRatio || q.WorldInfoRatio > MaxRatio {
		return lberrors.Invalidf("worldInfoRatio %.2f outside [%.2f,%.2f]", q.WorldInfoRatio, MinRatio, MaxRatio)
	}

	switch q.FallbackPolicy {
	case "":
		q.FallbackPolicy = FallbackAuto
	case FallbackOff, FallbackAuto, FallbackAlways:
	default:
		return lberrors.Invalidf("unknown fallback policy %q", q.FallbackPolicy)
	}

	if q.SeedThreshold == 0 {
		q.SeedThreshold = DefaultSeedThreshold
	}
	if q.MaxEntries <= 0 {
		q.MaxEntries = DefaultMaxEntries
	}
	if q.MaxRagDocuments <= 0 {
		q.MaxRagDocuments = DefaultMaxRagDocuments
	}
	if q.VectorThreshold <= 0 {
		q.VectorThreshold = DefaultVectorThreshold
	}

	return nil
}
