// Package model defines the entities shared by the lorebook retrieval core:
// entries, documents, chunks, queries, and the assembled context that crosses
// the output boundary.
package model

// TriggerMode determines when an entry becomes eligible for injection.
type TriggerMode int

const (
	// TriggerSelective entries activate on keyword matches, gated by
	// their selective logic over secondary keys.
	TriggerSelective TriggerMode = iota
	// TriggerConstant entries are always active regardless of the query.
	TriggerConstant
	// TriggerVectorized entries are activated by embedding similarity;
	// the core treats their similarity score as an opaque input.
	TriggerVectorized
)

// String returns the mode name used in exports and traces.
func (m TriggerMode) String() string {
	switch m {
	case TriggerConstant:
		return "constant"
	case TriggerVectorized:
		return "vectorized"
	default:
		return "selective"
	}
}

// SelectiveLogic controls how secondary keywords combine with a primary match.
type SelectiveLogic int

const (
	// LogicAndAny requires at least one secondary keyword in addition to a primary match.
	LogicAndAny SelectiveLogic = iota
	// LogicNotAll suppresses the entry when every secondary keyword matches.
	LogicNotAll
	// LogicNotAny suppresses the entry when any secondary keyword matches.
	LogicNotAny
	// LogicAndAll requires every secondary keyword in addition to a primary match.
	LogicAndAll
)

// String returns the logic name used in exports and traces.
func (l SelectiveLogic) String() string {
	switch l {
	case LogicNotAll:
		return "not-all"
	case LogicNotAny:
		return "not-any"
	case LogicAndAll:
		return "and-all"
	default:
		return "and-any"
	}
}

// RetrievalRoute is the per-note frontmatter override for where a note's
// content may be injected from.
type RetrievalRoute int

const (
	// RouteAuto lets the engine decide between world-info and RAG.
	RouteAuto RetrievalRoute = iota
	// RouteWorldInfo restricts the note to the keyed-entry path.
	RouteWorldInfo
	// RouteRag restricts the note to the fallback full-text path.
	RouteRag
	// RouteBoth allows both paths.
	RouteBoth
	// RouteNone excludes the note from retrieval entirely.
	RouteNone
)

// ParseRetrievalRoute maps a frontmatter value to a route. Unknown values
// fall back to auto; upstream data is untrusted user content.
func ParseRetrievalRoute(s string) RetrievalRoute {
	switch s {
	case "world_info":
		return RouteWorldInfo
	case "rag":
		return RouteRag
	case "both":
		return RouteBoth
	case "none":
		return RouteNone
	default:
		return RouteAuto
	}
}

// String returns the route name used in frontmatter and exports.
func (r RetrievalRoute) String() string {
	switch r {
	case RouteWorldInfo:
		return "world_info"
	case RouteRag:
		return "rag"
	case RouteBoth:
		return "both"
	case RouteNone:
		return "none"
	default:
		return "auto"
	}
}

// Entry is a keyed context snippet (the world-info unit). Entries are
// addressed by integer uid throughout the core.
type Entry struct {
	UID           int            `json:"uid"`
	Title         string         `json:"title"`
	Keys          []string       `json:"keys"`          // primary trigger keywords, order preserved
	SecondaryKeys []string       `json:"secondaryKeys"` // secondary keywords for selective logic
	Content       string         `json:"content"`       // world-info content injected into the prompt
	Body          string         `json:"body"`          // full note body; may differ from Content
	Mode          TriggerMode    `json:"mode"`
	Logic         SelectiveLogic `json:"logic"`
	Probability   int            `json:"probability"` // 0-100
	ScanDepth     int            `json:"scanDepth"`   // 1-10
	ContainerPath string         `json:"containerPath"`
	GroupWeight   int            `json:"groupWeight"`

	// Order is the static composite-centrality priority assigned by the
	// priority engine. Higher means more important. It is the final
	// tie-break signal for otherwise-equal retrieval scores.
	Order int `json:"order"`
}

// NormalizeEntry enforces the entry invariants on untrusted input: exactly
// one trigger mode (the raw flags may disagree; precedence is constant >
// vectorized > selective), probability clamped to 0-100, scan depth to 1-10,
// and a default logic of and-any for out-of-range ordinals.
func NormalizeEntry(e *Entry, constant, vectorized, selective bool) {
	switch {
	case constant:
		e.Mode = TriggerConstant
	case vectorized:
		e.Mode = TriggerVectorized
	case selective:
		e.Mode = TriggerSelective
	default:
		e.Mode = TriggerSelective
	}

	if e.Probability < 0 {
		e.Probability = 0
	} else if e.Probability > 100 {
		e.Probability = 100
	}

	if e.ScanDepth < 1 {
		e.ScanDepth = 1
	} else if e.ScanDepth > 10 {
		e.ScanDepth = 10
	}

	if e.Logic < LogicAndAny || e.Logic > LogicAndAll {
		e.Logic = LogicAndAny
	}
}

// EntryLink is a directed edge between two entries, derived from one entry's
// body referencing another entry's title or alias.
type EntryLink struct {
	FromUID int `json:"fromUid"`
	ToUID   int `json:"toUid"`
}
