package model

// Document is a fallback full-text unit scored only when graph-based
// retrieval confidence is low (or the fallback policy forces it).
type Document struct {
	UID     int    `json:"uid"`
	Scope   string `json:"scope"`
	Path    string `json:"path"`
	Title   string `json:"title"`
	Content string `json:"content"`

	// Route is the per-note frontmatter retrieval override.
	Route RetrievalRoute `json:"route"`
}

// Chunk is a sub-document fallback unit. Chunking is optional; a corpus may
// carry whole documents, chunks, or both.
type Chunk struct {
	ChunkID     string `json:"chunkId"`
	DocUID      int    `json:"docUid"`
	Index       int    `json:"index"`
	Heading     string `json:"heading"`
	Text        string `json:"text"`
	ContentHash string `json:"contentHash"`
	TokenCount  int    `json:"tokenCount"`
	StartByte   int    `json:"startByte"`
	EndByte     int    `json:"endByte"`
}

// CandidatePool is the scope-filtered set of entries and fallback units the
// core operates on. It is built by a collaborator, read-only to the core,
// and rebuilt whenever the underlying vault changes.
type CandidatePool struct {
	Scope     string     `json:"scope"`
	Entries   []Entry    `json:"entries"`
	Documents []Document `json:"documents"`
	Chunks    []Chunk    `json:"chunks"`
}

// Empty reports whether the pool carries no candidates at all. An empty
// pool is not an error; it yields an empty, well-formed assembled context.
func (p *CandidatePool) Empty() bool {
	return len(p.Entries) == 0 && len(p.Documents) == 0 && len(p.Chunks) == 0
}

// EntryByUID returns the entry with the given uid, or nil.
func (p *CandidatePool) EntryByUID(uid int) *Entry {
	for i := range p.Entries {
		if p.Entries[i].UID == uid {
			return &p.Entries[i]
		}
	}
	return nil
}
