// Package scope turns a loaded vault into per-scope candidate pools:
// tag-based membership, frontmatter overrides, and retrieval routing.
package scope

import (
	"strings"

	"lorebook/internal/model"
	"lorebook/internal/vault"
)

// Filter selects the notes belonging to the declared scope and routes each
// into entries, fallback documents, or both. The frontmatter exclude flag
// always wins; the retrieval override beats the auto routing.
func Filter(notes []vault.Note, decl vault.ScopeDecl) *model.CandidatePool {
	pool := &model.CandidatePool{Scope: decl.Name}

	for _, note := range notes {
		if note.Exclude || !member(note, decl) {
			continue
		}

		route := note.Route
		if route == model.RouteAuto {
			route = autoRoute(note)
		}

		switch route {
		case model.RouteWorldInfo:
			pool.Entries = append(pool.Entries, toEntry(note))
		case model.RouteRag:
			pool.Documents = append(pool.Documents, toDocument(note, decl.Name))
		case model.RouteBoth:
			pool.Entries = append(pool.Entries, toEntry(note))
			pool.Documents = append(pool.Documents, toDocument(note, decl.Name))
		}
	}

	return pool
}

// All builds one pool per declared scope. A vault without declarations
// yields a single implicit scope containing every note.
func All(v *vault.Vault) []*model.CandidatePool {
	decls := v.Scopes
	if len(decls) == 0 {
		decls = []vault.ScopeDecl{{Name: "vault", Mode: vault.MatchCascade, IncludeUntagged: true}}
	}

	pools := make([]*model.CandidatePool, 0, len(decls))
	for _, decl := range decls {
		pools = append(pools, Filter(v.Notes, decl))
	}
	return pools
}

// RootUID resolves the scope's declared root note, or zero.
func RootUID(v *vault.Vault, decl vault.ScopeDecl) int {
	if decl.Root == "" {
		return 0
	}
	uid, ok := v.Resolve(decl.Root)
	if !ok {
		return 0
	}
	return uid
}

// member applies the scope's membership mode.
func member(note vault.Note, decl vault.ScopeDecl) bool {
	if len(note.Tags) == 0 {
		return decl.IncludeUntagged
	}
	if decl.Tag == "" {
		return true
	}

	for _, tag := range note.Tags {
		if tag == decl.Tag {
			return true
		}
		if decl.Mode == vault.MatchCascade && strings.HasPrefix(tag, decl.Tag+"/") {
			return true
		}
	}
	return false
}

// autoRoute sends keyed or constant notes to world-info and the rest to
// the fallback corpus.
func autoRoute(note vault.Note) model.RetrievalRoute {
	if note.Constant || note.Vectorized || len(note.Keys) > 0 {
		return model.RouteWorldInfo
	}
	return model.RouteRag
}

func toEntry(note vault.Note) model.Entry {
	content := note.WorldInfo
	if content == "" {
		content = note.Body
	}
	e := model.Entry{
		UID:           note.UID,
		Title:         note.Title,
		Keys:          note.Keys,
		SecondaryKeys: note.SecondaryKeys,
		Content:       content,
		Body:          note.Body,
		Logic:         note.Logic,
		Probability:   note.Probability,
		ScanDepth:     note.ScanDepth,
		ContainerPath: note.ContainerPath,
		GroupWeight:   note.GroupWeight,
	}
	model.NormalizeEntry(&e, note.Constant, note.Vectorized, note.Selective)
	return e
}

func toDocument(note vault.Note, scope string) model.Document {
	return model.Document{
		UID:     note.UID,
		Scope:   scope,
		Path:    note.Path,
		Title:   note.Title,
		Content: note.Body,
		Route:   note.Route,
	}
}
