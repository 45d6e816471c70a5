package vault

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	lberrors "lorebook/internal/errors"
)

// ScopesFile is the default filename for scope declarations at the vault root.
const ScopesFile = "lorebook.toml"

// MembershipMode controls how a scope tag matches note tags.
type MembershipMode string

const (
	// MatchExact requires the note tag to equal the scope tag.
	MatchExact MembershipMode = "exact"
	// MatchCascade also inherits notes tagged with a child scope
	// (scope tag "lore" matches note tag "lore/factions").
	MatchCascade MembershipMode = "cascade"
)

// ScopeDecl declares one lorebook scope in lorebook.toml.
type ScopeDecl struct {
	// Name is the scope label carried through to the assembled context.
	Name string `toml:"name"`

	// Tag is the note tag that selects members.
	Tag string `toml:"tag"`

	// Mode is the membership mode (default: cascade).
	Mode MembershipMode `toml:"mode"`

	// IncludeUntagged also admits notes carrying no tags at all.
	IncludeUntagged bool `toml:"include_untagged"`

	// Root names the note whose BFS depth anchors the hierarchy factor.
	Root string `toml:"root,omitempty"`
}

// scopesFile is the root structure of lorebook.toml.
type scopesFile struct {
	Version int         `toml:"version"`
	Scopes  []ScopeDecl `toml:"scope"`
}

// LoadScopes parses the scope declaration file. A missing file is not an
// error: the vault then has a single implicit all-notes scope.
func LoadScopes(path string) ([]ScopeDecl, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, lberrors.New(lberrors.VaultUnreadable, fmt.Sprintf("reading %s", path), err)
	}

	var file scopesFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, lberrors.New(lberrors.VaultUnreadable, fmt.Sprintf("parsing %s", path), err)
	}

	for i := range file.Scopes {
		if file.Scopes[i].Mode == "" {
			file.Scopes[i].Mode = MatchCascade
		}
		if file.Scopes[i].Name == "" {
			file.Scopes[i].Name = file.Scopes[i].Tag
		}
	}

	return file.Scopes, nil
}
