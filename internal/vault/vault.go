// Package vault loads notes from a markdown vault: YAML frontmatter, body,
// scope declarations, and the title/alias index used to resolve wikilinks.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	lberrors "lorebook/internal/errors"
	"lorebook/internal/model"
)

// Note is one parsed vault note. Whether it becomes an entry, a fallback
// document, or both is decided by the scope filter.
type Note struct {
	UID           int
	Title         string
	Path          string
	ContainerPath string
	Body          string

	Tags    []string
	Aliases []string

	Keys          []string
	SecondaryKeys []string
	WorldInfo     string
	Logic         model.SelectiveLogic
	Probability   int
	ScanDepth     int
	GroupWeight   int

	Constant   bool
	Vectorized bool
	Selective  bool

	Exclude bool
	Route   model.RetrievalRoute
}

// frontmatter is the raw YAML header of a note.
type frontmatter struct {
	Title         string   `yaml:"title"`
	Tags          []string `yaml:"tags"`
	Aliases       []string `yaml:"aliases"`
	Keys          []string `yaml:"keys"`
	SecondaryKeys []string `yaml:"secondary_keys"`
	Logic         int      `yaml:"selective_logic"`
	Probability   *int     `yaml:"probability"`
	ScanDepth     *int     `yaml:"scan_depth"`
	GroupWeight   int      `yaml:"group_weight"`
	Constant      bool     `yaml:"constant"`
	Vectorized    bool     `yaml:"vectorized"`
	Exclude       bool     `yaml:"exclude"`
	Retrieval     string   `yaml:"retrieval"`

	// WorldInfo overrides the injected content; the note body then only
	// surfaces at the full-body tier.
	WorldInfo string `yaml:"world_info"`
}

// Vault is a loaded snapshot of a note directory.
type Vault struct {
	Root   string
	Notes  []Note
	Scopes []ScopeDecl

	byRef map[string]int // lowercase title/alias -> uid
}

// Load walks root for markdown notes, parses them, and reads the scope
// declaration file if present. Note uids are assigned by sorted path, so a
// vault loads identically on every run.
func Load(root string) (*Vault, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), ".md") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, lberrors.New(lberrors.VaultUnreadable, fmt.Sprintf("walking vault %s", root), err)
	}
	sort.Strings(paths)

	v := &Vault{Root: root, byRef: make(map[string]int)}
	for i, path := range paths {
		note, err := parseNote(path, root)
		if err != nil {
			return nil, err
		}
		note.UID = i + 1
		v.Notes = append(v.Notes, note)

		v.addRef(note.Title, note.UID)
		for _, alias := range note.Aliases {
			v.addRef(alias, note.UID)
		}
	}

	scopes, err := LoadScopes(filepath.Join(root, ScopesFile))
	if err != nil {
		return nil, err
	}
	v.Scopes = scopes

	return v, nil
}

func (v *Vault) addRef(ref string, uid int) {
	ref = strings.ToLower(strings.TrimSpace(ref))
	if ref == "" {
		return
	}
	// First note wins on duplicate titles.
	if _, ok := v.byRef[ref]; !ok {
		v.byRef[ref] = uid
	}
}

// Resolve maps a raw wikilink reference to a note uid. This is the link
// resolver the graph builder consumes.
func (v *Vault) Resolve(raw string) (int, bool) {
	uid, ok := v.byRef[strings.ToLower(strings.TrimSpace(raw))]
	return uid, ok
}

// parseNote splits frontmatter from body and normalizes defaults.
func parseNote(path, root string) (Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Note{}, lberrors.New(lberrors.VaultUnreadable, fmt.Sprintf("reading note %s", path), err)
	}

	fm, body := splitFrontmatter(string(data))

	var header frontmatter
	if fm != "" {
		if err := yaml.Unmarshal([]byte(fm), &header); err != nil {
			return Note{}, lberrors.New(lberrors.VaultUnreadable, fmt.Sprintf("frontmatter in %s", path), err)
		}
	}

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	title := header.Title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	probability := 100
	if header.Probability != nil {
		probability = *header.Probability
	}
	scanDepth := 4
	if header.ScanDepth != nil {
		scanDepth = *header.ScanDepth
	}

	return Note{
		Title:         title,
		Path:          rel,
		ContainerPath: filepath.ToSlash(filepath.Dir(rel)),
		Body:          strings.TrimSpace(body),
		Tags:          header.Tags,
		Aliases:       header.Aliases,
		Keys:          header.Keys,
		SecondaryKeys: header.SecondaryKeys,
		WorldInfo:     header.WorldInfo,
		Logic:         model.SelectiveLogic(header.Logic),
		Probability:   probability,
		ScanDepth:     scanDepth,
		GroupWeight:   header.GroupWeight,
		Constant:      header.Constant,
		Vectorized:    header.Vectorized,
		Selective:     !header.Constant && !header.Vectorized,
		Exclude:       header.Exclude,
		Route:         model.ParseRetrievalRoute(header.Retrieval),
	}, nil
}

// splitFrontmatter returns the YAML header (without delimiters) and the
// remaining body. Notes without a frontmatter block return ("", content).
func splitFrontmatter(content string) (string, string) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return "", content
	}
	rest := content[strings.Index(content, "\n")+1:]
	for _, delim := range []string{"\n---\n", "\n---\r\n"} {
		if idx := strings.Index(rest, delim); idx >= 0 {
			return rest[:idx], rest[idx+len(delim):]
		}
	}
	// Header that ends at EOF.
	if trimmed := strings.TrimRight(rest, "\r\n"); strings.HasSuffix(trimmed, "\n---") {
		return strings.TrimSuffix(trimmed, "\n---"), ""
	}
	return "", content
}
