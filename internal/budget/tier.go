// Package budget performs deterministic greedy selection and content
// tiering of scored candidates under a hard token budget, with exhaustive
// drop accounting.
package budget

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"lorebook/internal/model"
)

// Tier character caps. The short and medium renderings are word-boundary
// trimmed and ellipsis-terminated.
const (
	shortTierChars  = 260
	mediumTierChars = 900
)

// Render returns the entry's text at the given tier. TierFullBody falls
// back to TierFull when the body does not differ from the content.
func Render(e *model.Entry, tier model.ContentTier) string {
	switch tier {
	case model.TierShort:
		return trimToWord(e.Content, shortTierChars)
	case model.TierMedium:
		return trimToWord(e.Content, mediumTierChars)
	case model.TierFullBody:
		if e.Body != "" && e.Body != e.Content {
			return e.Body
		}
		return e.Content
	default:
		return e.Content
	}
}

// liftable reports whether raising the entry to the tier changes its text.
func liftable(e *model.Entry, tier model.ContentTier) bool {
	switch tier {
	case model.TierMedium:
		return len(e.Content) > shortTierChars
	case model.TierFull:
		return len(e.Content) > mediumTierChars
	case model.TierFullBody:
		return e.Body != "" && e.Body != e.Content
	default:
		return false
	}
}

// trimToWord trims s to at most max bytes, cutting back to the last word
// boundary and appending an ellipsis. Text already within the cap is
// returned untouched. The cut never splits a rune.
func trimToWord(s string, max int) string {
	if len(s) <= max {
		return s
	}

	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	cut := s[:max]
	if idx := strings.LastIndexFunc(cut, unicode.IsSpace); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRightFunc(cut, unicode.IsSpace) + "..."
}
