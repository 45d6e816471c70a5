// Package chunker splits fallback documents into sentence-based chunks so
// the full-text fallback can score and inject at sub-document granularity.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"lorebook/internal/model"
)

// Chunker splits markdown documents into heading-scoped sentence windows
// with a configurable overlap between consecutive windows.
type Chunker struct {
	sentencesPerChunk int
	overlapSentences  int
	splitter          *regexp.Regexp
}

// New returns a chunker. Non-positive window sizes fall back to defaults.
func New(sentencesPerChunk, overlapSentences int) *Chunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &Chunker{
		sentencesPerChunk: sentencesPerChunk,
		overlapSentences:  overlapSentences,
		splitter:          regexp.MustCompile(`(?m)(?U)([^.!?\n]+[.!?])`),
	}
}

// Chunk splits one document. Markdown headings open a new section so a
// chunk never spans a heading boundary; the heading is carried on every
// chunk cut from its section. Empty documents yield no chunks.
func (c *Chunker) Chunk(doc model.Document) []model.Chunk {
	var chunks []model.Chunk
	idx := 0
	for _, sec := range splitSections(doc.Content) {
		chunks = append(chunks, c.chunkSection(doc, sec, &idx)...)
	}
	return chunks
}

// ChunkAll chunks every document in order.
func (c *Chunker) ChunkAll(docs []model.Document) []model.Chunk {
	var chunks []model.Chunk
	for _, doc := range docs {
		chunks = append(chunks, c.Chunk(doc)...)
	}
	return chunks
}

type section struct {
	heading string
	body    string
	offset  int // byte offset of body within the document
}

// splitSections cuts the document at ATX headings. Text before the first
// heading becomes an unnamed leading section.
func splitSections(content string) []section {
	var sections []section
	cur := section{}
	pos := 0
	bodyStart := 0

	flush := func(end int) {
		cur.body = content[bodyStart:end]
		cur.offset = bodyStart
		if strings.TrimSpace(cur.body) != "" {
			sections = append(sections, cur)
		}
	}

	for pos < len(content) {
		lineEnd := strings.IndexByte(content[pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(content)
		} else {
			lineEnd += pos
		}
		line := content[pos:lineEnd]
		if heading, ok := parseHeading(line); ok {
			flush(pos)
			cur = section{heading: heading}
			bodyStart = lineEnd
			if bodyStart < len(content) {
				bodyStart++ // skip the newline
			}
		}
		pos = lineEnd + 1
	}
	flush(len(content))
	return sections
}

func parseHeading(line string) (string, bool) {
	trimmed := strings.TrimLeft(line, "#")
	if trimmed == line || len(line)-len(trimmed) > 6 {
		return "", false
	}
	if trimmed != "" && !strings.HasPrefix(trimmed, " ") {
		return "", false
	}
	return strings.TrimSpace(trimmed), true
}

func (c *Chunker) chunkSection(doc model.Document, sec section, idx *int) []model.Chunk {
	spans := c.splitter.FindAllStringIndex(sec.body, -1)
	if len(spans) == 0 {
		trimmed := strings.TrimSpace(sec.body)
		if trimmed == "" {
			return nil
		}
		start := strings.Index(sec.body, trimmed)
		spans = [][]int{{start, start + len(trimmed)}}
	}

	var chunks []model.Chunk
	i := 0
	for i < len(spans) {
		end := i + c.sentencesPerChunk
		if end > len(spans) {
			end = len(spans)
		}

		parts := make([]string, 0, end-i)
		for _, span := range spans[i:end] {
			parts = append(parts, strings.TrimSpace(sec.body[span[0]:span[1]]))
		}
		text := strings.Join(parts, " ")

		// The first span can open on the whitespace separating it from the
		// previous sentence; the rendered text strips it, so the recorded
		// offset must skip it too.
		first := sec.body[spans[i][0]:spans[i][1]]
		lead := len(first) - len(strings.TrimLeftFunc(first, unicode.IsSpace))

		chunks = append(chunks, model.Chunk{
			ChunkID:     fmt.Sprintf("%d:%d", doc.UID, *idx),
			DocUID:      doc.UID,
			Index:       *idx,
			Heading:     sec.heading,
			Text:        text,
			ContentHash: hashText(text),
			TokenCount:  model.EstimateTokens(text),
			StartByte:   sec.offset + spans[i][0] + lead,
			EndByte:     sec.offset + spans[end-1][1],
		})
		*idx++

		if end == len(spans) {
			break
		}
		i = end - c.overlapSentences
	}
	return chunks
}

func hashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:8])
}
