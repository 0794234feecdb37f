// Package segment classifies an accumulated model response into typed,
// position-ordered content sections (code, table, think, prose). Extraction
// is pure and re-run on the full buffer every time it grows, so partially
// streamed structures are reclassified as soon as they complete.
package segment

import (
	"regexp"
	"sort"
	"strings"

	"github.com/synpt/backend/internal/model/chat"
)

var (
	// An unclosed fence deliberately does not match: a streaming code block
	// stays prose until its closing fence arrives.
	codeFenceRe = regexp.MustCompile("(?s)```(\\w*)\n(.*?)```")
	thinkRe     = regexp.MustCompile(`(?s)<think>\n(.*?)\n</think>`)
)

// span is a half-open [start, end) claim on the source text.
type span struct {
	start, end int
}

func (s span) contains(pos int) bool {
	return s.start <= pos && pos < s.end
}

func claimed(spans []span, pos int) bool {
	for _, s := range spans {
		if s.contains(pos) {
			return true
		}
	}
	return false
}

func overlaps(spans []span, c span) bool {
	for _, s := range spans {
		if c.start < s.end && s.start < c.end {
			return true
		}
	}
	return false
}

// Extract splits content into non-overlapping sections covering every
// structured region, with the remaining prose converted to HTML text
// sections. Pass priority is fixed: code > table > think > text; a span
// claimed by an earlier pass is never reclassified. The result is sorted by
// start offset regardless of the order the passes ran in.
func Extract(content string) []chat.Section {
	var sections []chat.Section
	var spans []span

	codeSections, codeSpans := extractCodeBlocks(content)
	sections = append(sections, codeSections...)
	spans = append(spans, codeSpans...)

	tableSections, tableSpans := extractTables(content, spans)
	sections = append(sections, tableSections...)
	spans = append(spans, tableSpans...)

	thinkSections, thinkSpans := extractThinkBlocks(content, spans)
	sections = append(sections, thinkSections...)
	spans = append(spans, thinkSpans...)

	sections = append(sections, extractTextSections(content, spans)...)

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Start < sections[j].Start
	})

	return sections
}

// extractCodeBlocks matches completed fenced code blocks with an optional
// language tag.
func extractCodeBlocks(content string) ([]chat.Section, []span) {
	var sections []chat.Section
	var spans []span

	for _, m := range codeFenceRe.FindAllStringSubmatchIndex(content, -1) {
		language := content[m[2]:m[3]]
		if language == "" {
			language = "text"
		}

		sections = append(sections, chat.Section{
			Type:     chat.SectionCode,
			Content:  strings.TrimSpace(content[m[4]:m[5]]),
			Language: language,
			Start:    m[0],
			End:      m[1],
			Raw:      content[m[0]:m[1]],
		})
		spans = append(spans, span{start: m[0], end: m[1]})
	}

	return sections, spans
}

// extractTables finds runs of consecutive pipe-delimited lines outside
// already-claimed spans and converts each run to an HTML table. A run still
// growing at end of input is included so streamed tables render as they
// arrive.
func extractTables(content string, taken []span) ([]chat.Section, []span) {
	var sections []chat.Section
	var spans []span

	appendTable := func(raw string, start, end int) {
		sections = append(sections, chat.Section{
			Type:    chat.SectionTable,
			Content: convertTableToHTML(raw),
			Start:   start,
			End:     end,
			Raw:     raw,
		})
		spans = append(spans, span{start: start, end: end})
	}

	var tableLines []string
	tableStart := 0
	inTable := false

	pos := 0
	for _, line := range strings.Split(content, "\n") {
		lineStart := pos
		pos += len(line) + 1 // +1 for the newline

		trimmed := strings.TrimSpace(line)
		isRow := !claimed(taken, lineStart) &&
			strings.HasPrefix(trimmed, "|") &&
			strings.Contains(trimmed[1:], "|")

		if isRow {
			if !inTable {
				tableStart = lineStart
				inTable = true
				tableLines = tableLines[:0]
			}
			tableLines = append(tableLines, line)
			continue
		}

		if inTable && len(tableLines) > 0 {
			appendTable(strings.Join(tableLines, "\n"), tableStart, lineStart)
		}
		inTable = false
	}

	// Trailing run at end of input.
	if inTable && len(tableLines) > 0 {
		appendTable(strings.Join(tableLines, "\n"), tableStart, len(content))
	}

	return sections, spans
}

// extractThinkBlocks matches <think> reasoning asides. A match whose span
// overlaps anything an earlier pass claimed is skipped entirely; a code
// fence or table nested inside the block keeps its own section and the
// surrounding think markup falls through to the prose pass, so sections
// stay disjoint.
func extractThinkBlocks(content string, taken []span) ([]chat.Section, []span) {
	var sections []chat.Section
	var spans []span

	for _, m := range thinkRe.FindAllStringSubmatchIndex(content, -1) {
		if overlaps(taken, span{start: m[0], end: m[1]}) {
			continue
		}

		sections = append(sections, chat.Section{
			Type:    chat.SectionThink,
			Content: strings.TrimSpace(content[m[2]:m[3]]),
			Start:   m[0],
			End:     m[1],
			Raw:     content[m[0]:m[1]],
		})
		spans = append(spans, span{start: m[0], end: m[1]})
	}

	return sections, spans
}

// extractTextSections converts every gap between claimed spans into a prose
// section. Whitespace-only gaps produce no section.
func extractTextSections(content string, taken []span) []chat.Section {
	var sections []chat.Section

	ordered := append([]span(nil), taken...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].start < ordered[j].start })

	appendText := func(start, end int) {
		text := strings.TrimSpace(content[start:end])
		if text == "" {
			return
		}
		sections = append(sections, chat.Section{
			Type:    chat.SectionText,
			Content: formatTextContent(text),
			Start:   start,
			End:     end,
		})
	}

	cur := 0
	for _, s := range ordered {
		if cur < s.start {
			appendText(cur, s.start)
		}
		if s.end > cur {
			cur = s.end
		}
	}
	if cur < len(content) {
		appendText(cur, len(content))
	}

	return sections
}
