package segment

import (
	"fmt"
	"regexp"
	"strings"
)

// Best-effort markdown-to-HTML conversion for prose and table cells. Exact
// CommonMark fidelity is a non-goal; the client only needs headers, emphasis,
// lists and paragraphs.
var (
	headerRe       = regexp.MustCompile(`(?m)^(#{1,6})\s+(.+)$`)
	boldRe         = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe       = regexp.MustCompile(`\*(.*?)\*`)
	numberedItemRe = regexp.MustCompile(`(?m)^\d+\.\s+(.+)$`)
	bulletItemRe   = regexp.MustCompile(`(?m)^[-*]\s+(.+)$`)
	listRunRe      = regexp.MustCompile(`(?s)(<li>.*?</li>(?:\s*<li>.*?</li>)*)`)
	separatorRowRe = regexp.MustCompile(`^[\s:|-]+$`)
)

// formatTextContent renders a prose span as HTML.
func formatTextContent(text string) string {
	text = headerRe.ReplaceAllStringFunc(text, func(match string) string {
		parts := headerRe.FindStringSubmatch(match)
		level := len(parts[1])
		return fmt.Sprintf("<h%d>%s</h%d>", level, parts[2], level)
	})

	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = numberedItemRe.ReplaceAllString(text, "<li>$1</li>")
	text = bulletItemRe.ReplaceAllString(text, "<li>$1</li>")

	// Wrap each run of consecutive list items in a single <ul>.
	text = listRunRe.ReplaceAllString(text, "<ul>$1</ul>")

	paragraphs := strings.Split(text, "\n\n")
	formatted := make([]string, 0, len(paragraphs))
	for _, para := range paragraphs {
		para = strings.TrimSpace(para)
		if para != "" && !strings.HasPrefix(para, "<") {
			para = "<p>" + para + "</p>"
		}
		formatted = append(formatted, para)
	}

	return strings.Join(formatted, "\n")
}

// convertTableToHTML renders a markdown table block. The first line becomes
// the header row, a second line containing "---" is treated as the separator
// and skipped, and the rest become body rows.
func convertTableToHTML(table string) string {
	lines := strings.Split(strings.TrimSpace(table), "\n")
	if len(lines) == 0 {
		return ""
	}

	var html strings.Builder
	html.WriteString(`<div class="table-container"><table class="table table-bordered table-striped">`)

	if cells := splitTableRow(lines[0]); len(cells) > 0 {
		html.WriteString("<thead><tr>")
		for _, cell := range cells {
			html.WriteString("<th>" + processTableCell(cell) + "</th>")
		}
		html.WriteString("</tr></thead>")
	}

	bodyStart := 1
	if len(lines) > 1 && isSeparatorRow(lines[1]) {
		bodyStart = 2
	}

	if len(lines) > bodyStart {
		html.WriteString("<tbody>")
		for _, line := range lines[bodyStart:] {
			cells := splitTableRow(line)
			if len(cells) == 0 {
				continue
			}
			html.WriteString("<tr>")
			for _, cell := range cells {
				html.WriteString("<td>" + processTableCell(cell) + "</td>")
			}
			html.WriteString("</tr>")
		}
		html.WriteString("</tbody>")
	}

	html.WriteString("</table></div>")
	return html.String()
}

// isSeparatorRow reports whether a table line is the header/body separator:
// cells made up solely of dashes and optional alignment colons.
func isSeparatorRow(line string) bool {
	return strings.Contains(line, "-") && separatorRowRe.MatchString(line)
}

// splitTableRow returns the trimmed, non-empty cells of a pipe-delimited row.
func splitTableRow(line string) []string {
	var cells []string
	for _, cell := range strings.Split(line, "|") {
		cell = strings.TrimSpace(cell)
		if cell != "" {
			cells = append(cells, cell)
		}
	}
	return cells
}

// processTableCell converts inline bold/italic markdown to emphasis markup.
func processTableCell(cell string) string {
	cell = boldRe.ReplaceAllString(cell, "<strong>$1</strong>")
	cell = italicRe.ReplaceAllString(cell, "<em>$1</em>")
	return cell
}
