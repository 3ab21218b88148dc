package doctags

import (
	"fmt"
	"strings"
)

// ExportMarkdown serializes the document to GitHub-flavored Markdown.
// Output is deterministic: the same document always yields identical bytes.
// Page furniture (running headers and footers) is omitted.
func ExportMarkdown(doc *Document) string {
	var blocks []string
	for _, page := range doc.Pages {
		for _, item := range page.Items {
			if b := markdownBlock(item); b != "" {
				blocks = append(blocks, b)
			}
		}
	}
	if len(blocks) == 0 {
		return ""
	}
	return strings.Join(blocks, "\n\n") + "\n"
}

func markdownBlock(item Item) string {
	switch item.Kind {
	case KindTitle:
		return "# " + collapseWhitespace(item.Text)
	case KindSectionHeader:
		level := item.Level + 1 // title occupies level 1
		if level > 6 {
			level = 6
		}
		return strings.Repeat("#", level) + " " + collapseWhitespace(item.Text)
	case KindText, KindCaption:
		return collapseWhitespace(item.Text)
	case KindFootnote:
		return collapseWhitespace(item.Text)
	case KindFormula:
		if item.Text == "" {
			return ""
		}
		return "$$" + item.Text + "$$"
	case KindCode:
		return "```" + strings.ToLower(item.Language) + "\n" + item.Text + "\n```"
	case KindPicture, KindChart:
		if item.Text != "" {
			return "<!-- image -->\n\n" + collapseWhitespace(item.Text)
		}
		return "<!-- image -->"
	case KindCheckbox:
		mark := "[ ]"
		if item.Checked {
			mark = "[x]"
		}
		return "- " + mark + " " + collapseWhitespace(item.Text)
	case KindList:
		return markdownList(item, 0)
	case KindTable:
		return markdownTable(item.Table)
	case KindPageHeader, KindPageFooter:
		return ""
	}
	return ""
}

func markdownList(list Item, depth int) string {
	var lines []string
	indent := strings.Repeat("    ", depth)
	n := 0
	for _, entry := range list.Items {
		switch entry.Kind {
		case KindListItem:
			n++
			marker := "- "
			if list.Ordered {
				marker = fmt.Sprintf("%d. ", n)
			}
			lines = append(lines, indent+marker+collapseWhitespace(entry.Text))
		case KindList:
			lines = append(lines, markdownList(entry, depth+1))
		}
	}
	return strings.Join(lines, "\n")
}

func markdownTable(t *Table) string {
	if t == nil || t.Rows == 0 || t.Cols == 0 {
		return ""
	}
	grid := t.Grid()
	var b strings.Builder

	writeRow := func(row []string) {
		b.WriteString("|")
		for _, cell := range row {
			b.WriteString(" ")
			b.WriteString(escapeTableCell(cell))
			b.WriteString(" |")
		}
		b.WriteString("\n")
	}

	headerRows := t.headerRows()
	if headerRows == 0 {
		// GFM requires a header row; promote the first row.
		headerRows = 1
	}
	for r := 0; r < headerRows && r < len(grid); r++ {
		writeRow(grid[r])
	}
	b.WriteString("|")
	for c := 0; c < t.Cols; c++ {
		b.WriteString("---|")
	}
	b.WriteString("\n")
	for r := headerRows; r < len(grid); r++ {
		writeRow(grid[r])
	}

	out := strings.TrimSuffix(b.String(), "\n")
	if t.Caption != "" {
		out = collapseWhitespace(t.Caption) + "\n\n" + out
	}
	return out
}

func escapeTableCell(s string) string {
	s = collapseWhitespace(s)
	return strings.ReplaceAll(s, "|", "\\|")
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
