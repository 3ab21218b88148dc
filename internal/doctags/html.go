package doctags

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ExportHTML serializes the document to a standalone HTML page. The tree is
// built as html.Nodes and rendered with html.Render, so all text content is
// escaped and the byte output is stable for a given document.
func ExportHTML(doc *Document) (string, error) {
	root := elem("html")

	head := elem("head")
	meta := elem("meta")
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	title := elem("title")
	title.AppendChild(textNode(doc.Name))
	head.AppendChild(meta)
	head.AppendChild(title)
	root.AppendChild(head)

	body := elem("body")
	for _, page := range doc.Pages {
		div := elem("div")
		div.Attr = []html.Attribute{
			{Key: "class", Val: "page"},
			{Key: "data-page", Val: strconv.Itoa(page.PageNo)},
		}
		for _, item := range page.Items {
			for _, n := range htmlNodes(item) {
				div.AppendChild(n)
			}
		}
		body.AppendChild(div)
	}
	root.AppendChild(body)

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n")
	if err := html.Render(&b, root); err != nil {
		return "", fmt.Errorf("rendering html: %w", err)
	}
	b.WriteString("\n")
	return b.String(), nil
}

func htmlNodes(item Item) []*html.Node {
	switch item.Kind {
	case KindTitle:
		return []*html.Node{textElem("h1", collapseWhitespace(item.Text))}
	case KindSectionHeader:
		level := item.Level + 1
		if level > 6 {
			level = 6
		}
		return []*html.Node{textElem("h"+strconv.Itoa(level), collapseWhitespace(item.Text))}
	case KindText:
		return []*html.Node{textElem("p", collapseWhitespace(item.Text))}
	case KindCaption:
		return []*html.Node{classedTextElem("p", "caption", collapseWhitespace(item.Text))}
	case KindFootnote:
		return []*html.Node{classedTextElem("p", "footnote", collapseWhitespace(item.Text))}
	case KindFormula:
		return []*html.Node{classedTextElem("div", "formula", item.Text)}
	case KindCode:
		pre := elem("pre")
		code := elem("code")
		if item.Language != "" {
			code.Attr = []html.Attribute{{Key: "class", Val: "language-" + strings.ToLower(item.Language)}}
		}
		code.AppendChild(textNode(item.Text))
		pre.AppendChild(code)
		return []*html.Node{pre}
	case KindPicture, KindChart:
		fig := elem("figure")
		fig.AppendChild(&html.Node{Type: html.CommentNode, Data: " image "})
		if item.Text != "" {
			fig.AppendChild(textElem("figcaption", collapseWhitespace(item.Text)))
		}
		return []*html.Node{fig}
	case KindCheckbox:
		mark := "☐ " // empty box
		if item.Checked {
			mark = "☑ " // checked box
		}
		return []*html.Node{textElem("p", mark+collapseWhitespace(item.Text))}
	case KindList:
		return []*html.Node{htmlList(item)}
	case KindTable:
		if n := htmlTable(item.Table); n != nil {
			return []*html.Node{n}
		}
	case KindPageHeader, KindPageFooter:
		return nil
	}
	return nil
}

func htmlList(list Item) *html.Node {
	tag := "ul"
	if list.Ordered {
		tag = "ol"
	}
	node := elem(tag)
	var lastItem *html.Node
	for _, entry := range list.Items {
		switch entry.Kind {
		case KindListItem:
			li := textElem("li", collapseWhitespace(entry.Text))
			node.AppendChild(li)
			lastItem = li
		case KindList:
			// A nested list belongs inside the preceding item.
			nested := htmlList(entry)
			if lastItem != nil {
				lastItem.AppendChild(nested)
			} else {
				node.AppendChild(nested)
			}
		}
	}
	return node
}

func htmlTable(t *Table) *html.Node {
	if t == nil || t.Rows == 0 || t.Cols == 0 {
		return nil
	}
	table := elem("table")
	if t.Caption != "" {
		table.AppendChild(textElem("caption", collapseWhitespace(t.Caption)))
	}

	// Group origin cells by row; covered positions render nothing.
	byRow := make([][]TableCell, t.Rows)
	for _, c := range t.Cells {
		if c.Row < t.Rows {
			byRow[c.Row] = append(byRow[c.Row], c)
		}
	}

	headerRows := t.headerRows()
	var thead, tbody *html.Node
	if headerRows > 0 {
		thead = elem("thead")
		table.AppendChild(thead)
	}
	tbody = elem("tbody")
	table.AppendChild(tbody)

	for r := 0; r < t.Rows; r++ {
		tr := elem("tr")
		for _, c := range byRow[r] {
			tag := "td"
			if c.ColumnHeader || c.RowHeader {
				tag = "th"
			}
			cell := textElem(tag, collapseWhitespace(c.Text))
			var attrs []html.Attribute
			if c.ColSpan > 1 {
				attrs = append(attrs, html.Attribute{Key: "colspan", Val: strconv.Itoa(c.ColSpan)})
			}
			if c.RowSpan > 1 {
				attrs = append(attrs, html.Attribute{Key: "rowspan", Val: strconv.Itoa(c.RowSpan)})
			}
			cell.Attr = attrs
			tr.AppendChild(cell)
		}
		if r < headerRows {
			thead.AppendChild(tr)
		} else {
			tbody.AppendChild(tr)
		}
	}
	return table
}

func elem(tag string) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: tag}
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func textElem(tag, text string) *html.Node {
	n := elem(tag)
	n.AppendChild(textNode(text))
	return n
}

func classedTextElem(tag, class, text string) *html.Node {
	n := textElem(tag, text)
	n.Attr = []html.Attribute{{Key: "class", Val: class}}
	return n
}
