package doctags

import (
	"strconv"
	"strings"
)

// PageBreak is the marker inserted between pages when per-page tag outputs
// are aggregated into one document.
const PageBreak = "<page_break>"

// Aggregate joins per-page tag texts in page order into the canonical
// aggregated tag document. Each page's <doctag> wrapper is stripped so the
// result is a single stream with <page_break> markers at page boundaries.
func Aggregate(pageTags []string) string {
	parts := make([]string, 0, len(pageTags))
	for _, t := range pageTags {
		t = strings.TrimSpace(t)
		t = strings.TrimPrefix(t, "<doctag>")
		t = strings.TrimSuffix(t, "</doctag>")
		parts = append(parts, strings.TrimSpace(t))
	}
	return strings.Join(parts, "\n"+PageBreak+"\n")
}

// simpleTags are the element tags whose content is a plain text run.
var simpleTags = map[string]Kind{
	"title":               KindTitle,
	"text":                KindText,
	"paragraph":           KindText,
	"caption":             KindCaption,
	"footnote":            KindFootnote,
	"formula":             KindFormula,
	"page_header":         KindPageHeader,
	"page_footer":         KindPageFooter,
	"checkbox_selected":   KindCheckbox,
	"checkbox_unselected": KindCheckbox,
}

// Parse converts an aggregated tag document into a structured Document.
// Parsing is lenient: unknown tags are skipped and a missing close tag ends
// the enclosing element at the next structural tag. The model's output is not
// trusted to be well formed.
func Parse(name, input string) *Document {
	tokens := lex(input)

	doc := &Document{Name: name}
	pageNo := 1
	page := Page{PageNo: pageNo}

	i := 0
	for i < len(tokens) {
		tok := tokens[i]
		switch tok.typ {
		case tokText:
			if s := strings.TrimSpace(tok.text); s != "" {
				// Bare text between elements; keep it rather than drop content.
				page.Items = append(page.Items, Item{Kind: KindText, Text: s})
			}
			i++
		case tokLoc, tokClose:
			i++
		case tokOpen:
			switch {
			case tok.name == "doctag":
				i++
			case tok.name == "page_break":
				doc.Pages = append(doc.Pages, page)
				pageNo++
				page = Page{PageNo: pageNo}
				i++
			case tok.name == "ordered_list" || tok.name == "unordered_list":
				item, next := parseList(tokens, i)
				page.Items = append(page.Items, item)
				i = next
			case tok.name == "otsl":
				item, next := parseTable(tokens, i)
				page.Items = append(page.Items, item)
				i = next
			case tok.name == "code":
				item, next := parseCode(tokens, i)
				page.Items = append(page.Items, item)
				i = next
			case tok.name == "picture" || tok.name == "chart":
				item, next := parseFigure(tokens, i)
				page.Items = append(page.Items, item)
				i = next
			case strings.HasPrefix(tok.name, "section_header_level_"):
				level, err := strconv.Atoi(tok.name[len("section_header_level_"):])
				if err != nil || level < 1 {
					level = 1
				}
				item, next := parseSimple(tokens, i, KindSectionHeader)
				item.Level = level
				page.Items = append(page.Items, item)
				i = next
			default:
				if kind, ok := simpleTags[tok.name]; ok {
					item, next := parseSimple(tokens, i, kind)
					if tok.name == "checkbox_selected" {
						item.Checked = true
					}
					page.Items = append(page.Items, item)
					i = next
				} else {
					i++
				}
			}
		default:
			i++
		}
	}
	doc.Pages = append(doc.Pages, page)
	return doc
}

// parseSimple consumes a text-bearing element starting at the open tag.
// It returns the parsed item and the index after the close tag.
func parseSimple(tokens []token, start int, kind Kind) (Item, int) {
	open := tokens[start].name
	item := Item{Kind: kind}
	var text strings.Builder
	var locs []int

	i := start + 1
	for i < len(tokens) {
		tok := tokens[i]
		if tok.typ == tokClose && tok.name == open {
			i++
			break
		}
		if tok.typ == tokOpen && !isLanguageMarker(tok.name) {
			// Missing close tag; the next structural tag ends this element.
			break
		}
		switch tok.typ {
		case tokText:
			text.WriteString(tok.text)
		case tokLoc:
			locs = append(locs, tok.loc)
		}
		i++
	}
	item.Text = strings.TrimSpace(text.String())
	item.BBox = bboxFromLocs(locs)
	return item, i
}

func parseCode(tokens []token, start int) (Item, int) {
	item := Item{Kind: KindCode}
	var text strings.Builder
	var locs []int

	i := start + 1
	for i < len(tokens) {
		tok := tokens[i]
		if tok.typ == tokClose && tok.name == "code" {
			i++
			break
		}
		switch tok.typ {
		case tokOpen:
			if isLanguageMarker(tok.name) {
				item.Language = strings.Trim(tok.name, "_")
			} else {
				i = len(tokens) // unexpected structural tag; stop here
				continue
			}
		case tokText:
			text.WriteString(tok.text)
		case tokLoc:
			locs = append(locs, tok.loc)
		}
		i++
	}
	// Code content keeps interior whitespace; only outer newlines are dropped.
	item.Text = strings.Trim(text.String(), "\n")
	item.BBox = bboxFromLocs(locs)
	return item, i
}

// parseFigure consumes a picture or chart element. The model emits
// classification markers and an optional caption inside; only the caption
// survives into the document.
func parseFigure(tokens []token, start int) (Item, int) {
	open := tokens[start].name
	kind := KindPicture
	if open == "chart" {
		kind = KindChart
	}
	item := Item{Kind: kind}
	var locs []int

	i := start + 1
	for i < len(tokens) {
		tok := tokens[i]
		if tok.typ == tokClose && tok.name == open {
			i++
			break
		}
		switch tok.typ {
		case tokOpen:
			if tok.name == "caption" {
				caption, next := parseSimple(tokens, i, KindCaption)
				item.Text = caption.Text
				i = next
				continue
			}
		case tokLoc:
			locs = append(locs, tok.loc)
		}
		i++
	}
	item.BBox = bboxFromLocs(locs)
	return item, i
}

func parseList(tokens []token, start int) (Item, int) {
	open := tokens[start].name
	item := Item{Kind: KindList, Ordered: open == "ordered_list"}
	var locs []int

	i := start + 1
	for i < len(tokens) {
		tok := tokens[i]
		if tok.typ == tokClose && (tok.name == "ordered_list" || tok.name == "unordered_list") {
			i++
			break
		}
		switch tok.typ {
		case tokOpen:
			switch tok.name {
			case "list_item":
				li, next := parseSimple(tokens, i, KindListItem)
				item.Items = append(item.Items, li)
				i = next
				continue
			case "ordered_list", "unordered_list":
				nested, next := parseList(tokens, i)
				item.Items = append(item.Items, nested)
				i = next
				continue
			}
		case tokLoc:
			locs = append(locs, tok.loc)
		}
		i++
	}
	item.BBox = bboxFromLocs(locs)
	return item, i
}

// isLanguageMarker reports whether a tag names a code language, e.g. <_Python_>.
func isLanguageMarker(name string) bool {
	return len(name) > 2 && strings.HasPrefix(name, "_") && strings.HasSuffix(name, "_")
}

func bboxFromLocs(locs []int) *BBox {
	if len(locs) < 4 {
		return nil
	}
	return &BBox{Left: locs[0], Top: locs[1], Right: locs[2], Bottom: locs[3]}
}
