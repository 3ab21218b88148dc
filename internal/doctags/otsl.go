package doctags

import "strings"

// OTSL cell tokens. Every grid position is encoded by exactly one token;
// lcel/ucel/xcel extend the merged region of a neighboring origin cell.
const (
	otslFilled       = "fcel"
	otslEmpty        = "ecel"
	otslColumnHeader = "ched"
	otslRowHeader    = "rhed"
	otslSectionRow   = "srow"
	otslSpanLeft     = "lcel"
	otslSpanUp       = "ucel"
	otslSpanCross    = "xcel"
	otslNewRow       = "nl"
)

// parseTable consumes an <otsl> element and reconstructs the table grid.
func parseTable(tokens []token, start int) (Item, int) {
	item := Item{Kind: KindTable}
	table := &Table{}
	var locs []int

	type pos struct{ r, c int }
	var cells []*TableCell
	cover := map[pos]*TableCell{}
	r, c := 0, 0
	maxCols := 0

	newCell := func(text string, tokName string) {
		cell := &TableCell{
			Row:          r,
			Col:          c,
			RowSpan:      1,
			ColSpan:      1,
			Text:         strings.TrimSpace(text),
			ColumnHeader: tokName == otslColumnHeader,
			RowHeader:    tokName == otslRowHeader,
			SectionRow:   tokName == otslSectionRow,
		}
		cells = append(cells, cell)
		cover[pos{r, c}] = cell
		c++
	}

	extend := func(origin *TableCell) {
		if origin == nil {
			// Dangling span token; degrade to an empty cell.
			newCell("", otslEmpty)
			return
		}
		if w := c - origin.Col + 1; w > origin.ColSpan {
			origin.ColSpan = w
		}
		if h := r - origin.Row + 1; h > origin.RowSpan {
			origin.RowSpan = h
		}
		cover[pos{r, c}] = origin
		c++
	}

	i := start + 1
	for i < len(tokens) {
		tok := tokens[i]
		if tok.typ == tokClose && tok.name == "otsl" {
			i++
			break
		}
		switch tok.typ {
		case tokLoc:
			locs = append(locs, tok.loc)
			i++
		case tokText:
			i++ // cell text is consumed together with its cell token below
		case tokOpen:
			switch tok.name {
			case otslFilled, otslEmpty, otslColumnHeader, otslRowHeader, otslSectionRow:
				text, next := cellText(tokens, i+1)
				name := tok.name
				newCell(text, name)
				i = next
			case otslSpanLeft:
				extend(cover[pos{r, c - 1}])
				i++
			case otslSpanUp:
				extend(cover[pos{r - 1, c}])
				i++
			case otslSpanCross:
				origin := cover[pos{r - 1, c}]
				if origin == nil {
					origin = cover[pos{r - 1, c - 1}]
				}
				extend(origin)
				i++
			case otslNewRow:
				if c > maxCols {
					maxCols = c
				}
				r++
				c = 0
				i++
			case "caption":
				caption, next := parseSimple(tokens, i, KindCaption)
				table.Caption = caption.Text
				i = next
			default:
				i++
			}
		default:
			i++
		}
	}

	if c > maxCols {
		maxCols = c
	}
	rows := r
	if c > 0 {
		rows = r + 1 // stream ended mid-row without a trailing <nl>
	}

	table.Rows = rows
	table.Cols = maxCols
	table.Cells = make([]TableCell, len(cells))
	for idx, cell := range cells {
		table.Cells[idx] = *cell
	}
	item.Table = table
	item.BBox = bboxFromLocs(locs)
	return item, i
}

// cellText collects the text tokens immediately following a cell token.
func cellText(tokens []token, i int) (string, int) {
	var b strings.Builder
	for i < len(tokens) && tokens[i].typ == tokText {
		b.WriteString(tokens[i].text)
		i++
	}
	return b.String(), i
}
