// Package doctags parses the DocTags markup emitted by document-understanding
// visual-language models and converts it to Markdown, HTML, or JSON.
//
// DocTags is a flat tag stream: structural tags like <text>, <title>,
// <section_header_level_1> or <otsl> wrap the content of one layout element,
// optionally preceded by four <loc_N> tokens giving its bounding box on a
// 0-500 normalized grid. Pages are separated by <page_break>.
package doctags

// Kind identifies the layout role of a document item.
type Kind string

const (
	KindTitle         Kind = "title"
	KindSectionHeader Kind = "section_header"
	KindText          Kind = "text"
	KindCaption       Kind = "caption"
	KindFootnote      Kind = "footnote"
	KindCode          Kind = "code"
	KindFormula       Kind = "formula"
	KindPicture       Kind = "picture"
	KindChart         Kind = "chart"
	KindPageHeader    Kind = "page_header"
	KindPageFooter    Kind = "page_footer"
	KindList          Kind = "list"
	KindListItem      Kind = "list_item"
	KindTable         Kind = "table"
	KindCheckbox      Kind = "checkbox"
)

// BBox is a bounding box on the model's 0-500 normalized page grid.
type BBox struct {
	Left   int `json:"l"`
	Top    int `json:"t"`
	Right  int `json:"r"`
	Bottom int `json:"b"`
}

// Item is one layout element of a page.
type Item struct {
	Kind     Kind
	Level    int    // section header level (1-6)
	Text     string
	Language string // code block language, when the model tagged one
	Ordered  bool   // list ordering (Kind == KindList)
	Checked  bool   // checkbox state (Kind == KindCheckbox)
	BBox     *BBox
	Items    []Item // list entries; nested lists appear as KindList items
	Table    *Table
}

// TableCell is one logical cell of a table; merged regions are represented by
// a single origin cell with spans greater than one.
type TableCell struct {
	Row          int
	Col          int
	RowSpan      int
	ColSpan      int
	Text         string
	ColumnHeader bool
	RowHeader    bool
	SectionRow   bool
}

// Table is the grid reconstructed from an OTSL tag sequence.
type Table struct {
	Caption string
	Rows    int
	Cols    int
	Cells   []TableCell
}

// Grid resolves the table into a dense Rows x Cols matrix of cell texts.
// Positions covered by a merged region carry the origin cell's text.
func (t *Table) Grid() [][]string {
	grid := make([][]string, t.Rows)
	for r := range grid {
		grid[r] = make([]string, t.Cols)
	}
	for _, c := range t.Cells {
		for r := c.Row; r < c.Row+c.RowSpan && r < t.Rows; r++ {
			for col := c.Col; col < c.Col+c.ColSpan && col < t.Cols; col++ {
				grid[r][col] = c.Text
			}
		}
	}
	return grid
}

// headerRows reports how many leading rows consist solely of column headers.
func (t *Table) headerRows() int {
	if t.Rows == 0 {
		return 0
	}
	isHeader := make([]bool, t.Rows)
	for i := range isHeader {
		isHeader[i] = true
	}
	for _, c := range t.Cells {
		if !c.ColumnHeader {
			for r := c.Row; r < c.Row+c.RowSpan && r < t.Rows; r++ {
				isHeader[r] = false
			}
		}
	}
	n := 0
	for _, h := range isHeader {
		if !h {
			break
		}
		n++
	}
	return n
}

// Page is the ordered element list of one input page.
type Page struct {
	PageNo int
	Items  []Item
}

// Document is the parsed form of an aggregated tag document.
type Document struct {
	Name  string
	Pages []Page
}

// Tables returns every table in the document, in reading order.
func (d *Document) Tables() []*Table {
	var out []*Table
	for i := range d.Pages {
		for j := range d.Pages[i].Items {
			if it := &d.Pages[i].Items[j]; it.Kind == KindTable && it.Table != nil {
				out = append(out, it.Table)
			}
		}
	}
	return out
}
