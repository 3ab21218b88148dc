package doctags

import (
	"encoding/json"
	"fmt"
)

// JSON export schema. Field order is fixed by the struct definitions, so
// marshaling the same document always produces identical bytes.

type jsonDocument struct {
	SchemaName string     `json:"schema_name"`
	Name       string     `json:"name"`
	PageCount  int        `json:"page_count"`
	Pages      []jsonPage `json:"pages"`
}

type jsonPage struct {
	PageNo int        `json:"page_no"`
	Items  []jsonItem `json:"items"`
}

type jsonItem struct {
	Kind     string     `json:"kind"`
	Level    int        `json:"level,omitempty"`
	Text     string     `json:"text,omitempty"`
	Language string     `json:"language,omitempty"`
	Ordered  bool       `json:"ordered,omitempty"`
	Checked  bool       `json:"checked,omitempty"`
	BBox     *BBox      `json:"bbox,omitempty"`
	Items    []jsonItem `json:"items,omitempty"`
	Table    *jsonTable `json:"table,omitempty"`
}

type jsonTable struct {
	Caption string     `json:"caption,omitempty"`
	Rows    int        `json:"num_rows"`
	Cols    int        `json:"num_cols"`
	Cells   []jsonCell `json:"cells"`
	Grid    [][]string `json:"grid"`
}

type jsonCell struct {
	Row          int    `json:"row"`
	Col          int    `json:"col"`
	RowSpan      int    `json:"row_span"`
	ColSpan      int    `json:"col_span"`
	Text         string `json:"text"`
	ColumnHeader bool   `json:"column_header,omitempty"`
	RowHeader    bool   `json:"row_header,omitempty"`
	SectionRow   bool   `json:"section_row,omitempty"`
}

// ExportJSON serializes the document to indented JSON.
func ExportJSON(doc *Document) (string, error) {
	out := jsonDocument{
		SchemaName: "DocTagsDocument",
		Name:       doc.Name,
		PageCount:  len(doc.Pages),
		Pages:      make([]jsonPage, 0, len(doc.Pages)),
	}
	for _, page := range doc.Pages {
		jp := jsonPage{PageNo: page.PageNo, Items: []jsonItem{}}
		for _, item := range page.Items {
			jp.Items = append(jp.Items, toJSONItem(item))
		}
		out.Pages = append(out.Pages, jp)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling document: %w", err)
	}
	return string(data) + "\n", nil
}

func toJSONItem(item Item) jsonItem {
	ji := jsonItem{
		Kind:     string(item.Kind),
		Level:    item.Level,
		Text:     item.Text,
		Language: item.Language,
		Ordered:  item.Ordered,
		Checked:  item.Checked,
		BBox:     item.BBox,
	}
	for _, child := range item.Items {
		ji.Items = append(ji.Items, toJSONItem(child))
	}
	if item.Table != nil {
		jt := &jsonTable{
			Caption: item.Table.Caption,
			Rows:    item.Table.Rows,
			Cols:    item.Table.Cols,
			Cells:   make([]jsonCell, 0, len(item.Table.Cells)),
			Grid:    item.Table.Grid(),
		}
		for _, c := range item.Table.Cells {
			jt.Cells = append(jt.Cells, jsonCell{
				Row:          c.Row,
				Col:          c.Col,
				RowSpan:      c.RowSpan,
				ColSpan:      c.ColSpan,
				Text:         c.Text,
				ColumnHeader: c.ColumnHeader,
				RowHeader:    c.RowHeader,
				SectionRow:   c.SectionRow,
			})
		}
		ji.Table = jt
	}
	return ji
}
