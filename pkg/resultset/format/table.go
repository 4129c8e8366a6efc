package format

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
)

var _ Formatter = (*Table)(nil)

// Table renders rows as an aligned text table with a leading row number.
type Table struct {
	// Types adds the column type tag under each column name.
	Types bool
}

func NewTable() *Table {
	return &Table{}
}

func (tf *Table) Format(cur *resultset.Cursor) ([]byte, error) {
	schema := cur.Schema()

	header := table.Row{""}
	for _, col := range schema {
		if tf.Types {
			header = append(header, col.Name+"\n"+col.Type)
			continue
		}
		header = append(header, col.Name)
	}

	var rows []table.Row
	for i, row := range cur.Grid() {
		tr := table.Row{i + 1}
		for j := range schema {
			tr = append(tr, cellText(row, j))
		}
		rows = append(rows, tr)
	}

	t := table.NewWriter()
	t.AppendHeader(header)
	t.AppendRows(rows)
	t.SetStyle(table.StyleLight)
	t.Style().Format = table.FormatOptions{
		Footer: text.FormatDefault,
		Header: text.FormatDefault,
		Row:    text.FormatDefault,
	}
	t.Style().Options.DrawBorder = false
	t.SuppressTrailingSpaces()

	return []byte(t.Render()), nil
}
