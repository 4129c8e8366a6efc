package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/Ratio1/chipstage_sdk_go/pkg/chips"
	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset"
	"github.com/Ratio1/chipstage_sdk_go/pkg/resultset/format"
)

// painter colors decorations (titles, footers, errors) but never cells.
type painter struct {
	title *color.Color
	faint *color.Color
	err   *color.Color
}

func newPainter(w io.Writer, force bool) *painter {
	p := &painter{
		title: color.New(color.FgCyan, color.Bold),
		faint: color.New(color.Faint),
		err:   color.New(color.FgRed, color.Bold),
	}
	if force || isTerminal(w) {
		p.title.EnableColor()
		p.faint.EnableColor()
		p.err.EnableColor()
		return p
	}
	p.title.DisableColor()
	p.faint.DisableColor()
	p.err.DisableColor()
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *painter) errorf(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", p.err.Sprint("error:"), err)
}

type renderer struct {
	w     io.Writer
	f     format.Formatter
	paint *painter
	// footer prints row counts after each table.
	footer bool
}

func (cfg *MainConfig) newRenderer(w io.Writer) (*renderer, error) {
	f, err := cfg.formatter()
	if err != nil {
		return nil, err
	}
	_, isTable := f.(*format.Table)
	return &renderer{w: w, f: f, paint: newPainter(w, cfg.Color), footer: isTable}, nil
}

func (r *renderer) cursor(title string, cur *resultset.Cursor) error {
	if title != "" && r.footer {
		fmt.Fprintln(r.w, r.paint.title.Sprint(title))
	}
	out, err := r.f.Format(cur)
	if err != nil {
		return err
	}
	if len(out) > 0 && out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	if _, err := r.w.Write(out); err != nil {
		return err
	}
	if r.footer {
		fmt.Fprintln(r.w, r.paint.faint.Sprint(rowCount(cur.RowCount())))
	}
	return nil
}

// result renders the first cursor of res, or all of them when all is set.
func (r *renderer) result(res *chips.Result, all bool) error {
	if len(res.Cursors) == 0 {
		if r.footer {
			fmt.Fprintln(r.w, r.paint.faint.Sprint("(no result)"))
		}
		return nil
	}
	if !all || len(res.Cursors) == 1 {
		return r.cursor("", res.First())
	}
	for i, cur := range res.Cursors {
		if err := r.cursor(fmt.Sprintf("entry %d", i+1), cur); err != nil {
			return err
		}
	}
	return nil
}

func (r *renderer) chips(list []chips.ChipInfo) error {
	return r.cursor("", chipsCursor(list))
}

func rowCount(n int) string {
	if n == 1 {
		return "(1 row)"
	}
	return fmt.Sprintf("(%d rows)", n)
}

// chipsCursor presents chip summaries as a result set so they render like
// query output.
func chipsCursor(list []chips.ChipInfo) *resultset.Cursor {
	schema := resultset.Schema{
		{Name: "name", Type: resultset.TypeUtf8},
		{Name: "source", Type: resultset.TypeUtf8},
		{Name: "rows", Type: resultset.TypeInt64},
		{Name: "columns", Type: resultset.TypeInt32},
		{Name: "staged_at", Type: resultset.TypeUtf8},
	}
	rows := make([]resultset.Row, 0, len(list))
	for _, c := range list {
		var staged *string
		if !c.StagedAt.IsZero() {
			staged = resultset.Text(c.StagedAt.UTC().Format(time.RFC3339))
		}
		var source *string
		if c.Source != "" {
			source = resultset.Text(c.Source)
		}
		rows = append(rows, resultset.Row{
			resultset.Text(c.Name),
			source,
			resultset.Text(strconv.Itoa(c.Rows)),
			resultset.Text(strconv.Itoa(c.Columns)),
			staged,
		})
	}
	return resultset.New(schema, rows)
}
