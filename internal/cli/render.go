package cli

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joacominatel/devintest/internal/app"
	"github.com/joacominatel/devintest/internal/database"
	"github.com/joacominatel/devintest/internal/tui/theme"
)

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderRecords(w io.Writer, recs []database.Record) {
	if len(recs) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"id", "name", "data"})
	for _, r := range recs {
		t.AppendRow(table.Row{r.ID, r.Name, r.Data})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(recs))
}

// renderResult prints rows for reads and the affected count for writes.
func renderResult(w io.Writer, res *database.Result) {
	if len(res.Columns) == 0 {
		_, _ = fmt.Fprintf(w, "%d row(s) affected (%s)\n", res.RowsAffected, res.Duration)
		return
	}

	t := newTable(w)
	header := make(table.Row, len(res.Columns))
	for i, c := range res.Columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, row := range res.Rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows, %s)\n", res.RowCount(), res.Duration)
}

func renderStep(w io.Writer, r app.StepResult) {
	if !r.OK() {
		_, _ = fmt.Fprintln(w, theme.Failed(r.Title))
		return
	}
	_, _ = fmt.Fprintln(w, theme.OK(r.Title)+theme.StyleMuted.Render("  "+r.Detail))
}
