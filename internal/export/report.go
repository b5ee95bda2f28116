package export

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type Outcome struct {
	UserID      string
	DisplayName string
	Events      int
	Path        string
	Duration    time.Duration
	Err         error
}

type Report struct {
	Outcomes []Outcome
}

func (r Report) Exported() int {
	count := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			count++
		}
	}
	return count
}

// Render writes the report as a table.
func (r Report) Render(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"User", "Name", "Events", "File", "Time", "Error"})
	for _, o := range r.Outcomes {
		errText := ""
		if o.Err != nil {
			errText = o.Err.Error()
		}
		t.AppendRow(table.Row{
			o.UserID,
			o.DisplayName,
			o.Events,
			o.Path,
			o.Duration.Round(time.Millisecond).String(),
			errText,
		})
	}
	t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d/%d exported", r.Exported(), len(r.Outcomes)), "", ""})
	t.Render()
}
