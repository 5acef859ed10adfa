package output

import (
	"fmt"
	"io"

	"github.com/andy/track/internal/domain"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// ReportWriter renders reports as a table
type ReportWriter struct {
	styles Styles
}

// NewReportWriter creates a ReportWriter; color selects styled headings
func NewReportWriter(color bool) *ReportWriter {
	return &ReportWriter{styles: NewStyles(color)}
}

// Write prints the report rows and the total to w
func (rw *ReportWriter) Write(w io.Writer, r *domain.Report) error {
	title := fmt.Sprintf("Tracked time %s → %s", FormatTime(r.WindowStart), FormatTime(r.WindowEnd))
	if _, err := fmt.Fprintln(w, rw.styles.Title.Render(title)); err != nil {
		return err
	}

	if len(r.Rows) == 0 {
		_, err := fmt.Fprintln(w, rw.styles.Muted.Render("No intervals in this window"))
		return err
	}

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.Off}},
		})),
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignRight},
			},
		}),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)

	table.Header([]string{"#", "Start", "End", "Duration"})
	for i, row := range r.Rows {
		end := FormatTime(row.End)
		if row.Open {
			end += " (running)"
		}
		if err := table.Append([]string{
			fmt.Sprintf("%d", i+1),
			FormatTime(row.Start),
			end,
			FormatDuration(row.Duration),
		}); err != nil {
			return fmt.Errorf("failed to add report row: %w", err)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	_, err := fmt.Fprintf(w, "Total: %s (%d seconds)\n",
		rw.styles.Value.Render(FormatDuration(r.Total)), int64(r.Total.Seconds()))
	return err
}
