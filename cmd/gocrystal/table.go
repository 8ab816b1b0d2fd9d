package main

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/gocrystal/gocrystal/internal/ledger"
)

func renderRuns(runs []*ledger.Run) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Stage", "Status", "Energy (eV)", "Fmax (eV/Å)", "Converged", "Artifact", "When"})
	for _, r := range runs {
		tw.AppendRow(table.Row{
			r.Stage,
			r.Status,
			formatNullFloat(r.Energy, "%.4f"),
			formatNullFloat(r.Fmax, "%.3f"),
			formatNullBool(r.Converged),
			r.Artifact,
			r.UpdatedAt.Local().Format(time.DateTime),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

func formatNullFloat(v sql.NullFloat64, format string) string {
	if !v.Valid {
		return "-"
	}
	return fmt.Sprintf(format, v.Float64)
}

func formatNullBool(v sql.NullBool) string {
	if !v.Valid {
		return "-"
	}
	if v.Bool {
		return "yes"
	}
	return "no"
}
