// Package report renders a dry-run preview of the records a run would
// upload.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/alecgard/tally/internal/focus"
)

// Render writes a cost table followed by the exact JSON payload the uploader
// would submit.
func Render(w io.Writer, records []focus.CostRecord) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Charge", "Period", "Entity", "Cost (USD)"})

	for _, rec := range records {
		tw.AppendRow(table.Row{
			rec.ChargeDescription,
			rec.ChargePeriodStart.Format(focus.DateLayout),
			entity(rec),
			rec.BilledCost.StringFixed(2),
		})
	}

	total := lo.Reduce(records, func(sum decimal.Decimal, rec focus.CostRecord, _ int) decimal.Decimal {
		return sum.Add(rec.BilledCost)
	}, decimal.Zero)
	tw.AppendFooter(table.Row{"Total", "", "", total.StringFixed(2)})

	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignRight},
	})
	tw.Render()

	payload, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "\n%s\n", payload)
	return err
}

// entity picks the billing entity a record is attached to, whichever the
// provider tagged it with.
func entity(rec focus.CostRecord) string {
	if repo, ok := rec.Tags["repository"]; ok {
		return repo
	}
	if name, ok := rec.Tags["project_name"]; ok {
		return name
	}
	return rec.Tags["service"]
}
