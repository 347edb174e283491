package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/alfredjeanlab/freightdesk/internal/model"
	"github.com/alfredjeanlab/freightdesk/internal/query"
	"github.com/alfredjeanlab/freightdesk/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// pageJSON is the --json shape of one page.
type pageJSON struct {
	Records    []model.DisplayRecord `json:"records"`
	Pagination model.Pagination      `json:"pagination"`
	Search     model.SearchTerm      `json:"search"`
	FromCache  bool                  `json:"from_cache"`
	Failed     int                   `json:"failed"`
}

func printPageJSON(w io.Writer, p *query.Page) error {
	records := p.Records
	if records == nil {
		records = []model.DisplayRecord{}
	}
	return printJSON(w, pageJSON{
		Records:    records,
		Pagination: p.Pagination,
		Search:     p.Term,
		FromCache:  p.FromCache,
		Failed:     p.Failed,
	})
}

func printPageTable(w io.Writer, p *query.Page) {
	if len(p.Records) == 0 {
		fmt.Fprintln(w, ui.RenderMuted("No delivery orders found."))
		printFooter(w, p)
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tLOAD\tSHIPMENT\tCARRIER\tPICKUP\tDROP\tPICKUP DATE\tSTATUS\tRATE")
	for _, r := range p.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.DisplayID,
			r.LoadNumber,
			r.ShipmentNo,
			truncate(r.CarrierName, 24),
			truncate(r.Pickup, 28),
			truncate(r.Drop, 28),
			r.PickupDate,
			ui.RenderStatus(r.Status),
			formatRate(r),
		)
	}
	tw.Flush()
	printFooter(w, p)
}

func printFooter(w io.Writer, p *query.Page) {
	pg := p.Pagination
	line := fmt.Sprintf("\nPage %d of %d (%d orders)", pg.CurrentPage, max(pg.TotalPages, 1), pg.TotalItems)
	if p.FromCache {
		line += " " + ui.RenderMuted("[cached]")
	}
	fmt.Fprintln(w, line)
	if !p.Term.IsEmpty() {
		fmt.Fprintf(w, "Search: %s = %s\n", p.Term.Field, ui.RenderAccent(p.Term.Value))
	}
	if p.Failed > 0 {
		fmt.Fprintln(w, ui.RenderError(fmt.Sprintf("%d record(s) could not be displayed", p.Failed)))
	}
}

func formatRate(r model.DisplayRecord) string {
	if r.Failed {
		return model.ErrorMarker
	}
	return strconv.FormatFloat(r.Rate, 'f', 2, 64)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
