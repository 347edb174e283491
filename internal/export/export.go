// Package export writes delivery-order reports as JSONL and ships them to a
// local file or an S3-compatible bucket, once or on a schedule.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alfredjeanlab/freightdesk/internal/model"
	"github.com/alfredjeanlab/freightdesk/internal/query"
)

// FormatVersion is written in every header record.
const FormatVersion = "1"

// Pager returns one page of a list. *query.Store implements it.
type Pager interface {
	GetPage(ctx context.Context, req query.PageRequest) (*query.Page, error)
}

// header is the first JSONL record written by ExportJSONL.
type header struct {
	Version    string    `json:"version"`
	Type       string    `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Query      queryInfo `json:"query"`
	TotalItems int       `json:"total_items"`
}

type queryInfo struct {
	Search          model.SearchTerm `json:"search"`
	SecondaryFilter string           `json:"secondary_filter,omitempty"`
	StartDate       string           `json:"start_date,omitempty"`
	EndDate         string           `json:"end_date,omitempty"`
}

// record wraps a single JSONL line with a type discriminator.
type record struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Summary reports what an export wrote.
type Summary struct {
	Pages      int
	Records    int
	Failed     int // error placeholders among Records
	TotalItems int
}

// ExportJSONL walks every page of the list described by req, starting at
// page 1, and writes a header line followed by one line per record.
// req.Page is ignored.
func ExportJSONL(ctx context.Context, pager Pager, req query.PageRequest, w io.Writer) (Summary, error) {
	var sum Summary

	req.Page = 1
	first, err := pager.GetPage(ctx, req)
	if err != nil {
		return sum, fmt.Errorf("fetch page 1: %w", err)
	}
	sum.TotalItems = first.Pagination.TotalItems

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(header{
		Version:   FormatVersion,
		Type:      "header",
		Timestamp: time.Now().UTC(),
		Query: queryInfo{
			Search:          first.Term,
			SecondaryFilter: req.SecondaryFilter,
			StartDate:       req.Dates.StartISO(),
			EndDate:         req.Dates.EndISO(),
		},
		TotalItems: sum.TotalItems,
	}); err != nil {
		return sum, fmt.Errorf("encode header: %w", err)
	}

	page := first
	for {
		sum.Pages++
		for _, r := range page.Records {
			if err := enc.Encode(record{Type: "order", Data: r}); err != nil {
				return sum, fmt.Errorf("encode order %s: %w", r.ID, err)
			}
			sum.Records++
			if r.Failed {
				sum.Failed++
			}
		}

		if req.Page >= first.Pagination.TotalPages {
			return sum, nil
		}
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		req.Page++
		if page, err = pager.GetPage(ctx, req); err != nil {
			return sum, fmt.Errorf("fetch page %d: %w", req.Page, err)
		}
	}
}
