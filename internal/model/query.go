package model

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical ISO date format used on the wire and in display records.
const DateLayout = "2006-01-02"

// ErrInvalidDateRange is returned when a date range is half-set or reversed.
var ErrInvalidDateRange = errors.New("invalid date range")

// DateRange is an inclusive pickup-date filter. The zero value means no filter.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange builds a range where both bounds are set, or both are zero.
func NewDateRange(start, end time.Time) (DateRange, error) {
	if start.IsZero() != end.IsZero() {
		return DateRange{}, fmt.Errorf("%w: start and end must both be set", ErrInvalidDateRange)
	}
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("%w: end %s is before start %s",
			ErrInvalidDateRange, end.Format(DateLayout), start.Format(DateLayout))
	}
	return DateRange{Start: start, End: end}, nil
}

// ParseDateRange parses two YYYY-MM-DD strings. Both empty yields the zero range.
func ParseDateRange(from, to string) (DateRange, error) {
	if from == "" && to == "" {
		return DateRange{}, nil
	}
	if from == "" || to == "" {
		return DateRange{}, fmt.Errorf("%w: start and end must both be set", ErrInvalidDateRange)
	}
	start, err := time.Parse(DateLayout, from)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: start: %v", ErrInvalidDateRange, err)
	}
	end, err := time.Parse(DateLayout, to)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: end: %v", ErrInvalidDateRange, err)
	}
	return NewDateRange(start, end)
}

// IsZero reports whether no date filter is applied.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// StartISO returns the start bound as YYYY-MM-DD, or "" when unset.
func (r DateRange) StartISO() string {
	if r.Start.IsZero() {
		return ""
	}
	return r.Start.Format(DateLayout)
}

// EndISO returns the end bound as YYYY-MM-DD, or "" when unset.
func (r DateRange) EndISO() string {
	if r.End.IsZero() {
		return ""
	}
	return r.End.Format(DateLayout)
}

// Equal reports whether both ranges cover the same days.
func (r DateRange) Equal(o DateRange) bool {
	return r.StartISO() == o.StartISO() && r.EndISO() == o.EndISO()
}

// DefaultSecondaryParam is the query parameter used for the secondary
// dimension filter when none is configured.
const DefaultSecondaryParam = "companyId"

// QueryParams is the full parameter set for one list request.
type QueryParams struct {
	Search          SearchTerm
	Page            int
	Limit           int
	Dates           DateRange
	SecondaryFilter string // "" means all
}

// Values encodes the parameters as a backend query string. secondaryParam
// names the secondary filter parameter; empty selects DefaultSecondaryParam.
func (q QueryParams) Values(secondaryParam string) url.Values {
	v := q.filterValues()
	v.Set("page", strconv.Itoa(q.Page))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.SecondaryFilter != "" {
		if secondaryParam == "" {
			secondaryParam = DefaultSecondaryParam
		}
		v.Set(secondaryParam, q.SecondaryFilter)
	}
	return v
}

// filterValues holds the search and date filters only.
func (q QueryParams) filterValues() url.Values {
	v := url.Values{}
	if !q.Search.IsEmpty() {
		v.Set(q.Search.Field.String(), q.Search.Value)
	}
	if !q.Dates.IsZero() {
		v.Set("startDate", q.Dates.StartISO())
		v.Set("endDate", q.Dates.EndISO())
	}
	return v
}

// CacheKey returns the page cache key: "{page}_{secondaryFilterOrAll}",
// extended with the encoded search/date filters when any are active. A real
// filter value is escaped so it never collides with "all" or the separators.
func (q QueryParams) CacheKey() string {
	filter := "all"
	if q.SecondaryFilter != "" {
		filter = escapeKeyPart(q.SecondaryFilter)
	}
	key := strconv.Itoa(q.Page) + "_" + filter
	if extra := q.filterValues(); len(extra) > 0 {
		key += "|" + extra.Encode()
	}
	return key
}

// escapeKeyPart query-escapes v and additionally escapes "_". The literal
// value "all" is written as "%61ll".
func escapeKeyPart(v string) string {
	esc := strings.ReplaceAll(url.QueryEscape(v), "_", "%5F")
	if esc == "all" {
		return "%61ll"
	}
	return esc
}
