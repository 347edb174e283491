// Package query implements the paginated, cached list store behind the
// delivery-order report: it classifies search input, composes backend query
// parameters, serves pages from a TTL cache, and owns the view state of one
// list (current page, filters, records, pagination).
package query

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/alfredjeanlab/freightdesk/internal/client"
	"github.com/alfredjeanlab/freightdesk/internal/model"
)

// DefaultLimit is the fixed page size.
const DefaultLimit = 15

var (
	// ErrInvalidPage is returned for page numbers below 1.
	ErrInvalidPage = errors.New("page must be >= 1")
	// ErrClosed is returned by GetPage after Close.
	ErrClosed = errors.New("query store closed")
)

// Fetcher executes one list query against the backend.
type Fetcher interface {
	Fetch(ctx context.Context, q url.Values) (*client.ListResponse, error)
}

// FetcherFunc adapts a function, such as (*client.HTTPClient).ListDeliveryOrders,
// to the Fetcher interface.
type FetcherFunc func(ctx context.Context, q url.Values) (*client.ListResponse, error)

func (f FetcherFunc) Fetch(ctx context.Context, q url.Values) (*client.ListResponse, error) {
	return f(ctx, q)
}

// EmployeePolicy decides how an employee-id search is executed.
type EmployeePolicy int

const (
	// EmployeeStrict queries assignedToCMT only.
	EmployeeStrict EmployeePolicy = iota
	// EmployeeFallback re-queries createdByEmpId when assignedToCMT matches nothing.
	EmployeeFallback
)

func (p EmployeePolicy) String() string {
	switch p {
	case EmployeeStrict:
		return "strict"
	case EmployeeFallback:
		return "fallback"
	}
	return fmt.Sprintf("EmployeePolicy(%d)", int(p))
}

// ParseEmployeePolicy parses "strict" or "fallback". Empty means strict.
func ParseEmployeePolicy(s string) (EmployeePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return EmployeeStrict, nil
	case "fallback":
		return EmployeeFallback, nil
	}
	return EmployeeStrict, fmt.Errorf("invalid employee search policy %q (want strict or fallback)", s)
}

// State is the fetch state of the list view.
type State int

const (
	StateIdle State = iota
	StateLoading
)

func (s State) String() string {
	if s == StateLoading {
		return "loading"
	}
	return "idle"
}

// PageRequest selects one page. Search is the raw text typed by the user.
type PageRequest struct {
	Page            int
	SecondaryFilter string
	Search          string
	Dates           model.DateRange
	ForceRefresh    bool
}

// Page is the result of GetPage.
type Page struct {
	Records    []model.DisplayRecord
	Pagination model.Pagination
	// Term is the search actually executed, which differs from the classified
	// input when the employee fallback policy re-targeted it.
	Term      model.SearchTerm
	Key       string
	FromCache bool
	// Stale is set when a newer request was issued while this one was in
	// flight; the page was cached but not applied to the view.
	Stale  bool
	Failed int
}

// View is a snapshot of the list view state.
type View struct {
	Page            int
	SecondaryFilter string
	Search          string
	Dates           model.DateRange
	Records         []model.DisplayRecord
	Pagination      model.Pagination
	State           State
	Err             error
}

// FetchError wraps a failed backend fetch.
type FetchError struct {
	Key       string
	Retryable bool
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching page %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
