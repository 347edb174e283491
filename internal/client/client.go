// Package client provides an HTTP/JSON client for the freight back-office
// REST API: paginated list endpoints for delivery orders and loads, and health.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/alfredjeanlab/freightdesk/internal/model"
)

// Resource paths for the list endpoints.
const (
	ResourceDeliveryOrders = "/api/v1/delivery-orders"
	ResourceLoads          = "/api/v1/loads"
)

// ReportClient is the interface that CLI commands and the query store use to
// reach the backend. It is implemented by HTTPClient.
type ReportClient interface {
	ListDeliveryOrders(ctx context.Context, q url.Values) (*ListResponse, error)
	ListLoads(ctx context.Context, q url.Values) (*ListResponse, error)
	List(ctx context.Context, resource string, q url.Values) (*ListResponse, error)
	Health(ctx context.Context) (string, error)
	Close() error
}

// ListResponse is one page of raw records plus the server-reported totals.
type ListResponse struct {
	Items      []model.RawRecord
	TotalItems int
	// TotalPages is zero when the server did not report it.
	TotalPages int
}

// envelope is the common response wrapper. data holds either the item array
// or an object containing it; totals may appear in several places.
type envelope struct {
	Success    *bool           `json:"success"`
	Message    string          `json:"message"`
	Error      string          `json:"error"`
	Data       json.RawMessage `json:"data"`
	Pagination *pageInfo       `json:"pagination"`
	Total      *count          `json:"total"`
	TotalItems *count          `json:"totalItems"`
	TotalPages *count          `json:"totalPages"`
}

type pageInfo struct {
	Total      *count `json:"total"`
	TotalItems *count `json:"totalItems"`
	TotalPages *count `json:"totalPages"`
}

// count is a total reported by the server. Some endpoints send totals as
// numeric strings ("42"), which are accepted as well as JSON numbers.
type count int

func (n *count) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return fmt.Errorf("invalid count %s", b)
	}
	*n = count(f)
	return nil
}

// itemKeys are tried in order when data is an object.
var itemKeys = []string{"items", "records", "deliveryOrders", "loads", "results"}
