package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/alfredjeanlab/freightdesk/internal/model"
)

// DefaultTimeout bounds every request; a request that exceeds it fails.
const DefaultTimeout = 10 * time.Second

// HTTPClient implements ReportClient using the back-office HTTP/JSON REST API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the underlying *http.Client. Apply it before
// WithTimeout if both are used.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.httpClient = hc }
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Lists ---

func (c *HTTPClient) ListDeliveryOrders(ctx context.Context, q url.Values) (*ListResponse, error) {
	return c.List(ctx, ResourceDeliveryOrders, q)
}

func (c *HTTPClient) ListLoads(ctx context.Context, q url.Values) (*ListResponse, error) {
	return c.List(ctx, ResourceLoads, q)
}

// List fetches one page from any list endpoint that follows the common
// {success, data, pagination} envelope.
func (c *HTTPClient) List(ctx context.Context, resource string, q url.Values) (*ListResponse, error) {
	path := resource
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	body, status, err := c.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	return decodeList(body, status)
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (string, error) {
	body, _, err := c.do(ctx, http.MethodGet, "/api/v1/health")
	if err != nil {
		return "", err
	}
	var resp struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return resp.Status, nil
}

// --- internal helpers ---

// APIError represents an error response from the server. Unsuccessful is set
// when the HTTP status was fine but the envelope carried success=false.
type APIError struct {
	StatusCode   int
	Message      string
	Unsuccessful bool
}

func (e *APIError) Error() string {
	if e.Unsuccessful {
		return fmt.Sprintf("request unsuccessful (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether err is worth retrying: transport failures,
// timeouts, 5xx/408/429 responses, and success=false envelopes.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Unsuccessful || apiErr.StatusCode >= 500 ||
			apiErr.StatusCode == http.StatusRequestTimeout ||
			apiErr.StatusCode == http.StatusTooManyRequests
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// do performs a request and returns the body of a 2xx response.
func (c *HTTPClient) do(ctx context.Context, method, path string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &errResp) == nil {
			if msg := firstNonEmpty(errResp.Error, errResp.Message); msg != "" {
				return nil, resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: msg}
			}
		}
		return nil, resp.StatusCode, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}
	return respBody, resp.StatusCode, nil
}

// decodeList unpacks the list envelope. Items that are not JSON objects are
// kept as nil records so that page positions are preserved.
func decodeList(body []byte, status int) (*ListResponse, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		msg := firstNonEmpty(env.Message, env.Error, "server reported success=false")
		return nil, &APIError{StatusCode: status, Message: msg, Unsuccessful: true}
	}

	rawItems, nested, err := splitData(env.Data)
	if err != nil {
		return nil, err
	}

	out := &ListResponse{Items: make([]model.RawRecord, 0, len(rawItems))}
	for _, raw := range rawItems {
		var rec model.RawRecord
		if json.Unmarshal(raw, &rec) != nil {
			rec = nil
		}
		out.Items = append(out.Items, rec)
	}

	var total, pages *count
	if env.Pagination != nil {
		total = firstInt(env.Pagination.TotalItems, env.Pagination.Total)
		pages = env.Pagination.TotalPages
	}
	total = firstInt(total, env.TotalItems, env.Total)
	pages = firstInt(pages, env.TotalPages)
	if nested != nil {
		if nested.Pagination != nil {
			total = firstInt(total, nested.Pagination.TotalItems, nested.Pagination.Total)
			pages = firstInt(pages, nested.Pagination.TotalPages)
		}
		total = firstInt(total, nested.TotalItems, nested.Total)
		pages = firstInt(pages, nested.TotalPages)
	}

	out.TotalItems = len(out.Items)
	if total != nil {
		out.TotalItems = int(*total)
	}
	if pages != nil {
		out.TotalPages = int(*pages)
	}
	return out, nil
}

// nestedData holds totals reported inside the data object.
type nestedData struct {
	Pagination *pageInfo `json:"pagination"`
	Total      *count    `json:"total"`
	TotalItems *count    `json:"totalItems"`
	TotalPages *count    `json:"totalPages"`
}

// splitData returns the raw item array from data, which may be the array
// itself or an object holding it under one of itemKeys.
func splitData(data json.RawMessage) ([]json.RawMessage, *nestedData, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil, nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, nil, fmt.Errorf("decoding data array: %w", err)
		}
		return items, nil, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, nil, fmt.Errorf("decoding data object: %w", err)
		}
		var nested nestedData
		if err := json.Unmarshal(data, &nested); err != nil {
			// Totals fall back to the item count.
			slog.Debug("ignoring malformed totals in data object", "err", err)
			nested = nestedData{}
		}

		key := ""
		for _, k := range itemKeys {
			if isArray(obj[k]) {
				key = k
				break
			}
		}
		if key == "" {
			keys := make([]string, 0, len(obj))
			for k := range obj {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if isArray(obj[k]) {
					key = k
					break
				}
			}
		}
		if key == "" {
			return nil, &nested, nil
		}
		var items []json.RawMessage
		if err := json.Unmarshal(obj[key], &items); err != nil {
			return nil, nil, fmt.Errorf("decoding data.%s: %w", key, err)
		}
		return items, &nested, nil
	}
	return nil, nil, fmt.Errorf("decoding response: unexpected data type %q", data[0])
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func firstInt(vals ...*count) *count {
	for _, v := range vals {
		if v != nil {
			return v
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
