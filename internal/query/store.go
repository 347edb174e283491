package query

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/alfredjeanlab/freightdesk/internal/cache"
	"github.com/alfredjeanlab/freightdesk/internal/client"
	"github.com/alfredjeanlab/freightdesk/internal/metrics"
	"github.com/alfredjeanlab/freightdesk/internal/model"
	"github.com/alfredjeanlab/freightdesk/internal/search"
	"github.com/alfredjeanlab/freightdesk/internal/transform"
)

// Options configures a Store. Zero values select defaults.
type Options struct {
	Limit          int
	TTL            time.Duration
	Now            func() time.Time
	SecondaryParam string
	EmployeePolicy EmployeePolicy
	Transformer    transform.Transformer
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
}

// Store is the cached query store for one list view. It is safe for
// concurrent use: cache and view writes are serialized by one mutex, and
// each fetch carries a sequence number so that a response overtaken by a
// newer request is cached but never shown.
type Store struct {
	fetcher    Fetcher
	cache      *cache.PageCache
	classifier search.Classifier
	opts       Options
	log        *slog.Logger

	mu      sync.Mutex
	closed  bool
	seq     uint64
	view    View
	loading uint64 // seq of the fetch that put the view into StateLoading
	// totalsKnown is set once the view shows a fetched page for its current
	// filters; SetPage clamps against those totals only.
	totalsKnown bool
}

// New creates a Store that reads pages through fetcher.
func New(fetcher Fetcher, opts Options) *Store {
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}
	if opts.TTL <= 0 {
		opts.TTL = cache.DefaultTTL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.SecondaryParam == "" {
		opts.SecondaryParam = model.DefaultSecondaryParam
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		fetcher: fetcher,
		cache:   cache.New(opts.TTL, opts.Now),
		opts:    opts,
		log:     log,
		view: View{
			Page:       1,
			Pagination: model.NewPagination(1, opts.Limit, 0),
		},
	}
}

// Limit returns the page size.
func (s *Store) Limit() int { return s.opts.Limit }

// Params returns the backend query parameters GetPage would use for req.
func (s *Store) Params(req PageRequest) model.QueryParams {
	return model.QueryParams{
		Search:          s.classifier.Classify(req.Search),
		Page:            req.Page,
		Limit:           s.opts.Limit,
		Dates:           req.Dates,
		SecondaryFilter: req.SecondaryFilter,
	}
}

// GetPage returns the requested page, from the cache when a valid entry
// exists and ForceRefresh is not set, otherwise from the backend. The view
// moves to the request's page and filters. On failure the cache is left
// untouched, the view keeps its previous records, and a *FetchError is
// returned.
func (s *Store) GetPage(ctx context.Context, req PageRequest) (*Page, error) {
	if req.Page < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPage, req.Page)
	}
	params := s.Params(req)
	key := params.CacheKey()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.seq++
	seq := s.seq
	s.view.Page = req.Page
	s.view.SecondaryFilter = req.SecondaryFilter
	s.view.Search = req.Search
	s.view.Dates = req.Dates

	if !req.ForceRefresh {
		if e, ok := s.cache.Get(key); ok {
			s.applyLocked(e.Records, e.Pagination)
			s.view.State = StateIdle
			s.view.Err = nil
			s.mu.Unlock()
			s.opts.Metrics.CacheHit()
			s.log.Debug("page cache hit", "key", key)
			term := e.Term
			if term.IsEmpty() {
				term = params.Search
			}
			return &Page{
				Records:    slices.Clone(e.Records),
				Pagination: e.Pagination,
				Term:       term,
				Key:        key,
				FromCache:  true,
			}, nil
		}
	}
	s.view.State = StateLoading
	s.loading = seq
	s.mu.Unlock()

	s.opts.Metrics.CacheMiss()
	s.log.Debug("fetching page", "key", key, "page", req.Page, "force", req.ForceRefresh)

	start := time.Now()
	resp, term, err := s.fetch(ctx, params)
	if err != nil {
		s.opts.Metrics.Fetched(metrics.OutcomeError, time.Since(start))
		ferr := &FetchError{Key: key, Retryable: client.IsRetryable(err), Err: err}
		s.mu.Lock()
		if seq == s.seq {
			s.view.Err = ferr
		}
		if s.loading == seq {
			s.view.State = StateIdle
		}
		s.mu.Unlock()
		s.log.Warn("page fetch failed", "key", key, "retryable", ferr.Retryable, "err", err)
		return nil, ferr
	}

	records, failed := s.opts.Transformer.Page(resp.Items)
	s.opts.Metrics.TransformFailed(failed)
	if failed > 0 {
		s.log.Warn("records failed to transform", "key", key, "failed", failed, "total", len(records))
	}
	pag := model.NewPagination(req.Page, s.opts.Limit, resp.TotalItems)

	s.mu.Lock()
	if s.closed {
		if s.loading == seq {
			s.view.State = StateIdle
		}
		s.mu.Unlock()
		return nil, ErrClosed
	}
	s.cache.Put(key, cache.Entry{Records: records, Pagination: pag, Term: term, CapturedAt: s.opts.Now()})
	stale := seq != s.seq
	if !stale {
		s.applyLocked(records, pag)
		s.view.Err = nil
	}
	if s.loading == seq {
		s.view.State = StateIdle
	}
	s.mu.Unlock()

	outcome := metrics.OutcomeSuccess
	if stale {
		outcome = metrics.OutcomeStale
		s.log.Debug("discarding stale page", "key", key, "seq", seq)
	}
	s.opts.Metrics.Fetched(outcome, time.Since(start))

	return &Page{
		Records:    slices.Clone(records),
		Pagination: pag,
		Term:       term,
		Key:        key,
		Stale:      stale,
		Failed:     failed,
	}, nil
}

// fetch runs the backend query, applying the employee policy.
func (s *Store) fetch(ctx context.Context, params model.QueryParams) (*client.ListResponse, model.SearchTerm, error) {
	resp, err := s.fetcher.Fetch(ctx, params.Values(s.opts.SecondaryParam))
	if err != nil {
		return nil, params.Search, err
	}
	if s.opts.EmployeePolicy != EmployeeFallback ||
		params.Search.Field != model.FieldAssignedToCMT ||
		resp.TotalItems > 0 || len(resp.Items) > 0 {
		return resp, params.Search, nil
	}

	alt := params
	alt.Search = params.Search.WithField(model.FieldCreatedByEmpID)
	s.log.Debug("no assigned orders, retrying as creator", "employee", alt.Search.Value)
	resp, err = s.fetcher.Fetch(ctx, alt.Values(s.opts.SecondaryParam))
	if err != nil {
		return nil, alt.Search, err
	}
	return resp, alt.Search, nil
}

// applyLocked replaces the visible page. s.mu must be held.
func (s *Store) applyLocked(records []model.DisplayRecord, pag model.Pagination) {
	s.view.Records = records
	s.view.Pagination = pag
	s.view.Page = pag.CurrentPage
	s.totalsKnown = true
}

// Refresh reloads the page described by the current view state.
func (s *Store) Refresh(ctx context.Context, force bool) (*Page, error) {
	s.mu.Lock()
	req := PageRequest{
		Page:            s.view.Page,
		SecondaryFilter: s.view.SecondaryFilter,
		Search:          s.view.Search,
		Dates:           s.view.Dates,
		ForceRefresh:    force,
	}
	s.mu.Unlock()
	return s.GetPage(ctx, req)
}

// Invalidate drops every cached page.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.cache.Clear()
	s.mu.Unlock()
	s.log.Debug("page cache invalidated")
}

// SetPage moves the view to page n without fetching. n is clamped to 1 and,
// once a page has been loaded for the current filters, to its total pages.
func (s *Store) SetPage(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n = max(n, 1)
	if s.totalsKnown {
		n = min(n, max(s.view.Pagination.TotalPages, 1))
	}
	s.view.Page = n
	s.view.Pagination.CurrentPage = n
	s.seq++
}

// SetSecondaryFilter changes the secondary filter ("" means all). A change
// resets the view to page 1.
func (s *Store) SetSecondaryFilter(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.SecondaryFilter != id {
		s.view.SecondaryFilter = id
		s.resetPageLocked()
	}
}

// SetSearch changes the raw search text. A change resets the view to page 1.
func (s *Store) SetSearch(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.view.Search != raw {
		s.view.Search = raw
		s.resetPageLocked()
	}
}

// SetDateRange changes the date filter. A change resets the view to page 1.
func (s *Store) SetDateRange(dr model.DateRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.view.Dates.Equal(dr) {
		s.view.Dates = dr
		s.resetPageLocked()
	}
}

func (s *Store) resetPageLocked() {
	s.view.Page = 1
	s.view.Pagination.CurrentPage = 1
	s.totalsKnown = false
	s.seq++
}

// Records returns the visible records.
func (s *Store) Records() []model.DisplayRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.view.Records)
}

// Pagination returns the visible pagination state.
func (s *Store) Pagination() model.Pagination {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Pagination
}

// State returns whether a fetch for the current view is in flight.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.State
}

// Err returns the error of the most recent fetch for the current view, or
// nil after a success.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.Err
}

// View returns a snapshot of the whole view state.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view
	v.Records = slices.Clone(v.Records)
	return v
}

// Close clears the cache. Later GetPage calls return ErrClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.cache.Clear()
	return nil
}
