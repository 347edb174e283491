package export

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/alfredjeanlab/freightdesk/internal/query"
)

// Result is the outcome of one export run.
type Result struct {
	Summary   Summary
	Locations []string // one per destination that succeeded
	Bytes     int
}

// Scheduler exports one list to one or more destinations, either once via
// RunOnce or periodically via Start/Stop.
type Scheduler struct {
	pager        Pager
	req          query.PageRequest
	destinations []Destination
	interval     time.Duration
	logger       *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler that exports the list described by req.
func NewScheduler(pager Pager, req query.PageRequest, destinations []Destination, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		pager:        pager,
		req:          req,
		destinations: destinations,
		interval:     interval,
		logger:       logger,
	}
}

// RunOnce exports and writes to every destination. A destination failure
// does not stop the others; their errors are joined.
func (s *Scheduler) RunOnce(ctx context.Context) (Result, error) {
	var (
		res Result
		buf bytes.Buffer
	)
	sum, err := ExportJSONL(ctx, s.pager, s.req, &buf)
	res.Summary = sum
	if err != nil {
		return res, err
	}
	data := buf.Bytes()
	res.Bytes = len(data)

	var errs []error
	for _, dest := range s.destinations {
		loc, err := dest.Write(ctx, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res.Locations = append(res.Locations, loc)
	}
	return res, errors.Join(errs...)
}

// Start begins periodic exports. The first runs immediately. Each run uses a
// forced refresh so scheduled reports never come from the page cache.
func (s *Scheduler) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.req.ForceRefresh = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
}

// Stop cancels the scheduler and waits for the current export (if any) to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	s.runLogged(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runLogged(ctx)
		}
	}
}

func (s *Scheduler) runLogged(ctx context.Context) {
	res, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("export failed", "err", err)
	}
	if len(res.Locations) > 0 {
		s.logger.Info("export completed",
			"records", res.Summary.Records,
			"failed", res.Summary.Failed,
			"bytes", res.Bytes,
			"locations", res.Locations)
	}
}
