package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/freightdesk/internal/events"
	"github.com/alfredjeanlab/freightdesk/internal/query"
)

var watchCmd = &cobra.Command{
	Use:   "watch [search...]",
	Short: "Keep one page of orders on screen, refreshing on change",
	Long: `Watch prints a page of orders and refreshes it whenever the backend
announces a change on NATS (FREIGHTDESK_NATS_URL or the profile's nats_url).
Without NATS it polls with a forced refresh every --interval.`,
	GroupID: "orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := listRequest(cmd, args)
		if err != nil {
			return err
		}
		req.Page, _ = cmd.Flags().GetInt("page")
		interval, _ := cmd.Flags().GetDuration("interval")
		debounce, _ := cmd.Flags().GetDuration("debounce")
		once, _ := cmd.Flags().GetBool("once")
		metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
		loads, _ := cmd.Flags().GetBool("loads")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var reg *prometheus.Registry
		if metricsAddr != "" {
			reg = prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			srv := serveMetrics(metricsAddr, reg)
			defer srv.Close()
		}

		store := newStore(reportClient, loads, registerer(reg))
		defer store.Close()

		p := &pagePrinter{w: cmd.OutOrStdout()}
		page, err := store.GetPage(ctx, req)
		if err != nil {
			return fmt.Errorf("listing orders: %w", err)
		}
		p.print(page, nil)
		if once {
			return nil
		}

		if endpoint.NATSURL != "" {
			return watchNATS(ctx, endpoint.NATSURL, store, debounce, p)
		}
		return watchPoll(ctx, interval, store, p)
	},
}

// pagePrinter serializes page output from the watcher and reconnect paths.
type pagePrinter struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *pagePrinter) print(page *query.Page, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		logger.Error("refresh failed", "err", err)
		return
	}
	if page.Stale {
		return
	}
	fmt.Fprintf(p.w, "\n--- %s ---\n", time.Now().Format(time.TimeOnly))
	if jsonOutput {
		if err := printPageJSON(p.w, page); err != nil {
			logger.Error("printing page", "err", err)
		}
		return
	}
	printPageTable(p.w, page)
}

// watchNATS invalidates and re-queries on every change event, and once more
// after each reconnect to pick up anything missed while disconnected.
func watchNATS(ctx context.Context, natsURL string, store *query.Store, debounce time.Duration, p *pagePrinter) error {
	reconnectCh := make(chan struct{}, 1)

	sub, err := events.NewNATSSubscriber(natsURL,
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats disconnected", "err", err)
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
			select {
			case reconnectCh <- struct{}{}:
			default:
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("connecting to NATS: %w", err)
	}
	defer sub.Close()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-reconnectCh:
				store.Invalidate()
				p.print(store.Refresh(ctx, false))
			}
		}
	}()

	w := &events.Watcher{
		Sub:      sub,
		Topic:    cfg.NATSSubject,
		Target:   store,
		Debounce: debounce,
		Logger:   logger,
		OnChange: func(ctx context.Context, msg events.Message) {
			p.print(store.Refresh(ctx, false))
		},
	}
	return w.Run(ctx)
}

// watchPoll re-queries with a forced refresh at the given interval.
func watchPoll(ctx context.Context, interval time.Duration, store *query.Store, p *pagePrinter) error {
	if interval <= 0 {
		return errors.New("--interval must be positive")
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		p.print(store.Refresh(ctx, true))
	}
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "err", err)
		}
	}()
	return srv
}

// registerer avoids handing query a typed-nil interface.
func registerer(reg *prometheus.Registry) prometheus.Registerer {
	if reg == nil {
		return nil
	}
	return reg
}

func init() {
	addListFlags(watchCmd)
	watchCmd.Flags().IntP("page", "p", 1, "page number (1-based)")
	watchCmd.Flags().Duration("interval", 30*time.Second, "poll interval when NATS is not configured")
	watchCmd.Flags().Duration("debounce", 200*time.Millisecond, "collapse change bursts closer than this")
	watchCmd.Flags().Bool("once", false, "print the page once and exit")
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9090)")
}
