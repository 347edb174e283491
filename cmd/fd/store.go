package main

import (
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/freightdesk/internal/client"
	"github.com/alfredjeanlab/freightdesk/internal/metrics"
	"github.com/alfredjeanlab/freightdesk/internal/model"
	"github.com/alfredjeanlab/freightdesk/internal/query"
)

// newStore builds a query store over the delivery-order endpoint, or the
// loads endpoint when loads is set. reg may be nil.
func newStore(c client.ReportClient, loads bool, reg prometheus.Registerer) *query.Store {
	fetch := query.FetcherFunc(c.ListDeliveryOrders)
	if loads {
		fetch = query.FetcherFunc(c.ListLoads)
	}
	var m *metrics.Metrics
	if reg != nil {
		m = metrics.New(reg, "freightdesk")
	}
	return query.New(fetch, query.Options{
		Limit:          cfg.PageSize,
		TTL:            cfg.CacheTTL,
		SecondaryParam: cfg.CompanyParam,
		EmployeePolicy: cfg.EmployeeSearch,
		Metrics:        m,
		Logger:         logger,
	})
}

// addListFlags registers the filters shared by every command that reads the
// order list.
func addListFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "start of the date range (YYYY-MM-DD)")
	cmd.Flags().String("to", "", "end of the date range (YYYY-MM-DD)")
	cmd.Flags().Bool("loads", false, "read the loads endpoint instead of delivery orders")
}

// listRequest builds a page request from the search arguments and the list
// flags on cmd.
func listRequest(cmd *cobra.Command, args []string) (query.PageRequest, error) {
	from, _ := cmd.Flags().GetString("from")
	to, _ := cmd.Flags().GetString("to")
	dates, err := model.ParseDateRange(from, to)
	if err != nil {
		return query.PageRequest{}, err
	}
	return query.PageRequest{
		Page:            1,
		SecondaryFilter: endpoint.Company,
		Search:          strings.Join(args, " "),
		Dates:           dates,
	}, nil
}
