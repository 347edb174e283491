package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var ordersCmd = &cobra.Command{
	Use:   "orders [search...]",
	Short: "List delivery orders, optionally filtered by a search term",
	Long: `List one page of delivery orders.

The search text is classified into a single field: a load number (L0618),
pickup date (2024-06-18, 06/18/2024), employee id (EMP042), shipment number
(1234567), container (MSCU1234567), or otherwise a carrier name.`,
	GroupID: "orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := listRequest(cmd, args)
		if err != nil {
			return err
		}
		req.Page, _ = cmd.Flags().GetInt("page")
		req.ForceRefresh, _ = cmd.Flags().GetBool("refresh")
		loads, _ := cmd.Flags().GetBool("loads")

		store := newStore(reportClient, loads, nil)
		defer store.Close()

		page, err := store.GetPage(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("listing orders: %w", err)
		}
		if jsonOutput {
			return printPageJSON(cmd.OutOrStdout(), page)
		}
		printPageTable(cmd.OutOrStdout(), page)
		return nil
	},
}

func init() {
	addListFlags(ordersCmd)
	ordersCmd.Flags().IntP("page", "p", 1, "page number (1-based)")
	ordersCmd.Flags().Bool("refresh", false, "bypass the page cache")
}
