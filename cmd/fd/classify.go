package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/freightdesk/internal/search"
)

var classifyCmd = &cobra.Command{
	Use:     "classify <text...>",
	Short:   "Show which search field a piece of text maps to",
	GroupID: "orders",
	Args:    cobra.MinimumNArgs(1),
	// Local only; no backend client needed.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		term := search.Classify(strings.Join(args, " "))
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), term)
		}
		if term.IsEmpty() {
			fmt.Fprintln(cmd.OutOrStdout(), "no search field (empty input)")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", term.Field, term.Value)
		return nil
	},
}
