package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/freightdesk/internal/client"
	"github.com/alfredjeanlab/freightdesk/internal/config"
	"github.com/alfredjeanlab/freightdesk/internal/logging"
	"github.com/alfredjeanlab/freightdesk/internal/ui"
)

var (
	apiURL      string
	token       string
	profileName string
	jsonOutput  bool
	company     string
	noColor     bool

	cfg          *config.Config
	logger       *slog.Logger
	reportClient client.ReportClient
	endpoint     resolvedEndpoint
)

var rootCmd = &cobra.Command{
	Use:           "fd <command>",
	Short:         "Search, page through, and export delivery orders",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setup(cmd); err != nil {
			return err
		}
		reportClient = client.NewHTTPClient(endpoint.URL, endpoint.Token, client.WithTimeout(cfg.HTTPTimeout))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if reportClient != nil {
			reportClient.Close()
		}
	},
}

// setup loads configuration, resolves the endpoint and builds the logger.
func setup(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return err
	}
	logger = logging.New(os.Stderr, cfg.LogFormat, cfg.LogLevel)
	slog.SetDefault(logger)
	if noColor {
		ui.ForceNoColor()
	}

	profiles, err := loadProfiles()
	if err != nil {
		return fmt.Errorf("loading profiles: %w", err)
	}
	endpoint, err = resolveEndpoint(cmd, cfg, profiles)
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "backend base URL (overrides FREIGHTDESK_API_URL and the profile)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "bearer token")
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "named profile to use instead of the active one")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	rootCmd.PersistentFlags().StringVar(&company, "company", "", "restrict results to one company id")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddGroup(
		&cobra.Group{ID: "orders", Title: "Orders:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(invalidateCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
