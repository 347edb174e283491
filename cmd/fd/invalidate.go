package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/freightdesk/internal/events"
)

var invalidateCmd = &cobra.Command{
	Use:     "invalidate",
	Short:   "Tell every running watcher to drop its page cache",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		if endpoint.NATSURL == "" {
			return errors.New("NATS is not configured: set FREIGHTDESK_NATS_URL or the profile's nats_url")
		}
		reason, _ := cmd.Flags().GetString("reason")

		pub, err := events.NewNATSPublisher(endpoint.NATSURL)
		if err != nil {
			return fmt.Errorf("connecting to NATS: %w", err)
		}
		defer pub.Close()

		host, _ := os.Hostname()
		ev := events.CacheInvalidate{Reason: reason, RequestedBy: host, At: time.Now().UTC()}
		if err := pub.Publish(cmd.Context(), events.TopicCacheInvalidate, ev); err != nil {
			return fmt.Errorf("publishing invalidation: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", events.TopicCacheInvalidate)
		return nil
	},
}

func init() {
	invalidateCmd.Flags().String("reason", "manual", "reason recorded in the event")
}
