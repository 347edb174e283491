package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/freightdesk/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export [search...]",
	Short: "Export every page of the order list as JSONL",
	Long: `Export walks the filtered order list from page 1 and writes a JSONL
report: one header line followed by one line per order.

Reports go to --out (a file or directory), to the S3 bucket named by
FREIGHTDESK_EXPORT_S3_BUCKET, or both. With --every the export repeats on
that interval until interrupted.`,
	GroupID: "orders",
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := listRequest(cmd, args)
		if err != nil {
			return err
		}
		out, _ := cmd.Flags().GetString("out")
		every, _ := cmd.Flags().GetDuration("every")
		if !cmd.Flags().Changed("every") {
			every = cfg.ExportInterval
		}
		loads, _ := cmd.Flags().GetBool("loads")

		dests, err := exportDestinations(cmd.Context(), out)
		if err != nil {
			return err
		}

		store := newStore(reportClient, loads, nil)
		defer store.Close()
		sched := export.NewScheduler(store, req, dests, every, logger)

		if every > 0 {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger.Info("scheduled export started", "interval", every, "destinations", len(dests))
			sched.Start()
			<-ctx.Done()
			sched.Stop()
			return nil
		}

		res, err := sched.RunOnce(cmd.Context())
		if jsonOutput {
			if perr := printJSON(cmd.OutOrStdout(), res); perr != nil {
				return perr
			}
		} else {
			for _, loc := range res.Locations {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d orders (%d failed) to %s\n",
					res.Summary.Records, res.Summary.Failed, loc)
			}
		}
		if err != nil {
			return fmt.Errorf("exporting: %w", err)
		}
		return nil
	},
}

// exportDestinations returns the file destination for out (when set) and
// the configured S3 bucket (when set). At least one is required.
func exportDestinations(ctx context.Context, out string) ([]export.Destination, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var dests []export.Destination
	if out != "" {
		dests = append(dests, export.FileDestination{Path: out})
	}
	if cfg.ExportS3Bucket != "" {
		s3dest, err := export.NewS3Destination(ctx, cfg.ExportS3Bucket, cfg.ExportPrefix, cfg.ExportS3Region, cfg.ExportS3Endpoint)
		if err != nil {
			return nil, fmt.Errorf("configuring S3 export: %w", err)
		}
		dests = append(dests, s3dest)
	}
	if len(dests) == 0 {
		return nil, errors.New("no export destination: pass --out or set FREIGHTDESK_EXPORT_S3_BUCKET")
	}
	return dests, nil
}

func init() {
	addListFlags(exportCmd)
	exportCmd.Flags().StringP("out", "o", "", "write the report to this file or directory")
	exportCmd.Flags().Duration("every", 0, "repeat the export on this interval (default FREIGHTDESK_EXPORT_INTERVAL)")
}
