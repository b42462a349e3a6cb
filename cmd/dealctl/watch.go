package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/deal-analyzer/constants"
	"github.com/joseph-ayodele/deal-analyzer/internal/async"
	"github.com/joseph-ayodele/deal-analyzer/internal/ingest"
)

func newWatchCmd(opts *rootOptions) *cobra.Command {
	var (
		goal    string
		workers int
		once    bool
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Analyse every document dropped into a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.initApp(cmd, false)
			if err != nil {
				return err
			}
			defer a.Close()
			if goal == "" {
				goal = a.Config.Ingest.DefaultGoal
			}

			if once {
				results, stats, err := a.Ingestor.IngestDirectory(cmd.Context(), args[0], goal, true, force)
				if err != nil {
					return err
				}
				for _, r := range results {
					if r.Err != "" {
						fmt.Fprintf(cmd.OutOrStdout(), "FAILED  %s: %s\n", r.SourcePath, r.Err)
						continue
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s %s\n", r.Status, r.AnalysisID, r.SourcePath)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "scanned=%d matched=%d succeeded=%d failed=%d deduplicated=%d\n",
					stats.Scanned, stats.Matched, stats.Succeeded, stats.Failed, stats.Deduplicated)
				return nil
			}

			q := async.NewProcessorQueue(a.Ingestor.Handle, opts.logger(),
				async.WithWorkers(workers),
				async.WithQueueSize(a.Config.Ingest.QueueSize),
				async.WithProcessTimeout(3*time.Minute),
			)
			defer q.Shutdown(context.Background())

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s (ctrl-c to stop)\n", args[0])
			return ingest.Watch(cmd.Context(), ingest.WatchConfig{
				Roots:       []string{args[0]},
				AllowedExts: constants.AllowedExtensions,
				InitialScan: true,
				Debounce:    a.Config.Ingest.Debounce,
				Logger:      opts.logger(),
			}, q, goal)
		},
	}
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "analysis goal (defaults to INGEST_DEFAULT_GOAL)")
	cmd.Flags().IntVar(&workers, "workers", 2, "concurrent analyses")
	cmd.Flags().BoolVar(&once, "once", false, "analyse what is there now and exit")
	cmd.Flags().BoolVar(&force, "force", false, "re-analyse documents already seen")
	return cmd
}
