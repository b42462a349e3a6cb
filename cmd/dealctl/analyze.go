package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
	"github.com/joseph-ayodele/deal-analyzer/internal/pipeline"
)

func newAnalyzeCmd(opts *rootOptions) *cobra.Command {
	var (
		goal        string
		asJSON      bool
		metricsOnly bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run the full analysis pipeline on a document and store the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.initApp(cmd, metricsOnly)
			if err != nil {
				return err
			}
			defer a.Close()

			an, err := a.Processor.Process(cmd.Context(), pipeline.Upload{
				Path:     args[0],
				FileName: filepath.Base(args[0]),
				Goal:     goal,
			})
			if an != nil {
				if perr := printAnalysis(cmd.OutOrStdout(), an, asJSON); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&goal, "goal", "g", "", "what the analysis should focus on; empty runs metrics only")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the stored analysis as JSON")
	cmd.Flags().BoolVar(&metricsOnly, "metrics-only", false, "skip the narrative even when a model is configured")
	return cmd
}

func printAnalysis(w io.Writer, a *entity.Analysis, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(a)
	}
	fmt.Fprintf(w, "Analysis %s (%s)\n", a.ID, a.Status)
	fmt.Fprintf(w, "File: %s\n", a.FileName)
	if a.Status.Terminal() && a.FinishedAt != nil {
		fmt.Fprintf(w, "Elapsed: %s\n", a.Elapsed().Round(time.Millisecond))
	}
	if a.Goal != "" {
		fmt.Fprintf(w, "Goal: %s\n", a.Goal)
	}
	if a.ErrorMessage != nil {
		fmt.Fprintf(w, "Error: %s\n", *a.ErrorMessage)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Detected Deal Metrics")
	if err := printMetrics(w, a.Metrics, false); err != nil {
		return err
	}
	if n := a.NarrativeText(); n != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Deal Analysis")
		fmt.Fprintln(w, n)
	}
	return nil
}
