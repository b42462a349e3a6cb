package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/deal-analyzer/internal/app"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
)

func newMetricsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "metrics <file|->",
		Short: "Print the deal metrics found in a document or on stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd, opts, args[0])
			if err != nil {
				return err
			}
			ms := metrics.Extract(text)
			return printMetrics(cmd.OutOrStdout(), ms, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print an ordered JSON object")
	return cmd
}

func newTextCmd(opts *rootOptions) *cobra.Command {
	var preview int
	cmd := &cobra.Command{
		Use:   "text <file>",
		Short: "Print the text extracted from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.NewTextExtractor(common.LoadConfig().OCR, opts.logger()).Extract(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := res.Text
			if preview > 0 {
				out = res.Preview(preview)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			fmt.Fprintf(cmd.ErrOrStderr(), "method=%s pages=%d confidence=%.2f\n", res.Method, res.Pages, res.Confidence)
			return nil
		},
	}
	cmd.Flags().IntVar(&preview, "preview", 0, "only print the first N characters")
	return cmd
}

// readText returns stdin for "-", otherwise the extracted text of path.
func readText(cmd *cobra.Command, opts *rootOptions, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	res, err := app.NewTextExtractor(common.LoadConfig().OCR, opts.logger()).Extract(cmd.Context(), path)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func printMetrics(w io.Writer, ms metrics.MetricSet, asJSON bool) error {
	if asJSON {
		b, err := json.Marshal(ms)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}
	if ms.Empty() {
		_, err := fmt.Fprintln(w, "No metrics detected.")
		return err
	}
	for _, m := range ms.Entries() {
		if _, err := fmt.Fprintf(w, "%s: %s\n", m.Label, m.Value); err != nil {
			return err
		}
	}
	return nil
}
