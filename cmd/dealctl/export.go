package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/deal-analyzer/internal/common"
	"github.com/joseph-ayodele/deal-analyzer/internal/export"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var (
		format string
		out    string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "export [analysis-id]",
		Short: "Write one analysis as txt, html or xlsx, or every recent analysis as xlsx",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.initApp(cmd, true)
			if err != nil {
				return err
			}
			defer a.Close()

			var f export.File
			if len(args) == 0 {
				f, err = a.Exports.ExportList(cmd.Context(), limit)
			} else {
				id, perr := uuid.Parse(args[0])
				if perr != nil {
					return fmt.Errorf("%w: analysis id %q is not a uuid", common.ErrInvalidInput, args[0])
				}
				f, err = a.Exports.Export(cmd.Context(), id, format)
			}
			if err != nil {
				return err
			}

			dst := out
			if dst == "" {
				dst = f.Name
			}
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return err
			}
			if err := os.WriteFile(dst, f.Body, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", dst, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", dst, humanize.Bytes(uint64(len(f.Body))))
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", export.FormatTXT, "txt | html | xlsx")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to the export's file name)")
	cmd.Flags().IntVar(&limit, "limit", 0, "rows in the all-analyses workbook (0 = default)")
	return cmd
}
