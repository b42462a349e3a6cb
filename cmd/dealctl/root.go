package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/deal-analyzer/internal/app"
	"github.com/joseph-ayodele/deal-analyzer/internal/common"
)

type rootOptions struct {
	inmem   bool
	verbose bool
	logOut  io.Writer
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logOut: os.Stderr}
	cmd := &cobra.Command{
		Use:   "dealctl",
		Short: "Extract deal metrics and analyses from real-estate documents",
		Long: `dealctl reads offering memorandums, rent rolls and listing sheets (PDF, image,
DOCX or text), pulls the headline deal metrics out of them and, when a model is
configured, writes an underwriting narrative for a stated goal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVar(&opts.inmem, "inmem", false, "use a throwaway in-memory database")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(
		newMetricsCmd(opts),
		newTextCmd(opts),
		newAnalyzeCmd(opts),
		newExportCmd(opts),
		newWatchCmd(opts),
		newDBHealthCmd(opts),
	)
	return cmd
}

func (o *rootOptions) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(o.logOut, &slog.HandlerOptions{Level: level}))
}

// initApp loads configuration and wires the shared components.
func (o *rootOptions) initApp(cmd *cobra.Command, metricsOnly bool) (*app.App, error) {
	cfg := common.LoadConfig()
	if err := cfg.Validate(false); err != nil {
		return nil, err
	}
	return app.Init(cmd.Context(), cfg, app.Options{InMemory: o.inmem, MetricsOnly: metricsOnly}, o.logger())
}
