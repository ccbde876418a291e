package main

import (
	"os"

	"github.com/spf13/cobra"

	"mcpshadow/internal/app"
	"mcpshadow/internal/domain"
	"mcpshadow/internal/infra/report"
)

type outputOptions struct {
	path   string
	format string
}

func (o *outputOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.path, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().StringVar(&o.format, "format", string(report.FormatJSON), "report format (json or yaml)")
}

func (o *outputOptions) writer() (func(domain.Report) error, error) {
	format, err := report.ParseFormat(o.format)
	if err != nil {
		return nil, err
	}
	return func(r domain.Report) error {
		return report.Write(os.Stdout, o.path, r, format)
	}, nil
}

func newScanCmd(opts *cliOptions) *cobra.Command {
	var output outputOptions

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one discovery scan and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			write, err := output.writer()
			if err != nil {
				return exitError{code: exitCodeFailure, message: err.Error()}
			}

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application, err := app.InitializeApplication(ctx, opts.settings, app.LoggingConfig{Logger: opts.logger})
			if err != nil {
				return exitFor(err)
			}
			result, err := application.Scan(ctx)
			if err != nil {
				return exitFor(err)
			}
			if err := write(result); err != nil {
				return exitFor(err)
			}
			if ctx.Err() != nil {
				return exitInterrupted()
			}
			return nil
		},
	}
	output.register(cmd)
	return cmd
}

func newWatchCmd(opts *cliOptions) *cobra.Command {
	var output outputOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rescan whenever the manifest changes and serve /metrics and /healthz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			write, err := output.writer()
			if err != nil {
				return exitError{code: exitCodeFailure, message: err.Error()}
			}

			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application, err := app.InitializeApplication(ctx, opts.settings, app.LoggingConfig{Logger: opts.logger})
			if err != nil {
				return exitFor(err)
			}
			return exitFor(application.Watch(ctx, write))
		},
	}
	output.register(cmd)
	return cmd
}
